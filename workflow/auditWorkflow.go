package workflow

import (
	"context"
	"errors"
	"fmt"

	"github.com/auditafrete/freight_backend/config"
	"github.com/auditafrete/freight_backend/cte"
	"github.com/auditafrete/freight_backend/models"
	"github.com/auditafrete/freight_backend/utils"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// DocumentOutcome is the per-document result reported back to the caller.
// Duplicates count as non-success (legacy batch semantics) but carry a
// distinguishing message.
type DocumentOutcome struct {
	Success  bool   `json:"success"`
	CteId    int    `json:"cteId,omitempty"`
	XmlKey   string `json:"xmlKey,omitempty"`
	Filename string `json:"filename"`
	Message  string `json:"message,omitempty"`
}

const duplicateMessage = "CT-e já importado"

// ProcessCteDocument runs one CT-e through the audit pipeline:
// extract → duplicate guard → rate resolution → charge calculation →
// divergence classification → persist shipment + audit record.
// Failures are returned as outcomes, never raised to the batch.
func ProcessCteDocument(db *gorm.DB, logger *logrus.Logger, ctx context.Context, businessId, filename string, data []byte) DocumentOutcome {
	extracted, err := cte.Extract(data)
	if err != nil {
		return DocumentOutcome{Filename: filename, Message: err.Error()}
	}

	exists, err := models.ShipmentExists(db, ctx, extracted.CteKey)
	if err != nil {
		config.LogError(logger, "auditWorkflow.go", "ProcessCteDocument", "duplicate guard", extracted.CteKey, err)
		return DocumentOutcome{Filename: filename, XmlKey: extracted.CteKey, Message: err.Error()}
	}
	if exists {
		return DocumentOutcome{Filename: filename, XmlKey: extracted.CteKey, Message: duplicateMessage}
	}

	calculated, structural, err := resolveExpectedCharge(db, ctx, businessId, extracted)
	if err != nil {
		config.LogError(logger, "auditWorkflow.go", "ProcessCteDocument", "rate resolution", extracted.CteKey, err)
		return DocumentOutcome{Filename: filename, XmlKey: extracted.CteKey, Message: err.Error()}
	}

	divergence, difference := ClassifyDivergence(extracted.DeclaredValue, calculated, structural)

	shipment := models.Shipment{
		BusinessId:      businessId,
		CteKey:          extracted.CteKey,
		CarrierCnpj:     extracted.CarrierCnpj,
		PayerCnpj:       extracted.PayerCnpj,
		DeclaredValue:   extracted.DeclaredValue,
		GrossWeight:     extracted.GrossWeight,
		IcmsValue:       extracted.IcmsValue,
		IcmsBase:        extracted.IcmsBase,
		IcmsRate:        extracted.IcmsRate,
		OriginCep:       extracted.OriginCep,
		OriginCity:      extracted.OriginCity,
		DestinationCep:  extracted.DestinationCep,
		DestinationCity: extracted.DestinationCity,
		Status:          models.ShipmentStatusAudited,
	}

	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&shipment).Error; err != nil {
			return err
		}
		audit := models.AuditRecord{
			BusinessId:      businessId,
			ShipmentId:      shipment.ID,
			CalculatedValue: calculated,
			Difference:      difference,
			DivergenceType:  divergence,
			Status:          models.AuditStatusOpen,
		}
		return tx.Create(&audit).Error
	})
	if err != nil {
		config.LogError(logger, "auditWorkflow.go", "ProcessCteDocument", "persisting audit", extracted.CteKey, err)
		return DocumentOutcome{Filename: filename, XmlKey: extracted.CteKey, Message: err.Error()}
	}

	return DocumentOutcome{
		Success:  true,
		CteId:    shipment.ID,
		XmlKey:   extracted.CteKey,
		Filename: filename,
	}
}

// resolveExpectedCharge resolves carrier → active rate table → weight band
// and computes the expected charge. Missing configuration is never fatal:
// the declared value is used as the calculated value and a structural
// divergence is tagged, so the shipment is always fully audited.
func resolveExpectedCharge(db *gorm.DB, ctx context.Context, businessId string, extracted *cte.ExtractedShipment) (calculated decimal.Decimal, structural *models.DivergenceType, err error) {
	calculated = extracted.DeclaredValue

	carrier, err := models.GetCarrierByCnpj(db, ctx, businessId, extracted.CarrierCnpj)
	if err != nil {
		if errors.Is(err, utils.ErrorRecordNotFound) {
			tableError := models.DivergenceTypeTableError
			return calculated, &tableError, nil
		}
		return calculated, nil, err
	}

	table, err := models.ResolveActiveRateTable(db, ctx, carrier.ID, models.ActiveRateTablePolicy())
	if err != nil {
		if errors.Is(err, utils.ErrorRecordNotFound) {
			tableError := models.DivergenceTypeTableError
			return calculated, &tableError, nil
		}
		return calculated, nil, err
	}

	band := MatchWeightBand(table.Bands, extracted.GrossWeight)
	if band == nil {
		weightError := models.DivergenceTypeWeightError
		return calculated, &weightError, nil
	}

	return CalculateExpectedCharge(*band, extracted.GrossWeight), nil, nil
}

// processDocumentSafely shields the batch from panics inside one document.
func processDocumentSafely(db *gorm.DB, logger *logrus.Logger, ctx context.Context, businessId, filename string, data []byte) (outcome DocumentOutcome) {
	defer func() {
		if r := recover(); r != nil {
			outcome = DocumentOutcome{Filename: filename, Message: fmt.Sprintf("falha inesperada: %v", r)}
		}
	}()
	return ProcessCteDocument(db, logger, ctx, businessId, filename, data)
}
