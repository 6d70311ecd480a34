package workflow

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/auditafrete/freight_backend/config"
	"github.com/auditafrete/freight_backend/models"
	"github.com/auditafrete/freight_backend/utils"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

// Five-cent tolerance for the all-in total check.
var reconcileTolerance = decimal.NewFromFloat(0.05)

// Data entry in the memória de cálculo is inconsistent about accents
// ("código" vs "codigo", "pedágios" vs "pedagios"); headers are reduced to
// one canonical unaccented form before field lookup.
var headerAccents = strings.NewReplacer(
	"á", "a", "à", "a", "â", "a", "ã", "a",
	"é", "e", "ê", "e",
	"í", "i",
	"ó", "o", "ô", "o", "õ", "o",
	"ú", "u",
	"ç", "c",
)

func canonicalHeader(header string) string {
	h := strings.ToLower(strings.TrimSpace(header))
	h = headerAccents.Replace(h)
	h = strings.ReplaceAll(h, " ", "_")
	h = strings.ReplaceAll(h, "-", "_")
	return h
}

// MapRow pairs data cells with their canonical header names. Short rows are
// tolerated (missing trailing cells read as empty).
func MapRow(headers []string, cells []string) map[string]string {
	fields := make(map[string]string, len(headers))
	for i, header := range headers {
		key := canonicalHeader(header)
		if key == "" {
			continue
		}
		if i < len(cells) {
			fields[key] = cells[i]
		} else {
			fields[key] = ""
		}
	}
	return fields
}

// BuildReconciliationRow validates one row and recomputes its all-in total.
// A non-empty message means the row failed validation (a row error, never
// fatal to the batch); otherwise the returned row carries its
// CONCILIADO / ERRO DE CONCILIAÇÃO status.
func BuildReconciliationRow(fields map[string]string) (*models.ReconciliationRow, string) {
	codigo := utils.TrimmedOrEmpty(fields["codigo"])
	transportadora := utils.TrimmedOrEmpty(fields["transportadora"])
	if codigo == "" || transportadora == "" {
		return nil, "codigo e transportadora são obrigatórios"
	}

	origem := utils.TrimmedOrEmpty(fields["origem"])
	destino := utils.TrimmedOrEmpty(fields["destino"])
	if origem == "" || destino == "" {
		return nil, "origem e destino são obrigatórios"
	}

	allIn := utils.ParseDecimal(fields["frete_all_in"])
	if !allIn.IsPositive() {
		return nil, "conciliação impossível: frete all-in ausente ou não positivo"
	}

	icms := utils.ParseDecimal(fields["icms"])
	pedagios := utils.ParseDecimal(fields["pedagios"])
	seguro := utils.ParseDecimal(fields["seguro"])
	fretePeso := utils.ParseDecimal(fields["frete_peso"])

	calculatedTotal := icms.Add(pedagios).Add(seguro).Add(fretePeso)
	diff := calculatedTotal.Sub(allIn).Abs()

	status := models.ReconciliationStatusConciliado
	if diff.GreaterThan(reconcileTolerance) {
		status = models.ReconciliationStatusErro
	}

	return &models.ReconciliationRow{
		Codigo:          codigo,
		Transportadora:  transportadora,
		Origem:          origem,
		Destino:         destino,
		Icms:            icms,
		Pedagios:        pedagios,
		Seguro:          seguro,
		FretePeso:       fretePeso,
		FreteAllIn:      allIn,
		CalculatedTotal: calculatedTotal,
		Diff:            diff,
		Status:          status,
	}, ""
}

// buildRowSafely shields the import loop from a row that blows up (bad cell
// types and the like); the panic becomes that row's error message.
func buildRowSafely(fields map[string]string) (row *models.ReconciliationRow, errMessage string) {
	defer func() {
		if r := recover(); r != nil {
			row = nil
			errMessage = fmt.Sprintf("erro inesperado na linha: %v", r)
		}
	}()
	return BuildReconciliationRow(fields)
}

// ImportMemoria imports one memória de cálculo spreadsheet.
// The ImportBatch is created in `processing` before any row runs so row
// errors have a stable reference; all row inserts plus the final count
// update commit in a single transaction per file. A transaction failure
// rolls the file's rows back and leaves the batch `processing` for manual
// inspection.
func ImportMemoria(db *gorm.DB, logger *logrus.Logger, ctx context.Context, businessId, filename string, reader io.Reader) (*models.ImportBatch, error) {
	batch := models.ImportBatch{
		BusinessId:    businessId,
		Filename:      filename,
		Status:        models.ImportBatchStatusProcessing,
		CorrelationId: uuid.NewString(),
	}
	if err := db.WithContext(ctx).Create(&batch).Error; err != nil {
		config.LogError(logger, "reconciliationWorkflow.go", "ImportMemoria", "creating import batch", filename, err)
		return nil, err
	}

	f, err := excelize.OpenReader(reader)
	if err != nil {
		config.LogError(logger, "reconciliationWorkflow.go", "ImportMemoria", "opening spreadsheet", filename, err)
		return &batch, fmt.Errorf("planilha ilegível: %w", err)
	}
	defer f.Close()

	rows, err := f.GetRows(f.GetSheetName(0))
	if err != nil {
		config.LogError(logger, "reconciliationWorkflow.go", "ImportMemoria", "reading rows", filename, err)
		return &batch, err
	}

	var headers []string
	var dataRows [][]string
	if len(rows) > 0 {
		headers = rows[0]
		dataRows = rows[1:]
	}

	imported := 0
	errored := 0

	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Header is row 1; data rows are numbered from 2.
		for i, cells := range dataRows {
			rowNumber := i + 2
			fields := MapRow(headers, cells)

			row, errMessage := buildRowSafely(fields)
			if errMessage != "" {
				rowError := models.ImportRowError{
					ImportBatchId: batch.ID,
					RowNumber:     rowNumber,
					Message:       errMessage,
					RawRow:        utils.RawRowJSON(fields),
				}
				if err := tx.Create(&rowError).Error; err != nil {
					return err
				}
				errored++
				continue
			}

			row.BusinessId = businessId
			row.ImportBatchId = batch.ID
			if err := tx.Create(row).Error; err != nil {
				return err
			}
			imported++
		}

		status := models.ImportBatchStatusSuccess
		if errored > 0 {
			status = models.ImportBatchStatusWarning
		}
		return tx.Model(&models.ImportBatch{}).
			Where("id = ?", batch.ID).
			Updates(map[string]interface{}{
				"status":         status,
				"imported_count": imported,
				"error_count":    errored,
				"total_count":    imported + errored,
			}).Error
	})
	if err != nil {
		config.LogError(logger, "reconciliationWorkflow.go", "ImportMemoria", "row transaction", filename, err)
		return &batch, err
	}

	batch.ImportedCount = imported
	batch.ErrorCount = errored
	batch.TotalCount = imported + errored
	if errored > 0 {
		batch.Status = models.ImportBatchStatusWarning
	} else {
		batch.Status = models.ImportBatchStatusSuccess
	}

	logger.WithFields(logrus.Fields{
		"batch_id": batch.ID,
		"filename": filename,
		"imported": imported,
		"errors":   errored,
	}).Info("[memoria.import]")

	return &batch, nil
}
