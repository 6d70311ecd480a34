package models

import (
	"context"
	"errors"
	"time"

	"github.com/auditafrete/freight_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ReconciliationRow is one imported "memória de cálculo" spreadsheet line:
// declared all-in freight total checked against the sum of its cost
// components.
type ReconciliationRow struct {
	ID              int                  `gorm:"primary_key" json:"id"`
	BusinessId      string               `gorm:"index;not null" json:"business_id"`
	ImportBatchId   int                  `gorm:"index;not null" json:"import_batch_id"`
	Codigo          string               `gorm:"size:100;index;not null" json:"codigo"`
	Transportadora  string               `gorm:"size:255;not null" json:"transportadora"`
	Origem          string               `gorm:"size:255;not null" json:"origem"`
	Destino         string               `gorm:"size:255;not null" json:"destino"`
	Icms            decimal.Decimal      `gorm:"type:decimal(20,4);default:0" json:"icms"`
	Pedagios        decimal.Decimal      `gorm:"type:decimal(20,4);default:0" json:"pedagios"`
	Seguro          decimal.Decimal      `gorm:"type:decimal(20,4);default:0" json:"seguro"`
	FretePeso       decimal.Decimal      `gorm:"type:decimal(20,4);default:0" json:"frete_peso"`
	FreteAllIn      decimal.Decimal      `gorm:"type:decimal(20,4);default:0" json:"frete_all_in"`
	CalculatedTotal decimal.Decimal      `gorm:"type:decimal(20,4);default:0" json:"calculated_total"`
	Diff            decimal.Decimal      `gorm:"type:decimal(20,4);default:0" json:"diff"`
	Status          ReconciliationStatus `gorm:"size:30;not null" json:"status"`
	CreatedAt       time.Time            `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time            `gorm:"autoUpdateTime" json:"updated_at"`
}

// ImportBatch is one uploaded spreadsheet's outcome. Created in `processing`
// before any row runs, so row errors can reference it even when the rest of
// the import fails; a rolled-back import leaves it `processing` for manual
// inspection.
type ImportBatch struct {
	ID            int               `gorm:"primary_key" json:"id"`
	BusinessId    string            `gorm:"index;not null" json:"business_id"`
	Filename      string            `gorm:"size:255;not null" json:"filename"`
	Status        ImportBatchStatus `gorm:"type:enum('processing','success','warning');default:processing" json:"status"`
	ImportedCount int               `gorm:"default:0" json:"imported_count"`
	ErrorCount    int               `gorm:"default:0" json:"error_count"`
	TotalCount    int               `gorm:"default:0" json:"total_count"`
	CorrelationId string            `gorm:"size:64;index" json:"correlation_id"`
	RowErrors     []ImportRowError  `gorm:"foreignKey:ImportBatchId" json:"row_errors,omitempty"`
	CreatedAt     time.Time         `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time         `gorm:"autoUpdateTime" json:"updated_at"`
}

type ImportRowError struct {
	ID            int       `gorm:"primary_key" json:"id"`
	ImportBatchId int       `gorm:"index;not null" json:"import_batch_id"`
	RowNumber     int       `gorm:"not null" json:"row_number"`
	Message       string    `gorm:"size:500;not null" json:"message"`
	RawRow        string    `gorm:"type:text" json:"raw_row"`
	CreatedAt     time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func GetImportBatch(db *gorm.DB, ctx context.Context, businessId string, id int) (*ImportBatch, error) {
	var batch ImportBatch
	err := db.WithContext(ctx).
		Preload("RowErrors").
		Where("business_id = ? AND id = ?", businessId, id).
		Take(&batch).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.ErrorRecordNotFound
		}
		return nil, err
	}
	return &batch, nil
}

// WaiveReconciliationRow marks a row ABONADO. Idempotent like the audit
// waiver.
func WaiveReconciliationRow(db *gorm.DB, ctx context.Context, businessId string, id int) (*ReconciliationRow, error) {
	var row ReconciliationRow
	if err := db.WithContext(ctx).
		Where("business_id = ? AND id = ?", businessId, id).Take(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.ErrorRecordNotFound
		}
		return nil, err
	}
	if row.Status == ReconciliationStatusAbonado {
		return &row, nil
	}

	row.Status = ReconciliationStatusAbonado
	if err := db.WithContext(ctx).Save(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}
