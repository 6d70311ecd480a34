package models

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/auditafrete/freight_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// AuditRecord is the one-to-one audit outcome for a Shipment, created once at
// audit time and mutated only by the contest/waive transitions.
type AuditRecord struct {
	ID              int             `gorm:"primary_key" json:"id"`
	BusinessId      string          `gorm:"index;not null" json:"business_id"`
	ShipmentId      int             `gorm:"uniqueIndex;not null" json:"shipment_id"`
	CalculatedValue decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"calculated_value"`
	Difference      decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"difference"`
	DivergenceType  *DivergenceType `gorm:"type:enum('table_error','weight_error','value_divergence');default:null" json:"divergence_type"`
	Status          AuditStatus     `gorm:"type:enum('open','contested','waived');default:open" json:"status"`
	ContestReason   string          `gorm:"type:text" json:"contest_reason"`
	CreatedAt       time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

var (
	ErrContestReasonRequired = errors.New("motivo da contestação é obrigatório")
	ErrAuditClosed           = errors.New("auditoria já encerrada")
)

func getAuditRecord(db *gorm.DB, ctx context.Context, businessId string, id int) (*AuditRecord, error) {
	var audit AuditRecord
	if err := db.WithContext(ctx).
		Where("business_id = ? AND id = ?", businessId, id).Take(&audit).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.ErrorRecordNotFound
		}
		return nil, err
	}
	return &audit, nil
}

// ContestAudit moves an open audit to contested. The reason is mandatory;
// contested and waived are terminal.
func ContestAudit(db *gorm.DB, ctx context.Context, businessId string, id int, reason string) (*AuditRecord, error) {
	if strings.TrimSpace(reason) == "" {
		return nil, ErrContestReasonRequired
	}

	audit, err := getAuditRecord(db, ctx, businessId, id)
	if err != nil {
		return nil, err
	}
	if audit.Status != AuditStatusOpen {
		return nil, ErrAuditClosed
	}

	audit.Status = AuditStatusContested
	audit.ContestReason = strings.TrimSpace(reason)
	if err := db.WithContext(ctx).Save(audit).Error; err != nil {
		return nil, err
	}
	return audit, nil
}

// WaiveAudit closes a divergence administratively ("abono"). Waiving an
// already waived audit is a no-op; a contested audit stays contested.
func WaiveAudit(db *gorm.DB, ctx context.Context, businessId string, id int) (*AuditRecord, error) {
	audit, err := getAuditRecord(db, ctx, businessId, id)
	if err != nil {
		return nil, err
	}
	if audit.Status == AuditStatusWaived {
		return audit, nil
	}
	if audit.Status == AuditStatusContested {
		return nil, ErrAuditClosed
	}

	audit.Status = AuditStatusWaived
	if err := db.WithContext(ctx).Save(audit).Error; err != nil {
		return nil, err
	}
	return audit, nil
}

type AuditListItem struct {
	AuditRecord
	CteKey        string          `json:"cte_key"`
	CarrierCnpj   string          `json:"carrier_cnpj"`
	DeclaredValue decimal.Decimal `json:"declared_value"`
}

func ListAudits(db *gorm.DB, ctx context.Context, businessId string, limit int) ([]AuditListItem, error) {
	if limit <= 0 {
		limit = 50
	}
	var items []AuditListItem
	err := db.WithContext(ctx).Model(&AuditRecord{}).
		Select("audit_records.*, shipments.cte_key, shipments.carrier_cnpj, shipments.declared_value").
		Joins("JOIN shipments ON shipments.id = audit_records.shipment_id").
		Where("audit_records.business_id = ?", businessId).
		Order("audit_records.id DESC").
		Limit(limit).
		Scan(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}
