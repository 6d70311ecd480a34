package models

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Shipment is one imported CT-e. Uniquely keyed by the 44-digit access key;
// immutable after creation (the audit pipeline has no update path).
type Shipment struct {
	ID              int             `gorm:"primary_key" json:"id"`
	BusinessId      string          `gorm:"index;not null" json:"business_id"`
	CteKey          string          `gorm:"size:44;uniqueIndex;not null" json:"cte_key"`
	CarrierCnpj     string          `gorm:"size:14;index;not null" json:"carrier_cnpj"`
	PayerCnpj       string          `gorm:"size:14;not null" json:"payer_cnpj"`
	DeclaredValue   decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"declared_value"`
	GrossWeight     decimal.Decimal `gorm:"type:decimal(20,3);default:0" json:"gross_weight"`
	IcmsValue       decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"icms_value"`
	IcmsBase        decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"icms_base"`
	IcmsRate        decimal.Decimal `gorm:"type:decimal(10,4);default:0" json:"icms_rate"`
	OriginCep       *string         `gorm:"size:8" json:"origin_cep"`
	OriginCity      *string         `gorm:"size:255" json:"origin_city"`
	DestinationCep  *string         `gorm:"size:8" json:"destination_cep"`
	DestinationCity *string         `gorm:"size:255" json:"destination_city"`
	Status          ShipmentStatus  `gorm:"type:enum('pending','audited');default:pending" json:"status"`
	Audit           *AuditRecord    `gorm:"foreignKey:ShipmentId" json:"audit,omitempty"`
	CreatedAt       time.Time       `gorm:"autoCreateTime" json:"created_at"`
}

// ShipmentExists is the duplicate guard lookup.
func ShipmentExists(db *gorm.DB, ctx context.Context, cteKey string) (bool, error) {
	var count int64
	if err := db.WithContext(ctx).Model(&Shipment{}).
		Where("cte_key = ?", cteKey).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}
