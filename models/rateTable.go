package models

import (
	"context"
	"errors"
	"os"
	"strings"
	"time"

	"github.com/auditafrete/freight_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type RateTable struct {
	ID        int          `gorm:"primary_key" json:"id"`
	CarrierId int          `gorm:"index;not null" json:"carrier_id"`
	Name      string       `gorm:"size:255;not null" json:"name" binding:"required"`
	Version   string       `gorm:"size:50" json:"version"`
	Active    *bool        `gorm:"not null;default:true" json:"active"`
	Bands     []WeightBand `gorm:"foreignKey:RateTableId" json:"bands"`
	CreatedAt time.Time    `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time    `gorm:"autoUpdateTime" json:"updated_at"`
}

// WeightBand prices a contiguous weight range: a flat base charge at the
// band minimum plus a marginal per-kg rate above it. Min and max are both
// inclusive; MaxWeight participates only in band selection, never in the
// charge formula.
type WeightBand struct {
	ID          int             `gorm:"primary_key" json:"id"`
	RateTableId int             `gorm:"index;not null" json:"rate_table_id"`
	MinWeight   decimal.Decimal `gorm:"type:decimal(20,3);not null" json:"min_weight"`
	MaxWeight   decimal.Decimal `gorm:"type:decimal(20,3);not null" json:"max_weight"`
	BaseValue   decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"base_value"`
	PerExtraKg  decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"per_extra_kg"`
	CreatedAt   time.Time       `gorm:"autoCreateTime" json:"created_at"`
}

type NewRateTable struct {
	Name    string          `json:"name" binding:"required"`
	Version string          `json:"version"`
	Active  *bool           `json:"active"`
	Bands   []NewWeightBand `json:"bands" binding:"required,dive"`
}

type NewWeightBand struct {
	MinWeight  decimal.Decimal `json:"min_weight"`
	MaxWeight  decimal.Decimal `json:"max_weight" binding:"required"`
	BaseValue  decimal.Decimal `json:"base_value" binding:"required"`
	PerExtraKg decimal.Decimal `json:"per_extra_kg"`
}

// RateTablePolicy decides which table wins when a carrier has more than one
// active table. The legacy system took whatever the store returned first;
// here the choice is explicit and configurable.
type RateTablePolicy string

const (
	RateTablePolicyNewest RateTablePolicy = "newest"
	RateTablePolicyFirst  RateTablePolicy = "first"
)

func ActiveRateTablePolicy() RateTablePolicy {
	switch strings.TrimSpace(os.Getenv("RATE_TABLE_POLICY")) {
	case "first":
		return RateTablePolicyFirst
	default:
		return RateTablePolicyNewest
	}
}

func CreateRateTable(db *gorm.DB, ctx context.Context, businessId string, carrierId int, input NewRateTable) (*RateTable, error) {
	var count int64
	if err := db.WithContext(ctx).Model(&Carrier{}).
		Where("business_id = ? AND id = ?", businessId, carrierId).Count(&count).Error; err != nil {
		return nil, err
	}
	if count <= 0 {
		return nil, utils.ErrorRecordNotFound
	}

	active := input.Active
	if active == nil {
		active = utils.NewTrue()
	}
	table := RateTable{
		CarrierId: carrierId,
		Name:      input.Name,
		Version:   input.Version,
		Active:    active,
	}
	for _, band := range input.Bands {
		if band.MaxWeight.LessThan(band.MinWeight) {
			return nil, errors.New("band max_weight below min_weight")
		}
		table.Bands = append(table.Bands, WeightBand{
			MinWeight:  band.MinWeight,
			MaxWeight:  band.MaxWeight,
			BaseValue:  band.BaseValue,
			PerExtraKg: band.PerExtraKg,
		})
	}

	if err := db.WithContext(ctx).Create(&table).Error; err != nil {
		return nil, err
	}
	return &table, nil
}

// ResolveActiveRateTable loads the carrier's active table under the
// configured policy, bands included in id order (lowest band id wins a
// shared boundary).
func ResolveActiveRateTable(db *gorm.DB, ctx context.Context, carrierId int, policy RateTablePolicy) (*RateTable, error) {
	order := "created_at DESC, id DESC"
	if policy == RateTablePolicyFirst {
		order = "id ASC"
	}

	var table RateTable
	err := db.WithContext(ctx).
		Preload("Bands", func(db *gorm.DB) *gorm.DB { return db.Order("weight_bands.id ASC") }).
		Where("carrier_id = ? AND active = ?", carrierId, true).
		Order(order).
		First(&table).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.ErrorRecordNotFound
		}
		return nil, err
	}
	return &table, nil
}
