package models

import (
	"context"
	"errors"
	"time"

	"github.com/auditafrete/freight_backend/config"
	"github.com/auditafrete/freight_backend/utils"
	"gorm.io/gorm"
)

type Carrier struct {
	ID         int       `gorm:"primary_key" json:"id"`
	BusinessId string    `gorm:"index;not null" json:"business_id"`
	Name       string    `gorm:"size:255;not null" json:"name" binding:"required"`
	Cnpj       string    `gorm:"size:14;index;not null" json:"cnpj" binding:"required"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewCarrier struct {
	Name string `json:"name" binding:"required"`
	Cnpj string `json:"cnpj" binding:"required"`
}

func CreateCarrier(db *gorm.DB, ctx context.Context, businessId string, input NewCarrier) (*Carrier, error) {
	cnpj := utils.NormalizeCNPJ(input.Cnpj)
	if cnpj == "" {
		return nil, errors.New("invalid cnpj")
	}

	var count int64
	if err := db.WithContext(ctx).Model(&Carrier{}).
		Where("business_id = ? AND cnpj = ?", businessId, cnpj).Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, errors.New("duplicate cnpj")
	}

	carrier := Carrier{
		BusinessId: businessId,
		Name:       input.Name,
		Cnpj:       cnpj,
	}
	if err := db.WithContext(ctx).Create(&carrier).Error; err != nil {
		return nil, err
	}
	return &carrier, nil
}

func UpdateCarrier(db *gorm.DB, ctx context.Context, businessId string, id int, input NewCarrier) (*Carrier, error) {
	var carrier Carrier
	if err := db.WithContext(ctx).
		Where("business_id = ? AND id = ?", businessId, id).Take(&carrier).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.ErrorRecordNotFound
		}
		return nil, err
	}

	carrier.Name = input.Name
	carrier.Cnpj = utils.NormalizeCNPJ(input.Cnpj)
	if err := db.WithContext(ctx).Save(&carrier).Error; err != nil {
		return nil, err
	}
	// Rate resolution caches by CNPJ; drop the stale entry.
	_ = config.DeleteRedisKey(carrierCacheKey(businessId, carrier.Cnpj))
	return &carrier, nil
}

func ListCarriers(db *gorm.DB, ctx context.Context, businessId string) ([]Carrier, error) {
	var carriers []Carrier
	if err := db.WithContext(ctx).
		Where("business_id = ?", businessId).Order("name ASC").Find(&carriers).Error; err != nil {
		return nil, err
	}
	return carriers, nil
}

func carrierCacheKey(businessId, cnpj string) string {
	return "carrier:" + businessId + ":" + cnpj
}

// GetCarrierByCnpj resolves a carrier by its normalized CNPJ, serving repeat
// lookups from Redis when available.
func GetCarrierByCnpj(db *gorm.DB, ctx context.Context, businessId string, cnpj string) (*Carrier, error) {
	cnpj = utils.NormalizeCNPJ(cnpj)

	var cached Carrier
	exists, err := config.GetRedisObject(carrierCacheKey(businessId, cnpj), &cached)
	if err == nil && exists && cached.ID > 0 {
		return &cached, nil
	}

	var carrier Carrier
	if err := db.WithContext(ctx).
		Where("business_id = ? AND cnpj = ?", businessId, cnpj).Take(&carrier).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.ErrorRecordNotFound
		}
		return nil, err
	}
	_ = config.SetRedisObject(carrierCacheKey(businessId, cnpj), &carrier, 10*time.Minute)
	return &carrier, nil
}
