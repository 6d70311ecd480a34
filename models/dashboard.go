package models

import (
	"context"

	"gorm.io/gorm"
)

// DashboardSummary is a read-only projection over shipments and audits for
// the operations dashboard.
type DashboardSummary struct {
	TotalShipments   int64           `json:"total_shipments"`
	TotalAudits      int64           `json:"total_audits"`
	OpenAudits       int64           `json:"open_audits"`
	ContestedAudits  int64           `json:"contested_audits"`
	WaivedAudits     int64           `json:"waived_audits"`
	ByDivergenceType map[string]int64 `json:"by_divergence_type"`
	RecentAudits     []AuditListItem  `json:"recent_audits"`
}

func GetDashboardSummary(db *gorm.DB, ctx context.Context, businessId string) (*DashboardSummary, error) {
	summary := DashboardSummary{
		ByDivergenceType: map[string]int64{},
	}

	if err := db.WithContext(ctx).Model(&Shipment{}).
		Where("business_id = ?", businessId).Count(&summary.TotalShipments).Error; err != nil {
		return nil, err
	}
	if err := db.WithContext(ctx).Model(&AuditRecord{}).
		Where("business_id = ?", businessId).Count(&summary.TotalAudits).Error; err != nil {
		return nil, err
	}

	statusCounts := []struct {
		Status AuditStatus
		Count  int64
	}{}
	if err := db.WithContext(ctx).Model(&AuditRecord{}).
		Select("status, COUNT(*) AS count").
		Where("business_id = ?", businessId).
		Group("status").
		Scan(&statusCounts).Error; err != nil {
		return nil, err
	}
	for _, sc := range statusCounts {
		switch sc.Status {
		case AuditStatusOpen:
			summary.OpenAudits = sc.Count
		case AuditStatusContested:
			summary.ContestedAudits = sc.Count
		case AuditStatusWaived:
			summary.WaivedAudits = sc.Count
		}
	}

	typeCounts := []struct {
		DivergenceType *DivergenceType
		Count          int64
	}{}
	if err := db.WithContext(ctx).Model(&AuditRecord{}).
		Select("divergence_type, COUNT(*) AS count").
		Where("business_id = ? AND divergence_type IS NOT NULL", businessId).
		Group("divergence_type").
		Scan(&typeCounts).Error; err != nil {
		return nil, err
	}
	for _, tc := range typeCounts {
		if tc.DivergenceType != nil {
			summary.ByDivergenceType[string(*tc.DivergenceType)] = tc.Count
		}
	}

	recent, err := ListAudits(db, ctx, businessId, 10)
	if err != nil {
		return nil, err
	}
	summary.RecentAudits = recent

	return &summary, nil
}
