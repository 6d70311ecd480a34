package workflow

import (
	"github.com/auditafrete/freight_backend/models"
	"github.com/shopspring/decimal"
)

// One-cent tolerance: declared vs. calculated differences at or below this
// are not divergences.
var valueTolerance = decimal.NewFromFloat(0.01)

// MatchWeightBand selects the band containing the weight, min and max both
// inclusive. Bands must arrive ordered by id ascending; on a boundary shared
// by two adjacent bands the lowest id wins, which makes the legacy
// "whichever the store returns first" behavior deterministic.
func MatchWeightBand(bands []models.WeightBand, weight decimal.Decimal) *models.WeightBand {
	for i := range bands {
		band := &bands[i]
		if weight.GreaterThanOrEqual(band.MinWeight) && weight.LessThanOrEqual(band.MaxWeight) {
			return band
		}
	}
	return nil
}

// CalculateExpectedCharge applies the tiered tariff: the band's flat base
// charge, plus the marginal per-kg rate for weight above the band minimum.
// The band maximum never enters the formula.
func CalculateExpectedCharge(band models.WeightBand, weight decimal.Decimal) decimal.Decimal {
	calculated := band.BaseValue
	if band.PerExtraKg.IsPositive() && weight.GreaterThan(band.MinWeight) {
		calculated = calculated.Add(weight.Sub(band.MinWeight).Mul(band.PerExtraKg))
	}
	return calculated
}

// ClassifyDivergence compares declared and calculated charges. A structural
// divergence (table_error/weight_error) set during resolution takes
// precedence; otherwise a difference beyond the one-cent tolerance is a
// value_divergence.
func ClassifyDivergence(declared, calculated decimal.Decimal, structural *models.DivergenceType) (*models.DivergenceType, decimal.Decimal) {
	difference := declared.Sub(calculated)
	if structural != nil {
		return structural, difference
	}
	if difference.Abs().GreaterThan(valueTolerance) {
		divergence := models.DivergenceTypeValueDivergence
		return &divergence, difference
	}
	return nil, difference
}
