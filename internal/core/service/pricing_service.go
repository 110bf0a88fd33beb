package service

import (
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/shipmate/marketplace/internal/core/domain"
	"github.com/shipmate/marketplace/internal/core/ports"
	"github.com/shipmate/marketplace/pkg/geo"
)

// PricingConfig holds the business coefficients of the pricing formula.
// All values are injected at construction time; none are hardcoded in the
// engine itself.
type PricingConfig struct {
	BaseFee          decimal.Decimal
	PricePerKm       decimal.Decimal
	IncludedWeightKg decimal.Decimal
	PricePerExtraKg  decimal.Decimal
	MinPrice         decimal.Decimal

	InsuranceTier1Limit decimal.Decimal
	InsuranceTier1Rate  decimal.Decimal
	InsuranceTier2Limit decimal.Decimal
	InsuranceTier2Rate  decimal.Decimal
	MaxDeclaredValue    decimal.Decimal
}

// DefaultPricingConfig returns the launch tariff.
func DefaultPricingConfig() PricingConfig {
	return PricingConfig{
		BaseFee:          decimal.NewFromFloat(5.00),
		PricePerKm:       decimal.NewFromFloat(0.80),
		IncludedWeightKg: decimal.NewFromInt(5),
		PricePerExtraKg:  decimal.NewFromFloat(0.50),
		MinPrice:         decimal.NewFromFloat(10.00),

		InsuranceTier1Limit: decimal.NewFromInt(1000),
		InsuranceTier1Rate:  decimal.NewFromFloat(0.02),
		InsuranceTier2Limit: decimal.NewFromInt(3000),
		InsuranceTier2Rate:  decimal.NewFromFloat(0.03),
		MaxDeclaredValue:    decimal.NewFromInt(3000),
	}
}

// PricingService implements ports.PricingService.
type PricingService struct {
	cfg    PricingConfig
	logger zerolog.Logger
}

func NewPricingService(cfg PricingConfig, logger zerolog.Logger) *PricingService {
	return &PricingService{cfg: cfg, logger: logger}
}

// EstimateBasePrice combines the base fee, a per-kilometer rate, and a
// per-kilogram rate above the included weight, floored at the minimum price.
// The result is monotonically non-decreasing in both distance and weight.
func (s *PricingService) EstimateBasePrice(distanceKm, weightKg decimal.Decimal) (decimal.Decimal, error) {
	if distanceKm.IsNegative() {
		return decimal.Zero, domain.ErrInvalidDistance
	}
	if weightKg.Sign() <= 0 {
		return decimal.Zero, domain.ErrInvalidWeight
	}

	price := s.cfg.BaseFee.Add(distanceKm.Mul(s.cfg.PricePerKm))

	extraWeight := weightKg.Sub(s.cfg.IncludedWeightKg)
	if extraWeight.Sign() > 0 {
		price = price.Add(extraWeight.Mul(s.cfg.PricePerExtraKg))
	}

	if price.LessThan(s.cfg.MinPrice) {
		price = s.cfg.MinPrice
	}

	return price.Round(2), nil
}

// EstimateInsuranceFee applies the tiered rate table against the declared
// value. Returns zero when insurance is not selected.
func (s *PricingService) EstimateInsuranceFee(declaredValue decimal.Decimal, selected bool) (decimal.Decimal, error) {
	if !selected {
		return decimal.Zero.Round(2), nil
	}
	if declaredValue.Sign() <= 0 {
		return decimal.Zero, domain.ErrInvalidDeclared
	}
	if declaredValue.GreaterThan(s.cfg.MaxDeclaredValue) {
		return decimal.Zero, domain.ErrDeclaredTooHigh
	}

	rate := s.cfg.InsuranceTier2Rate
	if declaredValue.LessThanOrEqual(s.cfg.InsuranceTier1Limit) {
		rate = s.cfg.InsuranceTier1Rate
	}

	return declaredValue.Mul(rate).Round(2), nil
}

// Estimate prices a pickup/delivery pair. Pure: identical inputs always
// yield identical output with no side effects.
func (s *PricingService) Estimate(in ports.PriceEstimateInput) (*ports.PriceEstimateResult, error) {
	if err := validatePair(in); err != nil {
		return nil, err
	}

	distanceKm := geo.DistanceKm(in.PickupLat, in.PickupLng, in.DeliveryLat, in.DeliveryLng)

	price, err := s.EstimateBasePrice(distanceKm, in.WeightKg)
	if err != nil {
		return nil, err
	}

	return &ports.PriceEstimateResult{
		DistanceKm:         distanceKm,
		EstimatedBasePrice: price,
	}, nil
}

// Quote extends Estimate with the insurance add-on for the sender preview.
func (s *PricingService) Quote(in ports.PriceQuoteInput) (*ports.PriceQuoteResult, error) {
	estimate, err := s.Estimate(in.PriceEstimateInput)
	if err != nil {
		return nil, err
	}

	fee, err := s.EstimateInsuranceFee(in.DeclaredValue, in.InsuranceSelected)
	if err != nil {
		return nil, err
	}

	rate := decimal.Zero
	if in.InsuranceSelected {
		rate = s.cfg.InsuranceTier2Rate
		if in.DeclaredValue.LessThanOrEqual(s.cfg.InsuranceTier1Limit) {
			rate = s.cfg.InsuranceTier1Rate
		}
	}

	return &ports.PriceQuoteResult{
		DistanceKm:   estimate.DistanceKm,
		BasePrice:    estimate.EstimatedBasePrice,
		InsuranceFee: fee,
		RateApplied:  rate,
		TotalPrice:   estimate.EstimatedBasePrice.Add(fee).Round(2),
	}, nil
}

func validatePair(in ports.PriceEstimateInput) error {
	pickup := domain.Coordinates{Lat: in.PickupLat, Lng: in.PickupLng}
	delivery := domain.Coordinates{Lat: in.DeliveryLat, Lng: in.DeliveryLng}
	if err := pickup.Validate(); err != nil {
		return err
	}
	if err := delivery.Validate(); err != nil {
		return err
	}
	return nil
}
