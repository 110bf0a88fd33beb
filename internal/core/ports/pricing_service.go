package ports

import (
	"github.com/shopspring/decimal"
)

// PriceEstimateInput is a pure distance+weight pricing request.
type PriceEstimateInput struct {
	PickupLat   float64
	PickupLng   float64
	DeliveryLat float64
	DeliveryLng float64
	WeightKg    decimal.Decimal
}

// PriceEstimateResult is returned by Estimate.
type PriceEstimateResult struct {
	DistanceKm         decimal.Decimal
	EstimatedBasePrice decimal.Decimal
}

// PriceQuoteInput extends the estimate with insurance selection for the
// sender-facing preview.
type PriceQuoteInput struct {
	PriceEstimateInput
	InsuranceSelected bool
	DeclaredValue     decimal.Decimal
}

// PriceQuoteResult is the full pricing preview for a shipment.
type PriceQuoteResult struct {
	DistanceKm   decimal.Decimal
	BasePrice    decimal.Decimal
	InsuranceFee decimal.Decimal
	RateApplied  decimal.Decimal
	TotalPrice   decimal.Decimal
}

// PricingService converts distances and weights into money. All operations
// are deterministic and side-effect free; coefficients are injected
// configuration, never hardcoded.
type PricingService interface {
	// EstimateBasePrice prices a distance+weight pair. Monotonically
	// non-decreasing in both arguments.
	EstimateBasePrice(distanceKm, weightKg decimal.Decimal) (decimal.Decimal, error)
	// EstimateInsuranceFee applies the tiered rate table against the declared
	// value; zero when insurance is not selected.
	EstimateInsuranceFee(declaredValue decimal.Decimal, selected bool) (decimal.Decimal, error)
	Estimate(in PriceEstimateInput) (*PriceEstimateResult, error)
	Quote(in PriceQuoteInput) (*PriceQuoteResult, error)
}
