package domain

// MatchingMetrics is the transient per-candidate measurement produced by the
// match scorer. It is returned to the caller and never persisted.
type MatchingMetrics struct {
	DistanceToPickupKm float64
	PickupToDeliveryKm float64
	// EstimatedDetourKm is set only when matching against an existing booking
	// with at least one shipment.
	EstimatedDetourKm *float64
	// Score is an integer compatibility score; higher is better.
	Score int
}
