package handler

import "time"

// errorResponse is the standard error envelope returned on all 4xx/5xx responses.
type errorResponse struct {
	Error string `json:"error"`
}

// --- Request / Response types ---

type pointRequest struct {
	Lat float64 `json:"lat" validate:"required,latitude"`
	Lng float64 `json:"lng" validate:"required,longitude"`
}

type createShipmentRequest struct {
	PickupAddress    string       `json:"pickup_address"    validate:"required"`
	PickupLocation   pointRequest `json:"pickup_location"   validate:"required"`
	DeliveryAddress  string       `json:"delivery_address"  validate:"required"`
	DeliveryLocation pointRequest `json:"delivery_location" validate:"required"`

	WeightKg          float64 `json:"weight_kg"          validate:"required,gt=0"`
	DeclaredValue     float64 `json:"declared_value"     validate:"gte=0"`
	InsuranceSelected bool    `json:"insurance_selected"`

	RequestedPickupDate   time.Time `json:"requested_pickup_date"`
	RequestedDeliveryDate time.Time `json:"requested_delivery_date"`
}

// Response-only types owned by the transport layer. Money and weight are
// rendered as decimal strings so the JSON contract never carries binary
// float rounding.

type pointResponse struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type shipmentResponse struct {
	ID               string        `json:"id"`
	SenderID         string        `json:"sender_id"`
	PickupAddress    string        `json:"pickup_address"`
	PickupLocation   pointResponse `json:"pickup_location"`
	DeliveryAddress  string        `json:"delivery_address"`
	DeliveryLocation pointResponse `json:"delivery_location"`

	WeightKg          string `json:"weight_kg"`
	DeclaredValue     string `json:"declared_value"`
	InsuranceSelected bool   `json:"insurance_selected"`

	Status    string  `json:"status"`
	BookingID *string `json:"booking_id,omitempty"`

	BasePrice    *string `json:"base_price,omitempty"`
	InsuranceFee string  `json:"insurance_fee"`

	RequestedPickupDate   time.Time `json:"requested_pickup_date"`
	RequestedDeliveryDate time.Time `json:"requested_delivery_date"`
	CreatedAt             time.Time `json:"created_at"`
}

type listShipmentsResponse struct {
	Data  []shipmentResponse `json:"data"`
	Page  int                `json:"page"`
	Limit int                `json:"limit"`
}
