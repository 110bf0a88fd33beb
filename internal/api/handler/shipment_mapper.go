package handler

import (
	"github.com/shipmate/marketplace/internal/core/domain"
)

func toShipmentResponse(s *domain.Shipment) shipmentResponse {
	resp := shipmentResponse{
		ID:                s.ID.String(),
		SenderID:          s.SenderID.String(),
		PickupAddress:     s.PickupAddress,
		PickupLocation:    pointResponse{Lat: s.PickupLocation.Lat, Lng: s.PickupLocation.Lng},
		DeliveryAddress:   s.DeliveryAddress,
		DeliveryLocation:  pointResponse{Lat: s.DeliveryLocation.Lat, Lng: s.DeliveryLocation.Lng},
		WeightKg:          s.WeightKg.String(),
		DeclaredValue:     s.DeclaredValue.String(),
		InsuranceSelected: s.InsuranceSelected,
		Status:            string(s.Status),
		InsuranceFee:      s.InsuranceFee.StringFixed(2),

		RequestedPickupDate:   s.RequestedPickupDate,
		RequestedDeliveryDate: s.RequestedDeliveryDate,
		CreatedAt:             s.CreatedAt,
	}
	if s.BookingID != nil {
		id := s.BookingID.String()
		resp.BookingID = &id
	}
	if s.BasePrice != nil {
		price := s.BasePrice.StringFixed(2)
		resp.BasePrice = &price
	}
	return resp
}

func toShipmentResponses(shipments []*domain.Shipment) []shipmentResponse {
	out := make([]shipmentResponse, len(shipments))
	for i, s := range shipments {
		out[i] = toShipmentResponse(s)
	}
	return out
}
