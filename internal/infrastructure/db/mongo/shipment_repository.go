package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/shipmate/marketplace/internal/api/metrics"
	"github.com/shipmate/marketplace/internal/core/domain"
)

const collectionShipments = "shipments"

// shipmentDoc is the persistence shape of a shipment. Money and weight are
// stored as decimal strings so no binary float ever rounds a price.
type shipmentDoc struct {
	ID               string   `bson:"_id"`
	SenderID         string   `bson:"sender_id"`
	PickupAddress    string   `bson:"pickup_address"`
	PickupLocation   pointDoc `bson:"pickup_location"`
	DeliveryAddress  string   `bson:"delivery_address"`
	DeliveryLocation pointDoc `bson:"delivery_location"`

	WeightKg          string `bson:"weight_kg"`
	DeclaredValue     string `bson:"declared_value"`
	InsuranceSelected bool   `bson:"insurance_selected"`

	RequestedPickupDate   time.Time `bson:"requested_pickup_date"`
	RequestedDeliveryDate time.Time `bson:"requested_delivery_date"`

	Status    string  `bson:"status"`
	BookingID *string `bson:"booking_id,omitempty"`

	PickupOrder   *int `bson:"pickup_order,omitempty"`
	DeliveryOrder *int `bson:"delivery_order,omitempty"`

	BasePrice    *string `bson:"base_price,omitempty"`
	InsuranceFee string  `bson:"insurance_fee"`

	CreatedAt time.Time `bson:"created_at"`
	UpdatedAt time.Time `bson:"updated_at"`
}

type pointDoc struct {
	Lat float64 `bson:"lat"`
	Lng float64 `bson:"lng"`
}

type ShipmentRepository struct {
	col *mongo.Collection
}

func NewShipmentRepository(db *mongo.Database) *ShipmentRepository {
	return &ShipmentRepository{col: db.Collection(collectionShipments)}
}

// Create inserts a new shipment document.
func (r *ShipmentRepository) Create(ctx context.Context, s *domain.Shipment) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err := r.col.InsertOne(ctx, toShipmentDoc(s))
	return err
}

func (r *ShipmentRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Shipment, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc shipmentDoc
	err := r.col.FindOne(ctx, bson.M{"_id": id.String()}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrShipmentNotFound
		}
		return nil, err
	}
	return fromShipmentDoc(&doc)
}

// FindByIDs returns the shipments that exist among ids. Missing ids are
// simply absent from the result.
func (r *ShipmentRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*domain.Shipment, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	raw := make([]string, len(ids))
	for i, id := range ids {
		raw[i] = id.String()
	}

	cursor, err := r.col.Find(ctx, bson.M{"_id": bson.M{"$in": raw}})
	if err != nil {
		return nil, err
	}
	return decodeShipments(ctx, cursor)
}

// ListOpen returns a page of claimable shipments ordered by creation time.
func (r *ShipmentRepository) ListOpen(ctx context.Context, page, limit int) ([]*domain.Shipment, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := bson.M{
		"status":     string(domain.ShipmentCreated),
		"booking_id": bson.M{"$exists": false},
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: 1}}).
		SetSkip(int64((page - 1) * limit)).
		SetLimit(int64(limit))

	cursor, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	return decodeShipments(ctx, cursor)
}

// FindByBookingID returns a booking's member shipments in pickup order.
func (r *ShipmentRepository) FindByBookingID(ctx context.Context, bookingID uuid.UUID) ([]*domain.Shipment, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "pickup_order", Value: 1}})
	cursor, err := r.col.Find(ctx, bson.M{"booking_id": bookingID.String()}, opts)
	if err != nil {
		return nil, err
	}
	return decodeShipments(ctx, cursor)
}

func (r *ShipmentRepository) ListBySender(ctx context.Context, senderID uuid.UUID, page, limit int) ([]*domain.Shipment, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: 1}}).
		SetSkip(int64((page - 1) * limit)).
		SetLimit(int64(limit))

	cursor, err := r.col.Find(ctx, bson.M{"sender_id": senderID.String()}, opts)
	if err != nil {
		return nil, err
	}
	return decodeShipments(ctx, cursor)
}

// TryClaim is the atomic conditional transition of the consolidation path.
// The filter requires the shipment to still be open, so of two racing
// couriers exactly one FindOneAndUpdate matches.
func (r *ShipmentRepository) TryClaim(ctx context.Context, shipmentID, bookingID uuid.UUID, pickupOrder, deliveryOrder int) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := bson.M{
		"_id":        shipmentID.String(),
		"status":     string(domain.ShipmentCreated),
		"booking_id": bson.M{"$exists": false},
	}
	update := bson.M{"$set": bson.M{
		"status":         string(domain.ShipmentBooked),
		"booking_id":     bookingID.String(),
		"pickup_order":   pickupOrder,
		"delivery_order": deliveryOrder,
		"updated_at":     time.Now().UTC(),
	}}

	err := r.col.FindOneAndUpdate(ctx, filter, update).Err()
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			metrics.ClaimAttemptsTotal.WithLabelValues("lost").Inc()
			return false, nil
		}
		return false, err
	}
	metrics.ClaimAttemptsTotal.WithLabelValues("won").Inc()
	return true, nil
}

// Release reverts a claimed shipment back to the open pool. The booking id
// guard makes the release idempotent and safe against releasing somebody
// else's claim.
func (r *ShipmentRepository) Release(ctx context.Context, shipmentID, bookingID uuid.UUID) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := bson.M{
		"_id":        shipmentID.String(),
		"booking_id": bookingID.String(),
	}
	update := bson.M{
		"$set": bson.M{
			"status":     string(domain.ShipmentCreated),
			"updated_at": time.Now().UTC(),
		},
		"$unset": bson.M{
			"booking_id":     "",
			"pickup_order":   "",
			"delivery_order": "",
		},
	}

	_, err := r.col.UpdateOne(ctx, filter, update)
	return err
}

func (r *ShipmentRepository) UpdateStatus(ctx context.Context, shipmentID uuid.UUID, status domain.ShipmentStatus) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	update := bson.M{"$set": bson.M{
		"status":     string(status),
		"updated_at": time.Now().UTC(),
	}}
	res, err := r.col.UpdateOne(ctx, bson.M{"_id": shipmentID.String()}, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return domain.ErrShipmentNotFound
	}
	return nil
}

// EnsureIndexes creates necessary indexes on the shipments collection.
func (r *ShipmentRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "created_at", Value: 1}}},
		{Keys: bson.D{{Key: "sender_id", Value: 1}}},
		{Keys: bson.D{{Key: "booking_id", Value: 1}}},
	}

	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	return err
}

func toShipmentDoc(s *domain.Shipment) *shipmentDoc {
	doc := &shipmentDoc{
		ID:                    s.ID.String(),
		SenderID:              s.SenderID.String(),
		PickupAddress:         s.PickupAddress,
		PickupLocation:        pointDoc{Lat: s.PickupLocation.Lat, Lng: s.PickupLocation.Lng},
		DeliveryAddress:       s.DeliveryAddress,
		DeliveryLocation:      pointDoc{Lat: s.DeliveryLocation.Lat, Lng: s.DeliveryLocation.Lng},
		WeightKg:              s.WeightKg.String(),
		DeclaredValue:         s.DeclaredValue.String(),
		InsuranceSelected:     s.InsuranceSelected,
		RequestedPickupDate:   s.RequestedPickupDate,
		RequestedDeliveryDate: s.RequestedDeliveryDate,
		Status:                string(s.Status),
		PickupOrder:           s.PickupOrder,
		DeliveryOrder:         s.DeliveryOrder,
		InsuranceFee:          s.InsuranceFee.String(),
		CreatedAt:             s.CreatedAt,
		UpdatedAt:             s.UpdatedAt,
	}
	if s.BookingID != nil {
		id := s.BookingID.String()
		doc.BookingID = &id
	}
	if s.BasePrice != nil {
		price := s.BasePrice.String()
		doc.BasePrice = &price
	}
	return doc
}

func fromShipmentDoc(doc *shipmentDoc) (*domain.Shipment, error) {
	id, err := uuid.Parse(doc.ID)
	if err != nil {
		return nil, fmt.Errorf("shipment %s: corrupt id: %w", doc.ID, err)
	}
	senderID, err := uuid.Parse(doc.SenderID)
	if err != nil {
		return nil, fmt.Errorf("shipment %s: corrupt sender id: %w", doc.ID, err)
	}
	weight, err := decimal.NewFromString(doc.WeightKg)
	if err != nil {
		return nil, fmt.Errorf("shipment %s: corrupt weight: %w", doc.ID, err)
	}
	declared, err := decimal.NewFromString(doc.DeclaredValue)
	if err != nil {
		return nil, fmt.Errorf("shipment %s: corrupt declared value: %w", doc.ID, err)
	}
	fee, err := decimal.NewFromString(doc.InsuranceFee)
	if err != nil {
		return nil, fmt.Errorf("shipment %s: corrupt insurance fee: %w", doc.ID, err)
	}

	s := &domain.Shipment{
		ID:                    id,
		SenderID:              senderID,
		PickupAddress:         doc.PickupAddress,
		PickupLocation:        domain.Coordinates{Lat: doc.PickupLocation.Lat, Lng: doc.PickupLocation.Lng},
		DeliveryAddress:       doc.DeliveryAddress,
		DeliveryLocation:      domain.Coordinates{Lat: doc.DeliveryLocation.Lat, Lng: doc.DeliveryLocation.Lng},
		WeightKg:              weight,
		DeclaredValue:         declared,
		InsuranceSelected:     doc.InsuranceSelected,
		RequestedPickupDate:   doc.RequestedPickupDate,
		RequestedDeliveryDate: doc.RequestedDeliveryDate,
		Status:                domain.ShipmentStatus(doc.Status),
		PickupOrder:           doc.PickupOrder,
		DeliveryOrder:         doc.DeliveryOrder,
		InsuranceFee:          fee,
		CreatedAt:             doc.CreatedAt,
		UpdatedAt:             doc.UpdatedAt,
	}
	if doc.BookingID != nil {
		bookingID, err := uuid.Parse(*doc.BookingID)
		if err != nil {
			return nil, fmt.Errorf("shipment %s: corrupt booking id: %w", doc.ID, err)
		}
		s.BookingID = &bookingID
	}
	if doc.BasePrice != nil {
		price, err := decimal.NewFromString(*doc.BasePrice)
		if err != nil {
			return nil, fmt.Errorf("shipment %s: corrupt base price: %w", doc.ID, err)
		}
		s.BasePrice = &price
	}
	return s, nil
}

func decodeShipments(ctx context.Context, cursor *mongo.Cursor) ([]*domain.Shipment, error) {
	defer cursor.Close(ctx)

	var out []*domain.Shipment
	for cursor.Next(ctx) {
		var doc shipmentDoc
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		s, err := fromShipmentDoc(&doc)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, cursor.Err()
}
