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

	"github.com/shipmate/marketplace/internal/core/domain"
)

const collectionBookings = "bookings"

type bookingDoc struct {
	ID          string   `bson:"_id"`
	CourierID   string   `bson:"courier_id"`
	ShipmentIDs []string `bson:"shipment_ids"`

	CurrentWeightKg    string `bson:"current_weight_kg"`
	TotalPrice         string `bson:"total_price"`
	PlatformCommission string `bson:"platform_commission"`
	CourierEarnings    string `bson:"courier_earnings"`

	Status    string    `bson:"status"`
	CreatedAt time.Time `bson:"created_at"`
	UpdatedAt time.Time `bson:"updated_at"`
}

type BookingRepository struct {
	col *mongo.Collection
}

func NewBookingRepository(db *mongo.Database) *BookingRepository {
	return &BookingRepository{col: db.Collection(collectionBookings)}
}

func (r *BookingRepository) Create(ctx context.Context, b *domain.Booking) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err := r.col.InsertOne(ctx, toBookingDoc(b))
	return err
}

func (r *BookingRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Booking, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc bookingDoc
	err := r.col.FindOne(ctx, bson.M{"_id": id.String()}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrBookingNotFound
		}
		return nil, err
	}
	return fromBookingDoc(&doc)
}

// FindActiveByCourier returns the courier's single active booking, relying on
// the partial unique index to guarantee at most one exists.
func (r *BookingRepository) FindActiveByCourier(ctx context.Context, courierID uuid.UUID) (*domain.Booking, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := bson.M{
		"courier_id": courierID.String(),
		"status":     string(domain.BookingActive),
	}

	var doc bookingDoc
	err := r.col.FindOne(ctx, filter).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrBookingNotFound
		}
		return nil, err
	}
	return fromBookingDoc(&doc)
}

// Update rewrites the booking's derived fields after a consolidation append.
// The filter pins the stored weight to the snapshot the caller validated
// against; a concurrent append that committed first leaves a different
// weight, the filter matches nothing, and this append loses.
func (r *BookingRepository) Update(ctx context.Context, b *domain.Booking, expectedWeightKg decimal.Decimal) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := toBookingDoc(b)
	filter := bson.M{
		"_id":               doc.ID,
		"status":            string(domain.BookingActive),
		"current_weight_kg": expectedWeightKg.String(),
	}
	update := bson.M{"$set": bson.M{
		"shipment_ids":        doc.ShipmentIDs,
		"current_weight_kg":   doc.CurrentWeightKg,
		"total_price":         doc.TotalPrice,
		"platform_commission": doc.PlatformCommission,
		"courier_earnings":    doc.CourierEarnings,
		"updated_at":          doc.UpdatedAt,
	}}
	res, err := r.col.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, err
	}
	return res.MatchedCount == 1, nil
}

func (r *BookingRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.BookingStatus) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	update := bson.M{"$set": bson.M{
		"status":     string(status),
		"updated_at": time.Now().UTC(),
	}}
	res, err := r.col.UpdateOne(ctx, bson.M{"_id": id.String()}, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return domain.ErrBookingNotFound
	}
	return nil
}

func (r *BookingRepository) ListByCourier(ctx context.Context, courierID uuid.UUID, page, limit int) ([]*domain.Booking, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: 1}}).
		SetSkip(int64((page - 1) * limit)).
		SetLimit(int64(limit))

	cursor, err := r.col.Find(ctx, bson.M{"courier_id": courierID.String()}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var out []*domain.Booking
	for cursor.Next(ctx) {
		var doc bookingDoc
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		b, err := fromBookingDoc(&doc)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, cursor.Err()
}

// EnsureIndexes creates necessary indexes on the bookings collection. The
// partial unique index enforces one active booking per courier at the store.
func (r *BookingRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "courier_id", Value: 1}},
			Options: options.Index().
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"status": string(domain.BookingActive)}),
		},
		{Keys: bson.D{{Key: "courier_id", Value: 1}, {Key: "created_at", Value: 1}}},
	}

	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	return err
}

func toBookingDoc(b *domain.Booking) *bookingDoc {
	ids := make([]string, len(b.ShipmentIDs))
	for i, id := range b.ShipmentIDs {
		ids[i] = id.String()
	}
	return &bookingDoc{
		ID:                 b.ID.String(),
		CourierID:          b.CourierID.String(),
		ShipmentIDs:        ids,
		CurrentWeightKg:    b.CurrentWeightKg.String(),
		TotalPrice:         b.TotalPrice.String(),
		PlatformCommission: b.PlatformCommission.String(),
		CourierEarnings:    b.CourierEarnings.String(),
		Status:             string(b.Status),
		CreatedAt:          b.CreatedAt,
		UpdatedAt:          b.UpdatedAt,
	}
}

func fromBookingDoc(doc *bookingDoc) (*domain.Booking, error) {
	id, err := uuid.Parse(doc.ID)
	if err != nil {
		return nil, fmt.Errorf("booking %s: corrupt id: %w", doc.ID, err)
	}
	courierID, err := uuid.Parse(doc.CourierID)
	if err != nil {
		return nil, fmt.Errorf("booking %s: corrupt courier id: %w", doc.ID, err)
	}

	ids := make([]uuid.UUID, len(doc.ShipmentIDs))
	for i, raw := range doc.ShipmentIDs {
		sid, err := uuid.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("booking %s: corrupt shipment id: %w", doc.ID, err)
		}
		ids[i] = sid
	}

	weight, err := decimal.NewFromString(doc.CurrentWeightKg)
	if err != nil {
		return nil, fmt.Errorf("booking %s: corrupt weight: %w", doc.ID, err)
	}
	total, err := decimal.NewFromString(doc.TotalPrice)
	if err != nil {
		return nil, fmt.Errorf("booking %s: corrupt total: %w", doc.ID, err)
	}
	commission, err := decimal.NewFromString(doc.PlatformCommission)
	if err != nil {
		return nil, fmt.Errorf("booking %s: corrupt commission: %w", doc.ID, err)
	}
	earnings, err := decimal.NewFromString(doc.CourierEarnings)
	if err != nil {
		return nil, fmt.Errorf("booking %s: corrupt earnings: %w", doc.ID, err)
	}

	return &domain.Booking{
		ID:                 id,
		CourierID:          courierID,
		ShipmentIDs:        ids,
		CurrentWeightKg:    weight,
		TotalPrice:         total,
		PlatformCommission: commission,
		CourierEarnings:    earnings,
		Status:             domain.BookingStatus(doc.Status),
		CreatedAt:          doc.CreatedAt,
		UpdatedAt:          doc.UpdatedAt,
	}, nil
}
