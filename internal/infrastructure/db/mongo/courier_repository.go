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

	"github.com/shipmate/marketplace/internal/core/domain"
)

const collectionCouriers = "couriers"

type courierDoc struct {
	ID                  string     `bson:"_id"`
	VehicleType         string     `bson:"vehicle_type"`
	MaxWeightCapacityKg string     `bson:"max_weight_capacity_kg"`
	LastLocation        *pointDoc  `bson:"last_location,omitempty"`
	LastLocationAt      *time.Time `bson:"last_location_at,omitempty"`
	Status              string     `bson:"status"`
	CreatedAt           time.Time  `bson:"created_at"`
	UpdatedAt           time.Time  `bson:"updated_at"`
}

type CourierRepository struct {
	col *mongo.Collection
}

func NewCourierRepository(db *mongo.Database) *CourierRepository {
	return &CourierRepository{col: db.Collection(collectionCouriers)}
}

func (r *CourierRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.CourierProfile, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc courierDoc
	err := r.col.FindOne(ctx, bson.M{"_id": id.String()}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrCourierNotFound
		}
		return nil, err
	}
	return fromCourierDoc(&doc)
}

func (r *CourierRepository) UpdateLocation(ctx context.Context, id uuid.UUID, loc domain.Coordinates, at time.Time) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	update := bson.M{"$set": bson.M{
		"last_location":    pointDoc{Lat: loc.Lat, Lng: loc.Lng},
		"last_location_at": at,
		"updated_at":       time.Now().UTC(),
	}}
	res, err := r.col.UpdateOne(ctx, bson.M{"_id": id.String()}, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return domain.ErrCourierNotFound
	}
	return nil
}

// EnsureIndexes creates necessary indexes on the couriers collection.
func (r *CourierRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "status", Value: 1}}},
	}

	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	return err
}

func fromCourierDoc(doc *courierDoc) (*domain.CourierProfile, error) {
	id, err := uuid.Parse(doc.ID)
	if err != nil {
		return nil, fmt.Errorf("courier %s: corrupt id: %w", doc.ID, err)
	}
	capacity, err := decimal.NewFromString(doc.MaxWeightCapacityKg)
	if err != nil {
		return nil, fmt.Errorf("courier %s: corrupt capacity: %w", doc.ID, err)
	}

	p := &domain.CourierProfile{
		ID:                  id,
		VehicleType:         domain.VehicleType(doc.VehicleType),
		MaxWeightCapacityKg: capacity,
		LastLocationAt:      doc.LastLocationAt,
		Status:              domain.CourierStatus(doc.Status),
		CreatedAt:           doc.CreatedAt,
		UpdatedAt:           doc.UpdatedAt,
	}
	if doc.LastLocation != nil {
		p.LastLocation = &domain.Coordinates{Lat: doc.LastLocation.Lat, Lng: doc.LastLocation.Lng}
	}
	return p, nil
}
