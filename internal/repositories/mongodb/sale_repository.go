package mongodb

import (
	"context"
	"errors"
	"time"

	"github.com/borjaoskins/raffle-backend/internal/models"
	"github.com/borjaoskins/raffle-backend/internal/repositories"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// SaleRepository implements the repositories.SaleRepository interface
type SaleRepository struct {
	collection *mongo.Collection
}

// NewSaleRepository creates a new SaleRepository
func NewSaleRepository(db *mongo.Database) repositories.SaleRepository {
	return &SaleRepository{
		collection: db.Collection("raffle_sales"),
	}
}

// Create creates a new sale
func (r *SaleRepository) Create(ctx context.Context, sale *models.Sale) error {
	sale.CreatedAt = time.Now()
	sale.UpdatedAt = time.Now()
	res, err := r.collection.InsertOne(ctx, sale)
	if err != nil {
		return err
	}
	if sale.ID.IsZero() {
		sale.ID = res.InsertedID.(primitive.ObjectID)
	}
	return nil
}

// FindByID finds a sale by ID
func (r *SaleRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Sale, error) {
	var sale models.Sale
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&sale)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, models.ErrSaleNotFound
		}
		return nil, err
	}
	return &sale, nil
}

// FindByRaffle finds all sales for a raffle, oldest first
func (r *SaleRepository) FindByRaffle(ctx context.Context, raffleID primitive.ObjectID) ([]*models.Sale, error) {
	return r.find(ctx, bson.M{"raffleId": raffleID})
}

// FindByRaffleAndStatuses finds sales for a raffle in any of the given statuses
func (r *SaleRepository) FindByRaffleAndStatuses(ctx context.Context, raffleID primitive.ObjectID, statuses []models.PaymentStatus) ([]*models.Sale, error) {
	filter := bson.M{
		"raffleId":      raffleID,
		"paymentStatus": bson.M{"$in": statuses},
	}
	return r.find(ctx, filter)
}

func (r *SaleRepository) find(ctx context.Context, filter bson.M) ([]*models.Sale, error) {
	opts := options.Find().SetSort(bson.M{"createdAt": 1})
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var sales []*models.Sale
	if err := cursor.All(ctx, &sales); err != nil {
		return nil, err
	}
	if sales == nil {
		sales = []*models.Sale{}
	}
	return sales, nil
}

// FindConfirmedByNumber finds the confirmed sale whose numbers contain the
// given number. At most one can exist while the allocation invariant holds.
func (r *SaleRepository) FindConfirmedByNumber(ctx context.Context, raffleID primitive.ObjectID, number int) (*models.Sale, error) {
	filter := bson.M{
		"raffleId":      raffleID,
		"paymentStatus": bson.M{"$in": models.ConfirmedStatuses},
		"numbers":       number,
	}
	var sale models.Sale
	err := r.collection.FindOne(ctx, filter).Decode(&sale)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, models.ErrNoSaleForNumber
		}
		return nil, err
	}
	return &sale, nil
}

// CountByRaffle counts sales referencing a raffle
func (r *SaleRepository) CountByRaffle(ctx context.Context, raffleID primitive.ObjectID) (int64, error) {
	return r.collection.CountDocuments(ctx, bson.M{"raffleId": raffleID})
}

// MarkWaitingPayment attaches the gateway charge id to a sale that is still
// pending or already waiting (charge-creation retries land here too)
func (r *SaleRepository) MarkWaitingPayment(ctx context.Context, id primitive.ObjectID, paymentID string) error {
	filter := bson.M{
		"_id": id,
		"paymentStatus": bson.M{"$in": []models.PaymentStatus{
			models.PaymentStatusPending,
			models.PaymentStatusWaitingPayment,
		}},
	}
	update := bson.M{"$set": bson.M{
		"paymentStatus": models.PaymentStatusWaitingPayment,
		"paymentId":     paymentID,
		"updatedAt":     time.Now(),
	}}
	res, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return models.ErrSaleNotFound
	}
	return nil
}

// MarkApproved conditionally transitions an in-flight sale to approved
func (r *SaleRepository) MarkApproved(ctx context.Context, id primitive.ObjectID, paymentID string, paidAt time.Time) (bool, error) {
	filter := bson.M{
		"_id": id,
		"paymentStatus": bson.M{"$in": []models.PaymentStatus{
			models.PaymentStatusPending,
			models.PaymentStatusWaitingPayment,
		}},
	}
	update := bson.M{"$set": bson.M{
		"paymentStatus": models.PaymentStatusApproved,
		"paymentId":     paymentID,
		"paidAt":        paidAt,
		"updatedAt":     time.Now(),
	}}
	res, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, err
	}
	return res.ModifiedCount == 1, nil
}

// MarkExpired conditionally transitions a still-unpaid sale to expired
func (r *SaleRepository) MarkExpired(ctx context.Context, id primitive.ObjectID) (bool, error) {
	filter := bson.M{
		"_id": id,
		"paymentStatus": bson.M{"$in": []models.PaymentStatus{
			models.PaymentStatusPending,
			models.PaymentStatusWaitingPayment,
		}},
	}
	update := bson.M{"$set": bson.M{
		"paymentStatus": models.PaymentStatusExpired,
		"updatedAt":     time.Now(),
	}}
	res, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, err
	}
	return res.ModifiedCount == 1, nil
}

// FindStale finds sales sitting in the given status since before the cutoff.
// updatedAt is bumped on every status transition, so a sale that waited as
// pending gets the full waiting_payment window once its charge is attached.
func (r *SaleRepository) FindStale(ctx context.Context, status models.PaymentStatus, olderThan time.Time) ([]*models.Sale, error) {
	filter := bson.M{
		"paymentStatus": status,
		"updatedAt":     bson.M{"$lt": olderThan},
	}
	return r.find(ctx, filter)
}

// Delete deletes a sale by ID
func (r *SaleRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	_, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	return err
}
