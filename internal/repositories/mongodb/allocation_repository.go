package mongodb

import (
	"context"
	"fmt"
	"time"

	"github.com/borjaoskins/raffle-backend/internal/models"
	"github.com/borjaoskins/raffle-backend/internal/repositories"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// AllocationRepository implements the repositories.AllocationRepository interface
type AllocationRepository struct {
	collection *mongo.Collection
}

// NewAllocationRepository creates a new AllocationRepository
func NewAllocationRepository(db *mongo.Database) repositories.AllocationRepository {
	return &AllocationRepository{
		collection: db.Collection("number_allocations"),
	}
}

// EnsureIndexes creates the unique (raffleId, number) index. The index is the
// whole reservation guard: without it two concurrent purchases can both pass
// the availability check and claim the same number.
func (r *AllocationRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "raffleId", Value: 1}, {Key: "number", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_raffle_number"),
		},
		{
			Keys:    bson.D{{Key: "saleId", Value: 1}},
			Options: options.Index().SetName("by_sale"),
		},
	})
	return err
}

// Reserve claims all allocations or none of them
func (r *AllocationRepository) Reserve(ctx context.Context, allocations []*models.NumberAllocation) error {
	if len(allocations) == 0 {
		return nil
	}
	now := time.Now()
	docs := make([]interface{}, len(allocations))
	for i, a := range allocations {
		a.CreatedAt = now
		docs[i] = a
	}

	// Unordered so every non-conflicting document is attempted; any duplicate
	// key means another sale holds at least one of the numbers.
	_, err := r.collection.InsertMany(ctx, docs, options.InsertMany().SetOrdered(false))
	if err == nil {
		return nil
	}
	if !mongo.IsDuplicateKeyError(err) {
		return err
	}

	// Roll back whatever was inserted for this sale before reporting the conflict
	if _, delErr := r.collection.DeleteMany(ctx, bson.M{"saleId": allocations[0].SaleID}); delErr != nil {
		return fmt.Errorf("release partial allocations: %w", delErr)
	}
	return repositories.ErrNumberTaken
}

// TakenNumbers returns every allocated number in a raffle, sorted
func (r *AllocationRepository) TakenNumbers(ctx context.Context, raffleID primitive.ObjectID) ([]int, error) {
	return r.findNumbers(ctx, bson.M{"raffleId": raffleID})
}

// FindTaken returns which of the given numbers are currently allocated
func (r *AllocationRepository) FindTaken(ctx context.Context, raffleID primitive.ObjectID, numbers []int) ([]int, error) {
	filter := bson.M{
		"raffleId": raffleID,
		"number":   bson.M{"$in": numbers},
	}
	return r.findNumbers(ctx, filter)
}

func (r *AllocationRepository) findNumbers(ctx context.Context, filter bson.M) ([]int, error) {
	opts := options.Find().SetSort(bson.M{"number": 1})
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var allocations []*models.NumberAllocation
	if err := cursor.All(ctx, &allocations); err != nil {
		return nil, err
	}
	numbers := make([]int, len(allocations))
	for i, a := range allocations {
		numbers[i] = a.Number
	}
	return numbers, nil
}

// ReleaseBySale frees every number held by a sale
func (r *AllocationRepository) ReleaseBySale(ctx context.Context, saleID primitive.ObjectID) error {
	_, err := r.collection.DeleteMany(ctx, bson.M{"saleId": saleID})
	return err
}
