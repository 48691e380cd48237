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

// RaffleRepository implements the repositories.RaffleRepository interface
type RaffleRepository struct {
	collection *mongo.Collection
}

// NewRaffleRepository creates a new RaffleRepository
func NewRaffleRepository(db *mongo.Database) repositories.RaffleRepository {
	return &RaffleRepository{
		collection: db.Collection("raffles"),
	}
}

// Create creates a new raffle
func (r *RaffleRepository) Create(ctx context.Context, raffle *models.Raffle) error {
	raffle.CreatedAt = time.Now()
	raffle.UpdatedAt = time.Now()
	res, err := r.collection.InsertOne(ctx, raffle)
	if err != nil {
		return err
	}
	raffle.ID = res.InsertedID.(primitive.ObjectID)
	return nil
}

// FindByID finds a raffle by ID
func (r *RaffleRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Raffle, error) {
	var raffle models.Raffle
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&raffle)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, models.ErrRaffleNotFound
		}
		return nil, err
	}
	return &raffle, nil
}

// FindActive finds active, unarchived raffles for the storefront
func (r *RaffleRepository) FindActive(ctx context.Context) ([]*models.Raffle, error) {
	filter := bson.M{"active": true, "archived": false}
	return r.find(ctx, filter)
}

// FindAll finds all raffles, optionally including archived ones
func (r *RaffleRepository) FindAll(ctx context.Context, includeArchived bool) ([]*models.Raffle, error) {
	filter := bson.M{}
	if !includeArchived {
		filter["archived"] = false
	}
	return r.find(ctx, filter)
}

func (r *RaffleRepository) find(ctx context.Context, filter bson.M) ([]*models.Raffle, error) {
	opts := options.Find().SetSort(bson.M{"createdAt": -1})
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var raffles []*models.Raffle
	if err := cursor.All(ctx, &raffles); err != nil {
		return nil, err
	}
	if raffles == nil {
		raffles = []*models.Raffle{}
	}
	return raffles, nil
}

// Update updates a raffle
func (r *RaffleRepository) Update(ctx context.Context, raffle *models.Raffle) error {
	raffle.UpdatedAt = time.Now()
	_, err := r.collection.ReplaceOne(ctx, bson.M{"_id": raffle.ID}, raffle)
	return err
}

// SetWinner closes a raffle and records the winning number and buyer.
// Single update scoped by id, guarded by "still active" so a double
// finalization cannot overwrite an earlier winner.
func (r *RaffleRepository) SetWinner(ctx context.Context, id primitive.ObjectID, number int, winnerUser string, finishedAt time.Time) error {
	filter := bson.M{"_id": id, "active": true}
	update := bson.M{"$set": bson.M{
		"active":       false,
		"winnerNumber": number,
		"winnerUser":   winnerUser,
		"finishedAt":   finishedAt,
		"updatedAt":    time.Now(),
	}}
	res, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return models.ErrRaffleInactive
	}
	return nil
}

// ClearWinner reverses a finalization, reopening the raffle
func (r *RaffleRepository) ClearWinner(ctx context.Context, id primitive.ObjectID) error {
	update := bson.M{
		"$set":   bson.M{"active": true, "updatedAt": time.Now()},
		"$unset": bson.M{"winnerNumber": "", "winnerUser": "", "finishedAt": ""},
	}
	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return models.ErrRaffleNotFound
	}
	return nil
}

// Archive hides a raffle from listings. One-way, independent of active/winner state.
func (r *RaffleRepository) Archive(ctx context.Context, id primitive.ObjectID) error {
	update := bson.M{"$set": bson.M{"archived": true, "updatedAt": time.Now()}}
	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return models.ErrRaffleNotFound
	}
	return nil
}

// Delete deletes a raffle by ID
func (r *RaffleRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	_, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	return err
}
