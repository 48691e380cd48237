package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/borjaoskins/raffle-backend/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ErrNumberTaken is returned by AllocationRepository.Reserve when at least one
// requested number is already allocated to another sale.
var ErrNumberTaken = errors.New("number already allocated")

// RaffleRepository defines the interface for raffle data operations
type RaffleRepository interface {
	Create(ctx context.Context, raffle *models.Raffle) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Raffle, error)
	FindActive(ctx context.Context) ([]*models.Raffle, error)
	FindAll(ctx context.Context, includeArchived bool) ([]*models.Raffle, error)
	Update(ctx context.Context, raffle *models.Raffle) error
	SetWinner(ctx context.Context, id primitive.ObjectID, number int, winnerUser string, finishedAt time.Time) error
	ClearWinner(ctx context.Context, id primitive.ObjectID) error
	Archive(ctx context.Context, id primitive.ObjectID) error
	Delete(ctx context.Context, id primitive.ObjectID) error
}

// SaleRepository defines the interface for sale data operations
type SaleRepository interface {
	Create(ctx context.Context, sale *models.Sale) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Sale, error)
	FindByRaffle(ctx context.Context, raffleID primitive.ObjectID) ([]*models.Sale, error)
	FindByRaffleAndStatuses(ctx context.Context, raffleID primitive.ObjectID, statuses []models.PaymentStatus) ([]*models.Sale, error)
	FindConfirmedByNumber(ctx context.Context, raffleID primitive.ObjectID, number int) (*models.Sale, error)
	CountByRaffle(ctx context.Context, raffleID primitive.ObjectID) (int64, error)
	// MarkWaitingPayment attaches the gateway charge id once the PIX charge exists
	MarkWaitingPayment(ctx context.Context, id primitive.ObjectID, paymentID string) error
	// MarkApproved flips a still-in-flight sale to approved. The update is
	// conditional on the current status so duplicate webhook deliveries and
	// concurrent handlers cannot transition the sale twice; it reports whether
	// this call performed the transition.
	MarkApproved(ctx context.Context, id primitive.ObjectID, paymentID string, paidAt time.Time) (bool, error)
	// MarkExpired flips a still-unpaid sale to expired, reporting whether it did
	MarkExpired(ctx context.Context, id primitive.ObjectID) (bool, error)
	// FindStale returns sales in the given status whose last transition
	// predates the cutoff, so time spent in an earlier status does not count
	// against the current one.
	FindStale(ctx context.Context, status models.PaymentStatus, olderThan time.Time) ([]*models.Sale, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
}

// AllocationRepository defines the interface for number allocation operations
type AllocationRepository interface {
	EnsureIndexes(ctx context.Context) error
	// Reserve atomically claims the allocations. On any collision it removes
	// whatever it managed to insert for the sale and returns ErrNumberTaken,
	// so a failed reservation leaves no rows behind.
	Reserve(ctx context.Context, allocations []*models.NumberAllocation) error
	TakenNumbers(ctx context.Context, raffleID primitive.ObjectID) ([]int, error)
	// FindTaken returns which of the given numbers are currently allocated
	FindTaken(ctx context.Context, raffleID primitive.ObjectID, numbers []int) ([]int, error)
	ReleaseBySale(ctx context.Context, saleID primitive.ObjectID) error
}
