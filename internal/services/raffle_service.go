package services

import (
	"context"
	"fmt"
	"time"

	"github.com/borjaoskins/raffle-backend/internal/models"
	"github.com/borjaoskins/raffle-backend/internal/repositories"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// RaffleService defines the interface for raffle lifecycle operations
type RaffleService interface {
	CreateRaffle(ctx context.Context, req *models.CreateRaffleRequest) (*models.Raffle, error)
	UpdateRaffle(ctx context.Context, id primitive.ObjectID, req *models.UpdateRaffleRequest) (*models.Raffle, error)
	GetRaffle(ctx context.Context, id primitive.ObjectID) (*models.Raffle, error)
	ListActive(ctx context.Context) ([]*models.Raffle, error)
	ListAll(ctx context.Context, includeArchived bool) ([]*models.Raffle, error)
	// DeleteRaffle archives instead of deleting once sales reference the raffle
	DeleteRaffle(ctx context.Context, id primitive.ObjectID) error
	// Finalize closes the raffle and binds the drawn number to the confirmed
	// sale that holds it
	Finalize(ctx context.Context, id primitive.ObjectID, number int) (*models.Raffle, error)
	// Reactivate undoes an erroneous finalization
	Reactivate(ctx context.Context, id primitive.ObjectID) (*models.Raffle, error)
	Archive(ctx context.Context, id primitive.ObjectID) error
}

type raffleService struct {
	raffleRepo repositories.RaffleRepository
	saleRepo   repositories.SaleRepository
}

// NewRaffleService creates a new RaffleService
func NewRaffleService(raffleRepo repositories.RaffleRepository, saleRepo repositories.SaleRepository) RaffleService {
	return &raffleService{
		raffleRepo: raffleRepo,
		saleRepo:   saleRepo,
	}
}

func (s *raffleService) CreateRaffle(ctx context.Context, req *models.CreateRaffleRequest) (*models.Raffle, error) {
	price, err := models.MoneyFromString(req.PricePerNumber)
	if err != nil {
		return nil, fmt.Errorf("invalid price_per_number: %w", err)
	}
	if !price.IsPositive() {
		return nil, fmt.Errorf("price_per_number must be greater than zero")
	}

	raffle := &models.Raffle{
		Title:        req.Title,
		Description:  req.Description,
		ImageURL:     req.ImageURL,
		PricePerNum:  price,
		TotalNumbers: req.TotalNumbers,
		Active:       true,
	}
	if err := s.raffleRepo.Create(ctx, raffle); err != nil {
		return nil, err
	}
	return raffle, nil
}

func (s *raffleService) UpdateRaffle(ctx context.Context, id primitive.ObjectID, req *models.UpdateRaffleRequest) (*models.Raffle, error) {
	raffle, err := s.raffleRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		raffle.Title = *req.Title
	}
	if req.Description != nil {
		raffle.Description = *req.Description
	}
	if req.ImageURL != nil {
		raffle.ImageURL = *req.ImageURL
	}
	if req.PricePerNumber != nil {
		price, err := models.MoneyFromString(*req.PricePerNumber)
		if err != nil {
			return nil, fmt.Errorf("invalid price_per_number: %w", err)
		}
		if !price.IsPositive() {
			return nil, fmt.Errorf("price_per_number must be greater than zero")
		}
		raffle.PricePerNum = price
	}
	if req.Active != nil {
		if *req.Active && raffle.WinnerNumber != nil {
			// Reopening a finished raffle goes through Reactivate, which
			// clears the winner fields together with the flag
			return nil, models.ErrRaffleFinished
		}
		raffle.Active = *req.Active
	}

	if err := s.raffleRepo.Update(ctx, raffle); err != nil {
		return nil, err
	}
	return raffle, nil
}

func (s *raffleService) GetRaffle(ctx context.Context, id primitive.ObjectID) (*models.Raffle, error) {
	return s.raffleRepo.FindByID(ctx, id)
}

func (s *raffleService) ListActive(ctx context.Context) ([]*models.Raffle, error) {
	return s.raffleRepo.FindActive(ctx)
}

func (s *raffleService) ListAll(ctx context.Context, includeArchived bool) ([]*models.Raffle, error) {
	return s.raffleRepo.FindAll(ctx, includeArchived)
}

func (s *raffleService) DeleteRaffle(ctx context.Context, id primitive.ObjectID) error {
	count, err := s.saleRepo.CountByRaffle(ctx, id)
	if err != nil {
		return err
	}
	if count > 0 {
		// Sales reference this raffle; hide it instead of orphaning them
		return s.raffleRepo.Archive(ctx, id)
	}
	return s.raffleRepo.Delete(ctx, id)
}

func (s *raffleService) Finalize(ctx context.Context, id primitive.ObjectID, number int) (*models.Raffle, error) {
	raffle, err := s.raffleRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if number < 1 || number > raffle.TotalNumbers {
		return nil, fmt.Errorf("%w: %d not in [1, %d]", models.ErrNumberOutOfRange, number, raffle.TotalNumbers)
	}

	sale, err := s.saleRepo.FindConfirmedByNumber(ctx, id, number)
	if err != nil {
		return nil, err
	}

	// Guest sales carry no user reference; fall back to the sale id so the
	// winner is still traceable to a buyer.
	winner := sale.UserID
	if winner == "" {
		winner = sale.ID.Hex()
	}

	if err := s.raffleRepo.SetWinner(ctx, id, number, winner, time.Now()); err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"raffle_id":     id.Hex(),
		"winner_number": number,
		"winner_user":   winner,
		"sale_id":       sale.ID.Hex(),
	}).Info("raffle finalized")

	return s.raffleRepo.FindByID(ctx, id)
}

func (s *raffleService) Reactivate(ctx context.Context, id primitive.ObjectID) (*models.Raffle, error) {
	if err := s.raffleRepo.ClearWinner(ctx, id); err != nil {
		return nil, err
	}
	logrus.WithField("raffle_id", id.Hex()).Info("raffle reactivated, winner cleared")
	return s.raffleRepo.FindByID(ctx, id)
}

func (s *raffleService) Archive(ctx context.Context, id primitive.ObjectID) error {
	return s.raffleRepo.Archive(ctx, id)
}
