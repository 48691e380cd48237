package services

import (
	"context"
	"errors"
	"testing"

	"github.com/borjaoskins/raffle-backend/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func seedConfirmedSale(t *testing.T, saleRepo *fakeSaleRepo, raffleID primitive.ObjectID, userID string, numbers []int) *models.Sale {
	t.Helper()
	money, err := models.MoneyFromString("10.00")
	if err != nil {
		t.Fatalf("parse amount: %v", err)
	}
	sale := &models.Sale{
		ID:            primitive.NewObjectID(),
		RaffleID:      raffleID,
		UserID:        userID,
		BuyerName:     "Maria Silva",
		BuyerEmail:    "maria@example.com",
		Numbers:       numbers,
		PaymentAmount: money,
		PaymentStatus: models.PaymentStatusApproved,
	}
	if err := saleRepo.Create(context.Background(), sale); err != nil {
		t.Fatalf("seed sale: %v", err)
	}
	return sale
}

func TestFinalizeBindsWinnerToConfirmedSale(t *testing.T) {
	raffleRepo := newFakeRaffleRepo()
	saleRepo := newFakeSaleRepo()
	svc := NewRaffleService(raffleRepo, saleRepo)

	raffle := seedRaffle(t, raffleRepo, 100, true)
	seedConfirmedSale(t, saleRepo, raffle.ID, "user-42", []int{2, 7})

	got, err := svc.Finalize(context.Background(), raffle.ID, 2)
	if err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	if got.Active {
		t.Error("raffle still active after finalization")
	}
	if got.WinnerNumber == nil || *got.WinnerNumber != 2 {
		t.Errorf("winner number = %v, want 2", got.WinnerNumber)
	}
	if got.WinnerUser != "user-42" {
		t.Errorf("winner user = %q, want user-42", got.WinnerUser)
	}
	if got.FinishedAt == nil {
		t.Error("finished_at not set")
	}
}

func TestFinalizeGuestSaleFallsBackToSaleID(t *testing.T) {
	raffleRepo := newFakeRaffleRepo()
	saleRepo := newFakeSaleRepo()
	svc := NewRaffleService(raffleRepo, saleRepo)

	raffle := seedRaffle(t, raffleRepo, 100, true)
	sale := seedConfirmedSale(t, saleRepo, raffle.ID, "", []int{13})

	got, err := svc.Finalize(context.Background(), raffle.ID, 13)
	if err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	if got.WinnerUser != sale.ID.Hex() {
		t.Errorf("winner user = %q, want sale id %s", got.WinnerUser, sale.ID.Hex())
	}
}

func TestFinalizeNoConfirmedSaleForNumber(t *testing.T) {
	raffleRepo := newFakeRaffleRepo()
	saleRepo := newFakeSaleRepo()
	svc := NewRaffleService(raffleRepo, saleRepo)

	raffle := seedRaffle(t, raffleRepo, 100, true)

	// A pending claim on the number does not make it a winner
	pending := &models.Sale{
		ID:            primitive.NewObjectID(),
		RaffleID:      raffle.ID,
		BuyerName:     "Bruno Costa",
		BuyerEmail:    "bruno@example.com",
		Numbers:       []int{2},
		PaymentStatus: models.PaymentStatusWaitingPayment,
	}
	if err := saleRepo.Create(context.Background(), pending); err != nil {
		t.Fatalf("seed sale: %v", err)
	}

	_, err := svc.Finalize(context.Background(), raffle.ID, 2)
	if !errors.Is(err, models.ErrNoSaleForNumber) {
		t.Errorf("err = %v, want ErrNoSaleForNumber", err)
	}

	got, _ := raffleRepo.FindByID(context.Background(), raffle.ID)
	if !got.Active {
		t.Error("raffle deactivated despite failed finalization")
	}
}

func TestFinalizeNumberOutOfRange(t *testing.T) {
	raffleRepo := newFakeRaffleRepo()
	svc := NewRaffleService(raffleRepo, newFakeSaleRepo())

	raffle := seedRaffle(t, raffleRepo, 50, true)

	for _, number := range []int{0, -1, 51} {
		_, err := svc.Finalize(context.Background(), raffle.ID, number)
		if !errors.Is(err, models.ErrNumberOutOfRange) {
			t.Errorf("number %d: err = %v, want ErrNumberOutOfRange", number, err)
		}
	}
}

func TestFinalizeAlreadyFinished(t *testing.T) {
	raffleRepo := newFakeRaffleRepo()
	saleRepo := newFakeSaleRepo()
	svc := NewRaffleService(raffleRepo, saleRepo)

	raffle := seedRaffle(t, raffleRepo, 100, true)
	seedConfirmedSale(t, saleRepo, raffle.ID, "user-1", []int{2, 3})

	if _, err := svc.Finalize(context.Background(), raffle.ID, 2); err != nil {
		t.Fatalf("first Finalize: %v", err)
	}
	if _, err := svc.Finalize(context.Background(), raffle.ID, 3); !errors.Is(err, models.ErrRaffleInactive) {
		t.Errorf("second Finalize err = %v, want ErrRaffleInactive", err)
	}
}

func TestUpdateRaffleCannotReopenFinishedRaffle(t *testing.T) {
	raffleRepo := newFakeRaffleRepo()
	saleRepo := newFakeSaleRepo()
	svc := NewRaffleService(raffleRepo, saleRepo)

	raffle := seedRaffle(t, raffleRepo, 100, true)
	seedConfirmedSale(t, saleRepo, raffle.ID, "user-1", []int{2})

	if _, err := svc.Finalize(context.Background(), raffle.ID, 2); err != nil {
		t.Fatalf("Finalize: %v", err)
	}

	active := true
	_, err := svc.UpdateRaffle(context.Background(), raffle.ID, &models.UpdateRaffleRequest{Active: &active})
	if !errors.Is(err, models.ErrRaffleFinished) {
		t.Fatalf("err = %v, want ErrRaffleFinished", err)
	}

	// A raffle with a winner recorded must stay inactive
	got, _ := raffleRepo.FindByID(context.Background(), raffle.ID)
	if got.Active {
		t.Error("finished raffle reopened without clearing the winner")
	}
	if got.WinnerNumber == nil || *got.WinnerNumber != 2 {
		t.Errorf("winner number = %v, want 2", got.WinnerNumber)
	}

	// Editing other fields on a finished raffle is still allowed
	title := "Rifa Encerrada"
	updated, err := svc.UpdateRaffle(context.Background(), raffle.ID, &models.UpdateRaffleRequest{Title: &title})
	if err != nil {
		t.Fatalf("UpdateRaffle title only: %v", err)
	}
	if updated.Title != title {
		t.Errorf("title = %q, want %q", updated.Title, title)
	}
	if updated.Active {
		t.Error("title edit flipped the active flag")
	}
}

func TestReactivateClearsWinner(t *testing.T) {
	raffleRepo := newFakeRaffleRepo()
	saleRepo := newFakeSaleRepo()
	svc := NewRaffleService(raffleRepo, saleRepo)

	raffle := seedRaffle(t, raffleRepo, 100, true)
	seedConfirmedSale(t, saleRepo, raffle.ID, "user-1", []int{2})

	if _, err := svc.Finalize(context.Background(), raffle.ID, 2); err != nil {
		t.Fatalf("Finalize: %v", err)
	}

	got, err := svc.Reactivate(context.Background(), raffle.ID)
	if err != nil {
		t.Fatalf("Reactivate: %v", err)
	}
	if !got.Active {
		t.Error("raffle not active after reactivation")
	}
	if got.WinnerNumber != nil || got.WinnerUser != "" || got.FinishedAt != nil {
		t.Errorf("winner fields not cleared: number=%v user=%q finished=%v",
			got.WinnerNumber, got.WinnerUser, got.FinishedAt)
	}
}

func TestDeleteRaffleArchivesWhenSalesExist(t *testing.T) {
	raffleRepo := newFakeRaffleRepo()
	saleRepo := newFakeSaleRepo()
	svc := NewRaffleService(raffleRepo, saleRepo)

	withSales := seedRaffle(t, raffleRepo, 100, true)
	seedConfirmedSale(t, saleRepo, withSales.ID, "", []int{1})
	empty := seedRaffle(t, raffleRepo, 100, true)

	if err := svc.DeleteRaffle(context.Background(), withSales.ID); err != nil {
		t.Fatalf("DeleteRaffle with sales: %v", err)
	}
	archived, err := raffleRepo.FindByID(context.Background(), withSales.ID)
	if err != nil {
		t.Fatalf("raffle with sales was deleted outright: %v", err)
	}
	if !archived.Archived {
		t.Error("raffle with sales not archived")
	}

	if err := svc.DeleteRaffle(context.Background(), empty.ID); err != nil {
		t.Fatalf("DeleteRaffle without sales: %v", err)
	}
	if _, err := raffleRepo.FindByID(context.Background(), empty.ID); !errors.Is(err, models.ErrRaffleNotFound) {
		t.Errorf("raffle without sales still present: err = %v", err)
	}
}

func TestCreateRaffleRejectsBadPrice(t *testing.T) {
	svc := NewRaffleService(newFakeRaffleRepo(), newFakeSaleRepo())

	for _, price := range []string{"", "abc", "0", "-5"} {
		_, err := svc.CreateRaffle(context.Background(), &models.CreateRaffleRequest{
			Title:          "Rifa",
			PricePerNumber: price,
			TotalNumbers:   100,
		})
		if err == nil {
			t.Errorf("price %q accepted", price)
		}
	}
}

func TestUpdateRafflePartialFields(t *testing.T) {
	raffleRepo := newFakeRaffleRepo()
	svc := NewRaffleService(raffleRepo, newFakeSaleRepo())

	raffle := seedRaffle(t, raffleRepo, 100, true)

	newTitle := "Rifa Atualizada"
	newPrice := "7.50"
	got, err := svc.UpdateRaffle(context.Background(), raffle.ID, &models.UpdateRaffleRequest{
		Title:          &newTitle,
		PricePerNumber: &newPrice,
	})
	if err != nil {
		t.Fatalf("UpdateRaffle: %v", err)
	}
	if got.Title != newTitle {
		t.Errorf("title = %q, want %q", got.Title, newTitle)
	}
	if got.PricePerNum.String() != "7.5" {
		t.Errorf("price = %s, want 7.5", got.PricePerNum.String())
	}
	// Untouched fields survive
	if got.TotalNumbers != 100 {
		t.Errorf("total numbers = %d, want 100", got.TotalNumbers)
	}
	if !got.Active {
		t.Error("active flag changed by partial update")
	}
}
