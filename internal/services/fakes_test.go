package services

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/borjaoskins/raffle-backend/internal/models"
	"github.com/borjaoskins/raffle-backend/internal/repositories"
	"github.com/borjaoskins/raffle-backend/pkg/mercadopago"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// In-memory stand-ins for the Mongo repositories. They mimic the conditional
// update semantics the services rely on.

type fakeRaffleRepo struct {
	mu      sync.Mutex
	raffles map[primitive.ObjectID]*models.Raffle
}

func newFakeRaffleRepo() *fakeRaffleRepo {
	return &fakeRaffleRepo{raffles: make(map[primitive.ObjectID]*models.Raffle)}
}

func (r *fakeRaffleRepo) Create(_ context.Context, raffle *models.Raffle) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if raffle.ID.IsZero() {
		raffle.ID = primitive.NewObjectID()
	}
	raffle.CreatedAt = time.Now()
	raffle.UpdatedAt = time.Now()
	clone := *raffle
	r.raffles[raffle.ID] = &clone
	return nil
}

func (r *fakeRaffleRepo) FindByID(_ context.Context, id primitive.ObjectID) (*models.Raffle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	raffle, ok := r.raffles[id]
	if !ok {
		return nil, models.ErrRaffleNotFound
	}
	clone := *raffle
	return &clone, nil
}

func (r *fakeRaffleRepo) FindActive(_ context.Context) ([]*models.Raffle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Raffle
	for _, raffle := range r.raffles {
		if raffle.Active && !raffle.Archived {
			clone := *raffle
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (r *fakeRaffleRepo) FindAll(_ context.Context, includeArchived bool) ([]*models.Raffle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Raffle
	for _, raffle := range r.raffles {
		if raffle.Archived && !includeArchived {
			continue
		}
		clone := *raffle
		out = append(out, &clone)
	}
	return out, nil
}

func (r *fakeRaffleRepo) Update(_ context.Context, raffle *models.Raffle) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.raffles[raffle.ID]; !ok {
		return models.ErrRaffleNotFound
	}
	clone := *raffle
	r.raffles[raffle.ID] = &clone
	return nil
}

func (r *fakeRaffleRepo) SetWinner(_ context.Context, id primitive.ObjectID, number int, winnerUser string, finishedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	raffle, ok := r.raffles[id]
	if !ok || !raffle.Active {
		return models.ErrRaffleInactive
	}
	raffle.Active = false
	raffle.WinnerNumber = &number
	raffle.WinnerUser = winnerUser
	raffle.FinishedAt = &finishedAt
	return nil
}

func (r *fakeRaffleRepo) ClearWinner(_ context.Context, id primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	raffle, ok := r.raffles[id]
	if !ok {
		return models.ErrRaffleNotFound
	}
	raffle.Active = true
	raffle.WinnerNumber = nil
	raffle.WinnerUser = ""
	raffle.FinishedAt = nil
	return nil
}

func (r *fakeRaffleRepo) Archive(_ context.Context, id primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	raffle, ok := r.raffles[id]
	if !ok {
		return models.ErrRaffleNotFound
	}
	raffle.Archived = true
	return nil
}

func (r *fakeRaffleRepo) Delete(_ context.Context, id primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.raffles, id)
	return nil
}

type fakeSaleRepo struct {
	mu    sync.Mutex
	sales []*models.Sale

	failCreate error
	failFind   error
}

func newFakeSaleRepo() *fakeSaleRepo {
	return &fakeSaleRepo{}
}

func (r *fakeSaleRepo) get(id primitive.ObjectID) *models.Sale {
	for _, s := range r.sales {
		if s.ID == id {
			return s
		}
	}
	return nil
}

func (r *fakeSaleRepo) Create(_ context.Context, sale *models.Sale) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failCreate != nil {
		return r.failCreate
	}
	if sale.ID.IsZero() {
		sale.ID = primitive.NewObjectID()
	}
	if sale.CreatedAt.IsZero() {
		sale.CreatedAt = time.Now()
	}
	if sale.UpdatedAt.IsZero() {
		sale.UpdatedAt = sale.CreatedAt
	}
	clone := *sale
	r.sales = append(r.sales, &clone)
	return nil
}

func (r *fakeSaleRepo) FindByID(_ context.Context, id primitive.ObjectID) (*models.Sale, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failFind != nil {
		return nil, r.failFind
	}
	sale := r.get(id)
	if sale == nil {
		return nil, models.ErrSaleNotFound
	}
	clone := *sale
	return &clone, nil
}

func (r *fakeSaleRepo) FindByRaffle(_ context.Context, raffleID primitive.ObjectID) ([]*models.Sale, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Sale
	for _, s := range r.sales {
		if s.RaffleID == raffleID {
			clone := *s
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (r *fakeSaleRepo) FindByRaffleAndStatuses(_ context.Context, raffleID primitive.ObjectID, statuses []models.PaymentStatus) ([]*models.Sale, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Sale
	for _, s := range r.sales {
		if s.RaffleID != raffleID {
			continue
		}
		for _, status := range statuses {
			if s.PaymentStatus == status {
				clone := *s
				out = append(out, &clone)
				break
			}
		}
	}
	return out, nil
}

func (r *fakeSaleRepo) FindConfirmedByNumber(_ context.Context, raffleID primitive.ObjectID, number int) (*models.Sale, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.sales {
		if s.RaffleID != raffleID {
			continue
		}
		confirmed := false
		for _, status := range models.ConfirmedStatuses {
			if s.PaymentStatus == status {
				confirmed = true
				break
			}
		}
		if !confirmed {
			continue
		}
		for _, n := range s.Numbers {
			if n == number {
				clone := *s
				return &clone, nil
			}
		}
	}
	return nil, models.ErrNoSaleForNumber
}

func (r *fakeSaleRepo) CountByRaffle(_ context.Context, raffleID primitive.ObjectID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var count int64
	for _, s := range r.sales {
		if s.RaffleID == raffleID {
			count++
		}
	}
	return count, nil
}

func (r *fakeSaleRepo) MarkWaitingPayment(_ context.Context, id primitive.ObjectID, paymentID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	sale := r.get(id)
	if sale == nil {
		return models.ErrSaleNotFound
	}
	if sale.PaymentStatus != models.PaymentStatusPending && sale.PaymentStatus != models.PaymentStatusWaitingPayment {
		return models.ErrSaleNotFound
	}
	sale.PaymentStatus = models.PaymentStatusWaitingPayment
	sale.PaymentID = paymentID
	sale.UpdatedAt = time.Now()
	return nil
}

func (r *fakeSaleRepo) MarkApproved(_ context.Context, id primitive.ObjectID, paymentID string, paidAt time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sale := r.get(id)
	if sale == nil {
		return false, nil
	}
	if sale.PaymentStatus != models.PaymentStatusPending && sale.PaymentStatus != models.PaymentStatusWaitingPayment {
		return false, nil
	}
	sale.PaymentStatus = models.PaymentStatusApproved
	sale.PaymentID = paymentID
	sale.PaidAt = &paidAt
	sale.UpdatedAt = time.Now()
	return true, nil
}

func (r *fakeSaleRepo) MarkExpired(_ context.Context, id primitive.ObjectID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sale := r.get(id)
	if sale == nil {
		return false, nil
	}
	if sale.PaymentStatus != models.PaymentStatusPending && sale.PaymentStatus != models.PaymentStatusWaitingPayment {
		return false, nil
	}
	sale.PaymentStatus = models.PaymentStatusExpired
	sale.UpdatedAt = time.Now()
	return true, nil
}

func (r *fakeSaleRepo) FindStale(_ context.Context, status models.PaymentStatus, olderThan time.Time) ([]*models.Sale, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Sale
	for _, s := range r.sales {
		if s.PaymentStatus == status && s.UpdatedAt.Before(olderThan) {
			clone := *s
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (r *fakeSaleRepo) Delete(_ context.Context, id primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, s := range r.sales {
		if s.ID == id {
			r.sales = append(r.sales[:i], r.sales[i+1:]...)
			return nil
		}
	}
	return nil
}

type fakeAllocRepo struct {
	mu     sync.Mutex
	allocs map[primitive.ObjectID]map[int]primitive.ObjectID // raffle -> number -> sale
}

func newFakeAllocRepo() *fakeAllocRepo {
	return &fakeAllocRepo{allocs: make(map[primitive.ObjectID]map[int]primitive.ObjectID)}
}

func (r *fakeAllocRepo) EnsureIndexes(context.Context) error { return nil }

func (r *fakeAllocRepo) Reserve(_ context.Context, allocations []*models.NumberAllocation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range allocations {
		if _, taken := r.allocs[a.RaffleID][a.Number]; taken {
			return repositories.ErrNumberTaken
		}
	}
	for _, a := range allocations {
		if r.allocs[a.RaffleID] == nil {
			r.allocs[a.RaffleID] = make(map[int]primitive.ObjectID)
		}
		r.allocs[a.RaffleID][a.Number] = a.SaleID
	}
	return nil
}

func (r *fakeAllocRepo) TakenNumbers(_ context.Context, raffleID primitive.ObjectID) ([]int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []int
	for n := range r.allocs[raffleID] {
		out = append(out, n)
	}
	sort.Ints(out)
	return out, nil
}

func (r *fakeAllocRepo) FindTaken(_ context.Context, raffleID primitive.ObjectID, numbers []int) ([]int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []int
	for _, n := range numbers {
		if _, ok := r.allocs[raffleID][n]; ok {
			out = append(out, n)
		}
	}
	sort.Ints(out)
	return out, nil
}

func (r *fakeAllocRepo) ReleaseBySale(_ context.Context, saleID primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, byNumber := range r.allocs {
		for n, id := range byNumber {
			if id == saleID {
				delete(byNumber, n)
			}
		}
	}
	return nil
}

type fakeGateway struct {
	mu          sync.Mutex
	payments    map[string]*mercadopago.Payment
	getErr      error
	createErr   error
	created     *mercadopago.Payment
	lastRequest *mercadopago.ChargeRequest
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{payments: make(map[string]*mercadopago.Payment)}
}

func (g *fakeGateway) CreatePayment(_ context.Context, req mercadopago.ChargeRequest) (*mercadopago.Payment, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.lastRequest = &req
	if g.createErr != nil {
		return nil, g.createErr
	}
	return g.created, nil
}

func (g *fakeGateway) GetPayment(_ context.Context, id string) (*mercadopago.Payment, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.getErr != nil {
		return nil, g.getErr
	}
	payment, ok := g.payments[id]
	if !ok {
		return nil, &mercadopago.APIError{StatusCode: 404, Message: "payment not found"}
	}
	return payment, nil
}
