package jobs

import (
	"context"
	"time"

	"github.com/borjaoskins/raffle-backend/internal/services"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// Scheduler runs periodic maintenance jobs
type Scheduler struct {
	cron        *cron.Cron
	saleService services.SaleService
}

// NewScheduler creates a new Scheduler
func NewScheduler(saleService services.SaleService) *Scheduler {
	return &Scheduler{
		cron:        cron.New(),
		saleService: saleService,
	}
}

// Start registers and starts the jobs
func (s *Scheduler) Start() error {
	// Stale reservations hold numbers hostage; sweep them every 5 minutes
	_, err := s.cron.AddFunc("*/5 * * * *", s.releaseExpiredSales)
	if err != nil {
		return err
	}
	s.cron.Start()
	logrus.Info("job scheduler started")
	return nil
}

// Stop stops the scheduler and waits for running jobs
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

func (s *Scheduler) releaseExpiredSales() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	released, err := s.saleService.ReleaseExpired(ctx)
	if err != nil {
		logrus.WithError(err).Error("expired sale sweep failed")
		return
	}
	if released > 0 {
		logrus.WithField("released", released).Info("expired sale sweep finished")
	}
}
