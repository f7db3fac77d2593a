package services

import (
	"context"
	"time"

	"libraryhub/internal/config"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// ============================================================
// Background jobs: overdue sweep + expired OTP cleanup
// ============================================================

// jobTimeout bounds a single scheduled run
const jobTimeout = 2 * time.Minute

// CronService runs the periodic maintenance jobs
type CronService struct {
	cron       *cron.Cron
	borrowings *BorrowingService
	otp        *OTPService
	cfg        *config.Config
	log        zerolog.Logger
}

// NewCronService creates a new cron service
func NewCronService(borrowings *BorrowingService, otp *OTPService, cfg *config.Config, log zerolog.Logger) *CronService {
	return &CronService{
		cron:       cron.New(cron.WithSeconds()),
		borrowings: borrowings,
		otp:        otp,
		cfg:        cfg,
		log:        log,
	}
}

// Start registers the jobs and starts the scheduler
func (s *CronService) Start() error {
	if spec := s.cfg.Borrowing.SweepCron; spec != "" {
		if _, err := s.cron.AddFunc(spec, s.sweepOverdue); err != nil {
			return err
		}
	}
	if spec := s.cfg.OTP.CleanupCron; spec != "" {
		if _, err := s.cron.AddFunc(spec, s.cleanupOTP); err != nil {
			return err
		}
	}

	s.cron.Start()
	s.log.Info().Int("jobs", len(s.cron.Entries())).Msg("cron started")
	return nil
}

// Stop stops the scheduler and waits for running jobs
func (s *CronService) Stop() {
	<-s.cron.Stop().Done()
	s.log.Info().Msg("cron stopped")
}

func (s *CronService) sweepOverdue() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	if _, err := s.borrowings.SweepOverdue(ctx); err != nil {
		s.log.Error().Err(err).Msg("overdue sweep failed")
	}
}

func (s *CronService) cleanupOTP() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	n, err := s.otp.CleanupExpired(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("otp cleanup failed")
		return
	}
	if n > 0 {
		s.log.Debug().Int64("deleted", n).Msg("expired otp challenges removed")
	}
}
