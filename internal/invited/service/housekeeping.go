package service

import (
	"context"
	"log/slog"
	"time"
)

// HousekeepingService periodically deletes expired, unused invitations.
// Garbage collection only: creation and redemption stay correct even if
// it never runs, because expiry is always checked at redemption time.
type HousekeepingService struct {
	Invitations *InvitationService
	Logger      *slog.Logger
	Interval    time.Duration

	stopCh chan struct{}
	doneCh chan struct{}
}

// NewHousekeepingService creates a housekeeping service with the given
// interval. If interval is 0 or negative, defaults to 1 hour.
func NewHousekeepingService(
	invitations *InvitationService,
	logger *slog.Logger,
	interval time.Duration,
) *HousekeepingService {
	if interval <= 0 {
		interval = 1 * time.Hour
	}

	return &HousekeepingService{
		Invitations: invitations,
		Logger:      logger,
		Interval:    interval,
		stopCh:      make(chan struct{}),
		doneCh:      make(chan struct{}),
	}
}

// Start begins the background worker. Non-blocking; call Stop() for a
// graceful shutdown.
func (s *HousekeepingService) Start() {
	go s.run()
	s.Logger.Info("housekeeping service started", "interval", s.Interval)
}

// Stop shuts down the worker, blocking until any in-progress sweep finishes.
func (s *HousekeepingService) Stop() {
	close(s.stopCh)
	<-s.doneCh
	s.Logger.Info("housekeeping service stopped")
}

func (s *HousekeepingService) run() {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	// Run a sweep immediately on startup
	s.sweep()

	for {
		select {
		case <-ticker.C:
			s.sweep()
		case <-s.stopCh:
			return
		}
	}
}

func (s *HousekeepingService) sweep() {
	deleted, err := s.Invitations.PurgeExpired(context.Background())
	if err != nil {
		s.Logger.Error("housekeeping sweep failed", "error", err)
		return
	}
	s.Logger.Debug("housekeeping sweep completed", "deleted", deleted)
}
