package main

import (
	"context"
	"log/slog"
	"time"

	"github.com/AdamBeresnev/pitch-league/internal/service"
)

// sweeper runs the periodic background passes: reminders, challenge refunds and
// closing elapsed slots. Each pass is idempotent.
type sweeper struct {
	reminders  *service.ReminderService
	challenges *service.ChallengeService
	slots      *service.SlotService
	logger     *slog.Logger
}

func (s *sweeper) run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.sweep(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *sweeper) sweep(ctx context.Context) {
	reminded, err := s.reminders.Sweep(ctx)
	if err != nil {
		s.logger.Error("reminder sweep failed", "error", err)
	}
	refunded, err := s.challenges.SweepRefunds(ctx)
	if err != nil {
		s.logger.Error("refund sweep failed", "error", err)
	}
	closed, err := s.slots.CloseElapsedSlots(ctx)
	if err != nil {
		s.logger.Error("slot close sweep failed", "error", err)
	}
	s.logger.Info("sweep finished", "reminded", reminded, "refunded", refunded, "closed", closed)
}
