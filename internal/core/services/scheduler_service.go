package services

import (
	"context"
	"fmt"
	"time"

	"emaihl-library/internal/config"
	"emaihl-library/internal/core/domain"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

const jobTimeout = 2 * time.Minute

// SchedulerService runs the library's background jobs
type SchedulerService struct {
	library *LibraryService
	cron    *cron.Cron
	logger  *zap.Logger
}

// NewSchedulerService registers the refresh and overdue report jobs
func NewSchedulerService(library *LibraryService, cfg config.CronConfig, logger *zap.Logger) (*SchedulerService, error) {
	cl := cronLogger{logger.Sugar()}
	s := &SchedulerService{
		library: library,
		cron:    cron.New(cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl))),
		logger:  logger,
	}

	if _, err := s.cron.AddFunc(cfg.RefreshSpec, s.RefreshLibrary); err != nil {
		return nil, fmt.Errorf("invalid refresh schedule %q: %w", cfg.RefreshSpec, err)
	}
	if _, err := s.cron.AddFunc(cfg.OverdueSpec, s.ReportOverdue); err != nil {
		return nil, fmt.Errorf("invalid overdue schedule %q: %w", cfg.OverdueSpec, err)
	}
	return s, nil
}

// Start launches the scheduler
func (s *SchedulerService) Start() {
	s.cron.Start()
	s.logger.Info("🚀 Scheduler started", zap.Int("jobs", len(s.cron.Entries())))
}

// Stop waits for running jobs to finish
func (s *SchedulerService) Stop() {
	<-s.cron.Stop().Done()
	s.logger.Info("🛑 Scheduler stopped")
}

// ============================================================
// Jobs
// ============================================================

// RefreshLibrary reloads the ready snapshot. Nothing happens outside the ready phase;
// leaving the error phase stays a manual reload.
func (s *SchedulerService) RefreshLibrary() {
	if s.library.Phase() != PhaseReady {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	if err := s.library.Refresh(ctx); err != nil {
		s.logger.Warn("⚠️ Scheduled refresh failed", zap.Error(err))
		return
	}
	s.logger.Debug("🔄 Library refreshed")
}

// ReportOverdue logs every overdue loan
func (s *SchedulerService) ReportOverdue() {
	if s.library.Phase() != PhaseReady {
		return
	}

	snap := s.library.Snapshot()
	rows := LoanRows(snap, s.library.Now())

	count := 0
	for _, row := range rows {
		if row.DisplayStatus != domain.LoanOverdue {
			continue
		}
		count++
		s.logger.Warn("⏰ Overdue loan",
			zap.String("loan_id", row.Loan.ID),
			zap.String("book", row.BookTitle),
			zap.String("student", row.StudentName),
			zap.String("due_date", row.Loan.DueDate),
		)
	}
	s.logger.Info("📋 Overdue report", zap.Int("overdue", count))
}

// cronLogger adapts zap to cron.Logger
type cronLogger struct {
	s *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.s.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.s.Errorw(msg, append(keysAndValues, "error", err)...)
}
