// Package sweeper periodically deletes expired authentication records.
package sweeper

import (
	"context"
	"database/sql"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var meter = otel.Meter("sweeper")

// Task deletes rows matching Query every Interval. Query must be a DELETE.
type Task struct {
	Name     string
	Interval time.Duration
	Query    string
}

// Tasks returns the storefront cleanup jobs at the given cadences.
func Tasks(pendingUsers, passwordResets, refreshTokens time.Duration) []Task {
	return []Task{
		{Name: "pending_users", Interval: pendingUsers, Query: `DELETE FROM pending_users WHERE expires_at < NOW()`},
		{Name: "password_resets", Interval: passwordResets, Query: `DELETE FROM password_resets WHERE expires_at < NOW()`},
		{Name: "refresh_tokens", Interval: refreshTokens, Query: `DELETE FROM refresh_tokens WHERE expires_at < NOW()`},
	}
}

type Execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

type Sweeper struct {
	db      Execer
	tasks   []Task
	logger  *slog.Logger
	deleted metric.Int64Counter

	mu     sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func New(db Execer, tasks []Task, logger *slog.Logger) (*Sweeper, error) {
	deleted, err := meter.Int64Counter("storefront.sweeper.deleted",
		metric.WithDescription("Expired rows removed by cleanup sweeps"),
		metric.WithUnit("{row}"),
	)
	if err != nil {
		return nil, err
	}
	return &Sweeper{db: db, tasks: tasks, logger: logger, deleted: deleted}, nil
}

// Start launches one loop per task. Calling Start on a running sweeper is a
// no-op.
func (s *Sweeper) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return
	}

	ctx, s.cancel = context.WithCancel(ctx)
	for _, task := range s.tasks {
		if task.Interval <= 0 {
			s.logger.Warn("sweep disabled", "task", task.Name)
			continue
		}
		s.wg.Add(1)
		go s.loop(ctx, task)
	}
}

// Stop cancels every loop and waits for in-flight sweeps to return.
func (s *Sweeper) Stop() {
	s.mu.Lock()
	cancel := s.cancel
	s.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	s.wg.Wait()
}

func (s *Sweeper) loop(ctx context.Context, task Task) {
	defer s.wg.Done()

	ticker := time.NewTicker(task.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep(ctx, task)
		}
	}
}

// Sweep runs task once and returns the number of rows removed.
func (s *Sweeper) Sweep(ctx context.Context, task Task) int64 {
	res, err := s.db.ExecContext(ctx, task.Query)
	if err != nil {
		if ctx.Err() == nil {
			s.logger.Error("sweep failed", "task", task.Name, "error", err)
		}
		return 0
	}
	n, err := res.RowsAffected()
	if err != nil {
		s.logger.Error("sweep rows affected", "task", task.Name, "error", err)
		return 0
	}
	if n > 0 {
		s.deleted.Add(ctx, n, metric.WithAttributes(attribute.String("task", task.Name)))
		s.logger.Info("expired rows deleted", "task", task.Name, "count", n)
	}
	return n
}
