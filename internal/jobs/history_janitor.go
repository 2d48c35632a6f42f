package jobs

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"SalesScope/api/constants"
	"SalesScope/internal/config"
	"SalesScope/internal/logger"
)

// JanitorConfig drives the upload-history janitor job.
type JanitorConfig struct {
	Schedule   string
	TimeZone   string
	StuckAfter time.Duration
	MaxRetries int
	RetryDelay time.Duration
}

func NewDefaultJanitorConfig() *JanitorConfig {
	return &JanitorConfig{
		Schedule:   config.DefaultJanitorSchedule,
		TimeZone:   config.DefaultTimeZone,
		StuckAfter: config.HistoryStuckAfter,
		MaxRetries: 3,
		RetryDelay: 2 * time.Second,
	}
}

// CircuitBreakerState represents the state of circuit breaker
type CircuitBreakerState int32

const (
	StateClosed CircuitBreakerState = iota
	StateOpen
	StateHalfOpen
)

// CircuitBreaker implements circuit breaker pattern
type CircuitBreaker struct {
	maxFailures  int32
	resetTimeout time.Duration
	failures     int32
	lastFailTime time.Time
	state        CircuitBreakerState
	mutex        sync.RWMutex
}

func NewCircuitBreaker(maxFailures int32, resetTimeout time.Duration) *CircuitBreaker {
	return &CircuitBreaker{
		maxFailures:  maxFailures,
		resetTimeout: resetTimeout,
		state:        StateClosed,
	}
}

// Execute runs the function with circuit breaker protection
func (cb *CircuitBreaker) Execute(fn func() error) error {
	cb.mutex.RLock()
	state := cb.state
	cb.mutex.RUnlock()

	if state == StateOpen {
		if time.Since(cb.lastFailTime) > cb.resetTimeout {
			cb.mutex.Lock()
			cb.state = StateHalfOpen
			cb.mutex.Unlock()
		} else {
			return fmt.Errorf("circuit breaker is open")
		}
	}

	err := fn()

	cb.mutex.Lock()
	defer cb.mutex.Unlock()

	if err != nil {
		cb.failures++
		cb.lastFailTime = time.Now()
		if cb.failures >= cb.maxFailures {
			cb.state = StateOpen
		}
		return err
	}

	cb.failures = 0
	cb.state = StateClosed
	return nil
}

// RetryWithBackoff executes a function with exponential backoff retry logic
func RetryWithBackoff(maxRetries int, initialDelay time.Duration, fn func() error) error {
	var lastErr error

	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			delay := time.Duration(math.Pow(2, float64(attempt-1))) * initialDelay
			if logger.GlobalLogger != nil {
				logger.GlobalLogger.LogAudit(fmt.Sprintf("Retrying after %v (attempt %d/%d)", delay, attempt, maxRetries))
			}
			time.Sleep(delay)
		}

		lastErr = fn()
		if lastErr == nil {
			return nil
		}

		if logger.GlobalLogger != nil {
			logger.GlobalLogger.LogAudit(fmt.Sprintf("Attempt %d failed: %v", attempt+1, lastErr))
		}
	}

	return fmt.Errorf("failed after %d attempts: %v", maxRetries+1, lastErr)
}

// RunHistoryJanitor schedules a job that fails out upload_history rows
// stuck in processing state. Uploads that die mid-run (process restart,
// lost connection) would otherwise sit in processing forever.
func RunHistoryJanitor(cfg *JanitorConfig, db *sql.DB) error {
	if cfg.Schedule == "" {
		cfg.Schedule = config.DefaultJanitorSchedule
	}
	if cfg.TimeZone == "" {
		cfg.TimeZone = config.DefaultTimeZone
	}
	if cfg.StuckAfter == 0 {
		cfg.StuckAfter = config.HistoryStuckAfter
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 3
	}
	if cfg.RetryDelay == 0 {
		cfg.RetryDelay = 2 * time.Second
	}

	loc, err := time.LoadLocation(cfg.TimeZone)
	if err != nil {
		return fmt.Errorf("invalid timezone for history janitor: %v", err)
	}

	dbCircuitBreaker := NewCircuitBreaker(3, 60*time.Second)

	c := cron.New(cron.WithLocation(loc))
	_, err = c.AddFunc(cfg.Schedule, func() {
		err := dbCircuitBreaker.Execute(func() error {
			return RetryWithBackoff(cfg.MaxRetries, cfg.RetryDelay, func() error {
				return sweepStuckHistory(context.Background(), db, cfg.StuckAfter)
			})
		})
		if err != nil && logger.GlobalLogger != nil {
			logger.GlobalLogger.LogAudit(fmt.Sprintf("History janitor run failed: %v", err))
		}
	})
	if err != nil {
		return fmt.Errorf("failed to schedule history janitor: %v", err)
	}
	c.Start()
	return nil
}

func sweepStuckHistory(ctx context.Context, db *sql.DB, stuckAfter time.Duration) error {
	res, err := db.ExecContext(ctx,
		`UPDATE upload_history
		 SET status = $1, message = 'marked failed by janitor: processing exceeded time limit', updated_at = NOW()
		 WHERE status = $2 AND created_at < NOW() - ($3 * INTERVAL '1 second')`,
		constants.StatusFailed, constants.StatusProcessing, int(stuckAfter.Seconds()))
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n > 0 && logger.GlobalLogger != nil {
		logger.GlobalLogger.LogAudit(fmt.Sprintf("History janitor marked %d stuck uploads failed", n))
	}
	return nil
}
