// Package logging routes slog output into an in-memory, pubsub-backed log
// service so recent records can be listed by the CLI and the web UI.
package logging

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"runtime/debug"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/waydiffer/waydiffer/internal/pubsub"
)

// Log is one structured log record.
type Log struct {
	ID         string            `json:"id"`
	Timestamp  time.Time         `json:"timestamp"`
	Level      string            `json:"level"`
	Message    string            `json:"message"`
	Attributes map[string]string `json:"attributes,omitempty"`
}

const (
	EventLogCreated pubsub.EventType = "log_created"

	// maxRetained bounds the in-memory record list.
	maxRetained = 1000
)

type Service interface {
	pubsub.Subscriber[Log]

	Create(ctx context.Context, log Log) Log
	List(limit int) []Log
	Shutdown()
}

type service struct {
	mu     sync.RWMutex
	logs   []Log
	broker *pubsub.Broker[Log]
}

var globalService *service

// InitService sets up the global logging service. Calling it twice is an
// error so accidental re-initialization surfaces during development.
func InitService() error {
	if globalService != nil {
		return fmt.Errorf("logging service already initialized")
	}
	globalService = &service{
		broker: pubsub.NewBroker[Log](),
	}
	return nil
}

func GetService() Service {
	if globalService == nil {
		panic("logging service not initialized. Call logging.InitService() first.")
	}
	return globalService
}

func (s *service) Create(ctx context.Context, log Log) Log {
	if log.ID == "" {
		log.ID = uuid.New().String()
	}
	if log.Level == "" {
		log.Level = "info"
	}
	if log.Timestamp.IsZero() {
		log.Timestamp = time.Now()
	}

	s.mu.Lock()
	s.logs = append(s.logs, log)
	if len(s.logs) > maxRetained {
		s.logs = s.logs[len(s.logs)-maxRetained:]
	}
	s.mu.Unlock()

	s.broker.Publish(EventLogCreated, log)
	return log
}

// List returns up to limit records, newest last. A non-positive limit
// returns everything retained.
func (s *service) List(limit int) []Log {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := len(s.logs)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]Log, n)
	copy(out, s.logs[len(s.logs)-n:])
	return out
}

func (s *service) Subscribe(ctx context.Context) <-chan pubsub.Event[Log] {
	return s.broker.Subscribe(ctx)
}

func (s *service) Shutdown() {
	s.broker.Shutdown()
}

// RecoverPanic is a common function to handle panics gracefully.
// It logs the error, creates a panic log file with stack trace,
// and executes an optional cleanup function.
func RecoverPanic(name string, cleanup func()) {
	if r := recover(); r != nil {
		// Use slog directly here, as our service might be the one panicking.
		slog.Error(fmt.Sprintf("Panic in %s: %v", name, r))

		timestamp := time.Now().Format("20060102-150405")
		filename := fmt.Sprintf("waydiffer-panic-%s-%s.log", name, timestamp)

		file, err := os.Create(filename)
		if err != nil {
			slog.Error(fmt.Sprintf("Failed to create panic log file '%s': %v", filename, err))
		} else {
			defer file.Close()
			fmt.Fprintf(file, "Panic in %s: %v\n\n", name, r)
			fmt.Fprintf(file, "Time: %s\n\n", time.Now().Format(time.RFC3339))
			fmt.Fprintf(file, "Stack Trace:\n%s\n", string(debug.Stack()))
			slog.Info(fmt.Sprintf("Panic details written to %s", filename))
		}

		if cleanup != nil {
			cleanup()
		}
	}
}

// resetForTest drops the global service. Only used by tests.
func resetForTest() {
	if globalService != nil {
		globalService.Shutdown()
	}
	globalService = nil
}
