// Package notify is the user-facing outcome sink: the Go-side stand-in
// for a toast. Implementations are fire-and-forget.
package notify

import (
	"sync"

	"github.com/mgaultier/marks/internal/logger"
)

// Notifier receives user-visible outcomes of bookmark operations.
type Notifier interface {
	Success(message string)
	Error(message string)
}

// LogNotifier surfaces outcomes through the structured log.
type LogNotifier struct {
	logger logger.Logger
}

// NewLogNotifier creates a log-backed notifier
func NewLogNotifier(log logger.Logger) *LogNotifier {
	return &LogNotifier{logger: log}
}

func (n *LogNotifier) Success(message string) {
	n.logger.Info("notify_success", logger.String("message", message))
}

func (n *LogNotifier) Error(message string) {
	n.logger.Warn("notify_error", logger.String("message", message))
}

// Recorder captures notifications for assertions in tests.
type Recorder struct {
	mu        sync.Mutex
	successes []string
	errors    []string
}

// NewRecorder creates an empty recorder
func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) Success(message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.successes = append(r.successes, message)
}

func (r *Recorder) Error(message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errors = append(r.errors, message)
}

// Successes returns a copy of the recorded success messages
func (r *Recorder) Successes() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.successes...)
}

// Errors returns a copy of the recorded error messages
func (r *Recorder) Errors() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.errors...)
}
