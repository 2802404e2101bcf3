package heatmiser

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

// Arbiter owns exclusive access to the UH1 transport.
//
// Every bus operation executes under the arbiter's lock, one at a
// time. Transient failures (timeouts, link errors) are retried on a
// fixed budget with a pause between attempts; non-transient failures
// propagate immediately. When the retry budget is exhausted the
// arbiter reconnects the transport and makes one final attempt.
//
// The lock is released between attempts and re-acquired for each one,
// and the reconnect acquires it independently — the arbiter never
// nests acquisitions, so a reconnect can never deadlock against an
// in-flight operation.
//
// Thread Safety: Execute may be called from multiple goroutines; the
// bridge's single worker is the usual caller.
type Arbiter struct {
	transport Transport

	maxRetries     int
	retryDelay     time.Duration
	reconnectDelay time.Duration

	mu sync.Mutex // exclusive bus ownership

	// Stats counters (atomic).
	retries    atomic.Uint64
	reconnects atomic.Uint64

	logger   Logger
	loggerMu sync.RWMutex
}

// ArbiterOptions holds configuration for creating an Arbiter.
type ArbiterOptions struct {
	// Transport is the UH1 connection to arbitrate.
	Transport Transport

	// MaxRetries is the number of retry attempts after the first
	// failure (total attempts before reconnect = MaxRetries + 1).
	MaxRetries int

	// RetryDelay is the pause between attempts.
	RetryDelay time.Duration

	// ReconnectDelay is the settle time between closing a failed link
	// and reopening it.
	ReconnectDelay time.Duration

	// Logger is optional.
	Logger Logger
}

// NewArbiter creates an arbiter for the given transport.
func NewArbiter(opts ArbiterOptions) *Arbiter {
	return &Arbiter{
		transport:      opts.Transport,
		maxRetries:     opts.MaxRetries,
		retryDelay:     opts.RetryDelay,
		reconnectDelay: opts.ReconnectDelay,
		logger:         opts.Logger,
	}
}

// Execute runs op under the transport lock with retry and reconnect.
//
// Behaviour:
//   - Success on any attempt returns the result immediately.
//   - A non-transient error propagates immediately, unwrapped.
//   - Transient errors are retried up to MaxRetries times with
//     RetryDelay between attempts (the lock is not held while waiting).
//   - After the budget is exhausted: reconnect, then one final attempt.
//     If that fails too, the error wraps ErrTransportExhausted.
//
// Returns:
//   - any: Operation result on success
//   - error: Non-transient error, or ErrTransportExhausted
func (a *Arbiter) Execute(op Operation) (any, error) {
	var lastErr error

	for attempt := 0; attempt <= a.maxRetries; attempt++ {
		result, err := a.locked(op)
		if err == nil {
			return result, nil
		}
		if !IsTransient(err) {
			return nil, err
		}

		lastErr = err
		a.retries.Add(1)
		a.logWarn("transport attempt failed",
			"attempt", attempt+1,
			"max_attempts", a.maxRetries+1,
			"error", err,
		)

		if attempt < a.maxRetries {
			time.Sleep(a.retryDelay)
		}
	}

	// Budget exhausted: recover the link, then one final attempt.
	a.reconnect()

	result, err := a.locked(op)
	if err == nil {
		return result, nil
	}
	if !IsTransient(err) {
		return nil, err
	}
	return nil, fmt.Errorf("%w: last attempt after reconnect: %w (first failure: %w)",
		ErrTransportExhausted, err, lastErr)
}

// locked runs op while holding the transport lock.
func (a *Arbiter) locked(op Operation) (any, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return op()
}

// reconnect cycles the transport under its own lock acquisition.
//
// Close is best effort — the link is presumed dead. The settle delay
// runs while holding the lock so no operation can race onto a
// half-closed port.
func (a *Arbiter) reconnect() {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.reconnects.Add(1)

	a.transport.Close() //nolint:errcheck // Link presumed dead

	time.Sleep(a.reconnectDelay)

	if err := a.transport.Reopen(); err != nil {
		a.logError("transport reopen failed", err)
		return
	}
	a.logInfo("transport reconnected")
}

// Retries returns the cumulative retry count.
func (a *Arbiter) Retries() uint64 {
	return a.retries.Load()
}

// Reconnects returns the cumulative reconnect count.
func (a *Arbiter) Reconnects() uint64 {
	return a.reconnects.Load()
}

// SetLogger sets the arbiter's logger.
func (a *Arbiter) SetLogger(logger Logger) {
	a.loggerMu.Lock()
	a.logger = logger
	a.loggerMu.Unlock()
}

func (a *Arbiter) getLogger() Logger {
	a.loggerMu.RLock()
	defer a.loggerMu.RUnlock()
	return a.logger
}

func (a *Arbiter) logInfo(msg string, args ...any) {
	if l := a.getLogger(); l != nil {
		l.Info(msg, args...)
	}
}

func (a *Arbiter) logWarn(msg string, args ...any) {
	if l := a.getLogger(); l != nil {
		l.Warn(msg, args...)
	}
}

func (a *Arbiter) logError(msg string, err error) {
	if l := a.getLogger(); l != nil {
		l.Error(msg, "error", err)
	}
}
