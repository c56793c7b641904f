package metadata

import (
	"fmt"
	"log/slog"
	"sync"
	"time"
)

type circuitState int

const (
	stateClosed circuitState = iota
	stateOpen
	stateHalfOpen
)

func (s circuitState) String() string {
	switch s {
	case stateOpen:
		return "open"
	case stateHalfOpen:
		return "half-open"
	default:
		return "closed"
	}
}

// providerCircuit is the failure record of one provider host
type providerCircuit struct {
	lastFailure time.Time
	lastLog     time.Time
	failures    int
	state       circuitState
}

// circuitBreaker stops fetching from a provider host after consecutive
// failures and lets a single probe through once openDuration has passed.
type circuitBreaker struct {
	circuits         map[string]*providerCircuit
	logger           *slog.Logger
	failureThreshold int
	openDuration     time.Duration
	mu               sync.Mutex
}

func newCircuitBreaker(logger *slog.Logger) *circuitBreaker {
	if logger == nil {
		logger = slog.Default()
	}
	return &circuitBreaker{
		circuits:         make(map[string]*providerCircuit),
		logger:           logger,
		failureThreshold: 3,
		openDuration:     5 * time.Minute,
	}
}

// canAttempt reports whether provider may be called. An open circuit whose
// open period has elapsed moves to half-open and admits the caller.
func (cb *circuitBreaker) canAttempt(provider string) (bool, error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	c, ok := cb.circuits[provider]
	if !ok || c.state != stateOpen {
		return true, nil
	}

	nextRetry := c.lastFailure.Add(cb.openDuration)
	if time.Now().After(nextRetry) {
		c.state = stateHalfOpen
		cb.logTransition(provider, c)
		return true, nil
	}

	return false, fmt.Errorf("%w: provider %q (failures: %d, next retry: %s)",
		ErrCircuitOpen, provider, c.failures, nextRetry.Format("15:04:05"))
}

func (cb *circuitBreaker) recordSuccess(provider string) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	c, ok := cb.circuits[provider]
	if !ok {
		return
	}
	recovered := c.state != stateClosed
	delete(cb.circuits, provider)

	if recovered {
		cb.logger.Info("[METADATA-CIRCUIT] provider recovered", "provider", provider)
	}
}

func (cb *circuitBreaker) recordFailure(provider string, err error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	c, ok := cb.circuits[provider]
	if !ok {
		c = &providerCircuit{}
		cb.circuits[provider] = c
	}
	c.failures++
	c.lastFailure = time.Now()

	if c.failures < cb.failureThreshold {
		cb.logger.Warn("[METADATA-CIRCUIT] provider failure",
			"provider", provider,
			"failures", c.failures,
			"threshold", cb.failureThreshold,
			"error", err,
		)
		return
	}

	if c.state != stateOpen {
		c.state = stateOpen
		cb.logger.Warn("[METADATA-CIRCUIT] opening circuit",
			"provider", provider,
			"failures", c.failures,
			"error", err,
		)
		c.lastLog = time.Now()
	}
}

// state returns the current state of provider's circuit
func (cb *circuitBreaker) state(provider string) circuitState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	if c, ok := cb.circuits[provider]; ok {
		return c.state
	}
	return stateClosed
}

// logTransition is debounced to once a minute per provider. Caller holds mu.
func (cb *circuitBreaker) logTransition(provider string, c *providerCircuit) {
	if !c.lastLog.IsZero() && time.Since(c.lastLog) < time.Minute {
		return
	}
	cb.logger.Info("[METADATA-CIRCUIT] circuit state changed", "provider", provider, "state", c.state.String())
	c.lastLog = time.Now()
}
