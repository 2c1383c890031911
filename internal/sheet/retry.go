package sheet

import (
	"fmt"
	"log"
	"math/rand"
	"strings"
	"time"
)

// Retryer re-runs remote calls that fail with a transient error, backing
// off exponentially with jitter. Non-transient errors propagate on the
// first attempt.
type Retryer struct {
	Attempts  int
	BaseDelay time.Duration
	// Sleep is swappable for tests; nil means time.Sleep.
	Sleep func(time.Duration)
}

// NewRetryer returns a Retryer with the default 5 attempts and 400ms base.
func NewRetryer() *Retryer {
	return &Retryer{Attempts: 5, BaseDelay: 400 * time.Millisecond}
}

// NewRetryerWith returns a Retryer with the given attempt count and base
// delay. Non-positive values fall back to the defaults.
func NewRetryerWith(attempts int, base time.Duration) *Retryer {
	r := NewRetryer()
	if attempts > 0 {
		r.Attempts = attempts
	}
	if base > 0 {
		r.BaseDelay = base
	}
	return r
}

var transientFragments = []string{
	"server error",
	"internal error",
	"invoked too many times",
	"rate limit",
	"try again",
}

// IsTransient classifies an error message against the known transient
// failure fragments.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, fragment := range transientFragments {
		if strings.Contains(msg, fragment) {
			return true
		}
	}
	return false
}

// WithRetry invokes fn, retrying transient failures until the attempt
// budget runs out. The last error is returned.
func (r *Retryer) WithRetry(label string, fn func() error) error {
	attempts := r.Attempts
	if attempts <= 0 {
		attempts = 5
	}
	sleep := r.Sleep
	if sleep == nil {
		sleep = time.Sleep
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		lastErr = fn()
		if lastErr == nil {
			return nil
		}
		if !IsTransient(lastErr) {
			break
		}
		if attempt == attempts-1 {
			break
		}
		backoff := r.BaseDelay*(1<<attempt) + time.Duration(rand.Intn(200))*time.Millisecond
		log.Printf("[retry] %s: attempt %d failed: %v (sleeping %s)", label, attempt+1, lastErr, backoff)
		sleep(backoff)
	}
	if lastErr != nil {
		return fmt.Errorf("%s: %w", label, lastErr)
	}
	return nil
}

// RetryValue is WithRetry for calls that produce a value.
func RetryValue[T any](r *Retryer, label string, fn func() (T, error)) (T, error) {
	var out T
	err := r.WithRetry(label, func() error {
		var innerErr error
		out, innerErr = fn()
		return innerErr
	})
	return out, err
}
