// Package connect waits for a backing service to answer a ping, retrying
// with capped exponential backoff.
package connect

import (
	"context"
	"fmt"
	"time"

	"github.com/MrSnakeDoc/bookmarker/internal/logger"
)

// Policy defines retry behavior.
type Policy struct {
	Timeout       time.Duration // Total time allowed for connection attempts (ex: 30s)
	RetryInterval time.Duration // Initial wait between retries (ex: 2s, grows exponentially)
	MaxWait       time.Duration // max wait between retries (ex: 10s)
	PingTimeout   time.Duration // timeout for each ping attempt (ex: 2s)
	WarnThreshold int           // warn after this many attempts, error afterwards
}

// Validate ensures all policy values are usable.
func (p Policy) Validate() error {
	if p.Timeout <= 0 {
		return fmt.Errorf("connect timeout must be > 0, got %v", p.Timeout)
	}
	if p.RetryInterval <= 0 {
		return fmt.Errorf("retry interval must be > 0, got %v", p.RetryInterval)
	}
	if p.MaxWait <= 0 {
		return fmt.Errorf("max wait must be > 0, got %v", p.MaxWait)
	}
	if p.PingTimeout <= 0 {
		return fmt.Errorf("ping timeout must be > 0, got %v", p.PingTimeout)
	}
	if p.WarnThreshold < 0 {
		return fmt.Errorf("warn threshold must be >= 0, got %d", p.WarnThreshold)
	}
	return nil
}

// Ping is one connection attempt.
type Ping func(ctx context.Context) error

// Retry calls ping until it succeeds or p.Timeout elapses. service and
// target only label log lines.
func Retry(ctx context.Context, service, target string, p Policy, ping Ping, log logger.Logger) error {
	if err := p.Validate(); err != nil {
		return fmt.Errorf("%s: %w", service, err)
	}

	ctx, cancel := context.WithTimeout(ctx, p.Timeout)
	defer cancel()

	log = log.With(logger.String("service", service), logger.String("addr", target))
	log.Info("connecting", logger.Duration("timeout", p.Timeout))

	start := time.Now()
	attempt := 0
	wait := p.RetryInterval

	for {
		attempt++

		pingCtx, pingCancel := context.WithTimeout(ctx, p.PingTimeout)
		err := ping(pingCtx)
		pingCancel()

		if err == nil {
			if attempt > 1 {
				log.Warn("connected after retry",
					logger.Int("attempts", attempt),
					logger.Duration("elapsed", time.Since(start)))
			} else {
				log.Info("connected")
			}
			return nil
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			log.Error("unavailable - failed to connect after timeout",
				logger.Int("attempts", attempt),
				logger.Duration("timeout", p.Timeout),
				logger.Error(err))
			return fmt.Errorf("%s unavailable at %s after %d attempts (timeout: %v): %w",
				service, target, attempt, p.Timeout, err)

		case <-timer.C:
			logRetry(log, attempt, timeLeft(ctx), wait, p.WarnThreshold, err)
			wait *= 2
			if wait > p.MaxWait {
				wait = p.MaxWait
			}
		}
	}
}

func logRetry(log logger.Logger, attempt int, remaining, nextRetry time.Duration, warnThreshold int, err error) {
	switch {
	case remaining < 10*time.Second:
		log.Error("still down - retrying but timeout approaching",
			logger.Int("attempt", attempt),
			logger.Duration("remaining", remaining),
			logger.Duration("next_retry_in", nextRetry),
			logger.Error(err))
	case attempt <= warnThreshold:
		log.Warn("connection failed, retrying",
			logger.Int("attempt", attempt),
			logger.Duration("next_retry_in", nextRetry),
			logger.Error(err))
	default:
		log.Error("still unavailable - connection attempts failing",
			logger.Int("attempt", attempt),
			logger.Duration("next_retry_in", nextRetry),
			logger.Error(err))
	}
}

// timeLeft returns the remaining time before context deadline.
func timeLeft(ctx context.Context) time.Duration {
	deadline, ok := ctx.Deadline()
	if !ok {
		return 0
	}
	return time.Until(deadline)
}
