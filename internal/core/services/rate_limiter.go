package services

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"tempvoice/internal/core/ports"
	"tempvoice/pkg/config"
)

// StrictPolicy escalates repeat offenders into one shared tight bucket.
type StrictPolicy struct {
	Threshold int
	Max       int
	Window    time.Duration
}

type fixedWindow struct {
	start time.Time
	count int
}

type rateLimiter struct {
	ruleFor func(action string) config.RateRule
	strict  StrictPolicy
	logger  *zap.Logger

	mu         sync.Mutex
	windows    map[string]*fixedWindow // subject:action
	strictWins map[string]*fixedWindow // subject
	violations map[string]*fixedWindow // subject
}

// NewRateLimiter builds a fixed-window limiter. ruleFor resolves the per
// operation rule; subjects that keep hitting limits get collapsed into the
// strict bucket until its window passes.
func NewRateLimiter(ruleFor func(action string) config.RateRule, strict StrictPolicy, logger *zap.Logger) ports.RateLimiter {
	return &rateLimiter{
		ruleFor:    ruleFor,
		strict:     strict,
		logger:     logger,
		windows:    make(map[string]*fixedWindow),
		strictWins: make(map[string]*fixedWindow),
		violations: make(map[string]*fixedWindow),
	}
}

func (rl *rateLimiter) Allow(subject, action string) ports.RateResult {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()

	if rl.isEscalated(subject, now) {
		res := rl.consume(rl.strictWins, subject, rl.strict.Max, rl.strict.Window, now)
		if !res.Allowed {
			rl.recordViolation(subject, now)
		}
		return res
	}

	rule := rl.ruleFor(action)
	res := rl.consume(rl.windows, subject+":"+action, rule.Max, rule.Window, now)
	if !res.Allowed {
		rl.recordViolation(subject, now)
		if rl.isEscalated(subject, now) && rl.logger != nil {
			rl.logger.Warn("rate limit escalated to strict mode",
				zap.String("subject", subject),
				zap.String("action", action),
			)
		}
	}
	return res
}

// consume takes one slot from the keyed window, rolling it over when elapsed.
func (rl *rateLimiter) consume(windows map[string]*fixedWindow, key string, max int, window time.Duration, now time.Time) ports.RateResult {
	w, ok := windows[key]
	if !ok || now.Sub(w.start) >= window {
		w = &fixedWindow{start: now}
		windows[key] = w
	}

	if w.count >= max {
		return ports.RateResult{
			Allowed:   false,
			Remaining: 0,
			RetryIn:   w.start.Add(window).Sub(now),
		}
	}

	w.count++
	return ports.RateResult{
		Allowed:   true,
		Remaining: max - w.count,
		RetryIn:   0,
	}
}

func (rl *rateLimiter) recordViolation(subject string, now time.Time) {
	v, ok := rl.violations[subject]
	if !ok || now.Sub(v.start) >= rl.strict.Window {
		v = &fixedWindow{start: now}
		rl.violations[subject] = v
	}
	v.count++
}

func (rl *rateLimiter) isEscalated(subject string, now time.Time) bool {
	v, ok := rl.violations[subject]
	if !ok || now.Sub(v.start) >= rl.strict.Window {
		return false
	}
	return v.count > rl.strict.Threshold
}

func (rl *rateLimiter) Reset(subject, action string) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	delete(rl.windows, subject+":"+action)
	delete(rl.strictWins, subject)
	delete(rl.violations, subject)
}

func (rl *rateLimiter) GC() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	removed := 0

	for key, w := range rl.windows {
		// conservative: a window is stale once twice its longest possible
		// span has passed
		if now.Sub(w.start) >= 2*rl.strict.Window {
			delete(rl.windows, key)
			removed++
		}
	}
	for key, w := range rl.strictWins {
		if now.Sub(w.start) >= 2*rl.strict.Window {
			delete(rl.strictWins, key)
			removed++
		}
	}
	for key, v := range rl.violations {
		if now.Sub(v.start) >= 2*rl.strict.Window {
			delete(rl.violations, key)
			removed++
		}
	}

	return removed
}
