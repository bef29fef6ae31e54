package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	ActionSendMessage = "send_message"
	ActionCreateChat  = "create_chat"
	ActionTyping      = "typing"
	// ActionAPI covers every other HTTP request.
	ActionAPI = "api"
)

// Policy is the token bucket for one action: Burst tokens refilled one every
// Every.
type Policy struct {
	Burst int
	Every time.Duration
}

// DefaultPolicies are the per action limits.
var DefaultPolicies = map[string]Policy{
	// 10 messages per minute
	ActionSendMessage: {Burst: 10, Every: 6 * time.Second},
	// 5 chats per hour
	ActionCreateChat: {Burst: 5, Every: 12 * time.Minute},
	// 30 typing events per minute
	ActionTyping: {Burst: 30, Every: 2 * time.Second},
}

// defaultPolicy allows 20 actions per minute.
var defaultPolicy = Policy{Burst: 20, Every: 3 * time.Second}

type bucket struct {
	limiter  *rate.Limiter
	lastUsed time.Time
}

// RateLimiter keeps one token bucket per identity and action.
type RateLimiter struct {
	buckets  map[string]*bucket
	policies map[string]Policy
	mutex    sync.Mutex
	now      func() time.Time
}

func NewRateLimiter() *RateLimiter {
	return NewRateLimiterWithPolicies(DefaultPolicies)
}

func NewRateLimiterWithPolicies(policies map[string]Policy) *RateLimiter {
	return &RateLimiter{
		buckets:  make(map[string]*bucket),
		policies: policies,
		now:      time.Now,
	}
}

func (rl *RateLimiter) policy(action string) Policy {
	if p, ok := rl.policies[action]; ok {
		return p
	}
	return defaultPolicy
}

// Allow consumes a token for the identity's action. When none is available
// it reports how long until the next one.
func (rl *RateLimiter) Allow(identity, action string) (bool, time.Duration) {
	key := identity + ":" + action
	now := rl.now()

	rl.mutex.Lock()
	b, exists := rl.buckets[key]
	if !exists {
		p := rl.policy(action)
		b = &bucket{limiter: rate.NewLimiter(rate.Every(p.Every), p.Burst)}
		rl.buckets[key] = b
	}
	b.lastUsed = now
	rl.mutex.Unlock()

	r := b.limiter.ReserveN(now, 1)
	if !r.OK() {
		return false, rl.policy(action).Every
	}
	if delay := r.DelayFrom(now); delay > 0 {
		r.CancelAt(now)
		return false, delay
	}
	return true, 0
}

// GetStatus returns the tokens left for the identity's action.
func (rl *RateLimiter) GetStatus(identity, action string) (tokens int, maxTokens int) {
	key := identity + ":" + action

	rl.mutex.Lock()
	b, exists := rl.buckets[key]
	rl.mutex.Unlock()

	maxTokens = rl.policy(action).Burst
	if !exists {
		return maxTokens, maxTokens
	}
	return int(b.limiter.TokensAt(rl.now())), maxTokens
}

// Cleanup removes buckets not used in the last hour.
func (rl *RateLimiter) Cleanup() {
	rl.mutex.Lock()
	defer rl.mutex.Unlock()

	now := rl.now()
	for key, b := range rl.buckets {
		if now.Sub(b.lastUsed) > time.Hour {
			delete(rl.buckets, key)
		}
	}
}

// StartCleanupRoutine runs Cleanup every 30 minutes until ctx ends.
func (rl *RateLimiter) StartCleanupRoutine(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(30 * time.Minute)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				rl.Cleanup()
			}
		}
	}()
}
