package usecase

import (
	"context"
	"strings"
	"sync"
	"time"

	"portfoliochat/pkg/logger"
)

const DefaultTypingTimeout = 3 * time.Second

// TypingSender writes the local party's typing flag.
type TypingSender func(ctx context.Context, typing bool) error

// TypingDebouncer turns keystrokes into typing flag writes: true on the first
// non-empty input, false once the input is cleared or has been idle for the
// timeout.
type TypingDebouncer struct {
	ctx     context.Context
	send    TypingSender
	timeout time.Duration

	mu     sync.Mutex
	sendMu sync.Mutex
	typing bool
	timer  *time.Timer
	gen    uint64
}

func NewTypingDebouncer(ctx context.Context, send TypingSender, timeout time.Duration) *TypingDebouncer {
	if timeout <= 0 {
		timeout = DefaultTypingTimeout
	}
	return &TypingDebouncer{
		ctx:     ctx,
		send:    send,
		timeout: timeout,
	}
}

// Input reports the current content of the compose box.
func (d *TypingDebouncer) Input(text string) {
	d.mu.Lock()

	if strings.TrimSpace(text) == "" {
		d.stopTimer()
		if !d.typing {
			d.mu.Unlock()
			return
		}
		d.typing = false
		d.publish(false)
		return
	}

	d.stopTimer()
	d.gen++
	gen := d.gen
	d.timer = time.AfterFunc(d.timeout, func() { d.expire(gen) })

	if d.typing {
		d.mu.Unlock()
		return
	}
	d.typing = true
	d.publish(true)
}

// Sent clears local state after a message went out. The send itself resets
// the stored flag.
func (d *TypingDebouncer) Sent() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.stopTimer()
	d.typing = false
}

// Stop cancels the idle timer and withdraws a pending typing flag.
func (d *TypingDebouncer) Stop() {
	d.mu.Lock()

	d.stopTimer()
	if !d.typing {
		d.mu.Unlock()
		return
	}
	d.typing = false
	d.publish(false)
}

func (d *TypingDebouncer) Typing() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.typing
}

func (d *TypingDebouncer) expire(gen uint64) {
	d.mu.Lock()

	if gen != d.gen || !d.typing {
		d.mu.Unlock()
		return
	}
	d.timer = nil
	d.typing = false
	d.publish(false)
}

// publish sends the flag in transition order. Callers hold d.mu, which is
// released here.
func (d *TypingDebouncer) publish(typing bool) {
	d.sendMu.Lock()
	d.mu.Unlock()
	defer d.sendMu.Unlock()

	if err := d.send(d.ctx, typing); err != nil {
		logger.Warn("Failed to update typing flag to %v: %v", typing, err)
	}
}

func (d *TypingDebouncer) stopTimer() {
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.gen++
}
