package subscription

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"

	"portfoliochat/internal/domain/entity"
	"portfoliochat/internal/domain/repository"
	"portfoliochat/pkg/logger"
)

// ErrClosed is reported when a connection ends without an error while its
// context is still alive. It is retried like any other failure.
var ErrClosed = errors.New("subscription closed by remote")

// ConnectFunc establishes one connection and blocks while it is healthy. It
// calls ready once the first value has been delivered.
type ConnectFunc func(ctx context.Context, ready func()) error

type options struct {
	initial time.Duration
	max     time.Duration
}

type Option func(*options)

func WithInitialInterval(d time.Duration) Option {
	return func(o *options) { o.initial = d }
}

func WithMaxInterval(d time.Duration) Option {
	return func(o *options) { o.max = d }
}

// Run keeps connect alive until ctx ends, reconnecting with exponential
// backoff. onState sees connecting before every attempt, live after ready and
// disconnected after every failure.
func Run(ctx context.Context, name string, connect ConnectFunc, onState repository.StateListener, opts ...Option) {
	o := options{initial: 500 * time.Millisecond, max: 30 * time.Second}
	for _, opt := range opts {
		opt(&o)
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = o.initial
	b.MaxInterval = o.max
	b.MaxElapsedTime = 0
	b.Reset()

	report := func(s entity.ConnectionState) {
		if onState != nil {
			onState(s)
		}
	}

	op := func() error {
		if ctx.Err() != nil {
			return backoff.Permanent(ctx.Err())
		}
		report(entity.ConnectionConnecting)

		var once sync.Once
		err := connect(ctx, func() {
			once.Do(func() {
				b.Reset()
				report(entity.ConnectionLive)
			})
		})
		if ctx.Err() != nil {
			return backoff.Permanent(ctx.Err())
		}
		if err == nil {
			err = ErrClosed
		}
		return err
	}

	notify := func(err error, wait time.Duration) {
		report(entity.ConnectionDisconnected)
		logger.Warn("subscription %s disconnected: %v (retrying in %v)", name, err, wait)
	}

	err := backoff.RetryNotify(op, backoff.WithContext(b, ctx), notify)
	if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
		logger.Error("subscription %s stopped: %v", name, err)
	}
}
