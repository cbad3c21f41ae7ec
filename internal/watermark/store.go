package watermark

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff"

	"cvereporter/internal/db"
	cverrors "cvereporter/internal/errors"
)

// Store loads and saves the watermark through a key-value backend.
type Store struct {
	backend       db.Store
	logger        *slog.Logger
	now           func() time.Time
	retries       uint64
	retryInterval time.Duration
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used to report fallbacks and retries.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// WithClock overrides the clock used for default marks.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithRetry sets how often a failed save is retried and the first wait between attempts.
func WithRetry(retries int, interval time.Duration) Option {
	return func(s *Store) {
		if retries < 0 {
			retries = 0
		}
		s.retries = uint64(retries)
		s.retryInterval = interval
	}
}

// NewStore wraps backend.
func NewStore(backend db.Store, opts ...Option) *Store {
	s := &Store{
		backend:       backend,
		logger:        slog.Default(),
		now:           time.Now,
		retries:       3,
		retryInterval: 500 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load returns the persisted watermark. It never fails: a missing or unreadable
// value falls back to the default for that field and the cause is logged.
func (s *Store) Load(ctx context.Context) Watermark {
	def := Default(s.now())
	w := Watermark{LastNew: def, LastModified: def}

	values, err := s.backend.GetValues(ctx, KeyLastNew, KeyLastModified)
	if err != nil {
		s.logger.Warn("Failed to read watermark, using default", "error", err, "default", def.Format(Layout))
		return w
	}

	w.LastNew = s.field(values, KeyLastNew, def)
	w.LastModified = s.field(values, KeyLastModified, def)
	return w
}

func (s *Store) field(values map[string]string, key string, def time.Time) time.Time {
	raw, ok := values[key]
	if !ok {
		s.logger.Info("No stored watermark, using default", "key", key, "default", def.Format(Layout))
		return def
	}
	t, err := parse(raw)
	if err != nil {
		s.logger.Warn("Stored watermark is malformed, using default", "key", key, "value", raw, "error", err)
		return def
	}
	return t
}

// Save writes both timestamps in one atomic backend write, retrying failures
// with exponential backoff.
func (s *Store) Save(ctx context.Context, w Watermark) error {
	values := w.Values()

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = s.retryInterval
	bo.MaxElapsedTime = 0

	var policy backoff.BackOff = &backoff.StopBackOff{}
	if s.retries > 0 {
		policy = backoff.WithMaxRetries(bo, s.retries)
	}

	op := func() error {
		return s.backend.SetValues(ctx, values)
	}
	notify := func(err error, wait time.Duration) {
		s.logger.Warn("Failed to save watermark, retrying", "wait", wait, "error", err)
	}

	if err := backoff.RetryNotify(op, backoff.WithContext(policy, ctx), notify); err != nil {
		return cverrors.NewPersistenceError("save", fmt.Errorf("%s=%s %s=%s: %w",
			KeyLastNew, values[KeyLastNew], KeyLastModified, values[KeyLastModified], err))
	}
	return nil
}
