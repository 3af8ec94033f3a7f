package ratelimiter

import (
	"errors"
	"math"
	"time"

	"github.com/jellydator/ttlcache/v3"
	"golang.org/x/time/rate"
)

var ErrInvalidConfig = errors.New("invalid rate limiter configuration")

// Config is a token bucket: Burst tokens, refilled at Requests per Interval.
type Config struct {
	Requests int           `env:"REQUESTS" envDefault:"10"`
	Interval time.Duration `env:"INTERVAL" envDefault:"1m"`
	Burst    int           `env:"BURST" envDefault:"5"`
	// Idle buckets are evicted after this long without traffic.
	IdleTTL time.Duration `env:"IDLE_TTL" envDefault:"10m"`
}

func (c Config) validate() error {
	if c.Requests <= 0 || c.Interval <= 0 || c.Burst <= 0 {
		return ErrInvalidConfig
	}
	return nil
}

// Result describes one admission decision.
type Result struct {
	Allowed    bool
	Limit      int
	Remaining  int
	RetryAfter time.Duration
}

// Limiter keeps one bucket per key in memory.
type Limiter struct {
	cfg     Config
	limit   rate.Limit
	buckets *ttlcache.Cache[string, *rate.Limiter]
	now     func() time.Time
}

func New(cfg Config) (*Limiter, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if cfg.IdleTTL <= 0 {
		cfg.IdleTTL = 10 * time.Minute
	}
	l := &Limiter{
		cfg:   cfg,
		limit: rate.Limit(float64(cfg.Requests) / cfg.Interval.Seconds()),
		buckets: ttlcache.New(
			ttlcache.WithTTL[string, *rate.Limiter](cfg.IdleTTL),
		),
		now: time.Now,
	}
	go l.buckets.Start()
	return l, nil
}

// Allow takes one token for key.
func (l *Limiter) Allow(key string) Result {
	now := l.now()
	item, _ := l.buckets.GetOrSet(key, rate.NewLimiter(l.limit, l.cfg.Burst))
	bucket := item.Value()

	res := Result{Limit: l.cfg.Burst}
	r := bucket.ReserveN(now, 1)
	delay := r.DelayFrom(now)
	if delay > 0 {
		r.CancelAt(now)
		res.RetryAfter = delay
	} else {
		res.Allowed = true
	}
	res.Remaining = max(0, int(math.Floor(bucket.TokensAt(now))))
	return res
}

// Reset forgets the bucket for key.
func (l *Limiter) Reset(key string) {
	l.buckets.Delete(key)
}

// Close stops the eviction loop.
func (l *Limiter) Close() {
	l.buckets.Stop()
}
