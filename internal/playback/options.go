package playback

import (
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/time/rate"
)

// Options configures a queued engine.
type Options struct {
	// Logger receives worker diagnostics. Defaults to log.Default().
	Logger *log.Logger

	// QueueCapacity is the initial capacity of the request buffer.
	QueueCapacity int

	// FailureLogInterval and FailureLogBurst bound how often failed
	// requests are logged. Every failure is still counted and reported.
	FailureLogInterval time.Duration
	FailureLogBurst    int

	// OnFailure is called from the worker goroutine for every request
	// that could not be played, including trigger failures and backend
	// panics. It must not block for long.
	OnFailure func(err *PlayError)
}

// Option mutates Options.
type Option func(*Options)

// DefaultOptions returns the options used when none are given.
func DefaultOptions() Options {
	return Options{
		QueueCapacity:      64,
		FailureLogInterval: time.Second,
		FailureLogBurst:    5,
	}
}

// WithLogger sets the engine logger.
func WithLogger(l *log.Logger) Option {
	return func(o *Options) { o.Logger = l }
}

// WithQueueCapacity sets the initial request buffer capacity.
func WithQueueCapacity(n int) Option {
	return func(o *Options) { o.QueueCapacity = n }
}

// WithFailureLogLimit limits failure logging to burst entries per interval.
func WithFailureLogLimit(interval time.Duration, burst int) Option {
	return func(o *Options) {
		o.FailureLogInterval = interval
		o.FailureLogBurst = burst
	}
}

// WithFailureHandler registers fn for failed requests.
func WithFailureHandler(fn func(err *PlayError)) Option {
	return func(o *Options) { o.OnFailure = fn }
}

func (o Options) limiter() *rate.Limiter {
	if o.FailureLogInterval <= 0 {
		return rate.NewLimiter(rate.Inf, 0)
	}
	burst := o.FailureLogBurst
	if burst < 1 {
		burst = 1
	}
	return rate.NewLimiter(rate.Every(o.FailureLogInterval), burst)
}
