package rollcall

import (
	"os"
	"time"

	"github.com/rs/zerolog"
)

// StoreConfig holds the behaviour shared by the meeting and attendance stores
type StoreConfig struct {
	// DefaultAgenda is used when a meeting is synthesised for an empty store
	DefaultAgenda string

	// AutoCreate lets GetCurrentMeeting create a meeting for today when none exists.
	// When false, an empty store yields a precondition error instead.
	AutoCreate bool
}

// DefaultStoreConfig provides the defaults
var DefaultStoreConfig = StoreConfig{
	DefaultAgenda: "Devign Club Meeting",
	AutoCreate:    true,
}

// Clock returns the current instant
type Clock func() time.Time

// IDGenerator allocates a fresh, never reused identifier
type IDGenerator func() (string, error)

// Option configures a store
type Option func(*options)

type options struct {
	logger zerolog.Logger
	config StoreConfig
	clock  Clock
	newID  IDGenerator
}

// WithLogger sets a custom logger
func WithLogger(logger zerolog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithConfig sets a custom store configuration
func WithConfig(config StoreConfig) Option {
	return func(o *options) {
		o.config = config
	}
}

// WithClock overrides the time source
func WithClock(clock Clock) Option {
	return func(o *options) {
		o.clock = clock
	}
}

// WithIDGenerator overrides id allocation
func WithIDGenerator(gen IDGenerator) Option {
	return func(o *options) {
		o.newID = gen
	}
}

// If no logger is provided, a console logger at Info level is used.
func newOptions(opts []Option) options {
	o := options{
		logger: zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).
			With().
			Timestamp().
			Logger().
			Level(zerolog.InfoLevel),
		config: DefaultStoreConfig,
		clock:  time.Now,
		newID:  NewID,
	}

	for _, opt := range opts {
		opt(&o)
	}

	if o.config.DefaultAgenda == "" {
		o.config.DefaultAgenda = DefaultStoreConfig.DefaultAgenda
	}

	return o
}
