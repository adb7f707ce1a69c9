package eventbus

import "github.com/rs/zerolog"

// Option configures a bus at construction time.
type Option func(*options)

type options struct {
	log zerolog.Logger
}

func newOptions(opts []Option) options {
	o := options{log: zerolog.Nop()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithLogger sets the base logger. The bus adds its own component context.
func WithLogger(baseLogger *zerolog.Logger) Option {
	return func(o *options) {
		if baseLogger != nil {
			o.log = *baseLogger
		}
	}
}
