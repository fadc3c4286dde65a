package reimbursedoc

import (
	"github.com/rs/zerolog"

	"github.com/finportal/reimbursedoc/layout"
)

// Option is a functional option for configuring a Pipeline via New.
type Option func(*config)

type config struct {
	log    zerolog.Logger
	tables layout.TableRenderer
}

func defaultConfig() config {
	return config{
		log:    zerolog.Nop(),
		tables: layout.Select(true),
	}
}

// WithLogger sets the logger used for degradation warnings.
// By default nothing is logged.
func WithLogger(log zerolog.Logger) Option {
	return func(c *config) {
		c.log = log
	}
}

// WithTableRenderer sets the table renderer used for the form's sections.
func WithTableRenderer(t layout.TableRenderer) Option {
	return func(c *config) {
		if t != nil {
			c.tables = t
		}
	}
}

// WithNativeTableSupport selects the native table path (true) or the
// hand-written fallback renderer (false). The flag is decided here by the
// composition root; nothing probes for table support at call time.
func WithNativeTableSupport(native bool) Option {
	return func(c *config) {
		c.tables = layout.Select(native)
	}
}
