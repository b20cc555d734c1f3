package registry

import "go.uber.org/zap"

// Option customises a Registry.
type Option func(*Registry)

// WithLogger sets the logger used for aggregation diagnostics and deprecation
// warnings. A nil logger keeps the no-op default.
func WithLogger(logger *zap.Logger) Option {
	return func(r *Registry) {
		if logger != nil {
			r.logger = logger
		}
	}
}
