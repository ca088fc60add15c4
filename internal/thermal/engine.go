package thermal

import "log/slog"

// Engine sizes installations against a Registry, logging every fallback the
// pure Size function had to apply.
type Engine struct {
	registry *Registry
	limits   Limits
	logger   *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithLimits overrides DefaultLimits.
func WithLimits(l Limits) Option {
	return func(e *Engine) { e.limits = l }
}

// NewEngine creates an Engine over the given registry.
func NewEngine(registry *Registry, logger *slog.Logger, opts ...Option) *Engine {
	e := &Engine{
		registry: registry,
		limits:   DefaultLimits,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Registry returns the lookup tables the engine sizes against.
func (e *Engine) Registry() *Registry { return e.registry }

// Size resolves locale to a lookup set and sizes p against it. The resolved
// locale is reported in Result.Locale.
func (e *Engine) Size(locale string, p Params) Result {
	return e.SizeWith(e.registry.Lookup(locale), p)
}

// SizeWith sizes p against an already resolved lookup set.
func (e *Engine) SizeWith(set *LookupSet, p Params) Result {
	res := Size(set, p, e.limits)
	for _, w := range res.Warnings {
		e.logger.Warn("sizing fallback applied", "locale", set.Locale, "warning", w)
	}
	return res
}
