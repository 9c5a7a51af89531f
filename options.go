package jsondelta

import "log/slog"

// Option configures Apply, Diff and their relatives.
type Option func(*options)

type options struct {
	strict      bool
	logger      *slog.Logger
	equivalent  Equivalence
	messages    Messages
	diagnostics func(*PatchError)
	keys        map[Pointer][]string
}

func newOptions(opts []Option) *options {
	o := &options{
		strict:     true,
		equivalent: Equivalent,
		messages:   DefaultMessages,
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	return o
}

// WithStrict selects the error policy. Strict (the default) fails on every
// error; lenient turns missing targets and non-container parents into
// no-ops that are reported as diagnostics.
func WithStrict(strict bool) Option {
	return func(o *options) {
		o.strict = strict
	}
}

// WithLogger sets the logger that receives lenient diagnostics. Defaults to
// slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithEquivalence replaces the structural comparison used by test
// operations, locators and the diff generator.
func WithEquivalence(eq Equivalence) Option {
	return func(o *options) {
		if eq != nil {
			o.equivalent = eq
		}
	}
}

// WithMessages sets the message table used to render errors.
func WithMessages(m Messages) Option {
	return func(o *options) {
		if m != nil {
			o.messages = m
		}
	}
}

// WithDiagnostics registers a callback for operations skipped in lenient
// mode.
func WithDiagnostics(fn func(*PatchError)) Option {
	return func(o *options) {
		o.diagnostics = fn
	}
}

// WithKeySet marks the array at ptr for identity-keyed reconciliation:
// elements are matched across source and target by equality of all the
// named fields instead of by position.
func WithKeySet(ptr Pointer, fields ...string) Option {
	return func(o *options) {
		if o.keys == nil {
			o.keys = make(map[Pointer][]string)
		}
		o.keys[ptr] = append([]string(nil), fields...)
	}
}

// WithKeySets registers several key-sets at once.
func WithKeySets(sets map[Pointer][]string) Option {
	return func(o *options) {
		for ptr, fields := range sets {
			WithKeySet(ptr, fields...)(o)
		}
	}
}
