package models

import (
	"errors"
	"fmt"
)

// Kinds of configuration problems reported by ConfigurationError.
const (
	KindBand       = "band"
	KindBinding    = "binding"
	KindFormula    = "formula"
	KindRule       = "rule"
	KindStage      = "stage"
	KindScale      = "scale"
	KindDefinition = "definition"
)

// ConfigurationError is returned when an algorithm instance cannot be built:
// malformed rule sets, degenerate scaling domains, unknown bands or indices.
// It is only ever produced at setup, never while evaluating pixels.
type ConfigurationError struct {
	// Algorithm is filled in by the algorithm compiler when known
	Algorithm string

	// Kind is one of the Kind* constants
	Kind string

	// Name is the offending rule, formula, band or stage
	Name string

	Err error
}

func (e *ConfigurationError) Error() string {
	msg := "configuration error"
	if e.Algorithm != "" {
		msg += fmt.Sprintf(" in algorithm %q", e.Algorithm)
	}
	if e.Name != "" {
		msg += fmt.Sprintf(" (%s %q)", e.Kind, e.Name)
	} else if e.Kind != "" {
		msg += fmt.Sprintf(" (%s)", e.Kind)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

// ConfigErrorf builds a ConfigurationError with a formatted cause.
func ConfigErrorf(kind, name, format string, args ...any) *ConfigurationError {
	return &ConfigurationError{Kind: kind, Name: name, Err: fmt.Errorf(format, args...)}
}

// WithAlgorithm returns err as a ConfigurationError naming algorithm. When
// err's chain already holds one, its kind and name are carried over onto a
// new outer error; the error found in the chain is never modified.
func WithAlgorithm(err error, algorithm string) error {
	if err == nil {
		return nil
	}
	var ce *ConfigurationError
	if !errors.As(err, &ce) {
		return &ConfigurationError{Algorithm: algorithm, Kind: KindDefinition, Err: err}
	}
	if ce.Algorithm != "" {
		return err
	}
	if ce == err {
		// Unwrapped: copy instead of nesting the same kind and name twice
		return &ConfigurationError{Algorithm: algorithm, Kind: ce.Kind, Name: ce.Name, Err: ce.Err}
	}
	return &ConfigurationError{Algorithm: algorithm, Kind: ce.Kind, Name: ce.Name, Err: err}
}

// IsConfigurationError reports whether err carries a ConfigurationError.
func IsConfigurationError(err error) bool {
	var ce *ConfigurationError
	return errors.As(err, &ce)
}
