package model

import (
	"errors"
	"fmt"
)

// ProviderError is a collaborator failure that survived retry. The
// pipeline surfaces it only after the bounded backoff schedule is
// exhausted.
type ProviderError struct {
	Provider string // Provider name (e.g. "openai")
	Op       string // Operation that failed ("generate", "search")
	Attempts int    // How many attempts were made
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider %s: %s failed after %d attempts: %v", e.Provider, e.Op, e.Attempts, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// SchemaError indicates malformed research, citation, or checkpoint
// data. It aborts the affected section immediately and is never retried.
type SchemaError struct {
	Stage  string // Pipeline stage that detected the problem
	Detail string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("schema error in %s: %s", e.Stage, e.Detail)
}

// ConfigError indicates an invalid section definition, outline, or
// configuration value. It fails the run at load time, before any
// collaborator call is made.
type ConfigError struct {
	Field  string
	Detail string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config error: %s: %s", e.Field, e.Detail)
}

// IsSchemaError reports whether err is (or wraps) a SchemaError.
func IsSchemaError(err error) bool {
	var se *SchemaError
	return errors.As(err, &se)
}

// IsConfigError reports whether err is (or wraps) a ConfigError.
func IsConfigError(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}

// IsProviderError reports whether err is (or wraps) a ProviderError.
func IsProviderError(err error) bool {
	var pe *ProviderError
	return errors.As(err, &pe)
}
