package config

import (
	"fmt"
	"strings"
)

// FieldError is one invalid setting.
type FieldError struct {
	Key string
	Msg string
}

func (e FieldError) String() string { return e.Key + ": " + e.Msg }

// ConfigError lists every invalid setting found by Load. It is fatal:
// callers exit before any loop starts.
type ConfigError struct {
	Fields []FieldError
}

func (e *ConfigError) Error() string {
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = f.String()
	}
	return fmt.Sprintf("invalid configuration: %s", strings.Join(parts, "; "))
}

func (e *ConfigError) add(key, format string, args ...any) {
	e.Fields = append(e.Fields, FieldError{Key: key, Msg: fmt.Sprintf(format, args...)})
}

// Has reports whether key was rejected.
func (e *ConfigError) Has(key string) bool {
	for _, f := range e.Fields {
		if f.Key == key {
			return true
		}
	}
	return false
}

func (e *ConfigError) orNil() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}
