package core

import (
	"errors"
	"fmt"
)

// Common errors.
var (
	// ErrConfiguration marks a programming or configuration mistake, such as
	// asking the registry for a field type that was never registered.
	ErrConfiguration = errors.New("configuration error")
)

// ConfigurationError reports an unknown field type or storage kind.
type ConfigurationError struct {
	FieldType FieldTypeKey
	Kind      StorageKind
	Reason    string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error: %s (field type %q, storage kind %q)", e.Reason, e.FieldType, e.Kind)
}

// Is makes errors.Is(err, ErrConfiguration) match.
func (e *ConfigurationError) Is(target error) bool {
	return target == ErrConfiguration
}
