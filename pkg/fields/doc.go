// Package fields holds what the native and structured processors share:
// their configuration and the in-instance memo tables.
//
// The processors themselves live in the native and structured subpackages.
// Each processor owns its memo tables; they are cleared only when the
// registry drops the instance and builds a new one.
package fields
