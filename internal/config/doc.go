// Package config supplies runtime settings from the environment, with
// sensible defaults and sanitation for anything out of range.
package config
