package config

import "errors"

var (
	// ErrReadConfig is returned when the config file cannot be read or decoded.
	ErrReadConfig = errors.New("config: failed to read config file")

	// ErrParseEnv is returned when environment overrides cannot be applied.
	ErrParseEnv = errors.New("config: failed to parse environment variables")

	// ErrInvalidConfig is returned when a loaded config fails validation.
	ErrInvalidConfig = errors.New("config: invalid config")
)
