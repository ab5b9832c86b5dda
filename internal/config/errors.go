package config

import "errors"

var (
	// ErrInvalidConfig marks a loaded value outside its allowed range.
	ErrInvalidConfig = errors.New("invalid config")
	// ErrLoadConfig marks a file, env or decoding failure.
	ErrLoadConfig = errors.New("load config failed")
)
