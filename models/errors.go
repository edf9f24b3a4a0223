package models

import "errors"

var (
	ErrInvalidConfig     = errors.New("invalid configuration")
	ErrPublish           = errors.New("publish failed")
	ErrUnsupportedScheme = errors.New("unsupported location scheme")
	ErrNotFound          = errors.New("not found")
)
