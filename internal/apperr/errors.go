package apperr

import "errors"

var (
	ErrNotFound     = errors.New("not found")
	ErrOutsideVault = errors.New("outside vault root")
	ErrConfig       = errors.New("invalid config")
)
