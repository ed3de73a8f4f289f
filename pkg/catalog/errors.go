package catalog

import "errors"

var (
	ErrNotFound  = errors.New("cae: not found")
	ErrDuplicate = errors.New("cae: duplicate")
)
