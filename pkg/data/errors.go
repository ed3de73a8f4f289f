package data

import "errors"

var (
	ErrDuplicatePartition = errors.New("cae: duplicate partition")
	ErrDuplicateShard     = errors.New("cae: duplicate shard")
	ErrOutOfRange         = errors.New("cae: row out of range")
	ErrMalformedVector    = errors.New("cae: malformed column vector")
)
