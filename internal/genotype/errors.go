package genotype

import "errors"

var (
	ErrInvalidMemory  = errors.New("invalid memory")
	ErrInvalidTable   = errors.New("invalid strategy table")
	ErrLengthMismatch = errors.New("genome length mismatch")
	ErrInvalidRate    = errors.New("invalid rate")
)
