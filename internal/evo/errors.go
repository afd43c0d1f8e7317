package evo

import (
	"errors"
	"fmt"
)

// ErrZeroFitness means no genome scored, leaving roulette selection without
// mass to sample from.
var ErrZeroFitness = errors.New("total fitness is 0, unable to do roulette selection")

// GenerationError reports the generation index at which a step failed.
type GenerationError struct {
	Generation int
	Err        error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generation %d: %v", e.Generation, e.Err)
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}
