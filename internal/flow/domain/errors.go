// Package domain holds flow validation and the suspicion heuristic of the
// mirror traffic recorder.
package domain

import (
	apperrors "github.com/allisson/trustlog/internal/errors"
)

// MaxBatchSize is the largest number of flows accepted in one submission.
const MaxBatchSize = 1000

var (
	ErrEmptyBatch    = apperrors.Wrap(apperrors.ErrInvalidInput, "flow batch is empty")
	ErrBatchTooLarge = apperrors.Wrap(apperrors.ErrInvalidInput, "flow batch exceeds 1000 entries")
	ErrInvalidFlow   = apperrors.Wrap(apperrors.ErrInvalidInput, "invalid flow")
)
