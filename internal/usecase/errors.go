package usecase

import "errors"

var errInvalidBatchSize = errors.New("batch size must be positive")
