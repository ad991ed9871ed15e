package ai

import "github.com/stratumlab/sowforge/internal/pkg/apperr"

var ErrUnavailable = apperr.ErrUnavailable
