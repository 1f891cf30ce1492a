package numerator

import (
	"context"
	"time"
)

// Generator issues sequential business numbers.
//
// Implementations must join the transaction carried by ctx so that a rolled
// back document does not consume a number.
type Generator interface {
	// Next returns the next formatted number for cfg.
	Next(ctx context.Context, cfg Config, period time.Time) (string, error)

	// SetCurrent moves the counter so that the next number is value+1.
	SetCurrent(ctx context.Context, cfg Config, period time.Time, value int64) error
}
