package infra

import (
	"math"
	"time"
)

const (
	backoffBase = 1 * time.Second
	backoffMax  = 60 * time.Second
)

// CalculateBackoff returns the delay before the given retry attempt.
func CalculateBackoff(retryCount int) time.Duration {
	// Cap retry count to prevent overflow (2^6 = 64 seconds > max 60s)
	if retryCount > 6 {
		return backoffMax
	}
	delay := backoffBase * time.Duration(math.Pow(2, float64(retryCount)))
	if delay > backoffMax {
		delay = backoffMax
	}
	return delay
}
