// internal/domain/errors.go
package domain

import (
	"errors"
	"fmt"
	"time"
)

// DataSourceError reports an unreachable or malformed backing table. It is
// fatal to a run: callers must not assume partial data is usable.
type DataSourceError struct {
	Table string
	Err   error
}

func (e *DataSourceError) Error() string {
	return fmt.Sprintf("data source %q: %v", e.Table, e.Err)
}

func (e *DataSourceError) Unwrap() error { return e.Err }

// ForecastModelError reports a model fit/predict failure for one item.
// Recovered locally: the item's forecast is treated as zero.
type ForecastModelError struct {
	Item string
	Err  error
}

func (e *ForecastModelError) Error() string {
	return fmt.Sprintf("forecast model for %q: %v", e.Item, e.Err)
}

func (e *ForecastModelError) Unwrap() error { return e.Err }

// PurchaseComputationError reports a failed purchase computation for one item
// (missing stock record, malformed numeric field). Recovered locally: the
// item is skipped and logged.
type PurchaseComputationError struct {
	Item string
	Err  error
}

func (e *PurchaseComputationError) Error() string {
	return fmt.Sprintf("purchase computation for %q: %v", e.Item, e.Err)
}

func (e *PurchaseComputationError) Unwrap() error { return e.Err }

// RateLimitError signals that the backing service throttled a request. It is
// surfaced to the caller so it can retry after backoff; the core does not
// retry silently.
type RateLimitError struct {
	RetryAfter time.Duration
	Err        error
}

func (e *RateLimitError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("rate limited (retry after %s): %v", e.RetryAfter, e.Err)
	}
	return fmt.Sprintf("rate limited: %v", e.Err)
}

func (e *RateLimitError) Unwrap() error { return e.Err }

// IsRateLimited reports whether err wraps a RateLimitError.
func IsRateLimited(err error) bool {
	var rl *RateLimitError
	return errors.As(err, &rl)
}
