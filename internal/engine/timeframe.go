package engine

import (
	"strconv"
	"strings"
	"time"

	"github.com/SJParthi/IndianFutureBillionaire/pkg/errors"
)

// DefaultTimeframeDuration is the fallback when a timeframe string cannot
// be parsed.
const DefaultTimeframeDuration = time.Minute

// ParseTimeframe converts a timeframe string of the form "<N>m" (N whole
// minutes) into a duration. Other suffixes are not supported; callers are
// expected to log the fallback and use DefaultTimeframeDuration.
func ParseTimeframe(tf string) (time.Duration, error) {
	if strings.HasSuffix(tf, "m") {
		mins, err := strconv.ParseInt(strings.TrimSuffix(tf, "m"), 10, 64)
		if err == nil && mins > 0 {
			return time.Duration(mins) * time.Minute, nil
		}
	}

	return 0, errors.NewErrorDetails(
		"timeframe must be of the form <N>m",
		string(errors.ErrInvalidTimeframe),
		"timeframe",
	)
}
