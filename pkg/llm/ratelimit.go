package llm

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// isRateLimitError matches 429s and quota exhaustion across SDK error
// strings.
func isRateLimitError(err error) bool {
	if err == nil {
		return false
	}
	errStr := err.Error()
	return strings.Contains(errStr, "429") ||
		strings.Contains(errStr, "RESOURCE_EXHAUSTED") ||
		strings.Contains(errStr, "quota")
}

// retryDelayRegex matches "Please retry in Xs" or "retryDelay:Xs" patterns.
var retryDelayRegex = regexp.MustCompile(`(?i)(?:Please retry in |retryDelay[:\s]+)(\d+(?:\.\d+)?)\s*s`)

// extractRetryDelay parses the API-suggested retry delay out of an error
// message. Returns 0 when the message carries none.
func extractRetryDelay(err error) time.Duration {
	if err == nil {
		return 0
	}

	matches := retryDelayRegex.FindStringSubmatch(err.Error())
	if len(matches) < 2 {
		return 0
	}

	seconds, convErr := strconv.ParseFloat(matches[1], 64)
	if convErr != nil {
		return 0
	}

	return time.Duration(seconds * float64(time.Second))
}

// sdkBackoff computes the wait before the next SDK call attempt: the
// API-suggested delay when rate limited, otherwise a linear ramp, always
// bounded by retryAfterCap.
func sdkBackoff(attempt int, err error) time.Duration {
	backoff := time.Duration(attempt+1) * 2 * time.Second
	if isRateLimitError(err) {
		if d := extractRetryDelay(err); d > 0 {
			backoff = d
		}
	}
	if backoff > retryAfterCap {
		backoff = retryAfterCap
	}
	return backoff
}
