package nexpose

import (
	"errors"
	"net/http"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/aws/retry"
)

// newRetryer builds the standard jittered-backoff retryer with Nexpose-specific
// retryable conditions: 5xx, 429 and dropped connections
func newRetryer(maxAttempts int, maxBackoff time.Duration) *retry.Standard {
	return retry.NewStandard(func(o *retry.StandardOptions) {
		o.MaxAttempts = maxAttempts
		o.MaxBackoff = maxBackoff
		o.Retryables = []retry.IsErrorRetryable{
			retry.IsErrorRetryableFunc(retryableStatus),
			retry.RetryableConnectionError{},
		}
	})
}

func retryableStatus(err error) aws.Ternary {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return aws.UnknownTernary
	}
	return aws.BoolTernary(apiErr.StatusCode >= http.StatusInternalServerError ||
		apiErr.StatusCode == http.StatusTooManyRequests)
}
