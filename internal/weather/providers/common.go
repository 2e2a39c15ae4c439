package providers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	"github.com/i474232898/weather-widget/internal/weather"
)

var (
	errRateLimited  = errors.New("rate limited")
	errServerError  = errors.New("server error")
	errCircuitOpen  = errors.New("circuit breaker open")
	errNoHTTPClient = errors.New("http client not configured")
)

// newCircuitBreaker trips after five consecutive provider failures and
// half-opens again after timeout.
func newCircuitBreaker(name string, timeout time.Duration) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    1 * time.Minute,
		Timeout:     timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})
}

// doRequest executes a single request through the circuit breaker. There is
// no retry: a failed call is reported to the caller as is.
//
// Transport failures and an open circuit map to weather.ErrNetwork, any
// non-2xx status maps to weather.ErrProvider. Only 429 and 5xx count against
// the breaker; a 404 for an unknown city is the caller's problem, not the
// provider's.
func doRequest(ctx context.Context, client *http.Client, cb *gobreaker.CircuitBreaker, req *http.Request) (*http.Response, error) {
	if client == nil {
		return nil, fmt.Errorf("%w: %v", weather.ErrNetwork, errNoHTTPClient)
	}

	req = req.WithContext(ctx)

	result, err := cb.Execute(func() (interface{}, error) {
		resp, execErr := client.Do(req)
		if execErr != nil {
			return nil, execErr
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			drain(resp)
			return nil, errRateLimited
		}
		if resp.StatusCode >= 500 {
			drain(resp)
			return nil, fmt.Errorf("%w: %d", errServerError, resp.StatusCode)
		}

		return resp, nil
	})
	if err != nil {
		switch {
		case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
			return nil, fmt.Errorf("%w: %v: %v", weather.ErrNetwork, errCircuitOpen, err)
		case errors.Is(err, errRateLimited), errors.Is(err, errServerError):
			return nil, fmt.Errorf("%w: %v", weather.ErrProvider, err)
		default:
			return nil, fmt.Errorf("%w: %v", weather.ErrNetwork, err)
		}
	}

	resp, ok := result.(*http.Response)
	if !ok {
		return nil, fmt.Errorf("unexpected result type from circuit breaker")
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		drain(resp)
		return nil, fmt.Errorf("%w: unexpected status %d", weather.ErrProvider, resp.StatusCode)
	}

	return resp, nil
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
}

// trimSlash drops trailing slashes so a path can be appended to an endpoint.
func trimSlash(endpoint string) string {
	return strings.TrimRight(endpoint, "/")
}
