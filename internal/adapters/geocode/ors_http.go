package geocode

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// maxRetryAfter caps how long a server-sent Retry-After may stall a lookup.
const maxRetryAfter = 10 * time.Second

type httpStatusError struct {
	Code       int
	Body       string
	RetryAfter time.Duration
}

func (e *httpStatusError) Error() string {
	return fmt.Sprintf("Code %d: %s", e.Code, e.Body)
}

func (o *ORSGeocoder) newRequest(ctx context.Context, method, url string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", o.apiKey)
	req.Header.Set("Accept", "application/json")
	return req, nil
}

// do sends req and turns any 4xx/5xx answer into an *httpStatusError.
func (o *ORSGeocoder) do(req *http.Request) (*http.Response, error) {
	resp, err := o.session.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 400 {
		return resp, nil
	}

	defer resp.Body.Close()
	b, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
	return nil, &httpStatusError{
		Code:       resp.StatusCode,
		Body:       strings.TrimSpace(string(b)),
		RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After"), time.Now()),
	}
}

// doWithRetry retries network errors, 429 and 5xx answers. The wait doubles
// each attempt unless the server asked for a specific delay.
func (o *ORSGeocoder) doWithRetry(ctx context.Context, makeReq func() (*http.Request, error)) (*http.Response, error) {
	backoff := o.initialBackoff

	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		req, err := makeReq()
		if err != nil {
			return nil, fmt.Errorf("make request: %w", err)
		}

		resp, err := o.do(req)
		if err == nil {
			return resp, nil
		}

		wait, ok := retryDelay(err, backoff)
		if !ok || attempt >= o.maxAttempts {
			return nil, err
		}

		logrus.WithFields(logrus.Fields{
			"attempt": attempt,
			"wait":    wait.String(),
		}).WithError(err).Debug("ors request failed, retrying")

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}

		backoff *= 2
	}
}

// retryDelay reports whether err is transient and how long to wait before the
// next attempt.
func retryDelay(err error, backoff time.Duration) (time.Duration, bool) {
	var he *httpStatusError
	if errors.As(err, &he) {
		switch he.Code {
		case http.StatusTooManyRequests, http.StatusServiceUnavailable:
			if he.RetryAfter > 0 {
				return min(he.RetryAfter, maxRetryAfter), true
			}
			return backoff, true
		case http.StatusInternalServerError, http.StatusBadGateway, http.StatusGatewayTimeout:
			return backoff, true
		}
		return 0, false
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return backoff, true
	}
	return 0, false
}

// parseRetryAfter reads a Retry-After value in either delta-seconds or
// HTTP-date form. Missing, malformed or past values give zero.
func parseRetryAfter(v string, now time.Time) time.Duration {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil {
		if secs <= 0 {
			return 0
		}
		return time.Duration(secs) * time.Second
	}
	at, err := http.ParseTime(v)
	if err != nil {
		return 0
	}
	if d := at.Sub(now); d > 0 {
		return d
	}
	return 0
}
