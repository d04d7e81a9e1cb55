package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
)

// maxResponseBytes bounds how much of a provider response is read.
const maxResponseBytes = 1 << 20

// PostJSON sends payload to endpoint and returns the response body when the
// status is 2xx. authorize sets provider-specific auth headers. All failures
// come back as *ProviderError labelled with provider.
func PostJSON(ctx context.Context, client *http.Client, provider, endpoint string, payload any, authorize func(*http.Request)) ([]byte, error) {
	encoded, err := json.Marshal(payload)
	if err != nil {
		return nil, NewProviderError(ErrorBadData, provider, 0, "encode request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(encoded))
	if err != nil {
		return nil, NewProviderError(ErrorTransport, provider, 0, "build request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if authorize != nil {
		authorize(req)
	}

	resp, err := client.Do(req)
	if err != nil {
		if isTimeout(ctx, err) {
			return nil, NewProviderError(ErrorTimeout, provider, 0, "request timed out", err)
		}
		return nil, NewProviderError(ErrorTransport, provider, 0, "request failed", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, NewProviderError(ErrorTransport, provider, resp.StatusCode, "read response", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, NewProviderError(CategoryForStatus(resp.StatusCode), provider, resp.StatusCode, errorMessage(body), nil)
	}
	return body, nil
}

func isTimeout(ctx context.Context, err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// errorMessage pulls a human-readable message out of common provider error
// envelopes, falling back to the raw body.
func errorMessage(body []byte) string {
	var envelope struct {
		Error *struct {
			Message string `json:"message"`
		} `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil {
		if envelope.Error != nil && envelope.Error.Message != "" {
			return envelope.Error.Message
		}
		if envelope.Message != "" {
			return envelope.Message
		}
	}
	if len(body) == 0 {
		return "empty response"
	}
	if len(body) > 256 {
		body = body[:256]
	}
	return fmt.Sprintf("unexpected response: %s", body)
}
