package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// TestContext carries the HTTP client and the last response between steps.
type TestContext struct {
	BaseURL       string
	OperatorToken string

	client       *http.Client
	lastStatus   int
	lastHeaders  http.Header
	lastBody     []byte
	citizenAlias map[string]string
}

// NewTestContext builds a client that never follows redirects so the
// tracking link can be asserted.
func NewTestContext(baseURL, token string) *TestContext {
	return &TestContext{
		BaseURL:       strings.TrimRight(baseURL, "/"),
		OperatorToken: token,
		client: &http.Client{
			Timeout: 10 * time.Second,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		citizenAlias: map[string]string{},
	}
}

// Reset clears per-scenario state.
func (tc *TestContext) Reset() {
	tc.lastStatus = 0
	tc.lastHeaders = nil
	tc.lastBody = nil
	tc.citizenAlias = map[string]string{}
}

func (tc *TestContext) Do(ctx context.Context, method, path string, body any, authenticated bool) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, tc.BaseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if authenticated && tc.OperatorToken != "" {
		req.Header.Set("Authorization", "Bearer "+tc.OperatorToken)
	}

	resp, err := tc.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	tc.lastStatus = resp.StatusCode
	tc.lastHeaders = resp.Header
	tc.lastBody, err = io.ReadAll(resp.Body)
	return err
}

func (tc *TestContext) LastStatus() int { return tc.lastStatus }

func (tc *TestContext) LastHeader(key string) string { return tc.lastHeaders.Get(key) }

// ResponseField reads a top-level or dotted field from the last JSON body.
func (tc *TestContext) ResponseField(path string) (any, error) {
	var doc any
	if err := json.Unmarshal(tc.lastBody, &doc); err != nil {
		return nil, fmt.Errorf("decode response %q: %w", string(tc.lastBody), err)
	}
	for part := range strings.SplitSeq(path, ".") {
		obj, ok := doc.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("field %q: %q is not an object", path, part)
		}
		if doc, ok = obj[part]; !ok {
			return nil, fmt.Errorf("field %q not found in %s", path, string(tc.lastBody))
		}
	}
	return doc, nil
}

// Remember maps a scenario alias to the id the server assigned.
func (tc *TestContext) Remember(alias, id string) { tc.citizenAlias[alias] = id }

func (tc *TestContext) CitizenID(alias string) (string, error) {
	id, ok := tc.citizenAlias[alias]
	if !ok {
		return "", fmt.Errorf("unknown citizen %q", alias)
	}
	return id, nil
}
