package e2e

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// TestContext holds one scenario's HTTP state against a running server.
type TestContext struct {
	BaseURL     string
	client      *http.Client
	accessToken string
	status      int
	body        []byte
	vars        map[string]string
}

func NewTestContext(baseURL string) *TestContext {
	return &TestContext{
		BaseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 10 * time.Second},
		vars:    map[string]string{},
	}
}

// Reset clears everything between scenarios.
func (tc *TestContext) Reset() {
	tc.accessToken = ""
	tc.status = 0
	tc.body = nil
	tc.vars = map[string]string{}
}

func (tc *TestContext) GetAccessToken() string      { return tc.accessToken }
func (tc *TestContext) SetAccessToken(token string) { tc.accessToken = token }
func (tc *TestContext) Status() int                 { return tc.status }
func (tc *TestContext) Body() []byte                { return tc.body }

func (tc *TestContext) Save(name, value string) { tc.vars[name] = value }

// Expand replaces ${name} with saved values. ${tomorrow} is always defined.
func (tc *TestContext) Expand(s string) string {
	s = strings.ReplaceAll(s, "${tomorrow}", time.Now().Add(24*time.Hour).UTC().Format(time.RFC3339))
	for k, v := range tc.vars {
		s = strings.ReplaceAll(s, "${"+k+"}", v)
	}
	return s
}

func (tc *TestContext) POST(path string, body interface{}) error {
	return tc.Do(http.MethodPost, path, body, nil)
}

func (tc *TestContext) GET(path string, headers map[string]string) error {
	return tc.Do(http.MethodGet, path, nil, headers)
}

// Do sends the request, attaching the bearer token when one is set, and
// records status and body.
func (tc *TestContext) Do(method, path string, body interface{}, headers map[string]string) error {
	var r io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		r = strings.NewReader(tc.Expand(b))
	default:
		raw, err := json.Marshal(b)
		if err != nil {
			return fmt.Errorf("marshal body: %w", err)
		}
		r = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, tc.BaseURL+tc.Expand(path), r)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if tc.accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+tc.accessToken)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := tc.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	tc.status = resp.StatusCode
	tc.body, err = io.ReadAll(resp.Body)
	return err
}

// GetResponseField walks a dotted path ("volunteer.code") through the last
// JSON body.
func (tc *TestContext) GetResponseField(field string) (interface{}, error) {
	var cur interface{}
	if err := json.Unmarshal(tc.body, &cur); err != nil {
		return nil, fmt.Errorf("response is not JSON: %s", string(tc.body))
	}
	for _, part := range strings.Split(field, ".") {
		obj, ok := cur.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("field %q: %q is not an object", field, part)
		}
		cur, ok = obj[part]
		if !ok {
			return nil, fmt.Errorf("field %q not found in response: %s", field, string(tc.body))
		}
	}
	return cur, nil
}
