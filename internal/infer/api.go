package infer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"
)

// apiTransport talks to the Ollama HTTP API. The probe hits
// /api/version with a short timeout; generation posts to /api/generate
// non-streaming.
type apiTransport struct {
	httpClient   *http.Client
	probeTimeout time.Duration
	host         string
}

func newAPITransport(host string, genTimeout, probeTimeout time.Duration) *apiTransport {
	if host == "" {
		host = DefaultHost
	}
	if genTimeout <= 0 {
		genTimeout = DefaultGenTimeout
	}
	if probeTimeout <= 0 {
		probeTimeout = DefaultAPIProbeTimeout
	}
	return &apiTransport{
		httpClient:   &http.Client{Timeout: genTimeout},
		probeTimeout: probeTimeout,
		host:         host,
	}
}

func (t *apiTransport) Name() string { return TransportAPI }

func (t *apiTransport) Healthy(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, t.probeTimeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.host+"/api/version", nil)
	if err != nil {
		return false
	}
	resp, err := t.httpClient.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<10))
	return resp.StatusCode == http.StatusOK
}

type generateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

type generateResponse struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

func (t *apiTransport) Generate(ctx context.Context, model, prompt string) (string, error) {
	payload, err := json.Marshal(generateRequest{Model: model, Prompt: prompt, Stream: false})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.host+"/api/generate", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.httpClient.Do(req)
	if err != nil {
		if isTimeout(err) {
			return "", &TimeoutError{Transport: TransportAPI, Err: err}
		}
		return "", &TransportError{Transport: TransportAPI, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 8<<10))
		detail := apiErrorDetail(body)
		return "", &TransportError{Transport: TransportAPI, Status: resp.StatusCode, Detail: detail}
	}
	var out generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", &TransportError{Transport: TransportAPI, Detail: "malformed response", Err: err}
	}
	return out.Response, nil
}

type tagsResponse struct {
	Models []struct {
		Name string `json:"name"`
	} `json:"models"`
}

func (t *apiTransport) ListModels(ctx context.Context) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.host+"/api/tags", nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	resp, err := t.httpClient.Do(req)
	if err != nil {
		if isTimeout(err) {
			return nil, &TimeoutError{Transport: TransportAPI, Err: err}
		}
		return nil, &TransportError{Transport: TransportAPI, Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 8<<10))
		return nil, &TransportError{Transport: TransportAPI, Status: resp.StatusCode, Detail: apiErrorDetail(body)}
	}
	var out tagsResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, &TransportError{Transport: TransportAPI, Detail: "malformed response", Err: err}
	}
	names := make([]string, 0, len(out.Models))
	for _, m := range out.Models {
		names = append(names, m.Name)
	}
	return names, nil
}

// apiErrorDetail pulls the error message from an Ollama error body.
func apiErrorDetail(body []byte) string {
	var raw map[string]any
	if err := json.Unmarshal(body, &raw); err == nil {
		if msg, ok := raw["error"].(string); ok && msg != "" {
			return truncateDetail(msg)
		}
	}
	return truncateDetail(string(body))
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
