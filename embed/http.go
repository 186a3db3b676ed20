package embed

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

var httpClient = &http.Client{Timeout: 30 * time.Second}

// postJSON sends body to url and decodes a 200 response into out.
func postJSON(ctx context.Context, provider, url string, body, out any) error {
	reqBody, err := json.Marshal(body)
	if err != nil {
		return failed(provider, fmt.Errorf("marshal request: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(reqBody))
	if err != nil {
		return failed(provider, fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := httpClient.Do(req)
	if err != nil {
		return failed(provider, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return failed(provider, fmt.Errorf("status %d: %s", resp.StatusCode, string(msg)))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return failed(provider, fmt.Errorf("decode response: %w", err))
	}
	return nil
}

func toFloat32(values []float64) []float32 {
	out := make([]float32, len(values))
	for i, v := range values {
		out[i] = float32(v)
	}
	return out
}
