package trend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"time"

	"github.com/anatolykoptev/go_career/internal/engine"
)

// EmbedClient talks to the embedding service HTTP API. The same model must
// encode postings and profiles or similarity is undefined.
type EmbedClient struct {
	baseURL       string
	serviceSecret string
	http          *http.Client
}

// NewEmbedClient creates an embedding service client.
func NewEmbedClient(baseURL, serviceSecret string) *EmbedClient {
	return &EmbedClient{
		baseURL:       baseURL,
		serviceSecret: serviceSecret,
		http:          &http.Client{Timeout: 60 * time.Second},
	}
}

// Encode converts text into a normalized fixed-dimension vector.
func (c *EmbedClient) Encode(ctx context.Context, text string) ([]float32, error) {
	engine.IncrEmbedCalls()

	body := map[string]any{
		"input":     text,
		"normalize": true,
	}
	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("embed: marshal request: %w", err)
	}

	resp, err := engine.RetryHTTP(ctx, engine.DefaultRetryConfig, func() (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/embed", bytes.NewReader(data))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		if c.serviceSecret != "" {
			req.Header.Set("X-Internal-Service", c.serviceSecret)
		}
		return c.http.Do(req)
	})
	if err != nil {
		engine.IncrEmbedErrors()
		return nil, fmt.Errorf("embed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		engine.IncrEmbedErrors()
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("embed: status %d: %s", resp.StatusCode, string(b))
	}

	var raw struct {
		Embedding []float32 `json:"embedding"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		engine.IncrEmbedErrors()
		return nil, fmt.Errorf("embed: decode response: %w", err)
	}
	if len(raw.Embedding) == 0 {
		engine.IncrEmbedErrors()
		return nil, fmt.Errorf("embed: empty vector")
	}
	return normalizeVector(raw.Embedding), nil
}

// normalizeVector scales v to unit length. Zero vectors pass through.
func normalizeVector(v []float32) []float32 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	norm := math.Sqrt(sum)
	if norm == 0 {
		return v
	}
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = float32(float64(x) / norm)
	}
	return out
}
