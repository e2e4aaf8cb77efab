// Package predictor is the HTTP adapter for the remote prediction backend.
// One submission means two independent calls: classification and SHAP
// explanation. The adapter never retries.
package predictor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"medrisk.app/console/internal/model"
)

const defaultTimeout = 30 * time.Second

type Config struct {
	BaseURL string
	// Timeout bounds each call. The upstream service historically ran
	// without one; a hung call would stall a submission forever, so a
	// finite default is always applied here.
	Timeout time.Duration
}

// Client issues the two backend calls for one submission. Each call settles
// independently; a failure in one says nothing about the other.
type Client interface {
	Predict(ctx context.Context, category string, vec model.FeatureVector) (*model.Classification, error)
	Explain(ctx context.Context, category string, vec model.FeatureVector) (*model.Explanation, error)
}

type httpClient struct {
	baseURL string
	http    *http.Client
}

func New(cfg Config) Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &httpClient{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

type predictResponse struct {
	Prediction  int     `json:"prediction"`
	Probability float64 `json:"probability_has_disease"`
}

type contribution struct {
	FeatureName string  `json:"feature_name"`
	ShapValue   float64 `json:"shap_value"`
}

type explainResponse struct {
	PositiveFeatures []contribution `json:"positive_features"`
	NegativeFeatures []contribution `json:"negative_features"`
}

type errorResponse struct {
	Detail string `json:"detail"`
}

func (c *httpClient) Predict(ctx context.Context, category string, vec model.FeatureVector) (*model.Classification, error) {
	var resp predictResponse
	if err := c.post(ctx, "predict", category, vec, &resp); err != nil {
		return nil, err
	}
	return &model.Classification{
		Label:       resp.Prediction,
		Probability: resp.Probability,
	}, nil
}

func (c *httpClient) Explain(ctx context.Context, category string, vec model.FeatureVector) (*model.Explanation, error) {
	var resp explainResponse
	if err := c.post(ctx, "explain", category, vec, &resp); err != nil {
		return nil, err
	}
	out := &model.Explanation{
		Positive: make([]model.Contribution, 0, len(resp.PositiveFeatures)),
		Negative: make([]model.Contribution, 0, len(resp.NegativeFeatures)),
	}
	for _, f := range resp.PositiveFeatures {
		out.Positive = append(out.Positive, model.Contribution{Feature: f.FeatureName, Weight: f.ShapValue})
	}
	for _, f := range resp.NegativeFeatures {
		out.Negative = append(out.Negative, model.Contribution{Feature: f.FeatureName, Weight: f.ShapValue})
	}
	return out, nil
}

// post sends the vector as a flat key→number JSON map. Unset features are
// simply absent keys; the backend imputes them from training means.
func (c *httpClient) post(ctx context.Context, op, category string, vec model.FeatureVector, out any) error {
	body, err := json.Marshal(vec)
	if err != nil {
		return fmt.Errorf("marshal %s request: %w", op, err)
	}

	url := fmt.Sprintf("%s/%s/%s", c.baseURL, op, category)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build %s request: %w", op, err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return &model.NetworkError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	slog.DebugContext(ctx, "backend call settled",
		"op", op,
		"category", category,
		"status", resp.StatusCode,
		"duration_ms", time.Since(start).Milliseconds())

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail := decodeDetail(resp.Body)
		return &model.RemoteError{Op: op, Status: resp.StatusCode, Detail: detail}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &model.RemoteError{Op: op, Status: resp.StatusCode, Detail: fmt.Sprintf("malformed %s response: %v", op, err)}
	}
	return nil
}

func decodeDetail(r io.Reader) string {
	var body errorResponse
	if err := json.NewDecoder(r).Decode(&body); err != nil {
		return ""
	}
	return body.Detail
}
