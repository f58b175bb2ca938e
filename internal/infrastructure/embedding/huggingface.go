package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"LaCarte/internal/ports"
)

// HuggingFaceEmbedder calls the Hugging Face feature-extraction pipeline.
type HuggingFaceEmbedder struct {
	endpoint string
	model    string
	apiKey   string
	http     *http.Client
}

var _ ports.Embedder = (*HuggingFaceEmbedder)(nil)

// NewHuggingFaceEmbedder creates a reusable HTTP client for one model.
func NewHuggingFaceEmbedder(endpoint, model, apiKey string, timeout time.Duration) *HuggingFaceEmbedder {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &HuggingFaceEmbedder{
		endpoint: strings.TrimSuffix(endpoint, "/"),
		model:    model,
		apiKey:   apiKey,
		http:     &http.Client{Timeout: timeout},
	}
}

type featureExtractionRequest struct {
	Inputs    string `json:"inputs"`
	Normalize bool   `json:"normalize,omitempty"`
}

// Embed returns one sentence vector; token-level output is mean-pooled locally.
func (h *HuggingFaceEmbedder) Embed(ctx context.Context, text string, opts ports.EmbedOptions) ([]float32, error) {
	if h.model == "" || h.endpoint == "" {
		return nil, errors.New("huggingface embedder misconfigured")
	}

	var raw json.RawMessage
	payload := featureExtractionRequest{Inputs: text, Normalize: opts.Normalize}
	if err := h.post(ctx, "/"+h.model+"/pipeline/feature-extraction", payload, &raw); err != nil {
		return nil, err
	}

	vec, err := decodeFeatures(raw)
	if err != nil {
		return nil, err
	}
	if opts.Normalize {
		vec = l2Normalize(vec)
	}
	return vec, nil
}

// decodeFeatures accepts [dim], [tokens][dim] or [batch][tokens][dim] shaped output.
func decodeFeatures(raw json.RawMessage) ([]float32, error) {
	var flat []float32
	if err := json.Unmarshal(raw, &flat); err == nil {
		if len(flat) == 0 {
			return nil, errEmptyVector
		}
		return flat, nil
	}

	var tokens [][]float32
	if err := json.Unmarshal(raw, &tokens); err == nil {
		return meanPool(tokens)
	}

	var batch [][][]float32
	if err := json.Unmarshal(raw, &batch); err == nil {
		if len(batch) == 0 {
			return nil, errEmptyVector
		}
		return meanPool(batch[0])
	}

	return nil, errors.New("unexpected feature-extraction output shape")
}

func (h *HuggingFaceEmbedder) post(ctx context.Context, path string, payload any, v any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.endpoint+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if h.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+h.apiKey)
	}

	resp, err := h.http.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("unexpected status %s: %s", resp.Status, strings.TrimSpace(string(msg)))
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
