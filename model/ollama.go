package model

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"strings"
	"time"

	"openjuris/types"
)

const ollamaTimeout = 120 * time.Second

// OllamaClient talks to a local Ollama server for both embeddings and
// generation. Vectors are L2-normalized before they leave this package so
// cosine distance downstream behaves.
type OllamaClient struct {
	baseURL       string
	embedModel    string
	generateModel string
	dimensions    int
	http          *http.Client
}

func NewOllamaClient(cfg types.Config) *OllamaClient {
	return &OllamaClient{
		baseURL:       strings.TrimRight(cfg.OllamaURL, "/"),
		embedModel:    cfg.OllamaEmbedModel,
		generateModel: cfg.OllamaGenerateModel,
		dimensions:    cfg.EmbeddingDimension,
		http:          &http.Client{Timeout: ollamaTimeout},
	}
}

func (c *OllamaClient) Dimensions() int { return c.dimensions }

type embedRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embedResponse struct {
	Embeddings [][]float64 `json:"embeddings"`
}

// Embed returns the vector for a single text.
func (c *OllamaClient) Embed(ctx context.Context, text string) ([]float32, error) {
	vecs, err := c.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

// EmbedBatch embeds all texts in one request.
func (c *OllamaClient) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	var resp embedResponse
	if err := c.post(ctx, "/api/embed", embedRequest{Model: c.embedModel, Input: texts}, &resp); err != nil {
		return nil, &EmbeddingError{Provider: "ollama", Err: err}
	}
	if len(resp.Embeddings) != len(texts) {
		return nil, &EmbeddingError{
			Provider: "ollama",
			Err:      fmt.Errorf("got %d embeddings for %d inputs", len(resp.Embeddings), len(texts)),
		}
	}

	out := make([][]float32, len(resp.Embeddings))
	for i, vec := range resp.Embeddings {
		if len(vec) != c.dimensions {
			return nil, &EmbeddingError{
				Provider: "ollama",
				Err:      fmt.Errorf("model %s returned dimension %d, expected %d", c.embedModel, len(vec), c.dimensions),
			}
		}
		out[i] = normalize(vec)
	}
	return out, nil
}

type generateRequest struct {
	Model  string `json:"model"`
	System string `json:"system"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

type generateResponse struct {
	Response string `json:"response"`
}

// Generate runs a completion and returns the model's text. Streamed
// responses are reassembled when the server ignores the stream flag.
func (c *OllamaClient) Generate(ctx context.Context, system, prompt string) (string, error) {
	body, err := json.Marshal(generateRequest{
		Model:  c.generateModel,
		System: system,
		Prompt: prompt,
		Stream: false,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	raw, err := c.doPost(ctx, "/api/generate", body)
	if err != nil {
		return "", err
	}

	var resp generateResponse
	if err := json.Unmarshal(raw, &resp); err == nil && resp.Response != "" {
		return resp.Response, nil
	}

	var out strings.Builder
	decoder := json.NewDecoder(bytes.NewReader(raw))
	for decoder.More() {
		var chunk generateResponse
		if err := decoder.Decode(&chunk); err != nil {
			break
		}
		out.WriteString(chunk.Response)
	}
	return out.String(), nil
}

func (c *OllamaClient) post(ctx context.Context, path string, req, resp any) error {
	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}
	raw, err := c.doPost(ctx, path, body)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, resp); err != nil {
		return fmt.Errorf("failed to unmarshal response: %w", err)
	}
	return nil
}

func (c *OllamaClient) doPost(ctx context.Context, path string, body []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ollama API error: status %d, body: %s", resp.StatusCode, string(raw))
	}
	return raw, nil
}

// normalize scales vec to unit length and narrows to float32.
func normalize(vec []float64) []float32 {
	var sum float64
	for _, v := range vec {
		sum += v * v
	}
	norm := math.Sqrt(sum)

	out := make([]float32, len(vec))
	for i, v := range vec {
		if norm != 0 {
			v /= norm
		}
		out[i] = float32(v)
	}
	return out
}
