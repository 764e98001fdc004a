package adapter

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/m-mizutani/goerr/v2"
)

const (
	DefaultOllamaURL            = "http://localhost:11434"
	DefaultOllamaEmbeddingModel = "nomic-embed-text"
	DefaultOllamaGenerateModel  = "mistral"
)

// OllamaClient talks to a local Ollama server. It implements
// interfaces.Generator and interfaces.Embedder.
type OllamaClient struct {
	baseURL         string
	generativeModel string
	embeddingModel  string
	client          *http.Client
}

type OllamaOption func(*OllamaClient)

func WithOllamaGenerativeModel(model string) OllamaOption {
	return func(o *OllamaClient) {
		o.generativeModel = model
	}
}

func WithOllamaEmbeddingModel(model string) OllamaOption {
	return func(o *OllamaClient) {
		o.embeddingModel = model
	}
}

func WithHTTPClient(client *http.Client) OllamaOption {
	return func(o *OllamaClient) {
		o.client = client
	}
}

func NewOllama(baseURL string, opts ...OllamaOption) *OllamaClient {
	if baseURL == "" {
		baseURL = DefaultOllamaURL
	}

	o := &OllamaClient{
		baseURL:         strings.TrimRight(baseURL, "/"),
		generativeModel: DefaultOllamaGenerateModel,
		embeddingModel:  DefaultOllamaEmbeddingModel,
		client:          &http.Client{},
	}

	for _, opt := range opts {
		opt(o)
	}

	return o
}

type ollamaEmbedRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

type ollamaEmbedResponse struct {
	Embedding []float32 `json:"embedding"`
}

type ollamaGenerateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

type ollamaGenerateResponse struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

// Embed returns the embedding vector of text
func (o *OllamaClient) Embed(ctx context.Context, text string) ([]float32, error) {
	var resp ollamaEmbedResponse
	if err := o.post(ctx, "/api/embeddings", &ollamaEmbedRequest{
		Model:  o.embeddingModel,
		Prompt: text,
	}, &resp); err != nil {
		return nil, goerr.Wrap(err, "failed to embed content", goerr.V("model", o.embeddingModel))
	}

	if len(resp.Embedding) == 0 {
		return nil, goerr.New("no embedding returned", goerr.V("model", o.embeddingModel))
	}

	return resp.Embedding, nil
}

// Generate sends the prompt without streaming and returns the full response
func (o *OllamaClient) Generate(ctx context.Context, prompt string) (string, error) {
	var resp ollamaGenerateResponse
	if err := o.post(ctx, "/api/generate", &ollamaGenerateRequest{
		Model:  o.generativeModel,
		Prompt: prompt,
		Stream: false,
	}, &resp); err != nil {
		return "", goerr.Wrap(err, "failed to generate content", goerr.V("model", o.generativeModel))
	}

	return strings.TrimSpace(resp.Response), nil
}

func (o *OllamaClient) post(ctx context.Context, path string, body, out any) error {
	raw, err := json.Marshal(body)
	if err != nil {
		return goerr.Wrap(err, "failed to marshal request")
	}

	url := o.baseURL + path
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(raw))
	if err != nil {
		return goerr.Wrap(err, "failed to create request", goerr.V("url", url))
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.client.Do(req)
	if err != nil {
		return goerr.Wrap(err, "failed to call ollama", goerr.V("url", url))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return goerr.New("ollama returned error status",
			goerr.V("url", url),
			goerr.V("status", resp.StatusCode),
			goerr.V("body", string(msg)),
		)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return goerr.Wrap(err, "failed to decode response", goerr.V("url", url))
	}

	return nil
}
