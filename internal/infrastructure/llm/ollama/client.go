package ollama

import (
	"context"
	"net/http"
	"strings"
	"time"
)

// Client talks to an Ollama-compatible /api/generate endpoint. The API key is
// sent as a bearer token for hosted deployments.
type Client struct {
	baseURL    string
	model      string
	apiKey     string
	httpClient *http.Client
}

func New(baseURL, model, apiKey string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		model:      model,
		apiKey:     strings.TrimSpace(apiKey),
		httpClient: &http.Client{Timeout: 120 * time.Second},
	}
}

// HasCredential reports whether the client may be used for scoring at all.
func (c *Client) HasCredential() bool {
	return c != nil && c.apiKey != "" && c.baseURL != ""
}

type generateRequest struct {
	Model  string   `json:"model"`
	Prompt string   `json:"prompt"`
	Images []string `json:"images,omitempty"`
	Format string   `json:"format,omitempty"`
	Stream bool     `json:"stream"`
}

func (c *Client) generateJSON(ctx context.Context, prompt string, images []string) (string, error) {
	reqBody := generateRequest{
		Model:  c.model,
		Prompt: prompt,
		Images: images,
		Format: "json",
		Stream: false,
	}

	var response struct {
		Response string `json:"response"`
	}
	if err := c.postJSON(ctx, "/api/generate", reqBody, &response, "generate"); err != nil {
		return "", err
	}
	return strings.TrimSpace(response.Response), nil
}
