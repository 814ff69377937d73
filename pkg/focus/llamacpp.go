package focus

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/ollama/ollama/api"
)

// llamaCppClient talks to the OpenAI-compatible chat endpoint of a llama.cpp
// server, translating from and to Ollama's chat types so ModelLocator can
// drive either server.
type llamaCppClient struct {
	baseURL    string
	httpClient *http.Client
}

type openAIMessage struct {
	Role    string `json:"role"`
	Content any    `json:"content"` // string or []contentPart
}

type contentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageURL `json:"image_url,omitempty"`
}

type imageURL struct {
	URL string `json:"url"`
}

type chatCompletionRequest struct {
	Model       string          `json:"model,omitempty"`
	Messages    []openAIMessage `json:"messages"`
	Temperature float64         `json:"temperature,omitempty"`
	MaxTokens   int             `json:"max_tokens,omitempty"`
	Stream      bool            `json:"stream"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message openAIMessage `json:"message"`
	} `json:"choices"`
}

// NewLlamaCppLocator connects to a llama.cpp server at serverURL. The model
// may be empty when the server hosts a single model.
func NewLlamaCppLocator(serverURL, model string, opts ModelOptions) (*ModelLocator, error) {
	parsedURL, err := url.Parse(serverURL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}
	if parsedURL.Scheme == "" || parsedURL.Host == "" {
		return nil, fmt.Errorf("invalid llama.cpp URL %q", serverURL)
	}

	client := &llamaCppClient{
		baseURL:    strings.TrimSuffix(serverURL, "/"),
		httpClient: http.DefaultClient,
	}
	return newModelLocator(client, model, opts), nil
}

// Chat sends req as a single non-streaming completion and reports the answer
// through fn.
func (c *llamaCppClient) Chat(ctx context.Context, req *api.ChatRequest, fn api.ChatResponseFunc) error {
	payload := chatCompletionRequest{
		Model:     req.Model,
		MaxTokens: 2048,
	}
	if t, ok := req.Options["temperature"].(float64); ok {
		payload.Temperature = t
	}
	for _, m := range req.Messages {
		parts := []contentPart{{Type: "text", Text: m.Content}}
		for _, img := range m.Images {
			parts = append(parts, contentPart{
				Type:     "image_url",
				ImageURL: &imageURL{URL: "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(img)},
			})
		}
		payload.Messages = append(payload.Messages, openAIMessage{Role: m.Role, Content: parts})
	}

	body, err := c.post(ctx, "/v1/chat/completions", payload)
	if err != nil {
		return err
	}

	var resp chatCompletionResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	if len(resp.Choices) == 0 {
		return fmt.Errorf("no choices in response")
	}

	return fn(api.ChatResponse{
		Model:   req.Model,
		Message: api.Message{Role: "assistant", Content: messageText(resp.Choices[0].Message.Content)},
		Done:    true,
	})
}

func (c *llamaCppClient) post(ctx context.Context, endpoint string, payload any) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpoint, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("server returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return body, nil
}

// messageText extracts the text of a message whose content is either a
// string or a list of parts.
func messageText(content any) string {
	switch c := content.(type) {
	case string:
		return c
	case []any:
		var sb strings.Builder
		for _, item := range c {
			if part, ok := item.(map[string]any); ok {
				if text, ok := part["text"].(string); ok {
					sb.WriteString(text)
				}
			}
		}
		return sb.String()
	}
	return ""
}
