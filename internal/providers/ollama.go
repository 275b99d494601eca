package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

// OllamaProvider reviews papers through a local Ollama server. It only
// works on extracted text; there is no file upload to fall back to.
type OllamaProvider struct {
	alias   string
	baseURL string
	model   string
	client  *http.Client
}

func NewOllamaProvider(alias string) *OllamaProvider {
	baseURL := strings.TrimSpace(os.Getenv("PAPERSCREEN_OLLAMA_BASE_URL"))
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	return &OllamaProvider{
		alias:   alias,
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   resolveOllamaModel(alias),
		client:  &http.Client{Timeout: 300 * time.Second},
	}
}

func (o *OllamaProvider) info() ProviderInfo {
	return ProviderInfo{Name: "ollama", Model: o.model, Key: o.alias}
}

func (o *OllamaProvider) Generate(ctx context.Context, req GenerateRequest) (GenerateResponse, ProviderInfo, error) {
	if req.PaperText == "" && req.PaperPath != "" {
		return GenerateResponse{}, o.info(), fmt.Errorf("ollama needs extracted paper text, not a file")
	}
	prompt := req.Prompt
	if req.PaperText != "" {
		prompt += "\n\nPaper:\n" + req.PaperText
	}
	payload, _ := json.Marshal(map[string]any{
		"model":  o.model,
		"prompt": prompt,
		"stream": false,
		"options": map[string]any{
			"temperature": req.Temperature,
		},
	})
	httpReq, _ := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+"/api/generate", bytes.NewReader(payload))
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := o.client.Do(httpReq)
	if err != nil {
		return GenerateResponse{}, o.info(), fmt.Errorf("ollama generate request failed: %w", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode >= 400 {
		return GenerateResponse{}, o.info(), fmt.Errorf("ollama generate error %d: %s", resp.StatusCode, string(body))
	}
	var parsed struct {
		Response string `json:"response"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return GenerateResponse{}, o.info(), fmt.Errorf("decode ollama response: %w", err)
	}
	if parsed.Response == "" {
		return GenerateResponse{}, o.info(), fmt.Errorf("ollama returned an empty response")
	}
	return GenerateResponse{Text: parsed.Response}, o.info(), nil
}

func resolveOllamaModel(alias string) string {
	alias = strings.TrimSpace(alias)
	if alias != "" {
		key := "PAPERSCREEN_OLLAMA_MODEL_" + sanitizeEnvToken(alias)
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			return v
		}
		// Allow a direct model name in the provider list, e.g. ollama:deepseek-r1.
		if strings.Contains(alias, "-") || strings.Contains(alias, "/") || strings.Contains(alias, ".") || strings.Contains(alias, ":") {
			return alias
		}
	}
	if v := strings.TrimSpace(os.Getenv("PAPERSCREEN_OLLAMA_MODEL")); v != "" {
		return v
	}
	return "deepseek-r1"
}
