package providers

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

// GeminiProvider reviews papers via the Gemini REST API. PDFs go inline as
// base64 parts, so no extracted text is needed for this provider.
type GeminiProvider struct {
	keyName string
	apiKey  string
	model   string
	client  *http.Client
}

func NewGeminiProvider(keyName string) *GeminiProvider {
	model := strings.TrimSpace(os.Getenv("PAPERSCREEN_GEMINI_MODEL"))
	if model == "" {
		model = "gemini-1.5-flash"
	}
	return &GeminiProvider{
		keyName: keyName,
		apiKey:  resolveKey("PAPERSCREEN_GEMINI_API_KEY", keyName, "GEMINI_API_KEY"),
		model:   model,
		client:  &http.Client{Timeout: 180 * time.Second},
	}
}

func (g *GeminiProvider) info() ProviderInfo {
	return ProviderInfo{Name: "gemini", Model: g.model, Key: g.keyName}
}

func (g *GeminiProvider) Generate(ctx context.Context, req GenerateRequest) (GenerateResponse, ProviderInfo, error) {
	if g.apiKey == "" {
		return GenerateResponse{}, g.info(), fmt.Errorf("gemini key missing for alias %q", g.keyName)
	}

	parts := []map[string]any{}
	if req.PaperPath != "" && req.PaperText == "" {
		raw, err := os.ReadFile(req.PaperPath)
		if err != nil {
			return GenerateResponse{}, g.info(), fmt.Errorf("read paper %s: %w", req.PaperPath, err)
		}
		parts = append(parts, map[string]any{
			"inline_data": map[string]any{
				"mime_type": "application/pdf",
				"data":      base64.StdEncoding.EncodeToString(raw),
			},
		})
	}
	prompt := req.Prompt
	if req.PaperText != "" {
		prompt += "\n\nPaper:\n" + req.PaperText
	}
	parts = append(parts, map[string]any{"text": prompt})

	payload, _ := json.Marshal(map[string]any{
		"contents": []map[string]any{
			{"parts": parts},
		},
		"generationConfig": map[string]any{
			"temperature": req.Temperature,
		},
	})
	url := fmt.Sprintf("https://generativelanguage.googleapis.com/v1beta/models/%s:generateContent?key=%s", g.model, g.apiKey)
	httpReq, _ := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(httpReq)
	if err != nil {
		return GenerateResponse{}, g.info(), fmt.Errorf("gemini generate request failed: %w", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode >= 400 {
		return GenerateResponse{}, g.info(), fmt.Errorf("gemini generate error %d: %s", resp.StatusCode, string(body))
	}
	var parsed struct {
		Candidates []struct {
			Content struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"content"`
		} `json:"candidates"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return GenerateResponse{}, g.info(), fmt.Errorf("decode gemini response: %w", err)
	}
	if len(parsed.Candidates) == 0 {
		return GenerateResponse{}, g.info(), fmt.Errorf("gemini returned no candidates")
	}
	var b strings.Builder
	for _, p := range parsed.Candidates[0].Content.Parts {
		b.WriteString(p.Text)
	}
	if b.Len() == 0 {
		return GenerateResponse{}, g.info(), fmt.Errorf("gemini returned empty content")
	}
	return GenerateResponse{Text: b.String()}, g.info(), nil
}
