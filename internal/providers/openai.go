package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"paperscreen/internal/util"
)

// OpenAIProvider reviews papers via the standard OpenAI REST APIs. Papers
// arrive either as extracted text appended to the prompt or as an uploaded
// PDF referenced by file id; uploads are cached by content fingerprint.
type OpenAIProvider struct {
	keyName string
	apiKey  string
	model   string
	client  *http.Client
	uploads *UploadCache
}

func NewOpenAIProvider(keyName string) *OpenAIProvider {
	model := strings.TrimSpace(os.Getenv("PAPERSCREEN_OPENAI_MODEL"))
	if model == "" {
		model = "gpt-4o-mini"
	}
	return &OpenAIProvider{
		keyName: keyName,
		apiKey:  resolveKey("PAPERSCREEN_OPENAI_API_KEY", keyName, "OPENAI_API_KEY"),
		model:   model,
		client:  &http.Client{Timeout: 120 * time.Second},
		uploads: NewUploadCache(),
	}
}

func (o *OpenAIProvider) info() ProviderInfo {
	return ProviderInfo{Name: "openai", Model: o.model, Key: o.keyName}
}

func (o *OpenAIProvider) Generate(ctx context.Context, req GenerateRequest) (GenerateResponse, ProviderInfo, error) {
	if o.apiKey == "" {
		return GenerateResponse{}, o.info(), fmt.Errorf("openai key missing for alias %q", o.keyName)
	}
	if req.PaperPath != "" && req.PaperText == "" {
		return o.generateWithFile(ctx, req)
	}
	return o.generateWithText(ctx, req)
}

func (o *OpenAIProvider) generateWithText(ctx context.Context, req GenerateRequest) (GenerateResponse, ProviderInfo, error) {
	prompt := req.Prompt
	if req.PaperText != "" {
		prompt += "\n\nPaper:\n" + req.PaperText
	}
	payload, _ := json.Marshal(map[string]any{
		"model":       o.model,
		"temperature": req.Temperature,
		"messages": []map[string]string{
			{"role": "user", "content": prompt},
		},
	})
	httpReq, _ := http.NewRequestWithContext(ctx, http.MethodPost, "https://api.openai.com/v1/chat/completions", bytes.NewReader(payload))
	httpReq.Header.Set("Authorization", "Bearer "+o.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")
	resp, err := o.client.Do(httpReq)
	if err != nil {
		return GenerateResponse{}, o.info(), fmt.Errorf("openai generate request failed: %w", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode >= 400 {
		return GenerateResponse{}, o.info(), fmt.Errorf("openai generate error %d: %s", resp.StatusCode, string(body))
	}
	var parsed struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return GenerateResponse{}, o.info(), fmt.Errorf("decode openai response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return GenerateResponse{}, o.info(), fmt.Errorf("openai returned empty choices")
	}
	return GenerateResponse{Text: parsed.Choices[0].Message.Content}, o.info(), nil
}

func (o *OpenAIProvider) generateWithFile(ctx context.Context, req GenerateRequest) (GenerateResponse, ProviderInfo, error) {
	fileID, err := o.uploadPaper(ctx, req.PaperPath)
	if err != nil {
		return GenerateResponse{}, o.info(), err
	}
	payload, _ := json.Marshal(map[string]any{
		"model":       o.model,
		"temperature": req.Temperature,
		"input": []map[string]any{
			{
				"role": "user",
				"content": []map[string]any{
					{"type": "input_file", "file_id": fileID},
					{"type": "input_text", "text": req.Prompt},
				},
			},
		},
	})
	httpReq, _ := http.NewRequestWithContext(ctx, http.MethodPost, "https://api.openai.com/v1/responses", bytes.NewReader(payload))
	httpReq.Header.Set("Authorization", "Bearer "+o.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")
	resp, err := o.client.Do(httpReq)
	if err != nil {
		return GenerateResponse{}, o.info(), fmt.Errorf("openai responses request failed: %w", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode >= 400 {
		return GenerateResponse{}, o.info(), fmt.Errorf("openai responses error %d: %s", resp.StatusCode, string(body))
	}
	var parsed struct {
		Output []struct {
			Content []struct {
				Type string `json:"type"`
				Text string `json:"text"`
			} `json:"content"`
		} `json:"output"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return GenerateResponse{}, o.info(), fmt.Errorf("decode openai responses body: %w", err)
	}
	var b strings.Builder
	for _, out := range parsed.Output {
		for _, c := range out.Content {
			if c.Type == "output_text" {
				b.WriteString(c.Text)
			}
		}
	}
	if b.Len() == 0 {
		return GenerateResponse{}, o.info(), fmt.Errorf("openai returned no output text")
	}
	return GenerateResponse{Text: b.String()}, o.info(), nil
}

// uploadPaper sends the PDF through the files API once per distinct content.
func (o *OpenAIProvider) uploadPaper(ctx context.Context, path string) (string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read paper %s: %w", path, err)
	}
	fingerprint := util.SHA256Hex(raw)
	if id, ok := o.uploads.Get(fingerprint); ok {
		return id, nil
	}

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	if err := w.WriteField("purpose", "user_data"); err != nil {
		return "", fmt.Errorf("write upload purpose: %w", err)
	}
	part, err := w.CreateFormFile("file", filepath.Base(path))
	if err != nil {
		return "", fmt.Errorf("build upload form: %w", err)
	}
	if _, err := part.Write(raw); err != nil {
		return "", fmt.Errorf("write upload body: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("finish upload form: %w", err)
	}

	httpReq, _ := http.NewRequestWithContext(ctx, http.MethodPost, "https://api.openai.com/v1/files", &buf)
	httpReq.Header.Set("Authorization", "Bearer "+o.apiKey)
	httpReq.Header.Set("Content-Type", w.FormDataContentType())
	resp, err := o.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("openai upload request failed: %w", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("openai upload error %d: %s", resp.StatusCode, string(body))
	}
	var parsed struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("decode openai upload response: %w", err)
	}
	if parsed.ID == "" {
		return "", fmt.Errorf("openai upload returned no file id")
	}
	o.uploads.Put(fingerprint, parsed.ID)
	return parsed.ID, nil
}
