package providers

import "context"

type ProviderInfo struct {
	Name  string `json:"name"`
	Model string `json:"model"`
	Key   string `json:"key"`
}

// GenerateRequest carries one review or arbitration request. PaperText is
// already-extracted plain text appended to the prompt; PaperPath lets
// providers that support file upload send the PDF itself instead.
type GenerateRequest struct {
	Operation   string  `json:"operation"`
	Prompt      string  `json:"prompt"`
	PaperText   string  `json:"paper_text,omitempty"`
	PaperPath   string  `json:"paper_path,omitempty"`
	Temperature float64 `json:"temperature"`
}

type GenerateResponse struct {
	Text string `json:"text"`
}

type LLMProvider interface {
	Generate(ctx context.Context, req GenerateRequest) (GenerateResponse, ProviderInfo, error)
}
