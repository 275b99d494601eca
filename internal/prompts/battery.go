package prompts

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

//go:embed prompts.json
var defaultBattery []byte

// Battery is the ordered review question list plus the framing prompts that
// turn it into a model request. The order is load-bearing: 7a/7b/7c sit at
// positions 7 to 9, so question ids above 7 live two slots later than their
// number suggests.
type Battery struct {
	systemPrompt  string
	closingPrompt string
	questions     []string
}

type batteryFile struct {
	SystemPrompt  string   `json:"system_prompt"`
	ClosingPrompt string   `json:"closing_prompt"`
	Prompts       []string `json:"prompts"`
}

func Parse(b []byte) (*Battery, error) {
	var f batteryFile
	if err := json.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("decode prompt battery: %w", err)
	}
	if len(f.Prompts) == 0 {
		return nil, fmt.Errorf("prompt battery has no questions")
	}
	return &Battery{
		systemPrompt:  f.SystemPrompt,
		closingPrompt: f.ClosingPrompt,
		questions:     f.Prompts,
	}, nil
}

// Load reads a battery from path, or the embedded default when path is
// empty.
func Load(path string) (*Battery, error) {
	if path == "" {
		return Default(), nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read prompt battery: %w", err)
	}
	return Parse(b)
}

func Default() *Battery {
	b, err := Parse(defaultBattery)
	if err != nil {
		panic(err)
	}
	return b
}

func (b *Battery) Len() int { return len(b.questions) }

func (b *Battery) Question(i int) (string, bool) {
	if i < 0 || i >= len(b.questions) {
		return "", false
	}
	return b.questions[i], true
}

// FullPrompt is the whole battery as one request.
func (b *Battery) FullPrompt() string {
	return b.systemPrompt + "\n" + strings.Join(b.questions, "\n") + "\n" + b.closingPrompt
}

// SinglePrompt frames one question for a per-question request.
func (b *Battery) SinglePrompt(i int) (string, bool) {
	q, ok := b.Question(i)
	if !ok {
		return "", false
	}
	return b.systemPrompt + "\n" + q + "\n" + b.closingPrompt, true
}
