package providers

import (
	"fmt"
	"strings"

	"paperscreen/internal/config"
)

type NamedLLMProvider struct {
	Ref      ProviderRef
	Provider LLMProvider
}

// Manager owns the configured review models. A batch addresses them by the
// name or alias they were configured under; anything unresolvable falls back
// to the first provider.
type Manager struct {
	llmProviders []NamedLLMProvider
}

func NewManager(cfg config.Config) (*Manager, error) {
	refs := ParseProviderList(cfg.LLMProviders)
	m := &Manager{}
	for _, ref := range refs {
		p, err := buildProvider(ref)
		if err != nil {
			return nil, err
		}
		m.llmProviders = append(m.llmProviders, NamedLLMProvider{Ref: ref, Provider: p})
	}
	if len(m.llmProviders) == 0 {
		m.llmProviders = []NamedLLMProvider{{Ref: ProviderRef{Raw: "mock", Name: "mock"}, Provider: NewMockProvider()}}
	}
	return m, nil
}

func (m *Manager) First() (LLMProvider, ProviderRef) {
	return m.llmProviders[0].Provider, m.llmProviders[0].Ref
}

func (m *Manager) Count() int {
	return len(m.llmProviders)
}

func (m *Manager) Refs() []ProviderRef {
	out := make([]ProviderRef, 0, len(m.llmProviders))
	for i := range m.llmProviders {
		out = append(out, m.llmProviders[i].Ref)
	}
	return out
}

// FindByName matches a provider by its configured name, alias or raw form,
// case-insensitively.
func (m *Manager) FindByName(name string) (LLMProvider, ProviderRef, bool) {
	target := strings.ToLower(strings.TrimSpace(name))
	if target == "" {
		return nil, ProviderRef{}, false
	}
	for i := range m.llmProviders {
		ref := m.llmProviders[i].Ref
		candidates := []string{
			strings.ToLower(strings.TrimSpace(ref.Raw)),
			strings.ToLower(strings.TrimSpace(ref.Name)),
		}
		if ref.KeyAlias != "" {
			candidates = append(candidates, strings.ToLower(strings.TrimSpace(ref.KeyAlias)))
		}
		for _, c := range candidates {
			if c == target {
				return m.llmProviders[i].Provider, ref, true
			}
		}
	}
	return nil, ProviderRef{}, false
}

func buildProvider(ref ProviderRef) (LLMProvider, error) {
	switch strings.ToLower(ref.Name) {
	case "mock":
		return NewMockProvider(), nil
	case "openai":
		return NewOpenAIProvider(ref.KeyAlias), nil
	case "ollama":
		return NewOllamaProvider(ref.KeyAlias), nil
	case "gemini":
		return NewGeminiProvider(ref.KeyAlias), nil
	default:
		return nil, fmt.Errorf("unsupported provider: %s", ref.Name)
	}
}
