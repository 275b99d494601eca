package providers

import "strings"

// ProviderRef is one entry of the configured review-model list. Raw keeps
// the exact configured token because batches may address a provider by it.
type ProviderRef struct {
	Raw      string
	Name     string
	KeyAlias string
}

// ParseProviderList splits a "name:alias|name|..." list into refs. Names
// are lowercased, duplicates collapse onto the first occurrence, and an
// empty or all-blank list falls back to the mock provider so the pipeline
// always has something to answer with.
func ParseProviderList(raw string) []ProviderRef {
	seen := map[string]struct{}{}
	var out []ProviderRef
	for _, p := range strings.Split(raw, "|") {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		ref := ProviderRef{Raw: p, Name: strings.ToLower(p)}
		if name, alias, ok := strings.Cut(p, ":"); ok {
			ref.Name = strings.ToLower(strings.TrimSpace(name))
			ref.KeyAlias = strings.TrimSpace(alias)
		}
		if _, dup := seen[ref.Raw]; dup {
			continue
		}
		seen[ref.Raw] = struct{}{}
		out = append(out, ref)
	}
	if len(out) == 0 {
		out = append(out, ProviderRef{Raw: "mock", Name: "mock"})
	}
	return out
}
