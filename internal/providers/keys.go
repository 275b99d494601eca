package providers

import (
	"os"
	"strings"
)

// resolveKey looks for an alias-scoped key first, e.g.
// PAPERSCREEN_OPENAI_API_KEY_TEAM2 for openai:team2, then the provider's
// conventional variable.
func resolveKey(aliasVar, alias, fallbackVar string) string {
	if strings.TrimSpace(alias) != "" {
		if v := strings.TrimSpace(os.Getenv(aliasVar + "_" + sanitizeEnvToken(alias))); v != "" {
			return v
		}
	}
	return strings.TrimSpace(os.Getenv(fallbackVar))
}

func sanitizeEnvToken(s string) string {
	s = strings.ToUpper(s)
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, ".", "_")
	s = strings.ReplaceAll(s, "/", "_")
	return s
}
