package redact

import (
	"regexp"
	"strings"
)

var (
	// Matches "Bearer <token>" (JWTs and opaque tokens).
	bearerTokenRe = regexp.MustCompile(`(?i)\bBearer\s+[^\s"']+`)

	// Common key=value formats that sometimes leak in error strings, including
	// the ?key= query parameter the Gemini REST API accepts.
	apiKeyKVRe = regexp.MustCompile(`(?i)\b(api[_-]?key|gemini[_-]?api[_-]?key|openai[_-]?api[_-]?key|key)\b\s*[:=]\s*[^\s"'&]+`)

	// Bare Google API keys and OpenAI secret keys.
	googleKeyRe = regexp.MustCompile(`\bAIza[0-9A-Za-z_-]{35}\b`)
	openAIKeyRe = regexp.MustCompile(`\bsk-[0-9A-Za-z_-]{20,}\b`)
)

// Secrets removes obvious secret-bearing substrings from error/log strings.
func Secrets(s string) string {
	if s == "" {
		return ""
	}
	out := s
	out = bearerTokenRe.ReplaceAllString(out, "Bearer <redacted>")
	out = apiKeyKVRe.ReplaceAllString(out, "<redacted_kv>")
	out = googleKeyRe.ReplaceAllString(out, "<redacted_key>")
	out = openAIKeyRe.ReplaceAllString(out, "<redacted_key>")
	return strings.TrimSpace(out)
}
