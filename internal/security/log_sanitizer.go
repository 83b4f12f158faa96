package security

import "regexp"

// LogSanitizer remove credenciais e segredos antes de escrever logs.
type LogSanitizer struct {
	patterns []*regexp.Regexp
}

func NewLogSanitizer() *LogSanitizer {
	return &LogSanitizer{
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)bearer\s+[\w\-\.=]+`),
			// JSON: "access_token":"..." / "password": "..."
			regexp.MustCompile(`(?i)"(access_token|refresh_token|password|token|hash)"\s*:\s*"[^"]*"`),
			// query string / form: access_token=...&
			regexp.MustCompile(`(?i)(access_token|refresh_token|token|code)=[^&\s"]+`),
			regexp.MustCompile(`(?i)(api[_-]?key|secret|password|authorization)\s*[:=]\s*['"]?[\w\-\.]+['"]?`),
			regexp.MustCompile(`eyJ[a-zA-Z0-9_\-]+\.[a-zA-Z0-9_\-]+\.[a-zA-Z0-9_\-]+`),
		},
	}
}

func (s *LogSanitizer) Sanitize(message string) string {
	if s == nil {
		return message
	}

	clean := message
	for _, p := range s.patterns {
		clean = p.ReplaceAllString(clean, "[REDACTED]")
	}
	return clean
}
