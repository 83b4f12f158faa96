package security

import (
	"strings"
	"testing"
)

func TestSanitizeRedactsTokensInJSONBodies(t *testing.T) {
	s := NewLogSanitizer()
	in := `{"access_token":"abc.def.ghi","refresh_token":"r-123","user":{"email":"a@b.com"}}`

	out := s.Sanitize(in)
	if strings.Contains(out, "abc.def.ghi") || strings.Contains(out, "r-123") {
		t.Fatalf("tokens leaked: %s", out)
	}
	if !strings.Contains(out, "a@b.com") {
		t.Fatalf("non-secret fields should be kept: %s", out)
	}
}

func TestSanitizeRedactsCallbackQuery(t *testing.T) {
	s := NewLogSanitizer()
	out := s.Sanitize("GET /auth/callback?access_token=aaa&refresh_token=bbb")
	if strings.Contains(out, "aaa") || strings.Contains(out, "bbb") {
		t.Fatalf("query tokens leaked: %s", out)
	}
}

func TestSanitizeRedactsBearerHeader(t *testing.T) {
	s := NewLogSanitizer()
	out := s.Sanitize("Authorization: Bearer secret-value")
	if strings.Contains(out, "secret-value") {
		t.Fatalf("bearer leaked: %s", out)
	}
}

func TestSanitizeNilIsPassthrough(t *testing.T) {
	var s *LogSanitizer
	if got := s.Sanitize("plain"); got != "plain" {
		t.Fatalf("unexpected output: %q", got)
	}
}
