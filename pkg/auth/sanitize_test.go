package auth

import (
	"strings"
	"testing"

	"github.com/tendant/simple-idm-engine/pkg/domain"
)

func TestSanitizeInput(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		maxRunes int
		want     string
	}{
		{
			name:  "plain text",
			input: "Mozilla/5.0 (X11; Linux x86_64)",
			want:  "Mozilla/5.0 (X11; Linux x86_64)",
		},
		{
			name:  "control characters",
			input: "curl/8.0\r\nX-Injected: 1\x00",
			want:  "curl/8.0X-Injected: 1",
		},
		{
			name:  "surrounding whitespace",
			input: "  10.0.0.1 \t",
			want:  "10.0.0.1",
		},
		{
			name:  "invalid utf8",
			input: "agent\xff\xfe",
			want:  "agent",
		},
		{
			name:     "truncated by runes",
			input:    "ééééé",
			maxRunes: 3,
			want:     "ééé",
		},
		{
			name:     "no limit",
			input:    strings.Repeat("a", 1000),
			maxRunes: 0,
			want:     strings.Repeat("a", 1000),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SanitizeInput(tt.input, tt.maxRunes)
			if got != tt.want {
				t.Errorf("SanitizeInput() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSanitizeMeta(t *testing.T) {
	meta := SanitizeMeta(domain.RequestMeta{
		IP:        "203.0.113.7\n",
		UserAgent: strings.Repeat("x", 600),
	})

	if meta.IP != "203.0.113.7" {
		t.Errorf("IP = %q", meta.IP)
	}
	if len(meta.UserAgent) != maxUserAgentLength {
		t.Errorf("UserAgent length = %d, want %d", len(meta.UserAgent), maxUserAgentLength)
	}
}
