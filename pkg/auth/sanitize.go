package auth

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/tendant/simple-idm-engine/pkg/domain"
)

// Stored request metadata limits, in runes.
const (
	maxIPLength        = 64
	maxUserAgentLength = 512
)

// SanitizeMeta cleans client-supplied request metadata before it is
// written to audit events or refresh token records.
func SanitizeMeta(meta domain.RequestMeta) domain.RequestMeta {
	return domain.RequestMeta{
		IP:        SanitizeInput(meta.IP, maxIPLength),
		UserAgent: SanitizeInput(meta.UserAgent, maxUserAgentLength),
	}
}

// SanitizeInput trims s, drops control characters and invalid UTF-8, and
// truncates the result to maxRunes. maxRunes <= 0 disables truncation.
func SanitizeInput(s string, maxRunes int) string {
	s = strings.ToValidUTF8(s, "")
	s = strings.TrimSpace(removeControlChars(s))
	if maxRunes > 0 && utf8.RuneCountInString(s) > maxRunes {
		s = string([]rune(s)[:maxRunes])
	}
	return s
}

func removeControlChars(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, s)
}
