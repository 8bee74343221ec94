package validation

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"
)

var (
	// UserIDRegex validates platform snowflake ids (17-19 digits).
	UserIDRegex = regexp.MustCompile(`^\d{17,19}$`)

	// channelNameAllowed keeps letters, digits, spaces, hyphens and
	// underscores; everything else is stripped during sanitization.
	channelNameAllowed = regexp.MustCompile(`[^\p{L}\p{N}\s\-_]`)

	multiSpace = regexp.MustCompile(`\s+`)

	// forbiddenNamePatterns rejects names that smuggle mentions or invite
	// links past sanitization.
	forbiddenNamePatterns = regexp.MustCompile("(?i)<|>|@everyone|@here|```|discord\\.gg")
)

const (
	ChannelNameMin = 2
	ChannelNameMax = 100
)

// SanitizeChannelName strips disallowed characters and collapses whitespace.
// The result still needs ValidateChannelName; sanitization alone does not
// guarantee the length bounds.
func SanitizeChannelName(name string) string {
	name = strings.TrimSpace(name)
	name = channelNameAllowed.ReplaceAllString(name, "")
	name = multiSpace.ReplaceAllString(name, " ")
	name = strings.TrimSpace(name)
	// the platform limit counts characters, and a byte slice could split a
	// multibyte rune
	if utf8.RuneCountInString(name) > ChannelNameMax {
		name = strings.TrimSpace(string([]rune(name)[:ChannelNameMax]))
	}
	return name
}

// ValidateChannelName checks the [2,100] bound and forbidden patterns,
// returning the trimmed name.
func ValidateChannelName(name string) (string, error) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return "", fmt.Errorf("channel name is required")
	}
	if utf8.RuneCountInString(trimmed) < ChannelNameMin {
		return "", fmt.Errorf("channel name must be at least %d characters", ChannelNameMin)
	}
	if utf8.RuneCountInString(trimmed) > ChannelNameMax {
		return "", fmt.Errorf("channel name is too long (max %d characters)", ChannelNameMax)
	}
	if forbiddenNamePatterns.MatchString(trimmed) {
		return "", fmt.Errorf("channel name contains forbidden characters or patterns")
	}
	return trimmed, nil
}

// ValidateUserLimit parses and checks a user limit in [0,99]; 0 means
// unlimited.
func ValidateUserLimit(input string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(input))
	if err != nil {
		return 0, fmt.Errorf("user limit must be a number")
	}
	if n < 0 {
		return 0, fmt.Errorf("user limit cannot be negative")
	}
	if n > 99 {
		return 0, fmt.Errorf("user limit cannot exceed 99")
	}
	return n, nil
}

// ValidateBitrateRange checks a bitrate against the platform range, in kbps.
func ValidateBitrateRange(kbps, min, max int) error {
	if kbps < min || kbps > max {
		return fmt.Errorf("bitrate must be between %d and %d kbps", min, max)
	}
	return nil
}

// ValidateUserID checks the structural shape of a user id.
func ValidateUserID(id string) error {
	if id == "" {
		return fmt.Errorf("user id is required")
	}
	if !UserIDRegex.MatchString(id) {
		return fmt.Errorf("invalid user id format")
	}
	return nil
}

// SanitizeUserID strips mention decoration (<@...>) and any other non-digit
// characters, returning "" when the remainder is not a structurally valid id.
func SanitizeUserID(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	cleaned := b.String()
	if !UserIDRegex.MatchString(cleaned) {
		return ""
	}
	return cleaned
}
