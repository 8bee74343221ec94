package validation

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestSanitizeChannelName(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain", "My Room", "My Room"},
		{"strips symbols", "Alex's #Room!", "Alexs Room"},
		{"collapses whitespace", "a   b\t c", "a b c"},
		{"trims", "  padded  ", "padded"},
		{"unicode kept", "Café Lounge", "Café Lounge"},
		{"empty after strip", "###", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SanitizeChannelName(tt.input); got != tt.want {
				t.Errorf("SanitizeChannelName(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestSanitizeChannelNameClampsLength(t *testing.T) {
	long := strings.Repeat("a", 150)
	got := SanitizeChannelName(long)
	if len(got) != ChannelNameMax {
		t.Errorf("expected clamp to %d, got %d", ChannelNameMax, len(got))
	}
}

func TestSanitizeChannelNameClampsMultibyte(t *testing.T) {
	// the clamp counts characters; cutting on a byte index would leave a
	// broken rune at the end
	long := strings.Repeat("é", 150)
	got := SanitizeChannelName(long)
	if !utf8.ValidString(got) {
		t.Fatalf("clamped name is not valid UTF-8: %q", got)
	}
	if n := utf8.RuneCountInString(got); n != ChannelNameMax {
		t.Errorf("expected %d characters, got %d", ChannelNameMax, n)
	}
}

func TestValidateChannelNameCountsCharacters(t *testing.T) {
	// 100 two-byte characters is 200 bytes but still within the limit
	if _, err := ValidateChannelName(strings.Repeat("é", ChannelNameMax)); err != nil {
		t.Errorf("multibyte name at the limit rejected: %v", err)
	}
	if _, err := ValidateChannelName(strings.Repeat("é", ChannelNameMax+1)); err == nil {
		t.Error("expected error past the character limit")
	}
}

func TestValidateChannelName(t *testing.T) {
	if _, err := ValidateChannelName("ok name"); err != nil {
		t.Errorf("valid name rejected: %v", err)
	}
	if _, err := ValidateChannelName("a"); err == nil {
		t.Error("expected error for single-character name")
	}
	if _, err := ValidateChannelName(""); err == nil {
		t.Error("expected error for empty name")
	}
	if _, err := ValidateChannelName(strings.Repeat("x", 101)); err == nil {
		t.Error("expected error for overlong name")
	}
	if _, err := ValidateChannelName("join @everyone"); err == nil {
		t.Error("expected error for mass mention")
	}
	if _, err := ValidateChannelName("discord.gg/abc"); err == nil {
		t.Error("expected error for invite link")
	}
}

func TestValidateUserLimit(t *testing.T) {
	for _, ok := range []string{"0", "1", "99", " 50 "} {
		if _, err := ValidateUserLimit(ok); err != nil {
			t.Errorf("ValidateUserLimit(%q) unexpected error: %v", ok, err)
		}
	}
	for _, bad := range []string{"-1", "100", "abc", ""} {
		if _, err := ValidateUserLimit(bad); err == nil {
			t.Errorf("ValidateUserLimit(%q) expected error", bad)
		}
	}
}

func TestValidateBitrateRange(t *testing.T) {
	if err := ValidateBitrateRange(64, 8, 96); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := ValidateBitrateRange(128, 8, 96); err == nil {
		t.Error("expected error above max")
	}
	if err := ValidateBitrateRange(4, 8, 96); err == nil {
		t.Error("expected error below min")
	}
}

func TestValidateUserID(t *testing.T) {
	if err := ValidateUserID("123456789012345678"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	for _, bad := range []string{"", "12345", "12345678901234567890", "abc456789012345678"} {
		if err := ValidateUserID(bad); err == nil {
			t.Errorf("ValidateUserID(%q) expected error", bad)
		}
	}
}

func TestSanitizeUserID(t *testing.T) {
	if got := SanitizeUserID("<@123456789012345678>"); got != "123456789012345678" {
		t.Errorf("mention not unwrapped, got %q", got)
	}
	if got := SanitizeUserID("<@!123456789012345678>"); got != "123456789012345678" {
		t.Errorf("nickname mention not unwrapped, got %q", got)
	}
	if got := SanitizeUserID("not an id"); got != "" {
		t.Errorf("expected empty result, got %q", got)
	}
}
