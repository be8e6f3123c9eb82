package domain

import (
	"strings"
	"testing"
)

func TestPlatformType_IsValid(t *testing.T) {
	cases := []struct {
		platform PlatformType
		want     bool
	}{
		{PlatformTwitter, true},
		{PlatformLinkedIn, true},
		{PlatformOpenAI, true},
		{PlatformFacebook, true},
		{PlatformInstagram, true},
		{PlatformType("myspace"), false},
		{PlatformType(""), false},
		{PlatformType("Twitter"), false}, // 大文字は不可
	}

	for _, tc := range cases {
		if got := tc.platform.IsValid(); got != tc.want {
			t.Errorf("IsValid(%q): want %v, got %v", tc.platform, tc.want, got)
		}
	}
}

func TestValidateContent(t *testing.T) {
	cases := []struct {
		name     string
		platform PlatformType
		content  string
		wantErr  bool
	}{
		{"twitter within limit", PlatformTwitter, strings.Repeat("a", 280), false},
		{"twitter over limit", PlatformTwitter, strings.Repeat("a", 281), true},
		{"linkedin within limit", PlatformLinkedIn, strings.Repeat("a", 3000), false},
		{"linkedin over limit", PlatformLinkedIn, strings.Repeat("a", 3001), true},
		{"instagram over limit", PlatformInstagram, strings.Repeat("a", 2201), true},
		{"facebook within limit", PlatformFacebook, strings.Repeat("a", 63206), false},
		{"openai has no limit", PlatformOpenAI, strings.Repeat("a", 100000), false},
		{"empty content always valid", PlatformTwitter, "", false},
		// マルチバイト文字はルーン単位で数える
		{"multibyte counted as runes", PlatformTwitter, strings.Repeat("あ", 280), false},
		{"multibyte over limit", PlatformTwitter, strings.Repeat("あ", 281), true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateContent(tc.content, tc.platform)
			if tc.wantErr && err != ErrContentTooLong {
				t.Errorf("want ErrContentTooLong, got %v", err)
			}
			if !tc.wantErr && err != nil {
				t.Errorf("want nil, got %v", err)
			}
		})
	}
}
