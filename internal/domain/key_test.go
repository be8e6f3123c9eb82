package domain

import (
	"testing"
	"time"
)

func TestAPIKey_IsExpired(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	cases := []struct {
		name      string
		expiresAt *time.Time
		want      bool
	}{
		{"no expiration never expires", nil, false},
		{"future is not expired", ptr(now.Add(time.Hour)), false},
		{"past is expired", ptr(now.Add(-time.Hour)), true},
		// 期限ちょうどは期限切れとみなす
		{"exactly now is expired", ptr(now), true},
		{"one microsecond in the future is not expired", ptr(now.Add(time.Microsecond)), false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			key := APIKey{ExpiresAt: tc.expiresAt}
			if got := key.IsExpired(now); got != tc.want {
				t.Errorf("IsExpired: want %v, got %v", tc.want, got)
			}
		})
	}
}

func ptr(t time.Time) *time.Time {
	return &t
}
