package qr

import "testing"

func TestNormalize(t *testing.T) {
	tests := []struct {
		raw      string
		expected string
	}{
		{"ab12-CD", "AB12CD"},
		{"AB12CD", "AB12CD"},
		{"  ab12cd  ", "AB12CD"},
		{"https://stckr.example/qr/ab12-CD", "AB12CD"},
		{"https://stckr.example/qr/ab12-CD/", "AB12CD"},
		{"https://stckr.example/claim?code=ab12cd", "AB12CD"},
		{"https://stckr.example/claim?qr=ab12cd", "AB12CD"},
		{"https://stckr.example/claim?codeId=ab12cd", "AB12CD"},
		{"https://stckr.example/claim?qrCodeId=ab12cd", "AB12CD"},
		// "code" wins over later parameter names.
		{"https://stckr.example/claim?qr=wrong1&code=right2", "RIGHT2"},
		// Query parameter beats path segment.
		{"https://stckr.example/qr/path9?code=query7", "QUERY7"},
		{"ab12cd?utm_source=sticker", "AB12CD"},
		{"ab12cd#fragment", "AB12CD"},
		{"nalepka://qr?code=ab12cd", "AB12CD"},
		{"", ""},
		{"   ", ""},
		{"---", ""},
		{"https://stckr.example/", ""},
	}

	for _, tt := range tests {
		if got := Normalize(tt.raw); got != tt.expected {
			t.Errorf("Normalize(%q) = %q, want %q", tt.raw, got, tt.expected)
		}
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	inputs := []string{
		"ab12-CD",
		"https://stckr.example/qr/ab12-CD",
		"nalepka://qr?code=ab12cd",
		"!!weird--input??",
		"",
	}

	for _, raw := range inputs {
		once := Normalize(raw)
		twice := Normalize(once)
		if once != twice {
			t.Errorf("Normalize not idempotent for %q: %q != %q", raw, once, twice)
		}
	}
}
