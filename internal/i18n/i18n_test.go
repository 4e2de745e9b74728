package i18n

import "testing"

func TestMatch(t *testing.T) {
	tests := []struct {
		header string
		want   string
	}{
		{"", "ar"},
		{"en-US,en;q=0.9", "en"},
		{"ar-SA", "ar"},
		{"fr-FR", "ar"},
		{"fr;q=0.9, en;q=0.8", "en"},
	}
	for _, tt := range tests {
		if got := Match(tt.header); got.String() != tt.want {
			t.Errorf("Match(%q) = %s, want %s", tt.header, got, tt.want)
		}
	}
}

func TestMessage(t *testing.T) {
	if got := Message(English, "not_found"); got != "Not found" {
		t.Errorf("english not_found = %q", got)
	}
	if got := Message(Arabic, "not_found"); got != "العنصر غير موجود" {
		t.Errorf("arabic not_found = %q", got)
	}
	if got := Message(English, "no_such_code"); got != "no_such_code" {
		t.Errorf("unknown code = %q", got)
	}
}
