package markdown

import "testing"

func TestEscapeV2(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"plain text", "plain text"},
		{"report_v1.pdf", `report\_v1\.pdf`},
		{"Page 1: (draft)!", `Page 1: \(draft\)\!`},
		{`C:\docs`, `C:\\docs`},
		{"Дата: 1.2", `Дата: 1\.2`},
	}

	for _, tt := range tests {
		if got := EscapeV2(tt.in); got != tt.want {
			t.Errorf("EscapeV2(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestEscapeCode(t *testing.T) {
	if got := EscapeCode("a_b `c` \\d"); got != "a_b \\`c\\` \\\\d" {
		t.Fatalf("unexpected escape: %q", got)
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in    string
		limit int
		want  string
	}{
		{"short", 10, "short"},
		{"exactly", 7, "exactly"},
		{"too long text", 8, "too lon…"},
		{"word and space", 6, "word…"},
		{"привет мир", 4, "при…"},
		{"abc", 1, "…"},
		{"abc", 0, ""},
	}

	for _, tt := range tests {
		if got := Truncate(tt.in, tt.limit); got != tt.want {
			t.Errorf("Truncate(%q, %d) = %q, want %q", tt.in, tt.limit, got, tt.want)
		}
	}
}
