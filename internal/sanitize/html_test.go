package sanitize

import (
	"strings"
	"testing"
)

func TestText_RemovesAllHTML(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"script tag", `Great mentors <script>alert('xss')</script>`, `Great mentors`},
		{"inline event handler", `<div onclick="alert('xss')">Long hours</div>`, `Long hours`},
		{"mixed tags", `<b>Bold</b> <i>Italic</i>`, `Bold Italic`},
		{"entities decoded", `Pay &amp; perks`, `Pay & perks`},
		{"ampersand kept", `R&D team`, `R&D team`},
		{"whitespace trimmed", "  fine  ", "fine"},
		{"image with onerror", `<img src=x onerror="alert('xss')">`, ``},
		{"empty string", ``, ``},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Text(tt.input); got != tt.expected {
				t.Errorf("Text(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestPost_KeepsFormattingDropsScripts(t *testing.T) {
	got := Post(`<p>Start <strong>early</strong></p><script>alert(1)</script><a href="https://example.com" onclick="x()">guide</a>`)

	for _, want := range []string{"<p>", "<strong>early</strong>", `href="https://example.com"`, `rel="nofollow`} {
		if !strings.Contains(got, want) {
			t.Errorf("Post output %q should contain %q", got, want)
		}
	}
	for _, banned := range []string{"<script", "onclick", "alert"} {
		if strings.Contains(got, banned) {
			t.Errorf("Post output %q should not contain %q", got, banned)
		}
	}
}

func TestPost_DropsJavascriptLinks(t *testing.T) {
	got := Post(`<a href="javascript:alert(1)">click</a>`)
	if strings.Contains(got, "javascript") {
		t.Errorf("Post output %q should drop javascript URL", got)
	}
}

func TestTextPtr(t *testing.T) {
	if TextPtr(nil) != nil {
		t.Fatal("nil should stay nil")
	}
	in := " <b>hi</b> "
	if got := TextPtr(&in); *got != "hi" {
		t.Errorf("TextPtr = %q", *got)
	}
}

func BenchmarkText_ShortString(b *testing.B) {
	for i := 0; i < b.N; i++ {
		_ = Text(`Hello <b>World</b>`)
	}
}
