package converter

import "testing"

func TestSanitizeTextEscapesHTML(t *testing.T) {
	got := SanitizeText("<script>alert('hi')</script>")
	want := "&lt;script&gt;alert(&#39;hi&#39;)&lt;/script&gt;"
	if got != want {
		t.Fatalf("SanitizeText() = %q, want %q", got, want)
	}
}

func TestSanitizeTextStripsControlCharsButKeepsNewlineAndTab(t *testing.T) {
	got := SanitizeText("hello\x00world\nnext\tline\x01")
	want := "helloworld\nnext\tline"
	if got != want {
		t.Fatalf("SanitizeText() = %q, want %q", got, want)
	}
}

func TestSanitizeTextTrimsWhitespace(t *testing.T) {
	got := SanitizeText("   padded text   ")
	if got != "padded text" {
		t.Fatalf("SanitizeText() = %q, want %q", got, "padded text")
	}
}
