package format

import "testing"

func TestEscapeMarkdownV2(t *testing.T) {
	got, err := EscapeMarkdown("1000.0 (a_b) #x!", MarkdownV2)
	if err != nil {
		t.Fatalf("escape: %v", err)
	}
	want := `1000\.0 \(a\_b\) \#x\!`
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestEscapeMarkdownV1(t *testing.T) {
	got, err := EscapeMarkdown("a_b*c[d]", MarkdownV1)
	if err != nil {
		t.Fatalf("escape: %v", err)
	}
	if want := `a\_b\*c\[d]`; got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
	if _, err := EscapeMarkdown("x", 3); err == nil {
		t.Fatal("expected error for unknown version")
	}
}

func TestPreBlock(t *testing.T) {
	got := PreBlock("ID  Income\n1   5.0 `x` \\")
	want := "```\nID  Income\n1   5.0 \\`x\\` \\\\\n```"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}
