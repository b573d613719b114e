package format

import "testing"

func TestEscapeHTML(t *testing.T) {
	if got := EscapeHTML(`<a href="x">&</a>`); got != "&lt;a href=&#34;x&#34;&gt;&amp;&lt;/a&gt;" {
		t.Fatalf("escape = %q", got)
	}
	if got := Bold("a<b"); got != "<b>a&lt;b</b>" {
		t.Fatalf("bold = %q", got)
	}
}

func TestOrDash(t *testing.T) {
	if OrDash("  ") != "—" || OrDash(" x ") != "x" {
		t.Fatal("unexpected OrDash result")
	}
}
