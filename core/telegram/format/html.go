// Package format holds text helpers for Telegram HTML parse mode.
package format

import (
	"html"
	"strconv"
	"strings"
)

// EscapeHTML escapes text for Telegram HTML parse mode.
func EscapeHTML(s string) string {
	return html.EscapeString(s)
}

// Bold wraps escaped s in <b> tags.
func Bold(s string) string {
	return "<b>" + EscapeHTML(s) + "</b>"
}

// OrDash returns s trimmed, or "—" when empty.
func OrDash(s string) string {
	if s = strings.TrimSpace(s); s == "" {
		return "—"
	}
	return s
}

// Int formats n in base 10.
func Int(n int64) string {
	return strconv.FormatInt(n, 10)
}
