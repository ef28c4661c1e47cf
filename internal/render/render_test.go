package render

import (
	"strings"
	"testing"
)

func TestTruncate(t *testing.T) {
	tests := []struct {
		in   string
		max  int
		want string
	}{
		{"short", 10, "short"},
		{"exactly-ten", 11, "exactly-ten"},
		{"a much longer subject line", 10, "a much ..."},
		{"abc", 3, "abc"},
		{"abcd", 3, "abc"},
	}

	for _, tt := range tests {
		if got := Truncate(tt.in, tt.max); got != tt.want {
			t.Errorf("Truncate(%q, %d) = %q, want %q", tt.in, tt.max, got, tt.want)
		}
	}
}

func TestShortID(t *testing.T) {
	if got := ShortID("18c2f4a9b0d1"); got != "18c2f4a9..." {
		t.Errorf("ShortID() = %q", got)
	}
	if got := ShortID("short"); got != "short" {
		t.Errorf("ShortID() = %q, want unmodified short ID", got)
	}
}

func TestJoinLimited(t *testing.T) {
	items := []string{"INBOX", "UNREAD", "IMPORTANT", "STARRED"}
	if got := JoinLimited(items, 3); got != "INBOX, UNREAD, IMPORTANT..." {
		t.Errorf("JoinLimited() = %q", got)
	}
	if got := JoinLimited(items[:2], 3); got != "INBOX, UNREAD" {
		t.Errorf("JoinLimited() = %q", got)
	}
}

func TestTable_ContainsHeadersAndRows(t *testing.T) {
	out := Table("Recent Emails",
		[]string{"ID", "Subject"},
		[][]string{
			{"abc123", "Hello"},
			{"def456", "World"},
		})

	for _, want := range []string{"Recent Emails", "ID", "Subject", "abc123", "Hello", "def456", "World"} {
		if !strings.Contains(out, want) {
			t.Errorf("table output missing %q:\n%s", want, out)
		}
	}

	if lines := strings.Count(out, "\n"); lines < 3 {
		t.Errorf("table has %d lines, want header plus two rows", lines)
	}
}

func TestPanel_ContainsFieldsAndBody(t *testing.T) {
	out := Panel("Email",
		[][2]string{{"From", "alice@example.com"}, {"Subject", "Hi"}},
		"body text")

	for _, want := range []string{"Email", "From", "alice@example.com", "Subject", "body text"} {
		if !strings.Contains(out, want) {
			t.Errorf("panel output missing %q:\n%s", want, out)
		}
	}
}
