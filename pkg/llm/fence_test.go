package llm

import "testing"

func TestStripCodeFence(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain", "SELECT 1", "SELECT 1"},
		{"surrounding whitespace", "\n  SELECT 1;  \n", "SELECT 1;"},
		{"sql fence", "```sql\nSELECT * FROM users\n```", "SELECT * FROM users"},
		{"bare fence", "```\nSELECT 1\n```", "SELECT 1"},
		{"uppercase tag", "```SQL\nSELECT 1\n```", "SELECT 1"},
		{"single line fence", "```SELECT 1```", "SELECT 1"},
		{"unterminated fence", "```sql\nSELECT 1", "SELECT 1"},
		{"multiline body", "```sql\nSELECT a\nFROM t\nWHERE x = 1\n```\n", "SELECT a\nFROM t\nWHERE x = 1"},
		{"only fence", "```\n```", ""},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := StripCodeFence(tt.input)
			if got != tt.want {
				t.Errorf("StripCodeFence(%q) = %q, want %q", tt.input, got, tt.want)
			}
			if again := StripCodeFence(got); again != got {
				t.Errorf("not idempotent: %q then %q", got, again)
			}
		})
	}
}

func TestStripCodeFence_NestedFences(t *testing.T) {
	input := "```\n```sql\nSELECT 1\n```\n```"
	got := StripCodeFence(input)
	if got != "SELECT 1" {
		t.Errorf("expected nested fences to be removed, got %q", got)
	}
	if StripCodeFence(got) != got {
		t.Error("not idempotent")
	}
}
