package llm

import "strings"

const fence = "```"

// StripCodeFence removes a markdown code fence (with optional language tag)
// wrapping the reply and trims surrounding whitespace. Applying it twice
// gives the same result as applying it once.
func StripCodeFence(s string) string {
	for {
		stripped := stripFenceOnce(s)
		if stripped == s {
			return stripped
		}
		s = stripped
	}
}

func stripFenceOnce(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, fence) {
		// The opening line holds the fence and an optional language tag.
		if i := strings.IndexByte(s, '\n'); i >= 0 {
			s = s[i+1:]
		} else {
			s = strings.TrimPrefix(s, fence)
		}
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, fence)
	return strings.TrimSpace(s)
}
