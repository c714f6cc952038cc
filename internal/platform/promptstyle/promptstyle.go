package promptstyle

import "strings"

const marker = "LUMINAR_PROMPT_STYLE_V1"

type Mode string

const (
	ModeJSON  Mode = "json"
	ModeProse Mode = "prose"
)

// ApplySystem prepends the shared guidance block to a system prompt. It is
// idempotent and leaves an empty prompt empty.
func ApplySystem(system string, mode Mode) string {
	base := strings.TrimSpace(system)
	if base == "" || strings.Contains(base, marker) {
		return base
	}

	var b strings.Builder
	b.WriteString(marker)
	b.WriteString("\nYou are a study assistant for Luminar.")
	if summary := firstLine(base); summary != "" {
		b.WriteString("\nTask summary: " + summary)
	}
	b.WriteString("\nGround every statement in the student's materials; do not invent facts or citations.")
	switch mode {
	case ModeJSON:
		b.WriteString("\nReturn a single JSON object and nothing else.")
	default:
		b.WriteString("\nWrite plain prose without headings or markdown.")
	}
	b.WriteString("\n---\n")
	b.WriteString(base)
	return b.String()
}

func firstLine(s string) string {
	for _, line := range strings.Split(s, "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			return trimmed
		}
	}
	return ""
}
