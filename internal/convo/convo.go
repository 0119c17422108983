// Package convo renders conversation history into model context and
// composes the final prompt. It performs no I/O; callers fetch turns
// from the store and append new ones after the reply.
package convo

import "strings"

// Turn is one stored exchange line.
type Turn struct {
	Role    string
	Content string
}

// Role values as persisted.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

const (
	// ContextHeader opens every non-empty context block.
	ContextHeader = "Previous conversation:"
	// OmittedMarker replaces trimmed-away older lines, exactly once.
	OmittedMarker = "...[older messages omitted]..."
	// DefaultBudget is the context size ceiling in runes.
	DefaultBudget = 15000
)

// DefaultSystemPrompt frames every chat reply.
const DefaultSystemPrompt = "You are a helpful assistant that provides clear and concise answers.\n" +
	"Be friendly, informative, and respectful in your responses.\n" +
	"If you're unsure about something, admit it rather than making up information."

// renderLine formats one turn as "User: …\n" or "Assistant: …\n".
func renderLine(t Turn) string {
	prefix := "Assistant: "
	if t.Role == RoleUser {
		prefix = "User: "
	}
	return prefix + t.Content + "\n"
}

// RenderContext renders turns chronologically under the header. When
// the full rendering exceeds budget (in runes), the header stays, the
// omission marker is inserted once, and only the maximal trailing
// whole-line slice is kept. The newest line is always kept even if it
// alone overshoots the budget; lines are never cut mid-way. Empty
// history renders to the empty string.
func RenderContext(turns []Turn, budget int) string {
	if len(turns) == 0 {
		return ""
	}
	if budget <= 0 {
		budget = DefaultBudget
	}

	lines := make([]string, len(turns))
	total := len([]rune(ContextHeader)) + 1
	for i, t := range turns {
		lines[i] = renderLine(t)
		total += len([]rune(lines[i]))
	}
	if total <= budget {
		var b strings.Builder
		b.WriteString(ContextHeader)
		b.WriteString("\n")
		for _, l := range lines {
			b.WriteString(l)
		}
		return b.String()
	}

	head := ContextHeader + "\n" + OmittedMarker + "\n"
	remaining := budget - len([]rune(head))
	start := len(lines)
	used := 0
	for i := len(lines) - 1; i >= 0; i-- {
		n := len([]rune(lines[i]))
		// the newest line is taken unconditionally; older lines only
		// while they fit
		if used+n > remaining && start < len(lines) {
			break
		}
		used += n
		start = i
		if used > remaining {
			break
		}
	}
	var b strings.Builder
	b.WriteString(head)
	for _, l := range lines[start:] {
		b.WriteString(l)
	}
	return b.String()
}

// ComposePrompt assembles the full prompt. An empty context omits the
// context block entirely; there is never an empty header section.
func ComposePrompt(systemPrompt, context, message string) string {
	if systemPrompt == "" {
		systemPrompt = DefaultSystemPrompt
	}
	if context != "" {
		return systemPrompt + "\n\n" + context + "\n\nUser: " + message + "\nAssistant:"
	}
	return systemPrompt + "\n\nUser: " + message + "\nAssistant:"
}
