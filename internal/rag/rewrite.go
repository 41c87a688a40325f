package rag

import (
	"context"
	"fmt"
	"strings"

	"github.com/nam-htran/DomainAIAgent/internal/session"
)

// historyWindow bounds how many recent turns feed the rewrite prompt.
// Recency-bounded, not full history, to keep the prompt cheap.
const historyWindow = 3

const rewritePromptFormat = `Based on the conversation history below and the follow-up question, rewrite the follow-up question as a standalone question that is fully meaningful without the history.

Conversation history:
%s

Follow-up question: %q

Requirements:
- If the follow-up question is already self-contained, return it unchanged.
- If it is short or referential (e.g. "Tell me more", "Why is that?", "What is it?"), rewrite it concretely.
- Return only the rewritten question, with no explanation.

Standalone question:`

// rewriteStandalone turns a context-dependent follow-up into a standalone
// question using the most recent turns. The caller must only invoke it when
// history exists; on the first turn the raw query is used verbatim.
func (e *ragEngine) rewriteStandalone(ctx context.Context, turns []session.Turn, query string) (string, error) {
	window := turns
	if len(window) > historyWindow {
		window = window[len(window)-historyWindow:]
	}

	lines := make([]string, len(window))
	for i, turn := range window {
		lines[i] = fmt.Sprintf("%s: %s", turn.Role, turn.Content)
	}

	prompt := fmt.Sprintf(rewritePromptFormat, strings.Join(lines, "\n"), query)

	rewritten, err := e.generator.Generate(ctx, prompt, rewriteSystemPrompt, e.opts.UtilityModel)
	if err != nil {
		return "", externalErr("rewrite", err)
	}

	rewritten = strings.TrimSpace(rewritten)
	if rewritten == "" {
		// A degenerate rewrite falls back to the raw query rather than
		// searching for nothing.
		return query, nil
	}
	return rewritten, nil
}
