package rag

import (
	"context"
	"fmt"
	"strings"

	"github.com/nam-htran/DomainAIAgent/internal/contextutil"
)

// maxFollowUps is the fixed number of follow-up questions surfaced to the
// caller, however many the model produced.
const maxFollowUps = 3

const suggestPromptFormat = "Based on the following answer, suggest %d short follow-up questions the user might want to ask next:\n\n%s"

// suggestFollowUps asks the utility model for follow-up questions derived
// from the answer. Suggestions are best-effort: a failed call degrades to an
// empty list instead of failing the whole response.
func (e *ragEngine) suggestFollowUps(ctx context.Context, answer string) []string {
	logger := contextutil.LoggerFromContext(ctx)

	prompt := fmt.Sprintf(suggestPromptFormat, maxFollowUps, answer)
	raw, err := e.generator.Generate(ctx, prompt, "", e.opts.UtilityModel)
	if err != nil {
		logger.WarnContext(ctx, "follow-up suggestion call failed", "error", err)
		return nil
	}

	return parseSuggestions(raw)
}

// parseSuggestions extracts suggestion lines from a free-text response:
// strip leading bullet and number markers line by line, drop empties, and
// truncate to maxFollowUps.
func parseSuggestions(raw string) []string {
	var suggestions []string
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		line = strings.TrimLeft(line, "-•*0123456789.) ")
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		suggestions = append(suggestions, line)
		if len(suggestions) == maxFollowUps {
			break
		}
	}
	return suggestions
}
