package rag

import (
	"fmt"
	"strings"
)

// contextSeparator delimits documents inside the grounding block. Rank order
// is presentation order.
const contextSeparator = "\n\n---\n\n"

const fallbackSystemPrompt = "You are a helpful AI assistant. Answer the user's question directly."

const groundedSystemPrompt = "Use the context provided below to answer the user's question accurately and in detail. " +
	"If the information is not present in the context, say that you could not find it in the provided documents."

const rewriteSystemPrompt = "You are an expert at rewriting questions."

// buildGroundedPrompt assembles the context block and the standalone
// question into the final generation prompt.
func buildGroundedPrompt(texts []string, standaloneQuery string) string {
	context := strings.Join(texts, contextSeparator)
	return fmt.Sprintf("Context:\n%s\n\nQuestion:\n%s", context, standaloneQuery)
}
