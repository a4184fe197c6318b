package shared

import "time"

// TokenUsage is the token count reported by a recipe draft or clip summary.
// It is stored per call by the metrics store.
type TokenUsage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
	Model            string
}

// AgentMeta describes one LLM call made for a recipe, e.g. by the
// RecipeDrafter, and is what the app hands to its MetricsRecorder.
type AgentMeta struct {
	AgentName string
	Usage     TokenUsage
	Latency   time.Duration
}
