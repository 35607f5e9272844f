package main

import "time"

// Intent is the closed set of request categories the classifier can assign.
type Intent string

const (
	IntentGreeting    Intent = "greeting"
	IntentRecord      Intent = "record_lookup"
	IntentCelebration Intent = "celebration"
	IntentEmail       Intent = "email"
	IntentResearch    Intent = "research"
)

// ParseIntent maps a raw classifier token onto the closed intent set.
func ParseIntent(s string) (Intent, bool) {
	switch Intent(s) {
	case IntentGreeting, IntentRecord, IntentCelebration, IntentEmail, IntentResearch:
		return Intent(s), true
	}
	return "", false
}

// Classification is the classifier's verdict for one query. Never mutated
// after creation; cached as-is.
type Classification struct {
	Intent     Intent    `json:"intent"`
	Confidence float64   `json:"confidence"`
	DetectedAt time.Time `json:"detected_at"`
}

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
	Agent   string `json:"agent,omitempty"`
}

// Result is the outcome of one Process call. It is built once and returned;
// failures are carried in Error rather than raised.
type Result struct {
	Success         bool      `json:"success"`
	ConversationID  string    `json:"conversation_id"`
	RequestID       string    `json:"request_id"`
	UserQuery       string    `json:"user_query"`
	Intent          Intent    `json:"intent,omitempty"`
	AgentName       string    `json:"agent,omitempty"`
	Response        string    `json:"response,omitempty"`
	Error           string    `json:"error,omitempty"`
	ServedFromCache bool      `json:"from_cache"`
	Messages        []Message `json:"messages,omitempty"`
	Timestamp       time.Time `json:"timestamp"`
}

// Employee is a structured record. Attributes holds the free-form fields
// (Name, Position, Department, ...); ETag rotates on every successful write
// and is compared-and-swapped by Replace.
type Employee struct {
	ID           string
	Attributes   map[string]any
	ETag         string
	LastModified time.Time
}

// Attr returns a string attribute, or "" when absent or non-string.
func (e Employee) Attr(name string) string {
	if v, ok := e.Attributes[name].(string); ok {
		return v
	}
	return ""
}
