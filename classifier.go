package main

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"
)

const intentSystemPrompt = `You are a precise intent classifier. CRITICAL: Only classify as 'email' if the word 'email' or 'letter' is explicitly mentioned. If the user says 'post', 'wishes', 'celebration', 'announcement' classify as 'celebration' NOT 'email'. Return only the category name in lowercase.`

// Classifier maps a free-text query onto the closed intent set with a single
// LLM call. It never fails: every provider error or malformed completion
// falls back to research, trading precision for availability.
type Classifier struct {
	gen Generator
}

func NewClassifier(gen Generator) *Classifier {
	return &Classifier{gen: gen}
}

func (c *Classifier) Classify(ctx context.Context, query string) Classification {
	raw, err := c.gen.Generate(ctx, intentSystemPrompt, buildIntentPrompt(query))
	if err != nil {
		// Infrastructure failure, not ambiguity; logged distinctly so the two
		// are separable even though the user-facing behavior is the same.
		log.Printf("intent classify error (falling back to %s): %v", IntentResearch, err)
		return fallbackClassification()
	}

	token := strings.ToLower(strings.Trim(strings.TrimSpace(raw), "`'\"."))
	intent, ok := ParseIntent(token)
	if !ok {
		log.Printf("intent classify unexpected token %q (falling back to %s)", token, IntentResearch)
		return fallbackClassification()
	}

	return Classification{Intent: intent, Confidence: 1.0, DetectedAt: time.Now().UTC()}
}

func fallbackClassification() Classification {
	return Classification{Intent: IntentResearch, Confidence: 0, DetectedAt: time.Now().UTC()}
}

func buildIntentPrompt(query string) string {
	return fmt.Sprintf(`You are an expert intent classifier. Your task is to classify user messages into exactly ONE category.

User Message: "%s"

CLASSIFICATION RULES - Apply in this order:
1. 'greeting' - ONLY simple greetings, small talk, or conversation starters (no other activities mentioned)
   Examples: "Hello", "Hi", "Hey", "How are you?", "Good morning", "What's up?"

2. 'record_lookup' - Requests about employee data, staff information, company records, or any record operations
   Examples: "Who is John?", "List employees", "Show me John's details", "Get 5 random employees", "Employee EMP123 details", "Add new employee", "Delete employee EMP123"

3. 'celebration' - Requests to create celebration posts, announcements, wishes for birthdays, anniversaries, promotions, achievements, festivals, events
   Keywords: "create post", "birthday post", "celebration", "anniversary", "promotion", "achievement", "festival", "congratulate", "celebrate", "wish"
   IMPORTANT: If the user mentions "post", "celebration", "birthday", "anniversary", "festival", "achievement" - classify as 'celebration' NOT 'email'

4. 'email' - ONLY requests that explicitly mention "email" or "letter" in the context of writing/composing/drafting
   Keywords: "write email", "compose email", "draft email", "send email", "email to", "write a letter"
   IMPORTANT: Must explicitly say "email" or "letter" - if it says "post", "wishes", "announcement" it is NOT email

5. 'research' - Requests for information, explanations, research, or knowledge about topics
   Examples: "Tell me about AI", "Explain machine learning", "What is Python?"

CRITICAL DISTINCTION:
- "create a birthday POST" = celebration (NOT email)
- "write birthday WISHES" = celebration (NOT email)
- "write an EMAIL for birthday" = email (explicitly mentions email)

Return ONLY ONE word in lowercase: greeting, email, record_lookup, celebration, or research.
Do NOT include explanations, examples, or any other text.

Your response:`, query)
}
