package main

import (
	"context"
	"errors"
	"fmt"
	"log"
)

// ErrUnknownIntent signals a classifier/dispatch mismatch. Given the
// classifier's closed set and fallback this is unreachable; if it ever fires
// it is a bug, not a user error.
var ErrUnknownIntent = errors.New("unknown intent")

// Agent turns a query (plus conversation id) into user-facing text for one
// intent. Agents hold no mutable state; each Respond is a pure function of
// its inputs against the generation capability.
type Agent interface {
	Name() string
	Respond(ctx context.Context, query, conversationID string) (string, error)
}

// --- Greeting ---

type GreetingAgent struct {
	gen Generator
}

func NewGreetingAgent(gen Generator) *GreetingAgent { return &GreetingAgent{gen: gen} }

func (a *GreetingAgent) Name() string { return "GreetingAgent" }

func (a *GreetingAgent) Respond(ctx context.Context, query, conversationID string) (string, error) {
	log.Printf("greeting agent query=%.50q conversation=%s", query, conversationID)

	prompt := fmt.Sprintf(`You are a friendly and professional virtual assistant.
The user has greeted you with: "%s"

Respond with a warm, welcoming greeting. Be personable and ask how you can help them.
Keep the response to 1-2 sentences.`, query)

	return a.gen.Generate(ctx, "You are a friendly virtual assistant.", prompt)
}

// --- Research ---

type ResearchAgent struct {
	gen Generator
}

func NewResearchAgent(gen Generator) *ResearchAgent { return &ResearchAgent{gen: gen} }

func (a *ResearchAgent) Name() string { return "ResearchAgent" }

func (a *ResearchAgent) Respond(ctx context.Context, query, conversationID string) (string, error) {
	log.Printf("research agent query=%.50q conversation=%s", query, conversationID)

	prompt := fmt.Sprintf(`You are a research expert with deep knowledge across multiple domains.

The user is asking for research on: %s

Please provide a comprehensive but concise research summary including:
- Key information about the topic
- Recent developments (if applicable)
- Important facts and statistics
- Relevant insights

Keep the response to 2-3 paragraphs maximum and make it informative and well-structured.`, query)

	return a.gen.Generate(ctx, "You are a research expert. Provide accurate, well-researched, and insightful information.", prompt)
}

// --- Email ---

type EmailAgent struct {
	gen Generator
}

func NewEmailAgent(gen Generator) *EmailAgent { return &EmailAgent{gen: gen} }

func (a *EmailAgent) Name() string { return "EmailAgent" }

func (a *EmailAgent) Respond(ctx context.Context, query, conversationID string) (string, error) {
	log.Printf("email agent query=%.50q conversation=%s", query, conversationID)

	prompt := fmt.Sprintf(`You are a professional email writer with expertise in business communication.

User Request: %s

Write a professional email with:
- Clear and professional subject line
- Appropriate greeting
- Well-structured body with clear points
- Professional closing with signature placeholder

The email should be polished, concise, and appropriate for a business context.`, query)

	return a.gen.Generate(ctx, "You are an expert email writer. Create professional, well-structured emails that are clear, concise, and effective.", prompt)
}

// --- Celebration ---

type CelebrationAgent struct {
	gen     Generator
	company string
}

func NewCelebrationAgent(gen Generator, company string) *CelebrationAgent {
	return &CelebrationAgent{gen: gen, company: company}
}

func (a *CelebrationAgent) Name() string { return "CelebrationAgent" }

func (a *CelebrationAgent) Respond(ctx context.Context, query, conversationID string) (string, error) {
	log.Printf("celebration agent query=%.50q conversation=%s", query, conversationID)

	prompt := fmt.Sprintf(`You are the %s Event and Celebration assistant, celebrating employee milestones.

User Request: %s

Create a personalized, warm, and celebratory response. Guidelines:
- Birthdays: fun, cheerful, personalized wishes
- Work anniversaries: professional, appreciative, highlighting contributions
- Promotions and achievements: congratulatory and motivational
- Farewells and retirements: heartfelt and respectful
- Festivals and team events: inclusive and joyful

Rules:
1. Keep posts concise yet meaningful (100-150 words)
2. Use a few appropriate emojis, not excessive
3. Never include age in birthday posts unless specifically requested
4. Incorporate any provided details (name, department, years of service) naturally
5. End with well-wishes and relevant hashtags`, a.company, query)

	system := fmt.Sprintf("You are the %s Event and Celebration assistant. Create warm, personalized, celebratory messages that make employees feel valued.", a.company)
	return a.gen.Generate(ctx, system, prompt)
}
