package main

import (
	"context"
	"testing"
	"time"
)

// fakeGenerator scripts Generate responses for tests. If respond is set it
// drives the output; otherwise response/err are returned verbatim, after an
// optional delay.
type fakeGenerator struct {
	response string
	err      error
	respond  func(systemPrompt, userPrompt string) (string, error)
	delay    time.Duration
	calls    int
}

func (g *fakeGenerator) Generate(_ context.Context, systemPrompt, userPrompt string) (string, error) {
	g.calls++
	if g.delay > 0 {
		time.Sleep(g.delay)
	}
	if g.respond != nil {
		return g.respond(systemPrompt, userPrompt)
	}
	return g.response, g.err
}

func TestNewGeneratorSelectsProvider(t *testing.T) {
	gen := NewGenerator(Config{LLMProvider: "anthropic", AnthropicAPIKey: "k"})
	ag, ok := gen.(*AnthropicGenerator)
	if !ok {
		t.Fatalf("expected AnthropicGenerator, got %T", gen)
	}
	if ag.Model != defaultAnthropicModel {
		t.Errorf("expected default model, got %q", ag.Model)
	}

	gen = NewGenerator(Config{LLMProvider: "openai", OpenAIAPIKey: "k", LLMModel: "gpt-4o"})
	og, ok := gen.(*OpenAIGenerator)
	if !ok {
		t.Fatalf("expected OpenAIGenerator, got %T", gen)
	}
	if og.Model != "gpt-4o" {
		t.Errorf("configured model not honored, got %q", og.Model)
	}
}
