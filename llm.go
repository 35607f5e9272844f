package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const defaultAnthropicModel = "claude-sonnet-4-5-20250929"
const defaultOpenAIModel = "gpt-4o-mini"

// Generator is the text-generation capability behind the classifier and the
// agents. Implementations must return an error for every failure mode —
// including an empty completion — so callers can tell "no answer" apart from
// "provider unavailable".
type Generator interface {
	Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// NewGenerator picks the provider configured in cfg.
func NewGenerator(cfg Config) Generator {
	switch cfg.LLMProvider {
	case "openai":
		model := cfg.LLMModel
		if model == "" {
			model = defaultOpenAIModel
		}
		return &OpenAIGenerator{APIKey: cfg.OpenAIAPIKey, Model: model}
	default:
		model := cfg.LLMModel
		if model == "" {
			model = defaultAnthropicModel
		}
		return &AnthropicGenerator{APIKey: cfg.AnthropicAPIKey, Model: model}
	}
}

// --- Anthropic ---

type AnthropicGenerator struct {
	APIKey string
	Model  string
}

func (g *AnthropicGenerator) Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	client := anthropic.NewClient(option.WithAPIKey(g.APIKey))

	message, err := client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(g.Model),
		MaxTokens: 2048,
		System: []anthropic.TextBlockParam{
			{Text: systemPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(userPrompt)),
		},
	})
	if err != nil {
		log.Printf("llm anthropic error: %v", err)
		return "", fmt.Errorf("Anthropic API error: %w", err)
	}

	for _, block := range message.Content {
		if block.Type == "text" && block.Text != "" {
			log.Printf("llm anthropic response size=%d tokens_in=%d tokens_out=%d",
				len(block.Text), message.Usage.InputTokens, message.Usage.OutputTokens)
			return block.Text, nil
		}
	}
	return "", fmt.Errorf("no text content in Anthropic response")
}

// --- OpenAI ---

type OpenAIGenerator struct {
	APIKey string
	Model  string
}

type openAIRequest struct {
	Model    string          `json:"model"`
	Messages []openAIMessage `json:"messages"`
}

type openAIMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openAIResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (g *OpenAIGenerator) Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	reqBody := openAIRequest{
		Model: g.Model,
		Messages: []openAIMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", "https://api.openai.com/v1/chat/completions", bytes.NewReader(bodyBytes))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+g.APIKey)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		log.Printf("llm openai error: %v", err)
		return "", fmt.Errorf("OpenAI API error: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading response: %w", err)
	}

	var openAIResp openAIResponse
	if err := json.Unmarshal(respBody, &openAIResp); err != nil {
		return "", fmt.Errorf("parsing OpenAI response: %w", err)
	}

	if openAIResp.Error != nil {
		log.Printf("llm openai api error: %s", openAIResp.Error.Message)
		return "", fmt.Errorf("OpenAI API error: %s", openAIResp.Error.Message)
	}

	if len(openAIResp.Choices) == 0 || openAIResp.Choices[0].Message.Content == "" {
		return "", fmt.Errorf("no choices in OpenAI response")
	}

	log.Printf("llm openai response size=%d", len(openAIResp.Choices[0].Message.Content))
	return openAIResp.Choices[0].Message.Content, nil
}
