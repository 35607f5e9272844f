package main

import (
	"context"
	"fmt"
	"log"
	"regexp"
	"strings"

	"github.com/slack-go/slack"
	"github.com/slack-go/slack/slackevents"
	"github.com/slack-go/slack/socketmode"
)

var mentionRegex = regexp.MustCompile(`<@[A-Z0-9]+>`)

func StartSlackBot(cfg Config, orch *Orchestrator, api *slack.Client) error {
	client := socketmode.New(api)

	go func() {
		for evt := range client.Events {
			switch evt.Type {
			case socketmode.EventTypeSlashCommand:
				client.Ack(*evt.Request)
				cmd, ok := evt.Data.(slack.SlashCommand)
				if !ok {
					continue
				}
				log.Printf("Slash command received: %s from user=%s channel=%s", cmd.Command, cmd.UserID, cmd.ChannelID)
				go handleSlashCommand(api, orch, cmd)
			case socketmode.EventTypeEventsAPI:
				client.Ack(*evt.Request)
				eventsAPIEvent, ok := evt.Data.(slackevents.EventsAPIEvent)
				if !ok {
					continue
				}
				go handleEventsAPI(api, orch, eventsAPIEvent)
			}
		}
	}()

	log.Println("Slack bot connected via Socket Mode")
	return client.Run()
}

func handleSlashCommand(api *slack.Client, orch *Orchestrator, cmd slack.SlashCommand) {
	switch cmd.Command {
	case "/ask":
		handleAsk(api, orch, cmd)
	case "/help":
		handleHelp(api, cmd)
	}
}

func handleAsk(api *slack.Client, orch *Orchestrator, cmd slack.SlashCommand) {
	query := strings.TrimSpace(cmd.Text)
	if query == "" {
		postEphemeral(api, cmd, "Usage: /ask <your question>\nExample: /ask Who is John Doe?")
		return
	}

	result := orch.Process(context.Background(), query, cmd.ChannelID, cmd.UserID)
	if !result.Success {
		postEphemeral(api, cmd, fmt.Sprintf("Sorry, I couldn't handle that request: %s", result.Error))
		log.Printf("ask failed user=%s request=%s: %s", cmd.UserID, result.RequestID, result.Error)
		return
	}

	_, _, err := api.PostMessage(cmd.ChannelID, slack.MsgOptionText(result.Response, false))
	if err != nil {
		log.Printf("ask post error user=%s channel=%s: %v", cmd.UserID, cmd.ChannelID, err)
		postEphemeral(api, cmd, result.Response)
	}
}

func handleHelp(api *slack.Client, cmd slack.SlashCommand) {
	help := "Hi! I'm AssistBot. Ask me anything with `/ask <question>`, mention me in a channel, or DM me directly.\n\n" +
		"I can:\n" +
		"• Look up employee records (\"Who is John Doe?\", \"List employees in Engineering\")\n" +
		"• Draft professional emails (\"Write an email to the team about the launch\")\n" +
		"• Create celebration posts (\"Create a birthday post for Sarah\")\n" +
		"• Research topics (\"Tell me about Kubernetes\")"
	postEphemeral(api, cmd, help)
}

func handleEventsAPI(api *slack.Client, orch *Orchestrator, event slackevents.EventsAPIEvent) {
	if event.Type != slackevents.CallbackEvent {
		return
	}
	switch ev := event.InnerEvent.Data.(type) {
	case *slackevents.AppMentionEvent:
		handleAppMention(api, orch, ev)
	case *slackevents.MessageEvent:
		handleDirectMessage(api, orch, ev)
	}
}

func handleAppMention(api *slack.Client, orch *Orchestrator, ev *slackevents.AppMentionEvent) {
	query := strings.TrimSpace(mentionRegex.ReplaceAllString(ev.Text, ""))
	if query == "" {
		return
	}
	log.Printf("app mention user=%s channel=%s", ev.User, ev.Channel)

	result := orch.Process(context.Background(), query, ev.Channel, ev.User)
	postResult(api, ev.Channel, result)
}

func handleDirectMessage(api *slack.Client, orch *Orchestrator, ev *slackevents.MessageEvent) {
	// Only plain user DMs: skip bots, edits, thread broadcasts and the like.
	if ev.ChannelType != "im" || ev.BotID != "" || ev.SubType != "" {
		return
	}
	query := strings.TrimSpace(ev.Text)
	if query == "" {
		return
	}
	log.Printf("direct message user=%s channel=%s", ev.User, ev.Channel)

	result := orch.Process(context.Background(), query, ev.Channel, ev.User)
	postResult(api, ev.Channel, result)
}

func postResult(api *slack.Client, channelID string, result Result) {
	text := result.Response
	if !result.Success {
		text = fmt.Sprintf("Sorry, I couldn't handle that request: %s", result.Error)
	}
	_, _, err := api.PostMessage(channelID, slack.MsgOptionText(text, false))
	if err != nil {
		log.Printf("Error posting message channel=%s: %v", channelID, err)
	}
}

func postEphemeral(api *slack.Client, cmd slack.SlashCommand, text string) {
	_, err := api.PostEphemeral(cmd.ChannelID, cmd.UserID, slack.MsgOptionText(text, false))
	if err != nil {
		log.Printf("Error posting ephemeral: %v", err)
	}
}
