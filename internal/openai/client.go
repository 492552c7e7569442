package openai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

// Client wraps the OpenAI SDK for the agenda bot and notifier.
type Client struct {
	client *openai.Client
	model  openai.ChatModel
}

var (
	// ErrClientNotInitialised is returned when attempting to call the API without a configured client.
	ErrClientNotInitialised = errors.New("openai client not initialised")
	// ErrEmptyContent is returned for blank input.
	ErrEmptyContent = errors.New("content cannot be empty")
)

// fallbackLength bounds Summarize output when no API key is configured.
const fallbackLength = 160

// Intent represents the high-level action inferred from a user message.
type Intent string

const (
	// IntentUnknown indicates the message intent could not be resolved.
	IntentUnknown Intent = "unknown"
	// IntentAddReminder instructs the bot to capture a new reminder.
	IntentAddReminder Intent = "add_reminder"
	// IntentListReminders asks the bot to list pending reminders.
	IntentListReminders Intent = "list_reminders"
	// IntentCompleteReminder marks listed reminders as done.
	IntentCompleteReminder Intent = "complete_reminder"
	// IntentToday asks for today's ranked agenda.
	IntentToday Intent = "today"
	// IntentHelp asks for usage guidance.
	IntentHelp Intent = "help"
)

// prompt is one single-turn chat completion.
type prompt struct {
	system      string
	temperature float64
	maxTokens   int64
	timeout     time.Duration
}

var (
	summarizePrompt = prompt{
		system:      "You condense a personal agenda into a short friendly WhatsApp message. Keep every time and title.",
		temperature: 0.3,
		maxTokens:   200,
		timeout:     15 * time.Second,
	}
	classifyPrompt = prompt{
		system:      "Classify the user's request for an agenda bot. Reply with exactly one label: add_reminder, list_reminders, complete_reminder, today, help, or unknown.",
		temperature: 0,
		maxTokens:   8,
		timeout:     10 * time.Second,
	}
)

// New returns a client. Without apiKey the client works in fallback mode.
func New(apiKey string) *Client {
	if apiKey == "" {
		return &Client{}
	}
	client := openai.NewClient(option.WithAPIKey(apiKey))
	return &Client{client: &client, model: openai.ChatModelGPT4oMini}
}

// Enabled reports whether calls reach the API.
func (c *Client) Enabled() bool {
	return c != nil && c.client != nil
}

// Summarize condenses agenda text for a WhatsApp message. Without an API key
// the content is truncated instead.
func (c *Client) Summarize(ctx context.Context, content string) (string, error) {
	if strings.TrimSpace(content) == "" {
		return "", ErrEmptyContent
	}
	if !c.Enabled() {
		return truncate(content, fallbackLength), nil
	}
	return c.complete(ctx, summarizePrompt, content)
}

// ClassifyIntent uses the language model to infer the user's intent.
func (c *Client) ClassifyIntent(ctx context.Context, content string) (Intent, error) {
	if strings.TrimSpace(content) == "" {
		return IntentUnknown, ErrEmptyContent
	}
	if !c.Enabled() {
		return IntentUnknown, ErrClientNotInitialised
	}
	label, err := c.complete(ctx, classifyPrompt, content)
	if err != nil {
		return IntentUnknown, err
	}
	return ParseIntent(label), nil
}

func (c *Client) complete(ctx context.Context, p prompt, content string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: c.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(p.system),
			openai.UserMessage(content),
		},
		Temperature:         openai.Float(p.temperature),
		MaxCompletionTokens: openai.Int(p.maxTokens),
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("no completion received")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// ParseIntent maps a model label onto a known intent.
func ParseIntent(label string) Intent {
	switch intent := Intent(strings.ToLower(strings.TrimSpace(label))); intent {
	case IntentAddReminder, IntentListReminders, IntentCompleteReminder, IntentToday, IntentHelp:
		return intent
	default:
		return IntentUnknown
	}
}

func truncate(content string, max int) string {
	runes := []rune(strings.TrimSpace(content))
	if len(runes) <= max {
		return string(runes)
	}
	return string(runes[:max]) + "..."
}
