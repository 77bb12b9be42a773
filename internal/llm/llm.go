// Package llm wraps the Anthropic API behind the capability methods the
// assistant consumes: intent classification, conversational replies, and
// structured extraction for the markdown writers.
package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/jfarrand/noted/internal/models"
)

// Client wraps the Anthropic API.
type Client struct {
	api   *anthropic.Client
	model anthropic.Model
}

// NewClient creates an LLM client with the given API key and model.
func NewClient(apiKey, model string) *Client {
	opts := []option.RequestOption{}
	if apiKey != "" {
		opts = append(opts, option.WithAPIKey(apiKey))
	}
	client := anthropic.NewClient(opts...)
	return &Client{
		api:   &client,
		model: anthropic.Model(model),
	}
}

// complete sends a system+user prompt pair and returns the raw text reply.
func (c *Client) complete(ctx context.Context, system, user string, maxTokens int64) (string, error) {
	msg, err := c.api.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     c.model,
		MaxTokens: maxTokens,
		System: []anthropic.TextBlockParam{
			{Text: system},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(user)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("anthropic API call: %w", err)
	}

	var text string
	for _, block := range msg.Content {
		if block.Type == "text" {
			text = block.Text
			break
		}
	}
	if text == "" {
		return "", fmt.Errorf("no text content in API response")
	}
	return text, nil
}

// structured sends a prompt pair expecting a JSON reply and unmarshals it
// into out, stripping markdown fencing if present.
func (c *Client) structured(ctx context.Context, system, user string, maxTokens int64, out any) error {
	text, err := c.complete(ctx, system, user, maxTokens)
	if err != nil {
		return err
	}
	text = stripFencing(text)
	if err := json.Unmarshal([]byte(text), out); err != nil {
		return fmt.Errorf("parse LLM response as JSON: %w\nraw response: %s", err, text)
	}
	return nil
}

// stripFencing removes a surrounding markdown code fence from a reply.
func stripFencing(text string) string {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "```") {
		lines := strings.SplitN(text, "\n", 2)
		if len(lines) > 1 {
			text = lines[1]
		}
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
		text = strings.TrimSpace(text)
	}
	return text
}

// --- Intent classification ---

// classifyResult is the wire shape of a classification reply.
type classifyResult struct {
	Intent     string  `json:"intent"`
	Confidence float64 `json:"confidence"`
	Reason     string  `json:"reason"`
	Question   string  `json:"question"`
}

// buildClassifyPrompt constructs the system and user prompts for intent
// classification.
func buildClassifyPrompt(text, history string) (system string, user string) {
	system = `You are the intent classification layer for a personal note-organization assistant. Classify the user's latest message and return ONLY a JSON object with these fields:
- "intent": one of "conversation", "command", "ambiguous"
- "confidence": a number between 0.0 and 1.0
- "reason": one short sentence explaining the classification
- "question": a short clarifying question if intent is "ambiguous", else ""

Rules:
- "conversation" covers chit-chat, questions, advice, and reflective or status questions
- "command" only when the user clearly requests that the assistant organize, save, or produce something
- "ambiguous" when the request could be either, or the target of a command is unclear
- Default to "conversation" when unsure; never guess "command"
- Return valid JSON only, no markdown fencing or explanation`

	var sb strings.Builder
	if history != "" {
		sb.WriteString("Conversation history:\n")
		sb.WriteString(history)
		sb.WriteString("\n\n")
	}
	sb.WriteString("User message:\n")
	sb.WriteString(text)
	user = sb.String()
	return
}

// Classify judges whether a message is conversation, a command, or
// ambiguous. The deterministic talk/act/ask decision belongs to the policy
// engine, not to the model.
func (c *Client) Classify(ctx context.Context, text, history string) (models.Classification, error) {
	systemPrompt, userPrompt := buildClassifyPrompt(text, history)

	var result classifyResult
	if err := c.structured(ctx, systemPrompt, userPrompt, 512, &result); err != nil {
		return models.Classification{}, err
	}

	intent := models.Intent(strings.ToLower(strings.TrimSpace(result.Intent)))
	switch intent {
	case models.IntentConversation, models.IntentCommand, models.IntentAmbiguous:
	default:
		intent = models.IntentAmbiguous
	}
	return models.Classification{
		Intent:     intent,
		Confidence: result.Confidence,
		Reason:     result.Reason,
		Question:   result.Question,
	}, nil
}

// --- Conversational replies ---

// Reply answers a conversational message without touching the vault.
func (c *Client) Reply(ctx context.Context, text, history string) (string, error) {
	system := "You are a helpful note-keeping companion. " +
		"Answer the user's question or provide advice. " +
		"Do not claim to have created files or performed actions."
	var sb strings.Builder
	if history != "" {
		sb.WriteString("Conversation history:\n")
		sb.WriteString(history)
		sb.WriteString("\n\n")
	}
	sb.WriteString("User message:\n")
	sb.WriteString(text)
	return c.complete(ctx, system, sb.String(), 1024)
}

// AnswerFrom answers a reflective or status question using only the
// provided vault data.
func (c *Client) AnswerFrom(ctx context.Context, question, context string) (string, error) {
	system := "You are a note-keeping companion. Answer reflective or status questions " +
		"using only the provided data. Do not mention file operations or imply changes."
	user := fmt.Sprintf("Question: %s\n\nExisting data:\n%s", question, context)
	return c.complete(ctx, system, user, 1024)
}

// --- Structured extraction for writers ---

// OrganizedNote is a cleaned-up note ready to persist.
type OrganizedNote struct {
	Title           string   `json:"title"`
	Summary         string   `json:"summary"`
	CleanedMarkdown string   `json:"cleaned_markdown"`
	Tags            []string `json:"tags"`
}

// OrganizeNote cleans messy raw notes into structured markdown.
func (c *Client) OrganizeNote(ctx context.Context, raw string) (*OrganizedNote, error) {
	system := `You clean messy personal notes. Return ONLY a JSON object with these fields:
- "title": a concise note title
- "summary": one sentence summarizing the note
- "cleaned_markdown": concise human-readable Markdown structured with headings and bullet points
- "tags": a short list of lowercase topic tags

Rules:
- Do not invent facts
- Return valid JSON only, no markdown fencing or explanation`
	user := "Raw notes:\n" + raw

	var note OrganizedNote
	if err := c.structured(ctx, system, user, 2048, &note); err != nil {
		return nil, err
	}
	return &note, nil
}

// TaskItem is a single actionable task extracted from text.
type TaskItem struct {
	Description string `json:"description"`
	DueDate     string `json:"due_date"` // YYYY-MM-DD or empty
	Status      string `json:"status"`   // todo or done
}

// ExtractTasks pulls actionable tasks out of free text.
func (c *Client) ExtractTasks(ctx context.Context, text string) ([]TaskItem, error) {
	system := `You extract actionable tasks from text. Return ONLY a JSON array of objects with these fields:
- "description": short, concrete task description
- "due_date": "YYYY-MM-DD" if the text names one, else ""
- "status": "todo" unless the text says the task is clearly completed, then "done"

Rules:
- Prefer short, concrete task descriptions
- Return valid JSON only, no markdown fencing or explanation`
	user := "Text:\n" + text

	var tasks []TaskItem
	if err := c.structured(ctx, system, user, 2048, &tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

// MeetingSummary is a structured meeting recap.
type MeetingSummary struct {
	Title        string   `json:"title"`
	Summary      string   `json:"summary"`
	Decisions    []string `json:"decisions"`
	ActionItems  []string `json:"action_items"`
	Participants []string `json:"participants"`
}

// SummarizeMeeting turns raw meeting notes into a structured summary.
func (c *Client) SummarizeMeeting(ctx context.Context, raw string) (*MeetingSummary, error) {
	system := `You summarize meetings. Return ONLY a JSON object with these fields:
- "title": a concise meeting title
- "summary": a short paragraph
- "decisions": list of decisions made
- "action_items": list of follow-up actions
- "participants": list of participants named in the notes

Rules:
- Do not invent participants or decisions
- Return valid JSON only, no markdown fencing or explanation`
	user := "Meeting notes:\n" + raw

	var summary MeetingSummary
	if err := c.structured(ctx, system, user, 2048, &summary); err != nil {
		return nil, err
	}
	return &summary, nil
}

// DailyProgress is a structured daily progress entry.
type DailyProgress struct {
	Summary    string   `json:"summary"`
	Done       []string `json:"done"`
	Blockers   []string `json:"blockers"`
	NextSteps  []string `json:"next_steps"`
	Highlights []string `json:"highlights"`
}

// GenerateDaily builds a daily progress update from user inputs plus the
// day's vault context.
func (c *Client) GenerateDaily(ctx context.Context, date string, done, blockers, next []string, context string) (*DailyProgress, error) {
	system := `You are a progress assistant. Create a concise daily progress update using the provided context from notes, meetings, tasks, and progress logs. Return ONLY a JSON object with fields "summary", "done", "blockers", "next_steps", "highlights" (lists of short strings, summary is one paragraph). Do not invent facts. Return valid JSON only, no markdown fencing or explanation.`
	user := fmt.Sprintf("Date: %s\nUser inputs:\n- Done: %v\n- Blockers: %v\n- Next steps: %v\n\nContext:\n%s",
		date, done, blockers, next, context)

	var daily DailyProgress
	if err := c.structured(ctx, system, user, 2048, &daily); err != nil {
		return nil, err
	}
	return &daily, nil
}

// WeeklyProgress is a structured weekly progress rollup.
type WeeklyProgress struct {
	Summary         string   `json:"summary"`
	Accomplishments []string `json:"accomplishments"`
	Meetings        []string `json:"meetings"`
	TasksCompleted  []string `json:"tasks_completed"`
	TasksPending    []string `json:"tasks_pending"`
	Blockers        []string `json:"blockers"`
	NextWeek        []string `json:"next_week"`
}

// GenerateWeeklyProgress builds the weekly rollup from the week's vault content.
func (c *Client) GenerateWeeklyProgress(ctx context.Context, context string) (*WeeklyProgress, error) {
	system := `You are a progress assistant. Create a professional weekly summary from the provided context. Return ONLY a JSON object with fields "summary", "accomplishments", "meetings", "tasks_completed", "tasks_pending", "blockers", "next_week" (lists of short strings, summary is one paragraph). Use only the provided context. Do not invent facts. Return valid JSON only, no markdown fencing or explanation.`
	user := "Context:\n" + context

	var weekly WeeklyProgress
	if err := c.structured(ctx, system, user, 2048, &weekly); err != nil {
		return nil, err
	}
	return &weekly, nil
}

// WeeklyReport is a structured end-of-week report.
type WeeklyReport struct {
	Title      string   `json:"title"`
	Summary    string   `json:"summary"`
	Highlights []string `json:"highlights"`
	Challenges []string `json:"challenges"`
	NextWeek   []string `json:"next_week"`
}

// GenerateWeeklyReport writes a weekly report from the week's daily logs.
func (c *Client) GenerateWeeklyReport(ctx context.Context, logs string) (*WeeklyReport, error) {
	system := `You write professional weekly reports. Return ONLY a JSON object with fields "title", "summary", "highlights", "challenges", "next_week" (lists of short strings, summary is one paragraph). Focus on achievements, learning, challenges, and next steps. Return valid JSON only, no markdown fencing or explanation.`
	user := "Daily logs:\n" + logs

	var report WeeklyReport
	if err := c.structured(ctx, system, user, 2048, &report); err != nil {
		return nil, err
	}
	return &report, nil
}
