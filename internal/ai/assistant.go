// Package ai wraps the generative model used for meeting intake: audio
// transcription, RACI task extraction and the executive summary.
package ai

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/nhle/bod-watchlist/internal/logging"
	"github.com/nhle/bod-watchlist/internal/model"
)

const (
	defaultModel              = "gpt-4o-mini"
	defaultTranscriptionModel = openai.Whisper1
	emptySummary              = "..."
)

// Config selects models and the endpoint.
type Config struct {
	APIKey             string
	BaseURL            string
	Model              string
	TranscriptionModel string
}

// Assistant calls the hosted model for the intake flow.
type Assistant struct {
	client             *openai.Client
	model              string
	transcriptionModel string
	logger             *zap.Logger
}

// New creates an Assistant. An empty BaseURL uses the provider default.
func New(cfg Config, logger *zap.Logger) *Assistant {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	if cfg.TranscriptionModel == "" {
		cfg.TranscriptionModel = defaultTranscriptionModel
	}
	return &Assistant{
		client:             openai.NewClientWithConfig(clientCfg),
		model:              cfg.Model,
		transcriptionModel: cfg.TranscriptionModel,
		logger:             logging.OrNop(logger),
	}
}

// Transcribe turns a base64-encoded audio blob into text.
func (a *Assistant) Transcribe(ctx context.Context, audioBase64, mimeType string) (string, error) {
	audio, err := base64.StdEncoding.DecodeString(audioBase64)
	if err != nil {
		return "", fmt.Errorf("decoding audio: %w", err)
	}
	if len(audio) == 0 {
		return "", fmt.Errorf("audio is empty")
	}

	resp, err := a.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    a.transcriptionModel,
		Reader:   bytes.NewReader(audio),
		FilePath: "meeting" + extensionFor(mimeType),
		Prompt:   transcribePrompt,
		Format:   openai.AudioResponseFormatJSON,
	})
	if err != nil {
		return "", fmt.Errorf("transcribing audio: %w", err)
	}

	return strings.TrimSpace(resp.Text), nil
}

// Summarize writes a one-paragraph opener for today's board meeting.
func (a *Assistant) Summarize(ctx context.Context, tasks []model.Task) (string, error) {
	prompt, err := buildSummaryPrompt(tasks)
	if err != nil {
		return "", err
	}

	text, err := a.complete(ctx, openai.ChatCompletionRequest{
		Model: a.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: summarySystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return "", fmt.Errorf("summarizing %d tasks: %w", len(tasks), err)
	}
	if text == "" {
		return emptySummary, nil
	}
	return text, nil
}

// ExtractTasks proposes RACI mandates from meeting notes. Output that
// cannot be parsed yields an empty list, not an error.
func (a *Assistant) ExtractTasks(ctx context.Context, notes string, users []model.User) ([]model.Candidate, error) {
	text, err := a.complete(ctx, openai.ChatCompletionRequest{
		Model: a.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: extractSystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: buildExtractPrompt(notes, users)},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("extracting tasks: %w", err)
	}

	candidates, err := parseCandidates(text)
	if err != nil {
		a.logger.Warn("discarding unparseable extraction", zap.Error(err), zap.Int("bytes", len(text)))
		return []model.Candidate{}, nil
	}
	return candidates, nil
}

func (a *Assistant) complete(ctx context.Context, req openai.ChatCompletionRequest) (string, error) {
	resp, err := a.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("model returned no choices")
	}
	a.logger.Debug("model completion",
		zap.String("model", resp.Model),
		zap.Int("total_tokens", resp.Usage.TotalTokens),
		zap.String("finish_reason", string(resp.Choices[0].FinishReason)))
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

func extensionFor(mimeType string) string {
	base, _, _ := strings.Cut(mimeType, ";")
	switch strings.TrimSpace(base) {
	case "audio/webm", "video/webm":
		return ".webm"
	case "audio/ogg":
		return ".ogg"
	case "audio/mpeg", "audio/mp3":
		return ".mp3"
	case "audio/mp4", "audio/m4a", "audio/x-m4a":
		return ".m4a"
	case "audio/wav", "audio/x-wav", "audio/wave":
		return ".wav"
	case "audio/flac":
		return ".flac"
	default:
		return ".webm"
	}
}

// taskSnapshot is the per-mandate view sent to the summary prompt.
type taskSnapshot struct {
	Title       string       `json:"title"`
	Accountable string       `json:"accountable"`
	Status      model.Status `json:"status"`
	Delay       bool         `json:"delay"`
}

func buildSummaryPrompt(tasks []model.Task) (string, error) {
	snapshots := make([]taskSnapshot, 0, len(tasks))
	for _, t := range tasks {
		snapshots = append(snapshots, taskSnapshot{
			Title:       t.Title,
			Accountable: t.RACI.Accountable.Name,
			Status:      t.Status,
			Delay:       t.Status == model.StatusStagnant,
		})
	}
	data, err := json.Marshal(snapshots)
	if err != nil {
		return "", fmt.Errorf("marshaling task snapshots: %w", err)
	}
	return fmt.Sprintf(summaryPromptFormat, data), nil
}
