package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
)

// DefaultBaseURL Gemini 的 OpenAI 相容端點。
const DefaultBaseURL = "https://generativelanguage.googleapis.com/v1beta/openai"

// ErrEmptyCompletion 模型沒有回傳內容。
var ErrEmptyCompletion = errors.New("empty completion")

// Writer 以 chat completion 產生信件文字。
type Writer struct {
	client  *openai.Client
	timeout time.Duration
}

// NewWriter 建立 Writer；baseURL 空白時使用 Gemini 端點。
func NewWriter(apiKey, baseURL string, timeout time.Duration) *Writer {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	cfg.BaseURL = strings.TrimRight(baseURL, "/")
	return &Writer{client: openai.NewClientWithConfig(cfg), timeout: timeout}
}

// Generate 送出單一 user prompt 並回傳第一個選項的內容。
func (w *Writer) Generate(ctx context.Context, model, prompt string) (string, error) {
	if w.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, w.timeout)
		defer cancel()
	}
	resp, err := w.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return "", fmt.Errorf("chat completion %s: %w", model, err)
	}
	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return "", ErrEmptyCompletion
	}
	return resp.Choices[0].Message.Content, nil
}
