package openai

import (
	"context"
	"fmt"
	"net/http"
	"strings"
)

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responsesRequest struct {
	Model       string    `json:"model"`
	Input       []message `json:"input"`
	Temperature *float64  `json:"temperature,omitempty"`
}

type responsesResponse struct {
	Model  string `json:"model"`
	Output []struct {
		Type    string `json:"type"`
		Role    string `json:"role,omitempty"`
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text,omitempty"`
		} `json:"content,omitempty"`
	} `json:"output"`
	OutputText string `json:"output_text,omitempty"`
	Refusal    string `json:"refusal,omitempty"`
	Usage      struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

type chatRequest struct {
	Model       string    `json:"model"`
	Messages    []message `json:"messages"`
	Temperature *float64  `json:"temperature,omitempty"`
}

type chatResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message struct {
			Content string `json:"content"`
			Refusal string `json:"refusal,omitempty"`
		} `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
}

// Generate runs one system+user completion and reports token usage.
func (c *client) Generate(ctx context.Context, system string, user string) (Generation, error) {
	msgs := make([]message, 0, 2)
	if strings.TrimSpace(system) != "" {
		msgs = append(msgs, message{Role: "system", Content: system})
	}
	msgs = append(msgs, message{Role: "user", Content: user})

	if c.cfg.Style == APIStyleChat {
		return c.generateChat(ctx, msgs)
	}
	return c.generateResponses(ctx, msgs)
}

func (c *client) generateResponses(ctx context.Context, msgs []message) (Generation, error) {
	req := responsesRequest{Model: c.cfg.Model, Input: msgs, Temperature: c.cfg.Temperature}
	var resp responsesResponse
	if err := c.do(ctx, http.MethodPost, "/v1/responses", req, &resp); err != nil {
		return Generation{}, err
	}
	if resp.Refusal != "" {
		return Generation{}, fmt.Errorf("model refused: %s", resp.Refusal)
	}
	var text strings.Builder
	for _, item := range resp.Output {
		if item.Type != "message" || item.Role != "assistant" {
			continue
		}
		for _, part := range item.Content {
			if part.Type == "output_text" {
				text.WriteString(part.Text)
			}
		}
	}
	out := text.String()
	if out == "" {
		out = resp.OutputText
	}
	if strings.TrimSpace(out) == "" {
		return Generation{}, fmt.Errorf("no output_text found in response")
	}
	return Generation{
		Text:  out,
		Model: firstNonEmpty(resp.Model, c.cfg.Model),
		Usage: Usage{InputTokens: resp.Usage.InputTokens, OutputTokens: resp.Usage.OutputTokens},
	}, nil
}

func (c *client) generateChat(ctx context.Context, msgs []message) (Generation, error) {
	req := chatRequest{Model: c.cfg.Model, Messages: msgs, Temperature: c.cfg.Temperature}
	var resp chatResponse
	if err := c.do(ctx, http.MethodPost, "/v1/chat/completions", req, &resp); err != nil {
		return Generation{}, err
	}
	if len(resp.Choices) == 0 {
		return Generation{}, fmt.Errorf("no choices in chat completion")
	}
	msg := resp.Choices[0].Message
	if msg.Refusal != "" {
		return Generation{}, fmt.Errorf("model refused: %s", msg.Refusal)
	}
	if strings.TrimSpace(msg.Content) == "" {
		return Generation{}, fmt.Errorf("empty chat completion content")
	}
	return Generation{
		Text:  msg.Content,
		Model: firstNonEmpty(resp.Model, c.cfg.Model),
		Usage: Usage{InputTokens: resp.Usage.PromptTokens, OutputTokens: resp.Usage.CompletionTokens},
	}, nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
