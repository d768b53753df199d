package provider

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog/log"
)

const (
	openRouterBaseURL      = "https://openrouter.ai/api/v1"
	defaultOpenRouterModel = "google/gemini-2.5-flash-lite"
)

// OpenRouter pricing for the default model (per million tokens)
const (
	openRouterInputPricePerMillion  = 0.10
	openRouterOutputPricePerMillion = 0.40
)

// OpenRouter is the fallback provider. It speaks the OpenAI-style
// chat-completions API, so images are embedded as data-URL content parts
// inside a user message rather than a dedicated vision call. Audio input
// is not supported.
type OpenRouter struct {
	httpClient *resty.Client
	model      string
}

// NewOpenRouter creates the fallback provider client.
func NewOpenRouter(apiKey, model string) *OpenRouter {
	if model == "" {
		model = defaultOpenRouterModel
	}
	c := resty.New().
		SetBaseURL(openRouterBaseURL).
		SetTimeout(CallTimeout).
		SetHeaders(map[string]string{
			"Authorization": "Bearer " + apiKey,
			"Content-Type":  "application/json",
			"HTTP-Referer":  "https://crispit.app",
			"X-Title":       "CrispIt Server",
		})
	return &OpenRouter{httpClient: c, model: model}
}

// NewOpenRouterWithBaseURL creates a client against a custom base URL
// (for testing).
func NewOpenRouterWithBaseURL(apiKey, model, baseURL string) *OpenRouter {
	c := NewOpenRouter(apiKey, model)
	c.httpClient.SetBaseURL(baseURL)
	return c
}

func (o *OpenRouter) Name() string { return "openrouter" }

type chatContentPart struct {
	Type     string        `json:"type"`
	Text     string        `json:"text,omitempty"`
	ImageURL *chatImageURL `json:"image_url,omitempty"`
}

type chatImageURL struct {
	URL string `json:"url"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature float32       `json:"temperature,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int64 `json:"prompt_tokens"`
		CompletionTokens int64 `json:"completion_tokens"`
	} `json:"usage"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// Generate implements Provider.
func (o *OpenRouter) Generate(ctx context.Context, req Request) Outcome {
	if req.Audio != nil {
		return Invalid(fmt.Errorf("openrouter fallback does not support audio input"))
	}

	body := chatRequest{
		Model:       o.model,
		Messages:    buildChatMessages(req),
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
	}

	result := &chatResponse{}
	resp, err := o.httpClient.R().
		SetContext(ctx).
		SetBody(body).
		SetResult(result).
		SetError(result).
		Post("/chat/completions")
	if err != nil {
		return Transient(fmt.Errorf("openrouter call failed: %w", err))
	}

	if resp.StatusCode() == 429 {
		retryAfter := retryAfterFromSeconds(resp.Header().Get("Retry-After"))
		return RateLimited(retryAfter, fmt.Errorf("openrouter rate limited (status 429)"))
	}
	if resp.IsError() {
		if result.Error != nil && isQuotaMessage(result.Error.Message) {
			return RateLimited(0, fmt.Errorf("openrouter quota exhausted: %s", result.Error.Message))
		}
		return Transient(fmt.Errorf("openrouter API error: status %d", resp.StatusCode()))
	}

	if len(result.Choices) == 0 || result.Choices[0].Message.Content == "" {
		return Invalid(fmt.Errorf("no response from openrouter"))
	}

	usage := Usage{
		InputTokens:  result.Usage.PromptTokens,
		OutputTokens: result.Usage.CompletionTokens,
	}
	usage.CostUSD = calculateCost(usage.InputTokens, usage.OutputTokens,
		openRouterInputPricePerMillion, openRouterOutputPricePerMillion)

	log.Info().
		Str("model", o.model).
		Int64("inputTokens", usage.InputTokens).
		Int64("outputTokens", usage.OutputTokens).
		Float64("costUSD", usage.CostUSD).
		Msg("openrouter call")

	return Success(strings.TrimSpace(result.Choices[0].Message.Content), usage)
}

// buildChatMessages maps a Request onto the chat-completions message
// shape: optional system message, history turns, then the instruction
// with the image inlined as a data URL when present.
func buildChatMessages(req Request) []chatMessage {
	var messages []chatMessage
	if req.System != "" {
		messages = append(messages, chatMessage{Role: "system", Content: req.System})
	}
	for _, msg := range req.History {
		role := "user"
		if msg.Role == "assistant" {
			role = "assistant"
		}
		messages = append(messages, chatMessage{Role: role, Content: msg.Content})
	}

	if req.Image != nil {
		parts := []chatContentPart{
			{Type: "text", Text: req.Instruction},
			{Type: "image_url", ImageURL: &chatImageURL{
				URL: fmt.Sprintf("data:%s;base64,%s", req.Image.MIMEType, req.Image.Data),
			}},
		}
		messages = append(messages, chatMessage{Role: "user", Content: parts})
	} else {
		messages = append(messages, chatMessage{Role: "user", Content: req.Instruction})
	}
	return messages
}

func isQuotaMessage(msg string) bool {
	lower := strings.ToLower(msg)
	return strings.Contains(lower, "quota") || strings.Contains(lower, "rate limit")
}
