package provider

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/crispit/crispit-server/internal/payload"
	"github.com/rs/zerolog/log"
	"google.golang.org/genai"
)

const defaultGeminiModel = "gemini-2.5-flash"

// Gemini pricing (per million tokens)
const (
	geminiInputPricePerMillion  = 0.30
	geminiOutputPricePerMillion = 2.50
)

// Gemini is the primary provider. It talks to Google's Gemini API and
// supports image, audio and text input.
type Gemini struct {
	client *genai.Client
	model  string
}

// NewGemini creates the primary provider client.
func NewGemini(ctx context.Context, apiKey, model string) (*Gemini, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	if model == "" {
		model = defaultGeminiModel
	}
	return &Gemini{client: client, model: model}, nil
}

func (g *Gemini) Name() string { return "gemini" }

// Generate implements Provider.
func (g *Gemini) Generate(ctx context.Context, req Request) Outcome {
	ctx, cancel := context.WithTimeout(ctx, CallTimeout)
	defer cancel()

	contents, err := g.buildContents(req)
	if err != nil {
		return Invalid(err)
	}

	config := &genai.GenerateContentConfig{}
	if req.MaxTokens > 0 {
		config.MaxOutputTokens = int32(req.MaxTokens)
	}
	if req.Temperature > 0 {
		config.Temperature = genai.Ptr(req.Temperature)
	}
	if req.System != "" {
		config.SystemInstruction = genai.NewContentFromText(req.System, genai.RoleUser)
	}

	result, err := g.client.Models.GenerateContent(ctx, g.model, contents, config)
	if err != nil {
		return classifyGeminiError(err)
	}

	if len(result.Candidates) == 0 || result.Candidates[0].Content == nil || len(result.Candidates[0].Content.Parts) == 0 {
		return Invalid(fmt.Errorf("no response from Gemini"))
	}

	usage := Usage{}
	if result.UsageMetadata != nil {
		usage.InputTokens = int64(result.UsageMetadata.PromptTokenCount)
		usage.OutputTokens = int64(result.UsageMetadata.CandidatesTokenCount)
		usage.CostUSD = calculateCost(usage.InputTokens, usage.OutputTokens,
			geminiInputPricePerMillion, geminiOutputPricePerMillion)
	}

	log.Info().
		Str("model", g.model).
		Int64("inputTokens", usage.InputTokens).
		Int64("outputTokens", usage.OutputTokens).
		Float64("costUSD", usage.CostUSD).
		Msg("gemini call")

	return Success(result.Text(), usage)
}

// buildContents assembles the conversation for the Gemini API: history as
// alternating user/model turns, then the instruction with at most one
// media attachment.
func (g *Gemini) buildContents(req Request) ([]*genai.Content, error) {
	var contents []*genai.Content
	for _, msg := range req.History {
		var role genai.Role = genai.RoleUser
		if msg.Role == "assistant" {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(msg.Content, role))
	}

	parts := []*genai.Part{genai.NewPartFromText(req.Instruction)}
	media := req.Image
	if media == nil {
		media = req.Audio
	}
	if media != nil {
		raw, err := payload.Decode(media.Data)
		if err != nil {
			return nil, err
		}
		parts = append(parts, &genai.Part{
			InlineData: &genai.Blob{Data: raw, MIMEType: media.MIMEType},
		})
	}
	contents = append(contents, genai.NewContentFromParts(parts, genai.RoleUser))
	return contents, nil
}

func classifyGeminiError(err error) Outcome {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		if apiErr.Code == 429 || apiErr.Status == "RESOURCE_EXHAUSTED" {
			return RateLimited(0, fmt.Errorf("gemini rate limited: %w", err))
		}
		return Transient(fmt.Errorf("gemini API error: %w", err))
	}
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "quota") || strings.Contains(msg, "rate limit") {
		return RateLimited(0, fmt.Errorf("gemini rate limited: %w", err))
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return Transient(fmt.Errorf("gemini call timed out after %s: %w", CallTimeout, err))
	}
	return Transient(fmt.Errorf("gemini call failed: %w", err))
}

func calculateCost(inputTokens, outputTokens int64, inputPrice, outputPrice float64) float64 {
	inputCost := float64(inputTokens) / 1_000_000 * inputPrice
	outputCost := float64(outputTokens) / 1_000_000 * outputPrice
	return inputCost + outputCost
}

// retryAfterFromSeconds converts a Retry-After header value to a duration.
func retryAfterFromSeconds(header string) time.Duration {
	if header == "" {
		return 0
	}
	var secs int
	if _, err := fmt.Sscanf(header, "%d", &secs); err != nil || secs <= 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}
