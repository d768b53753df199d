// Package speech synthesizes assistant replies to audio via the
// ElevenLabs API.
package speech

import (
	"context"
	"fmt"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog/log"
)

const (
	defaultBaseURL = "https://api.elevenlabs.io/v1"

	// Rachel, the default English voice.
	defaultVoiceID = "21m00Tcm4TlvDq8ikWAM"
	defaultModelID = "eleven_monolingual_v1"

	// MaxTextLen bounds a single synthesis request.
	MaxTextLen = 1000
)

// Synthesizer converts text to speech audio.
type Synthesizer interface {
	// Synthesize returns MP3 audio bytes for the given text.
	Synthesize(ctx context.Context, text string) ([]byte, error)
}

// ElevenLabs is a Synthesizer backed by the ElevenLabs HTTP API.
type ElevenLabs struct {
	client  *resty.Client
	voiceID string
}

// NewElevenLabs creates an ElevenLabs client with the given API key.
func NewElevenLabs(apiKey string) *ElevenLabs {
	return newElevenLabs(apiKey, defaultBaseURL)
}

// NewElevenLabsWithBaseURL is used by tests to point at a fake server.
func NewElevenLabsWithBaseURL(apiKey, baseURL string) *ElevenLabs {
	return newElevenLabs(apiKey, baseURL)
}

func newElevenLabs(apiKey, baseURL string) *ElevenLabs {
	client := resty.New().
		SetBaseURL(baseURL).
		SetHeader("xi-api-key", apiKey).
		SetHeader("Content-Type", "application/json")
	return &ElevenLabs{client: client, voiceID: defaultVoiceID}
}

type ttsRequest struct {
	Text          string        `json:"text"`
	ModelID       string        `json:"model_id"`
	VoiceSettings voiceSettings `json:"voice_settings"`
}

type voiceSettings struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
}

// Synthesize converts text to MP3 audio.
func (e *ElevenLabs) Synthesize(ctx context.Context, text string) ([]byte, error) {
	if text == "" {
		return nil, fmt.Errorf("no text to synthesize")
	}
	if len(text) > MaxTextLen {
		text = text[:MaxTextLen]
	}

	resp, err := e.client.R().
		SetContext(ctx).
		SetBody(ttsRequest{
			Text:    text,
			ModelID: defaultModelID,
			VoiceSettings: voiceSettings{
				Stability:       0.5,
				SimilarityBoost: 0.75,
			},
		}).
		Post(fmt.Sprintf("/text-to-speech/%s", e.voiceID))
	if err != nil {
		return nil, fmt.Errorf("text-to-speech request failed: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("text-to-speech request failed with status %d: %s", resp.StatusCode(), resp.String())
	}

	audio := resp.Body()
	if len(audio) == 0 {
		return nil, fmt.Errorf("text-to-speech returned empty audio")
	}
	log.Debug().Int("textLen", len(text)).Int("audioBytes", len(audio)).Msg("synthesized speech")
	return audio, nil
}
