package analysis

import (
	"context"
	"strings"

	"github.com/crispit/crispit-server/internal/payload"
	"github.com/crispit/crispit-server/internal/provider"
	"github.com/rs/zerolog/log"
)

const (
	// maxChatTextLen bounds a single text message.
	maxChatTextLen = 2000
	// maxHistoryTurns bounds how much prior conversation is replayed to
	// the model.
	maxHistoryTurns = 20
)

// VoiceChat runs one assistant turn. Audio input is transcribed first;
// when a wake word is requested and the transcript does not contain it,
// the turn stops after transcription and no response is generated.
func (s *Service) VoiceChat(ctx context.Context, in VoiceChatInput) (*VoiceChatResult, error) {
	if in.Audio == "" && strings.TrimSpace(in.Text) == "" {
		return nil, validationErrorf("either audio or text is required")
	}
	if len(in.Text) > maxChatTextLen {
		return nil, validationErrorf("text too long: %d chars (max %d)", len(in.Text), maxChatTextLen)
	}

	result := &VoiceChatResult{}

	message := strings.TrimSpace(in.Text)
	if in.Audio != "" {
		if err := payload.ValidateAudio(in.Audio, in.MIMEType); err != nil {
			return nil, validationErrorf("invalid audio: %v", err)
		}
		transcript, err := s.transcribe(ctx, in.Audio, in.MIMEType)
		if err != nil {
			return nil, err
		}
		result.Transcript = transcript
		message = transcript
	}

	if in.WakeWord != "" {
		detected := strings.Contains(strings.ToLower(message), strings.ToLower(in.WakeWord))
		result.WakeWordDetected = &detected
		if !detected {
			log.Debug().Str("wakeWord", in.WakeWord).Msg("wake word not detected, skipping response")
			return result, nil
		}
	}

	req := provider.Request{
		Instruction: message,
		System:      voiceChatSystemPrompt,
		History:     toProviderHistory(in.History),
		MaxTokens:   chatMaxTokens,
		Temperature: 0.7,
	}
	err := s.run(ctx, req, func(text string) error {
		result.Response = strings.TrimSpace(text)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// TextChat answers a pantry-aware question from the text assistant.
// collectionNames and fridgeItems are comma-separated summaries of the
// caller's data; either may be empty.
func (s *Service) TextChat(ctx context.Context, message string, history []ChatTurn, collectionNames, fridgeItems string) (string, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return "", validationErrorf("message is required")
	}
	if len(message) > maxChatTextLen {
		return "", validationErrorf("message too long: %d chars (max %d)", len(message), maxChatTextLen)
	}

	req := provider.Request{
		Instruction: message,
		System:      textChatSystemPrompt(collectionNames, fridgeItems),
		History:     toProviderHistory(history),
		MaxTokens:   chatMaxTokens,
		Temperature: 0.7,
	}

	var reply string
	err := s.run(ctx, req, func(text string) error {
		reply = strings.TrimSpace(text)
		return nil
	})
	if err != nil {
		return "", err
	}
	return reply, nil
}

func (s *Service) transcribe(ctx context.Context, audio, mimeType string) (string, error) {
	req := provider.Request{
		Instruction: transcribePrompt,
		Audio:       &provider.Media{Data: audio, MIMEType: mimeType},
		MaxTokens:   chatMaxTokens,
	}
	var transcript string
	err := s.run(ctx, req, func(text string) error {
		transcript = strings.TrimSpace(text)
		return nil
	})
	if err != nil {
		return "", err
	}
	return transcript, nil
}

// toProviderHistory converts chat turns to provider messages, keeping
// only the most recent maxHistoryTurns.
func toProviderHistory(history []ChatTurn) []provider.Message {
	if len(history) > maxHistoryTurns {
		history = history[len(history)-maxHistoryTurns:]
	}
	msgs := make([]provider.Message, 0, len(history))
	for _, turn := range history {
		if turn.Content == "" {
			continue
		}
		role := "user"
		if turn.Role == "assistant" || turn.Role == "model" {
			role = "assistant"
		}
		msgs = append(msgs, provider.Message{Role: role, Content: turn.Content})
	}
	return msgs
}
