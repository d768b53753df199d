package analysis

import (
	"context"

	"github.com/crispit/crispit-server/internal/extract"
	"github.com/crispit/crispit-server/internal/payload"
	"github.com/crispit/crispit-server/internal/provider"
	"github.com/rs/zerolog/log"
)

// maxLiveDetections caps how many items a single live frame may report.
const maxLiveDetections = 5

type livePayload struct {
	Detections []struct {
		ItemName               string `json:"item_name"`
		Category               string `json:"category"`
		FreshnessScore         int    `json:"freshness_score"`
		FreshnessDescription   string `json:"freshness_description"`
		EstimatedDaysRemaining int    `json:"estimated_days_remaining"`
		Box                    []int  `json:"box"`
	} `json:"detections"`
}

// DetectLive runs the live multi-item detection task on a camera frame.
// Live scanning is best-effort: provider or parse failures degrade to an
// empty detection list instead of an error, so a camera preview never
// breaks mid-stream. Only malformed input is reported to the caller.
func (s *Service) DetectLive(ctx context.Context, rawImage string) (*LiveScanResult, error) {
	if err := payload.ValidateImage(rawImage); err != nil {
		return nil, validationErrorf("invalid image: %v", err)
	}
	mimeType, data := payload.NormalizeImage(rawImage)

	req := provider.Request{
		Instruction: livePrompt,
		Image:       &provider.Media{Data: data, MIMEType: mimeType},
		MaxTokens:   liveMaxTokens,
		Temperature: 0.1,
	}

	var result *LiveScanResult
	err := s.run(ctx, req, func(text string) error {
		parsed, err := parseLive(text)
		if err != nil {
			return err
		}
		result = parsed
		return nil
	})
	if err != nil {
		log.Warn().Err(err).Msg("live detection failed, returning empty frame")
		return &LiveScanResult{Detections: []DetectedItem{}}, nil
	}
	return result, nil
}

func parseLive(text string) (*LiveScanResult, error) {
	var p livePayload
	if err := extract.DecodeObject(text, &p); err != nil {
		return nil, err
	}

	detections := make([]DetectedItem, 0, len(p.Detections))
	for _, d := range p.Detections {
		if d.ItemName == "" {
			continue
		}
		item := DetectedItem{
			ItemName:               d.ItemName,
			Category:               normalizeCategory(d.Category),
			FreshnessScore:         clamp(d.FreshnessScore, 1, 10),
			FreshnessDescription:   d.FreshnessDescription,
			EstimatedDaysRemaining: d.EstimatedDaysRemaining,
		}
		if len(d.Box) == 4 {
			copy(item.Box[:], d.Box)
		}
		detections = append(detections, item)
		if len(detections) == maxLiveDetections {
			break
		}
	}
	return &LiveScanResult{Detections: detections}, nil
}
