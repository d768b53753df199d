package analysis

import (
	"context"

	"github.com/crispit/crispit-server/internal/extract"
	"github.com/crispit/crispit-server/internal/payload"
	"github.com/crispit/crispit-server/internal/provider"
	"github.com/rs/zerolog/log"
)

// freshnessPayload is the strict schema for the freshness task's model
// output. Required fields are pointers so absence is distinguishable
// from zero values.
type freshnessPayload struct {
	IsProduce      *bool  `json:"isProduce"`
	Message        string `json:"message"`
	Name           string `json:"name"`
	Category       string `json:"category"`
	FreshnessScore *int   `json:"freshnessScore"`
	FreshnessLevel string `json:"freshnessLevel"`
	ShelfLifeDays  *int   `json:"shelfLifeDays"`
	StorageTips    []string `json:"storageTips"`
	Indicators     []string `json:"indicators"`
	Alternative    *struct {
		Name                 string `json:"name"`
		Reason               string `json:"reason"`
		CarbonSavingsPercent int    `json:"carbonSavingsPercent"`
	} `json:"sustainableAlternative"`
}

// AnalyzeFreshness runs the freshness task on a produce image and joins
// the carbon footprint onto the result. A NotProduce result is a valid
// classification, not a failure.
func (s *Service) AnalyzeFreshness(ctx context.Context, rawImage string) (*FreshnessResult, error) {
	if err := payload.ValidateImage(rawImage); err != nil {
		return nil, validationErrorf("invalid image: %v", err)
	}
	mimeType, data := payload.NormalizeImage(rawImage)

	req := provider.Request{
		Instruction: freshnessPrompt,
		Image:       &provider.Media{Data: data, MIMEType: mimeType},
		MaxTokens:   freshnessMaxTokens,
		Temperature: 0.1,
	}

	var result *FreshnessResult
	err := s.run(ctx, req, func(text string) error {
		parsed, err := parseFreshness(text)
		if err != nil {
			return err
		}
		result = parsed
		return nil
	})
	if err != nil {
		return nil, err
	}

	if result.Analysis != nil {
		result.Analysis.CarbonFootprint = s.carbon.Lookup(result.Analysis.ItemName)
		log.Info().
			Str("item", result.Analysis.ItemName).
			Int("freshnessScore", result.Analysis.FreshnessScore).
			Bool("carbonMatched", result.Analysis.CarbonFootprint != nil).
			Msg("freshness analysis complete")
	}
	return result, nil
}

func parseFreshness(text string) (*FreshnessResult, error) {
	var p freshnessPayload
	if err := extract.DecodeObject(text, &p); err != nil {
		return nil, err
	}
	if p.IsProduce == nil {
		return nil, &extract.Error{Text: text, Err: errMissingField("isProduce")}
	}
	if !*p.IsProduce {
		msg := p.Message
		if msg == "" {
			msg = "This doesn't appear to be fresh produce"
		}
		return &FreshnessResult{NotProduce: true, Message: msg}, nil
	}
	if p.Name == "" {
		return nil, &extract.Error{Text: text, Err: errMissingField("name")}
	}
	if p.FreshnessScore == nil {
		return nil, &extract.Error{Text: text, Err: errMissingField("freshnessScore")}
	}

	analysis := &ItemAnalysis{
		ItemName:         p.Name,
		Category:         normalizeCategory(p.Category),
		FreshnessScore:   clamp(*p.FreshnessScore, 0, 100),
		FreshnessLevel:   p.FreshnessLevel,
		StorageTips:      p.StorageTips,
		VisualIndicators: p.Indicators,
	}
	if p.ShelfLifeDays != nil && *p.ShelfLifeDays > 0 {
		analysis.EstimatedDaysRemaining = *p.ShelfLifeDays
	}
	if p.Alternative != nil && p.Alternative.Name != "" {
		analysis.SustainableAlternative = &SustainableAlternative{
			Name:                 p.Alternative.Name,
			Reason:               p.Alternative.Reason,
			CarbonSavingsPercent: p.Alternative.CarbonSavingsPercent,
		}
	}
	return &FreshnessResult{Analysis: analysis}, nil
}
