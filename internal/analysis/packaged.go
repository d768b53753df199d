package analysis

import (
	"context"

	"github.com/crispit/crispit-server/internal/extract"
	"github.com/crispit/crispit-server/internal/payload"
	"github.com/crispit/crispit-server/internal/provider"
	"github.com/rs/zerolog/log"
)

type packagedPayload struct {
	IsPackaged             *bool   `json:"isPackaged"`
	Message                string  `json:"message"`
	Name                   string  `json:"name"`
	CarbonFootprint        float64 `json:"carbonFootprint"`
	SustainableAlternative string  `json:"sustainableAlternative"`
	StorageTip             string  `json:"storageTip"`
	NutritionInfo          string  `json:"nutritionInfo"`
	PackageType            string  `json:"packageType"`
}

// AnalyzePackaged runs the packaged-item task on an image. A NotPackaged
// result is the mirror of FreshnessResult.NotProduce: the image showed
// fresh produce and the caller should retry under the freshness task.
func (s *Service) AnalyzePackaged(ctx context.Context, rawImage string) (*PackagedResult, error) {
	if err := payload.ValidateImage(rawImage); err != nil {
		return nil, validationErrorf("invalid image: %v", err)
	}
	mimeType, data := payload.NormalizeImage(rawImage)

	req := provider.Request{
		Instruction: packagedPrompt,
		Image:       &provider.Media{Data: data, MIMEType: mimeType},
		MaxTokens:   packagedMaxTokens,
		Temperature: 0.1,
	}

	var result *PackagedResult
	err := s.run(ctx, req, func(text string) error {
		parsed, err := parsePackaged(text)
		if err != nil {
			return err
		}
		result = parsed
		return nil
	})
	if err != nil {
		return nil, err
	}

	if result.Item != nil {
		log.Info().
			Str("item", result.Item.Name).
			Str("packageType", result.Item.PackageType).
			Msg("packaged item analysis complete")
	}
	return result, nil
}

func parsePackaged(text string) (*PackagedResult, error) {
	var p packagedPayload
	if err := extract.DecodeObject(text, &p); err != nil {
		return nil, err
	}
	if p.IsPackaged == nil {
		return nil, &extract.Error{Text: text, Err: errMissingField("isPackaged")}
	}
	if !*p.IsPackaged {
		msg := p.Message
		if msg == "" {
			msg = "This appears to be fresh produce or not a packaged item"
		}
		return &PackagedResult{NotPackaged: true, Message: msg}, nil
	}
	if p.Name == "" {
		return nil, &extract.Error{Text: text, Err: errMissingField("name")}
	}

	item := &PackagedItem{
		Name:                   p.Name,
		CarbonFootprintKg:      p.CarbonFootprint,
		SustainableAlternative: p.SustainableAlternative,
		StorageTip:             p.StorageTip,
		NutritionInfo:          p.NutritionInfo,
		PackageType:            p.PackageType,
	}
	if item.NutritionInfo == "" {
		item.NutritionInfo = "Check packaging for details"
	}
	return &PackagedResult{Item: item}, nil
}
