package analysis

import (
	"context"
	"fmt"
	"strings"

	"github.com/crispit/crispit-server/internal/extract"
	"github.com/crispit/crispit-server/internal/provider"
	"github.com/rs/zerolog/log"
)

// maxShoppingItems caps how many items one guidance request may list.
const maxShoppingItems = 5

// ShoppingGuidance produces per-item picking tips for a shopping list.
// When every provider answered but none produced parseable JSON, the
// result degrades to generic tips instead of failing the whole list.
func (s *Service) ShoppingGuidance(ctx context.Context, items []string) (*ShoppingGuidance, error) {
	cleaned := make([]string, 0, len(items))
	for _, it := range items {
		if it = strings.TrimSpace(it); it != "" {
			cleaned = append(cleaned, it)
		}
	}
	if len(cleaned) == 0 {
		return nil, validationErrorf("at least one item is required")
	}
	if len(cleaned) > maxShoppingItems {
		return nil, validationErrorf("too many items: %d (max %d)", len(cleaned), maxShoppingItems)
	}

	req := provider.Request{
		Instruction: fmt.Sprintf(shoppingPromptTemplate, strings.Join(cleaned, ", ")),
		MaxTokens:   shoppingMaxTokens,
		Temperature: 0.3,
	}

	gotText := false
	var guidance *ShoppingGuidance
	err := s.run(ctx, req, func(text string) error {
		gotText = true
		parsed, err := parseShopping(text)
		if err != nil {
			return err
		}
		guidance = parsed
		return nil
	})
	if err != nil {
		if !gotText {
			return nil, err
		}
		// Providers answered but with unusable output; generic tips are
		// still better than an error for a shopping list.
		log.Warn().Err(err).Msg("shopping guidance unparseable, using generic tips")
		return genericShoppingGuidance(cleaned), nil
	}
	return guidance, nil
}

func parseShopping(text string) (*ShoppingGuidance, error) {
	var g ShoppingGuidance
	if err := extract.DecodeObject(text, &g); err != nil {
		return nil, err
	}
	items := make([]ShoppingTip, 0, len(g.Items))
	for _, it := range g.Items {
		if it.Name == "" {
			continue
		}
		items = append(items, it)
	}
	if len(items) == 0 {
		return nil, &extract.Error{Text: text, Err: errMissingField("items")}
	}
	return &ShoppingGuidance{Items: items}, nil
}

func genericShoppingGuidance(items []string) *ShoppingGuidance {
	tips := make([]ShoppingTip, len(items))
	for i, name := range items {
		tips[i] = ShoppingTip{
			Name:      name,
			Tips:      []string{"Look for vibrant, even color", "Choose items that feel firm and heavy for their size"},
			Avoid:     "Bruising, soft spots, or off smells",
			ShelfLife: "3-7 days",
		}
	}
	return &ShoppingGuidance{Items: tips}
}
