package analysis

import (
	"context"
	"fmt"
	"strings"

	"github.com/crispit/crispit-server/internal/extract"
	"github.com/crispit/crispit-server/internal/provider"
	"github.com/rs/zerolog/log"
)

// maxRecipeIngredients caps how many expiring ingredients one request
// may list.
const maxRecipeIngredients = 20

// GenerateRecipes suggests recipes that use up the given expiring
// ingredients.
func (s *Service) GenerateRecipes(ctx context.Context, ingredients []string) ([]Recipe, error) {
	cleaned := make([]string, 0, len(ingredients))
	for _, ing := range ingredients {
		if ing = strings.TrimSpace(ing); ing != "" {
			cleaned = append(cleaned, ing)
		}
	}
	if len(cleaned) == 0 {
		return nil, validationErrorf("at least one ingredient is required")
	}
	if len(cleaned) > maxRecipeIngredients {
		return nil, validationErrorf("too many ingredients: %d (max %d)", len(cleaned), maxRecipeIngredients)
	}

	req := provider.Request{
		Instruction: fmt.Sprintf(recipesPromptTemplate, strings.Join(cleaned, ", ")),
		MaxTokens:   recipesMaxTokens,
		Temperature: 0.7,
	}

	var recipes []Recipe
	err := s.run(ctx, req, func(text string) error {
		parsed, err := parseRecipes(text)
		if err != nil {
			return err
		}
		recipes = parsed
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info().Int("recipes", len(recipes)).Strs("ingredients", cleaned).Msg("recipes generated")
	return recipes, nil
}

func parseRecipes(text string) ([]Recipe, error) {
	var all []Recipe
	if err := extract.DecodeArray(text, &all); err != nil {
		return nil, err
	}

	recipes := make([]Recipe, 0, len(all))
	for _, r := range all {
		if r.Title == "" || len(r.Ingredients) == 0 || len(r.Steps) == 0 {
			continue
		}
		recipes = append(recipes, r)
	}
	if len(recipes) == 0 {
		return nil, &extract.Error{Text: text, Err: errMissingField("recipes")}
	}
	return recipes, nil
}
