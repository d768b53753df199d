// Package analysis contains the task orchestrators: one per capability,
// each building its instruction, running the provider fallback chain and
// turning raw model output into typed results.
package analysis

import (
	"errors"
	"fmt"

	"github.com/crispit/crispit-server/internal/carbon"
)

// ErrAnalysisFailed is returned when both the primary and fallback
// provider have been exhausted for a request.
var ErrAnalysisFailed = errors.New("analysis failed")

// ValidationError marks malformed, oversized or missing input. It is
// detected before any network call and never retried.
type ValidationError struct {
	msg string
}

func (e *ValidationError) Error() string { return e.msg }

func validationErrorf(format string, a ...any) error {
	return &ValidationError{msg: fmt.Sprintf(format, a...)}
}

// Category is the produce category enum.
type Category string

const (
	CategoryFruit     Category = "fruit"
	CategoryVegetable Category = "vegetable"
	CategoryMeat      Category = "meat"
	CategorySeafood   Category = "seafood"
	CategoryDairy     Category = "dairy"
	CategoryGrain     Category = "grain"
	CategoryPantry    Category = "pantry"
	CategoryBeverage  Category = "beverage"
	CategoryOther     Category = "other"
)

var validCategories = map[Category]bool{
	CategoryFruit: true, CategoryVegetable: true, CategoryMeat: true,
	CategorySeafood: true, CategoryDairy: true, CategoryGrain: true,
	CategoryPantry: true, CategoryBeverage: true, CategoryOther: true,
}

// normalizeCategory maps unknown category strings to "other".
func normalizeCategory(raw string) Category {
	c := Category(raw)
	if validCategories[c] {
		return c
	}
	return CategoryOther
}

// SustainableAlternative suggests a lower-carbon swap for an item.
type SustainableAlternative struct {
	Name                 string `json:"name"`
	Reason               string `json:"reason"`
	CarbonSavingsPercent int    `json:"carbon_savings_percent"`
}

// ItemAnalysis is the result of the freshness task. The freshness score
// uses the canonical 0-100 scale.
type ItemAnalysis struct {
	ItemName               string                  `json:"item_name"`
	Category               Category                `json:"category"`
	FreshnessScore         int                     `json:"freshness_score"`
	FreshnessLevel         string                  `json:"freshness_level"`
	EstimatedDaysRemaining int                     `json:"estimated_days_remaining"`
	StorageTips            []string                `json:"storage_tips"`
	VisualIndicators       []string                `json:"visual_indicators"`
	SustainableAlternative *SustainableAlternative `json:"sustainable_alternative,omitempty"`
	CarbonFootprint        *carbon.Footprint       `json:"carbon_footprint,omitempty"`
}

// FreshnessResult is the outcome of the freshness task. NotProduce is a
// valid classification, not an error: the image showed a packaged item
// and the caller should retry under the packaged-item task.
type FreshnessResult struct {
	NotProduce bool
	Message    string
	Analysis   *ItemAnalysis
}

// PackagedItem is the result of the packaged-item task. Packaged items
// carry no freshness score or shelf life; they are already preserved.
type PackagedItem struct {
	Name                   string  `json:"name"`
	CarbonFootprintKg      float64 `json:"carbon_footprint_kg"`
	SustainableAlternative string  `json:"sustainable_alternative"`
	StorageTip             string  `json:"storage_tip"`
	NutritionInfo          string  `json:"nutrition_info"`
	PackageType            string  `json:"package_type"`
}

// PackagedResult is the outcome of the packaged-item task. NotPackaged
// mirrors FreshnessResult.NotProduce for the opposite direction.
type PackagedResult struct {
	NotPackaged bool
	Message     string
	Item        *PackagedItem
}

// DetectedItem is one detection from the live multi-item task. Unlike
// ItemAnalysis this variant keeps its compact 1-10 freshness scale; the
// two scales are never coerced into each other.
type DetectedItem struct {
	ItemName               string `json:"item_name"`
	Category               Category `json:"category"`
	FreshnessScore         int    `json:"freshness_score"`
	FreshnessDescription   string `json:"freshness_description"`
	EstimatedDaysRemaining int    `json:"estimated_days_remaining"`
	// Box is [y_min, x_min, y_max, x_max] normalized to 0-1000.
	// Degenerate boxes pass through unchanged; the consumer clamps.
	Box [4]int `json:"box"`
}

// LiveScanResult is the outcome of the live detection task.
type LiveScanResult struct {
	Detections []DetectedItem `json:"detections"`
}

// Recipe is one generated recipe suggestion.
type Recipe struct {
	Title         string   `json:"title"`
	Description   string   `json:"description"`
	Ingredients   []string `json:"ingredients"`
	Steps         []string `json:"steps"`
	CarbonSavings string   `json:"carbon_savings"`
	PrepTime      string   `json:"prep_time"`
}

// ShoppingTip is per-item picking guidance.
type ShoppingTip struct {
	Name      string   `json:"name"`
	Tips      []string `json:"tips"`
	Avoid     string   `json:"avoid"`
	ShelfLife string   `json:"shelfLife"`
}

// ShoppingGuidance is the outcome of the shopping task.
type ShoppingGuidance struct {
	Items []ShoppingTip `json:"items"`
}

// ChatTurn is one prior message in a conversation.
type ChatTurn struct {
	Role    string `json:"role"` // "user" or "assistant"
	Content string `json:"content"`
}

// VoiceChatInput is the input to a voice/text chat turn. Audio and Text
// are alternatives; when both are present the audio transcript wins.
type VoiceChatInput struct {
	Audio    string // base64
	MIMEType string
	Text     string
	History  []ChatTurn
	WakeWord string
}

// VoiceChatResult is the outcome of a chat turn. WakeWordDetected is nil
// when no wake word was requested.
type VoiceChatResult struct {
	Transcript       string `json:"transcript"`
	Response         string `json:"response"`
	WakeWordDetected *bool  `json:"wakeWordDetected,omitempty"`
}
