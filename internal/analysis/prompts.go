package analysis

import (
	"fmt"
	"strings"

	"github.com/lithammer/dedent"
)

// Per-task output token caps: short caps keep structured extraction
// cheap and fast, the free-form tasks get room to write.
const (
	freshnessMaxTokens = 400
	packagedMaxTokens  = 300
	liveMaxTokens      = 512
	recipesMaxTokens   = 2048
	chatMaxTokens      = 500
	shoppingMaxTokens  = 1024
)

const freshnessPrompt = `You are a food freshness analyzer. Carefully examine this image.

CRITICAL RULES:
1. FIRST check if this image shows a BARCODE or PACKAGED/PROCESSED item (cans, boxes, bottles, bags with labels/barcodes)
2. If you see a BARCODE as the main subject or a PACKAGED item, respond: {"isProduce":false,"message":"This appears to be a packaged item with a barcode"}
3. If it's PERISHABLE food (fruits, vegetables, dairy, meat, bread, etc.), be extremely accurate with the item name
4. Classify the item into exactly one category: fruit, vegetable, meat, seafood, dairy, grain, pantry, beverage, other
5. Be HARSH with freshness scoring - use strict standards on a 0-100 scale:
   - 90-100: Perfect condition, just harvested/produced, no flaws
   - 75-89: Very good, minor imperfections, will last well
   - 55-74: Acceptable quality, some visible issues, use soon
   - 35-54: Poor quality, significant issues, use immediately
   - 0-34: Should not be consumed, spoiled
6. Calculate realistic shelf life in days based on current freshness
7. Provide detailed freshness observations
8. For the sustainable alternative, suggest a lower carbon option with a reason and estimated carbon savings percent

If this is a BARCODE or PACKAGED item, respond: {"isProduce":false,"message":"This appears to be a packaged item with a barcode"}
If this IS a perishable item, respond with ONLY this JSON (no markdown, no extra text):
{"isProduce":true,"name":"specific item name","category":"fruit","freshnessScore":0-100,"freshnessLevel":"Excellent/Good/Fair/Poor","shelfLifeDays":X,"storageTips":["specific storage advice","another tip"],"indicators":["detailed observation 1","detailed observation 2","detailed observation 3"],"sustainableAlternative":{"name":"lower carbon alternative","reason":"why it is better","carbonSavingsPercent":X}}`

const packagedPrompt = `You are a packaged food item analyzer. Carefully examine this image.

CRITICAL RULES:
1. First, check if this image contains a PACKAGED/PROCESSED item (canned goods, boxed items, bottles, bags, items with barcodes or product labels)
2. If this is NOT a packaged item (e.g., it's fresh produce, raw ingredients, or not food), respond with: {"isPackaged":false,"message":"This appears to be fresh produce or not a packaged item"}
3. If it IS a packaged item, extract the product name from packaging/label
4. Provide storage instructions based on packaging type
5. Calculate carbon footprint in kg CO2e (estimate based on packaging, processing, transport)
6. Suggest sustainable alternatives (less packaging, local options, etc.)
7. Provide nutrition information if visible on packaging
8. This is a PACKAGED item - it has NO freshness score and NO shelf life days (it's already preserved)

Respond with ONLY this JSON (no markdown, no extra text):
If NOT packaged: {"isPackaged":false,"message":"This appears to be fresh produce or not a packaged item"}
If IS packaged: {"isPackaged":true,"name":"specific product name","carbonFootprint":X.XX,"sustainableAlternative":"lower carbon/less packaging alternative","storageTip":"specific storage advice for this packaged item","nutritionInfo":"brief nutrition summary if visible, or 'Check packaging for details'","packageType":"can/bottle/box/bag/etc"}`

const livePrompt = `Detect every grocery item visible in this image (at most 5 items). For each item report a bounding box and a quick freshness estimate.

Rules:
- Bounding box coordinates are [y_min, x_min, y_max, x_max], normalized to 0-1000
- freshness_score is on a 1-10 scale (10 = perfectly fresh)
- category is one of: fruit, vegetable, meat, seafood, dairy, grain, pantry, beverage, other
- If no grocery items are visible, respond with {"detections":[]}

Respond with ONLY this JSON (no markdown, no extra text):
{"detections":[{"item_name":"...","category":"fruit","freshness_score":1-10,"freshness_description":"short descriptor","estimated_days_remaining":X,"box":[y_min,x_min,y_max,x_max]}]}`

const recipesPromptTemplate = `Create simple, delicious recipes using these ingredients that are about to expire: %s.

Requirements:
- Keep them simple and practical
- 30 minutes or less to prepare
- Include basic cooking instructions
- Highlight the food waste and carbon savings of using up these ingredients

Respond with ONLY a JSON array (no markdown, no extra text):
[{"title":"recipe name","description":"one sentence","ingredients":["ingredient with quantity"],"steps":["step 1","step 2"],"carbon_savings":"short note","prep_time":"X minutes"}]`

const shoppingPromptTemplate = `You are a produce freshness expert. For each item below, provide:
1. How to pick the freshest one (2-3 key tips)
2. What to avoid
3. Expected shelf life when stored properly

Items: %s

Respond in JSON format:
{
  "items": [
    {
      "name": "item name",
      "tips": ["tip1", "tip2"],
      "avoid": "what to avoid",
      "shelfLife": "X days"
    }
  ]
}`

const transcribePrompt = `Transcribe this audio exactly. Return only the transcription, nothing else.`

const voiceChatSystemPrompt = `You are Chris, a friendly and knowledgeable grocery shopping assistant for the CrispIt app. You help people pick the freshest produce, store food properly, and reduce food waste. Keep responses concise (under 150 words) and conversational — you're being read aloud via text-to-speech.`

// textChatSystemPrompt builds the context-aware system prompt for the
// text chat task from the caller's collection and fridge summaries.
func textChatSystemPrompt(collectionNames, fridgeItems string) string {
	if collectionNames == "" {
		collectionNames = "None yet"
	}
	if fridgeItems == "" {
		fridgeItems = "Empty"
	}
	return fmt.Sprintf(strings.TrimSpace(dedent.Dedent(`
		You are CrispIt AI, a helpful assistant for a produce freshness tracking app.

		USER'S DATA:
		- Collection (unique produce discovered): %s
		- Fridge (current items): %s

		Your role:
		- Answer questions about their collection and fridge items
		- Suggest recipes based on what they have
		- Recommend new produce to try based on their collection
		- Provide tips on produce selection, storage, and usage
		- Be friendly, concise, and practical

		Keep responses under 200 words unless asked for more detail.`)),
		collectionNames, fridgeItems)
}
