package analysis

import (
	"fmt"
	"strings"
)

// ProductInput is the product description sent for analysis.
type ProductInput struct {
	ProductName string `json:"productName"`
	Brands      string `json:"brands"`
	Brand       string `json:"brand"`
	Category    string `json:"category"`
	Ingredients string `json:"ingredients"`
}

func (p ProductInput) name() string {
	return orUnknown(p.ProductName)
}

func (p ProductInput) brand() string {
	if strings.TrimSpace(p.Brands) != "" {
		return p.Brands
	}
	return orUnknown(p.Brand)
}

func orUnknown(v string) string {
	if strings.TrimSpace(v) == "" {
		return "Unknown"
	}
	return v
}

const analyzeSchema = `{
  "healthScore": <number 0-100>,
  "overallAssessment": "<3-4 sentence summary of quality, concerns and recommendation>",
  "bottomLine": "<one sentence: should consumers buy this and why>",
  "harmfulIngredients": [
    {"name": "<ingredient>", "type": "<preservative/additive/colour/sweetener/emulsifier>", "riskLevel": "<low/medium/high>", "healthConcerns": "<risks>", "alternativeSuggestion": "<healthier alternative>"}
  ],
  "beneficialIngredients": [
    {"name": "<ingredient>", "benefit": "<benefit>"}
  ],
  "preservatives": [
    {"name": "<name and E-number>", "purpose": "<why it is used>", "safetyLevel": "<safe/concerns exist/avoid if possible>", "concerns": "<concerns>", "naturalAlternatives": "<alternatives>"}
  ],
  "personalizedRecommendations": {
    "forDiabetics": "<advice>",
    "forWeightLoss": "<advice>",
    "forMuscleBuilding": "<advice>",
    "forHeartHealth": "<advice>",
    "forKids": "<advice>",
    "forPregnancy": "<advice>",
    "forSeniors": "<advice>"
  },
  "allergenAlert": ["<allergen or may-contain warning>"],
  "warnings": ["<group-specific warning with reason>"],
  "recommendations": ["<frequency, serving size, pairing or alternative>"],
  "nutritionalConcerns": ["<concern against WHO or RDA guidance>"],
  "processingLevel": {
    "novaGroup": "<1-4>",
    "explanation": "<why>",
    "minimumProcessingAlternatives": "<less processed alternatives>"
  },
  "environmentalAndEthicalNotes": "<palm oil, sustainability, fair trade>"
}`

const focusAreas = `Pay particular attention to:
- Preservatives: BHA (E320), BHT (E321), TBHQ, sodium benzoate (E211), potassium sorbate (E202), sulfites (E220-228), sodium nitrite (E250), sodium nitrate (E251), propionic acid (E280)
- Artificial colours: tartrazine (E102), sunset yellow (E110), allura red (E129), brilliant blue (E133), erythrosine (E127)
- Artificial sweeteners: aspartame (E951), sucralose (E955), saccharin (E954), acesulfame K (E950)
- Trans fats: partially hydrogenated or hydrogenated vegetable oils
- Flavour enhancers: MSG (E621), disodium guanylate (E627), disodium inosinate (E631)
- Emulsifiers: polysorbate 80 (E433), carrageenan (E407), carboxymethylcellulose (E466)
- Processed sugars: high fructose corn syrup, corn syrup solids, maltodextrin`

func analyzePrompt(p ProductInput) string {
	return fmt.Sprintf(`You are a food scientist and nutritionist with 20 years of experience. Analyse this product thoroughly.

Product Name: %s
Brand: %s
Category: %s
Ingredients: %s

Reply with JSON only, in this shape:
%s

%s

Be evidence-based and specific. Order findings by risk level.
`, p.name(), p.brand(), orUnknown(p.Category), p.Ingredients, analyzeSchema, focusAreas)
}

func verdictPrompt(p ProductInput) string {
	return fmt.Sprintf(`As a food safety expert, assess these ingredients: %s

Reply with ONE sentence of at most 20 words using one level:
- EXCELLENT: nutrient-dense, minimal processing
- GOOD: mostly healthy, minor concerns
- MODERATE: some concerns, occasional consumption
- POOR: multiple red flags, limit intake
- AVOID: significant health risks

Format: "Verdict: [LEVEL] - [brief reason]"
`, p.Ingredients)
}

const compareSchema = `{
  "healthierChoice": "<A or B or TIE>",
  "confidenceLevel": "<high/medium/low>",
  "overallReasoning": "<3-4 sentences covering ingredients, processing and nutrition>",
  "detailedComparison": {
    "ingredients": {"productA": "<assessment>", "productB": "<assessment>", "winner": "<A or B or TIE>"},
    "additives": {"productA": "<count and severity>", "productB": "<count and severity>", "winner": "<A or B or TIE>"},
    "processing": {"productA": "<NOVA group>", "productB": "<NOVA group>", "winner": "<A or B or TIE>"}
  },
  "keyDifferences": ["<difference>"],
  "prosAndCons": {
    "productA": {"pros": ["<pro>"], "cons": ["<con>"]},
    "productB": {"pros": ["<pro>"], "cons": ["<con>"]}
  },
  "recommendation": "<which to choose and why>",
  "bottomLine": "<one sentence>"
}`

func comparePrompt(a, b ProductInput) string {
	return fmt.Sprintf(`Compare these two products.

Product A:
Name: %s
Brand: %s
Ingredients: %s

Product B:
Name: %s
Brand: %s
Ingredients: %s

Reply with JSON only, in this shape:
%s
`, a.name(), a.brand(), a.Ingredients, b.name(), b.brand(), b.Ingredients, compareSchema)
}
