package product

import "strings"

// Normalize builds the client-facing product from a raw record and its score.
// requested is used as the barcode when upstream omits the code.
func Normalize(raw RawProduct, requested string, score int) Product {
	p := Product{
		Barcode:     firstNonEmpty(raw.Code, requested),
		ProductName: firstNonEmpty(raw.ProductName, DefaultName),
		Brands:      firstNonEmpty(raw.Brands, DefaultBrand),
		ImageURL:    firstNonEmpty(raw.ImageURL, raw.ImageFrontURL),
		Categories:  raw.Categories,
		HealthScore: score,
		NutriScore:  normalizeGrade(raw.NutriscoreGrade),
		NutritionData: NutritionData{
			Energy:        cloneFloat(raw.Nutriments.EnergyKcal),
			Fat:           cloneFloat(raw.Nutriments.Fat),
			SaturatedFat:  cloneFloat(raw.Nutriments.SaturatedFat),
			Carbohydrates: cloneFloat(raw.Nutriments.Carbohydrates),
			Sugars:        cloneFloat(raw.Nutriments.Sugars),
			Fiber:         cloneFloat(raw.Nutriments.Fiber),
			Proteins:      cloneFloat(raw.Nutriments.Proteins),
			Salt:          cloneFloat(raw.Nutriments.Salt),
		},
		Additives:   len(raw.AdditivesTags),
		Ingredients: raw.IngredientsText,
	}
	if raw.NovaGroup != nil && *raw.NovaGroup >= 1 && *raw.NovaGroup <= 4 {
		group := *raw.NovaGroup
		p.NovaGroup = &group
	}
	if len(raw.AllergensTags) > 0 {
		p.Allergens = append([]string(nil), raw.AllergensTags...)
	}
	return p
}

// normalizeGrade upper-cases a-e and reports anything else as N/A.
func normalizeGrade(grade string) string {
	g := strings.ToLower(strings.TrimSpace(grade))
	if _, ok := gradePoints[g]; ok {
		return strings.ToUpper(g)
	}
	return UnknownGrade
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
