package product

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

const (
	// DefaultName is used when upstream has no product name.
	DefaultName = "Unknown Product"
	// DefaultBrand is used when upstream has no brand.
	DefaultBrand = "Unknown Brand"
	// UnknownGrade is reported when the nutri-score grade is absent or unrecognised.
	UnknownGrade = "N/A"
)

// Nutriments holds the per-100g values reported by the food database.
// A nil field means the value was absent upstream.
type Nutriments struct {
	EnergyKcal    *float64
	Fat           *float64
	SaturatedFat  *float64
	Carbohydrates *float64
	Sugars        *float64
	Fiber         *float64
	Proteins      *float64
	Salt          *float64
}

// UnmarshalJSON accepts numbers and numeric strings, ignoring anything else.
func (n *Nutriments) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	n.EnergyKcal = extractFloat(raw, "energy-kcal_100g")
	n.Fat = extractFloat(raw, "fat_100g")
	n.SaturatedFat = extractFloat(raw, "saturated-fat_100g")
	n.Carbohydrates = extractFloat(raw, "carbohydrates_100g")
	n.Sugars = extractFloat(raw, "sugars_100g")
	n.Fiber = extractFloat(raw, "fiber_100g")
	n.Proteins = extractFloat(raw, "proteins_100g")
	n.Salt = extractFloat(raw, "salt_100g")
	return nil
}

// RawProduct is the subset of an Open Food Facts product record the service reads.
type RawProduct struct {
	Code            string     `json:"code"`
	ProductName     string     `json:"product_name"`
	Brands          string     `json:"brands"`
	Categories      string     `json:"categories"`
	ImageURL        string     `json:"image_url"`
	ImageFrontURL   string     `json:"image_front_url"`
	NutriscoreGrade string     `json:"nutriscore_grade"`
	NovaGroup       *int       `json:"-"`
	AdditivesTags   []string   `json:"additives_tags"`
	IngredientsText string     `json:"ingredients_text"`
	AllergensTags   []string   `json:"allergens_tags"`
	Nutriments      Nutriments `json:"nutriments"`
}

// UnmarshalJSON decodes the record, tolerating a string-encoded nova_group.
// A fractional group is treated as absent.
func (p *RawProduct) UnmarshalJSON(data []byte) error {
	type alias RawProduct
	aux := struct {
		*alias
		NovaGroup json.RawMessage `json:"nova_group"`
	}{alias: (*alias)(p)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	p.NovaGroup = nil
	if v := parseFloat(aux.NovaGroup); v != nil && *v == math.Trunc(*v) {
		group := int(*v)
		p.NovaGroup = &group
	}
	return nil
}

// NutritionData is the normalised per-100g nutrition block.
type NutritionData struct {
	Energy        *float64 `json:"energy,omitempty" bson:"energy,omitempty"`
	Fat           *float64 `json:"fat,omitempty" bson:"fat,omitempty"`
	SaturatedFat  *float64 `json:"saturatedFat,omitempty" bson:"saturatedFat,omitempty"`
	Carbohydrates *float64 `json:"carbohydrates,omitempty" bson:"carbohydrates,omitempty"`
	Sugars        *float64 `json:"sugars,omitempty" bson:"sugars,omitempty"`
	Fiber         *float64 `json:"fiber,omitempty" bson:"fiber,omitempty"`
	Proteins      *float64 `json:"proteins,omitempty" bson:"proteins,omitempty"`
	Salt          *float64 `json:"salt,omitempty" bson:"salt,omitempty"`
}

// Product is the scored, normalised record returned to clients and cached.
type Product struct {
	Barcode       string        `json:"barcode"`
	ProductName   string        `json:"productName"`
	Brands        string        `json:"brands"`
	ImageURL      string        `json:"imageUrl,omitempty"`
	Categories    string        `json:"categories,omitempty"`
	HealthScore   int           `json:"healthScore"`
	NutriScore    string        `json:"nutriScore"`
	NovaGroup     *int          `json:"novaGroup,omitempty"`
	NutritionData NutritionData `json:"nutritionData"`
	Additives     int           `json:"additives"`
	Ingredients   string        `json:"ingredients,omitempty"`
	Allergens     []string      `json:"allergens,omitempty"`
}

// Clone returns a deep copy so cached values are never shared with callers.
func (p Product) Clone() Product {
	out := p
	if p.NovaGroup != nil {
		v := *p.NovaGroup
		out.NovaGroup = &v
	}
	out.NutritionData = p.NutritionData.clone()
	if p.Allergens != nil {
		out.Allergens = append([]string(nil), p.Allergens...)
	}
	return out
}

func (n NutritionData) clone() NutritionData {
	return NutritionData{
		Energy:        cloneFloat(n.Energy),
		Fat:           cloneFloat(n.Fat),
		SaturatedFat:  cloneFloat(n.SaturatedFat),
		Carbohydrates: cloneFloat(n.Carbohydrates),
		Sugars:        cloneFloat(n.Sugars),
		Fiber:         cloneFloat(n.Fiber),
		Proteins:      cloneFloat(n.Proteins),
		Salt:          cloneFloat(n.Salt),
	}
}

func cloneFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	out := *v
	return &out
}

func extractFloat(raw map[string]json.RawMessage, key string) *float64 {
	msg, ok := raw[key]
	if !ok {
		return nil
	}
	return parseFloat(msg)
}

func parseFloat(msg json.RawMessage) *float64 {
	if len(msg) == 0 || string(msg) == "null" {
		return nil
	}
	var num float64
	if err := json.Unmarshal(msg, &num); err == nil {
		return &num
	}
	var str string
	if err := json.Unmarshal(msg, &str); err != nil {
		return nil
	}
	num, err := strconv.ParseFloat(strings.TrimSpace(str), 64)
	if err != nil || math.IsNaN(num) || math.IsInf(num, 0) {
		return nil
	}
	return &num
}
