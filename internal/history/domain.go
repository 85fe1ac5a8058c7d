package history

import (
	"time"

	"github.com/nutriscan/nutriscan/internal/product"
)

const (
	// DefaultListLimit is applied when a caller does not ask for a page size.
	DefaultListLimit = 20
	// MaxListLimit bounds a single history page.
	MaxListLimit = 100
)

// Record is one persisted scan.
type Record struct {
	ID            string                `json:"_id"`
	Barcode       string                `json:"barcode" validate:"required,barcode"`
	ProductName   string                `json:"productName" validate:"max=512"`
	Brands        string                `json:"brands" validate:"max=512"`
	ImageURL      string                `json:"imageUrl,omitempty" validate:"omitempty,url"`
	HealthScore   int                   `json:"healthScore" validate:"min=0,max=100"`
	NutriScore    string                `json:"nutriScore" validate:"max=3"`
	NutritionData product.NutritionData `json:"nutritionData"`
	ScannedAt     time.Time             `json:"scannedAt"`
	UserID        string                `json:"userId,omitempty" validate:"max=128"`
	CreatedAt     time.Time             `json:"createdAt"`
	UpdatedAt     time.Time             `json:"updatedAt"`
}

// CreateInput is the client payload for a new scan.
type CreateInput struct {
	Barcode       string                `json:"barcode"`
	ProductName   string                `json:"productName"`
	Brands        string                `json:"brands"`
	ImageURL      string                `json:"imageUrl"`
	HealthScore   int                   `json:"healthScore"`
	NutriScore    string                `json:"nutriScore"`
	NutritionData product.NutritionData `json:"nutritionData"`
	ScannedAt     *time.Time            `json:"scannedAt"`
	UserID        string                `json:"userId"`
}

func (in CreateInput) record() Record {
	r := Record{
		Barcode:       in.Barcode,
		ProductName:   in.ProductName,
		Brands:        in.Brands,
		ImageURL:      in.ImageURL,
		HealthScore:   in.HealthScore,
		NutriScore:    in.NutriScore,
		NutritionData: in.NutritionData,
		UserID:        in.UserID,
	}
	if in.ScannedAt != nil {
		r.ScannedAt = *in.ScannedAt
	}
	return r
}
