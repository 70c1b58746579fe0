package model

import "strings"

// Field identifies a mutable product listing field.
type Field string

const (
	FieldTitle       Field = "title"
	FieldDescription Field = "description"
	FieldCategory    Field = "category"
	FieldBrand       Field = "brand"
	FieldBullet      Field = "bullet_point"
)

// ValidField reports whether f names a field the apply stage can edit.
func ValidField(f Field) bool {
	switch f {
	case FieldTitle, FieldDescription, FieldCategory, FieldBrand, FieldBullet:
		return true
	default:
		return false
	}
}

// Product represents a single retail listing loaded from the catalog file.
// The pipeline reads it and requests field-level mutations through the
// catalog; it never keeps a private copy past one cycle.
type Product struct {
	ID            string   `json:"product_id"`
	Title         string   `json:"title"`
	Universe      string   `json:"universe,omitempty"`
	ImageURLs     []string `json:"image_url,omitempty"`
	BulletPoints  []string `json:"bullet_points,omitempty"`
	MinRankSearch float64  `json:"min_rank_search,omitempty"`
	AvgRankSearch float64  `json:"avg_rank_search,omitempty"`
	MinRankCat    float64  `json:"min_rank_category,omitempty"`
	AvgRankCat    float64  `json:"avg_rank_category,omitempty"`
	Category      string   `json:"retailer_category_node,omitempty"`
	Brand         string   `json:"retailer_brand_name,omitempty"`
	Description   string   `json:"description_filled,omitempty"`
}

// FieldValue returns the current value of a scalar field. Bullet points are
// positional and read through BulletPoints directly.
func (p *Product) FieldValue(f Field) string {
	switch f {
	case FieldTitle:
		return p.Title
	case FieldDescription:
		return p.Description
	case FieldCategory:
		return p.Category
	case FieldBrand:
		return p.Brand
	default:
		return ""
	}
}

// MatchesTitle reports whether the product title contains the query,
// case-insensitively.
func (p *Product) MatchesTitle(query string) bool {
	return strings.Contains(strings.ToLower(p.Title), strings.ToLower(query))
}
