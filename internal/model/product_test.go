package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProductFieldValue(t *testing.T) {
	p := &Product{
		ID:          "B0BGR4FTZS",
		Title:       "Wireless Earbuds",
		Description: "Bluetooth 5.3 earbuds with charging case",
		Category:    "Electronics > Headphones",
		Brand:       "Acme Audio",
	}

	assert.Equal(t, "Wireless Earbuds", p.FieldValue(FieldTitle))
	assert.Equal(t, "Bluetooth 5.3 earbuds with charging case", p.FieldValue(FieldDescription))
	assert.Equal(t, "Electronics > Headphones", p.FieldValue(FieldCategory))
	assert.Equal(t, "Acme Audio", p.FieldValue(FieldBrand))
	assert.Equal(t, "", p.FieldValue(FieldBullet))
}

func TestProductMatchesTitle(t *testing.T) {
	p := &Product{Title: "Stainless Steel Water Bottle"}

	assert.True(t, p.MatchesTitle("WATER"))
	assert.True(t, p.MatchesTitle("steel water"))
	assert.False(t, p.MatchesTitle("plastic"))
}

func TestValidField(t *testing.T) {
	for _, f := range []Field{FieldTitle, FieldDescription, FieldCategory, FieldBrand, FieldBullet} {
		assert.True(t, ValidField(f), string(f))
	}
	assert.False(t, ValidField(Field("image_url")))
	assert.False(t, ValidField(Field("")))
}
