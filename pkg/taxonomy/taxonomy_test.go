package taxonomy

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLookup(t *testing.T) {
	tests := []struct {
		identifier string
		want       Category
	}{
		{"person", Person},
		{"  Person ", Person},
		{"people", Person},
		{"face", Person},
		{"portrait", Person},
		{"group of 3 people", Person},
		{"car", Vehicle},
		{"sports car", Vehicle},
		{"Cars", Vehicle},
		{"buses", Vehicle},
		{"golden retriever", Animal},
		{"dogs", Animal},
		{"hot dog", Food},
		{"sky", Background},
		{"blue sky", Background},
		{"clouds", Background},
		{"grass", Background},
		{"outdoor", Background},
		{"beach", Scene},
		{"living_room", Scene},
		{"shirt", Clothing},
		{"sunglasses", Clothing},
		{"dresses", Clothing},
		{"wine glasses", Furniture},
		{"laptop", Electronics},
		{"receipt", Document},
		{"skyscraper", Structure},
		{"potted plant", Plant},
		{"abstract art", Unknown},
		{"", Unknown},
	}

	for _, tt := range tests {
		t.Run(tt.identifier, func(t *testing.T) {
			assert.Equal(t, tt.want, Lookup(tt.identifier), "Lookup(%q)", tt.identifier)
		})
	}
}

func TestEveryTableTermResolvesToItsCategory(t *testing.T) {
	for _, c := range Categories() {
		terms := Terms(c)
		assert.NotEmpty(t, terms, "category %s has no terms", c)
		for _, term := range terms {
			assert.Equal(t, c, Lookup(term), "term %q", term)
		}
	}
}

func TestGroup(t *testing.T) {
	assert.Equal(t, GroupPrimary, Person.Group())
	assert.Equal(t, GroupPrimary, Vehicle.Group())
	assert.Equal(t, GroupBackground, Scene.Group())
	assert.Equal(t, GroupBackground, Background.Group())
	for _, c := range []Category{Unknown, Animal, Food, Plant, Electronics, Furniture, Document, Clothing, Structure} {
		assert.Equal(t, GroupObject, c.Group(), "category %s", c)
	}
}

func TestCategoryString(t *testing.T) {
	assert.Equal(t, "person", Person.String())
	assert.Equal(t, "background", Background.String())
	assert.Equal(t, "unknown", Category(99).String())
}

func TestPredicates(t *testing.T) {
	assert.True(t, IsPerson("woman"))
	assert.True(t, IsVehicle("truck"))
	assert.True(t, IsBackground("horizon"))
	assert.True(t, IsClothing("hat"))
	assert.False(t, IsBackground("person"))
}
