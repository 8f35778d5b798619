package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCityAliases(t *testing.T) {
	assert.Equal(t, "Karachi", City("karachi"))
	assert.Equal(t, "Lahore", City("  LAHORE "))
	assert.Equal(t, "Dera Ismail Khan", City("dera ismail khan"))
}

func TestCityFallbackTitleCases(t *testing.T) {
	assert.Equal(t, "Gwadar", City("gwadar"))
	assert.Equal(t, "New City", City("new city"))
}

func TestCityIdempotent(t *testing.T) {
	for _, city := range KnownCities {
		assert.Equal(t, city, City(City(city)))
	}
	assert.Equal(t, "Gwadar", City(City("gwadar")))
}

func TestCategoryAliases(t *testing.T) {
	assert.Equal(t, "Food", Category("dining"))
	assert.Equal(t, "Food", Category("Restaurant"))
	assert.Equal(t, "Fashion", Category("clothing"))
	assert.Equal(t, "Medical", Category("health"))
	assert.Equal(t, "Retail", Category("shopping"))
}

func TestCategoryIdempotent(t *testing.T) {
	assert.Equal(t, "Food", Category(Category("food")))
	assert.Equal(t, "Handicrafts", Category(Category("handicrafts")))
}
