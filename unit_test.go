package unitconverter_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"unitconverter"
)

func TestCategories(t *testing.T) {
	cats := unitconverter.Categories()
	require.Equal(t, []unitconverter.Category{unitconverter.Temperature, unitconverter.Length, unitconverter.Weight}, cats)

	cats[0] = "Mutated"
	assert.Equal(t, unitconverter.Temperature, unitconverter.Categories()[0])
}

func TestUnitsOf(t *testing.T) {
	assert.Equal(t, []string{"Celsius", "Fahrenheit", "Kelvin"}, unitconverter.UnitsOf(unitconverter.Temperature))
	assert.Equal(t, []string{"Meters", "Yards", "Feet", "Inches", "Miles", "Kilometers"}, unitconverter.UnitsOf(unitconverter.Length))
	assert.Equal(t, []string{"Kilograms", "Grams", "Pounds", "Ounces", "Milligrams"}, unitconverter.UnitsOf(unitconverter.Weight))
	assert.Nil(t, unitconverter.UnitsOf("Volume"))
}

func TestParseCategory(t *testing.T) {
	c, ok := unitconverter.ParseCategory("Length")
	require.True(t, ok)
	assert.Equal(t, unitconverter.Length, c)

	_, ok = unitconverter.ParseCategory("length")
	assert.False(t, ok)
}

func TestIsUnitOf(t *testing.T) {
	assert.True(t, unitconverter.IsUnitOf(unitconverter.Weight, "Ounces"))
	assert.False(t, unitconverter.IsUnitOf(unitconverter.Weight, "Meters"))
	assert.False(t, unitconverter.IsUnitOf("Volume", "Liters"))
}
