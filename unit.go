package unitconverter

type Category string

const (
	Temperature Category = "Temperature"
	Length      Category = "Length"
	Weight      Category = "Weight"
)

const (
	UnitCelsius    = "Celsius"
	UnitFahrenheit = "Fahrenheit"
	UnitKelvin     = "Kelvin"

	UnitMeters     = "Meters"
	UnitYards      = "Yards"
	UnitFeet       = "Feet"
	UnitInches     = "Inches"
	UnitMiles      = "Miles"
	UnitKilometers = "Kilometers"

	UnitKilograms  = "Kilograms"
	UnitGrams      = "Grams"
	UnitPounds     = "Pounds"
	UnitOunces     = "Ounces"
	UnitMilligrams = "Milligrams"
)

var categories = []Category{Temperature, Length, Weight}

// unit lists in the order a picker shows them
var categoryUnits = map[Category][]string{
	Temperature: {UnitCelsius, UnitFahrenheit, UnitKelvin},
	Length:      {UnitMeters, UnitYards, UnitFeet, UnitInches, UnitMiles, UnitKilometers},
	Weight:      {UnitKilograms, UnitGrams, UnitPounds, UnitOunces, UnitMilligrams},
}

// Categories returns every known category.
func Categories() []Category {
	return append([]Category(nil), categories...)
}

// UnitsOf returns the unit names valid within a category, or nil when the
// category is unknown.
func UnitsOf(c Category) []string {
	units, ok := categoryUnits[c]
	if !ok {
		return nil
	}
	return append([]string(nil), units...)
}

func ParseCategory(s string) (Category, bool) {
	c := Category(s)
	_, ok := categoryUnits[c]
	return c, ok
}

// IsUnitOf reports whether unit belongs to category c.
func IsUnitOf(c Category, unit string) bool {
	for _, u := range categoryUnits[c] {
		if u == unit {
			return true
		}
	}
	return false
}
