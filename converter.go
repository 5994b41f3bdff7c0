package unitconverter

import (
	"errors"
	"sort"
	"strconv"
	"strings"
)

// Sentinel results. Their Error text is what Convert returns for them.
var (
	ErrInvalidInput      = errors.New("Invalid Input")
	ErrInvalidConversion = errors.New("Invalid Conversion")
)

// ResultPrecision is the number of fractional digits in a formatted result.
const ResultPrecision = 5

type ConversionRule struct {
	Category Category
	FromUnit string
	ToUnit   string
	Formula  func(float64) float64
}

type ruleKey struct {
	category Category
	from     string
	to       string
}

func mul(factor float64) func(float64) float64 {
	return func(v float64) float64 { return v * factor }
}

func div(divisor float64) func(float64) float64 {
	return func(v float64) float64 { return v / divisor }
}

// Directed rules. A pair listed here does not imply its reverse.
var conversionRules = []ConversionRule{
	{Temperature, UnitCelsius, UnitFahrenheit, func(v float64) float64 { return v*9/5 + 32 }},
	{Temperature, UnitFahrenheit, UnitCelsius, func(v float64) float64 { return (v - 32) * 5 / 9 }},
	{Temperature, UnitCelsius, UnitKelvin, func(v float64) float64 { return v + 273.15 }},
	{Temperature, UnitKelvin, UnitCelsius, func(v float64) float64 { return v - 273.15 }},
	{Temperature, UnitKelvin, UnitFahrenheit, func(v float64) float64 { return (v-273.15)*9/5 + 32 }},
	{Temperature, UnitFahrenheit, UnitKelvin, func(v float64) float64 { return (v-32)*5/9 + 273.15 }},

	{Length, UnitMeters, UnitYards, mul(1.09361)},
	{Length, UnitYards, UnitMeters, div(1.09361)},
	{Length, UnitMiles, UnitKilometers, mul(1.60934)},
	{Length, UnitKilometers, UnitMiles, div(1.60934)},
	{Length, UnitFeet, UnitInches, mul(12)},
	{Length, UnitInches, UnitFeet, div(12)},
	{Length, UnitMeters, UnitFeet, mul(3.28084)},
	{Length, UnitFeet, UnitMeters, div(3.28084)},
	{Length, UnitFeet, UnitYards, div(3)},
	{Length, UnitYards, UnitFeet, mul(3)},
	{Length, UnitMiles, UnitYards, mul(1760)},
	{Length, UnitYards, UnitMiles, div(1760)},
	{Length, UnitKilometers, UnitYards, mul(1093.61)},
	{Length, UnitYards, UnitKilometers, div(1093.61)},

	{Weight, UnitKilograms, UnitPounds, mul(2.20462)},
	{Weight, UnitPounds, UnitKilograms, div(2.20462)},
	{Weight, UnitGrams, UnitOunces, div(28.3495)},
	{Weight, UnitOunces, UnitGrams, mul(28.3495)},
	{Weight, UnitKilograms, UnitGrams, mul(1000)},
	{Weight, UnitGrams, UnitKilograms, div(1000)},
	{Weight, UnitPounds, UnitOunces, mul(16)},
	{Weight, UnitOunces, UnitPounds, div(16)},
	{Weight, UnitGrams, UnitPounds, div(453.592)},
	{Weight, UnitPounds, UnitGrams, mul(453.592)},
	{Weight, UnitKilograms, UnitOunces, mul(35.274)},
	{Weight, UnitOunces, UnitKilograms, div(35.274)},
	{Weight, UnitKilograms, UnitMilligrams, mul(1_000_000)},
	{Weight, UnitMilligrams, UnitKilograms, div(1_000_000)},
	{Weight, UnitPounds, UnitMilligrams, mul(453_592)},
	{Weight, UnitMilligrams, UnitPounds, div(453_592)},
}

var ruleIndex = buildRuleIndex(conversionRules)

func buildRuleIndex(rules []ConversionRule) map[ruleKey]func(float64) float64 {
	idx := make(map[ruleKey]func(float64) float64, len(rules))
	for _, r := range rules {
		idx[ruleKey{r.Category, r.FromUnit, r.ToUnit}] = r.Formula
	}
	return idx
}

// Rules returns a copy of the conversion table ordered by category, source
// and target unit.
func Rules() []ConversionRule {
	rules := append([]ConversionRule(nil), conversionRules...)
	sort.Slice(rules, func(i, j int) bool {
		if rules[i].Category != rules[j].Category {
			return rules[i].Category < rules[j].Category
		}
		if rules[i].FromUnit != rules[j].FromUnit {
			return rules[i].FromUnit < rules[j].FromUnit
		}
		return rules[i].ToUnit < rules[j].ToUnit
	})
	return rules
}

// Supported reports whether the table has a rule for the exact triple.
func Supported(category, fromUnit, toUnit string) bool {
	_, ok := ruleIndex[ruleKey{Category(category), fromUnit, toUnit}]
	return ok
}

// ConvertValue is the structured form of Convert. Failures are
// ErrInvalidInput or ErrInvalidConversion.
func ConvertValue(rawInput, category, fromUnit, toUnit string) (float64, error) {
	if rawInput == "" || fromUnit == "" || toUnit == "" {
		return 0, ErrInvalidInput
	}
	value, err := parseValue(rawInput)
	if err != nil {
		return 0, err
	}
	// identity skips category and unit validation
	if fromUnit == toUnit {
		return value, nil
	}
	if _, ok := ParseCategory(category); !ok {
		return 0, ErrInvalidConversion
	}
	formula, ok := ruleIndex[ruleKey{Category(category), fromUnit, toUnit}]
	if !ok {
		return 0, ErrInvalidConversion
	}
	return formula(value), nil
}

// Convert converts rawInput from fromUnit to toUnit within category and
// returns the result with five fractional digits, or "Invalid Input" /
// "Invalid Conversion".
func Convert(rawInput, category, fromUnit, toUnit string) string {
	value, err := ConvertValue(rawInput, category, fromUnit, toUnit)
	if err != nil {
		return err.Error()
	}
	return FormatValue(value)
}

func FormatValue(v float64) string {
	return strconv.FormatFloat(v, 'f', ResultPrecision, 64)
}

// Surrounding control characters and spaces are ignored, as a JVM double
// parser does. Overflow (strconv.ErrRange) counts as unparseable.
func parseValue(s string) (float64, error) {
	s = strings.TrimFunc(s, func(r rune) bool { return r <= ' ' })
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, ErrInvalidInput
	}
	return v, nil
}
