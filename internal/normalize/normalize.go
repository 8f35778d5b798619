// Package normalize canonicalizes free-text city and category tokens to a
// fixed vocabulary. Lookups are idempotent: normalizing an already-normalized
// value returns it unchanged.
package normalize

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"mzohaib/bankdealworker/helpers"
)

// KnownCities is the fixed city list used for extraction guesses and the
// widget path's per-city queries. Karachi first: it doubles as the default.
var KnownCities = []string{
	"Karachi",
	"Lahore",
	"Islamabad",
	"Rawalpindi",
	"Faisalabad",
	"Multan",
	"Peshawar",
	"Quetta",
	"Hyderabad",
	"Sialkot",
	"Gujranwala",
}

var cityAliases = map[string]string{
	"karachi":          "Karachi",
	"lahore":           "Lahore",
	"islamabad":        "Islamabad",
	"rawalpindi":       "Rawalpindi",
	"faisalabad":       "Faisalabad",
	"multan":           "Multan",
	"peshawar":         "Peshawar",
	"quetta":           "Quetta",
	"hyderabad":        "Hyderabad",
	"sialkot":          "Sialkot",
	"gujranwala":       "Gujranwala",
	"bahawalpur":       "Bahawalpur",
	"sargodha":         "Sargodha",
	"sukkur":           "Sukkur",
	"larkana":          "Larkana",
	"mingora":          "Mingora",
	"muzaffarabad":     "Muzaffarabad",
	"mirpur":           "Mirpur",
	"abbottabad":       "Abbottabad",
	"dera ismail khan": "Dera Ismail Khan",
}

var categoryAliases = map[string]string{
	"food":          "Food",
	"dining":        "Food",
	"restaurant":    "Food",
	"clothing":      "Fashion",
	"fashion":       "Fashion",
	"shopping":      "Retail",
	"retail":        "Retail",
	"travel":        "Travel",
	"medical":       "Medical",
	"health":        "Medical",
	"electronics":   "Electronics",
	"grocery":       "Grocery",
	"entertainment": "Entertainment",
}

var titleCaser = cases.Title(language.English)

// City maps a free-text city token to its canonical form, falling back to
// title-casing the input when no alias matches.
func City(city string) string {
	key := strings.ToLower(helpers.CleanText(city))
	if canonical, ok := cityAliases[key]; ok {
		return canonical
	}
	return titleCaser.String(key)
}

// Category maps a free-text category token to its canonical form.
func Category(category string) string {
	key := strings.ToLower(helpers.CleanText(category))
	if canonical, ok := categoryAliases[key]; ok {
		return canonical
	}
	return titleCaser.String(key)
}
