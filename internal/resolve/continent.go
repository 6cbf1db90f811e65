// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package resolve

// Continent returns the continent of a country as named in the
// university list, or "" when unknown.
func Continent(country string) string {
	return countryContinent[country]
}

var countryContinent = map[string]string{
	// Africa
	"Algeria":      "Africa",
	"Angola":       "Africa",
	"Benin":        "Africa",
	"Botswana":     "Africa",
	"Burkina Faso": "Africa",
	"Cameroon":     "Africa",
	"Egypt":        "Africa",
	"Ethiopia":     "Africa",
	"Ghana":        "Africa",
	"Kenya":        "Africa",
	"Morocco":      "Africa",
	"Nigeria":      "Africa",
	"Rwanda":       "Africa",
	"Senegal":      "Africa",
	"South Africa": "Africa",
	"Tanzania":     "Africa",
	"Tunisia":      "Africa",
	"Uganda":       "Africa",
	"Zimbabwe":     "Africa",
	// Asia
	"Bangladesh":                "Asia",
	"China":                     "Asia",
	"Hong Kong":                 "Asia",
	"India":                     "Asia",
	"Indonesia":                 "Asia",
	"Iran":                      "Asia",
	"Iraq":                      "Asia",
	"Israel":                    "Asia",
	"Japan":                     "Asia",
	"Jordan":                    "Asia",
	"Kazakhstan":                "Asia",
	"Kuwait":                    "Asia",
	"Lebanon":                   "Asia",
	"Macau":                     "Asia",
	"Malaysia":                  "Asia",
	"Myanmar":                   "Asia",
	"Nepal":                     "Asia",
	"Oman":                      "Asia",
	"Pakistan":                  "Asia",
	"Philippines":               "Asia",
	"Qatar":                     "Asia",
	"Saudi Arabia":              "Asia",
	"Singapore":                 "Asia",
	"South Korea":               "Asia",
	"Sri Lanka":                 "Asia",
	"Syria":                     "Asia",
	"Taiwan":                    "Asia",
	"Thailand":                  "Asia",
	"Turkey":                    "Asia",
	"United Arab Emirates":      "Asia",
	"Vietnam":                   "Asia",
	"Taiwan, Province of China": "Asia",
	// Europe
	"Albania":                "Europe",
	"Austria":                "Europe",
	"Belgium":                "Europe",
	"Bosnia and Herzegovina": "Europe",
	"Bulgaria":               "Europe",
	"Croatia":                "Europe",
	"Cyprus":                 "Europe",
	"Czech Republic":         "Europe",
	"Czechia":                "Europe",
	"Denmark":                "Europe",
	"Estonia":                "Europe",
	"Finland":                "Europe",
	"France":                 "Europe",
	"Germany":                "Europe",
	"Greece":                 "Europe",
	"Hungary":                "Europe",
	"Iceland":                "Europe",
	"Ireland":                "Europe",
	"Italy":                  "Europe",
	"Latvia":                 "Europe",
	"Lithuania":              "Europe",
	"Luxembourg":             "Europe",
	"Malta":                  "Europe",
	"Montenegro":             "Europe",
	"Netherlands":            "Europe",
	"North Macedonia":        "Europe",
	"Norway":                 "Europe",
	"Poland":                 "Europe",
	"Portugal":               "Europe",
	"Romania":                "Europe",
	"Russia":                 "Europe",
	"Serbia":                 "Europe",
	"Slovakia":               "Europe",
	"Slovenia":               "Europe",
	"Spain":                  "Europe",
	"Sweden":                 "Europe",
	"Switzerland":            "Europe",
	"United Kingdom":         "Europe",
	// North America
	"Canada":              "North America",
	"Costa Rica":          "North America",
	"Cuba":                "North America",
	"Dominican Republic":  "North America",
	"Guatemala":           "North America",
	"Haiti":               "North America",
	"Honduras":            "North America",
	"Jamaica":             "North America",
	"Mexico":              "North America",
	"Nicaragua":           "North America",
	"Panama":              "North America",
	"Trinidad and Tobago": "North America",
	"United States":       "North America",
	// South America
	"Argentina": "South America",
	"Bolivia":   "South America",
	"Brazil":    "South America",
	"Chile":     "South America",
	"Colombia":  "South America",
	"Ecuador":   "South America",
	"Paraguay":  "South America",
	"Peru":      "South America",
	"Uruguay":   "South America",
	"Venezuela": "South America",
	// Oceania
	"Australia":        "Oceania",
	"Fiji":             "Oceania",
	"New Zealand":      "Oceania",
	"Papua New Guinea": "Oceania",
}
