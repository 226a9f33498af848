package models

// Category is a named spending bucket. The set is fixed and seeded by migration.
type Category struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}

// DefaultCategoryColor is used for categories without an assigned colour
const DefaultCategoryColor = "#95a5a6"

var categoryColors = map[string]string{
	"Food & Drinks":        "#f94144",
	"Shopping":             "#f3722c",
	"Housing":              "#f8961e",
	"Transportation":       "#f9844a",
	"Vehicle":              "#f9c74f",
	"Life & Entertainment": "#90be6d",
	"Communication, PC":    "#43aa8b",
	"Financial expenses":   "#577590",
	"Investments":          "#277da1",
	"Income":               "#8e44ad",
	"Others":               "#34495e",
}

// CategoryColor returns the chart colour for a category
func CategoryColor(name string) string {
	if c, ok := categoryColors[name]; ok {
		return c
	}
	return DefaultCategoryColor
}
