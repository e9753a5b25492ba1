package domain

// SelectorAll is the synthetic selector that matches every product
const SelectorAll = "all"

// CategorySelector is a filter chip the presentation layer can choose.
// ID doubles as the case-insensitive substring matched against a product's category.
type CategorySelector struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Icon string `json:"icon"`
}

// Selectors are the category chips in display order
var Selectors = []CategorySelector{
	{ID: SelectorAll, Name: "All Products", Icon: "🌱"},
	{ID: "clothing", Name: "Clothing", Icon: "👕"},
	{ID: "electronics", Name: "Electronics", Icon: "📱"},
	{ID: "home", Name: "Home & Garden", Icon: "🏠"},
	{ID: "beauty", Name: "Beauty", Icon: "🧴"},
}

// LookupSelector finds a selector by id
func LookupSelector(id string) (CategorySelector, bool) {
	for _, s := range Selectors {
		if s.ID == id {
			return s, true
		}
	}
	return CategorySelector{}, false
}
