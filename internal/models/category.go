package models

// Category groups cards. Color is a display tag only.
type Category struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
}

type CategoryPatch struct {
	Name  *string `json:"name,omitempty"`
	Color *string `json:"color,omitempty"`
}

// CategoryColors is the fixed display palette.
var CategoryColors = []string{
	"bg-red-500",
	"bg-blue-500",
	"bg-green-500",
	"bg-yellow-500",
	"bg-purple-500",
	"bg-pink-500",
	"bg-indigo-500",
	"bg-orange-500",
	"bg-teal-500",
	"bg-cyan-500",
}

const DefaultCategoryColor = "bg-red-500"

// ValidCategoryColor reports whether c belongs to the palette.
func ValidCategoryColor(c string) bool {
	for _, color := range CategoryColors {
		if color == c {
			return true
		}
	}
	return false
}

// CategoryCount is the number of cards in one category. ID is empty for
// uncategorized cards.
type CategoryCount struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Count int    `json:"count"`
}
