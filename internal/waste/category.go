// Package waste holds the closed set of waste categories and the static
// knowledge attached to them: disposal guidance, DIY reuse ideas and the
// points a successful scan earns.
package waste

import "strings"

type Category string

const (
	Biodegradable Category = "Biodegradable"
	Plastic       Category = "Plastic"
	Glass         Category = "Glass"
	Metal         Category = "Metal"
	Paper         Category = "Paper"
	EWaste        Category = "E-Waste"
	Hazardous     Category = "Hazardous"
	Other         Category = "Other"
)

// Categories lists the closed set in display order.
var Categories = []Category{Biodegradable, Plastic, Glass, Metal, Paper, EWaste, Hazardous, Other}

// ParseCategory matches a canonical category name, ignoring case and
// surrounding whitespace. Aliases are resolved by KnowledgeBase.Resolve.
func ParseCategory(s string) (Category, bool) {
	s = strings.TrimSpace(s)
	for _, c := range Categories {
		if strings.EqualFold(string(c), s) {
			return c, true
		}
	}
	return "", false
}

// Valid reports whether c is exactly one of the canonical names.
func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

type Difficulty string

const (
	Easy   Difficulty = "Easy"
	Medium Difficulty = "Medium"
	Hard   Difficulty = "Hard"
)

func (d Difficulty) Valid() bool {
	return d == Easy || d == Medium || d == Hard
}

type DIYIdea struct {
	Title           string     `json:"title" yaml:"title"`
	Description     string     `json:"description" yaml:"description"`
	DifficultyLevel Difficulty `json:"difficulty_level" yaml:"difficulty"`
}
