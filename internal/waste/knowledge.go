package waste

import (
	_ "embed"
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed knowledge.yaml
var defaultKnowledge []byte

const FallbackDisposal = "Please take to a recycling center for proper disposal."

// Knowledge is what the application knows about one category.
type Knowledge struct {
	Category             Category  `json:"category"`
	ItemName             string    `json:"item_name"`
	DisposalInstructions string    `json:"disposal_instructions"`
	DIYIdeas             []DIYIdea `json:"diy_ideas"`
	IsDIYUsable          bool      `json:"is_diy_usable"`
}

// KnowledgeBase maps every category to its Knowledge. It is built once by
// Load or Parse and never mutated afterwards, so it is safe to share.
type KnowledgeBase struct {
	entries  map[Category]Knowledge
	aliases  map[string]Category
	fallback string
}

type knowledgeFile struct {
	FallbackDisposal string `yaml:"fallback_disposal"`
	Rewards          struct {
		Default    int            `yaml:"default"`
		Categories map[string]int `yaml:"categories"`
	} `yaml:"rewards"`
	Categories map[string]categoryFile `yaml:"categories"`
}

type categoryFile struct {
	ItemName string    `yaml:"item_name"`
	Disposal string    `yaml:"disposal"`
	Aliases  []string  `yaml:"aliases"`
	DIYIdeas []DIYIdea `yaml:"diy_ideas"`
}

// Load reads the knowledge file at path, or the embedded default when path is empty.
func Load(path string) (*KnowledgeBase, *RewardPolicy, error) {
	data := defaultKnowledge
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, nil, fmt.Errorf("could not read knowledge file at %s: %w", path, err)
		}
		data = b
	}
	return Parse(data)
}

// Parse builds the knowledge base and reward policy from YAML.
func Parse(data []byte) (*KnowledgeBase, *RewardPolicy, error) {
	var f knowledgeFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrInvalidKnowledge, err)
	}

	kb := &KnowledgeBase{
		entries:  make(map[Category]Knowledge, len(Categories)),
		aliases:  make(map[string]Category),
		fallback: strings.TrimSpace(f.FallbackDisposal),
	}
	if kb.fallback == "" {
		kb.fallback = FallbackDisposal
	}

	names := make([]string, 0, len(f.Categories))
	for name := range f.Categories {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		c, ok := ParseCategory(name)
		if !ok {
			return nil, nil, fmt.Errorf("%w: unknown category %q", ErrInvalidKnowledge, name)
		}
		entry := f.Categories[name]
		disposal := strings.TrimSpace(entry.Disposal)
		if disposal == "" {
			return nil, nil, fmt.Errorf("%w: category %s has no disposal instructions", ErrInvalidKnowledge, c)
		}
		for _, idea := range entry.DIYIdeas {
			if strings.TrimSpace(idea.Title) == "" {
				return nil, nil, fmt.Errorf("%w: category %s has a DIY idea without a title", ErrInvalidKnowledge, c)
			}
			if !idea.DifficultyLevel.Valid() {
				return nil, nil, fmt.Errorf("%w: DIY idea %q has difficulty %q", ErrInvalidKnowledge, idea.Title, idea.DifficultyLevel)
			}
		}
		kb.entries[c] = Knowledge{
			Category:             c,
			ItemName:             strings.TrimSpace(entry.ItemName),
			DisposalInstructions: disposal,
			DIYIdeas:             append([]DIYIdea{}, entry.DIYIdeas...),
			IsDIYUsable:          len(entry.DIYIdeas) > 0,
		}
		kb.aliases[normalizeLabel(string(c))] = c
	}

	for _, c := range Categories {
		if _, ok := kb.entries[c]; !ok {
			return nil, nil, fmt.Errorf("%w: missing entry for %s", ErrInvalidKnowledge, c)
		}
	}

	for _, name := range names {
		c, _ := ParseCategory(name)
		for _, alias := range f.Categories[name].Aliases {
			key := normalizeLabel(alias)
			if key == "" {
				continue
			}
			if existing, dup := kb.aliases[key]; dup && existing != c {
				return nil, nil, fmt.Errorf("%w: alias %q maps to both %s and %s", ErrInvalidKnowledge, alias, existing, c)
			}
			kb.aliases[key] = c
		}
	}

	table := make(map[Category]int, len(f.Rewards.Categories))
	for name, points := range f.Rewards.Categories {
		c, ok := ParseCategory(name)
		if !ok {
			return nil, nil, fmt.Errorf("%w: reward for unknown category %q", ErrInvalidKnowledge, name)
		}
		table[c] = points
	}
	def := f.Rewards.Default
	if def == 0 {
		def = DefaultPoints
	}
	policy, err := NewRewardPolicy(def, table)
	if err != nil {
		return nil, nil, err
	}

	return kb, policy, nil
}

func normalizeLabel(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.NewReplacer("_", " ", "-", " ").Replace(s)
	return strings.Join(strings.Fields(s), " ")
}

// Resolve maps a classifier label onto the closed category set. Labels that
// match neither a category nor an alias resolve to Other with ok == false.
func (kb *KnowledgeBase) Resolve(label string) (Category, bool) {
	if c, ok := kb.aliases[normalizeLabel(label)]; ok {
		return c, true
	}
	return Other, false
}

// Lookup returns the knowledge for c. Categories outside the closed set get
// the generic disposal instruction and no DIY ideas.
func (kb *KnowledgeBase) Lookup(c Category) Knowledge {
	k, ok := kb.entries[c]
	if !ok {
		return kb.Unrecognized()
	}
	k.DIYIdeas = append([]DIYIdea{}, k.DIYIdeas...)
	return k
}

// Unrecognized is the guidance for a label that resolved to no category. Only
// the item name is taken from the Other entry.
func (kb *KnowledgeBase) Unrecognized() Knowledge {
	return Knowledge{
		Category:             Other,
		ItemName:             kb.entries[Other].ItemName,
		DisposalInstructions: kb.fallback,
		DIYIdeas:             []DIYIdea{},
	}
}

// Fallback is the generic disposal instruction.
func (kb *KnowledgeBase) Fallback() string {
	return kb.fallback
}

// All returns every entry in display order.
func (kb *KnowledgeBase) All() []Knowledge {
	out := make([]Knowledge, 0, len(Categories))
	for _, c := range Categories {
		out = append(out, kb.Lookup(c))
	}
	return out
}
