package ai

import (
	"context"
	"fmt"
	"math/rand/v2"

	"riy-server/internal/waste"
)

type StubPolicy string

const (
	// StubRandom is the demo substitute: a uniformly random category,
	// regardless of the image.
	StubRandom StubPolicy = "random"
	// StubFixed always answers with one configured category.
	StubFixed StubPolicy = "fixed"
)

// demoCategories are the categories the random stub draws from.
var demoCategories = []waste.Category{
	waste.Biodegradable,
	waste.Plastic,
	waste.Glass,
	waste.Metal,
	waste.Paper,
	waste.EWaste,
}

// StubClassifier never looks at the image content. It never reports a
// confidence since nothing was measured.
type StubClassifier struct {
	policy   StubPolicy
	category waste.Category
	intn     func(n int) int
}

func NewStubClassifier(policy StubPolicy, category waste.Category) (*StubClassifier, error) {
	switch policy {
	case StubRandom:
	case StubFixed:
		if !category.Valid() {
			return nil, fmt.Errorf("stub category %q is not a known category", category)
		}
	default:
		return nil, fmt.Errorf("unknown stub policy %q", policy)
	}
	return &StubClassifier{policy: policy, category: category, intn: rand.IntN}, nil
}

func (s *StubClassifier) Policy() StubPolicy { return s.policy }

func (s *StubClassifier) Classify(ctx context.Context, image []byte) (Classification, error) {
	if len(image) == 0 {
		return Classification{}, waste.ErrMissingImage
	}
	if err := ctx.Err(); err != nil {
		return Classification{}, fmt.Errorf("%w: %w", waste.ErrClassificationFailed, err)
	}

	c := s.category
	if s.policy == StubRandom {
		c = demoCategories[s.intn(len(demoCategories))]
	}
	return Classification{Label: string(c), Category: c, Known: true}, nil
}
