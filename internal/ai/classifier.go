// Package ai adapts image classifiers to the closed waste category set.
package ai

import (
	"context"
	"fmt"
	"strings"

	"riy-server/internal/config"
	"riy-server/internal/waste"
)

// Classification is what a classifier saw in one image.
//
// Known is false when Label did not match any category or alias; Category is
// then Other and the caller should treat the result as degraded.
type Classification struct {
	Label      string
	Category   waste.Category
	Confidence *float64
	Known      bool
}

type Classifier interface {
	Classify(ctx context.Context, image []byte) (Classification, error)
}

// Resolver maps free-form labels onto categories. *waste.KnowledgeBase
// implements it.
type Resolver interface {
	Resolve(label string) (waste.Category, bool)
}

// New picks the classifier named by CLASSIFIER.
func New(cfg *config.Config, resolver Resolver) (Classifier, error) {
	switch cfg.Classifier {
	case "remote":
		return NewRemoteClassifier(cfg, resolver), nil
	case "stub", "":
		policy := StubPolicy(strings.ToLower(cfg.ClassifierStubPolicy))
		c, ok := waste.ParseCategory(cfg.ClassifierStubCategory)
		if policy == StubFixed && !ok {
			return nil, fmt.Errorf("unknown stub category %q", cfg.ClassifierStubCategory)
		}
		return NewStubClassifier(policy, c)
	default:
		return nil, fmt.Errorf("unknown classifier %q", cfg.Classifier)
	}
}

func failed(format string, args ...any) error {
	return fmt.Errorf("%w: %s", waste.ErrClassificationFailed, fmt.Sprintf(format, args...))
}
