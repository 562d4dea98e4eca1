package mocks

import (
	"context"

	"riy-server/internal/ai"
	"riy-server/internal/waste"
)

// MockClassifier implements ai.Classifier for testing
type MockClassifier struct {
	ClassifyFunc func(ctx context.Context, image []byte) (ai.Classification, error)
	Calls        int
}

// Returning creates a MockClassifier that always answers with category c
func Returning(c waste.Category) *MockClassifier {
	return &MockClassifier{
		ClassifyFunc: func(ctx context.Context, image []byte) (ai.Classification, error) {
			return ai.Classification{Label: string(c), Category: c, Known: true}, nil
		},
	}
}

// Classify calls ClassifyFunc, or answers Other when it is unset
func (m *MockClassifier) Classify(ctx context.Context, image []byte) (ai.Classification, error) {
	m.Calls++
	if m.ClassifyFunc != nil {
		return m.ClassifyFunc(ctx, image)
	}
	return ai.Classification{Label: string(waste.Other), Category: waste.Other, Known: true}, nil
}
