package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCertaintyScore(t *testing.T) {
	assert.InDelta(t, 1.0, certaintyScore([]float32{1, 0}, []float32{1, 0}), 1e-9,
		"identical direction scores 1")
	assert.InDelta(t, 0.0, certaintyScore([]float32{1, 0}, []float32{-1, 0}), 1e-9,
		"opposite direction scores 0")
	assert.InDelta(t, 0.5, certaintyScore([]float32{1, 0}, []float32{0, 1}), 1e-9,
		"orthogonal vectors score 0.5")
	assert.InDelta(t, 1.0, certaintyScore([]float32{1, 1}, []float32{3, 3}), 1e-9,
		"magnitude does not matter")
}

func TestCertaintyScoreDegenerateInputs(t *testing.T) {
	assert.Zero(t, certaintyScore(nil, nil))
	assert.Zero(t, certaintyScore([]float32{1, 0}, []float32{1, 0, 0}), "dimension mismatch")
	assert.Zero(t, certaintyScore([]float32{0, 0}, []float32{1, 0}), "zero vector")
}
