package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCalculateBMI(t *testing.T) {
	assert.Equal(t, 24.22, CalculateBMI(70, 170))
	assert.Equal(t, 0.0, CalculateBMI(70, 0))
}
