package sentinel

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrNotFoundSurvivesWrapping(t *testing.T) {
	err := fmt.Errorf("find citizen c1: %w", ErrNotFound)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, "find citizen c1: not found", err.Error())
}
