package errs

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindClassification(t *testing.T) {
	base := errors.New("boom")

	assert.Equal(t, KindFetch, KindOf(Fetch(base)))
	assert.Equal(t, KindDispatch, KindOf(Dispatch(base)))
	assert.True(t, Is(Persistence(base), KindPersistence))
	assert.False(t, Is(Decision(base), KindFetch))
}

func TestWrapNilReturnsNil(t *testing.T) {
	assert.NoError(t, Fetch(nil))
	assert.NoError(t, Persistence(nil))
}

func TestKindSurvivesWrapping(t *testing.T) {
	inner := Dispatch(errors.New("post failed"))
	outer := fmt.Errorf("candidate 42: %w", inner)

	assert.Equal(t, KindDispatch, KindOf(outer))
	assert.ErrorContains(t, outer, "dispatch: post failed")
}

func TestUnclassifiedError(t *testing.T) {
	assert.Equal(t, Kind(""), KindOf(errors.New("plain")))
	assert.Equal(t, Kind(""), KindOf(nil))
}
