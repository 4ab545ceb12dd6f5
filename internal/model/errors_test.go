package model

import (
	"errors"
	"os"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
)

func TestSourceError_Unwrap(t *testing.T) {
	se := NewSourceError("occupancy", "/data/b25002.csv", os.ErrNotExist)

	assert.ErrorIs(t, se, os.ErrNotExist)
	assert.Contains(t, se.Error(), "occupancy source /data/b25002.csv unavailable")
}

func TestIsSourceUnavailable(t *testing.T) {
	wrapped := eris.Wrap(NewSourceError("boundary", "zcta.shp", os.ErrNotExist), "choropleth: read boundaries")

	assert.True(t, IsSourceUnavailable(wrapped))
	assert.False(t, IsSourceUnavailable(errors.New("boom")))
	assert.False(t, IsSourceUnavailable(nil))
}
