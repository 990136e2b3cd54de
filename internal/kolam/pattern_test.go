package kolam

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompose(t *testing.T) {
	grid, err := NewGrid(11, 11)
	require.NoError(t, err)

	p := Compose(grid, DefaultOptions("compose", 6))
	raw := Generate("compose", grid, 6)

	assert.Equal(t, Seed("compose"), p.Seed)
	assert.Equal(t, raw, p.Raw)
	assert.Len(t, p.Instructions, 4*len(raw))
	assert.Equal(t, ExpandSymmetry(raw, grid), p.Instructions)
	assert.Len(t, p.Dots, 121)
	assert.Equal(t, 6, len(p.Placements)+p.Skipped)
}

func TestCompose_NilOptions(t *testing.T) {
	grid, err := NewGrid(5, 5)
	require.NoError(t, err)

	p := Compose(grid, nil)
	assert.Equal(t, Seed(DefaultSeed), p.Seed)
	assert.Empty(t, p.Raw)
	assert.Empty(t, p.Instructions)
	assert.Len(t, p.Dots, 25)
}
