package rbd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSuccessPaths(t *testing.T) {
	a, b, c := trio(t)

	paths, err := seriesParallel(t, a, b, c).SuccessPaths()
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"A", "B"}, {"A", "C"}}, paths)

	paths, err = parallelSystem(t, a, b).SuccessPaths()
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"A"}, {"B"}}, paths)
}

func TestSuccessPathsDirectEdge(t *testing.T) {
	a := exponential(t, "A", 1)
	sys := NewSystem()
	require.NoError(t, sys.Connect(Entry, a, Exit))
	require.NoError(t, sys.Connect(a, Exit))

	paths, err := sys.SuccessPaths()
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"A"}, {}}, paths)
}

func TestSuccessPathsWithCycle(t *testing.T) {
	a, b := exponential(t, "A", 1), exponential(t, "B", 1)
	sys := NewSystem()
	require.NoError(t, sys.Connect(Entry, a))
	require.NoError(t, sys.Connect(a, b))
	require.NoError(t, sys.Connect(b, a, Exit))

	paths, err := sys.SuccessPaths()
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"A", "B"}}, paths)
}

func TestMinimalCuts(t *testing.T) {
	a, b, c := trio(t)
	sys := seriesParallel(t, a, b, c)

	cuts, err := sys.MinimalCuts(0)
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"A"}, {"B", "C"}}, cuts)

	cuts, err = sys.MinimalCuts(1)
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"A"}}, cuts)
}

func TestMinimalCutsBridge(t *testing.T) {
	// E -> A, B; A -> C, X; B -> X, D; X -> C, D; C, D -> S
	a, b, c, d, x := exponential(t, "A", 1), exponential(t, "B", 1), exponential(t, "C", 1), exponential(t, "D", 1), exponential(t, "X", 1)
	sys := NewSystem()
	require.NoError(t, sys.Connect(Entry, a, b))
	require.NoError(t, sys.Connect(a, c, x))
	require.NoError(t, sys.Connect(b, x, d))
	require.NoError(t, sys.Connect(x, c, d))
	require.NoError(t, sys.Connect(c, Exit))
	require.NoError(t, sys.Connect(d, Exit))

	cuts, err := sys.MinimalCuts(0)
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"A", "B"},
		{"C", "D"},
		{"A", "X", "D"},
		{"B", "C", "X"},
	}, cuts)
}

func TestPathsRequireValidTopology(t *testing.T) {
	sys := NewSystem()
	_, err := sys.SuccessPaths()
	assert.True(t, IsConfiguration(err))
	_, err = sys.MinimalCuts(0)
	assert.True(t, IsConfiguration(err))
}

func TestCombinations(t *testing.T) {
	var got [][]int
	combinations(4, 2, func(set []int) {
		got = append(got, append([]int(nil), set...))
	})
	assert.Equal(t, [][]int{{0, 1}, {0, 2}, {0, 3}, {1, 2}, {1, 3}, {2, 3}}, got)

	calls := 0
	combinations(2, 3, func([]int) { calls++ })
	assert.Zero(t, calls)
}

func TestIsSubset(t *testing.T) {
	assert.True(t, isSubset([]int{1, 3}, []int{0, 1, 2, 3}))
	assert.False(t, isSubset([]int{1, 4}, []int{0, 1, 2, 3}))
	assert.True(t, isSubset(nil, []int{0}))
}
