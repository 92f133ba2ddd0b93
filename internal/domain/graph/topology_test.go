package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func diamond(t *testing.T) *Graph {
	t.Helper()
	g := NewGraph("g1")
	require.NoError(t, g.AddNode(NewNode("root", NodeTypeGenerateText, "root")))
	require.NoError(t, g.AddNode(NewNode("left", NodeTypeGenerateImage, "left")))
	require.NoError(t, g.AddNode(NewNode("right", NodeTypeGenerateSpeech, "right")))
	require.NoError(t, g.AddNode(NewNode("sink", NodeTypeGenerateVideo, "sink")))
	_, err := g.AddEdge("root", "text", "left", "in")
	require.NoError(t, err)
	_, err = g.AddEdge("root", "text", "right", "in")
	require.NoError(t, err)
	_, err = g.AddEdge("left", "image", "sink", "in")
	require.NoError(t, err)
	_, err = g.AddEdge("right", "audio", "sink", "in")
	require.NoError(t, err)
	return g
}

func TestTopologicalOrder_RespectsDependencies(t *testing.T) {
	g := diamond(t)
	order, err := TopologicalOrder(g)
	require.NoError(t, err)
	require.Len(t, order, 4)

	pos := make(map[string]int)
	for i, id := range order {
		pos[id] = i
	}
	assert.Less(t, pos["root"], pos["left"])
	assert.Less(t, pos["root"], pos["right"])
	assert.Less(t, pos["left"], pos["sink"])
	assert.Less(t, pos["right"], pos["sink"])
}

func TestRequiredSet_IncludesOnlyTransitiveDeps(t *testing.T) {
	g := diamond(t)
	required := RequiredSet(g, []string{"left"})
	assert.True(t, required["left"])
	assert.True(t, required["root"])
	assert.False(t, required["right"])
	assert.False(t, required["sink"])
}

func TestLevels_PartitionsDiamondIntoThreeLevels(t *testing.T) {
	g := diamond(t)
	all := RequiredSet(g, []string{"sink"})
	levels := Levels(g, all)

	require.Len(t, levels, 3)
	assert.Equal(t, []string{"root"}, levels[0])
	assert.ElementsMatch(t, []string{"left", "right"}, levels[1])
	assert.Equal(t, []string{"sink"}, levels[2])
}
