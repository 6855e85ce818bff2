package layertree

import (
	"reflect"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExplode(t *testing.T) {
	entries := Explode([]*Node{theme(), userLayer("u")})
	require.Len(t, entries, 5)

	var paths [][]int
	var leaves []string
	for _, e := range entries {
		paths = append(paths, e.Path)
		leaves = append(leaves, e.Leaf.Name)
	}
	assert.Equal(t, [][]int{{0}, {1, 0}, {1, 1}, {2}, {}}, paths)
	assert.Equal(t, []string{"a", "b", "c", "d", "u"}, leaves)

	// Each spine keeps a single child per level.
	assert.Equal(t, "theme(g(b))", names([]*Node{entries[1].Spine}))
	assert.Same(t, entries[4].Spine, entries[4].Leaf)
}

func TestExplodeDoesNotShareNodes(t *testing.T) {
	orig := theme()
	entries := Explode([]*Node{orig})
	entries[1].Leaf.Name = "changed"
	entries[1].Spine.Sublayers[0].Name = "changed"

	assert.Equal(t, "theme(a g(b c) d)", names([]*Node{orig}))
}

func TestExplodeEmptyGroups(t *testing.T) {
	nested := group("theme", leaf("a"), group("empty"), leaf("b"))
	entries := Explode([]*Node{nested})
	require.Len(t, entries, 2)
	assert.Equal(t, "theme(a b)", names(Implode(entries)))

	top := group("theme")
	entries = Explode([]*Node{top})
	require.Len(t, entries, 1)
	assert.Empty(t, entries[0].Path)
	out := Implode(entries)
	require.Len(t, out, 1)
	assert.True(t, out[0].IsGroup())
	assert.False(t, out[0].HasChildren())
}

func TestImplodeMergesSameID(t *testing.T) {
	entries := Explode([]*Node{theme()})
	// Move "a" behind "b": the group g is split in two.
	entries[0], entries[1] = entries[1], entries[0]
	out := Implode(entries)

	require.Len(t, out, 1)
	assert.Equal(t, "theme(g(b) a g(c) d)", names(out))
	assert.Equal(t, "g", out[0].Sublayers[0].UUID)
	assert.NotEqual(t, "g", out[0].Sublayers[2].UUID, "split group gets a fresh uuid")
}

func TestImplodeDoesNotMergeDifferentIDs(t *testing.T) {
	a, b := theme(), theme()
	b.ID = "other"
	out := Implode(Explode([]*Node{a, b}))
	require.Len(t, out, 2)
	assert.Equal(t, "theme", out[0].UUID)
	assert.NotEqual(t, "theme", out[1].UUID)
}

func TestImplodeEnforcesExclusivity(t *testing.T) {
	g := group("g", leaf("x"), leaf("y"))
	g.ID = "g"
	g.MutuallyExclusive = true
	out := Implode(Explode([]*Node{g}))
	assert.True(t, out[0].Sublayers[0].Visibility)
	assert.False(t, out[0].Sublayers[1].Visibility)
}

func TestPropertyExplodeImplodeRoundTrip(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("implode(explode(T)) == T", prop.ForAll(
		func(seed int64) bool {
			roots := randomForest(seed)
			return reflect.DeepEqual(Implode(Explode(roots)), roots)
		},
		gen.Int64(),
	))

	properties.TestingRun(t)
}
