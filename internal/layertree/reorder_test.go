package layertree

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReorderBoundaries(t *testing.T) {
	roots := []*Node{theme()}

	out := Reorder(roots, "theme", []int{0}, -1, false)
	assert.Equal(t, roots, out)

	out = Reorder(roots, "theme", []int{2}, 1, false)
	assert.Equal(t, roots, out)

	out = Reorder(roots, "missing", []int{0}, 1, false)
	assert.Equal(t, roots, out)

	out = Reorder(roots, "theme", []int{0}, 0, true)
	assert.Equal(t, roots, out)
}

func TestReorderSplitsGroups(t *testing.T) {
	out := Reorder([]*Node{theme()}, "theme", []int{0}, 1, false)
	assert.Equal(t, "theme(g(b) a g(c) d)", names(out))
}

func TestReorderPreventSplittingGroups(t *testing.T) {
	tests := []struct {
		name  string
		path  []int
		delta int
		want  string
	}{
		{"jump over sibling group down", []int{0}, 1, "theme(g(b c) a d)"},
		{"jump over sibling group up", []int{2}, -1, "theme(a d g(b c))"},
		{"within group", []int{1, 0}, 1, "theme(a g(c b) d)"},
		{"move whole group up", []int{1}, -1, "theme(g(b c) a d)"},
		{"move whole group down", []int{1}, 1, "theme(a d g(b c))"},
		{"leave group up rejected", []int{1, 0}, -1, "theme(a g(b c) d)"},
		{"leave group down rejected", []int{1, 1}, 1, "theme(a g(b c) d)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := Reorder([]*Node{theme()}, "theme", tt.path, tt.delta, true)
			assert.Equal(t, tt.want, names(out))
		})
	}
}

func TestReorderPreventSplittingNextToGroups(t *testing.T) {
	tree := func() *Node {
		n := group("theme", leaf("a"), group("g1", leaf("x"), leaf("y")), group("g2", leaf("z")))
		n.ID = "theme"
		return n
	}

	// A move lands past one whole sibling group, never past the next one too.
	out := Reorder([]*Node{tree()}, "theme", []int{0}, 1, true)
	assert.Equal(t, "theme(g1(x y) a g2(z))", names(out))

	out = Reorder(out, "theme", []int{1}, 1, true)
	assert.Equal(t, "theme(g1(x y) g2(z) a)", names(out))

	// Groups swap with their group neighbours as blocks.
	out = Reorder([]*Node{tree()}, "theme", []int{2}, -1, true)
	assert.Equal(t, "theme(a g2(z) g1(x y))", names(out))
}

func TestReorderTopLevel(t *testing.T) {
	u := userLayer("u")
	roots := []*Node{u, theme(), background("bg", true)}

	out := Reorder(roots, "u", nil, 1, true)
	require.Len(t, out, 3)
	assert.Equal(t, "theme(a g(b c) d) u bg", names(out))

	back := Reorder(out, "u", nil, -1, true)
	assert.Equal(t, "u theme(a g(b c) d) bg", names(back))
}

func TestReorderKeepsBackgroundLast(t *testing.T) {
	roots := []*Node{background("bg", true), theme()}
	out := Reorder(roots, "theme", []int{1}, -1, true)
	require.Len(t, out, 2)
	assert.Equal(t, "bg", out[1].Name)
	assert.Equal(t, RoleBackground, out[1].Role)
}

func TestReorderKeepsUUIDsUnique(t *testing.T) {
	out := Reorder([]*Node{theme()}, "theme", []int{0}, 1, false)
	seen := map[string]bool{}
	Walk(out[0], func(n *Node, _ []int) bool {
		assert.False(t, seen[n.UUID], n.UUID)
		seen[n.UUID] = true
		return true
	})
}

func TestPropertyReorderThereAndBack(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	// Moving a top-level layer down and up again restores the order.
	properties.Property("top-level move is reversible", prop.ForAll(
		func(seed int64, pick int) bool {
			roots := randomForest(seed)
			target := roots[pick%len(roots)]
			moved := Reorder(roots, target.UUID, nil, 1, true)
			if names(moved) == names(roots) {
				return true
			}
			var uuid string
			for _, r := range moved {
				if r.ID == target.ID {
					uuid = r.UUID
				}
			}
			return names(Reorder(moved, uuid, nil, -1, true)) == names(roots)
		},
		gen.Int64(),
		gen.IntRange(0, 3),
	))

	properties.TestingRun(t)
}
