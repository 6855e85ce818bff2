package layertree

import (
	"math/rand"
	"reflect"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
)

func visibilities(n *Node) []bool {
	var out []bool
	for _, c := range n.Sublayers {
		out = append(out, c.Visibility)
	}
	return out
}

func mutex(children ...*Node) *Node {
	g := group("m", children...)
	g.MutuallyExclusive = true
	return g
}

func hidden(name string) *Node {
	n := leaf(name)
	n.Visibility = false
	return n
}

func TestEnforceExclusivity(t *testing.T) {
	tristate := hidden("y")
	tristate.Tristate = true

	tests := []struct {
		name string
		in   *Node
		want []bool
	}{
		{"none visible picks first", mutex(hidden("x"), hidden("y")), []bool{true, false}},
		{"single visible kept", mutex(hidden("x"), leaf("y"), hidden("z")), []bool{false, true, false}},
		{"several visible picks first", mutex(hidden("x"), leaf("y"), leaf("z")), []bool{true, false, false}},
		{"tristate wins", mutex(leaf("x"), tristate), []bool{false, true}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := EnforceExclusivity(tt.in)
			assert.Equal(t, tt.want, visibilities(out))
		})
	}
}

func TestEnforceExclusivityRecurses(t *testing.T) {
	inner := mutex(hidden("x"), hidden("y"))
	outer := group("outer", inner, leaf("z"))

	out := EnforceExclusivity(outer)
	assert.Equal(t, []bool{true, false}, visibilities(out.Sublayers[0]))
	assert.Equal(t, []bool{false, false}, visibilities(inner), "input must not change")
}

func TestEnforceExclusivityIgnoresEmptyGroup(t *testing.T) {
	g := mutex()
	assert.NotPanics(t, func() { EnforceExclusivity(g) })
}

func TestPropertyExclusivityIdempotent(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("enforce(enforce(T)) == enforce(T)", prop.ForAll(
		func(seed int64) bool {
			tree := randomTree(rand.New(rand.NewSource(seed)), 4, "root")
			once := EnforceExclusivity(tree)
			return reflect.DeepEqual(EnforceExclusivity(once), once)
		},
		gen.Int64(),
	))

	properties.Property("exclusive groups have exactly one visible child", prop.ForAll(
		func(seed int64) bool {
			tree := EnforceExclusivity(randomTree(rand.New(rand.NewSource(seed)), 4, "root"))
			ok := true
			Walk(tree, func(n *Node, _ []int) bool {
				if n.HasChildren() && n.MutuallyExclusive {
					count := 0
					for _, c := range n.Sublayers {
						if c.Visibility {
							count++
						}
					}
					ok = ok && count == 1
				}
				return true
			})
			return ok
		},
		gen.Int64(),
	))

	properties.TestingRun(t)
}
