package layertree

import (
	"fmt"
	"slices"

	"github.com/google/uuid"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// FeaturesBound returns the extent of features, or nil when there is no
// geometry to measure.
func FeaturesBound(features []*geojson.Feature) *orb.Bound {
	var b *orb.Bound
	for _, f := range features {
		if f == nil || f.Geometry == nil {
			continue
		}
		fb := f.Geometry.Bound()
		if b == nil {
			b = &fb
			continue
		}
		u := b.Union(fb)
		b = &u
	}
	return b
}

func featureKey(f *geojson.Feature) string {
	if f == nil || f.ID == nil {
		return ""
	}
	return fmt.Sprint(f.ID)
}

// withoutNil returns a copy of features with nil entries dropped.
func withoutNil(features []*geojson.Feature) []*geojson.Feature {
	return slices.DeleteFunc(slices.Clone(features), func(f *geojson.Feature) bool { return f == nil })
}

// AddFeatures adds features to the vector layer with layer.ID, creating the
// layer with role ordering when it does not exist yet. Features whose id is
// already present replace the old ones in place; clear drops all existing
// features first. Nil features are ignored.
func AddFeatures(roots []*Node, layer *Node, features []*geojson.Feature, clear bool) []*Node {
	id := layer.ID
	if id == "" {
		id = uuid.NewString()
	}
	idx := slices.IndexFunc(roots, func(r *Node) bool { return r.ID == id })
	if idx < 0 {
		l := layer.shallow()
		l.ID = id
		l.Type = TypeVector
		l.UUID = ""
		l.Group = nil
		l.Features = withoutNil(features)
		l.BBox = FeaturesBound(l.Features)
		return AddLayer(roots, l, -1)
	}

	add := withoutNil(features)
	var merged []*geojson.Feature
	if !clear {
		for _, f := range withoutNil(roots[idx].Features) {
			k := featureKey(f)
			j := slices.IndexFunc(add, func(g *geojson.Feature) bool {
				return k != "" && featureKey(g) == k
			})
			if j < 0 {
				merged = append(merged, f)
				continue
			}
			merged = append(merged, add[j])
			add = slices.Delete(add, j, j+1)
		}
	}
	merged = append(merged, add...)

	out := slices.Clone(roots)
	l := roots[idx].shallow()
	l.Features = merged
	l.BBox = FeaturesBound(merged)
	out[idx] = l
	return out
}

// RemoveFeatures drops the features with the given ids from the layer with
// layerID. A layer left without features is removed unless keepEmpty is set.
func RemoveFeatures(roots []*Node, layerID string, featureIDs []string, keepEmpty bool) []*Node {
	var out []*Node
	for _, r := range roots {
		if r.ID != layerID {
			out = append(out, r)
			continue
		}
		kept := slices.DeleteFunc(withoutNil(r.Features), func(f *geojson.Feature) bool {
			return slices.Contains(featureIDs, featureKey(f))
		})
		if len(kept) == 0 && !keepEmpty {
			continue
		}
		l := r.shallow()
		l.Features = kept
		l.BBox = FeaturesBound(kept)
		out = append(out, l)
	}
	return out
}
