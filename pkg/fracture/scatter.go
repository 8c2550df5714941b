package fracture

import (
	"math"

	"github.com/chazu/splinter/pkg/geom"
	"github.com/chazu/splinter/pkg/random"
)

// UniformScatter returns n points uniformly distributed inside box.
func UniformScatter(box geom.Box, n int, seed int64) []geom.Vec {
	s := random.New(seed)
	out := make([]geom.Vec, 0, max(n, 0))
	for range n {
		out = append(out, s.PointInBox(box))
	}
	return out
}

// ClusterScatter places numClusters cluster centres inside box, then
// between minPer and maxPer points around each at a distance in
// [minRadius, maxRadius].
func ClusterScatter(box geom.Box, numClusters, minPer, maxPer int, minRadius, maxRadius float64, seed int64) []geom.Vec {
	s := random.New(seed)
	var out []geom.Vec
	for range numClusters {
		center := s.PointInBox(box)
		n := s.RandRange(minPer, maxPer)
		for range n {
			r := s.FRandRange(minRadius, maxRadius)
			out = append(out, geom.Add(center, geom.Scale(r, s.VRand())))
		}
	}
	return out
}

// RadialScatter lays points on rings around center in the plane normal to
// normal: radialSteps rings out to radius, angularSteps points per ring,
// each ring turned by angleOffset degrees from the previous one.
// Variability jitters every point.
func RadialScatter(center, normal geom.Vec, radius float64, angularSteps, radialSteps int, angleOffset, variability float64, seed int64) []geom.Vec {
	s := random.New(seed)
	if angularSteps <= 0 || radialSteps <= 0 {
		return nil
	}
	n := geom.Normalize(normal)
	if geom.LengthSquared(n) == 0 {
		n = geom.V(0, 0, 1)
	}
	u, v := geom.PlaneFromPointNormal(center, n).Basis()
	var out []geom.Vec
	for ri := range radialSteps {
		r := radius * float64(ri+1) / float64(radialSteps)
		offset := geom.Radians(angleOffset * float64(ri))
		for ai := range angularSteps {
			a := offset + 2*math.Pi*float64(ai)/float64(angularSteps)
			p := geom.Add(center, geom.Add(geom.Scale(r*math.Cos(a), u), geom.Scale(r*math.Sin(a), v)))
			p = geom.Add(p, geom.Scale(s.FRand()*variability, s.VRand()))
			out = append(out, p)
		}
	}
	return out
}

// GridScatter places one point at the centre of every cell of an
// nx*ny*nz grid over box, jittered by up to variability.
func GridScatter(box geom.Box, nx, ny, nz int, variability float64, seed int64) []geom.Vec {
	return genPoints(GenerateMeshTransforms(box, MeshScatter{
		Distribution: DistributionGrid,
		GridX:        nx,
		GridY:        ny,
		GridZ:        nz,
		Variability:  variability,
	}, seed))
}

func genPoints(ts []geom.Transform) []geom.Vec {
	out := make([]geom.Vec, len(ts))
	for i, t := range ts {
		out[i] = t.Translation
	}
	return out
}

// TransformPoints applies t to every point.
func TransformPoints(pts []geom.Vec, t geom.Transform) []geom.Vec {
	m := t.Matrix()
	out := make([]geom.Vec, len(pts))
	for i, p := range pts {
		out[i] = geom.TransformPosition(m, p)
	}
	return out
}

// AppendPoints concatenates point sets into a new slice.
func AppendPoints(sets ...[]geom.Vec) []geom.Vec {
	var out []geom.Vec
	for _, s := range sets {
		out = append(out, s...)
	}
	return out
}
