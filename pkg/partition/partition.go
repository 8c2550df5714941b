// Package partition groups the bodies of a cluster into spatially coherent
// partitions with K-means over their centroids, then repairs the result
// against the proximity graph: disconnected partitions are split and
// partitions that are too small are merged into a neighbour.
package partition

import (
	"math"
	"slices"

	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"

	"github.com/chazu/splinter/pkg/collection"
	"github.com/chazu/splinter/pkg/geom"
	"github.com/chazu/splinter/pkg/hierarchy"
	"github.com/chazu/splinter/pkg/logging"
)

// Partitioner holds the bodies being partitioned and their current
// assignment. Body tables are indexed parallel to the body list, not by
// transform index.
type Partitioner struct {
	bones        []int
	centroids    []geom.Vec
	connectivity [][]int

	assign  []int
	sizes   []int
	centers []geom.Vec
}

// AnyLevel lifts contacts through every descendant of a body.
const AnyLevel = -1

// New builds a partitioner over bodies. Connectivity between two bodies
// holds when any bone in one touches any bone in the other according to
// the collection's proximity data. Contacts are lifted to the ancestor on
// level, the operating level of the bodies; bodies on other levels get no
// connections. With AnyLevel a contact is lifted to whichever body holds
// the bone.
func New(c *collection.Collection, bodies []int, level int) *Partitioner {
	p := &Partitioner{
		bones:        slices.Clone(bodies),
		centroids:    make([]geom.Vec, len(bodies)),
		connectivity: make([][]int, len(bodies)),
		assign:       make([]int, len(bodies)),
	}
	global := c.GlobalMatrices()
	var missing []int
	var valid []geom.Vec
	for i, b := range bodies {
		pt, _, ok := hierarchy.Centroid(c, b, global)
		if !ok {
			missing = append(missing, i)
			continue
		}
		p.centroids[i] = pt
		valid = append(valid, pt)
	}
	if len(missing) > 0 {
		fill := geom.Centroid(valid)
		for _, i := range missing {
			p.centroids[i] = fill
		}
		logging.Debug("partition: bodies without centroid", "count", len(missing))
	}

	owner := hierarchy.Bodies(c, bodies)
	if level != AnyLevel {
		owner = atLevel(c, bodies, level)
	}
	for bone, neighbours := range c.BoneNeighbors() {
		a := owner[bone]
		if a == collection.IndexNone {
			continue
		}
		for _, n := range neighbours {
			if b := owner[n]; b != collection.IndexNone && b != a {
				p.connectivity[a] = append(p.connectivity[a], b)
			}
		}
	}
	for i := range p.connectivity {
		slices.Sort(p.connectivity[i])
		p.connectivity[i] = slices.Compact(p.connectivity[i])
	}
	return p
}

// atLevel maps every bone to the body that is its ancestor on level, or
// IndexNone.
func atLevel(c *collection.Collection, bodies []int, level int) []int {
	levels := c.Levels()
	parents := c.Parents()
	index := make(map[int]int, len(bodies))
	for i, b := range bodies {
		if levels[b] == level {
			index[b] = i
		}
	}
	out := make([]int, c.NumTransforms())
	for bone := range out {
		out[bone] = collection.IndexNone
		a := bone
		for steps := 0; a >= 0 && levels[a] > level && steps < len(out); steps++ {
			a = parents[a]
		}
		if a < 0 || levels[a] != level {
			continue
		}
		if i, ok := index[a]; ok {
			out[bone] = i
		}
	}
	return out
}

// NumBodies returns the number of bodies being partitioned.
func (p *Partitioner) NumBodies() int { return len(p.bones) }

// Centroid returns the world-space centroid of body i.
func (p *Partitioner) Centroid(i int) geom.Vec { return p.centroids[i] }

// Connected returns the bodies adjacent to body i.
func (p *Partitioner) Connected(i int) []int { return p.connectivity[i] }

// KMeansPartition assigns every body to one of k partitions. When centers
// is non-empty it seeds the iteration and k becomes len(centers);
// otherwise k seeds are chosen by farthest-point sampling. Iteration stops
// once no assignment changes or after maxIterations rounds.
func (p *Partitioner) KMeansPartition(k, maxIterations int, centers []geom.Vec) {
	n := len(p.bones)
	if len(centers) > 0 {
		p.centers = slices.Clone(centers)
	} else {
		p.centers = p.farthestSeeds(k)
	}
	k = len(p.centers)
	for i := range p.assign {
		p.assign[i] = collection.IndexNone
	}
	if n == 0 || k == 0 {
		p.sizes = make([]int, k)
		return
	}
	for iter := 0; iter < max(1, maxIterations); iter++ {
		changed := false
		for i, pt := range p.centroids {
			best := p.nearest(pt)
			if best != p.assign[i] {
				p.assign[i] = best
				changed = true
			}
		}
		p.recount()
		p.recenter()
		if !changed {
			logging.Debug("partition: k-means converged", "k", k, "iterations", iter+1)
			break
		}
	}
}

func (p *Partitioner) nearest(pt geom.Vec) int {
	best, bestDist := 0, math.Inf(1)
	for k, c := range p.centers {
		if d := geom.DistanceSquared(pt, c); d < bestDist {
			best, bestDist = k, d
		}
	}
	return best
}

// farthestSeeds picks the first body, then repeatedly the body farthest
// from every seed so far. Ties go to the lower body index.
func (p *Partitioner) farthestSeeds(k int) []geom.Vec {
	n := len(p.centroids)
	k = min(k, n)
	if k <= 0 {
		return nil
	}
	seeds := []geom.Vec{p.centroids[0]}
	dist := make([]float64, n)
	for i, c := range p.centroids {
		dist[i] = geom.DistanceSquared(c, seeds[0])
	}
	for len(seeds) < k {
		far := 0
		for i := range dist {
			if dist[i] > dist[far] {
				far = i
			}
		}
		if dist[far] == 0 {
			// Remaining bodies coincide with seeds; extra seeds stay empty.
			seeds = append(seeds, p.centroids[far])
			continue
		}
		s := p.centroids[far]
		seeds = append(seeds, s)
		for i, c := range p.centroids {
			dist[i] = math.Min(dist[i], geom.DistanceSquared(c, s))
		}
	}
	return seeds
}

func (p *Partitioner) recount() {
	p.sizes = make([]int, len(p.centers))
	for _, a := range p.assign {
		if a >= 0 {
			p.sizes[a]++
		}
	}
}

// recenter moves every non-empty centre to the mean of its members.
func (p *Partitioner) recenter() {
	sums := make([]geom.Vec, len(p.centers))
	for i, a := range p.assign {
		if a >= 0 {
			sums[a] = geom.Add(sums[a], p.centroids[i])
		}
	}
	for k, s := range sums {
		if p.sizes[k] > 0 {
			p.centers[k] = geom.Scale(1/float64(p.sizes[k]), s)
		}
	}
}

// NumPartitions returns the number of partition slots, including empty
// ones.
func (p *Partitioner) NumPartitions() int { return len(p.sizes) }

// PartitionSize returns the number of bodies in partition k.
func (p *Partitioner) PartitionSize(k int) int {
	if k < 0 || k >= len(p.sizes) {
		return 0
	}
	return p.sizes[k]
}

// NonEmptyPartitionCount returns the number of partitions with members.
func (p *Partitioner) NonEmptyPartitionCount() int {
	n := 0
	for _, s := range p.sizes {
		if s > 0 {
			n++
		}
	}
	return n
}

// IsolatedPartitionCount returns the number of single-body partitions.
func (p *Partitioner) IsolatedPartitionCount() int {
	n := 0
	for _, s := range p.sizes {
		if s == 1 {
			n++
		}
	}
	return n
}

// PartitionOf returns the partition body i is assigned to.
func (p *Partitioner) PartitionOf(i int) int { return p.assign[i] }

// GetPartition returns the transform indices of the bodies in partition
// k, in body order.
func (p *Partitioner) GetPartition(k int) []int {
	var out []int
	for i, a := range p.assign {
		if a == k {
			out = append(out, p.bones[i])
		}
	}
	return out
}

func (p *Partitioner) members(k int) []int {
	var out []int
	for i, a := range p.assign {
		if a == k {
			out = append(out, i)
		}
	}
	return out
}

// SplitDisconnectedPartitions splits every partition whose members are
// not connected into one partition per connected component. The largest
// component keeps the original index. It reports whether anything split.
func (p *Partitioner) SplitDisconnectedPartitions() bool {
	split := false
	for k := range len(p.sizes) {
		comps := p.components(p.members(k))
		if len(comps) < 2 {
			continue
		}
		slices.SortStableFunc(comps, func(a, b []int) int { return len(b) - len(a) })
		for _, comp := range comps[1:] {
			nk := len(p.sizes)
			p.sizes = append(p.sizes, 0)
			p.centers = append(p.centers, geom.Vec{})
			for _, i := range comp {
				p.assign[i] = nk
			}
		}
		split = true
	}
	if split {
		p.recount()
		p.recenter()
		logging.Debug("partition: split disconnected", "partitions", p.NonEmptyPartitionCount())
	}
	return split
}

// components returns the connected components of members, each in body
// order, ordered by their first member.
func (p *Partitioner) components(members []int) [][]int {
	g := simple.NewUndirectedGraph()
	in := make(map[int]bool, len(members))
	for _, i := range members {
		in[i] = true
		g.AddNode(simple.Node(i))
	}
	for _, i := range members {
		for _, j := range p.connectivity[i] {
			if in[j] && i < j {
				g.SetEdge(simple.Edge{F: simple.Node(i), T: simple.Node(j)})
			}
		}
	}
	var comps [][]int
	for _, nodes := range topo.ConnectedComponents(g) {
		comp := make([]int, len(nodes))
		for k, n := range nodes {
			comp[k] = int(n.ID())
		}
		slices.Sort(comp)
		comps = append(comps, comp)
	}
	slices.SortFunc(comps, func(a, b []int) int { return a[0] - b[0] })
	return comps
}

// MergeSingleElementPartitions merges every single-body partition into a
// connected neighbour.
func (p *Partitioner) MergeSingleElementPartitions() bool {
	return p.MergeSmallPartitions(2)
}

// MergeSmallPartitions merges every partition with fewer than threshold
// members into an adjacent partition. Neighbours at or above the threshold
// are preferred, the smallest of them first, then the lowest index.
// Partitions without a connected neighbour are left alone. It reports
// whether anything merged.
func (p *Partitioner) MergeSmallPartitions(threshold int) bool {
	merged := false
	for {
		progress := false
		for k := range len(p.sizes) {
			if p.sizes[k] == 0 || p.sizes[k] >= threshold {
				continue
			}
			target := p.mergeTarget(k, threshold)
			if target < 0 {
				continue
			}
			for i, a := range p.assign {
				if a == k {
					p.assign[i] = target
				}
			}
			p.sizes[target] += p.sizes[k]
			p.sizes[k] = 0
			progress = true
		}
		if !progress {
			break
		}
		merged = true
	}
	if merged {
		p.recount()
		p.recenter()
		logging.Debug("partition: merged small", "threshold", threshold, "partitions", p.NonEmptyPartitionCount())
	}
	return merged
}

func (p *Partitioner) mergeTarget(k, threshold int) int {
	var cands []int
	for _, i := range p.members(k) {
		for _, j := range p.connectivity[i] {
			if a := p.assign[j]; a != k && a >= 0 {
				cands = append(cands, a)
			}
		}
	}
	slices.Sort(cands)
	cands = slices.Compact(cands)
	best, bestBig := -1, false
	for _, c := range cands {
		big := p.sizes[c] >= threshold
		switch {
		case best < 0:
		case big && !bestBig:
		case big == bestBig && p.sizes[c] < p.sizes[best]:
		default:
			continue
		}
		best, bestBig = c, big
	}
	return best
}
