// Package clustering builds intermediate cluster levels over flat
// hierarchies by partitioning each selected cluster's children.
package clustering

import (
	"fmt"
	"math"

	"github.com/chazu/splinter/pkg/collection"
	"github.com/chazu/splinter/pkg/geom"
	"github.com/chazu/splinter/pkg/hierarchy"
	"github.com/chazu/splinter/pkg/kernel"
	"github.com/chazu/splinter/pkg/logging"
	"github.com/chazu/splinter/pkg/partition"
	"github.com/chazu/splinter/pkg/selection"
)

// Method says how the number of partitions is chosen.
type Method int

const (
	// BySiteCount uses SiteCount partitions.
	BySiteCount Method = iota
	// ByFractionOfInput uses Fraction times the number of children.
	ByFractionOfInput
	// BySize aims for partitions of SiteSize children on average.
	BySize
	// ByGrid seeds one partition per cell of a GridX*GridY*GridZ grid over
	// the children's centroids.
	ByGrid
)

var methodNames = map[Method]string{
	BySiteCount:       "count",
	ByFractionOfInput: "fraction",
	BySize:            "size",
	ByGrid:            "grid",
}

func (m Method) String() string {
	if s, ok := methodNames[m]; ok {
		return s
	}
	return fmt.Sprintf("Method(%d)", int(m))
}

// ParseMethod resolves a method name as printed by String.
func ParseMethod(s string) (Method, error) {
	for m, name := range methodNames {
		if name == s {
			return m, nil
		}
	}
	return 0, fmt.Errorf("clustering: unknown method %q", s)
}

// Options configures AutoCluster.
type Options struct {
	Method    Method
	SiteCount int
	Fraction  float64
	SiteSize  float64
	GridX     int
	GridY     int
	GridZ     int

	// MaxIterations bounds the K-means refinement.
	MaxIterations int
	// EnforceConnectivity splits partitions whose members do not touch.
	EnforceConnectivity bool
	// AvoidIsolated merges single-child partitions into a neighbour.
	AvoidIsolated bool
	// MinClusterSize merges partitions smaller than this into a neighbour.
	MinClusterSize int
	// Seed feeds the GUIDs of the new clusters.
	Seed int64
}

// DefaultOptions returns eight sites, connectivity repair on.
func DefaultOptions() Options {
	return Options{
		Method:              BySiteCount,
		SiteCount:           8,
		Fraction:            0.25,
		SiteSize:            4,
		GridX:               2,
		GridY:               2,
		GridZ:               2,
		MaxIterations:       500,
		EnforceConnectivity: true,
		AvoidIsolated:       true,
	}
}

// siteCount returns the partition count for n children.
func (o Options) siteCount(n int) int {
	var k int
	switch o.Method {
	case ByFractionOfInput:
		k = int(math.Ceil(o.Fraction * float64(n)))
	case BySize:
		if o.SiteSize > 0 {
			k = int(math.Round(float64(n) / o.SiteSize))
		}
	case ByGrid:
		k = max(1, o.GridX) * max(1, o.GridY) * max(1, o.GridZ)
	default:
		k = o.SiteCount
	}
	return geom.Clamp(k, 1, n)
}

// AutoCluster partitions the children of every selected cluster and gives
// each partition with more than one member its own new cluster bone. The
// work happens on a copy of c: when the copy has no proximity data and
// cutter is non-nil, proximity is computed first so connectivity repair
// can run. It returns the clustered copy and the index of its first new
// cluster, or c itself and IndexNone when nothing changed.
func AutoCluster(c *collection.Collection, sel selection.Selection, opts Options, cutter kernel.Cutter) (*collection.Collection, int) {
	if err := sel.Validate(c, collection.GroupTransform); err != nil {
		logging.Warn("auto cluster: invalid selection", "err", err)
		return c, collection.IndexNone
	}
	work := c.Clone()
	if cutter != nil && !hasProximity(work) {
		if err := cutter.ComputeProximity(work); err != nil {
			logging.Warn("auto cluster: proximity failed", "err", err)
		}
	}

	first := collection.IndexNone
	for _, bone := range sel.AsArray() {
		if !work.IsCluster(bone) {
			continue
		}
		if idx := clusterChildren(work, bone, opts); idx != collection.IndexNone && first == collection.IndexNone {
			first = idx
		}
	}
	if first == collection.IndexNone {
		return c, first
	}
	work.UpdateLevels()
	if err := work.GenerateGUIDs(first, opts.Seed); err != nil {
		logging.Warn("auto cluster: guids", "err", err)
	}
	remap := hierarchy.Repair(work)
	for i := first; i < len(remap); i++ {
		if remap[i] != collection.IndexNone {
			return work, remap[i]
		}
	}
	logging.Warn("auto cluster: repair removed every new cluster")
	return c, collection.IndexNone
}

func hasProximity(c *collection.Collection) bool {
	for _, set := range c.IntSets(collection.AttrProximity, collection.GroupGeometry) {
		if len(set) > 0 {
			return true
		}
	}
	return false
}

func clusterChildren(c *collection.Collection, bone int, opts Options) int {
	children := c.Children()[bone]
	if len(children) <= 1 {
		return collection.IndexNone
	}
	bodies := make([]int, len(children))
	copy(bodies, children)

	p := partition.New(c, bodies, c.Levels()[bone]+1)
	var centers []geom.Vec
	if opts.Method == ByGrid {
		centers = gridCenters(p, opts)
	}
	p.KMeansPartition(opts.siteCount(len(bodies)), opts.MaxIterations, centers)
	if opts.EnforceConnectivity {
		p.SplitDisconnectedPartitions()
	}
	if opts.AvoidIsolated {
		p.MergeSingleElementPartitions()
	}
	if opts.MinClusterSize > 1 {
		p.MergeSmallPartitions(opts.MinClusterSize)
	}
	if p.NonEmptyPartitionCount() < 2 {
		return collection.IndexNone
	}

	name := c.Strings(collection.AttrBoneName, collection.GroupTransform)[bone]
	first := collection.IndexNone
	for k := range p.NumPartitions() {
		members := p.GetPartition(k)
		if len(members) < 2 {
			continue
		}
		nc := c.AddBone(bone, geom.Identity(), collection.SimClustered, fmt.Sprintf("%s_cluster_%d", name, k))
		for _, m := range members {
			c.SetParent(m, nc)
		}
		if first == collection.IndexNone {
			first = nc
		}
	}
	logging.Debug("auto cluster", "bone", bone, "children", len(bodies), "partitions", p.NonEmptyPartitionCount())
	return first
}

// gridCenters lays one site at the centre of every grid cell over the
// bounds of the body centroids.
func gridCenters(p *partition.Partitioner, opts Options) []geom.Vec {
	b := geom.EmptyBox()
	for i := range p.NumBodies() {
		b = b.Extend(p.Centroid(i))
	}
	nx, ny, nz := max(1, opts.GridX), max(1, opts.GridY), max(1, opts.GridZ)
	size := b.Size()
	var out []geom.Vec
	for z := range nz {
		for y := range ny {
			for x := range nx {
				f := geom.V((float64(x)+0.5)/float64(nx), (float64(y)+0.5)/float64(ny), (float64(z)+0.5)/float64(nz))
				out = append(out, geom.Add(b.Min, geom.Mul(f, size)))
			}
		}
	}
	return out
}
