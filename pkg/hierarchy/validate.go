package hierarchy

import (
	"fmt"
	"slices"

	"github.com/chazu/splinter/pkg/collection"
	"github.com/chazu/splinter/pkg/logging"
)

// ValidationSeverity indicates whether a finding means the hierarchy is
// unusable or merely suspicious.
type ValidationSeverity int

const (
	SeverityError   ValidationSeverity = iota // structure is broken
	SeverityWarning                           // repairable or skippable
)

func (s ValidationSeverity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	default:
		return fmt.Sprintf("ValidationSeverity(%d)", int(s))
	}
}

// ValidationError describes a single validation finding.
type ValidationError struct {
	Bone     int                // offending bone, IndexNone for collection-level findings
	Code     string             // stable identifier
	Message  string             // human-readable description
	Severity ValidationSeverity // error or warning
}

func (e ValidationError) Error() string {
	if e.Bone == collection.IndexNone {
		return fmt.Sprintf("[%s] %s: %s", e.Severity, e.Code, e.Message)
	}
	return fmt.Sprintf("[%s] bone %d %s: %s", e.Severity, e.Bone, e.Code, e.Message)
}

// ValidationResult separates blocking errors from warnings.
type ValidationResult struct {
	Errors   []ValidationError
	Warnings []ValidationError
}

// OK reports whether no errors were found.
func (r ValidationResult) OK() bool { return len(r.Errors) == 0 }

// Validate runs the structural checks: parent indices in range, no cycles,
// Children consistent with Parent, rigid bones owning geometry, and cached
// levels matching depth. It never mutates the collection.
func Validate(c *collection.Collection) []ValidationError {
	var errs []ValidationError
	errs = append(errs, validateParents(c)...)
	errs = append(errs, validateCycles(c)...)
	errs = append(errs, validateChildren(c)...)
	errs = append(errs, validateGeometry(c)...)
	errs = append(errs, validateLevels(c)...)
	return errs
}

// ValidateAll runs the structural checks and the advisory checks (embedded
// bones without a rigid ancestor, dangling clusters, multiple roots) and
// logs every warning.
func ValidateAll(c *collection.Collection) ValidationResult {
	var result ValidationResult
	result.Errors = Validate(c)
	result.Warnings = append(result.Warnings, validateEmbedded(c)...)
	result.Warnings = append(result.Warnings, validateClusters(c)...)
	if roots := c.Roots(); len(roots) > 1 {
		result.Warnings = append(result.Warnings, ValidationError{
			Bone:     collection.IndexNone,
			Code:     "MULTIPLE_ROOTS",
			Message:  fmt.Sprintf("hierarchy has %d roots", len(roots)),
			Severity: SeverityWarning,
		})
	}
	for _, w := range result.Warnings {
		logging.Warn(w.Message, "code", w.Code, "bone", w.Bone)
	}
	return result
}

func validateParents(c *collection.Collection) []ValidationError {
	var errs []ValidationError
	n := c.NumTransforms()
	for i, p := range c.Parents() {
		if p == collection.IndexNone {
			continue
		}
		if p < 0 || p >= n || p == i {
			errs = append(errs, ValidationError{
				Bone:     i,
				Code:     "BAD_PARENT",
				Message:  fmt.Sprintf("parent index %d is invalid", p),
				Severity: SeverityError,
			})
		}
	}
	return errs
}

func validateCycles(c *collection.Collection) []ValidationError {
	var errs []ValidationError
	parents := c.Parents()
	n := len(parents)
	state := make([]int8, n)
	for start := range n {
		if state[start] != 0 {
			continue
		}
		var path []int
		i := start
		for i >= 0 && i < n && state[i] == 0 {
			state[i] = 1
			path = append(path, i)
			i = parents[i]
		}
		if i >= 0 && i < n && state[i] == 1 {
			errs = append(errs, ValidationError{
				Bone:     i,
				Code:     "CYCLE",
				Message:  "bone is its own ancestor",
				Severity: SeverityError,
			})
		}
		for _, p := range path {
			state[p] = 2
		}
	}
	return errs
}

func validateChildren(c *collection.Collection) []ValidationError {
	var errs []ValidationError
	parents := c.Parents()
	for i, set := range c.Children() {
		if !slices.IsSorted(set) {
			errs = append(errs, ValidationError{
				Bone:     i,
				Code:     "CHILDREN_UNSORTED",
				Message:  "children set is not sorted",
				Severity: SeverityError,
			})
		}
		for _, ch := range set {
			if ch < 0 || ch >= len(parents) || parents[ch] != i {
				errs = append(errs, ValidationError{
					Bone:     i,
					Code:     "CHILD_MISMATCH",
					Message:  fmt.Sprintf("child %d does not name this bone as parent", ch),
					Severity: SeverityError,
				})
			}
		}
	}
	children := c.Children()
	for i, p := range parents {
		if p >= 0 && p < len(children) && !slices.Contains(children[p], i) {
			errs = append(errs, ValidationError{
				Bone:     i,
				Code:     "MISSING_CHILD",
				Message:  fmt.Sprintf("parent %d does not list this bone as a child", p),
				Severity: SeverityError,
			})
		}
	}
	return errs
}

func validateGeometry(c *collection.Collection) []ValidationError {
	var errs []ValidationError
	tg := c.TransformToGeometry()
	owner := c.Ints(collection.AttrTransformIndex, collection.GroupGeometry)
	for i := range c.NumTransforms() {
		g := tg[i]
		if c.IsRigid(i) && (g < 0 || g >= len(owner)) {
			errs = append(errs, ValidationError{
				Bone:     i,
				Code:     "RIGID_NO_GEOMETRY",
				Message:  "rigid bone owns no geometry",
				Severity: SeverityError,
			})
			continue
		}
		if g >= 0 && g < len(owner) && owner[g] != i {
			errs = append(errs, ValidationError{
				Bone:     i,
				Code:     "GEOMETRY_OWNER",
				Message:  fmt.Sprintf("geometry %d belongs to bone %d", g, owner[g]),
				Severity: SeverityError,
			})
		}
	}
	return errs
}

func validateLevels(c *collection.Collection) []ValidationError {
	var errs []ValidationError
	parents := c.Parents()
	levels := c.Levels()
	for i, p := range parents {
		want := 0
		if p >= 0 && p < len(levels) {
			want = levels[p] + 1
		}
		if levels[i] != want {
			errs = append(errs, ValidationError{
				Bone:     i,
				Code:     "STALE_LEVEL",
				Message:  fmt.Sprintf("level %d, expected %d", levels[i], want),
				Severity: SeverityError,
			})
		}
	}
	return errs
}

func validateEmbedded(c *collection.Collection) []ValidationError {
	var warns []ValidationError
	sim := c.SimulationTypes()
	for i := range c.NumTransforms() {
		if sim[i] != collection.SimEmbedded {
			continue
		}
		if !slices.ContainsFunc(Ancestors(c, i), c.IsRigid) {
			warns = append(warns, ValidationError{
				Bone:     i,
				Code:     "EMBEDDED_ORPHAN",
				Message:  "embedded geometry has no rigid ancestor",
				Severity: SeverityWarning,
			})
		}
	}
	return warns
}

func validateClusters(c *collection.Collection) []ValidationError {
	var warns []ValidationError
	children := c.Children()
	for i := range c.NumTransforms() {
		if !c.IsCluster(i) || len(children[i]) > 1 {
			continue
		}
		warns = append(warns, ValidationError{
			Bone:     i,
			Code:     "DANGLING_CLUSTER",
			Message:  fmt.Sprintf("cluster has %d children", len(children[i])),
			Severity: SeverityWarning,
		})
	}
	return warns
}
