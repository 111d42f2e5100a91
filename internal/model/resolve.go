package model

import "strings"

// Reasons recorded for references that could not be bound.
const (
	ReasonNoCandidate = "no_candidate"
	ReasonAmbiguous   = "ambiguous"
	ReasonWrongKind   = "wrong_kind"
)

// Reference is a pending string reference from one element to another.
type Reference struct {
	From   string
	Field  string
	Target string
	Reason string

	// typed references may fall back to an implicit data type
	typed  bool
	accept func(Entity) bool
	bind   func(Entity)
	done   bool
}

type ResolveStats struct {
	Attempted int
	Resolved  int
	Skipped   int
}

// RefResolver binds some of the pending references of a load.
type RefResolver interface {
	Name() string
	Resolve(l *loader) (ResolveStats, error)
}

type StageResult struct {
	Resolver         string
	Stats            ResolveStats
	UnresolvedBefore int
	UnresolvedAfter  int
	Err              error
}

type ResolverChain struct {
	resolvers []RefResolver
}

func NewResolverChain(resolvers ...RefResolver) *ResolverChain {
	return &ResolverChain{resolvers: resolvers}
}

// NewDefaultChain binds by key or id, then by name, then creates implicit
// data types for unknown attribute and parameter types.
func NewDefaultChain() *ResolverChain {
	return NewResolverChain(keyResolver{}, nameResolver{}, implicitTypeResolver{})
}

func (c *ResolverChain) Run(l *loader) []StageResult {
	var out []StageResult
	for _, r := range c.resolvers {
		before := l.pendingCount()
		stats, err := r.Resolve(l)
		out = append(out, StageResult{
			Resolver:         r.Name(),
			Stats:            stats,
			UnresolvedBefore: before,
			UnresolvedAfter:  l.pendingCount(),
			Err:              err,
		})
		if err != nil {
			break
		}
	}
	return out
}

func bindCandidate(ref *Reference, e Entity) bool {
	if ref.accept != nil && !ref.accept(e) {
		ref.Reason = ReasonWrongKind
		return false
	}
	ref.bind(e)
	ref.done = true
	ref.Reason = ""
	return true
}

type keyResolver struct{}

func (keyResolver) Name() string { return "key" }

func (keyResolver) Resolve(l *loader) (ResolveStats, error) {
	var stats ResolveStats
	for _, ref := range l.refs {
		if ref.done {
			continue
		}
		stats.Attempted++
		e, ok := l.byKey[ref.Target]
		if !ok {
			e, ok = l.model.Lookup(ID(ref.Target))
		}
		if ok && bindCandidate(ref, e) {
			stats.Resolved++
			continue
		}
		stats.Skipped++
	}
	return stats, nil
}

type nameResolver struct{}

func (nameResolver) Name() string { return "name" }

func (nameResolver) Resolve(l *loader) (ResolveStats, error) {
	var stats ResolveStats
	for _, ref := range l.refs {
		if ref.done {
			continue
		}
		stats.Attempted++
		candidates := l.model.FindByName(strings.TrimSpace(ref.Target))
		if ref.accept != nil {
			kept := candidates[:0:0]
			for _, c := range candidates {
				if ref.accept(c) {
					kept = append(kept, c)
				}
			}
			if len(kept) == 0 && len(candidates) > 0 {
				ref.Reason = ReasonWrongKind
			}
			candidates = kept
		}
		switch len(candidates) {
		case 0:
			if ref.Reason == "" {
				ref.Reason = ReasonNoCandidate
			}
			stats.Skipped++
		case 1:
			bindCandidate(ref, candidates[0])
			stats.Resolved++
		default:
			ref.Reason = ReasonAmbiguous
			stats.Skipped++
		}
	}
	return stats, nil
}

// implicitTypeResolver creates a root-level DataType for each unknown type
// name used by an attribute or parameter (Int, String, ...).
type implicitTypeResolver struct{}

func (implicitTypeResolver) Name() string { return "implicit_type" }

func (implicitTypeResolver) Resolve(l *loader) (ResolveStats, error) {
	var stats ResolveStats
	created := make(map[string]*DataType)
	for _, ref := range l.refs {
		if ref.done || !ref.typed || ref.Reason != ReasonNoCandidate {
			continue
		}
		stats.Attempted++
		dt, ok := created[ref.Target]
		if !ok {
			dt = &DataType{Element: Element{Name: ref.Target, Key: "datatype:" + ref.Target}}
			if err := l.model.Attach(l.model, dt); err != nil {
				return stats, err
			}
			created[ref.Target] = dt
		}
		bindCandidate(ref, dt)
		stats.Resolved++
	}
	return stats, nil
}
