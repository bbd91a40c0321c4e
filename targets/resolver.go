package targets

import "strings"

// Set answers membership against a target list without materializing ranges
// Membership is identical to membership in the expanded list
type Set struct {
	literals map[string]struct{}
	spans    []Target
}

// NewSet builds a Set from raw target entries
func NewSet(entries []string) *Set {
	s := &Set{literals: make(map[string]struct{})}
	for _, entry := range entries {
		t := Parse(entry)
		if t.Kind == Literal {
			if t.Start.IsValid() {
				s.literals[t.Start.String()] = struct{}{}
			} else if t.Raw != "" {
				s.literals[t.Raw] = struct{}{}
			}
			continue
		}
		s.spans = append(s.spans, t)
	}
	return s
}

// Contains reports whether addr is a member. A nil Set is empty
func (s *Set) Contains(addr string) bool {
	if s == nil {
		return false
	}
	addr = strings.TrimSpace(addr)
	key := addr
	if t := Parse(addr); t.Kind == Literal && t.Start.IsValid() {
		key = t.Start.String()
	}
	if _, ok := s.literals[key]; ok {
		return true
	}
	for _, span := range s.spans {
		if span.Contains(addr) {
			return true
		}
	}
	return false
}

// Empty reports whether the set has no members
func (s *Set) Empty() bool {
	return s == nil || (len(s.literals) == 0 && len(s.spans) == 0)
}

// Scope is one site's scan scope
type Scope struct {
	SiteID   int64
	SiteName string
	Included *Set
	Excluded *Set
}

// Covers reports whether addr is included and not excluded
func (s Scope) Covers(addr string) bool {
	return s.Included.Contains(addr) && !s.Excluded.Contains(addr)
}

// Resolver maps addresses to the sites that scan them
type Resolver struct {
	scopes []Scope
}

// NewResolver keeps scopes in the given order; results follow that order
func NewResolver(scopes []Scope) *Resolver {
	return &Resolver{scopes: scopes}
}

// Resolve returns every site covering addr. Overlapping site scopes yield
// more than one result; callers decide how to report that
func (r *Resolver) Resolve(addr string) []Scope {
	var matches []Scope
	for _, scope := range r.scopes {
		if scope.Covers(addr) {
			matches = append(matches, scope)
		}
	}
	return matches
}

// ResolveLast returns only the last covering site in iteration order,
// matching the legacy site finder report
func (r *Resolver) ResolveLast(addr string) (Scope, bool) {
	matches := r.Resolve(addr)
	if len(matches) == 0 {
		return Scope{}, false
	}
	return matches[len(matches)-1], true
}

// Len returns the number of scopes
func (r *Resolver) Len() int {
	return len(r.scopes)
}
