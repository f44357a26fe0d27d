// Package indexcache maintains a persisted, incrementally built index of
// review slugs for sites that offer no usable search. Each call extends the
// index by a bounded batch of listing pages until every page has been seen.
package indexcache

import (
	"encoding/json"
	"fmt"
)

// Phase describes how far the index has been built.
type Phase int

const (
	// Empty means no page has been processed yet.
	Empty Phase = iota
	// Partial means some pages remain.
	Partial
	// Complete means every listing page has been processed; the index is
	// read-only from here on.
	Complete
)

func (p Phase) String() string {
	switch p {
	case Empty:
		return "empty"
	case Partial:
		return "partial"
	default:
		return "complete"
	}
}

// State is the persisted form of the index.
type State struct {
	// NextPage is the last listing page processed. It never decreases.
	NextPage uint32 `json:"next_page"`
	// Slugs holds review slugs in discovery order, without duplicates.
	Slugs []string `json:"slugs"`
}

// Phase reports the build phase relative to maxPages.
func (s State) Phase(maxPages uint32) Phase {
	switch {
	case s.NextPage >= maxPages:
		return Complete
	case s.NextPage == 0 && len(s.Slugs) == 0:
		return Empty
	default:
		return Partial
	}
}

// Decode parses a stored state. Empty input yields the zero state.
func Decode(data []byte) (State, error) {
	var s State
	if len(data) == 0 {
		return s, nil
	}
	if err := json.Unmarshal(data, &s); err != nil {
		return State{}, fmt.Errorf("decode index state: %w", err)
	}
	s.Slugs = dedupe(s.Slugs)
	return s, nil
}

// Encode serialises the state as {"next_page":N,"slugs":[...]}.
func (s State) Encode() ([]byte, error) {
	if s.Slugs == nil {
		s.Slugs = []string{}
	}
	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("encode index state: %w", err)
	}
	return data, nil
}

// Merge combines two states without losing progress from either: the higher
// NextPage wins and slugs are the ordered union, a's first.
func Merge(a, b State) State {
	out := State{NextPage: max(a.NextPage, b.NextPage)}
	out.Slugs = dedupe(append(append([]string(nil), a.Slugs...), b.Slugs...))
	return out
}

type slugSet struct {
	seen  map[string]struct{}
	state *State
}

func newSlugSet(s *State) *slugSet {
	set := &slugSet{seen: make(map[string]struct{}, len(s.Slugs)), state: s}
	for _, slug := range s.Slugs {
		set.seen[slug] = struct{}{}
	}
	return set
}

// add appends slug when it is new and reports whether it was added.
func (set *slugSet) add(slug string) bool {
	if slug == "" {
		return false
	}
	if _, ok := set.seen[slug]; ok {
		return false
	}
	set.seen[slug] = struct{}{}
	set.state.Slugs = append(set.state.Slugs, slug)
	return true
}

func dedupe(slugs []string) []string {
	out := make([]string, 0, len(slugs))
	seen := make(map[string]struct{}, len(slugs))
	for _, s := range slugs {
		if _, ok := seen[s]; ok || s == "" {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
