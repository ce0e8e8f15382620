// Package setstore holds named term sets used by the text heuristics and
// rules: profanity words, spam phrases, banned listing categories. Sets are
// loaded once at startup and treated as immutable for the process lifetime;
// nothing mutates them at request time.
package setstore

import (
	"context"
	"encoding/json"
	"io"
	"os"
)

type SetStore interface {
	InSet(ctx context.Context, name, val string) (bool, error)
	// Full contents of a named set, for consumers that compile the set in
	// to an internal form (eg, the content lexicon). Missing sets return
	// an empty slice.
	GetSet(ctx context.Context, name string) ([]string, error)
}

type MemSetStore struct {
	Sets map[string]map[string]bool
}

func NewMemSetStore() *MemSetStore {
	return &MemSetStore{
		Sets: make(map[string]map[string]bool),
	}
}

func (s *MemSetStore) InSet(ctx context.Context, name, val string) (bool, error) {
	set, ok := s.Sets[name]
	if !ok {
		// an unknown set is treated as empty, not as an error
		return false, nil
	}
	return set[val], nil
}

func (s *MemSetStore) GetSet(ctx context.Context, name string) ([]string, error) {
	set, ok := s.Sets[name]
	if !ok {
		return []string{}, nil
	}
	out := make([]string, 0, len(set))
	for v := range set {
		out = append(out, v)
	}
	return out, nil
}

// Loads sets from a JSON file mapping set name to a list of values. Called
// during startup, before the store is shared.
func (s *MemSetStore) LoadFromFileJSON(p string) error {
	f, err := os.Open(p)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	raw, err := io.ReadAll(f)
	if err != nil {
		return err
	}

	var sets map[string][]string
	if err := json.Unmarshal(raw, &sets); err != nil {
		return err
	}

	for name, l := range sets {
		m := make(map[string]bool, len(l))
		for _, val := range l {
			m[val] = true
		}
		s.Sets[name] = m
	}
	return nil
}
