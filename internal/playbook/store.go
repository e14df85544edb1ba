package playbook

import "github.com/havocd/havoc/internal/core/domain"

// Store is an immutable lookup table from error class to recovery
// strategy. It is shared read-only by all concurrently running tests;
// reloading means constructing a new Store, never editing in place.
type Store struct {
	entries []domain.PlaybookEntry
	def     domain.PlaybookEntry
}

// NewStore builds a store over the given entries. Match order follows
// input order. The default entry applies when nothing matches.
func NewStore(entries []domain.PlaybookEntry, def domain.PlaybookEntry) *Store {
	return &Store{entries: entries, def: def}
}

// Lookup returns the first entry whose matched codes cover class, or
// the default entry when none does.
func (s *Store) Lookup(class domain.ErrorClass) domain.PlaybookEntry {
	for _, e := range s.entries {
		if e.Matches(class) {
			return e
		}
	}
	return s.def
}

// Default returns the store's default entry.
func (s *Store) Default() domain.PlaybookEntry { return s.def }

// Len returns the number of non-default entries.
func (s *Store) Len() int { return len(s.entries) }
