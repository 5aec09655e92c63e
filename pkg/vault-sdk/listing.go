package vault

import (
	"strings"
	"sync"
)

// Listing is the client's local, possibly stale, ordered copy of file
// metadata. Overlapping responses may apply in any order; the last write
// wins.
type Listing struct {
	mu    sync.RWMutex
	files []FileMetadata
}

// NewListing returns an empty listing.
func NewListing() *Listing {
	return &Listing{}
}

// Replace swaps the whole listing, as after a list or search response.
func (l *Listing) Replace(files []FileMetadata) {
	cp := make([]FileMetadata, len(files))
	copy(cp, files)
	l.mu.Lock()
	l.files = cp
	l.mu.Unlock()
}

// Remove drops every entry with the given id. It is a pure local filter and
// does not refetch.
func (l *Listing) Remove(id int64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	kept := l.files[:0:0]
	for _, f := range l.files {
		if f.ID != id {
			kept = append(kept, f)
		}
	}
	l.files = kept
}

// MergeUploaded prepends uploaded files whose ids are not already listed.
// Deduplicated uploads come back with an existing id and are skipped.
func (l *Listing) MergeUploaded(uploaded []FileMetadata) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	existing := make(map[int64]struct{}, len(l.files))
	for _, f := range l.files {
		existing[f.ID] = struct{}{}
	}
	fresh := make([]FileMetadata, 0, len(uploaded))
	for _, f := range uploaded {
		if _, ok := existing[f.ID]; ok {
			continue
		}
		existing[f.ID] = struct{}{}
		fresh = append(fresh, f)
	}
	l.files = append(fresh, l.files...)
	return len(fresh)
}

// Filter returns entries whose filename contains term, ignoring case.
// An empty term returns everything.
func (l *Listing) Filter(term string) []FileMetadata {
	term = strings.ToLower(strings.TrimSpace(term))
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]FileMetadata, 0, len(l.files))
	for _, f := range l.files {
		if term == "" || strings.Contains(strings.ToLower(f.Filename), term) {
			out = append(out, f)
		}
	}
	return out
}

// Get returns the entry with id, if listed.
func (l *Listing) Get(id int64) (FileMetadata, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	for _, f := range l.files {
		if f.ID == id {
			return f, true
		}
	}
	return FileMetadata{}, false
}

// Files returns a copy of the listing.
func (l *Listing) Files() []FileMetadata {
	return l.Filter("")
}

// Len returns the number of listed entries.
func (l *Listing) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.files)
}
