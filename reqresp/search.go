package reqresp

import (
	"strings"
	"sync"

	"github.com/bamilab/quartznet/common"
)

// PostRef identifies one post within a channel's swarm by its publisher
// and local post id.
type PostRef struct {
	Publisher common.PublicKey
	PostID    uint64
}

// SearchIndex is an in-memory, per-channel keyword-to-post index backing
// the supplemented Search request (original_source/src/message.rs
// PostSearchRequest). It holds only what callers add via Index and remove
// via Forget: nothing in this package rebuilds it from the tags stored in
// post rows, and it is not updated when posts are created or revised. It
// is not persisted.
type SearchIndex struct {
	mu   sync.RWMutex
	tags map[string]map[PostRef]struct{}
}

func NewSearchIndex() *SearchIndex {
	return &SearchIndex{tags: make(map[string]map[PostRef]struct{})}
}

// Index adds ref under every one of tags, replacing whatever tags ref was
// previously indexed under.
func (s *SearchIndex) Index(ref PostRef, tags []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, set := range s.tags {
		delete(set, ref)
	}
	for _, t := range tags {
		key := normalize(t)
		set, ok := s.tags[key]
		if !ok {
			set = make(map[PostRef]struct{})
			s.tags[key] = set
		}
		set[ref] = struct{}{}
	}
}

// Forget removes ref from every tag it was indexed under.
func (s *SearchIndex) Forget(ref PostRef) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, set := range s.tags {
		delete(set, ref)
	}
}

// Match returns the union of posts indexed under any of keywords.
func (s *SearchIndex) Match(keywords []string) []PostRef {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[PostRef]struct{})
	var out []PostRef
	for _, kw := range keywords {
		for ref := range s.tags[normalize(kw)] {
			if _, dup := seen[ref]; dup {
				continue
			}
			seen[ref] = struct{}{}
			out = append(out, ref)
		}
	}
	return out
}

func normalize(tag string) string { return strings.ToLower(strings.TrimSpace(tag)) }
