// Package peer implements the per-socket receive loop (spec.md §4.5) and
// the bookkeeping a Node keeps about its peers: which ones were recently
// banned, and which event ids each peer is already known to have seen.
package peer

import (
	"sync"

	lru "github.com/hashicorp/golang-lru"
	mapset "github.com/deckarep/golang-set"

	"github.com/bamilab/quartznet/common"
)

// bannedCacheSize bounds memory for the recently-banned-peer cache; a
// peer falling out of the cache can simply reattempt and get banned again
// if it is still misbehaving.
const bannedCacheSize = 1024

// BannedPeers is a bounded recently-banned cache consulted before
// accepting a new child connection, mirroring the go-ethereum-derived
// "known peers" cache pattern used throughout go-probeum's peer tracking.
type BannedPeers struct {
	cache *lru.Cache
}

func NewBannedPeers() *BannedPeers {
	c, _ := lru.New(bannedCacheSize)
	return &BannedPeers{cache: c}
}

func (b *BannedPeers) Ban(peer common.PublicKey) {
	b.cache.Add(peer, struct{}{})
}

func (b *BannedPeers) IsBanned(peer common.PublicKey) bool {
	return b.cache.Contains(peer)
}

// KnownEvents tracks, per remote peer, the event ids that peer is already
// known to have (because it sent them, or we already relayed them to it),
// used to avoid redundant rebroadcast bookkeeping. Mark/Knows/Forget are
// called concurrently from every per-socket receive loop, so the map
// itself is guarded by mu; the per-peer sets stay plain mapset.Set since
// they are only ever touched while mu is held.
type KnownEvents struct {
	mu   sync.Mutex
	sets map[common.PublicKey]mapset.Set
}

func NewKnownEvents() *KnownEvents {
	return &KnownEvents{sets: make(map[common.PublicKey]mapset.Set)}
}

func (k *KnownEvents) Mark(peer common.PublicKey, eventID uint64) {
	k.mu.Lock()
	defer k.mu.Unlock()
	s, ok := k.sets[peer]
	if !ok {
		s = mapset.NewThreadUnsafeSet()
		k.sets[peer] = s
	}
	s.Add(eventID)
}

func (k *KnownEvents) Knows(peer common.PublicKey, eventID uint64) bool {
	k.mu.Lock()
	defer k.mu.Unlock()
	s, ok := k.sets[peer]
	if !ok {
		return false
	}
	return s.Contains(eventID)
}

func (k *KnownEvents) Forget(peer common.PublicKey) {
	k.mu.Lock()
	defer k.mu.Unlock()
	delete(k.sets, peer)
}
