package model

import "github.com/bamilab/quartznet/common"

// Subscription is the persisted per-channel record: owner key, known
// publisher list, and a cache of peers that were healthy in the last
// session — used to reconnect without rediscovery
// (original_source/src/subscriptions.rs Subscription).
type Subscription struct {
	Owner       common.PublicKey
	Publishers  []common.PublicKey
	CachedPeers []common.PublicKey
}
