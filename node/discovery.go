package node

import (
	"context"

	"github.com/bamilab/quartznet/common"
	"github.com/bamilab/quartznet/model"
	"github.com/bamilab/quartznet/transport"
)

// SwarmCandidates returns the ordered list of addresses to try when
// re-entering a channel's swarm (spec.md §4.8): cached peers from the
// last session first (most likely still up, and closest in the overlay
// tree), then every known publisher, then the channel owner itself as
// the connection of last resort. Duplicates are dropped, keeping the
// first occurrence's position.
func SwarmCandidates(sub model.Subscription, owner common.PublicKey) []common.PublicKey {
	seen := make(map[common.PublicKey]bool, len(sub.CachedPeers)+len(sub.Publishers)+1)
	var out []common.PublicKey
	add := func(addr common.PublicKey) {
		if seen[addr] {
			return
		}
		seen[addr] = true
		out = append(out, addr)
	}
	for _, p := range sub.CachedPeers {
		add(p)
	}
	for _, p := range sub.Publishers {
		add(p)
	}
	add(owner)
	return out
}

// FindSwarmConnection dials candidates in order and returns the socket and
// address of the first one that accepts a connection. Every failed dial is
// reported to onError (if non-nil) before moving to the next candidate,
// rather than aborting the whole cascade on the first failure.
func FindSwarmConnection(ctx context.Context, tr transport.Transport, candidates []common.PublicKey, onError func(addr common.PublicKey, err error)) (transport.Socket, common.PublicKey, error) {
	var lastErr error
	for _, addr := range candidates {
		sock, err := tr.Connect(ctx, addr, transport.OverlayPort())
		if err != nil {
			lastErr = err
			if onError != nil {
				onError(addr, err)
			}
			continue
		}
		return sock, addr, nil
	}
	if lastErr == nil {
		return nil, common.PublicKey{}, common.Malformed(common.MissingData, "no swarm connection candidates")
	}
	return nil, common.PublicKey{}, lastErr
}
