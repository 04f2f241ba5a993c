package persistence

import (
	"encoding/hex"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/bamilab/quartznet/common"
	"github.com/bamilab/quartznet/model"
)

// SubscriptionsDir is the fixed subdirectory, relative to a data root,
// where subscription records are persisted (spec.md §6: "<root>/subscriptions/<owner_address_string>").
const SubscriptionsDir = "subscriptions"

// subscriptionWire is the on-disk encoding of model.Subscription. JSON is
// used rather than the wire binary codec because subscription files are
// local-only bookkeeping, never sent over a peer socket.
type subscriptionWire struct {
	Owner       string   `json:"owner"`
	Publishers  []string `json:"publishers"`
	CachedPeers []string `json:"cached_peers"`
}

// LoadSubscription reads the subscription file for owner under root, or
// returns a fresh empty Subscription if no file exists yet (first
// subscribe), matching original_source/src/subscriptions.rs's load().
func LoadSubscription(root string, owner common.PublicKey) (model.Subscription, error) {
	path := filepath.Join(root, SubscriptionsDir, owner.String())
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return model.Subscription{Owner: owner}, nil
	}
	if err != nil {
		return model.Subscription{}, common.Persistence(err)
	}

	var w subscriptionWire
	if err := json.Unmarshal(data, &w); err != nil {
		return model.Subscription{}, common.Persistence(err)
	}
	return subscriptionFromWire(w)
}

// SaveSubscription writes sub to its file under root, creating the
// subscriptions directory if necessary.
func SaveSubscription(root string, sub model.Subscription) error {
	dir := filepath.Join(root, SubscriptionsDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return common.Persistence(err)
	}

	data, err := json.Marshal(subscriptionToWire(sub))
	if err != nil {
		return common.Persistence(err)
	}

	path := filepath.Join(dir, sub.Owner.String())
	return common.Persistence(os.WriteFile(path, data, 0o644))
}

func subscriptionToWire(sub model.Subscription) subscriptionWire {
	w := subscriptionWire{Owner: sub.Owner.String()}
	for _, p := range sub.Publishers {
		w.Publishers = append(w.Publishers, p.String())
	}
	for _, p := range sub.CachedPeers {
		w.CachedPeers = append(w.CachedPeers, p.String())
	}
	return w
}

func subscriptionFromWire(w subscriptionWire) (model.Subscription, error) {
	owner, err := hexToPublicKey(w.Owner)
	if err != nil {
		return model.Subscription{}, err
	}
	sub := model.Subscription{Owner: owner}
	for _, s := range w.Publishers {
		pk, err := hexToPublicKey(s)
		if err != nil {
			return model.Subscription{}, err
		}
		sub.Publishers = append(sub.Publishers, pk)
	}
	for _, s := range w.CachedPeers {
		pk, err := hexToPublicKey(s)
		if err != nil {
			return model.Subscription{}, err
		}
		sub.CachedPeers = append(sub.CachedPeers, pk)
	}
	return sub, nil
}

func hexToPublicKey(s string) (common.PublicKey, error) {
	var k common.PublicKey
	b, err := hex.DecodeString(s)
	if err != nil {
		return k, common.Persistence(err)
	}
	return common.BytesToPublicKey(b), nil
}
