package persistence

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bamilab/quartznet/common"
	"github.com/bamilab/quartznet/model"
)

func TestLoadSubscriptionMissingFileReturnsEmpty(t *testing.T) {
	dir := t.TempDir()
	owner := common.BytesToPublicKey([]byte("owner"))

	sub, err := LoadSubscription(dir, owner)
	require.NoError(t, err)
	require.Equal(t, owner, sub.Owner)
	require.Empty(t, sub.Publishers)
}

func TestSaveLoadSubscriptionRoundTrip(t *testing.T) {
	dir := t.TempDir()
	owner := common.BytesToPublicKey([]byte("owner"))
	pub := common.BytesToPublicKey([]byte("publisher"))
	peer := common.BytesToPublicKey([]byte("peer"))

	sub := model.Subscription{Owner: owner, Publishers: []common.PublicKey{pub}, CachedPeers: []common.PublicKey{peer}}
	require.NoError(t, SaveSubscription(dir, sub))

	got, err := LoadSubscription(dir, owner)
	require.NoError(t, err)
	require.Equal(t, sub, got)
}
