package cryptoutil

import (
	"testing"

	"github.com/btcsuite/btcd/btcec"
	"github.com/stretchr/testify/require"

	"github.com/bamilab/quartznet/common"
)

func TestSignVerifyRoundTrip(t *testing.T) {
	priv, err := btcec.NewPrivateKey(btcec.S256())
	require.NoError(t, err)

	hash := Hash([]byte("post content"))
	sig, err := Sign(priv, hash)
	require.NoError(t, err)

	var pub common.PublicKey
	copy(pub[:], priv.PubKey().SerializeCompressed())

	require.True(t, Verify(sig, hash, pub))
}

func TestVerifyRejectsWrongHash(t *testing.T) {
	priv, err := btcec.NewPrivateKey(btcec.S256())
	require.NoError(t, err)

	hash := Hash([]byte("post content"))
	other := Hash([]byte("different content"))
	sig, err := Sign(priv, hash)
	require.NoError(t, err)

	var pub common.PublicKey
	copy(pub[:], priv.PubKey().SerializeCompressed())

	require.False(t, Verify(sig, other, pub))
}

func TestHashDeterministic(t *testing.T) {
	require.Equal(t, Hash([]byte("abc")), Hash([]byte("abc")))
	require.NotEqual(t, Hash([]byte("abc")), Hash([]byte("abd")))
}
