package model

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bamilab/quartznet/cryptoutil"
)

func TestBreakupDataReconstructs(t *testing.T) {
	data := make([]byte, PostBlockLength*3+17)
	for i := range data {
		data[i] = byte(i)
	}

	blocks := BreakupData(data, PostBlockLength)
	require.Len(t, blocks, 4)
	for _, b := range blocks[:3] {
		require.Len(t, b, PostBlockLength)
	}
	require.Len(t, blocks[3], 17)

	var reconstructed []byte
	for _, b := range blocks {
		reconstructed = append(reconstructed, b...)
	}
	require.True(t, bytes.Equal(data, reconstructed))
}

func TestHashBlocksDeterministic(t *testing.T) {
	data := []byte("hello world, this is post content")
	blocks := BreakupData(data, 8)

	ids1 := HashBlocks(blocks, cryptoutil.Hash)
	ids2 := HashBlocks(blocks, cryptoutil.Hash)
	require.Equal(t, ids1, ids2)

	for i, b := range blocks {
		require.Equal(t, cryptoutil.Hash(b), ids1[i])
	}
}

func TestBreakupDataEmpty(t *testing.T) {
	require.Nil(t, BreakupData(nil, PostBlockLength))
}
