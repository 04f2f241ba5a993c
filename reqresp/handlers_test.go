package reqresp

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bamilab/quartznet/common"
	"github.com/bamilab/quartznet/cryptoutil"
	"github.com/bamilab/quartznet/model"
	"github.com/bamilab/quartznet/persistence"
	"github.com/bamilab/quartznet/wire"
)

func openTestGateway(t *testing.T) *persistence.Gateway {
	t.Helper()
	dir := t.TempDir()
	gw, err := persistence.Open(filepath.Join(dir, "quartznet.db"), filepath.Join(dir, "blocks"))
	require.NoError(t, err)
	t.Cleanup(func() { gw.Close() })
	return gw
}

func requestFramePayload(requestID uint32, typ wire.RequestType, bodyWriter func(w *wire.Writer)) []byte {
	w := wire.NewWriter()
	w.WriteU32(requestID)
	w.WriteU8(uint8(typ))
	bodyWriter(w)
	return w.Bytes()
}

func TestHandlePostsReturnsFoundMaskAndPosts(t *testing.T) {
	gw := openTestGateway(t)
	channel := common.BytesToPublicKey([]byte("channel"))
	publisher := common.BytesToPublicKey([]byte("publisher"))

	tl, err := gw.EnsureTimeline(channel, publisher)
	require.NoError(t, err)
	_, err = tl.CreatePost(cryptoutil.Hash([]byte("meta0")), common.Signature{}, model.Post{PublishedAt: 1, ContentHash: cryptoutil.Hash([]byte("c0")), Tags: []string{"news"}})
	require.NoError(t, err)

	h := New(gw, channel, NewSearchIndex())
	payload := requestFramePayload(7, wire.RequestPosts, func(w *wire.Writer) {
		wire.PostsRequest{PublisherKey: publisher, PostIDStart: 0, PostIDCount: 2, PresentMask: make([]byte, 1)}.Encode(w)
	})

	result, response, ok, err := h.Handle(payload)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, wire.ResultSuccess, result)

	r := wire.NewReader(response)
	resp, err := wire.DecodePostsResponse(r, 1)
	require.NoError(t, err)
	require.True(t, wire.GetBit(resp.FoundMask, 0))
	require.False(t, wire.GetBit(resp.FoundMask, 1))
	require.Len(t, resp.Posts, 1)
	require.Equal(t, []string{"news"}, resp.Posts[0].Meta.Info.Tags)
}

func TestHandlePostsUnknownPublisherIsMalformed(t *testing.T) {
	gw := openTestGateway(t)
	channel := common.BytesToPublicKey([]byte("channel"))
	unknown := common.BytesToPublicKey([]byte("ghost"))

	h := New(gw, channel, NewSearchIndex())
	payload := requestFramePayload(1, wire.RequestPosts, func(w *wire.Writer) {
		wire.PostsRequest{PublisherKey: unknown, PostIDStart: 0, PostIDCount: 1, PresentMask: make([]byte, 1)}.Encode(w)
	})

	_, _, _, err := h.Handle(payload)
	m, isMalformed := common.IsMalformed(err)
	require.True(t, isMalformed)
	require.Equal(t, common.UnknownPublisher, m.Kind)
}

func TestHandleSearchMatchesIndexedTags(t *testing.T) {
	gw := openTestGateway(t)
	channel := common.BytesToPublicKey([]byte("channel"))
	publisher := common.BytesToPublicKey([]byte("publisher"))

	tl, err := gw.EnsureTimeline(channel, publisher)
	require.NoError(t, err)
	postID, err := tl.CreatePost(cryptoutil.Hash([]byte("meta")), common.Signature{}, model.Post{PublishedAt: 1, ContentHash: cryptoutil.Hash([]byte("c")), Tags: []string{"gardening"}})
	require.NoError(t, err)

	idx := NewSearchIndex()
	idx.Index(PostRef{Publisher: publisher, PostID: postID}, []string{"gardening"})

	h := New(gw, channel, idx)
	payload := requestFramePayload(3, wire.RequestSearch, func(w *wire.Writer) {
		wire.SearchRequest{Keywords: []string{"Gardening"}}.Encode(w)
	})

	result, response, ok, err := h.Handle(payload)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, wire.ResultSuccess, result)

	r := wire.NewReader(response)
	resp, err := wire.DecodeSearchResponse(r)
	require.NoError(t, err)
	require.Len(t, resp.Posts, 1)
	require.Equal(t, postID, resp.Posts[0].PostID)
}

func TestHandleFilesIsReservedNoResponse(t *testing.T) {
	gw := openTestGateway(t)
	channel := common.BytesToPublicKey([]byte("channel"))
	h := New(gw, channel, NewSearchIndex())

	payload := requestFramePayload(1, wire.RequestFiles, func(w *wire.Writer) {})
	_, _, ok, err := h.Handle(payload)
	require.NoError(t, err)
	require.False(t, ok)
}
