package wire

import (
	"testing"

	"github.com/bamilab/quartznet/common"
	"github.com/google/go-cmp/cmp"
	"github.com/google/gofuzz"
	"github.com/stretchr/testify/require"
)

func TestProfileRoundTrip(t *testing.T) {
	f := fuzz.New().NilChance(0).NumElements(0, 8)
	for i := 0; i < 50; i++ {
		var p Profile
		f.Fuzz(&p.Revision)
		p.Title = randShortString(f, 200)
		p.Description = randShortString(f, 2000)
		if i%2 == 0 {
			var h common.Hash
			f.Fuzz(&h)
			p.ProfilePicture = &h
		}

		w := NewWriter()
		p.Encode(w)
		got, err := DecodeProfile(NewReader(w.Bytes()))
		require.NoError(t, err)
		if diff := cmp.Diff(p, got); diff != "" {
			t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
		}
	}
}

func TestChannelProfileRoundTrip(t *testing.T) {
	f := fuzz.New().NilChance(0)
	var h1, h2 common.Hash
	f.Fuzz(&h1)
	f.Fuzz(&h2)
	cp := ChannelProfile{
		Base:       Profile{Revision: 7, Title: "hello", Description: "a channel", ProfilePicture: &h1},
		Stylesheet: &h2,
	}
	w := NewWriter()
	cp.Encode(w)
	got, err := DecodeChannelProfile(NewReader(w.Bytes()))
	require.NoError(t, err)
	require.Equal(t, cp, got)
}

func TestEventKindRoundTrip(t *testing.T) {
	channelKind := EventKind{}
	w := NewWriter()
	channelKind.Encode(w)
	got, err := DecodeEventKind(NewReader(w.Bytes()))
	require.NoError(t, err)
	require.Equal(t, channelKind, got)

	var pk common.PublicKey
	fuzz.New().Fuzz(&pk)
	publisherKind := EventKind{IsPublisher: true, Publisher: pk}
	w2 := NewWriter()
	publisherKind.Encode(w2)
	got2, err := DecodeEventKind(NewReader(w2.Bytes()))
	require.NoError(t, err)
	require.Equal(t, publisherKind, got2)
}

func TestPostRoundTrip(t *testing.T) {
	var hash common.Hash
	var sig common.Signature
	var contentHash common.Hash
	fuzz.New().Fuzz(&hash)
	fuzz.New().Fuzz(&sig)
	fuzz.New().Fuzz(&contentHash)

	post := Post{
		PostID:    42,
		Hash:      hash,
		Signature: sig,
		Meta: PostMeta{
			Info:          PostInfo{PublishTimestamp: 1000, Tags: []string{"a", "bb", "ccc"}},
			ContentHash:   contentHash,
			AttachmentIDs: []common.Hash{contentHash, hash},
		},
	}
	w := NewWriter()
	post.Encode(w)
	got, err := DecodePost(NewReader(w.Bytes()))
	require.NoError(t, err)
	require.Equal(t, post, got)
}

func TestPostsRequestMaskBits(t *testing.T) {
	mask := make([]byte, maskLen(4))
	SetBit(mask, 0)
	SetBit(mask, 2)
	SetBit(mask, 3)
	require.True(t, GetBit(mask, 0))
	require.False(t, GetBit(mask, 1))
	require.True(t, GetBit(mask, 2))
	require.True(t, GetBit(mask, 3))
	require.Equal(t, byte(0b1101), mask[0])
}

func TestPostsRequestRoundTrip(t *testing.T) {
	var pk common.PublicKey
	fuzz.New().Fuzz(&pk)
	mask := make([]byte, maskLen(12))
	SetBit(mask, 1)
	SetBit(mask, 11)
	req := PostsRequest{PublisherKey: pk, PostIDStart: 100, PostIDCount: 12, PresentMask: mask}
	w := NewWriter()
	req.Encode(w)
	got, err := DecodePostsRequest(NewReader(w.Bytes()))
	require.NoError(t, err)
	require.Equal(t, req, got)
}

func TestTruncatedFrameIsMissingData(t *testing.T) {
	_, err := DecodeProfile(NewReader([]byte{1, 2, 3}))
	require.Error(t, err)
	m, ok := common.IsMalformed(err)
	require.True(t, ok)
	require.Equal(t, common.MissingData, m.Kind)
}

func TestUnknownDirectionByteIsInvalidTypeId(t *testing.T) {
	_, _, err := DecodeDirection([]byte{99})
	require.Error(t, err)
	m, ok := common.IsMalformed(err)
	require.True(t, ok)
	require.Equal(t, common.InvalidTypeId, m.Kind)
}

func randShortString(f *fuzz.Fuzzer, maxLen int) string {
	var n int
	f.Fuzz(&n)
	if n < 0 {
		n = -n
	}
	n = n % maxLen
	b := make([]byte, n)
	for i := range b {
		b[i] = byte('a' + (i % 26))
	}
	return string(b)
}
