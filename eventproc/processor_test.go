package eventproc

import (
	"path/filepath"
	"testing"

	"github.com/btcsuite/btcd/btcec"
	"github.com/stretchr/testify/require"

	"github.com/bamilab/quartznet/common"
	"github.com/bamilab/quartznet/cryptoutil"
	"github.com/bamilab/quartznet/model"
	"github.com/bamilab/quartznet/persistence"
	"github.com/bamilab/quartznet/wire"
)

type recordingBroadcaster struct {
	frames [][]byte
	origin []common.PublicKey
}

func (b *recordingBroadcaster) Rebroadcast(origin common.PublicKey, frame []byte) {
	b.origin = append(b.origin, origin)
	b.frames = append(b.frames, frame)
}

func newTestProcessor(t *testing.T) (*Processor, *persistence.Gateway, persistence.ChannelHandle, common.PublicKey, *btcec.PrivateKey) {
	t.Helper()
	dir := t.TempDir()
	gw, err := persistence.Open(filepath.Join(dir, "quartznet.db"), filepath.Join(dir, "blocks"))
	require.NoError(t, err)
	t.Cleanup(func() { gw.Close() })

	priv, err := btcec.NewPrivateKey(btcec.S256())
	require.NoError(t, err)
	var owner common.PublicKey
	copy(owner[:], priv.PubKey().SerializeCompressed())

	ch, err := gw.CreateChannel(owner, model.CreationParams{Public: true, RequestedReplicationTime: 14})
	require.NoError(t, err)

	proc := New(gw, ch, &recordingBroadcaster{})
	return proc, gw, ch, owner, priv
}

func signedProfileEvent(priv *btcec.PrivateKey, profile wire.ChannelProfile) wire.UpdateChannelProfileEventMessage {
	w := wire.NewWriter()
	profile.Encode(w)
	h := cryptoutil.Hash(w.Bytes())
	sig, err := cryptoutil.Sign(priv, h)
	if err != nil {
		panic(err)
	}
	return wire.UpdateChannelProfileEventMessage{Hash: h, Signature: sig, Profile: profile}
}

func eventFramePayload(id uint64, kind wire.EventKind, bodyWriter func(w *wire.Writer)) []byte {
	header := wire.EventFrameHeader{EventID: id, Kind: kind}
	bw := wire.NewWriter()
	header.Encode(bw)
	body := wire.NewWriter()
	bodyWriter(body)
	bw.WriteRaw(body.Bytes())
	return bw.Bytes()
}

func TestApplyEventChannelProfileUpdateContiguous(t *testing.T) {
	proc, _, ch, _, priv := newTestProcessor(t)

	profile := wire.ChannelProfile{Base: wire.Profile{Revision: 1, Title: "hello"}}
	msg := signedProfileEvent(priv, profile)

	payload := eventFramePayload(1, wire.EventKind{}, func(w *wire.Writer) {
		w.WriteU8(uint8(wire.ChannelUpdateProfile))
		msg.Encode(w)
	})

	var origin common.PublicKey
	origin[0] = 0x1
	require.NoError(t, proc.ApplyEvent(origin, payload))

	stored, err := ch.FetchProfile()
	require.NoError(t, err)
	require.NotNil(t, stored)
	require.Equal(t, "hello", stored.Title)

	latest, ok, err := ch.LatestEventID()
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, uint64(1), latest)
}

func TestApplyEventFutureEventIsBufferedThenDrains(t *testing.T) {
	proc, _, ch, _, priv := newTestProcessor(t)

	profile1 := wire.ChannelProfile{Base: wire.Profile{Revision: 1, Title: "v1"}}
	profile2 := wire.ChannelProfile{Base: wire.Profile{Revision: 2, Title: "v2"}}
	msg1 := signedProfileEvent(priv, profile1)
	msg2 := signedProfileEvent(priv, profile2)

	var origin common.PublicKey

	payload2 := eventFramePayload(2, wire.EventKind{}, func(w *wire.Writer) {
		w.WriteU8(uint8(wire.ChannelUpdateProfile))
		msg2.Encode(w)
	})
	require.NoError(t, proc.ApplyEvent(origin, payload2))

	latest, _, err := ch.LatestEventID()
	require.NoError(t, err)
	require.Equal(t, uint64(0), latest, "future event must not be applied yet")

	payload1 := eventFramePayload(1, wire.EventKind{}, func(w *wire.Writer) {
		w.WriteU8(uint8(wire.ChannelUpdateProfile))
		msg1.Encode(w)
	})
	require.NoError(t, proc.ApplyEvent(origin, payload1))

	latest, _, err = ch.LatestEventID()
	require.NoError(t, err)
	require.Equal(t, uint64(2), latest, "buffered event 2 must drain once 1 applies")

	stored, err := ch.FetchProfile()
	require.NoError(t, err)
	require.Equal(t, "v2", stored.Title)
}

func TestApplyEventDrainsAcrossChannelAndPublisherScopes(t *testing.T) {
	proc, gw, ch, owner, priv := newTestProcessor(t)

	var publisher common.PublicKey
	publisher[0] = 0x7
	require.NoError(t, ch.StorePublishers([]common.PublicKey{publisher}))
	_, err := gw.EnsureTimeline(owner, publisher)
	require.NoError(t, err)

	profile1 := wire.ChannelProfile{Base: wire.Profile{Revision: 1, Title: "v1"}}
	profile2 := wire.ChannelProfile{Base: wire.Profile{Revision: 2, Title: "v2"}}
	msg1 := signedProfileEvent(priv, profile1)
	msg2 := signedProfileEvent(priv, profile2)

	var contentHash common.Hash
	contentHash[0] = 0x42

	// Globally-numbered events interleave channel and publisher scopes:
	// 1=channel profile, 2=publisher post, 3=channel profile. Feed them
	// out of order (2, then 3, then 1) so a per-scope ordering counter
	// would see id 2 as "2 != 0+1" for the publisher scope and buffer it
	// forever; a single channel-wide counter must drain both once 1 lands.
	payload2 := eventFramePayload(2, wire.EventKind{IsPublisher: true, Publisher: publisher}, func(w *wire.Writer) {
		w.WriteU8(uint8(wire.PublisherPublishPost))
		w.WriteHash(contentHash)
	})
	var origin common.PublicKey
	require.NoError(t, proc.ApplyEvent(origin, payload2))

	payload3 := eventFramePayload(3, wire.EventKind{}, func(w *wire.Writer) {
		w.WriteU8(uint8(wire.ChannelUpdateProfile))
		msg2.Encode(w)
	})
	require.NoError(t, proc.ApplyEvent(origin, payload3))

	latest, _, err := ch.LatestEventID()
	require.NoError(t, err)
	require.Equal(t, uint64(0), latest, "both future events must stay buffered")

	payload1 := eventFramePayload(1, wire.EventKind{}, func(w *wire.Writer) {
		w.WriteU8(uint8(wire.ChannelUpdateProfile))
		msg1.Encode(w)
	})
	require.NoError(t, proc.ApplyEvent(origin, payload1))

	latest, _, err = ch.LatestEventID()
	require.NoError(t, err)
	require.Equal(t, uint64(3), latest, "publisher-scoped event 2 must not stall the channel-wide counter")

	stored, err := ch.FetchProfile()
	require.NoError(t, err)
	require.Equal(t, "v2", stored.Title)

	tl, ok, err := gw.GetTimeline(owner, publisher)
	require.NoError(t, err)
	require.True(t, ok)
	post, err := tl.LoadPost(0)
	require.NoError(t, err)
	require.NotNil(t, post)
	require.Equal(t, contentHash, post.ContentHash)
}

func TestApplyEventTooFarAheadIsMalformed(t *testing.T) {
	proc, _, _, _, priv := newTestProcessor(t)
	profile := wire.ChannelProfile{Base: wire.Profile{Revision: 1, Title: "x"}}
	msg := signedProfileEvent(priv, profile)

	payload := eventFramePayload(500, wire.EventKind{}, func(w *wire.Writer) {
		w.WriteU8(uint8(wire.ChannelUpdateProfile))
		msg.Encode(w)
	})

	var origin common.PublicKey
	err := proc.ApplyEvent(origin, payload)
	m, ok := common.IsMalformed(err)
	require.True(t, ok)
	require.Equal(t, common.InvalidEventId, m.Kind)
}

func TestApplyEventBadSignatureIsMalformed(t *testing.T) {
	proc, _, _, _, _ := newTestProcessor(t)

	otherPriv, err := btcec.NewPrivateKey(btcec.S256())
	require.NoError(t, err)
	profile := wire.ChannelProfile{Base: wire.Profile{Revision: 1, Title: "x"}}
	msg := signedProfileEvent(otherPriv, profile)

	payload := eventFramePayload(1, wire.EventKind{}, func(w *wire.Writer) {
		w.WriteU8(uint8(wire.ChannelUpdateProfile))
		msg.Encode(w)
	})

	var origin common.PublicKey
	err = proc.ApplyEvent(origin, payload)
	m, ok := common.IsMalformed(err)
	require.True(t, ok)
	require.Equal(t, common.InvalidSignature, m.Kind)
}

func TestApplyEventUnknownPublisherIsMalformed(t *testing.T) {
	proc, _, _, _, _ := newTestProcessor(t)

	var publisher common.PublicKey
	publisher[0] = 0x9
	payload := eventFramePayload(1, wire.EventKind{IsPublisher: true, Publisher: publisher}, func(w *wire.Writer) {
		w.WriteU8(uint8(wire.PublisherUpdateProfile))
		wire.Profile{Revision: 1, Title: "t"}.Encode(w)
	})

	var origin common.PublicKey
	err := proc.ApplyEvent(origin, payload)
	m, ok := common.IsMalformed(err)
	require.True(t, ok)
	require.Equal(t, common.UnknownPublisher, m.Kind)
}
