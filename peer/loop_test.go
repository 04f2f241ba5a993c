package peer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bamilab/quartznet/common"
	"github.com/bamilab/quartznet/wire"
)

type fakeSocket struct {
	peer   common.PublicKey
	inbox  chan []byte
	sent   [][]byte
	closed bool
}

func newFakeSocket(peer common.PublicKey) *fakeSocket {
	return &fakeSocket{peer: peer, inbox: make(chan []byte, 16)}
}

func (s *fakeSocket) Peer() common.PublicKey { return s.peer }

func (s *fakeSocket) Send(ctx context.Context, frame []byte) error {
	s.sent = append(s.sent, frame)
	return nil
}

func (s *fakeSocket) Receive(ctx context.Context) ([]byte, bool, error) {
	frame, ok := <-s.inbox
	if !ok {
		return nil, false, nil
	}
	return frame, true, nil
}

func (s *fakeSocket) Close() error {
	s.closed = true
	return nil
}

type fakeDispatcher struct {
	events    [][]byte
	responses [][]byte
	failWith  error
}

func (d *fakeDispatcher) HandleEvent(origin common.PublicKey, payload []byte) error {
	if d.failWith != nil {
		return d.failWith
	}
	d.events = append(d.events, payload)
	return nil
}

func (d *fakeDispatcher) HandleRequest(origin common.PublicKey, payload []byte, respond func([]byte) error) error {
	return respond([]byte("pong"))
}

func (d *fakeDispatcher) HandleResponse(payload []byte) error {
	d.responses = append(d.responses, payload)
	return nil
}

func frameWithDirection(dir wire.MessageDirectionType, payload []byte) []byte {
	return append([]byte{byte(dir)}, payload...)
}

func TestLoopDispatchesEventThenTerminatesOnClose(t *testing.T) {
	var peerKey common.PublicKey
	peerKey[0] = 0x42
	sock := newFakeSocket(peerKey)
	dispatcher := &fakeDispatcher{}
	banned := NewBannedPeers()

	sock.inbox <- frameWithDirection(wire.DirectionEvent, []byte("hello"))
	close(sock.inbox)

	var badPeers []common.PublicKey
	Loop(context.Background(), sock, dispatcher, banned,
		func(p common.PublicKey) { badPeers = append(badPeers, p) },
		func(err error) {})

	require.Len(t, dispatcher.events, 1)
	require.Equal(t, []byte("hello"), dispatcher.events[0])
	require.Empty(t, badPeers)
	require.False(t, banned.IsBanned(peerKey))
}

func TestLoopBansPeerOnMalformedFrame(t *testing.T) {
	var peerKey common.PublicKey
	peerKey[0] = 0x7
	sock := newFakeSocket(peerKey)
	dispatcher := &fakeDispatcher{failWith: common.Malformed(common.InvalidSignature, "payload")}
	banned := NewBannedPeers()

	sock.inbox <- frameWithDirection(wire.DirectionEvent, []byte("bad"))

	var badPeers []common.PublicKey
	Loop(context.Background(), sock, dispatcher, banned,
		func(p common.PublicKey) { badPeers = append(badPeers, p) },
		func(err error) {})

	require.Len(t, badPeers, 1)
	require.Equal(t, peerKey, badPeers[0])
	require.True(t, banned.IsBanned(peerKey))
	require.True(t, sock.closed)
}

func TestLoopRespondsToRequest(t *testing.T) {
	var peerKey common.PublicKey
	peerKey[0] = 0x1
	sock := newFakeSocket(peerKey)
	dispatcher := &fakeDispatcher{}
	banned := NewBannedPeers()

	sock.inbox <- frameWithDirection(wire.DirectionRequest, []byte("ping"))
	close(sock.inbox)

	Loop(context.Background(), sock, dispatcher, banned, func(common.PublicKey) {}, func(error) {})

	require.Len(t, sock.sent, 1)
	require.Equal(t, []byte("pong"), sock.sent[0])
}

func TestLoopTerminatesOnUnknownDirectionByte(t *testing.T) {
	var peerKey common.PublicKey
	peerKey[0] = 0x9
	sock := newFakeSocket(peerKey)
	dispatcher := &fakeDispatcher{}
	banned := NewBannedPeers()

	sock.inbox <- []byte{0xFF, 0x00}

	Loop(context.Background(), sock, dispatcher, banned, func(common.PublicKey) {}, func(error) {})

	require.True(t, banned.IsBanned(peerKey))
}
