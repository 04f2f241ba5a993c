package node

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/btcsuite/btcd/btcec"
	"github.com/stretchr/testify/require"

	"github.com/bamilab/quartznet/common"
	"github.com/bamilab/quartznet/cryptoutil"
	"github.com/bamilab/quartznet/model"
	"github.com/bamilab/quartznet/persistence"
	"github.com/bamilab/quartznet/reqresp"
	"github.com/bamilab/quartznet/transport"
	"github.com/bamilab/quartznet/wire"
)

// fakeSocket is an in-memory duplex socket: Send appends to outbound,
// Receive reads from a test-controlled inbound channel.
type fakeSocket struct {
	peer    common.PublicKey
	inbound chan []byte
	sent    chan []byte
}

func newFakeSocket(peer common.PublicKey) *fakeSocket {
	return &fakeSocket{peer: peer, inbound: make(chan []byte, 16), sent: make(chan []byte, 16)}
}

func (s *fakeSocket) Peer() common.PublicKey { return s.peer }
func (s *fakeSocket) Send(ctx context.Context, frame []byte) error {
	s.sent <- frame
	return nil
}
func (s *fakeSocket) Receive(ctx context.Context) ([]byte, bool, error) {
	select {
	case f, ok := <-s.inbound:
		if !ok {
			return nil, false, nil
		}
		return f, true, nil
	case <-ctx.Done():
		return nil, false, nil
	}
}
func (s *fakeSocket) Close() error { return nil }

type fakeTransport struct {
	parentSocket *fakeSocket
}

func (t *fakeTransport) Connect(ctx context.Context, addr common.PublicKey, port uint16) (transport.Socket, error) {
	return t.parentSocket, nil
}
func (t *fakeTransport) Listen(port uint16) (transport.Listener, error) {
	return &fakeListener{ch: make(chan transport.Socket)}, nil
}

type fakeListener struct{ ch chan transport.Socket }

func (l *fakeListener) Accept(ctx context.Context) (transport.Socket, error) {
	select {
	case s := <-l.ch:
		return s, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
func (l *fakeListener) Close() error { return nil }

func setupNode(t *testing.T) (*Node, persistence.ChannelHandle, *fakeSocket, *btcec.PrivateKey) {
	t.Helper()
	dir := t.TempDir()
	gw, err := persistence.Open(filepath.Join(dir, "quartznet.db"), filepath.Join(dir, "blocks"))
	require.NoError(t, err)
	t.Cleanup(func() { gw.Close() })

	priv, err := btcec.NewPrivateKey(btcec.S256())
	require.NoError(t, err)
	var owner common.PublicKey
	copy(owner[:], priv.PubKey().SerializeCompressed())

	ch, err := gw.CreateChannel(owner, model.CreationParams{Public: true})
	require.NoError(t, err)

	var parentAddr common.PublicKey
	parentAddr[0] = 0xAA
	parentSock := newFakeSocket(parentAddr)
	tr := &fakeTransport{parentSocket: parentSock}

	n, err := Connect(context.Background(), gw, tr, ch, parentAddr, 2, reqresp.NewSearchIndex())
	require.NoError(t, err)
	t.Cleanup(n.Disconnect)

	return n, ch, parentSock, priv
}

func TestNodeAppliesEventFromParent(t *testing.T) {
	n, ch, parentSock, priv := setupNode(t)
	_ = n

	profile := wire.ChannelProfile{Base: wire.Profile{Revision: 1, Title: "hello swarm"}}
	w := wire.NewWriter()
	profile.Encode(w)
	hash := cryptoutil.Hash(w.Bytes())
	sig, err := cryptoutil.Sign(priv, hash)
	require.NoError(t, err)
	msg := wire.UpdateChannelProfileEventMessage{Hash: hash, Signature: sig, Profile: profile}

	header := wire.EventFrameHeader{EventID: 1, Kind: wire.EventKind{}}
	body := wire.NewWriter()
	body.WriteU8(uint8(wire.ChannelUpdateProfile))
	msg.Encode(body)
	frame := wire.EncodeEventFrame(header, body.Bytes())

	parentSock.inbound <- frame

	require.Eventually(t, func() bool {
		p, err := ch.FetchProfile()
		return err == nil && p != nil && p.Title == "hello swarm"
	}, time.Second, 10*time.Millisecond)
}
