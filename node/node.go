// Package node is the swarm orchestrator (spec.md §4.8): it owns the
// parent socket, the bounded set of child sockets, the session manager,
// and the event processor for exactly one channel, and implements
// peer.Dispatcher to route inbound frames to the right component. Its
// connect/disconnect/accept lifecycle and shutdown bookkeeping follow the
// handler/peerSet/wg/quitSync shape of the teacher's probe/handler.go,
// generalized away from blockchain sync onto the content swarm.
package node

import (
	"context"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/bamilab/quartznet/common"
	"github.com/bamilab/quartznet/eventproc"
	"github.com/bamilab/quartznet/internal/log"
	"github.com/bamilab/quartznet/peer"
	"github.com/bamilab/quartznet/persistence"
	"github.com/bamilab/quartznet/reqresp"
	"github.com/bamilab/quartznet/session"
	"github.com/bamilab/quartznet/transport"
	"github.com/bamilab/quartznet/wire"
)

// Node is one peer's participation in a single channel's swarm.
type Node struct {
	gw         *persistence.Gateway
	channel    persistence.ChannelHandle
	transport  transport.Transport
	relayPower uint8

	parentAddr common.PublicKey
	parentSock transport.Socket

	childMu  sync.RWMutex
	children map[common.PublicKey]transport.Socket

	sessions      *session.Manager
	nextSessionID uint32

	processor *eventproc.Processor
	handlers  *reqresp.Handlers
	banned    *peer.BannedPeers
	known     *peer.KnownEvents

	sendLimiter *rate.Limiter

	group  *errgroup.Group
	cancel context.CancelFunc
	log    log.Logger
}

// Connect dials parentAddr, the swarm peer this node treats as its parent
// in the overlay tree, and starts its receive loop. relayPower bounds how
// many children this node will accept (2^relayPower), per spec.md §2.
func Connect(ctx context.Context, gw *persistence.Gateway, tr transport.Transport, channel persistence.ChannelHandle, parentAddr common.PublicKey, relayPower uint8, search *reqresp.SearchIndex) (*Node, error) {
	sock, err := tr.Connect(ctx, parentAddr, transport.OverlayPort())
	if err != nil {
		return nil, common.Transport(err)
	}
	return ConnectVia(ctx, gw, tr, channel, sock, parentAddr, relayPower, search)
}

// ConnectVia wires up a Node around an already-established parent socket,
// used by callers that located the parent themselves (e.g.
// FindSwarmConnection's cascade across cached peers, publishers and the
// channel owner) instead of dialing a single known address.
func ConnectVia(ctx context.Context, gw *persistence.Gateway, tr transport.Transport, channel persistence.ChannelHandle, sock transport.Socket, parentAddr common.PublicKey, relayPower uint8, search *reqresp.SearchIndex) (*Node, error) {
	ctx, cancel := context.WithCancel(ctx)
	group, gctx := errgroup.WithContext(ctx)

	n := &Node{
		gw:          gw,
		channel:     channel,
		transport:   tr,
		relayPower:  relayPower,
		parentAddr:  parentAddr,
		parentSock:  sock,
		children:    make(map[common.PublicKey]transport.Socket),
		sessions:    session.NewManager(),
		handlers:    reqresp.New(gw, channel.LoadAddress(), search),
		banned:      peer.NewBannedPeers(),
		known:       peer.NewKnownEvents(),
		sendLimiter: rate.NewLimiter(rate.Limit(1000), 1000),
		group:       group,
		cancel:      cancel,
		log:         log.New("component", "node", "channel", channel.LoadAddress().String()),
	}
	n.processor = eventproc.New(gw, channel, n)

	group.Go(func() error {
		peer.Loop(gctx, sock, n, n.banned,
			func(p common.PublicKey) { n.log.Warn("parent peer considered bad", "peer", p.String()) },
			func(err error) { n.log.Warn("error on parent socket", "err", err) })
		return nil
	})

	return n, nil
}

// AcceptChildren runs the accept loop for inbound child connections on
// listener until the node disconnects or the listener errs. Connections
// from banned peers are rejected immediately; connections beyond
// 2^relay_power are rejected to bound fan-out.
func (n *Node) AcceptChildren(ctx context.Context, listener transport.Listener) {
	n.group.Go(func() error {
		maxChildren := 1 << n.relayPower
		for {
			sock, err := listener.Accept(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return nil
				}
				n.log.Warn("accept failed", "err", err)
				continue
			}

			peerKey := sock.Peer()
			if n.banned.IsBanned(peerKey) {
				n.log.Debug("rejecting banned peer", "peer", peerKey.String())
				sock.Close()
				continue
			}

			n.childMu.Lock()
			if len(n.children) >= maxChildren {
				n.childMu.Unlock()
				n.log.Debug("rejecting child beyond relay power", "peer", peerKey.String())
				sock.Close()
				continue
			}
			n.children[peerKey] = sock
			n.childMu.Unlock()

			child := sock
			n.group.Go(func() error {
				peer.Loop(ctx, child, n, n.banned,
					func(p common.PublicKey) { n.log.Warn("child peer considered bad", "peer", p.String()) },
					func(err error) { n.log.Warn("error on child socket", "err", err) })
				n.childMu.Lock()
				delete(n.children, peerKey)
				n.childMu.Unlock()
				n.known.Forget(peerKey)
				return nil
			})
		}
	})
}

// Disconnect closes every socket and waits for all receive loops to exit.
func (n *Node) Disconnect() {
	n.cancel()
	if n.parentSock != nil {
		n.parentSock.Close()
	}
	n.childMu.Lock()
	for _, c := range n.children {
		c.Close()
	}
	n.childMu.Unlock()
	n.group.Wait()
}

// Rebroadcast implements eventproc.Broadcaster: relay the frame to the
// parent and every child socket except the one it arrived on, tolerating
// individual send failures (spec.md: "tries to give the message to
// everybody"). Peers already known to have this event_id (because we
// learned it from them, or already relayed it to them) are skipped,
// mirroring swarm.rs's per-peer known-event bookkeeping.
func (n *Node) Rebroadcast(origin common.PublicKey, frame []byte) {
	ctx := context.Background()
	if err := n.sendLimiter.Wait(ctx); err != nil {
		return
	}

	eventID, hasID := decodeEventID(frame)
	if hasID {
		n.known.Mark(origin, eventID)
	}

	send := func(key common.PublicKey, sock transport.Socket) {
		if key == origin {
			return
		}
		if hasID && n.known.Knows(key, eventID) {
			return
		}
		if err := sock.Send(ctx, frame); err != nil {
			n.log.Warn("failed to rebroadcast", "peer", key.String(), "err", err)
			return
		}
		if hasID {
			n.known.Mark(key, eventID)
		}
	}

	if n.parentSock != nil {
		send(n.parentSock.Peer(), n.parentSock)
	}

	n.childMu.RLock()
	defer n.childMu.RUnlock()
	for key, child := range n.children {
		send(key, child)
	}
}

// decodeEventID reads the event_id out of an already-framed Event message
// without disturbing the caller's copy, returning ok=false for any other
// frame kind.
func decodeEventID(frame []byte) (uint64, bool) {
	direction, rest, err := wire.DecodeDirection(frame)
	if err != nil || direction != wire.DirectionEvent {
		return 0, false
	}
	header, err := wire.DecodeEventFrameHeader(wire.NewReader(rest))
	if err != nil {
		return 0, false
	}
	return header.EventID, true
}

// HandleEvent implements peer.Dispatcher.
func (n *Node) HandleEvent(origin common.PublicKey, payload []byte) error {
	return n.processor.ApplyEvent(origin, payload)
}

// HandleRequest implements peer.Dispatcher.
func (n *Node) HandleRequest(origin common.PublicKey, payload []byte, respond func([]byte) error) error {
	r := wire.NewReader(payload)
	header, err := wire.DecodeRequestFrameHeader(r)
	if err != nil {
		return err
	}

	result, body, ok, err := n.handlers.Handle(payload)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}
	frame := wire.EncodeResponseFrame(header.RequestID, result, body)
	return respond(frame)
}

// HandleResponse implements peer.Dispatcher.
func (n *Node) HandleResponse(payload []byte) error {
	r := wire.NewReader(payload)
	sessionID, err := r.ReadU32("response session id")
	if err != nil {
		return err
	}
	n.sessions.Respond(sessionID, payload)
	return nil
}

// RequestPosts asks the parent for a range of a publisher's posts and
// blocks for the response, following the session-correlated request/
// response pattern of session_manager.rs.
func (n *Node) RequestPosts(ctx context.Context, publisher common.PublicKey, start uint64, count uint16) (wire.PostsResponse, bool, error) {
	sessionID := atomic.AddUint32(&n.nextSessionID, 1)

	req := wire.PostsRequest{PublisherKey: publisher, PostIDStart: start, PostIDCount: count, PresentMask: make([]byte, (count+7)/8)}
	w := wire.NewWriter()
	req.Encode(w)
	frame := wire.EncodeRequestFrame(sessionID, wire.RequestPosts, w.Bytes())

	if err := n.parentSock.Send(ctx, frame); err != nil {
		return wire.PostsResponse{}, false, common.Transport(err)
	}

	payload, ok := n.sessions.Request(sessionID)
	if !ok {
		return wire.PostsResponse{}, false, nil
	}

	r := wire.NewReader(payload)
	if _, err := r.ReadU32("response session id"); err != nil {
		return wire.PostsResponse{}, false, err
	}
	resultByte, err := r.ReadU8("response result type")
	if err != nil {
		return wire.PostsResponse{}, false, err
	}
	result, err := wire.ParseResponseResultType(resultByte)
	if err != nil {
		return wire.PostsResponse{}, false, err
	}
	if result != wire.ResultSuccess {
		return wire.PostsResponse{}, false, nil
	}

	resp, err := wire.DecodePostsResponse(r, len(req.PresentMask))
	if err != nil {
		return wire.PostsResponse{}, false, err
	}
	return resp, true, nil
}
