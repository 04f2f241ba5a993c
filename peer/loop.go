package peer

import (
	"context"

	"github.com/bamilab/quartznet/common"
	"github.com/bamilab/quartznet/internal/log"
	"github.com/bamilab/quartznet/transport"
	"github.com/bamilab/quartznet/wire"
)

// OnBadPeer is invoked once a frame from a socket is found malformed,
// mirroring swarm.rs's on_bad_peer closure.
type OnBadPeer func(peer common.PublicKey)

// OnError is invoked for a transport failure that should not abort the
// loop (spec.md §7.2: "log, continue" for sends; here used for receive
// errors that are not a clean close, which do terminate the loop but
// still get reported before returning).
type OnError func(err error)

// Loop pumps one socket: decode, classify by MessageDirectionType, and
// hand off to the Dispatcher, until the socket reports a clean close or a
// malformed frame bans the peer (spec.md §4.5).
func Loop(ctx context.Context, sock transport.Socket, dispatcher Dispatcher, banned *BannedPeers, onBadPeer OnBadPeer, onError OnError) {
	peerAddr := sock.Peer()
	logger := log.New("component", "peer-loop", "peer", peerAddr.String())

	for {
		frame, ok, err := sock.Receive(ctx)
		if err != nil {
			onError(err)
			logger.Warn("receive failed, terminating loop", "err", err)
			return
		}
		if !ok {
			logger.Debug("peer closed socket, terminating loop")
			return
		}

		if err := dispatchFrame(frame, peerAddr, sock, dispatcher); err != nil {
			if m, isMalformed := common.IsMalformed(err); isMalformed {
				logger.Warn("malformed message received, banning peer", "reason", m.Error())
				banned.Ban(peerAddr)
				onBadPeer(peerAddr)
				sock.Close()
				return
			}
			// Persistence/Internal errors are not attributable to the
			// peer; Loop panics with them. Neither this package nor
			// package node recovers that panic, so it ends the process;
			// there is no tear-down-and-retry of the Node.
			panic(err)
		}
	}
}

func dispatchFrame(frame []byte, origin common.PublicKey, sock transport.Socket, dispatcher Dispatcher) error {
	direction, rest, err := wire.DecodeDirection(frame)
	if err != nil {
		return err
	}

	switch direction {
	case wire.DirectionEvent:
		return dispatcher.HandleEvent(origin, rest)
	case wire.DirectionRequest:
		return dispatcher.HandleRequest(origin, rest, func(respFrame []byte) error {
			return common.Transport(sock.Send(noTimeoutCtx(), respFrame))
		})
	case wire.DirectionResponse:
		return dispatcher.HandleResponse(rest)
	default:
		return common.Malformed(common.InvalidTypeId, "direction type")
	}
}

func noTimeoutCtx() context.Context { return context.Background() }
