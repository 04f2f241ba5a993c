// Package transport defines the duplex-socket primitives the swarm node
// consumes from the underlying mesh (spec.md §1 treats the mesh itself as
// out of scope; this package supplies one concrete, testable
// implementation over WebSockets so the codec and event processor have
// something real to run against).
package transport

import (
	"context"

	"github.com/bamilab/quartznet/common"
)

// Sender is the send half of a duplex socket, split from Receiver so a
// long send cannot starve reception (spec.md §9 "Socket mutex separation").
type Sender interface {
	Send(ctx context.Context, frame []byte) error
	Close() error
}

// Receiver is the receive half of a duplex socket. Receive returns
// ok=false (with a nil error) when the peer has cleanly closed the
// connection — "no more messages" in spec.md §4.5 terms.
type Receiver interface {
	Receive(ctx context.Context) (frame []byte, ok bool, err error)
}

// Socket is a duplex connection to one peer, addressed by its public key.
type Socket interface {
	Sender
	Receiver
	Peer() common.PublicKey
}

// Listener accepts inbound child connections on the overlay port.
type Listener interface {
	Accept(ctx context.Context) (Socket, error)
	Close() error
}

// Transport is the mesh collaborator the Node orchestrator depends on:
// connect to a parent, or listen for children, both on the fixed overlay
// port (spec.md §4.8, §6).
type Transport interface {
	Connect(ctx context.Context, addr common.PublicKey, port uint16) (Socket, error)
	Listen(port uint16) (Listener, error)
}
