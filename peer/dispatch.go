package peer

import (
	"github.com/bamilab/quartznet/common"
)

// Dispatcher is implemented by the Node: it routes a decoded frame to the
// event processor, the request/response handlers, or the session manager,
// and reports back whether the frame was benevolent. A non-nil
// *common.MalformedError return causes the loop to ban the peer and close
// the socket; any other non-nil error is treated as Persistence/Internal
// per spec.md §7 and propagates to the Loop's caller.
type Dispatcher interface {
	// HandleEvent processes an Event frame's payload (everything after the
	// direction byte) and is responsible for rebroadcasting it, excluding
	// origin, once validation succeeds.
	HandleEvent(origin common.PublicKey, payload []byte) error
	// HandleRequest processes a Request frame's payload and sends the
	// Response frame back through respond itself.
	HandleRequest(origin common.PublicKey, payload []byte, respond func(frame []byte) error) error
	// HandleResponse delivers a Response frame's payload to the session
	// manager.
	HandleResponse(payload []byte) error
}
