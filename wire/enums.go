package wire

import "github.com/bamilab/quartznet/common"

// MessageDirectionType is the leading byte of every framed peer message.
type MessageDirectionType uint8

const (
	DirectionEvent    MessageDirectionType = 0
	DirectionRequest  MessageDirectionType = 1
	DirectionResponse MessageDirectionType = 2
)

func ParseMessageDirectionType(b uint8) (MessageDirectionType, error) {
	switch MessageDirectionType(b) {
	case DirectionEvent, DirectionRequest, DirectionResponse:
		return MessageDirectionType(b), nil
	default:
		return 0, &common.MalformedError{Kind: common.InvalidTypeId, Field: "direction type"}
	}
}

// ChannelEventType discriminates the payload of a Channel-kind event.
// Create is a supplemented addition (see SPEC_FULL.md) modeling the
// bootstrap event that establishes a channel's immutable parameters.
type ChannelEventType uint8

const (
	ChannelUpdateProfile      ChannelEventType = 0
	ChannelUpdatePublisherList ChannelEventType = 1
	ChannelCreate             ChannelEventType = 2
)

func ParseChannelEventType(b uint8) (ChannelEventType, error) {
	switch ChannelEventType(b) {
	case ChannelUpdateProfile, ChannelUpdatePublisherList, ChannelCreate:
		return ChannelEventType(b), nil
	default:
		return 0, &common.MalformedError{Kind: common.InvalidTypeId, Field: "channel event type"}
	}
}

// PublisherEventType discriminates the payload of a Publisher-kind event.
type PublisherEventType uint8

const (
	PublisherUpdateProfile PublisherEventType = 0
	PublisherPublishPost   PublisherEventType = 1
	PublisherRevisePost    PublisherEventType = 2
	PublisherForgetPost    PublisherEventType = 3
)

func ParsePublisherEventType(b uint8) (PublisherEventType, error) {
	switch PublisherEventType(b) {
	case PublisherUpdateProfile, PublisherPublishPost, PublisherRevisePost, PublisherForgetPost:
		return PublisherEventType(b), nil
	default:
		return 0, &common.MalformedError{Kind: common.InvalidTypeId, Field: "publisher event type"}
	}
}

// RequestType discriminates a Request frame's payload. Search is a
// supplemented addition (see SPEC_FULL.md); the three original values
// retain their fixed wire positions.
type RequestType uint8

const (
	RequestPosts  RequestType = 0
	RequestFiles  RequestType = 1
	RequestBlocks RequestType = 2
	RequestSearch RequestType = 3
)

func ParseRequestType(b uint8) (RequestType, error) {
	switch RequestType(b) {
	case RequestPosts, RequestFiles, RequestBlocks, RequestSearch:
		return RequestType(b), nil
	default:
		return 0, &common.MalformedError{Kind: common.InvalidTypeId, Field: "request type"}
	}
}

// ResponseResultType discriminates a Response frame's payload.
type ResponseResultType uint8

const (
	ResultSuccess       ResponseResultType = 0
	ResultInternalError ResponseResultType = 1
)

func ParseResponseResultType(b uint8) (ResponseResultType, error) {
	switch ResponseResultType(b) {
	case ResultSuccess, ResultInternalError:
		return ResponseResultType(b), nil
	default:
		return 0, &common.MalformedError{Kind: common.InvalidTypeId, Field: "response result type"}
	}
}

// EventKind is the decoded form of the wire EventType discriminant: either
// the Channel kind or a Publisher kind carrying the publisher's address.
type EventKind struct {
	IsPublisher bool
	Publisher   common.PublicKey
}

func (e EventKind) Encode(w *Writer) {
	if !e.IsPublisher {
		w.WriteU8(0)
		return
	}
	w.WriteU8(1)
	w.WritePublicKey(e.Publisher)
}

func DecodeEventKind(r *Reader) (EventKind, error) {
	tag, err := r.ReadU8("event type")
	if err != nil {
		return EventKind{}, err
	}
	switch tag {
	case 0:
		return EventKind{}, nil
	case 1:
		pk, err := r.ReadPublicKey("event type publisher address")
		if err != nil {
			return EventKind{}, err
		}
		return EventKind{IsPublisher: true, Publisher: pk}, nil
	default:
		return EventKind{}, &common.MalformedError{Kind: common.InvalidTypeId, Field: "event type"}
	}
}
