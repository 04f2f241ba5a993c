package wire

import "github.com/bamilab/quartznet/common"

// EventFrameHeader decodes the fixed prefix of an Event frame that follows
// the leading u8(=0) direction byte: u64 event_id | EventType. The
// direction byte itself is neither read nor written here (see
// DecodeDirection and EncodeEventFrame). The remaining bytes are the
// kind-specific payload, left undecoded for the event processor to
// dispatch on ChannelEventType/PublisherEventType.
type EventFrameHeader struct {
	EventID uint64
	Kind    EventKind
}

func DecodeEventFrameHeader(r *Reader) (EventFrameHeader, error) {
	id, err := r.ReadU64("event id")
	if err != nil {
		return EventFrameHeader{}, err
	}
	kind, err := DecodeEventKind(r)
	if err != nil {
		return EventFrameHeader{}, err
	}
	return EventFrameHeader{EventID: id, Kind: kind}, nil
}

func (h EventFrameHeader) Encode(w *Writer) {
	w.WriteU64(h.EventID)
	h.Kind.Encode(w)
}

// EncodeEventFrame builds a full wire frame (direction byte included) for
// an event whose kind header and inner payload bytes are already known;
// used when rebroadcasting a raw event unchanged and when emitting a
// freshly authored one.
func EncodeEventFrame(header EventFrameHeader, innerPayload []byte) []byte {
	w := NewWriter()
	w.WriteU8(uint8(DirectionEvent))
	header.Encode(w)
	w.WriteRaw(innerPayload)
	return w.Bytes()
}

// RequestFrameHeader decodes the fixed prefix of a Request frame:
// u32 request_id | u8 request_type.
type RequestFrameHeader struct {
	RequestID uint32
	Type      RequestType
}

func DecodeRequestFrameHeader(r *Reader) (RequestFrameHeader, error) {
	id, err := r.ReadU32("request id")
	if err != nil {
		return RequestFrameHeader{}, err
	}
	typByte, err := r.ReadU8("request type")
	if err != nil {
		return RequestFrameHeader{}, err
	}
	typ, err := ParseRequestType(typByte)
	if err != nil {
		return RequestFrameHeader{}, err
	}
	return RequestFrameHeader{RequestID: id, Type: typ}, nil
}

func EncodeRequestFrame(requestID uint32, typ RequestType, payload []byte) []byte {
	w := NewWriter()
	w.WriteU8(uint8(DirectionRequest))
	w.WriteU32(requestID)
	w.WriteU8(uint8(typ))
	w.WriteRaw(payload)
	return w.Bytes()
}

// ResponseFrameHeader decodes the fixed prefix of a Response frame:
// u32 request_id | u8 result_type.
type ResponseFrameHeader struct {
	RequestID uint32
	Result    ResponseResultType
}

func DecodeResponseFrameHeader(r *Reader) (ResponseFrameHeader, error) {
	id, err := r.ReadU32("response request id")
	if err != nil {
		return ResponseFrameHeader{}, err
	}
	resByte, err := r.ReadU8("response result type")
	if err != nil {
		return ResponseFrameHeader{}, err
	}
	res, err := ParseResponseResultType(resByte)
	if err != nil {
		return ResponseFrameHeader{}, err
	}
	return ResponseFrameHeader{RequestID: id, Result: res}, nil
}

func EncodeResponseFrame(requestID uint32, result ResponseResultType, payload []byte) []byte {
	w := NewWriter()
	w.WriteU8(uint8(DirectionResponse))
	w.WriteU32(requestID)
	w.WriteU8(uint8(result))
	w.WriteRaw(payload)
	return w.Bytes()
}

// DecodeDirection reads only the leading direction byte of a frame,
// without consuming the rest, matching the original implementation's
// message[0] dispatch in swarm.rs process_message.
func DecodeDirection(frame []byte) (MessageDirectionType, []byte, error) {
	if len(frame) < 1 {
		return 0, nil, common.Malformed(common.MissingData, "direction type")
	}
	dir, err := ParseMessageDirectionType(frame[0])
	if err != nil {
		return 0, nil, err
	}
	return dir, frame[1:], nil
}
