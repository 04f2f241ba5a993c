// Package reqresp implements the Request/Response handlers a socket
// receive loop dispatches to once a frame's leading RequestType byte is
// known (spec.md §4.7), grounded on original_source/src/swarm.rs's
// process_request family.
package reqresp

import (
	"github.com/bamilab/quartznet/common"
	"github.com/bamilab/quartznet/internal/log"
	"github.com/bamilab/quartznet/model"
	"github.com/bamilab/quartznet/persistence"
	"github.com/bamilab/quartznet/wire"
)

// Handlers answers Request frames against one channel's persisted state.
type Handlers struct {
	gw      *persistence.Gateway
	channel common.PublicKey
	search  *SearchIndex
	log     log.Logger
}

func New(gw *persistence.Gateway, channel common.PublicKey, search *SearchIndex) *Handlers {
	return &Handlers{gw: gw, channel: channel, search: search, log: log.New("component", "reqresp", "channel", channel.String())}
}

// Handle decodes a Request frame's payload and returns the result type and
// response payload to send back, or ok=false when the request type has no
// response (Files/Blocks, reserved).
func (h *Handlers) Handle(payload []byte) (result wire.ResponseResultType, response []byte, ok bool, err error) {
	r := wire.NewReader(payload)
	header, err := wire.DecodeRequestFrameHeader(r)
	if err != nil {
		return 0, nil, false, err
	}

	switch header.Type {
	case wire.RequestPosts:
		result, response, err := h.handlePosts(r)
		return result, response, true, err
	case wire.RequestSearch:
		result, response, err := h.handleSearch(r)
		return result, response, true, err
	case wire.RequestFiles:
		h.log.Debug("files request not supported yet")
		return 0, nil, false, nil
	case wire.RequestBlocks:
		h.log.Debug("blocks request not supported yet")
		return 0, nil, false, nil
	default:
		return 0, nil, false, common.Malformed(common.InvalidTypeId, "request type")
	}
}

func (h *Handlers) handlePosts(r *wire.Reader) (wire.ResponseResultType, []byte, error) {
	req, err := wire.DecodePostsRequest(r)
	if err != nil {
		return 0, nil, err
	}

	tl, ok, err := h.gw.GetTimeline(h.channel, req.PublisherKey)
	if err != nil {
		return 0, nil, err
	}
	if !ok {
		return 0, nil, common.Malformed(common.UnknownPublisher, req.PublisherKey.String())
	}

	foundMask := make([]byte, len(req.PresentMask))
	posts, err := tl.ListPosts(req.PostIDStart, req.PostIDCount)
	if err != nil {
		return 0, nil, err
	}

	var found []wire.Post
	for i, p := range posts {
		if p == nil {
			continue
		}
		wire.SetBit(foundMask, uint16(i))
		found = append(found, toWirePost(*p))
	}

	resp := wire.PostsResponse{FoundMask: foundMask, Posts: found}
	w := wire.NewWriter()
	resp.Encode(w)
	return wire.ResultSuccess, w.Bytes(), nil
}

func (h *Handlers) handleSearch(r *wire.Reader) (wire.ResponseResultType, []byte, error) {
	req, err := wire.DecodeSearchRequest(r)
	if err != nil {
		return 0, nil, err
	}

	var matched []wire.Post
	for _, ref := range h.search.Match(req.Keywords) {
		tl, ok, err := h.gw.GetTimeline(h.channel, ref.Publisher)
		if err != nil {
			return 0, nil, err
		}
		if !ok {
			continue
		}
		p, err := tl.LoadPost(ref.PostID)
		if err != nil {
			return 0, nil, err
		}
		if p != nil {
			matched = append(matched, toWirePost(*p))
		}
	}

	resp := wire.SearchResponse{Posts: matched}
	w := wire.NewWriter()
	resp.Encode(w)
	return wire.ResultSuccess, w.Bytes(), nil
}

func toWirePost(p model.Post) wire.Post {
	return wire.Post{
		PostID:    p.PostID,
		Hash:      p.Hash,
		Signature: p.Signature,
		Meta: wire.PostMeta{
			Info:          wire.PostInfo{PublishTimestamp: p.PublishedAt, Tags: p.Tags},
			ContentHash:   p.ContentHash,
			AttachmentIDs: p.AttachmentIDs,
		},
	}
}
