package eventproc

import (
	"sync"

	"github.com/bamilab/quartznet/common"
	"github.com/bamilab/quartznet/cryptoutil"
	"github.com/bamilab/quartznet/internal/log"
	"github.com/bamilab/quartznet/model"
	"github.com/bamilab/quartznet/persistence"
	"github.com/bamilab/quartznet/wire"
)

// Broadcaster relays an already-framed Event message to every other
// socket of the swarm (parent and children), excluding the one the event
// arrived on.
type Broadcaster interface {
	Rebroadcast(origin common.PublicKey, frame []byte)
}

// Processor applies the event stream for exactly one channel's swarm,
// mirroring original_source/src/swarm.rs's NodeInner.latest_event_id plus
// its process_event* family. One Processor is created per Node.
//
// The ordering counter is channel-wide, not per-scope: original_source's
// swarm.rs keeps exactly one latest_event_id (a single Mutex<u64>) shared
// by every event regardless of whether it is a Channel or Publisher event,
// and events are numbered from one global, interleaved sequence. mu
// guards that single counter end to end, matching the original's single
// global lock; only the future-event buffer storage is split by
// destination (channel row vs. each publisher's timeline row).
type Processor struct {
	gw      *persistence.Gateway
	channel persistence.ChannelHandle
	owner   common.PublicKey

	mu sync.Mutex

	buffer      *seenBuffer
	broadcaster Broadcaster
	log         log.Logger
}

func New(gw *persistence.Gateway, channel persistence.ChannelHandle, broadcaster Broadcaster) *Processor {
	return &Processor{
		gw:          gw,
		channel:     channel,
		owner:       channel.LoadAddress(),
		buffer:      newSeenBuffer(),
		broadcaster: broadcaster,
		log:         log.New("component", "eventproc", "channel", channel.LoadAddress().String()),
	}
}

// ApplyEvent decodes and applies one Event frame's payload (everything
// after the leading direction byte), rebroadcasting it on success. This is
// the Go analogue of swarm.rs's process_event.
func (p *Processor) ApplyEvent(origin common.PublicKey, payload []byte) error {
	r := wire.NewReader(payload)
	header, err := wire.DecodeEventFrameHeader(r)
	if err != nil {
		return err
	}
	body := r.Rest()

	scope := "channel"
	if header.Kind.IsPublisher {
		scope = header.Kind.Publisher.String()
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	latest, _, err := p.latestID()
	if err != nil {
		return err
	}

	switch {
	case header.EventID == latest+1:
		if err := p.applyByKind(header.EventID, header.Kind, body); err != nil {
			return err
		}
		if err := p.setLatestID(header.EventID); err != nil {
			return err
		}
		if err := p.drainBuffered(); err != nil {
			return err
		}
	case header.EventID > latest+1:
		if header.EventID-latest > maxGap {
			return common.Malformed(common.InvalidEventId, "event id too far ahead")
		}
		if p.buffer.markIfNew(scope, header.EventID) {
			if err := p.storeBuffered(header.Kind, header.EventID, body); err != nil {
				return err
			}
		}
	default:
		// Stale or duplicate: already applied, nothing to do but still
		// rebroadcast below so late joiners converge.
	}

	frame := wire.EncodeEventFrame(header, body)
	p.broadcaster.Rebroadcast(origin, frame)
	return nil
}

// latestID and setLatestID read/persist the single channel-wide ordering
// counter. Every event, Channel- or Publisher-scoped alike, is numbered
// from this one sequence (original_source/src/swarm.rs: one
// latest_event_id: Mutex<u64> for the whole node, not one per publisher).
func (p *Processor) latestID() (uint64, bool, error) {
	return p.channel.LatestEventID()
}

func (p *Processor) setLatestID(id uint64) error {
	return p.channel.SetLatestEventID(id)
}

// storeBuffered buffers a not-yet-applicable event under its own
// destination (the channel's row, or the authoring publisher's timeline
// row) so the future-event buffer stays split by destination even though
// the counter that decides when to drain it is global.
func (p *Processor) storeBuffered(kind wire.EventKind, id uint64, body []byte) error {
	if kind.IsPublisher {
		tl, ok, err := p.gw.GetTimeline(p.owner, kind.Publisher)
		if err != nil {
			return err
		}
		if !ok {
			return common.Malformed(common.UnknownPublisher, kind.Publisher.String())
		}
		return tl.StoreEvent(id, body)
	}
	return p.channel.StoreEvent(id, body)
}

// takeBufferedAnyDestination looks for a buffered event numbered id across
// every destination this channel knows about (its own row, then each
// authorized publisher's timeline), since the next globally-ordered event
// id can land in any one of them.
func (p *Processor) takeBufferedAnyDestination(id uint64) (wire.EventKind, []byte, string, bool, error) {
	if body, ok, err := p.channel.TakeBufferedEvent(id); err != nil {
		return wire.EventKind{}, nil, "", false, err
	} else if ok {
		return wire.EventKind{}, body, "channel", true, nil
	}

	publishers, err := p.channel.Publishers()
	if err != nil {
		return wire.EventKind{}, nil, "", false, err
	}
	for _, pub := range publishers {
		tl, ok, err := p.gw.GetTimeline(p.owner, pub)
		if err != nil {
			return wire.EventKind{}, nil, "", false, err
		}
		if !ok {
			continue
		}
		body, ok, err := tl.TakeBufferedEvent(id)
		if err != nil {
			return wire.EventKind{}, nil, "", false, err
		}
		if ok {
			return wire.EventKind{IsPublisher: true, Publisher: pub}, body, pub.String(), true, nil
		}
	}
	return wire.EventKind{}, nil, "", false, nil
}

// drainBuffered re-applies every buffered event that is now contiguous,
// looping until the gap reopens (spec.md: "drain the future-event buffer
// in a loop after every successful apply"), probing every destination for
// each successive global id since draining is no longer scoped to the
// kind that was just applied.
func (p *Processor) drainBuffered() error {
	for {
		latest, _, err := p.latestID()
		if err != nil {
			return err
		}
		next := latest + 1

		kind, body, scope, ok, err := p.takeBufferedAnyDestination(next)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}

		p.buffer.forget(scope, next)
		if err := p.applyByKind(next, kind, body); err != nil {
			return err
		}
		if err := p.setLatestID(next); err != nil {
			return err
		}
	}
}

func (p *Processor) applyByKind(id uint64, kind wire.EventKind, body []byte) error {
	if kind.IsPublisher {
		return p.applyPublisherEvent(id, kind.Publisher, body)
	}
	return p.applyChannelEvent(id, body)
}

func (p *Processor) applyChannelEvent(id uint64, body []byte) error {
	r := wire.NewReader(body)
	typByte, err := r.ReadU8("channel event type")
	if err != nil {
		return err
	}
	typ, err := wire.ParseChannelEventType(typByte)
	if err != nil {
		return err
	}

	switch typ {
	case wire.ChannelCreate:
		return p.applyChannelCreate(id, r)
	case wire.ChannelUpdateProfile:
		return p.applyChannelUpdateProfile(r)
	case wire.ChannelUpdatePublisherList:
		return p.applyChannelUpdatePublisherList(r)
	default:
		return common.Malformed(common.InvalidTypeId, "channel event type")
	}
}

func (p *Processor) applyChannelCreate(id uint64, r *wire.Reader) error {
	if id != 1 {
		return common.Malformed(common.InvalidEventId, "channel create must be the first event")
	}
	data, err := wire.DecodeChannelCreateEventData(r)
	if err != nil {
		return err
	}
	p.log.Info("channel bootstrap observed", "public", data.Public, "requested_replication_time", data.RequestedReplicationTime)
	return nil
}

func (p *Processor) applyChannelUpdateProfile(r *wire.Reader) error {
	msg, err := wire.DecodeUpdateChannelProfileEventMessage(r)
	if err != nil {
		return err
	}

	w := wire.NewWriter()
	msg.Profile.Encode(w)
	if cryptoutil.Hash(w.Bytes()) != msg.Hash {
		return common.Malformed(common.InvalidHash, "channel profile update")
	}
	if !cryptoutil.Verify(msg.Signature, msg.Hash, p.owner) {
		return common.Malformed(common.InvalidSignature, "channel profile update")
	}

	current, err := p.channel.FetchProfile()
	if err != nil {
		return err
	}
	if current != nil && msg.Profile.Base.Revision <= current.Revision {
		return nil
	}
	if err := p.channel.StoreProfile(toModelChannelProfile(msg.Profile)); err != nil {
		return err
	}
	return nil
}

func (p *Processor) applyChannelUpdatePublisherList(r *wire.Reader) error {
	msg, err := wire.DecodeUpdatePublisherListEventMessage(r)
	if err != nil {
		return err
	}

	w := wire.NewWriter()
	w.WriteU16(uint16(len(msg.Publishers)))
	for _, pub := range msg.Publishers {
		w.WritePublicKey(pub)
	}
	if cryptoutil.Hash(w.Bytes()) != msg.Hash {
		return common.Malformed(common.InvalidHash, "publisher list update")
	}
	if !cryptoutil.Verify(msg.Signature, msg.Hash, p.owner) {
		return common.Malformed(common.InvalidSignature, "publisher list update")
	}

	if err := p.channel.StorePublishers(msg.Publishers); err != nil {
		return err
	}
	for _, pub := range msg.Publishers {
		if _, err := p.gw.EnsureTimeline(p.owner, pub); err != nil {
			return err
		}
	}
	return nil
}

func (p *Processor) applyPublisherEvent(id uint64, publisher common.PublicKey, body []byte) error {
	tl, ok, err := p.gw.GetTimeline(p.owner, publisher)
	if err != nil {
		return err
	}
	if !ok {
		return common.Malformed(common.UnknownPublisher, publisher.String())
	}

	r := wire.NewReader(body)
	typByte, err := r.ReadU8("publisher event type")
	if err != nil {
		return err
	}
	typ, err := wire.ParsePublisherEventType(typByte)
	if err != nil {
		return err
	}

	switch typ {
	case wire.PublisherUpdateProfile:
		return p.applyPublisherUpdateProfile(tl, r)
	case wire.PublisherPublishPost:
		return p.applyPublisherPublishPost(tl, id, r)
	case wire.PublisherRevisePost:
		return p.applyPublisherRevisePost(tl, r)
	case wire.PublisherForgetPost:
		return p.applyPublisherForgetPost(tl, r)
	default:
		return common.Malformed(common.InvalidTypeId, "publisher event type")
	}
}

func (p *Processor) applyPublisherUpdateProfile(tl persistence.TimelineHandle, r *wire.Reader) error {
	profile, err := wire.DecodeProfile(r)
	if err != nil {
		return err
	}
	current, err := tl.FetchProfile()
	if err != nil {
		return err
	}
	if current != nil && profile.Revision <= current.Revision {
		return nil
	}
	if err := tl.StoreProfile(toModelProfile(profile)); err != nil {
		return err
	}
	return nil
}

func (p *Processor) applyPublisherPublishPost(tl persistence.TimelineHandle, eventID uint64, r *wire.Reader) error {
	data, err := wire.DecodePublishPostEventData(r)
	if err != nil {
		return err
	}
	// The full PostMeta (signature, timestamp, tags) is fetched on demand via
	// a Posts request/response once announced; here we assign the next
	// gap-free post_id and persist a placeholder row carrying just the
	// content hash, so ListPosts reports the post instead of a hole and
	// RevisePost/ForgetPost have a row to reference by id.
	postID, err := tl.CreatePost(data.Hash, common.Signature{}, model.Post{ContentHash: data.Hash})
	if err != nil {
		return err
	}
	p.log.Debug("post announced", "publisher", tl.Publisher().String(), "post_id", postID, "content_hash", data.Hash.String())
	return nil
}

func (p *Processor) applyPublisherRevisePost(tl persistence.TimelineHandle, r *wire.Reader) error {
	data, err := wire.DecodeRevisePostEventData(r)
	if err != nil {
		return err
	}
	existing, err := tl.LoadPost(data.OldPostID)
	if err != nil {
		return err
	}
	if existing == nil {
		return common.Malformed(common.MissingData, "revise post: unknown old post id")
	}
	existing.ContentHash = data.NewHash
	if err := tl.StorePost(data.OldPostID, existing.Hash, existing.Signature, *existing); err != nil {
		return err
	}
	return nil
}

func (p *Processor) applyPublisherForgetPost(tl persistence.TimelineHandle, r *wire.Reader) error {
	data, err := wire.DecodeForgetPostEventData(r)
	if err != nil {
		return err
	}
	existing, err := tl.LoadPost(data.PostID)
	if err != nil {
		return err
	}
	if existing == nil {
		// Already forgotten or never stored locally; still benevolent.
		return nil
	}
	if err := p.gw.DeleteContent(existing.ContentHash, existing.AttachmentIDs); err != nil {
		return err
	}
	return nil
}
