package wire

import "github.com/bamilab/quartznet/common"

// ChannelCreateEventData is the bootstrap payload that must appear exactly
// once, at event_id 1, establishing the channel's immutable parameters
// (supplemented from original_source/src/event.rs ChannelCreateEventData).
type ChannelCreateEventData struct {
	Public                   bool
	RequestedReplicationTime uint32
}

func (d ChannelCreateEventData) Encode(w *Writer) {
	w.WriteBool(d.Public)
	w.WriteU32(d.RequestedReplicationTime)
}

func DecodeChannelCreateEventData(r *Reader) (ChannelCreateEventData, error) {
	public, err := r.ReadBool("channel create public")
	if err != nil {
		return ChannelCreateEventData{}, err
	}
	replication, err := r.ReadU32("channel create requested replication time")
	if err != nil {
		return ChannelCreateEventData{}, err
	}
	return ChannelCreateEventData{Public: public, RequestedReplicationTime: replication}, nil
}

// UpdateChannelProfileEventMessage is the signed envelope for a channel
// profile update: Hash must equal H(serialize(Profile)) and Signature must
// verify against the channel owner's key under the purpose tag.
type UpdateChannelProfileEventMessage struct {
	Hash      common.Hash
	Signature common.Signature
	Profile   ChannelProfile
}

func (m UpdateChannelProfileEventMessage) Encode(w *Writer) {
	w.WriteHash(m.Hash)
	w.WriteSignature(m.Signature)
	m.Profile.Encode(w)
}

func DecodeUpdateChannelProfileEventMessage(r *Reader) (UpdateChannelProfileEventMessage, error) {
	hash, err := r.ReadHash("update channel profile hash")
	if err != nil {
		return UpdateChannelProfileEventMessage{}, err
	}
	sig, err := r.ReadSignature("update channel profile signature")
	if err != nil {
		return UpdateChannelProfileEventMessage{}, err
	}
	profile, err := DecodeChannelProfile(r)
	if err != nil {
		return UpdateChannelProfileEventMessage{}, err
	}
	return UpdateChannelProfileEventMessage{Hash: hash, Signature: sig, Profile: profile}, nil
}

// UpdatePublisherListEventMessage replaces the channel's publisher set.
// SPEC_FULL.md tightens the original source (which left this unsigned) to
// require the same hash+signature envelope as a profile update.
type UpdatePublisherListEventMessage struct {
	Hash       common.Hash
	Signature  common.Signature
	Publishers []common.PublicKey
}

func (m UpdatePublisherListEventMessage) Encode(w *Writer) {
	w.WriteHash(m.Hash)
	w.WriteSignature(m.Signature)
	w.WriteU16(uint16(len(m.Publishers)))
	for _, p := range m.Publishers {
		w.WritePublicKey(p)
	}
}

func DecodeUpdatePublisherListEventMessage(r *Reader) (UpdatePublisherListEventMessage, error) {
	hash, err := r.ReadHash("update publisher list hash")
	if err != nil {
		return UpdatePublisherListEventMessage{}, err
	}
	sig, err := r.ReadSignature("update publisher list signature")
	if err != nil {
		return UpdatePublisherListEventMessage{}, err
	}
	n, err := r.ReadU16("update publisher list count")
	if err != nil {
		return UpdatePublisherListEventMessage{}, err
	}
	publishers := make([]common.PublicKey, 0, n)
	for i := uint16(0); i < n; i++ {
		pk, err := r.ReadPublicKey("update publisher list entry")
		if err != nil {
			return UpdatePublisherListEventMessage{}, err
		}
		publishers = append(publishers, pk)
	}
	return UpdatePublisherListEventMessage{Hash: hash, Signature: sig, Publishers: publishers}, nil
}

// PublishPostEventData announces a new post by the content hash of its
// blocks; the post itself is fetched on demand via a Posts request.
type PublishPostEventData struct {
	Hash common.Hash
}

func (d PublishPostEventData) Encode(w *Writer) { w.WriteHash(d.Hash) }

func DecodePublishPostEventData(r *Reader) (PublishPostEventData, error) {
	h, err := r.ReadHash("publish post hash")
	if err != nil {
		return PublishPostEventData{}, err
	}
	return PublishPostEventData{Hash: h}, nil
}

// RevisePostEventData links a replacement content hash to a previously
// published post id.
type RevisePostEventData struct {
	OldPostID uint64
	NewHash   common.Hash
}

func (d RevisePostEventData) Encode(w *Writer) {
	w.WriteU64(d.OldPostID)
	w.WriteHash(d.NewHash)
}

func DecodeRevisePostEventData(r *Reader) (RevisePostEventData, error) {
	old, err := r.ReadU64("revise post old post id")
	if err != nil {
		return RevisePostEventData{}, err
	}
	h, err := r.ReadHash("revise post new hash")
	if err != nil {
		return RevisePostEventData{}, err
	}
	return RevisePostEventData{OldPostID: old, NewHash: h}, nil
}

// ForgetPostEventData cooperatively asks peers to delete a post's content
// and blocks; a peer may refuse locally but must still rebroadcast.
type ForgetPostEventData struct {
	PostID uint64
}

func (d ForgetPostEventData) Encode(w *Writer) { w.WriteU64(d.PostID) }

func DecodeForgetPostEventData(r *Reader) (ForgetPostEventData, error) {
	id, err := r.ReadU64("forget post id")
	if err != nil {
		return ForgetPostEventData{}, err
	}
	return ForgetPostEventData{PostID: id}, nil
}
