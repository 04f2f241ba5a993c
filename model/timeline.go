package model

import "github.com/bamilab/quartznet/common"

// Timeline is a publisher's strictly increasing, gap-free sequence of
// posts, keyed by the channel that owns the publisher's authorization.
type Timeline struct {
	Channel      common.PublicKey
	Publisher    common.PublicKey
	Profile      *Profile
	NextPostID   uint64
}

// Post is the in-memory domain form of wire.Post, with locally stored body
// text kept alongside (wire.Post only ever carries hashes; the text lives
// in the block store keyed by ContentHash).
type Post struct {
	PostID        uint64
	Hash          common.Hash
	Signature     common.Signature
	PublishedAt   uint64
	Tags          []string
	ContentHash   common.Hash
	AttachmentIDs []common.Hash
}
