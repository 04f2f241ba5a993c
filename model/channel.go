// Package model holds the in-memory domain types that the persistence
// gateway and event processor operate on, as distinct from the wire
// encodings in package wire.
package model

import "github.com/bamilab/quartznet/common"

// Channel is identified by its owner's public key. CreationParams never
// change after the channel's bootstrap event; Profile updates monotonically
// on revision.
type Channel struct {
	Owner          common.PublicKey
	CreationParams CreationParams
	Profile        *Profile
	Publishers     []common.PublicKey
}

// CreationParams are fixed at the channel's bootstrap event and never
// change afterward (SPEC_FULL.md ChannelCreateEventData).
type CreationParams struct {
	Public                   bool
	RequestedReplicationTime uint32
}

// Profile is the in-memory form of wire.Profile plus an optional
// stylesheet hash when it is a channel's profile.
type Profile struct {
	Revision       uint64
	Title          string
	Description    string
	ProfilePicture *common.Hash
	Stylesheet     *common.Hash
}
