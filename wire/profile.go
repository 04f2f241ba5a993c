package wire

import "github.com/bamilab/quartznet/common"

// ProfileDescriptionMaxLen bounds the description field; the codec
// itself does not enforce it (it is a policy check for callers), matching
// the original's treatment of the constant as descriptive, not wire-enforced.
const ProfileDescriptionMaxLen = 1024

// Profile is the channel- or publisher-level display metadata. Revision
// updates must be monotonic; the codec only encodes/decodes, it does not
// enforce that invariant (the event processor does).
type Profile struct {
	Revision       uint64
	Title          string
	Description    string
	ProfilePicture *common.Hash
}

func (p Profile) Encode(w *Writer) {
	w.WriteU64(p.Revision)
	w.WriteString8(p.Title)
	w.WriteString16(p.Description)
	w.WriteOptionHash(p.ProfilePicture)
}

func DecodeProfile(r *Reader) (Profile, error) {
	revision, err := r.ReadU64("profile revision")
	if err != nil {
		return Profile{}, err
	}
	title, err := r.ReadString8("profile title")
	if err != nil {
		return Profile{}, err
	}
	description, err := r.ReadString16("profile description")
	if err != nil {
		return Profile{}, err
	}
	picture, err := r.ReadOptionHash("profile picture")
	if err != nil {
		return Profile{}, err
	}
	return Profile{Revision: revision, Title: title, Description: description, ProfilePicture: picture}, nil
}

// ChannelProfile extends Profile with an optional stylesheet hash.
type ChannelProfile struct {
	Base       Profile
	Stylesheet *common.Hash
}

func (p ChannelProfile) Encode(w *Writer) {
	p.Base.Encode(w)
	w.WriteOptionHash(p.Stylesheet)
}

func DecodeChannelProfile(r *Reader) (ChannelProfile, error) {
	base, err := DecodeProfile(r)
	if err != nil {
		return ChannelProfile{}, err
	}
	stylesheet, err := r.ReadOptionHash("channel profile stylesheet")
	if err != nil {
		return ChannelProfile{}, err
	}
	return ChannelProfile{Base: base, Stylesheet: stylesheet}, nil
}
