package wire

import "github.com/bamilab/quartznet/common"

// PostInfo carries the extra display information attached to a post.
type PostInfo struct {
	PublishTimestamp uint64
	Tags             []string
}

func (i PostInfo) Encode(w *Writer) {
	w.WriteU64(i.PublishTimestamp)
	w.WriteU16(uint16(len(i.Tags)))
	for _, t := range i.Tags {
		w.WriteString16(t)
	}
}

func DecodePostInfo(r *Reader) (PostInfo, error) {
	ts, err := r.ReadU64("post info publish timestamp")
	if err != nil {
		return PostInfo{}, err
	}
	n, err := r.ReadU16("post info tag count")
	if err != nil {
		return PostInfo{}, err
	}
	tags := make([]string, 0, n)
	for i := uint16(0); i < n; i++ {
		t, err := r.ReadString16("post info tag")
		if err != nil {
			return PostInfo{}, err
		}
		tags = append(tags, t)
	}
	return PostInfo{PublishTimestamp: ts, Tags: tags}, nil
}

// Attachment groups the block ids that make up one attached file, the
// supplemented type from original_source/src/post.rs.
type Attachment struct {
	BlockIDs []common.Hash
}

func (a Attachment) Encode(w *Writer) {
	w.WriteU32(uint32(len(a.BlockIDs)))
	for _, h := range a.BlockIDs {
		w.WriteHash(h)
	}
}

func DecodeAttachment(r *Reader) (Attachment, error) {
	n, err := r.ReadU32("attachment block count")
	if err != nil {
		return Attachment{}, err
	}
	ids := make([]common.Hash, 0, n)
	for i := uint32(0); i < n; i++ {
		h, err := r.ReadHash("attachment block id")
		if err != nil {
			return Attachment{}, err
		}
		ids = append(ids, h)
	}
	return Attachment{BlockIDs: ids}, nil
}

// PostMeta is the hashed envelope of a post: the content it references,
// its attachments, and display info. H(serialize(PostMeta)) == Post.Hash.
type PostMeta struct {
	Info          PostInfo
	ContentHash   common.Hash
	AttachmentIDs []common.Hash
}

func (m PostMeta) Encode(w *Writer) {
	m.Info.Encode(w)
	w.WriteHash(m.ContentHash)
	w.WriteU32(uint32(len(m.AttachmentIDs)))
	for _, h := range m.AttachmentIDs {
		w.WriteHash(h)
	}
}

func DecodePostMeta(r *Reader) (PostMeta, error) {
	info, err := DecodePostInfo(r)
	if err != nil {
		return PostMeta{}, err
	}
	contentHash, err := r.ReadHash("post meta content hash")
	if err != nil {
		return PostMeta{}, err
	}
	n, err := r.ReadU32("post meta attachment count")
	if err != nil {
		return PostMeta{}, err
	}
	ids := make([]common.Hash, 0, n)
	for i := uint32(0); i < n; i++ {
		h, err := r.ReadHash("post meta attachment id")
		if err != nil {
			return PostMeta{}, err
		}
		ids = append(ids, h)
	}
	return PostMeta{Info: info, ContentHash: contentHash, AttachmentIDs: ids}, nil
}

// Post is a publisher's timeline entry. PostID is assigned by the
// publisher's own timeline and must be gap-free starting at 0.
type Post struct {
	PostID    uint64
	Hash      common.Hash
	Signature common.Signature
	Meta      PostMeta
}

func (p Post) Encode(w *Writer) {
	w.WriteU64(p.PostID)
	w.WriteHash(p.Hash)
	w.WriteSignature(p.Signature)
	p.Meta.Encode(w)
}

func DecodePost(r *Reader) (Post, error) {
	id, err := r.ReadU64("post id")
	if err != nil {
		return Post{}, err
	}
	hash, err := r.ReadHash("post hash")
	if err != nil {
		return Post{}, err
	}
	sig, err := r.ReadSignature("post signature")
	if err != nil {
		return Post{}, err
	}
	meta, err := DecodePostMeta(r)
	if err != nil {
		return Post{}, err
	}
	return Post{PostID: id, Hash: hash, Signature: sig, Meta: meta}, nil
}
