package persistence

import (
	"database/sql"
	"encoding/hex"
	"strings"

	"github.com/bamilab/quartznet/common"
	"github.com/bamilab/quartznet/model"
)

// TimelineHandle is a clonable reference to one publisher's post sequence
// within one channel, mirroring original_source/src/persistence/timeline.rs.
type TimelineHandle struct {
	gw        *Gateway
	channel   common.PublicKey
	publisher common.PublicKey
}

// ListMyTimelines returns a handle for every timeline this node locally
// publishes to (i.e. for which it holds a private key), delegated to the
// caller to filter by key ownership; persistence only tracks the rows.
func (g *Gateway) ListMyTimelines() ([]TimelineHandle, error) {
	rows, err := g.db.Query(`SELECT channel_pk, publisher_pk FROM timelines`)
	if err != nil {
		return nil, common.Persistence(err)
	}
	defer rows.Close()

	var handles []TimelineHandle
	for rows.Next() {
		var ch, pub []byte
		if err := rows.Scan(&ch, &pub); err != nil {
			return nil, common.Persistence(err)
		}
		handles = append(handles, TimelineHandle{gw: g, channel: common.BytesToPublicKey(ch), publisher: common.BytesToPublicKey(pub)})
	}
	return handles, common.Persistence(rows.Err())
}

// GetTimeline returns the handle for a publisher within a channel, or
// ok=false if no timeline row exists for it (rows are created by
// EnsureTimeline, not here), collapsing concurrent duplicate lookups via
// singleflight.
func (g *Gateway) GetTimeline(channel, publisher common.PublicKey) (TimelineHandle, bool, error) {
	key := hex.EncodeToString(channel[:]) + ":" + hex.EncodeToString(publisher[:])
	v, err, _ := g.group.Do(key, func() (interface{}, error) {
		var exists int
		err := g.db.QueryRow(`SELECT 1 FROM timelines WHERE channel_pk=? AND publisher_pk=?`, channel[:], publisher[:]).Scan(&exists)
		if err == sql.ErrNoRows {
			return false, nil
		}
		if err != nil {
			return false, common.Persistence(err)
		}
		return true, nil
	})
	if err != nil {
		return TimelineHandle{}, false, err
	}
	if !v.(bool) {
		return TimelineHandle{}, false, nil
	}
	return TimelineHandle{gw: g, channel: channel, publisher: publisher}, true, nil
}

// EnsureTimeline creates the timeline row for publisher within channel if
// it does not already exist, used when UpdatePublisherList authorizes a
// new publisher.
func (g *Gateway) EnsureTimeline(channel, publisher common.PublicKey) (TimelineHandle, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, err := g.db.Exec(
		`INSERT INTO timelines(channel_pk, publisher_pk, next_post_id) VALUES (?, ?, 0)
			ON CONFLICT(channel_pk, publisher_pk) DO NOTHING`,
		channel[:], publisher[:],
	)
	if err != nil {
		return TimelineHandle{}, common.Persistence(err)
	}
	return TimelineHandle{gw: g, channel: channel, publisher: publisher}, nil
}

// StoreProfile overwrites the timeline's current profile row, identical in
// shape to ChannelHandle.StoreProfile but keyed by publisher address.
func (h TimelineHandle) StoreProfile(p model.Profile) error {
	h.gw.mu.Lock()
	defer h.gw.mu.Unlock()
	_, err := h.gw.db.Exec(
		`UPDATE timelines SET profile_revision=?, profile_title=?, profile_description=?, profile_picture=? WHERE channel_pk=? AND publisher_pk=?`,
		p.Revision, p.Title, p.Description, optionalHashBytes(p.ProfilePicture), h.channel[:], h.publisher[:],
	)
	return common.Persistence(err)
}

// FetchProfile returns the timeline's current profile, or nil if none has
// been stored yet.
func (h TimelineHandle) FetchProfile() (*model.Profile, error) {
	var revision sql.NullInt64
	var title, description sql.NullString
	var picture []byte
	err := h.gw.db.QueryRow(
		`SELECT profile_revision, profile_title, profile_description, profile_picture FROM timelines WHERE channel_pk=? AND publisher_pk=?`,
		h.channel[:], h.publisher[:],
	).Scan(&revision, &title, &description, &picture)
	if err == sql.ErrNoRows || !revision.Valid {
		return nil, nil
	}
	if err != nil {
		return nil, common.Persistence(err)
	}
	return &model.Profile{Revision: uint64(revision.Int64), Title: title.String, Description: description.String, ProfilePicture: bytesToOptionalHash(picture)}, nil
}

// CreatePost appends a new post at the timeline's next post_id, returning
// the assigned id. Content itself must already be stored via
// Gateway.StoreContent.
func (h TimelineHandle) CreatePost(hash common.Hash, sig common.Signature, meta model.Post) (uint64, error) {
	h.gw.mu.Lock()
	defer h.gw.mu.Unlock()

	var nextID uint64
	if err := h.gw.db.QueryRow(`SELECT next_post_id FROM timelines WHERE channel_pk=? AND publisher_pk=?`, h.channel[:], h.publisher[:]).Scan(&nextID); err != nil {
		return 0, common.Persistence(err)
	}

	tx, err := h.gw.db.Begin()
	if err != nil {
		return 0, common.Persistence(err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(
		`INSERT INTO posts(channel_pk, publisher_pk, post_id, hash, signature, published_at, content_hash, tags, attachment_ids) VALUES (?,?,?,?,?,?,?,?,?)`,
		h.channel[:], h.publisher[:], nextID, hash[:], sig[:], meta.PublishedAt, meta.ContentHash[:], encodeTags(meta.Tags), encodeHashes(meta.AttachmentIDs),
	); err != nil {
		return 0, common.Persistence(err)
	}
	if _, err := tx.Exec(`UPDATE timelines SET next_post_id=? WHERE channel_pk=? AND publisher_pk=?`, nextID+1, h.channel[:], h.publisher[:]); err != nil {
		return 0, common.Persistence(err)
	}
	if err := tx.Commit(); err != nil {
		return 0, common.Persistence(err)
	}
	return nextID, nil
}

// StorePost writes (or overwrites) a post at an explicit post_id, used
// when applying a RevisePost event to an existing post row; PublishPost
// events go through CreatePost instead.
func (h TimelineHandle) StorePost(postID uint64, hash common.Hash, sig common.Signature, meta model.Post) error {
	h.gw.mu.Lock()
	defer h.gw.mu.Unlock()
	_, err := h.gw.db.Exec(
		`INSERT INTO posts(channel_pk, publisher_pk, post_id, hash, signature, published_at, content_hash, tags, attachment_ids) VALUES (?,?,?,?,?,?,?,?,?)
			ON CONFLICT(channel_pk, publisher_pk, post_id) DO UPDATE SET hash=excluded.hash, signature=excluded.signature, published_at=excluded.published_at, content_hash=excluded.content_hash, tags=excluded.tags, attachment_ids=excluded.attachment_ids`,
		h.channel[:], h.publisher[:], postID, hash[:], sig[:], meta.PublishedAt, meta.ContentHash[:], encodeTags(meta.Tags), encodeHashes(meta.AttachmentIDs),
	)
	if err != nil {
		return common.Persistence(err)
	}
	_, err = h.gw.db.Exec(
		`UPDATE timelines SET next_post_id = MAX(next_post_id, ?) WHERE channel_pk=? AND publisher_pk=?`,
		postID+1, h.channel[:], h.publisher[:],
	)
	return common.Persistence(err)
}

// LoadPost returns the post at postID, or nil if it has not been stored.
func (h TimelineHandle) LoadPost(postID uint64) (*model.Post, error) {
	var hashRaw, sigRaw, contentRaw []byte
	var publishedAt uint64
	var tagsRaw, attachmentsRaw string
	err := h.gw.db.QueryRow(
		`SELECT hash, signature, published_at, content_hash, tags, attachment_ids FROM posts WHERE channel_pk=? AND publisher_pk=? AND post_id=?`,
		h.channel[:], h.publisher[:], postID,
	).Scan(&hashRaw, &sigRaw, &publishedAt, &contentRaw, &tagsRaw, &attachmentsRaw)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, common.Persistence(err)
	}
	var sig common.Signature
	copy(sig[:], sigRaw)
	return &model.Post{
		PostID:        postID,
		Hash:          common.BytesToHash(hashRaw),
		Signature:     sig,
		PublishedAt:   publishedAt,
		Tags:          decodeTags(tagsRaw),
		ContentHash:   common.BytesToHash(contentRaw),
		AttachmentIDs: decodeHashes(attachmentsRaw),
	}, nil
}

// ListPosts returns count posts starting at start, as a dense slice with a
// nil entry for every missing id, matching spec.md's "dense vector, None
// for missing" contract.
func (h TimelineHandle) ListPosts(start uint64, count uint16) ([]*model.Post, error) {
	out := make([]*model.Post, count)
	for i := uint16(0); i < count; i++ {
		p, err := h.LoadPost(start + uint64(i))
		if err != nil {
			return nil, err
		}
		out[i] = p
	}
	return out, nil
}

// StoreEvent buffers a raw, not-yet-applicable publisher-scoped event.
func (h TimelineHandle) StoreEvent(eventID uint64, raw []byte) error {
	return h.gw.storeRawEvent(eventScopeName(h.publisher), eventID, raw)
}

// TakeBufferedEvent returns and removes the raw bytes buffered for
// eventID, if any.
func (h TimelineHandle) TakeBufferedEvent(eventID uint64) ([]byte, bool, error) {
	return h.gw.takeRawEvent(eventScopeName(h.publisher), eventID)
}

func (h TimelineHandle) Publisher() common.PublicKey { return h.publisher }
func (h TimelineHandle) Channel() common.PublicKey   { return h.channel }

func encodeTags(tags []string) string    { return strings.Join(tags, "\x1f") }
func decodeTags(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, "\x1f")
}

func encodeHashes(hashes []common.Hash) string {
	parts := make([]string, len(hashes))
	for i, h := range hashes {
		parts[i] = hex.EncodeToString(h[:])
	}
	return strings.Join(parts, ",")
}

func decodeHashes(s string) []common.Hash {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]common.Hash, 0, len(parts))
	for _, p := range parts {
		b, err := hex.DecodeString(p)
		if err != nil {
			continue
		}
		out = append(out, common.BytesToHash(b))
	}
	return out
}
