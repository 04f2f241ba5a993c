package persistence

import (
	"database/sql"
	"encoding/hex"
	"strings"

	"github.com/bamilab/quartznet/common"
	"github.com/bamilab/quartznet/model"
)

// ChannelHandle is a clonable reference to one channel's rows, mirroring
// original_source/src/persistence/channel.rs's Handle.
type ChannelHandle struct {
	gw    *Gateway
	owner common.PublicKey
}

// CreateChannel inserts a new channel row. Returns common.ErrAlreadyExists
// if the owner key is already present.
func (g *Gateway) CreateChannel(owner common.PublicKey, params model.CreationParams) (ChannelHandle, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	_, err := g.db.Exec(
		`INSERT INTO channels(owner_pk, public, requested_replication_time) VALUES (?, ?, ?)`,
		owner[:], params.Public, params.RequestedReplicationTime,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ChannelHandle{}, common.ErrAlreadyExists
		}
		return ChannelHandle{}, common.Persistence(err)
	}
	if err := g.setLatestID(eventScopeName(owner), 0); err != nil {
		return ChannelHandle{}, err
	}
	return ChannelHandle{gw: g, owner: owner}, nil
}

// ListChannels returns a handle for every channel this node has persisted.
func (g *Gateway) ListChannels() ([]ChannelHandle, error) {
	rows, err := g.db.Query(`SELECT owner_pk FROM channels`)
	if err != nil {
		return nil, common.Persistence(err)
	}
	defer rows.Close()

	var handles []ChannelHandle
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, common.Persistence(err)
		}
		handles = append(handles, ChannelHandle{gw: g, owner: common.BytesToPublicKey(raw)})
	}
	return handles, common.Persistence(rows.Err())
}

// GetChannel returns the handle for owner, or ok=false if unknown.
func (g *Gateway) GetChannel(owner common.PublicKey) (ChannelHandle, bool, error) {
	var exists int
	err := g.db.QueryRow(`SELECT 1 FROM channels WHERE owner_pk = ?`, owner[:]).Scan(&exists)
	if err == sql.ErrNoRows {
		return ChannelHandle{}, false, nil
	}
	if err != nil {
		return ChannelHandle{}, false, common.Persistence(err)
	}
	return ChannelHandle{gw: g, owner: owner}, true, nil
}

// LoadAddress returns the channel owner's public key.
func (h ChannelHandle) LoadAddress() common.PublicKey { return h.owner }

// StoreProfile overwrites the channel's current profile row. Callers are
// responsible for the revision-monotonic check (the event processor does
// this before calling StoreProfile).
func (h ChannelHandle) StoreProfile(p model.Profile) error {
	h.gw.mu.Lock()
	defer h.gw.mu.Unlock()

	_, err := h.gw.db.Exec(
		`UPDATE channels SET profile_revision=?, profile_title=?, profile_description=?, profile_picture=?, profile_stylesheet=? WHERE owner_pk=?`,
		p.Revision, p.Title, p.Description, optionalHashBytes(p.ProfilePicture), optionalHashBytes(p.Stylesheet), h.owner[:],
	)
	return common.Persistence(err)
}

// FetchProfile returns the channel's current profile, or nil if none has
// been stored yet.
func (h ChannelHandle) FetchProfile() (*model.Profile, error) {
	var revision sql.NullInt64
	var title, description sql.NullString
	var picture, stylesheet []byte

	err := h.gw.db.QueryRow(
		`SELECT profile_revision, profile_title, profile_description, profile_picture, profile_stylesheet FROM channels WHERE owner_pk=?`,
		h.owner[:],
	).Scan(&revision, &title, &description, &picture, &stylesheet)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, common.Persistence(err)
	}
	if !revision.Valid {
		return nil, nil
	}
	return &model.Profile{
		Revision:       uint64(revision.Int64),
		Title:          title.String,
		Description:    description.String,
		ProfilePicture: bytesToOptionalHash(picture),
		Stylesheet:     bytesToOptionalHash(stylesheet),
	}, nil
}

// StorePublishers replaces the channel's persisted publisher set
// atomically.
func (h ChannelHandle) StorePublishers(publishers []common.PublicKey) error {
	h.gw.mu.Lock()
	defer h.gw.mu.Unlock()

	tx, err := h.gw.db.Begin()
	if err != nil {
		return common.Persistence(err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM channel_publishers WHERE channel_pk=?`, h.owner[:]); err != nil {
		return common.Persistence(err)
	}
	for _, p := range publishers {
		if _, err := tx.Exec(`INSERT INTO channel_publishers(channel_pk, publisher_pk) VALUES (?, ?)`, h.owner[:], p[:]); err != nil {
			return common.Persistence(err)
		}
	}
	return common.Persistence(tx.Commit())
}

// Publishers returns the channel's currently authorized publisher set.
func (h ChannelHandle) Publishers() ([]common.PublicKey, error) {
	rows, err := h.gw.db.Query(`SELECT publisher_pk FROM channel_publishers WHERE channel_pk=?`, h.owner[:])
	if err != nil {
		return nil, common.Persistence(err)
	}
	defer rows.Close()

	var out []common.PublicKey
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, common.Persistence(err)
		}
		out = append(out, common.BytesToPublicKey(raw))
	}
	return out, common.Persistence(rows.Err())
}

// StoreEvent buffers a raw, not-yet-applicable channel-scoped event under
// its event_id, for later promotion once the gap closes.
func (h ChannelHandle) StoreEvent(eventID uint64, raw []byte) error {
	return h.gw.storeRawEvent(eventScopeName(h.owner), eventID, raw)
}

// TakeBufferedEvent returns and removes the raw bytes buffered for
// eventID, if any.
func (h ChannelHandle) TakeBufferedEvent(eventID uint64) ([]byte, bool, error) {
	return h.gw.takeRawEvent(eventScopeName(h.owner), eventID)
}

// SetLatestEventID persists the channel's latest applied event_id.
func (h ChannelHandle) SetLatestEventID(id uint64) error {
	h.gw.mu.Lock()
	defer h.gw.mu.Unlock()
	return h.gw.setLatestID(eventScopeName(h.owner), id)
}

// LatestEventID returns the channel's persisted latest applied event_id.
func (h ChannelHandle) LatestEventID() (uint64, bool, error) {
	return h.gw.GetLatestID(eventScopeName(h.owner))
}

func eventScopeName(owner common.PublicKey) string {
	return "event:" + hex.EncodeToString(owner[:])
}

func optionalHashBytes(h *common.Hash) []byte {
	if h == nil {
		return nil
	}
	return h[:]
}

func bytesToOptionalHash(b []byte) *common.Hash {
	if len(b) == 0 {
		return nil
	}
	h := common.BytesToHash(b)
	return &h
}

func isUniqueViolation(err error) bool {
	// go-sqlite3 reports constraint violations with this substring; avoided
	// importing the driver's error type directly to keep this file
	// independent of the specific sqlite3 driver's error representation.
	return err != nil && (strings.Contains(err.Error(), "UNIQUE constraint failed") || strings.Contains(err.Error(), "PRIMARY KEY"))
}
