package persistence

import (
	"database/sql"

	"github.com/bamilab/quartznet/common"
)

// storeRawEvent buffers the raw bytes of an out-of-order event under
// (scope, eventID) for later promotion, shared by both channel- and
// timeline-scoped events.
func (g *Gateway) storeRawEvent(scope string, eventID uint64, raw []byte) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, err := g.db.Exec(
		`INSERT INTO events(scope_pk, event_id, raw) VALUES (?, ?, ?)
			ON CONFLICT(scope_pk, event_id) DO UPDATE SET raw = excluded.raw`,
		scope, eventID, raw,
	)
	return common.Persistence(err)
}

// takeRawEvent returns and deletes the raw bytes buffered for
// (scope, eventID), if present.
func (g *Gateway) takeRawEvent(scope string, eventID uint64) ([]byte, bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	var raw []byte
	err := g.db.QueryRow(`SELECT raw FROM events WHERE scope_pk=? AND event_id=?`, scope, eventID).Scan(&raw)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, common.Persistence(err)
	}
	if _, err := g.db.Exec(`DELETE FROM events WHERE scope_pk=? AND event_id=?`, scope, eventID); err != nil {
		return nil, false, common.Persistence(err)
	}
	return raw, true, nil
}
