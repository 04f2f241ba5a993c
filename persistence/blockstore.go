package persistence

import (
	"database/sql"

	"github.com/syndtr/goleveldb/leveldb"

	"github.com/bamilab/quartznet/common"
)

// StoreBlock writes a content-addressed block. Blocks are deduplicated by
// hash within the store (a re-put of the same hash is a no-op write).
func (g *Gateway) StoreBlock(hash common.Hash, data []byte) error {
	return common.Persistence(g.blocks.Put(hash[:], data, nil))
}

// LoadBlock returns the bytes stored under hash, or nil if absent.
func (g *Gateway) LoadBlock(hash common.Hash) ([]byte, error) {
	data, err := g.blocks.Get(hash[:], nil)
	if err == leveldb.ErrNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, common.Persistence(err)
	}
	return data, nil
}

// StoreContent stores a post's body text, keyed by its content hash, and
// returns that hash.
func (g *Gateway) StoreContent(hash common.Hash, body string) (common.Hash, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, err := g.db.Exec(
		`INSERT INTO post_content(content_hash, body) VALUES (?, ?) ON CONFLICT(content_hash) DO NOTHING`,
		hash[:], body,
	)
	if err != nil {
		return common.Hash{}, common.Persistence(err)
	}
	return hash, nil
}

// LoadContent returns the body text stored under hash, or nil if absent.
func (g *Gateway) LoadContent(hash common.Hash) (*string, error) {
	var body string
	err := g.db.QueryRow(`SELECT body FROM post_content WHERE content_hash=?`, hash[:]).Scan(&body)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, common.Persistence(err)
	}
	return &body, nil
}

// DeleteContent forgets a post's stored body and every block referenced by
// attachmentIDs — the cooperative ForgetPost operation. A node MAY decline
// (its storage policy is its own) but the caller still rebroadcasts the
// ForgetPost event regardless of the outcome here.
func (g *Gateway) DeleteContent(contentHash common.Hash, attachmentIDs []common.Hash) error {
	g.mu.Lock()
	if _, err := g.db.Exec(`DELETE FROM post_content WHERE content_hash=?`, contentHash[:]); err != nil {
		g.mu.Unlock()
		return common.Persistence(err)
	}
	g.mu.Unlock()

	for _, id := range attachmentIDs {
		if err := g.blocks.Delete(id[:], nil); err != nil && err != leveldb.ErrNotFound {
			return common.Persistence(err)
		}
	}
	return nil
}
