package persistence

const schema = `
CREATE TABLE IF NOT EXISTS channels (
	owner_pk BLOB PRIMARY KEY,
	public INTEGER NOT NULL,
	requested_replication_time INTEGER NOT NULL,
	profile_revision INTEGER,
	profile_title TEXT,
	profile_description TEXT,
	profile_picture BLOB,
	profile_stylesheet BLOB
);

CREATE TABLE IF NOT EXISTS channel_publishers (
	channel_pk BLOB NOT NULL,
	publisher_pk BLOB NOT NULL,
	PRIMARY KEY (channel_pk, publisher_pk)
);

CREATE TABLE IF NOT EXISTS timelines (
	channel_pk BLOB NOT NULL,
	publisher_pk BLOB NOT NULL,
	profile_revision INTEGER,
	profile_title TEXT,
	profile_description TEXT,
	profile_picture BLOB,
	next_post_id INTEGER NOT NULL DEFAULT 0,
	PRIMARY KEY (channel_pk, publisher_pk)
);

CREATE TABLE IF NOT EXISTS posts (
	channel_pk BLOB NOT NULL,
	publisher_pk BLOB NOT NULL,
	post_id INTEGER NOT NULL,
	hash BLOB NOT NULL,
	signature BLOB NOT NULL,
	published_at INTEGER NOT NULL,
	content_hash BLOB NOT NULL,
	tags TEXT NOT NULL,
	attachment_ids TEXT NOT NULL,
	PRIMARY KEY (channel_pk, publisher_pk, post_id)
);

CREATE TABLE IF NOT EXISTS post_content (
	content_hash BLOB PRIMARY KEY,
	body TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS events (
	scope_pk BLOB NOT NULL,
	event_id INTEGER NOT NULL,
	raw BLOB NOT NULL,
	PRIMARY KEY (scope_pk, event_id)
);

CREATE TABLE IF NOT EXISTS latest_ids (
	name TEXT PRIMARY KEY,
	value INTEGER NOT NULL
);
`
