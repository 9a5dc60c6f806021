// Package archive persists received chat messages to PostgreSQL.
//
// Decoded response frames are queued in a growable ring, batched, and
// inserted with ON CONFLICT DO NOTHING so a replayed message never
// produces a duplicate row. Expected table:
//
//	CREATE TABLE messages (
//	    message_id  UUID PRIMARY KEY,
//	    server_ts   BIGINT NOT NULL,  -- milliseconds since epoch
//	    received_at BIGINT NOT NULL,  -- microseconds since epoch, local clock
//	    sender      TEXT NOT NULL,
//	    body        TEXT NOT NULL
//	);
//
// The archive is optional: when disabled in config it is never started
// and no database connection is made.
package archive
