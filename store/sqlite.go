/**
 * Copyright 2025-present Coinbase Global, Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package store

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

const schema = `
CREATE TABLE IF NOT EXISTS messages (
	session_key TEXT NOT NULL,
	seq_num     INTEGER NOT NULL,
	raw         BLOB NOT NULL,
	PRIMARY KEY (session_key, seq_num)
);
CREATE TABLE IF NOT EXISTS cursors (
	session_key TEXT PRIMARY KEY,
	next_sender INTEGER NOT NULL,
	next_target INTEGER NOT NULL
);
`

const (
	upsertMessageQuery = `INSERT INTO messages (session_key, seq_num, raw) VALUES (?, ?, ?)
		ON CONFLICT(session_key, seq_num) DO UPDATE SET raw = excluded.raw`
	selectMessagesQuery = `SELECT seq_num, raw FROM messages
		WHERE session_key = ? AND seq_num BETWEEN ? AND ? ORDER BY seq_num ASC`
	deleteMessagesQuery = `DELETE FROM messages WHERE session_key = ?`
	upsertCursorsQuery  = `INSERT INTO cursors (session_key, next_sender, next_target) VALUES (?, ?, ?)
		ON CONFLICT(session_key) DO UPDATE SET next_sender = excluded.next_sender, next_target = excluded.next_target`
	selectCursorsQuery = `SELECT next_sender, next_target FROM cursors WHERE session_key = ?`
)

// SQLiteMessageStore persists outbound messages and sequence-number
// cursors for one session key, backed by database/sql over
// github.com/mattn/go-sqlite3. Prepared statements are initialized once at
// construction and reused, the same pattern MarketDataDb uses for its
// batch insert paths.
type SQLiteMessageStore struct {
	db         *sql.DB
	sessionKey string

	stmtSetMessage    *sql.Stmt
	stmtGetMessages   *sql.Stmt
	stmtDeleteMessages *sql.Stmt
	stmtSetCursors    *sql.Stmt
	stmtGetCursors    *sql.Stmt

	nextSend int
	nextRecv int
}

// NewSQLiteMessageStore opens (creating if absent) a SQLite database at
// dbPath and returns a store scoped to sessionKey, with cursors
// initialized to 1 if no prior state exists.
func NewSQLiteMessageStore(dbPath, sessionKey string) (*SQLiteMessageStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_synchronous=NORMAL")
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", dbPath, err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("store: init schema: %w", err)
	}

	s := &SQLiteMessageStore{db: db, sessionKey: sessionKey}
	if s.stmtSetMessage, err = db.Prepare(upsertMessageQuery); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("store: prepare set message: %w", err)
	}
	if s.stmtGetMessages, err = db.Prepare(selectMessagesQuery); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("store: prepare get messages: %w", err)
	}
	if s.stmtDeleteMessages, err = db.Prepare(deleteMessagesQuery); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("store: prepare delete messages: %w", err)
	}
	if s.stmtSetCursors, err = db.Prepare(upsertCursorsQuery); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("store: prepare set cursors: %w", err)
	}
	if s.stmtGetCursors, err = db.Prepare(selectCursorsQuery); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("store: prepare get cursors: %w", err)
	}

	if err := s.Refresh(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// Close releases the prepared statements and the underlying connection.
func (s *SQLiteMessageStore) Close() error {
	_ = s.stmtSetMessage.Close()
	_ = s.stmtGetMessages.Close()
	_ = s.stmtDeleteMessages.Close()
	_ = s.stmtSetCursors.Close()
	_ = s.stmtGetCursors.Close()
	return s.db.Close()
}

func (s *SQLiteMessageStore) SetMessage(seqNum int, raw []byte) error {
	_, err := s.stmtSetMessage.Exec(s.sessionKey, seqNum, raw)
	return err
}

func (s *SQLiteMessageStore) GetMessages(begin, end int) ([]StoredMessage, error) {
	rows, err := s.stmtGetMessages.Query(s.sessionKey, begin, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []StoredMessage
	for rows.Next() {
		var m StoredMessage
		if err := rows.Scan(&m.SeqNum, &m.Raw); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (s *SQLiteMessageStore) persistCursors() error {
	_, err := s.stmtSetCursors.Exec(s.sessionKey, s.nextSend, s.nextRecv)
	return err
}

func (s *SQLiteMessageStore) NextSenderMsgSeqNum() (int, error) { return s.nextSend, nil }
func (s *SQLiteMessageStore) NextTargetMsgSeqNum() (int, error) { return s.nextRecv, nil }

func (s *SQLiteMessageStore) SetNextSenderMsgSeqNum(n int) error {
	s.nextSend = n
	return s.persistCursors()
}

func (s *SQLiteMessageStore) SetNextTargetMsgSeqNum(n int) error {
	s.nextRecv = n
	return s.persistCursors()
}

func (s *SQLiteMessageStore) IncrNextSenderMsgSeqNum() error {
	s.nextSend++
	return s.persistCursors()
}

func (s *SQLiteMessageStore) IncrNextTargetMsgSeqNum() error {
	s.nextRecv++
	return s.persistCursors()
}

func (s *SQLiteMessageStore) Reset() error {
	if _, err := s.stmtDeleteMessages.Exec(s.sessionKey); err != nil {
		return err
	}
	s.nextSend = 1
	s.nextRecv = 1
	return s.persistCursors()
}

func (s *SQLiteMessageStore) Refresh() error {
	row := s.stmtGetCursors.QueryRow(s.sessionKey)
	var nextSend, nextRecv int
	switch err := row.Scan(&nextSend, &nextRecv); err {
	case nil:
		s.nextSend, s.nextRecv = nextSend, nextRecv
		return nil
	case sql.ErrNoRows:
		s.nextSend, s.nextRecv = 1, 1
		return s.persistCursors()
	default:
		return err
	}
}
