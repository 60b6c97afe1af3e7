// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package expiry

import (
	"database/sql"

	sqlite3 "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"

	"github.com/dposledger/ledger/ledger"
	"github.com/dposledger/ledger/staking/stake"
)

const (
	upsertEntryQuery = "INSERT INTO stake_expiry(stakeID, address, powerUp, redeemable, redeemAt, status) VALUES(?, ?, ?, ?, ?, ?) " +
		"ON CONFLICT(stakeID) DO UPDATE SET address = excluded.address, powerUp = excluded.powerUp, " +
		"redeemable = excluded.redeemable, redeemAt = excluded.redeemAt, status = excluded.status"
	removeEntryQuery = "DELETE FROM stake_expiry WHERE stakeID = ?"
	selectEntryQuery = "SELECT stakeID, address, powerUp, redeemable, redeemAt, status FROM stake_expiry ORDER BY stakeID"
	recordPollQuery  = "INSERT OR REPLACE INTO expiry_poll(height, timestamp) VALUES(?, ?)"
	deletePollQuery  = "DELETE FROM expiry_poll WHERE height = ?"
	lastPollQuery    = "SELECT height, timestamp FROM expiry_poll ORDER BY height DESC LIMIT 1"
)

// SQLiteStore keeps scheduler rows in a sqlite database.
type SQLiteStore struct {
	path          string
	db            *sql.DB
	stmts         *stmtCache
	driverVersion string
}

// NewSQLiteStore creates or opens the store at path.
func NewSQLiteStore(path string) (store *SQLiteStore, err error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	defer func() {
		if store == nil {
			db.Close()
		}
	}()
	// a single connection keeps ":memory:" databases shared
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(expirySchema); err != nil {
		return nil, errors.Wrap(err, "create expiry schema")
	}
	driverVer, _, _ := sqlite3.Version()
	return &SQLiteStore{
		path:          path,
		db:            db,
		stmts:         newStmtCache(db),
		driverVersion: driverVer,
	}, nil
}

// NewSQLiteMemStore creates a sqlite store in ram.
func NewSQLiteMemStore() (*SQLiteStore, error) {
	return NewSQLiteStore(":memory:")
}

// Path returns the database path.
func (s *SQLiteStore) Path() string {
	return s.path
}

// DriverVersion returns the sqlite library version.
func (s *SQLiteStore) DriverVersion() string {
	return s.driverVersion
}

func (s *SQLiteStore) exec(query string, args ...any) error {
	stmt, err := s.stmts.Prepare(query)
	if err != nil {
		return err
	}
	_, err = stmt.Exec(args...)
	return err
}

func (s *SQLiteStore) Upsert(e Entry) error {
	return s.exec(upsertEntryQuery,
		e.StakeID[:], e.Address[:],
		int64(e.PowerUp), int64(e.Redeemable), int64(e.RedeemAt),
		int(e.Status))
}

func (s *SQLiteStore) Remove(id ledger.TxID) error {
	return s.exec(removeEntryQuery, id[:])
}

func (s *SQLiteStore) Entries() ([]Entry, error) {
	stmt, err := s.stmts.Prepare(selectEntryQuery)
	if err != nil {
		return nil, err
	}
	rows, err := stmt.Query()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var (
			id, addr                      []byte
			powerUp, redeemable, redeemAt int64
			status                        int
		)
		if err := rows.Scan(&id, &addr, &powerUp, &redeemable, &redeemAt, &status); err != nil {
			return nil, err
		}
		var e Entry
		copy(e.StakeID[:], id)
		copy(e.Address[:], addr)
		e.PowerUp = uint64(powerUp)
		e.Redeemable = uint64(redeemable)
		e.RedeemAt = uint64(redeemAt)
		e.Status = stake.Status(status)
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) RecordPoll(p Poll) error {
	return s.exec(recordPollQuery, int64(p.Height), int64(p.Timestamp))
}

func (s *SQLiteStore) DeletePoll(height uint32) error {
	return s.exec(deletePollQuery, int64(height))
}

func (s *SQLiteStore) LastPoll() (Poll, bool, error) {
	stmt, err := s.stmts.Prepare(lastPollQuery)
	if err != nil {
		return Poll{}, false, err
	}
	var height, ts int64
	if err := stmt.QueryRow().Scan(&height, &ts); err != nil {
		if err == sql.ErrNoRows {
			return Poll{}, false, nil
		}
		return Poll{}, false, err
	}
	return Poll{uint32(height), uint64(ts)}, true, nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	s.stmts.Clear()
	return s.db.Close()
}
