package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"pnoti/internal/types"
	"time"

	"github.com/goccy/go-json"
	log "github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"
)

// RegistryStore keeps the registry in a single SQLite file, service IDs as a JSON array column.
type RegistryStore struct {
	db *sql.DB
}

// Open opens (or creates) the database at path and applies the schema.
func Open(ctx context.Context, path string) (*RegistryStore, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, types.Err(types.ErrStoreUnavailable, err, "open %s", path)
	}
	// One writer at a time; SQLite serialises writes anyway and this avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)
	if err := initSchema(ctx, db); err != nil {
		_ = db.Close()
		return nil, types.Err(types.ErrStoreUnavailable, err, "")
	}
	return &RegistryStore{db: db}, nil
}

func (s *RegistryStore) Close() error {
	return s.db.Close()
}

func (s *RegistryStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM pending_notifications`).Scan(&n); err != nil {
		return 0, types.Err(types.ErrStoreUnavailable, err, "sqlite count")
	}
	return n, nil
}

func (s *RegistryStore) ListDeviceIDs(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT device_id FROM pending_notifications ORDER BY device_id`)
	if err != nil {
		return nil, types.Err(types.ErrStoreUnavailable, err, "sqlite list")
	}
	defer func() {
		_ = rows.Close()
	}()
	ids := make([]string, 0)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, types.Err(types.ErrStoreError, err, "")
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, types.Err(types.ErrStoreUnavailable, err, "sqlite list")
	}
	return ids, nil
}

func (s *RegistryStore) GetServiceIDs(ctx context.Context, deviceID string) (types.ServiceSet, error) {
	var raw string
	err := s.db.QueryRowContext(ctx,
		`SELECT service_ids FROM pending_notifications WHERE device_id = ?`, deviceID,
	).Scan(&raw)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, types.ErrNotFound
		}
		return nil, types.Err(types.ErrStoreUnavailable, err, "sqlite get %s", deviceID)
	}
	var ids []string
	if err := json.Unmarshal([]byte(raw), &ids); err != nil {
		return nil, types.Err(types.ErrStoreError, err, "invalid service ids for %s", deviceID)
	}
	return types.NewServiceSet(ids...), nil
}

func (s *RegistryStore) Remove(ctx context.Context, deviceID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM pending_notifications WHERE device_id = ?`, deviceID)
	if err != nil {
		return types.Err(types.ErrStoreUnavailable, err, "sqlite delete %s", deviceID)
	}
	return nil
}

func (s *RegistryStore) Replace(ctx context.Context, deviceID string, serviceIDs types.ServiceSet) error {
	out, err := json.Marshal(serviceIDs.Sorted())
	if err != nil {
		return types.Err(types.ErrStoreError, err, "marshal service ids for %s", deviceID)
	}
	_, err = s.db.ExecContext(ctx, `
INSERT INTO pending_notifications (device_id, service_ids, updated_at)
VALUES (?, ?, ?)
ON CONFLICT(device_id) DO UPDATE SET
    service_ids = excluded.service_ids,
    updated_at  = excluded.updated_at`,
		deviceID, string(out), time.Now().Unix(),
	)
	if err != nil {
		return types.Err(types.ErrStoreUnavailable, err, "sqlite upsert %s", deviceID)
	}
	log.WithField("deviceId", deviceID).Debugf("sqlite: stored %s", out)
	return nil
}

func (s *RegistryStore) ClearAll(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM pending_notifications`)
	return err
}
