package sqlite

import (
	"context"
	"database/sql"
	"fmt"
)

// device_id is the primary key, which doubles as the lookup index for get/remove/replace and
// gives ORDER BY device_id in BINARY (byte) order.
const schema = `
CREATE TABLE IF NOT EXISTS pending_notifications (
    device_id   TEXT PRIMARY KEY,
    service_ids TEXT NOT NULL DEFAULT '[]',
    updated_at  INTEGER NOT NULL
);
`

func initSchema(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}
