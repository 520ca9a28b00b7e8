package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"cntBot/internal/domain"
)

// Store respalda en SQLite lo que no es la tabla de contadores: el diario de
// incrementos, los ajustes de runtime y las notificaciones de plataforma.
type Store struct {
	db *sql.DB
}

func NewStore(dbPath string) (*Store, error) {
	if dbPath == "" {
		return nil, fmt.Errorf("sqlite: empty db path")
	}

	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("sqlite: creating dir: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open: %w", err)
	}

	db.SetMaxOpenConns(1)

	if err := migrateJournal(db); err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

func migrateJournal(db *sql.DB) error {
	const incrementsTable = `
CREATE TABLE IF NOT EXISTS increments (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	counter TEXT NOT NULL,
	pattern TEXT,
	platform TEXT,
	channel_id TEXT,
	username TEXT,
	value INTEGER NOT NULL,
	created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_increments_counter ON increments(counter, created_at DESC);
CREATE INDEX IF NOT EXISTS idx_increments_created_at ON increments(created_at DESC);`

	if _, err := db.Exec(incrementsTable); err != nil {
		return fmt.Errorf("sqlite: migrate increments: %w", err)
	}

	const settingsTable = `
CREATE TABLE IF NOT EXISTS settings (
	key TEXT PRIMARY KEY,
	value TEXT,
	updated_at TIMESTAMP NOT NULL
);`

	if _, err := db.Exec(settingsTable); err != nil {
		return fmt.Errorf("sqlite: migrate settings: %w", err)
	}

	const notificationsTable = `
CREATE TABLE IF NOT EXISTS notifications (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	type TEXT NOT NULL,
	platform TEXT,
	username TEXT,
	message TEXT,
	metadata TEXT,
	created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_notifications_created_at ON notifications(created_at DESC);`

	if _, err := db.Exec(notificationsTable); err != nil {
		return fmt.Errorf("sqlite: migrate notifications: %w", err)
	}

	return nil
}

func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// ----- Diario de incrementos -----

// RecordIncrements inserta el lote de un mensaje en una sola transacción.
func (s *Store) RecordIncrements(ctx context.Context, records []domain.IncrementRecord) error {
	if s.db == nil {
		return fmt.Errorf("sqlite: db no inicializada")
	}
	if len(records) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: begin increments: %w", err)
	}

	const stmt = `
INSERT INTO increments (counter, pattern, platform, channel_id, username, value, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?);
`

	for _, record := range records {
		createdAt := record.CreatedAt
		if createdAt.IsZero() {
			createdAt = time.Now().UTC()
		}
		if _, err := tx.ExecContext(
			ctx,
			stmt,
			record.Counter,
			record.Pattern,
			string(record.Platform),
			record.ChannelID,
			record.Username,
			record.Value,
			createdAt,
		); err != nil {
			tx.Rollback()
			return fmt.Errorf("sqlite: insert increment: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: commit increments: %w", err)
	}

	return nil
}

// TopCounters agrega menciones por contador desde la fecha dada, de más a
// menos activo; los empates salen por nombre.
func (s *Store) TopCounters(ctx context.Context, since time.Time, limit int) ([]domain.CounterActivity, error) {
	if limit <= 0 {
		limit = 5
	}

	const query = `
SELECT counter, COUNT(*) AS hits
FROM increments
WHERE created_at >= ?
GROUP BY counter
ORDER BY hits DESC, counter ASC
LIMIT ?;
`

	rows, err := s.db.QueryContext(ctx, query, since, limit)
	if err != nil {
		return nil, fmt.Errorf("sqlite: top counters: %w", err)
	}
	defer rows.Close()

	var out []domain.CounterActivity
	for rows.Next() {
		var activity domain.CounterActivity
		if err := rows.Scan(&activity.Counter, &activity.Hits); err != nil {
			return nil, fmt.Errorf("sqlite: scan activity: %w", err)
		}
		out = append(out, activity)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: top counters rows: %w", err)
	}

	return out, nil
}

// CountSince cuenta las menciones de un contador desde la fecha dada.
func (s *Store) CountSince(ctx context.Context, counter string, since time.Time) (int, error) {
	const query = `
SELECT COUNT(*)
FROM increments
WHERE LOWER(counter) = LOWER(?) AND created_at >= ?;
`

	var hits int
	if err := s.db.QueryRowContext(ctx, query, counter, since).Scan(&hits); err != nil {
		return 0, fmt.Errorf("sqlite: count since: %w", err)
	}

	return hits, nil
}

// ----- Ajustes -----

func (s *Store) SetSetting(ctx context.Context, key, value string) error {
	if strings.TrimSpace(key) == "" {
		return fmt.Errorf("sqlite: empty setting key")
	}

	now := time.Now().UTC()
	const stmt = `
INSERT INTO settings (key, value, updated_at)
VALUES (?, ?, ?)
ON CONFLICT(key) DO UPDATE SET
	value=excluded.value,
	updated_at=excluded.updated_at;
`

	if _, err := s.db.ExecContext(ctx, stmt, key, value, now); err != nil {
		return fmt.Errorf("sqlite: set setting: %w", err)
	}

	return nil
}

func (s *Store) GetSetting(ctx context.Context, key string) (string, error) {
	if strings.TrimSpace(key) == "" {
		return "", fmt.Errorf("sqlite: empty setting key")
	}

	const query = `SELECT value FROM settings WHERE key = ? LIMIT 1;`
	row := s.db.QueryRowContext(ctx, query, key)

	var value sql.NullString
	if err := row.Scan(&value); err != nil {
		if err == sql.ErrNoRows {
			return "", nil
		}
		return "", fmt.Errorf("sqlite: get setting: %w", err)
	}

	return value.String, nil
}

// ----- Notificaciones -----

func (s *Store) SaveNotification(ctx context.Context, notification *domain.Notification) (*domain.Notification, error) {
	if notification == nil {
		return nil, fmt.Errorf("sqlite: notification nil")
	}

	if notification.CreatedAt.IsZero() {
		notification.CreatedAt = time.Now().UTC()
	}

	const stmt = `
INSERT INTO notifications (type, platform, username, message, metadata, created_at)
VALUES (?, ?, ?, ?, ?, ?);
`

	res, err := s.db.ExecContext(
		ctx,
		stmt,
		string(notification.Type),
		string(notification.Platform),
		notification.Username,
		notification.Message,
		encodeJournalMetadata(notification.Metadata),
		notification.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: save notification: %w", err)
	}

	if id, err := res.LastInsertId(); err == nil {
		notification.ID = id
	}

	return notification, nil
}

func (s *Store) ListNotifications(ctx context.Context, limit int) ([]*domain.Notification, error) {
	if limit <= 0 {
		limit = 50
	}
	const query = `
SELECT id, type, platform, username, message, metadata, created_at
FROM notifications
ORDER BY created_at DESC
LIMIT ?;
`

	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list notifications: %w", err)
	}
	defer rows.Close()

	var out []*domain.Notification
	for rows.Next() {
		var (
			record                 domain.Notification
			notificationType, plat sql.NullString
			username, message      sql.NullString
			metadata               sql.NullString
			createdAt              sql.NullTime
		)

		if err := rows.Scan(
			&record.ID,
			&notificationType,
			&plat,
			&username,
			&message,
			&metadata,
			&createdAt,
		); err != nil {
			return nil, fmt.Errorf("sqlite: scan notification: %w", err)
		}

		record.Type = domain.NotificationType(notificationType.String)
		record.Platform = domain.Platform(plat.String)
		record.Username = username.String
		record.Message = message.String
		record.Metadata = decodeJournalMetadata(metadata.String)
		record.CreatedAt = createdAt.Time

		out = append(out, &record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: list notifications rows: %w", err)
	}

	return out, nil
}

func encodeJournalMetadata(data map[string]string) interface{} {
	if len(data) == 0 {
		return nil
	}
	encoded, err := json.Marshal(data)
	if err != nil {
		return nil
	}
	return string(encoded)
}

func decodeJournalMetadata(raw string) map[string]string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}

	var metadata map[string]string
	if err := json.Unmarshal([]byte(raw), &metadata); err != nil {
		return nil
	}
	return metadata
}

var _ domain.CounterJournal = (*Store)(nil)
var _ domain.SettingsRepository = (*Store)(nil)
var _ domain.NotificationRepository = (*Store)(nil)
