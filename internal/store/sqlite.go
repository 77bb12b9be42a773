package store

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/jfarrand/noted/internal/models"

	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// SQLiteStore implements Store using modernc.org/sqlite (pure Go, no CGO).
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) a SQLite database at the given path.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// SQLite only supports one concurrent writer. Limiting to a single
	// connection serializes all DB access through Go's connection pool,
	// preventing "database is locked" errors from concurrent HTTP requests.
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("%s: %w", pragma, err)
		}
	}

	return &SQLiteStore{db: db}, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// newULID generates a new ULID string.
func newULID() string {
	entropy := rand.New(rand.NewSource(time.Now().UnixNano()))
	return ulid.MustNew(ulid.Timestamp(time.Now()), ulid.Monotonic(entropy, 0)).String()
}

// Migrate runs all embedded SQL migration files in order.
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
		filename TEXT PRIMARY KEY,
		applied_at DATETIME NOT NULL DEFAULT (datetime('now'))
	)`)
	if err != nil {
		return fmt.Errorf("create migrations table: %w", err)
	}

	entries, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("read migrations dir: %w", err)
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()

		var count int
		err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM schema_migrations WHERE filename = ?", name).Scan(&count)
		if err != nil {
			return fmt.Errorf("check migration %s: %w", name, err)
		}
		if count > 0 {
			continue
		}

		data, err := migrationsFS.ReadFile("migrations/" + name)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", name, err)
		}
		if _, err := s.db.ExecContext(ctx, string(data)); err != nil {
			return fmt.Errorf("apply migration %s: %w", name, err)
		}
		if _, err := s.db.ExecContext(ctx, "INSERT INTO schema_migrations (filename) VALUES (?)", name); err != nil {
			return fmt.Errorf("record migration %s: %w", name, err)
		}
	}

	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// --- Profiles ---

func (s *SQLiteStore) CreateProfile(ctx context.Context, p *models.Profile) error {
	if p.ID == "" {
		p.ID = newULID()
	}
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	// A newly activated profile deactivates every other profile so the
	// single-active invariant holds.
	if p.Active {
		if _, err := tx.ExecContext(ctx, "UPDATE profiles SET active = 0"); err != nil {
			return fmt.Errorf("deactivate profiles: %w", err)
		}
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO profiles (id, display_name, vault_root, start_date, active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.DisplayName, p.VaultRoot, p.StartDate, boolToInt(p.Active), p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("create profile: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func (s *SQLiteStore) scanProfile(row *sql.Row) (*models.Profile, error) {
	p := &models.Profile{}
	var active int
	err := row.Scan(&p.ID, &p.DisplayName, &p.VaultRoot, &p.StartDate, &active, &p.CreatedAt, &p.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	p.Active = active != 0
	return p, nil
}

func (s *SQLiteStore) GetProfile(ctx context.Context, id string) (*models.Profile, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, display_name, vault_root, start_date, active, created_at, updated_at
		FROM profiles WHERE id = ?`, id)
	p, err := s.scanProfile(row)
	if err == ErrNotFound {
		return nil, fmt.Errorf("profile %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get profile: %w", err)
	}
	return p, nil
}

func (s *SQLiteStore) GetActiveProfile(ctx context.Context) (*models.Profile, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, display_name, vault_root, start_date, active, created_at, updated_at
		FROM profiles WHERE active = 1 LIMIT 1`)
	p, err := s.scanProfile(row)
	if err == ErrNotFound {
		return nil, fmt.Errorf("active profile: %w", ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get active profile: %w", err)
	}
	return p, nil
}

func (s *SQLiteStore) ListProfiles(ctx context.Context) ([]*models.Profile, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, display_name, vault_root, start_date, active, created_at, updated_at
		FROM profiles ORDER BY display_name`)
	if err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var profiles []*models.Profile
	for rows.Next() {
		p := &models.Profile{}
		var active int
		if err := rows.Scan(&p.ID, &p.DisplayName, &p.VaultRoot, &p.StartDate, &active, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan profile: %w", err)
		}
		p.Active = active != 0
		profiles = append(profiles, p)
	}
	return profiles, rows.Err()
}

func (s *SQLiteStore) UpdateProfile(ctx context.Context, p *models.Profile) error {
	p.UpdatedAt = time.Now().UTC()
	result, err := s.db.ExecContext(ctx,
		`UPDATE profiles SET display_name=?, vault_root=?, start_date=?, updated_at=? WHERE id=?`,
		p.DisplayName, p.VaultRoot, p.StartDate, p.UpdatedAt, p.ID,
	)
	if err != nil {
		return fmt.Errorf("update profile: %w", err)
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return fmt.Errorf("profile %s: %w", p.ID, ErrNotFound)
	}
	return nil
}

// ActivateProfile atomically makes the given profile the only active one.
func (s *SQLiteStore) ActivateProfile(ctx context.Context, id string) (*models.Profile, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var exists int
	if err := tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM profiles WHERE id = ?", id).Scan(&exists); err != nil {
		return nil, fmt.Errorf("check profile: %w", err)
	}
	if exists == 0 {
		return nil, fmt.Errorf("profile %s: %w", id, ErrNotFound)
	}
	if _, err := tx.ExecContext(ctx, "UPDATE profiles SET active = 0"); err != nil {
		return nil, fmt.Errorf("deactivate profiles: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "UPDATE profiles SET active = 1, updated_at = ? WHERE id = ?", time.Now().UTC(), id); err != nil {
		return nil, fmt.Errorf("activate profile: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	return s.GetProfile(ctx, id)
}

// --- Chat sessions ---

func (s *SQLiteStore) CreateChatSession(ctx context.Context, cs *models.ChatSession) error {
	if cs.ID == "" {
		cs.ID = newULID()
	}
	now := time.Now().UTC()
	cs.CreatedAt = now
	cs.UpdatedAt = now
	if cs.Day == "" {
		cs.Day = now.Format("2006-01-02")
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO chat_sessions (id, profile_id, day, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		cs.ID, cs.ProfileID, cs.Day, cs.CreatedAt, cs.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("create chat session: %w", err)
	}
	return nil
}

func (s *SQLiteStore) GetChatSession(ctx context.Context, id string) (*models.ChatSession, error) {
	cs := &models.ChatSession{}
	err := s.db.QueryRowContext(ctx,
		`SELECT id, profile_id, day, created_at, updated_at FROM chat_sessions WHERE id = ?`, id,
	).Scan(&cs.ID, &cs.ProfileID, &cs.Day, &cs.CreatedAt, &cs.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("chat session %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get chat session: %w", err)
	}
	return cs, nil
}

func (s *SQLiteStore) LatestChatSession(ctx context.Context, profileID string) (*models.ChatSession, error) {
	cs := &models.ChatSession{}
	err := s.db.QueryRowContext(ctx,
		`SELECT id, profile_id, day, created_at, updated_at FROM chat_sessions
		WHERE profile_id = ? ORDER BY updated_at DESC LIMIT 1`, profileID,
	).Scan(&cs.ID, &cs.ProfileID, &cs.Day, &cs.CreatedAt, &cs.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("chat session for profile %s: %w", profileID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("latest chat session: %w", err)
	}
	return cs, nil
}

func (s *SQLiteStore) ListChatSessions(ctx context.Context, profileID string) ([]*models.ChatSession, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, profile_id, day, created_at, updated_at FROM chat_sessions
		WHERE profile_id = ? ORDER BY updated_at DESC`, profileID)
	if err != nil {
		return nil, fmt.Errorf("list chat sessions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var sessions []*models.ChatSession
	for rows.Next() {
		cs := &models.ChatSession{}
		if err := rows.Scan(&cs.ID, &cs.ProfileID, &cs.Day, &cs.CreatedAt, &cs.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan chat session: %w", err)
		}
		sessions = append(sessions, cs)
	}
	return sessions, rows.Err()
}

func (s *SQLiteStore) TouchChatSession(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE chat_sessions SET updated_at = ? WHERE id = ?", time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("touch chat session: %w", err)
	}
	return nil
}

// --- Messages ---

func (s *SQLiteStore) AppendMessage(ctx context.Context, m *models.Message) error {
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}
	filesJSON, err := json.Marshal(m.Files)
	if err != nil {
		filesJSON = []byte("[]")
	}

	result, err := s.db.ExecContext(ctx,
		`INSERT INTO chat_messages (session_id, profile_id, role, content, intent, action, reason, files, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		m.SessionID, m.ProfileID, string(m.Role), m.Content,
		string(m.Intent), string(m.Action), m.Reason, string(filesJSON), m.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("append message: %w", err)
	}
	if id, err := result.LastInsertId(); err == nil {
		m.ID = id
	}
	return s.TouchChatSession(ctx, m.SessionID)
}

func (s *SQLiteStore) RecentMessages(ctx context.Context, sessionID string, limit int) ([]*models.Message, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, session_id, profile_id, role, content, intent, action, reason, files, created_at
		FROM chat_messages WHERE session_id = ?
		ORDER BY id DESC LIMIT ?`, sessionID, limit)
	if err != nil {
		return nil, fmt.Errorf("recent messages: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var messages []*models.Message
	for rows.Next() {
		m := &models.Message{}
		var role, intent, action, filesJSON string
		if err := rows.Scan(&m.ID, &m.SessionID, &m.ProfileID, &role, &m.Content,
			&intent, &action, &m.Reason, &filesJSON, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		m.Role = models.MessageRole(role)
		m.Intent = models.Intent(intent)
		m.Action = models.Action(action)
		_ = json.Unmarshal([]byte(filesJSON), &m.Files)
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Rows come back newest-first; callers want chronological order.
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}

func (s *SQLiteStore) ClearMessages(ctx context.Context, sessionID string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM chat_messages WHERE session_id = ?", sessionID)
	if err != nil {
		return fmt.Errorf("clear messages: %w", err)
	}
	return nil
}
