package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/arborhq/arbor/internal/model"
	"github.com/arborhq/arbor/internal/store"
)

// Open opens (or creates) a SQLite database at the given path, enables
// WAL journal mode and applies the schema. Writes are serialized through
// a single connection; sqlite is the local/dev driver.
func Open(path string) (*sql.DB, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}

	dsn := fmt.Sprintf("file:%s?_txlock=immediate&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := ensureSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

func ensureSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS users (
            user_id       TEXT PRIMARY KEY,
            username      TEXT NOT NULL UNIQUE,
            password_hash TEXT NOT NULL,
            creation_time TIMESTAMP NOT NULL
        )`,
		`CREATE TABLE IF NOT EXISTS containers (
            container_id  TEXT PRIMARY KEY,
            owner_id      TEXT NOT NULL,
            name          TEXT NOT NULL,
            scope         TEXT NOT NULL,
            get_link      TEXT NOT NULL,
            put_link      TEXT NOT NULL,
            searching     TEXT NOT NULL,
            parents       TEXT NOT NULL DEFAULT '[]',
            children      TEXT NOT NULL DEFAULT '[]',
            creation_time TIMESTAMP NOT NULL
        )`,
		`CREATE UNIQUE INDEX IF NOT EXISTS containers_private_name
            ON containers (owner_id, name) WHERE scope = 'private'`,
		`CREATE UNIQUE INDEX IF NOT EXISTS containers_public_name
            ON containers (name) WHERE scope = 'public'`,
		`CREATE TABLE IF NOT EXISTS topics (
            topic_id      TEXT PRIMARY KEY,
            origin_id     TEXT NOT NULL,
            name          TEXT NOT NULL UNIQUE,
            content       TEXT NOT NULL,
            creation_time TIMESTAMP NOT NULL
        )`,
		`CREATE INDEX IF NOT EXISTS topics_origin_time
            ON topics (origin_id, creation_time)`,
		`CREATE TABLE IF NOT EXISTS link_requests (
            request_id       TEXT PRIMARY KEY,
            requested_by     TEXT NOT NULL,
            target_container TEXT NOT NULL,
            requestee_id     TEXT NOT NULL,
            link             TEXT NOT NULL,
            creation_time    TIMESTAMP NOT NULL,
            UNIQUE (requested_by, target_container, link)
        )`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

// NewWithDB constructs a SQLite store backed by an existing connection.
func NewWithDB(db *sql.DB) store.Store { return &sqStore{db: db} }

type sqStore struct{ db *sql.DB }

func (s *sqStore) Users() store.Users               { return &users{db: s.db} }
func (s *sqStore) Containers() store.Containers     { return &containers{db: s.db} }
func (s *sqStore) Topics() store.Topics             { return &topics{db: s.db} }
func (s *sqStore) LinkRequests() store.LinkRequests { return &linkRequests{db: s.db} }

// HealthPing implements health.HealthPinger.
func (s *sqStore) HealthPing(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// --- Users ---

type users struct{ db *sql.DB }

func (u *users) Create(ctx context.Context, m *model.User) (*model.User, error) {
	id := m.UserID
	if id == "" {
		id = uuid.New().String()
	}
	now := time.Now().UTC()
	_, err := u.db.ExecContext(ctx,
		`INSERT INTO users (user_id, username, password_hash, creation_time) VALUES (?,?,?,?)`,
		id, m.Username, m.PasswordHash, now)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, model.ErrNameConflict
		}
		return nil, err
	}
	out := *m
	out.UserID = id
	out.CreationTime = now
	return &out, nil
}

func (u *users) Get(ctx context.Context, userID string) (*model.User, error) {
	return u.getBy(ctx, "user_id", userID)
}

func (u *users) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	return u.getBy(ctx, "username", username)
}

func (u *users) getBy(ctx context.Context, col, val string) (*model.User, error) {
	var out model.User
	row := u.db.QueryRowContext(ctx,
		`SELECT user_id, username, password_hash, creation_time FROM users WHERE `+col+` = ?`, val)
	if err := row.Scan(&out.UserID, &out.Username, &out.PasswordHash, &out.CreationTime); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrNotFound
		}
		return nil, err
	}
	return &out, nil
}

// --- Containers ---

type containers struct{ db *sql.DB }

const containerCols = `container_id, owner_id, name, scope, get_link, put_link, searching, parents, children, creation_time`

func scanContainer(row interface{ Scan(...interface{}) error }) (*model.Container, error) {
	var out model.Container
	var parents, children string
	if err := row.Scan(&out.ContainerID, &out.OwnerID, &out.Name,
		&out.Settings.Scope, &out.Settings.GetLink, &out.Settings.PutLink, &out.Settings.Searching,
		&parents, &children, &out.CreationTime); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(parents), &out.Parents); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(children), &out.Children); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *containers) Create(ctx context.Context, m *model.Container) (*model.Container, error) {
	id := m.ContainerID
	if id == "" {
		id = uuid.New().String()
	}
	now := time.Now().UTC()
	_, err := c.db.ExecContext(ctx, `
        INSERT INTO containers (container_id, owner_id, name, scope, get_link, put_link, searching, creation_time)
        VALUES (?,?,?,?,?,?,?,?)
    `, id, m.OwnerID, m.Name,
		m.Settings.Scope, m.Settings.GetLink, m.Settings.PutLink, m.Settings.Searching, now)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, model.ErrNameConflict
		}
		return nil, err
	}
	out := *m
	out.ContainerID = id
	out.Parents = nil
	out.Children = nil
	out.CreationTime = now
	return &out, nil
}

func (c *containers) Get(ctx context.Context, containerID string) (*model.Container, error) {
	row := c.db.QueryRowContext(ctx,
		`SELECT `+containerCols+` FROM containers WHERE container_id = ?`, containerID)
	out, err := scanContainer(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrNotFound
	}
	return out, err
}

func (c *containers) Delete(ctx context.Context, containerID string) error {
	res, err := c.db.ExecContext(ctx, `DELETE FROM containers WHERE container_id = ?`, containerID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return model.ErrNotFound
	}
	return nil
}

func (c *containers) AddEdge(ctx context.Context, parentID, childID string) error {
	return c.mutateEdge(ctx, parentID, childID, true)
}

func (c *containers) RemoveEdge(ctx context.Context, parentID, childID string) error {
	return c.mutateEdge(ctx, parentID, childID, false)
}

// mutateEdge rewrites both sides of the edge inside one immediate
// transaction. SQLite's single writer serializes conflicting mutations.
func (c *containers) mutateEdge(ctx context.Context, parentID, childID string, add bool) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if err := updateEdgeSet(ctx, tx, childID, "parents", parentID, add); err != nil {
		return err
	}
	if err := updateEdgeSet(ctx, tx, parentID, "children", childID, add); err != nil {
		return err
	}
	return tx.Commit()
}

// updateEdgeSet reads one container's edge column, applies a set
// add/remove of member, and writes it back.
func updateEdgeSet(ctx context.Context, tx *sql.Tx, containerID, col, member string, add bool) error {
	var raw string
	err := tx.QueryRowContext(ctx,
		`SELECT `+col+` FROM containers WHERE container_id = ?`, containerID).Scan(&raw)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.ErrNotFound
		}
		return err
	}
	var set []string
	if err := json.Unmarshal([]byte(raw), &set); err != nil {
		return err
	}

	changed := false
	if add {
		found := false
		for _, id := range set {
			if id == member {
				found = true
				break
			}
		}
		if !found {
			set = append(set, member)
			changed = true
		}
	} else {
		next := set[:0]
		for _, id := range set {
			if id == member {
				changed = true
				continue
			}
			next = append(next, id)
		}
		set = next
	}
	if !changed {
		return nil
	}

	buf, err := json.Marshal(set)
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx,
		`UPDATE containers SET `+col+` = ? WHERE container_id = ?`, string(buf), containerID)
	return err
}

// escapeLike neutralizes LIKE metacharacters so a caller-supplied
// prefix matches literally.
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func (c *containers) SearchPrivate(ctx context.Context, ownerID, prefix string, limit int) ([]*model.Container, error) {
	rows, err := c.db.QueryContext(ctx, `
        SELECT `+containerCols+` FROM containers
        WHERE owner_id = ? AND name LIKE ? || '%' ESCAPE '\'
        ORDER BY name LIMIT ?
    `, ownerID, escapeLike(prefix), limit)
	if err != nil {
		return nil, err
	}
	return collectContainers(rows)
}

func (c *containers) SearchPublic(ctx context.Context, name string, limit int) ([]*model.Container, error) {
	rows, err := c.db.QueryContext(ctx, `
        SELECT `+containerCols+` FROM containers
        WHERE scope = 'public' AND (
            (searching = 'public' AND name LIKE ? || '%' ESCAPE '\') OR
            (searching = 'private' AND name = ?)
        )
        ORDER BY name LIMIT ?
    `, escapeLike(name), name, limit)
	if err != nil {
		return nil, err
	}
	return collectContainers(rows)
}

func (c *containers) All(ctx context.Context) ([]*model.Container, error) {
	rows, err := c.db.QueryContext(ctx,
		`SELECT `+containerCols+` FROM containers ORDER BY container_id`)
	if err != nil {
		return nil, err
	}
	return collectContainers(rows)
}

func collectContainers(rows *sql.Rows) ([]*model.Container, error) {
	defer func() { _ = rows.Close() }()
	var res []*model.Container
	for rows.Next() {
		ct, err := scanContainer(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, ct)
	}
	return res, rows.Err()
}

// --- Topics ---

type topics struct{ db *sql.DB }

func (t *topics) Create(ctx context.Context, m *model.Topic) (*model.Topic, error) {
	id := m.TopicID
	if id == "" {
		id = uuid.New().String()
	}
	now := time.Now().UTC()
	_, err := t.db.ExecContext(ctx,
		`INSERT INTO topics (topic_id, origin_id, name, content, creation_time) VALUES (?,?,?,?,?)`,
		id, m.OriginID, m.Name, m.Content, now)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, model.ErrNameConflict
		}
		return nil, err
	}
	out := *m
	out.TopicID = id
	out.CreationTime = now
	return &out, nil
}

func (t *topics) Get(ctx context.Context, topicID string) (*model.Topic, error) {
	var out model.Topic
	row := t.db.QueryRowContext(ctx,
		`SELECT topic_id, origin_id, name, content, creation_time FROM topics WHERE topic_id = ?`, topicID)
	if err := row.Scan(&out.TopicID, &out.OriginID, &out.Name, &out.Content, &out.CreationTime); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrNotFound
		}
		return nil, err
	}
	return &out, nil
}

func (t *topics) Delete(ctx context.Context, topicID string) error {
	res, err := t.db.ExecContext(ctx, `DELETE FROM topics WHERE topic_id = ?`, topicID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return model.ErrNotFound
	}
	return nil
}

func (t *topics) FindByOriginAndDateRange(ctx context.Context, originID string, start, end time.Time) ([]*model.Topic, error) {
	rows, err := t.db.QueryContext(ctx, `
        SELECT topic_id, origin_id, name, content, creation_time
        FROM topics
        WHERE origin_id = ? AND creation_time >= ? AND creation_time <= ?
        ORDER BY creation_time, name
    `, originID, start.UTC(), end.UTC())
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var res []*model.Topic
	for rows.Next() {
		var tp model.Topic
		if err := rows.Scan(&tp.TopicID, &tp.OriginID, &tp.Name, &tp.Content, &tp.CreationTime); err != nil {
			return nil, err
		}
		res = append(res, &tp)
	}
	return res, rows.Err()
}

func (t *topics) DeleteByOrigin(ctx context.Context, originID string) error {
	_, err := t.db.ExecContext(ctx, `DELETE FROM topics WHERE origin_id = ?`, originID)
	return err
}

// --- Link requests ---

type linkRequests struct{ db *sql.DB }

func (l *linkRequests) Create(ctx context.Context, m *model.LinkRequest) (*model.LinkRequest, error) {
	id := m.RequestID
	if id == "" {
		id = uuid.New().String()
	}
	now := time.Now().UTC()
	_, err := l.db.ExecContext(ctx, `
        INSERT INTO link_requests (request_id, requested_by, target_container, requestee_id, link, creation_time)
        VALUES (?,?,?,?,?,?)
    `, id, m.RequestedBy, m.TargetContainer, m.RequesteeID, m.Link, now)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, model.ErrDuplicateRequest
		}
		return nil, err
	}
	out := *m
	out.RequestID = id
	out.CreationTime = now
	return &out, nil
}

const linkRequestCols = `request_id, requested_by, target_container, requestee_id, link, creation_time`

func scanLinkRequest(row interface{ Scan(...interface{}) error }) (*model.LinkRequest, error) {
	var out model.LinkRequest
	if err := row.Scan(&out.RequestID, &out.RequestedBy, &out.TargetContainer,
		&out.RequesteeID, &out.Link, &out.CreationTime); err != nil {
		return nil, err
	}
	return &out, nil
}

func (l *linkRequests) Get(ctx context.Context, requestID string) (*model.LinkRequest, error) {
	row := l.db.QueryRowContext(ctx,
		`SELECT `+linkRequestCols+` FROM link_requests WHERE request_id = ?`, requestID)
	out, err := scanLinkRequest(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrNotFound
	}
	return out, err
}

func (l *linkRequests) Delete(ctx context.Context, requestID string) error {
	res, err := l.db.ExecContext(ctx, `DELETE FROM link_requests WHERE request_id = ?`, requestID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return model.ErrNotFound
	}
	return nil
}

func (l *linkRequests) FindPending(ctx context.Context, requestedBy, targetContainer string, link model.LinkType) (*model.LinkRequest, error) {
	row := l.db.QueryRowContext(ctx, `
        SELECT `+linkRequestCols+` FROM link_requests
        WHERE requested_by = ? AND target_container = ? AND link = ?
    `, requestedBy, targetContainer, link)
	out, err := scanLinkRequest(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrNotFound
	}
	return out, err
}

func (l *linkRequests) ListByRequester(ctx context.Context, containerID string, link model.LinkType) ([]*model.LinkRequest, error) {
	return l.list(ctx, "requested_by", containerID, link)
}

func (l *linkRequests) ListByRequestee(ctx context.Context, userID string, link model.LinkType) ([]*model.LinkRequest, error) {
	return l.list(ctx, "requestee_id", userID, link)
}

func (l *linkRequests) list(ctx context.Context, col, val string, link model.LinkType) ([]*model.LinkRequest, error) {
	rows, err := l.db.QueryContext(ctx, `
        SELECT `+linkRequestCols+` FROM link_requests
        WHERE `+col+` = ? AND link = ? ORDER BY creation_time
    `, val, link)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var res []*model.LinkRequest
	for rows.Next() {
		r, err := scanLinkRequest(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, r)
	}
	return res, rows.Err()
}
