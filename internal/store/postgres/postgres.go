package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/arborhq/arbor/internal/model"
	"github.com/arborhq/arbor/internal/store"
)

// Open opens a PostgreSQL connection using the pgx stdlib driver and
// verifies connectivity.
func Open(dsn string) (*sql.DB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("postgres DSN is empty")
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// NewWithDB constructs a native Postgres store backed directly by database/sql.
func NewWithDB(db *sql.DB) store.Store { return &pgStore{db: db} }

type pgStore struct{ db *sql.DB }

func (s *pgStore) Users() store.Users               { return &users{db: s.db} }
func (s *pgStore) Containers() store.Containers     { return &containers{db: s.db} }
func (s *pgStore) Topics() store.Topics             { return &topics{db: s.db} }
func (s *pgStore) LinkRequests() store.LinkRequests { return &linkRequests{db: s.db} }

// HealthPing implements health.HealthPinger for the Postgres-backed store.
func (s *pgStore) HealthPing(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Bootstrap applies the schema. Statements are idempotent, so repeated
// startups are safe.
func Bootstrap(ctx context.Context, db *sql.DB) error {
	for _, stmt := range ddl {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("bootstrap: %w", err)
		}
	}
	return nil
}

var ddl = []string{
	`CREATE TABLE IF NOT EXISTS users (
        user_id       TEXT PRIMARY KEY,
        username      TEXT NOT NULL UNIQUE,
        password_hash TEXT NOT NULL,
        creation_time TIMESTAMPTZ NOT NULL DEFAULT now()
    )`,
	`CREATE TABLE IF NOT EXISTS containers (
        container_id  TEXT PRIMARY KEY,
        owner_id      TEXT NOT NULL,
        name          TEXT NOT NULL,
        scope         TEXT NOT NULL,
        get_link      TEXT NOT NULL,
        put_link      TEXT NOT NULL,
        searching     TEXT NOT NULL,
        parents       JSONB NOT NULL DEFAULT '[]',
        children      JSONB NOT NULL DEFAULT '[]',
        creation_time TIMESTAMPTZ NOT NULL DEFAULT now()
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
        creation_time TIMESTAMPTZ NOT NULL DEFAULT now()
    )`,
	`CREATE INDEX IF NOT EXISTS topics_origin_time
        ON topics (origin_id, creation_time)`,
	`CREATE TABLE IF NOT EXISTS link_requests (
        request_id       TEXT PRIMARY KEY,
        requested_by     TEXT NOT NULL,
        target_container TEXT NOT NULL,
        requestee_id     TEXT NOT NULL,
        link             TEXT NOT NULL,
        creation_time    TIMESTAMPTZ NOT NULL DEFAULT now(),
        UNIQUE (requested_by, target_container, link)
    )`,
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// --- Users ---

type users struct{ db *sql.DB }

func (u *users) Create(ctx context.Context, m *model.User) (*model.User, error) {
	id := m.UserID
	if id == "" {
		id = uuid.New().String()
	}
	var created time.Time
	row := u.db.QueryRowContext(ctx, `
        INSERT INTO users (user_id, username, password_hash)
        VALUES ($1,$2,$3)
        RETURNING creation_time
    `, id, m.Username, m.PasswordHash)
	if err := row.Scan(&created); err != nil {
		if isUniqueViolation(err) {
			return nil, model.ErrNameConflict
		}
		return nil, err
	}
	out := *m
	out.UserID = id
	out.CreationTime = created
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
	row := u.db.QueryRowContext(ctx, `
        SELECT user_id, username, password_hash, creation_time
        FROM users WHERE `+col+`=$1
    `, val)
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
	var parents, children []byte
	if err := row.Scan(&out.ContainerID, &out.OwnerID, &out.Name,
		&out.Settings.Scope, &out.Settings.GetLink, &out.Settings.PutLink, &out.Settings.Searching,
		&parents, &children, &out.CreationTime); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(parents, &out.Parents); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(children, &out.Children); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *containers) Create(ctx context.Context, m *model.Container) (*model.Container, error) {
	id := m.ContainerID
	if id == "" {
		id = uuid.New().String()
	}
	var created time.Time
	row := c.db.QueryRowContext(ctx, `
        INSERT INTO containers (container_id, owner_id, name, scope, get_link, put_link, searching)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
        RETURNING creation_time
    `, id, m.OwnerID, m.Name,
		m.Settings.Scope, m.Settings.GetLink, m.Settings.PutLink, m.Settings.Searching)
	if err := row.Scan(&created); err != nil {
		if isUniqueViolation(err) {
			return nil, model.ErrNameConflict
		}
		return nil, err
	}
	out := *m
	out.ContainerID = id
	out.Parents = nil
	out.Children = nil
	out.CreationTime = created
	return &out, nil
}

func (c *containers) Get(ctx context.Context, containerID string) (*model.Container, error) {
	row := c.db.QueryRowContext(ctx,
		`SELECT `+containerCols+` FROM containers WHERE container_id=$1`, containerID)
	out, err := scanContainer(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrNotFound
	}
	return out, err
}

func (c *containers) Delete(ctx context.Context, containerID string) error {
	res, err := c.db.ExecContext(ctx, `DELETE FROM containers WHERE container_id=$1`, containerID)
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

// lockPair locks both container rows in sorted id order so concurrent
// edge mutations on the same pair cannot deadlock. Returns ErrNotFound
// when either row is absent.
func lockPair(ctx context.Context, tx *sql.Tx, a, b string) error {
	ids := []string{a, b}
	sort.Strings(ids)
	for _, id := range ids {
		var got string
		if err := tx.QueryRowContext(ctx,
			`SELECT container_id FROM containers WHERE container_id=$1 FOR UPDATE`, id).Scan(&got); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return model.ErrNotFound
			}
			return err
		}
	}
	return nil
}

func (c *containers) AddEdge(ctx context.Context, parentID, childID string) error {
	return c.mutateEdge(ctx, parentID, childID, true)
}

func (c *containers) RemoveEdge(ctx context.Context, parentID, childID string) error {
	return c.mutateEdge(ctx, parentID, childID, false)
}

// mutateEdge is the single routine through which every edge change
// flows. Both sides are written in one transaction, child side first,
// keeping the bidirectional invariant intact under crashes.
func (c *containers) mutateEdge(ctx context.Context, parentID, childID string, add bool) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if err := lockPair(ctx, tx, parentID, childID); err != nil {
		return err
	}

	childStmt := `UPDATE containers SET parents = parents - $2 WHERE container_id = $1`
	parentStmt := `UPDATE containers SET children = children - $2 WHERE container_id = $1`
	if add {
		childStmt = `UPDATE containers
            SET parents = parents || to_jsonb($2::text)
            WHERE container_id = $1 AND NOT parents ? $2`
		parentStmt = `UPDATE containers
            SET children = children || to_jsonb($2::text)
            WHERE container_id = $1 AND NOT children ? $2`
	}
	if _, err := tx.ExecContext(ctx, childStmt, childID, parentID); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, parentStmt, parentID, childID); err != nil {
		return err
	}
	return tx.Commit()
}

// escapeLike neutralizes LIKE metacharacters so a caller-supplied
// prefix matches literally.
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func (c *containers) SearchPrivate(ctx context.Context, ownerID, prefix string, limit int) ([]*model.Container, error) {
	rows, err := c.db.QueryContext(ctx, `
        SELECT `+containerCols+` FROM containers
        WHERE owner_id=$1 AND name ILIKE ($2 || '%') ESCAPE '\'
        ORDER BY name LIMIT $3
    `, ownerID, escapeLike(prefix), limit)
	if err != nil {
		return nil, err
	}
	return collectContainers(rows)
}

func (c *containers) SearchPublic(ctx context.Context, name string, limit int) ([]*model.Container, error) {
	rows, err := c.db.QueryContext(ctx, `
        SELECT `+containerCols+` FROM containers
        WHERE scope='public' AND (
            (searching='public' AND name ILIKE ($2 || '%') ESCAPE '\') OR
            (searching='private' AND name = $1)
        )
        ORDER BY name LIMIT $3
    `, name, escapeLike(name), limit)
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
	var created time.Time
	row := t.db.QueryRowContext(ctx, `
        INSERT INTO topics (topic_id, origin_id, name, content)
        VALUES ($1,$2,$3,$4)
        RETURNING creation_time
    `, id, m.OriginID, m.Name, m.Content)
	if err := row.Scan(&created); err != nil {
		if isUniqueViolation(err) {
			return nil, model.ErrNameConflict
		}
		return nil, err
	}
	out := *m
	out.TopicID = id
	out.CreationTime = created
	return &out, nil
}

func (t *topics) Get(ctx context.Context, topicID string) (*model.Topic, error) {
	var out model.Topic
	row := t.db.QueryRowContext(ctx, `
        SELECT topic_id, origin_id, name, content, creation_time
        FROM topics WHERE topic_id=$1
    `, topicID)
	if err := row.Scan(&out.TopicID, &out.OriginID, &out.Name, &out.Content, &out.CreationTime); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrNotFound
		}
		return nil, err
	}
	return &out, nil
}

func (t *topics) Delete(ctx context.Context, topicID string) error {
	res, err := t.db.ExecContext(ctx, `DELETE FROM topics WHERE topic_id=$1`, topicID)
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
        WHERE origin_id=$1 AND creation_time >= $2 AND creation_time <= $3
        ORDER BY creation_time, name
    `, originID, start, end)
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
	_, err := t.db.ExecContext(ctx, `DELETE FROM topics WHERE origin_id=$1`, originID)
	return err
}

// --- Link requests ---

type linkRequests struct{ db *sql.DB }

func (l *linkRequests) Create(ctx context.Context, m *model.LinkRequest) (*model.LinkRequest, error) {
	id := m.RequestID
	if id == "" {
		id = uuid.New().String()
	}
	var created time.Time
	row := l.db.QueryRowContext(ctx, `
        INSERT INTO link_requests (request_id, requested_by, target_container, requestee_id, link)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING creation_time
    `, id, m.RequestedBy, m.TargetContainer, m.RequesteeID, m.Link)
	if err := row.Scan(&created); err != nil {
		if isUniqueViolation(err) {
			return nil, model.ErrDuplicateRequest
		}
		return nil, err
	}
	out := *m
	out.RequestID = id
	out.CreationTime = created
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
		`SELECT `+linkRequestCols+` FROM link_requests WHERE request_id=$1`, requestID)
	out, err := scanLinkRequest(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrNotFound
	}
	return out, err
}

func (l *linkRequests) Delete(ctx context.Context, requestID string) error {
	res, err := l.db.ExecContext(ctx, `DELETE FROM link_requests WHERE request_id=$1`, requestID)
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
        WHERE requested_by=$1 AND target_container=$2 AND link=$3
    `, requestedBy, targetContainer, link)
	out, err := scanLinkRequest(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrNotFound
	}
	return out, err
}

func (l *linkRequests) ListByRequester(ctx context.Context, containerID string, link model.LinkType) ([]*model.LinkRequest, error) {
	return l.list(ctx, `requested_by`, containerID, link)
}

func (l *linkRequests) ListByRequestee(ctx context.Context, userID string, link model.LinkType) ([]*model.LinkRequest, error) {
	return l.list(ctx, `requestee_id`, userID, link)
}

func (l *linkRequests) list(ctx context.Context, col, val string, link model.LinkType) ([]*model.LinkRequest, error) {
	rows, err := l.db.QueryContext(ctx, `
        SELECT `+linkRequestCols+` FROM link_requests
        WHERE `+col+`=$1 AND link=$2 ORDER BY creation_time
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
