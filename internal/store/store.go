package store

import (
	"context"
	"time"

	"github.com/arborhq/arbor/internal/model"
)

// Store exposes persistence operations required by services.
// Implementations live under internal/store/<driver>/ (postgres, sqlite).
type Store interface {
	Users() Users
	Containers() Containers
	Topics() Topics
	LinkRequests() LinkRequests
}

type Users interface {
	Create(ctx context.Context, u *model.User) (*model.User, error)
	Get(ctx context.Context, userID string) (*model.User, error)
	GetByUsername(ctx context.Context, username string) (*model.User, error)
}

// Containers is the graph store: container records plus their edge sets.
// AddEdge and RemoveEdge are the only edge mutation routines; both sides
// of an edge are written in a single transaction so the bidirectional
// invariant holds after every successful call. AddEdge has set semantics
// (adding an existing edge is a no-op); callers that must distinguish an
// existing edge check membership first.
type Containers interface {
	Create(ctx context.Context, c *model.Container) (*model.Container, error)
	Get(ctx context.Context, containerID string) (*model.Container, error)
	// Delete removes the bare container record. Cascade steps (edge
	// removal, topic deletion) are sequenced by the container service.
	Delete(ctx context.Context, containerID string) error
	AddEdge(ctx context.Context, parentID, childID string) error
	RemoveEdge(ctx context.Context, parentID, childID string) error
	// SearchPrivate matches the owner's containers by case-insensitive
	// name prefix.
	SearchPrivate(ctx context.Context, ownerID, prefix string, limit int) ([]*model.Container, error)
	// SearchPublic matches public-scope containers: by prefix when the
	// container's searching gate is public, by exact name otherwise.
	SearchPublic(ctx context.Context, name string, limit int) ([]*model.Container, error)
	// All streams every container record, used by the edge
	// reconciliation scan.
	All(ctx context.Context) ([]*model.Container, error)
}

type Topics interface {
	Create(ctx context.Context, t *model.Topic) (*model.Topic, error)
	Get(ctx context.Context, topicID string) (*model.Topic, error)
	Delete(ctx context.Context, topicID string) error
	// FindByOriginAndDateRange returns topics anchored at originID whose
	// creation time lies in [start, end], ordered by creation time then
	// name ascending.
	FindByOriginAndDateRange(ctx context.Context, originID string, start, end time.Time) ([]*model.Topic, error)
	DeleteByOrigin(ctx context.Context, originID string) error
}

// LinkRequests is the pending-request ledger. Create enforces at most
// one pending request per (requestedBy, targetContainer, link) triple.
type LinkRequests interface {
	Create(ctx context.Context, r *model.LinkRequest) (*model.LinkRequest, error)
	Get(ctx context.Context, requestID string) (*model.LinkRequest, error)
	Delete(ctx context.Context, requestID string) error
	FindPending(ctx context.Context, requestedBy, targetContainer string, link model.LinkType) (*model.LinkRequest, error)
	ListByRequester(ctx context.Context, containerID string, link model.LinkType) ([]*model.LinkRequest, error)
	ListByRequestee(ctx context.Context, userID string, link model.LinkType) ([]*model.LinkRequest, error)
}
