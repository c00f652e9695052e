package storetest

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/arborhq/arbor/internal/model"
	"github.com/arborhq/arbor/internal/store"
)

// Fake is an in-memory store.Store for unit tests. It mirrors the
// driver semantics (set-valued edges written on both sides, unique
// names, the pending-request triple constraint) without a database.
type Fake struct {
	mu         sync.Mutex
	users      map[string]*model.User
	containers map[string]*model.Container
	topics     map[string]*model.Topic
	requests   map[string]*model.LinkRequest
	clock      time.Time
}

// NewFake returns an empty in-memory store.
func NewFake() *Fake {
	return &Fake{
		users:      make(map[string]*model.User),
		containers: make(map[string]*model.Container),
		topics:     make(map[string]*model.Topic),
		requests:   make(map[string]*model.LinkRequest),
		clock:      time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func (f *Fake) Users() store.Users               { return fakeUsers{f} }
func (f *Fake) Containers() store.Containers     { return fakeContainers{f} }
func (f *Fake) Topics() store.Topics             { return fakeTopics{f} }
func (f *Fake) LinkRequests() store.LinkRequests { return fakeRequests{f} }

// HealthPing implements health.HealthPinger.
func (f *Fake) HealthPing(ctx context.Context) error { return nil }

// SetEdges overwrites one container's edge sets verbatim, without the
// two-sided bookkeeping AddEdge does. Tests use it to stage asymmetric
// or dangling graphs for the reconciliation scan.
func (f *Fake) SetEdges(containerID string, parents, children []string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.containers[containerID]
	if !ok {
		return false
	}
	c.Parents = append([]string(nil), parents...)
	c.Children = append([]string(nil), children...)
	return true
}

// tick returns a strictly increasing timestamp so creation-time
// ordering is deterministic in tests.
func (f *Fake) tick() time.Time {
	f.clock = f.clock.Add(time.Second)
	return f.clock
}

type fakeUsers struct{ f *Fake }

func (s fakeUsers) Create(ctx context.Context, u *model.User) (*model.User, error) {
	s.f.mu.Lock()
	defer s.f.mu.Unlock()
	for _, existing := range s.f.users {
		if existing.Username == u.Username {
			return nil, model.ErrNameConflict
		}
	}
	cp := *u
	if cp.UserID == "" {
		cp.UserID = uuid.New().String()
	}
	cp.CreationTime = s.f.tick()
	s.f.users[cp.UserID] = &cp
	out := cp
	return &out, nil
}

func (s fakeUsers) Get(ctx context.Context, userID string) (*model.User, error) {
	s.f.mu.Lock()
	defer s.f.mu.Unlock()
	u, ok := s.f.users[userID]
	if !ok {
		return nil, model.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (s fakeUsers) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	s.f.mu.Lock()
	defer s.f.mu.Unlock()
	for _, u := range s.f.users {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, model.ErrNotFound
}

type fakeContainers struct{ f *Fake }

func (s fakeContainers) Create(ctx context.Context, c *model.Container) (*model.Container, error) {
	s.f.mu.Lock()
	defer s.f.mu.Unlock()
	for _, existing := range s.f.containers {
		sameName := existing.Name == c.Name
		if sameName && c.Settings.Scope == model.SettingPublic && existing.Settings.Scope == model.SettingPublic {
			return nil, model.ErrNameConflict
		}
		if sameName && c.Settings.Scope == model.SettingPrivate && existing.Settings.Scope == model.SettingPrivate && existing.OwnerID == c.OwnerID {
			return nil, model.ErrNameConflict
		}
	}
	cp := *c
	if cp.ContainerID == "" {
		cp.ContainerID = uuid.New().String()
	}
	// New records start without edges, like the SQL drivers; edges are
	// written only through AddEdge.
	cp.Parents = nil
	cp.Children = nil
	cp.CreationTime = s.f.tick()
	s.f.containers[cp.ContainerID] = &cp
	out := cp
	return &out, nil
}

func (s fakeContainers) Get(ctx context.Context, containerID string) (*model.Container, error) {
	s.f.mu.Lock()
	defer s.f.mu.Unlock()
	c, ok := s.f.containers[containerID]
	if !ok {
		return nil, model.ErrNotFound
	}
	cp := *c
	cp.Parents = append([]string(nil), c.Parents...)
	cp.Children = append([]string(nil), c.Children...)
	return &cp, nil
}

func (s fakeContainers) Delete(ctx context.Context, containerID string) error {
	s.f.mu.Lock()
	defer s.f.mu.Unlock()
	if _, ok := s.f.containers[containerID]; !ok {
		return model.ErrNotFound
	}
	delete(s.f.containers, containerID)
	return nil
}

func (s fakeContainers) AddEdge(ctx context.Context, parentID, childID string) error {
	s.f.mu.Lock()
	defer s.f.mu.Unlock()
	parent, ok := s.f.containers[parentID]
	if !ok {
		return model.ErrNotFound
	}
	child, ok := s.f.containers[childID]
	if !ok {
		return model.ErrNotFound
	}
	parent.Children = addMember(parent.Children, childID)
	child.Parents = addMember(child.Parents, parentID)
	return nil
}

func (s fakeContainers) RemoveEdge(ctx context.Context, parentID, childID string) error {
	s.f.mu.Lock()
	defer s.f.mu.Unlock()
	parent, ok := s.f.containers[parentID]
	if !ok {
		return model.ErrNotFound
	}
	child, ok := s.f.containers[childID]
	if !ok {
		return model.ErrNotFound
	}
	parent.Children = removeMember(parent.Children, childID)
	child.Parents = removeMember(child.Parents, parentID)
	return nil
}

func (s fakeContainers) SearchPrivate(ctx context.Context, ownerID, prefix string, limit int) ([]*model.Container, error) {
	s.f.mu.Lock()
	defer s.f.mu.Unlock()
	var out []*model.Container
	for _, c := range s.f.containers {
		if c.OwnerID == ownerID && strings.HasPrefix(strings.ToLower(c.Name), strings.ToLower(prefix)) {
			cp := *c
			out = append(out, &cp)
		}
	}
	sortByName(out)
	return capped(out, limit), nil
}

func (s fakeContainers) SearchPublic(ctx context.Context, name string, limit int) ([]*model.Container, error) {
	s.f.mu.Lock()
	defer s.f.mu.Unlock()
	var out []*model.Container
	for _, c := range s.f.containers {
		if c.Settings.Scope != model.SettingPublic {
			continue
		}
		prefixHit := c.Settings.Searching == model.SettingPublic && strings.HasPrefix(strings.ToLower(c.Name), strings.ToLower(name))
		exactHit := c.Settings.Searching == model.SettingPrivate && c.Name == name
		if prefixHit || exactHit {
			cp := *c
			out = append(out, &cp)
		}
	}
	sortByName(out)
	return capped(out, limit), nil
}

func (s fakeContainers) All(ctx context.Context) ([]*model.Container, error) {
	s.f.mu.Lock()
	defer s.f.mu.Unlock()
	out := make([]*model.Container, 0, len(s.f.containers))
	for _, c := range s.f.containers {
		cp := *c
		cp.Parents = append([]string(nil), c.Parents...)
		cp.Children = append([]string(nil), c.Children...)
		out = append(out, &cp)
	}
	sortByName(out)
	return out, nil
}

type fakeTopics struct{ f *Fake }

func (s fakeTopics) Create(ctx context.Context, t *model.Topic) (*model.Topic, error) {
	s.f.mu.Lock()
	defer s.f.mu.Unlock()
	for _, existing := range s.f.topics {
		if existing.Name == t.Name {
			return nil, model.ErrNameConflict
		}
	}
	cp := *t
	if cp.TopicID == "" {
		cp.TopicID = uuid.New().String()
	}
	if cp.CreationTime.IsZero() {
		cp.CreationTime = s.f.tick()
	}
	s.f.topics[cp.TopicID] = &cp
	out := cp
	return &out, nil
}

func (s fakeTopics) Get(ctx context.Context, topicID string) (*model.Topic, error) {
	s.f.mu.Lock()
	defer s.f.mu.Unlock()
	t, ok := s.f.topics[topicID]
	if !ok {
		return nil, model.ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (s fakeTopics) Delete(ctx context.Context, topicID string) error {
	s.f.mu.Lock()
	defer s.f.mu.Unlock()
	if _, ok := s.f.topics[topicID]; !ok {
		return model.ErrNotFound
	}
	delete(s.f.topics, topicID)
	return nil
}

func (s fakeTopics) FindByOriginAndDateRange(ctx context.Context, originID string, start, end time.Time) ([]*model.Topic, error) {
	s.f.mu.Lock()
	defer s.f.mu.Unlock()
	var out []*model.Topic
	for _, t := range s.f.topics {
		if t.OriginID != originID {
			continue
		}
		if t.CreationTime.Before(start) || t.CreationTime.After(end) {
			continue
		}
		cp := *t
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreationTime.Equal(out[j].CreationTime) {
			return out[i].CreationTime.Before(out[j].CreationTime)
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

func (s fakeTopics) DeleteByOrigin(ctx context.Context, originID string) error {
	s.f.mu.Lock()
	defer s.f.mu.Unlock()
	for id, t := range s.f.topics {
		if t.OriginID == originID {
			delete(s.f.topics, id)
		}
	}
	return nil
}

type fakeRequests struct{ f *Fake }

func (s fakeRequests) Create(ctx context.Context, r *model.LinkRequest) (*model.LinkRequest, error) {
	s.f.mu.Lock()
	defer s.f.mu.Unlock()
	for _, existing := range s.f.requests {
		if existing.RequestedBy == r.RequestedBy && existing.TargetContainer == r.TargetContainer && existing.Link == r.Link {
			return nil, model.ErrDuplicateRequest
		}
	}
	cp := *r
	if cp.RequestID == "" {
		cp.RequestID = uuid.New().String()
	}
	cp.CreationTime = s.f.tick()
	s.f.requests[cp.RequestID] = &cp
	out := cp
	return &out, nil
}

func (s fakeRequests) Get(ctx context.Context, requestID string) (*model.LinkRequest, error) {
	s.f.mu.Lock()
	defer s.f.mu.Unlock()
	r, ok := s.f.requests[requestID]
	if !ok {
		return nil, model.ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (s fakeRequests) Delete(ctx context.Context, requestID string) error {
	s.f.mu.Lock()
	defer s.f.mu.Unlock()
	if _, ok := s.f.requests[requestID]; !ok {
		return model.ErrNotFound
	}
	delete(s.f.requests, requestID)
	return nil
}

func (s fakeRequests) FindPending(ctx context.Context, requestedBy, targetContainer string, link model.LinkType) (*model.LinkRequest, error) {
	s.f.mu.Lock()
	defer s.f.mu.Unlock()
	for _, r := range s.f.requests {
		if r.RequestedBy == requestedBy && r.TargetContainer == targetContainer && r.Link == link {
			cp := *r
			return &cp, nil
		}
	}
	return nil, model.ErrNotFound
}

func (s fakeRequests) ListByRequester(ctx context.Context, containerID string, link model.LinkType) ([]*model.LinkRequest, error) {
	s.f.mu.Lock()
	defer s.f.mu.Unlock()
	var out []*model.LinkRequest
	for _, r := range s.f.requests {
		if r.RequestedBy == containerID && r.Link == link {
			cp := *r
			out = append(out, &cp)
		}
	}
	sortRequests(out)
	return out, nil
}

func (s fakeRequests) ListByRequestee(ctx context.Context, userID string, link model.LinkType) ([]*model.LinkRequest, error) {
	s.f.mu.Lock()
	defer s.f.mu.Unlock()
	var out []*model.LinkRequest
	for _, r := range s.f.requests {
		if r.RequesteeID == userID && r.Link == link {
			cp := *r
			out = append(out, &cp)
		}
	}
	sortRequests(out)
	return out, nil
}

func addMember(set []string, id string) []string {
	for _, m := range set {
		if m == id {
			return set
		}
	}
	return append(set, id)
}

func removeMember(set []string, id string) []string {
	out := set[:0]
	for _, m := range set {
		if m != id {
			out = append(out, m)
		}
	}
	return out
}

func sortByName(cs []*model.Container) {
	sort.Slice(cs, func(i, j int) bool { return cs[i].Name < cs[j].Name })
}

func sortRequests(rs []*model.LinkRequest) {
	sort.Slice(rs, func(i, j int) bool { return rs[i].CreationTime.Before(rs[j].CreationTime) })
}

func capped(cs []*model.Container, limit int) []*model.Container {
	if limit > 0 && len(cs) > limit {
		return cs[:limit]
	}
	return cs
}
