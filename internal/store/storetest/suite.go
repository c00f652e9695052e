package storetest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/arborhq/arbor/internal/model"
	"github.com/arborhq/arbor/internal/store"
)

// Run exercises a compliance suite against a store.Store implementation.
// Implementations should provide a clean, isolated store from makeStore.
func Run(t *testing.T, makeStore func(t *testing.T) store.Store) {
	t.Helper()

	s := makeStore(t)
	ctx := context.Background()

	// Users
	username := "u" + uuid.New().String()[:8]
	u, err := s.Users().Create(ctx, &model.User{Username: username, PasswordHash: "x"})
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if u.UserID == "" {
		t.Fatalf("CreateUser: empty user id")
	}
	if got, err := s.Users().Get(ctx, u.UserID); err != nil || got.Username != username {
		t.Fatalf("GetUser: got=%v err=%v", got, err)
	}
	if got, err := s.Users().GetByUsername(ctx, username); err != nil || got.UserID != u.UserID {
		t.Fatalf("GetUserByUsername: got=%v err=%v", got, err)
	}
	if _, err := s.Users().Create(ctx, &model.User{Username: username, PasswordHash: "x"}); !errors.Is(err, model.ErrNameConflict) {
		t.Fatalf("duplicate username: want ErrNameConflict, got %v", err)
	}
	if _, err := s.Users().Get(ctx, "no-such-user"); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("GetUser missing: want ErrNotFound, got %v", err)
	}

	priv := model.ContainerSettings{Scope: model.SettingPrivate, GetLink: model.SettingPrivate, PutLink: model.SettingPrivate, Searching: model.SettingPrivate}

	// Containers
	a, err := s.Containers().Create(ctx, &model.Container{OwnerID: u.UserID, Name: "alpha", Settings: priv})
	if err != nil {
		t.Fatalf("CreateContainer a: %v", err)
	}
	b, err := s.Containers().Create(ctx, &model.Container{OwnerID: u.UserID, Name: "beta", Settings: priv})
	if err != nil {
		t.Fatalf("CreateContainer b: %v", err)
	}
	if _, err := s.Containers().Create(ctx, &model.Container{OwnerID: u.UserID, Name: "alpha", Settings: priv}); !errors.Is(err, model.ErrNameConflict) {
		t.Fatalf("duplicate private name: want ErrNameConflict, got %v", err)
	}
	if _, err := s.Containers().Get(ctx, "no-such-container"); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("GetContainer missing: want ErrNotFound, got %v", err)
	}

	// Create ignores caller-supplied edge sets; edges only exist through AddEdge
	seeded, err := s.Containers().Create(ctx, &model.Container{
		OwnerID: u.UserID, Name: "seeded", Settings: priv,
		Parents: []string{"p-x"}, Children: []string{"c-y"},
	})
	if err != nil {
		t.Fatalf("CreateContainer seeded: %v", err)
	}
	if len(seeded.Parents) != 0 || len(seeded.Children) != 0 {
		t.Fatalf("CreateContainer kept edge sets: parents=%v children=%v", seeded.Parents, seeded.Children)
	}
	gotSeeded, err := s.Containers().Get(ctx, seeded.ContainerID)
	if err != nil {
		t.Fatalf("GetContainer seeded: %v", err)
	}
	if len(gotSeeded.Parents) != 0 || len(gotSeeded.Children) != 0 {
		t.Fatalf("GetContainer seeded edge sets: parents=%v children=%v", gotSeeded.Parents, gotSeeded.Children)
	}

	// Edges: both sides must be visible after one AddEdge
	if err := s.Containers().AddEdge(ctx, a.ContainerID, b.ContainerID); err != nil {
		t.Fatalf("AddEdge: %v", err)
	}
	gotA, err := s.Containers().Get(ctx, a.ContainerID)
	if err != nil || !gotA.HasChild(b.ContainerID) {
		t.Fatalf("AddEdge parent side: got=%v err=%v", gotA, err)
	}
	gotB, err := s.Containers().Get(ctx, b.ContainerID)
	if err != nil || !gotB.HasParent(a.ContainerID) {
		t.Fatalf("AddEdge child side: got=%v err=%v", gotB, err)
	}

	// AddEdge is idempotent
	if err := s.Containers().AddEdge(ctx, a.ContainerID, b.ContainerID); err != nil {
		t.Fatalf("AddEdge repeat: %v", err)
	}
	gotA, _ = s.Containers().Get(ctx, a.ContainerID)
	if n := len(gotA.Children); n != 1 {
		t.Fatalf("AddEdge repeat: children=%d, want 1", n)
	}

	if err := s.Containers().AddEdge(ctx, a.ContainerID, "no-such-container"); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("AddEdge missing endpoint: want ErrNotFound, got %v", err)
	}

	if err := s.Containers().RemoveEdge(ctx, a.ContainerID, b.ContainerID); err != nil {
		t.Fatalf("RemoveEdge: %v", err)
	}
	gotA, _ = s.Containers().Get(ctx, a.ContainerID)
	gotB, _ = s.Containers().Get(ctx, b.ContainerID)
	if gotA.HasChild(b.ContainerID) || gotB.HasParent(a.ContainerID) {
		t.Fatalf("RemoveEdge left residue: a=%v b=%v", gotA.Children, gotB.Parents)
	}

	// Link requests
	req, err := s.LinkRequests().Create(ctx, &model.LinkRequest{
		RequestedBy:     a.ContainerID,
		TargetContainer: b.ContainerID,
		RequesteeID:     u.UserID,
		Link:            model.LinkGet,
	})
	if err != nil {
		t.Fatalf("CreateLinkRequest: %v", err)
	}
	if _, err := s.LinkRequests().Create(ctx, &model.LinkRequest{
		RequestedBy:     a.ContainerID,
		TargetContainer: b.ContainerID,
		RequesteeID:     u.UserID,
		Link:            model.LinkGet,
	}); !errors.Is(err, model.ErrDuplicateRequest) {
		t.Fatalf("duplicate request: want ErrDuplicateRequest, got %v", err)
	}
	if got, err := s.LinkRequests().FindPending(ctx, a.ContainerID, b.ContainerID, model.LinkGet); err != nil || got.RequestID != req.RequestID {
		t.Fatalf("FindPending: got=%v err=%v", got, err)
	}
	if lst, err := s.LinkRequests().ListByRequester(ctx, a.ContainerID, model.LinkGet); err != nil || len(lst) != 1 {
		t.Fatalf("ListByRequester: n=%d err=%v", len(lst), err)
	}
	if lst, err := s.LinkRequests().ListByRequestee(ctx, u.UserID, model.LinkGet); err != nil || len(lst) != 1 {
		t.Fatalf("ListByRequestee: n=%d err=%v", len(lst), err)
	}
	if err := s.LinkRequests().Delete(ctx, req.RequestID); err != nil {
		t.Fatalf("DeleteLinkRequest: %v", err)
	}
	if _, err := s.LinkRequests().FindPending(ctx, a.ContainerID, b.ContainerID, model.LinkGet); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("FindPending after delete: want ErrNotFound, got %v", err)
	}

	// Topics, ordered by creation time then name
	t1, err := s.Topics().Create(ctx, &model.Topic{OriginID: a.ContainerID, Name: "zebra-notes", Content: "one"})
	if err != nil {
		t.Fatalf("CreateTopic t1: %v", err)
	}
	time.Sleep(5 * time.Millisecond) // monotonic creation time ordering
	t2, err := s.Topics().Create(ctx, &model.Topic{OriginID: a.ContainerID, Name: "apple-notes", Content: "two"})
	if err != nil {
		t.Fatalf("CreateTopic t2: %v", err)
	}
	if _, err := s.Topics().Create(ctx, &model.Topic{OriginID: b.ContainerID, Name: "zebra-notes", Content: "dup"}); !errors.Is(err, model.ErrNameConflict) {
		t.Fatalf("duplicate topic name: want ErrNameConflict, got %v", err)
	}

	window := model.TimeRange{Start: t1.CreationTime.Add(-time.Minute), End: t2.CreationTime.Add(time.Minute)}
	topics, err := s.Topics().FindByOriginAndDateRange(ctx, a.ContainerID, window.Start, window.End)
	if err != nil || len(topics) != 2 {
		t.Fatalf("FindByOriginAndDateRange: n=%d err=%v", len(topics), err)
	}
	if topics[0].TopicID != t1.TopicID || topics[1].TopicID != t2.TopicID {
		t.Fatalf("FindByOriginAndDateRange order: got %s, %s", topics[0].Name, topics[1].Name)
	}

	// Window excludes out-of-range topics
	narrow, err := s.Topics().FindByOriginAndDateRange(ctx, a.ContainerID, t2.CreationTime, t2.CreationTime.Add(time.Minute))
	if err != nil || len(narrow) != 1 || narrow[0].TopicID != t2.TopicID {
		t.Fatalf("FindByOriginAndDateRange window: n=%d err=%v", len(narrow), err)
	}

	if err := s.Topics().DeleteByOrigin(ctx, a.ContainerID); err != nil {
		t.Fatalf("DeleteByOrigin: %v", err)
	}
	if _, err := s.Topics().Get(ctx, t1.TopicID); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("GetTopic after DeleteByOrigin: want ErrNotFound, got %v", err)
	}

	// Container search
	pub := model.ContainerSettings{Scope: model.SettingPublic, GetLink: model.SettingPublic, PutLink: model.SettingPublic, Searching: model.SettingPublic}
	if _, err := s.Containers().Create(ctx, &model.Container{OwnerID: u.UserID, Name: "garden-shared", Settings: pub}); err != nil {
		t.Fatalf("CreateContainer public: %v", err)
	}
	hidden := model.ContainerSettings{Scope: model.SettingPublic, GetLink: model.SettingPublic, PutLink: model.SettingPublic, Searching: model.SettingPrivate}
	if _, err := s.Containers().Create(ctx, &model.Container{OwnerID: u.UserID, Name: "garden-hidden", Settings: hidden}); err != nil {
		t.Fatalf("CreateContainer hidden: %v", err)
	}

	if res, err := s.Containers().SearchPrivate(ctx, u.UserID, "alph", 10); err != nil || len(res) != 1 || res[0].ContainerID != a.ContainerID {
		t.Fatalf("SearchPrivate: n=%d err=%v", len(res), err)
	}
	// Prefix finds only the prefix-searchable container
	if res, err := s.Containers().SearchPublic(ctx, "garden", 10); err != nil || len(res) != 1 || res[0].Name != "garden-shared" {
		t.Fatalf("SearchPublic prefix: n=%d err=%v", len(res), err)
	}
	// Exact name still finds the one with a private searching gate
	if res, err := s.Containers().SearchPublic(ctx, "garden-hidden", 10); err != nil || len(res) != 1 || res[0].Name != "garden-hidden" {
		t.Fatalf("SearchPublic exact: n=%d err=%v", len(res), err)
	}

	// LIKE metacharacters in the prefix match literally
	if _, err := s.Containers().Create(ctx, &model.Container{OwnerID: u.UserID, Name: "wild_card", Settings: priv}); err != nil {
		t.Fatalf("CreateContainer wild_card: %v", err)
	}
	if _, err := s.Containers().Create(ctx, &model.Container{OwnerID: u.UserID, Name: "wildxcard", Settings: priv}); err != nil {
		t.Fatalf("CreateContainer wildxcard: %v", err)
	}
	if res, err := s.Containers().SearchPrivate(ctx, u.UserID, "wild_", 10); err != nil || len(res) != 1 || res[0].Name != "wild_card" {
		t.Fatalf("SearchPrivate underscore prefix: n=%d err=%v", len(res), err)
	}
	if res, err := s.Containers().SearchPrivate(ctx, u.UserID, "%", 10); err != nil || len(res) != 0 {
		t.Fatalf("SearchPrivate percent prefix: n=%d err=%v", len(res), err)
	}

	// All, for the reconciliation scan
	all, err := s.Containers().All(ctx)
	if err != nil || len(all) < 4 {
		t.Fatalf("All: n=%d err=%v", len(all), err)
	}

	// Delete container record
	if err := s.Containers().Delete(ctx, b.ContainerID); err != nil {
		t.Fatalf("DeleteContainer: %v", err)
	}
	if _, err := s.Containers().Get(ctx, b.ContainerID); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("GetContainer after delete: want ErrNotFound, got %v", err)
	}
	if err := s.Containers().Delete(ctx, b.ContainerID); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("DeleteContainer repeat: want ErrNotFound, got %v", err)
	}
}
