package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arborhq/arbor/internal/model"
	"github.com/arborhq/arbor/internal/store/storetest"
)

func privateSettings() model.ContainerSettings {
	return model.ContainerSettings{
		Scope: model.SettingPrivate, GetLink: model.SettingPrivate,
		PutLink: model.SettingPrivate, Searching: model.SettingPrivate,
	}
}

func TestCreateContainerWiresInitialEdges(t *testing.T) {
	f := storetest.NewFake()
	svc := NewContainerService(f)
	ctx := context.Background()

	parent, err := svc.CreateContainer(ctx, CreateContainerRequest{OwnerID: "alice", Name: "parent", Settings: privateSettings()})
	require.NoError(t, err)
	child, err := svc.CreateContainer(ctx, CreateContainerRequest{OwnerID: "alice", Name: "child", Settings: privateSettings()})
	require.NoError(t, err)

	mid, err := svc.CreateContainer(ctx, CreateContainerRequest{
		OwnerID:  "alice",
		Name:     "mid",
		Settings: privateSettings(),
		Parents:  []string{parent.ContainerID},
		Children: []string{child.ContainerID},
	})
	require.NoError(t, err)
	require.Equal(t, []string{parent.ContainerID}, mid.Parents)
	require.Equal(t, []string{child.ContainerID}, mid.Children)

	// Both sides of each edge are stored.
	gotParent, _ := f.Containers().Get(ctx, parent.ContainerID)
	require.True(t, gotParent.HasChild(mid.ContainerID))
	gotChild, _ := f.Containers().Get(ctx, child.ContainerID)
	require.True(t, gotChild.HasParent(mid.ContainerID))
}

func TestCreateContainerRejectsDanglingNeighbors(t *testing.T) {
	f := storetest.NewFake()
	svc := NewContainerService(f)

	_, err := svc.CreateContainer(context.Background(), CreateContainerRequest{
		OwnerID:  "alice",
		Name:     "orphaned",
		Settings: privateSettings(),
		Parents:  []string{"no-such-container"},
	})
	require.ErrorIs(t, err, model.ErrDanglingReference)

	// Nothing was written.
	all, _ := f.Containers().All(context.Background())
	require.Empty(t, all)
}

func TestCreateContainerValidation(t *testing.T) {
	svc := NewContainerService(storetest.NewFake())
	ctx := context.Background()

	_, err := svc.CreateContainer(ctx, CreateContainerRequest{Name: "x", Settings: privateSettings()})
	require.ErrorIs(t, err, model.ErrValidation)

	_, err = svc.CreateContainer(ctx, CreateContainerRequest{OwnerID: "alice", Settings: privateSettings()})
	require.ErrorIs(t, err, model.ErrValidation)

	_, err = svc.CreateContainer(ctx, CreateContainerRequest{
		OwnerID: "alice", Name: "x",
		Settings: model.ContainerSettings{Scope: "sideways", GetLink: model.SettingPrivate, PutLink: model.SettingPrivate, Searching: model.SettingPrivate},
	})
	require.ErrorIs(t, err, model.ErrValidation)
}

func TestCreateContainerNameConflict(t *testing.T) {
	svc := NewContainerService(storetest.NewFake())
	ctx := context.Background()

	_, err := svc.CreateContainer(ctx, CreateContainerRequest{OwnerID: "alice", Name: "dup", Settings: privateSettings()})
	require.NoError(t, err)
	_, err = svc.CreateContainer(ctx, CreateContainerRequest{OwnerID: "alice", Name: "dup", Settings: privateSettings()})
	require.ErrorIs(t, err, model.ErrNameConflict)
}

func TestDeleteContainerCascade(t *testing.T) {
	f := storetest.NewFake()
	svc := NewContainerService(f)
	ctx := context.Background()

	parent, err := svc.CreateContainer(ctx, CreateContainerRequest{OwnerID: "alice", Name: "parent", Settings: privateSettings()})
	require.NoError(t, err)
	child, err := svc.CreateContainer(ctx, CreateContainerRequest{OwnerID: "alice", Name: "child", Settings: privateSettings()})
	require.NoError(t, err)
	mid, err := svc.CreateContainer(ctx, CreateContainerRequest{
		OwnerID: "alice", Name: "mid", Settings: privateSettings(),
		Parents: []string{parent.ContainerID}, Children: []string{child.ContainerID},
	})
	require.NoError(t, err)

	topic, err := f.Topics().Create(ctx, &model.Topic{OriginID: mid.ContainerID, Name: "anchored", Content: "x"})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteContainer(ctx, mid.ContainerID))

	_, err = f.Containers().Get(ctx, mid.ContainerID)
	require.ErrorIs(t, err, model.ErrNotFound)
	_, err = f.Topics().Get(ctx, topic.TopicID)
	require.ErrorIs(t, err, model.ErrNotFound)

	// Neighbors no longer reference the deleted node.
	gotParent, _ := f.Containers().Get(ctx, parent.ContainerID)
	require.False(t, gotParent.HasChild(mid.ContainerID))
	gotChild, _ := f.Containers().Get(ctx, child.ContainerID)
	require.False(t, gotChild.HasParent(mid.ContainerID))
}

func TestDeleteContainerMissing(t *testing.T) {
	svc := NewContainerService(storetest.NewFake())
	err := svc.DeleteContainer(context.Background(), "no-such-container")
	require.ErrorIs(t, err, model.ErrNotFound)
}

func TestSearchPrivateAndPublic(t *testing.T) {
	f := storetest.NewFake()
	svc := NewContainerService(f)
	ctx := context.Background()

	_, err := svc.CreateContainer(ctx, CreateContainerRequest{OwnerID: "alice", Name: "garden-notes", Settings: privateSettings()})
	require.NoError(t, err)
	_, err = svc.CreateContainer(ctx, CreateContainerRequest{
		OwnerID: "bob", Name: "garden-shared",
		Settings: model.ContainerSettings{Scope: model.SettingPublic, GetLink: model.SettingPublic, PutLink: model.SettingPublic, Searching: model.SettingPublic},
	})
	require.NoError(t, err)

	mine, err := svc.SearchPrivate(ctx, "alice", "garden", 0)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	require.Equal(t, "garden-notes", mine[0].Name)

	pub, err := svc.SearchPublic(ctx, "garden", 0)
	require.NoError(t, err)
	require.Len(t, pub, 1)
	require.Equal(t, "garden-shared", pub[0].Name)

	_, err = svc.SearchPrivate(ctx, "alice", "", 0)
	require.ErrorIs(t, err, model.ErrValidation)
	_, err = svc.SearchPublic(ctx, "", 0)
	require.ErrorIs(t, err, model.ErrValidation)
}
