package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arborhq/arbor/internal/events"
	"github.com/arborhq/arbor/internal/model"
	"github.com/arborhq/arbor/internal/store/storetest"
)

type linkFixture struct {
	store *storetest.Fake
	svc   *LinkService
	bus   *events.Bus
}

func newLinkFixture(t *testing.T) *linkFixture {
	t.Helper()
	f := storetest.NewFake()
	bus := events.NewBus(16)
	return &linkFixture{store: f, svc: NewLinkService(f, bus), bus: bus}
}

func (fx *linkFixture) container(t *testing.T, owner, name string, getGate, putGate model.Setting) *model.Container {
	t.Helper()
	c, err := fx.store.Containers().Create(context.Background(), &model.Container{
		OwnerID: owner,
		Name:    name,
		Settings: model.ContainerSettings{
			Scope: model.SettingPrivate, GetLink: getGate,
			PutLink: putGate, Searching: model.SettingPrivate,
		},
	})
	require.NoError(t, err)
	return c
}

func TestRequestGetLinkPublicGateLinksDirectly(t *testing.T) {
	fx := newLinkFixture(t)
	child := fx.container(t, "alice", "child", model.SettingPrivate, model.SettingPrivate)
	parent := fx.container(t, "bob", "parent", model.SettingPublic, model.SettingPrivate)

	res, err := fx.svc.RequestGetLink(context.Background(), child.ContainerID, parent.ContainerID, "alice")
	require.NoError(t, err)
	require.Equal(t, StatusLinked, res.Status)
	require.Nil(t, res.Request)

	got, err := fx.store.Containers().Get(context.Background(), child.ContainerID)
	require.NoError(t, err)
	require.True(t, got.HasParent(parent.ContainerID))

	evt := <-fx.bus.Subscribe()
	require.Equal(t, events.EventContainersLinked, evt.Kind)
}

func TestRequestGetLinkIsIdempotent(t *testing.T) {
	fx := newLinkFixture(t)
	child := fx.container(t, "alice", "child", model.SettingPrivate, model.SettingPrivate)
	parent := fx.container(t, "bob", "parent", model.SettingPublic, model.SettingPrivate)

	_, err := fx.svc.RequestGetLink(context.Background(), child.ContainerID, parent.ContainerID, "alice")
	require.NoError(t, err)
	res, err := fx.svc.RequestGetLink(context.Background(), child.ContainerID, parent.ContainerID, "alice")
	require.NoError(t, err)
	require.Equal(t, StatusLinked, res.Status)

	got, _ := fx.store.Containers().Get(context.Background(), child.ContainerID)
	require.Len(t, got.Parents, 1)
}

func TestRequestGetLinkPrivateGateFilesRequest(t *testing.T) {
	fx := newLinkFixture(t)
	child := fx.container(t, "alice", "child", model.SettingPrivate, model.SettingPrivate)
	parent := fx.container(t, "bob", "parent", model.SettingPrivate, model.SettingPrivate)

	res, err := fx.svc.RequestGetLink(context.Background(), child.ContainerID, parent.ContainerID, "alice")
	require.NoError(t, err)
	require.Equal(t, StatusRequested, res.Status)
	require.NotNil(t, res.Request)
	require.Equal(t, "bob", res.Request.RequesteeID)
	require.Equal(t, model.LinkGet, res.Request.Link)

	// No edge yet.
	got, _ := fx.store.Containers().Get(context.Background(), child.ContainerID)
	require.Empty(t, got.Parents)
}

func TestRequestGetLinkDuplicateRequest(t *testing.T) {
	fx := newLinkFixture(t)
	child := fx.container(t, "alice", "child", model.SettingPrivate, model.SettingPrivate)
	parent := fx.container(t, "bob", "parent", model.SettingPrivate, model.SettingPrivate)

	_, err := fx.svc.RequestGetLink(context.Background(), child.ContainerID, parent.ContainerID, "alice")
	require.NoError(t, err)
	_, err = fx.svc.RequestGetLink(context.Background(), child.ContainerID, parent.ContainerID, "alice")
	require.ErrorIs(t, err, model.ErrDuplicateRequest)
}

func TestRequestGetLinkRequiresOwnership(t *testing.T) {
	fx := newLinkFixture(t)
	child := fx.container(t, "alice", "child", model.SettingPrivate, model.SettingPrivate)
	parent := fx.container(t, "bob", "parent", model.SettingPublic, model.SettingPrivate)

	_, err := fx.svc.RequestGetLink(context.Background(), child.ContainerID, parent.ContainerID, "mallory")
	require.ErrorIs(t, err, model.ErrForbidden)
}

func TestRequestGetLinkMissingContainer(t *testing.T) {
	fx := newLinkFixture(t)
	child := fx.container(t, "alice", "child", model.SettingPrivate, model.SettingPrivate)

	_, err := fx.svc.RequestGetLink(context.Background(), child.ContainerID, "no-such", "alice")
	require.ErrorIs(t, err, model.ErrNotFound)
}

func TestRequestPutLinkPublicGateLinksDirectly(t *testing.T) {
	fx := newLinkFixture(t)
	parent := fx.container(t, "alice", "parent", model.SettingPrivate, model.SettingPrivate)
	child := fx.container(t, "bob", "child", model.SettingPrivate, model.SettingPublic)

	res, err := fx.svc.RequestPutLink(context.Background(), parent.ContainerID, child.ContainerID, "alice")
	require.NoError(t, err)
	require.Equal(t, StatusLinked, res.Status)

	got, _ := fx.store.Containers().Get(context.Background(), parent.ContainerID)
	require.True(t, got.HasChild(child.ContainerID))
}

func TestRequestPutLinkPrivateGateFilesRequest(t *testing.T) {
	fx := newLinkFixture(t)
	parent := fx.container(t, "alice", "parent", model.SettingPrivate, model.SettingPrivate)
	child := fx.container(t, "bob", "child", model.SettingPrivate, model.SettingPrivate)

	res, err := fx.svc.RequestPutLink(context.Background(), parent.ContainerID, child.ContainerID, "alice")
	require.NoError(t, err)
	require.Equal(t, StatusRequested, res.Status)
	require.Equal(t, "bob", res.Request.RequesteeID)
	require.Equal(t, model.LinkPut, res.Request.Link)
}

func TestAcceptLinkRequestGetLink(t *testing.T) {
	fx := newLinkFixture(t)
	child := fx.container(t, "alice", "child", model.SettingPrivate, model.SettingPrivate)
	parent := fx.container(t, "bob", "parent", model.SettingPrivate, model.SettingPrivate)

	res, err := fx.svc.RequestGetLink(context.Background(), child.ContainerID, parent.ContainerID, "alice")
	require.NoError(t, err)

	require.NoError(t, fx.svc.AcceptLinkRequest(context.Background(), res.Request.RequestID))

	// Target becomes the parent for getLink.
	gotChild, _ := fx.store.Containers().Get(context.Background(), child.ContainerID)
	require.True(t, gotChild.HasParent(parent.ContainerID))

	// Request is consumed.
	_, err = fx.store.LinkRequests().Get(context.Background(), res.Request.RequestID)
	require.ErrorIs(t, err, model.ErrNotFound)
}

func TestAcceptLinkRequestPutLink(t *testing.T) {
	fx := newLinkFixture(t)
	parent := fx.container(t, "alice", "parent", model.SettingPrivate, model.SettingPrivate)
	child := fx.container(t, "bob", "child", model.SettingPrivate, model.SettingPrivate)

	res, err := fx.svc.RequestPutLink(context.Background(), parent.ContainerID, child.ContainerID, "alice")
	require.NoError(t, err)

	require.NoError(t, fx.svc.AcceptLinkRequest(context.Background(), res.Request.RequestID))

	// Roles invert for putLink: the requester becomes the parent.
	gotParent, _ := fx.store.Containers().Get(context.Background(), parent.ContainerID)
	require.True(t, gotParent.HasChild(child.ContainerID))
}

func TestAcceptLinkRequestAlreadyLinked(t *testing.T) {
	fx := newLinkFixture(t)
	child := fx.container(t, "alice", "child", model.SettingPrivate, model.SettingPrivate)
	parent := fx.container(t, "bob", "parent", model.SettingPrivate, model.SettingPrivate)

	res, err := fx.svc.RequestGetLink(context.Background(), child.ContainerID, parent.ContainerID, "alice")
	require.NoError(t, err)

	// The edge appears out of band before the approval lands.
	require.NoError(t, fx.store.Containers().AddEdge(context.Background(), parent.ContainerID, child.ContainerID))

	err = fx.svc.AcceptLinkRequest(context.Background(), res.Request.RequestID)
	require.ErrorIs(t, err, model.ErrAlreadyLinked)
}

func TestAcceptLinkRequestMissing(t *testing.T) {
	fx := newLinkFixture(t)
	err := fx.svc.AcceptLinkRequest(context.Background(), "no-such-request")
	require.ErrorIs(t, err, model.ErrNotFound)
}

func TestCancelLinkRequest(t *testing.T) {
	fx := newLinkFixture(t)
	child := fx.container(t, "alice", "child", model.SettingPrivate, model.SettingPrivate)
	parent := fx.container(t, "bob", "parent", model.SettingPrivate, model.SettingPrivate)

	res, err := fx.svc.RequestGetLink(context.Background(), child.ContainerID, parent.ContainerID, "alice")
	require.NoError(t, err)

	require.NoError(t, fx.svc.CancelLinkRequest(context.Background(), res.Request.RequestID))

	// Cancelling never creates an edge.
	got, _ := fx.store.Containers().Get(context.Background(), child.ContainerID)
	require.Empty(t, got.Parents)

	// A fresh request can now be filed.
	_, err = fx.svc.RequestGetLink(context.Background(), child.ContainerID, parent.ContainerID, "alice")
	require.NoError(t, err)
}

func TestUnlinkGetRemovesBothSides(t *testing.T) {
	fx := newLinkFixture(t)
	child := fx.container(t, "alice", "child", model.SettingPrivate, model.SettingPrivate)
	parent := fx.container(t, "bob", "parent", model.SettingPublic, model.SettingPrivate)

	_, err := fx.svc.RequestGetLink(context.Background(), child.ContainerID, parent.ContainerID, "alice")
	require.NoError(t, err)

	require.NoError(t, fx.svc.UnlinkGet(context.Background(), child.ContainerID, parent.ContainerID))

	gotChild, _ := fx.store.Containers().Get(context.Background(), child.ContainerID)
	gotParent, _ := fx.store.Containers().Get(context.Background(), parent.ContainerID)
	require.Empty(t, gotChild.Parents)
	require.Empty(t, gotParent.Children)
}

func TestUnlinkGetNoSuchLink(t *testing.T) {
	fx := newLinkFixture(t)
	child := fx.container(t, "alice", "child", model.SettingPrivate, model.SettingPrivate)
	parent := fx.container(t, "bob", "parent", model.SettingPublic, model.SettingPrivate)

	err := fx.svc.UnlinkGet(context.Background(), child.ContainerID, parent.ContainerID)
	require.ErrorIs(t, err, model.ErrNoSuchLink)
}

func TestUnlinkPutNoSuchLink(t *testing.T) {
	fx := newLinkFixture(t)
	parent := fx.container(t, "alice", "parent", model.SettingPrivate, model.SettingPrivate)
	child := fx.container(t, "bob", "child", model.SettingPrivate, model.SettingPublic)

	err := fx.svc.UnlinkPut(context.Background(), parent.ContainerID, child.ContainerID)
	require.ErrorIs(t, err, model.ErrNoSuchLink)
}

func TestRequestListings(t *testing.T) {
	fx := newLinkFixture(t)
	child := fx.container(t, "alice", "child", model.SettingPrivate, model.SettingPrivate)
	parent := fx.container(t, "bob", "parent", model.SettingPrivate, model.SettingPrivate)

	res, err := fx.svc.RequestGetLink(context.Background(), child.ContainerID, parent.ContainerID, "alice")
	require.NoError(t, err)

	byRequester, err := fx.svc.RequestsInitiatedBy(context.Background(), child.ContainerID, model.LinkGet)
	require.NoError(t, err)
	require.Len(t, byRequester, 1)
	require.Equal(t, res.Request.RequestID, byRequester[0].RequestID)

	// The listing is addressed to the target owner, not the target container.
	toBob, err := fx.svc.RequestsTargeting(context.Background(), "bob", model.LinkGet)
	require.NoError(t, err)
	require.Len(t, toBob, 1)

	toAlice, err := fx.svc.RequestsTargeting(context.Background(), "alice", model.LinkGet)
	require.NoError(t, err)
	require.Empty(t, toAlice)

	_, err = fx.svc.RequestsInitiatedBy(context.Background(), child.ContainerID, model.LinkType("sideways"))
	require.ErrorIs(t, err, model.ErrInvalidLinkType)
	_, err = fx.svc.RequestsTargeting(context.Background(), "bob", model.LinkType("sideways"))
	require.ErrorIs(t, err, model.ErrInvalidLinkType)
}
