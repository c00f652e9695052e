package invariants

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arborhq/arbor/internal/model"
	"github.com/arborhq/arbor/internal/store/storetest"
)

func seedContainer(t *testing.T, f *storetest.Fake, name string, parents, children []string) *model.Container {
	t.Helper()
	c, err := f.Containers().Create(context.Background(), &model.Container{
		OwnerID: "owner-1",
		Name:    name,
		Settings: model.ContainerSettings{
			Scope: model.SettingPrivate, GetLink: model.SettingPrivate,
			PutLink: model.SettingPrivate, Searching: model.SettingPrivate,
		},
	})
	require.NoError(t, err)
	// One-sided writes, bypassing AddEdge, to stage broken graphs.
	require.True(t, f.SetEdges(c.ContainerID, parents, children))
	return c
}

func TestScanCleanGraph(t *testing.T) {
	f := storetest.NewFake()
	a := seedContainer(t, f, "a", nil, nil)
	b := seedContainer(t, f, "b", nil, nil)
	require.NoError(t, f.Containers().AddEdge(context.Background(), a.ContainerID, b.ContainerID))

	violations, err := NewChecker(f).Scan(context.Background())
	require.NoError(t, err)
	require.Empty(t, violations)
}

func TestScanFindsAsymmetricEdges(t *testing.T) {
	f := storetest.NewFake()
	b := seedContainer(t, f, "b", nil, nil)
	// a claims b as child, but b has no matching parent entry.
	a := seedContainer(t, f, "a", nil, []string{b.ContainerID})
	// c claims a as parent, but a has no matching child entry.
	c := seedContainer(t, f, "c", []string{a.ContainerID}, nil)

	violations, err := NewChecker(f).Scan(context.Background())
	require.NoError(t, err)
	require.Len(t, violations, 2)

	kinds := map[ViolationKind]Violation{}
	for _, v := range violations {
		kinds[v.Kind] = v
	}
	require.Equal(t, Violation{Kind: MissingChild, ParentID: a.ContainerID, ChildID: b.ContainerID}, kinds[MissingChild])
	require.Equal(t, Violation{Kind: MissingParent, ParentID: a.ContainerID, ChildID: c.ContainerID}, kinds[MissingParent])
}

func TestScanFindsDanglingEdges(t *testing.T) {
	f := storetest.NewFake()
	a := seedContainer(t, f, "a", nil, []string{"ghost"})

	violations, err := NewChecker(f).Scan(context.Background())
	require.NoError(t, err)
	require.Equal(t, []Violation{{Kind: DanglingEdge, ParentID: a.ContainerID, ChildID: "ghost"}}, violations)
}

func TestRepairCompletesAsymmetricEdges(t *testing.T) {
	f := storetest.NewFake()
	ctx := context.Background()
	b := seedContainer(t, f, "b", nil, nil)
	a := seedContainer(t, f, "a", nil, []string{b.ContainerID})

	checker := NewChecker(f)
	violations, err := checker.Scan(ctx)
	require.NoError(t, err)
	require.Len(t, violations, 1)

	healed, err := checker.Repair(ctx, violations)
	require.NoError(t, err)
	require.Equal(t, 1, healed)

	after, err := checker.Scan(ctx)
	require.NoError(t, err)
	require.Empty(t, after)

	gotB, _ := f.Containers().Get(ctx, b.ContainerID)
	require.True(t, gotB.HasParent(a.ContainerID))
}

func TestRepairSkipsDanglingEdges(t *testing.T) {
	f := storetest.NewFake()
	ctx := context.Background()
	seedContainer(t, f, "a", nil, []string{"ghost"})

	checker := NewChecker(f)
	violations, err := checker.Scan(ctx)
	require.NoError(t, err)

	healed, err := checker.Repair(ctx, violations)
	require.NoError(t, err)
	require.Zero(t, healed)
}
