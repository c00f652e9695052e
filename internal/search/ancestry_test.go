package search

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/arborhq/arbor/internal/model"
	"github.com/arborhq/arbor/internal/store/storetest"
)

var wideWindow = model.TimeRange{
	Start: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	End:   time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC),
}

func mkContainer(t *testing.T, f *storetest.Fake, name string) string {
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
	return c.ContainerID
}

func mkEdge(t *testing.T, f *storetest.Fake, parentID, childID string) {
	t.Helper()
	require.NoError(t, f.Containers().AddEdge(context.Background(), parentID, childID))
}

func mkTopic(t *testing.T, f *storetest.Fake, originID, name string) *model.Topic {
	t.Helper()
	topic, err := f.Topics().Create(context.Background(), &model.Topic{OriginID: originID, Name: name, Content: "c"})
	require.NoError(t, err)
	return topic
}

func TestSearchAncestryWalksParentChain(t *testing.T) {
	f := storetest.NewFake()
	root := mkContainer(t, f, "root")
	mid := mkContainer(t, f, "mid")
	leaf := mkContainer(t, f, "leaf")
	mkEdge(t, f, root, mid)
	mkEdge(t, f, mid, leaf)

	mkTopic(t, f, root, "root-a")
	mkTopic(t, f, root, "root-b")
	mkTopic(t, f, mid, "mid-a")
	mkTopic(t, f, leaf, "leaf-a")
	mkTopic(t, f, leaf, "leaf-b")

	got, err := NewAncestrySearcher(f).SearchAncestry(context.Background(), model.AncestrySearchRequest{
		StartContainerID: leaf,
		MaxResults:       10,
		TimeRange:        wideWindow,
	})
	require.NoError(t, err)

	names := topicNames(got)
	// Start container first, then each ancestor level in BFS order.
	require.Equal(t, []string{"leaf-a", "leaf-b", "mid-a", "root-a", "root-b"}, names)
}

func TestSearchAncestryAvoidSetPrunesSubtree(t *testing.T) {
	f := storetest.NewFake()
	root := mkContainer(t, f, "root")
	mid := mkContainer(t, f, "mid")
	leaf := mkContainer(t, f, "leaf")
	mkEdge(t, f, root, mid)
	mkEdge(t, f, mid, leaf)

	mkTopic(t, f, root, "root-a")
	mkTopic(t, f, mid, "mid-a")
	mkTopic(t, f, leaf, "leaf-a")

	got, err := NewAncestrySearcher(f).SearchAncestry(context.Background(), model.AncestrySearchRequest{
		StartContainerID: leaf,
		MaxResults:       10,
		TimeRange:        wideWindow,
		Avoid:            []string{mid},
	})
	require.NoError(t, err)

	// Avoiding mid also cuts off root, reachable only through mid.
	require.Equal(t, []string{"leaf-a"}, topicNames(got))
}

func TestSearchAncestryDiamondVisitsOnce(t *testing.T) {
	f := storetest.NewFake()
	top := mkContainer(t, f, "top")
	left := mkContainer(t, f, "left")
	right := mkContainer(t, f, "right")
	bottom := mkContainer(t, f, "bottom")
	mkEdge(t, f, top, left)
	mkEdge(t, f, top, right)
	mkEdge(t, f, left, bottom)
	mkEdge(t, f, right, bottom)

	mkTopic(t, f, top, "top-a")

	got, err := NewAncestrySearcher(f).SearchAncestry(context.Background(), model.AncestrySearchRequest{
		StartContainerID: bottom,
		MaxResults:       10,
		TimeRange:        wideWindow,
	})
	require.NoError(t, err)

	// top is reachable via both left and right but contributes once.
	require.Equal(t, []string{"top-a"}, topicNames(got))
}

func TestSearchAncestryCapsResults(t *testing.T) {
	f := storetest.NewFake()
	root := mkContainer(t, f, "root")
	leaf := mkContainer(t, f, "leaf")
	mkEdge(t, f, root, leaf)

	mkTopic(t, f, leaf, "leaf-a")
	mkTopic(t, f, leaf, "leaf-b")
	mkTopic(t, f, root, "root-a")

	got, err := NewAncestrySearcher(f).SearchAncestry(context.Background(), model.AncestrySearchRequest{
		StartContainerID: leaf,
		MaxResults:       2,
		TimeRange:        wideWindow,
	})
	require.NoError(t, err)
	require.Equal(t, []string{"leaf-a", "leaf-b"}, topicNames(got))
}

func TestSearchAncestryTruncatesOverCap(t *testing.T) {
	f := storetest.NewFake()
	leaf := mkContainer(t, f, "leaf")

	// A single dequeue collects all three topics, overshooting the cap.
	mkTopic(t, f, leaf, "leaf-a")
	mkTopic(t, f, leaf, "leaf-b")
	mkTopic(t, f, leaf, "leaf-c")

	got, err := NewAncestrySearcher(f).SearchAncestry(context.Background(), model.AncestrySearchRequest{
		StartContainerID: leaf,
		MaxResults:       2,
		TimeRange:        wideWindow,
	})
	require.NoError(t, err)
	require.Equal(t, []string{"leaf-a", "leaf-b"}, topicNames(got))
}

func TestSearchAncestryTimeWindow(t *testing.T) {
	f := storetest.NewFake()
	leaf := mkContainer(t, f, "leaf")

	early := mkTopic(t, f, leaf, "early")
	late := mkTopic(t, f, leaf, "late")

	got, err := NewAncestrySearcher(f).SearchAncestry(context.Background(), model.AncestrySearchRequest{
		StartContainerID: leaf,
		MaxResults:       10,
		TimeRange:        model.TimeRange{Start: late.CreationTime, End: late.CreationTime},
	})
	require.NoError(t, err)
	require.Equal(t, []string{"late"}, topicNames(got))
	require.True(t, early.CreationTime.Before(late.CreationTime))
}

func TestSearchAncestrySkipsMissingParents(t *testing.T) {
	f := storetest.NewFake()
	root := mkContainer(t, f, "root")
	leaf := mkContainer(t, f, "leaf")
	mkEdge(t, f, root, leaf)
	mkTopic(t, f, leaf, "leaf-a")
	mkTopic(t, f, root, "root-a")

	// Simulate a dangling parent reference.
	require.NoError(t, f.Containers().Delete(context.Background(), root))

	got, err := NewAncestrySearcher(f).SearchAncestry(context.Background(), model.AncestrySearchRequest{
		StartContainerID: leaf,
		MaxResults:       10,
		TimeRange:        wideWindow,
	})
	require.NoError(t, err)
	require.Equal(t, []string{"leaf-a"}, topicNames(got))
}

func TestSearchAncestryValidation(t *testing.T) {
	f := storetest.NewFake()
	s := NewAncestrySearcher(f)

	_, err := s.SearchAncestry(context.Background(), model.AncestrySearchRequest{MaxResults: 5, TimeRange: wideWindow})
	require.ErrorIs(t, err, model.ErrValidation)

	_, err = s.SearchAncestry(context.Background(), model.AncestrySearchRequest{StartContainerID: "x", MaxResults: 0, TimeRange: wideWindow})
	require.ErrorIs(t, err, model.ErrValidation)
}

func TestSearchAncestryCancelledContext(t *testing.T) {
	f := storetest.NewFake()
	leaf := mkContainer(t, f, "leaf")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewAncestrySearcher(f).SearchAncestry(ctx, model.AncestrySearchRequest{
		StartContainerID: leaf,
		MaxResults:       10,
		TimeRange:        wideWindow,
	})
	require.True(t, errors.Is(err, context.Canceled))
}

func topicNames(topics []*model.Topic) []string {
	names := make([]string, 0, len(topics))
	for _, tp := range topics {
		names = append(names, tp.Name)
	}
	return names
}
