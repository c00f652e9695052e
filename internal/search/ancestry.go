// Package search implements the upward breadth-first topic search over
// the container graph.
package search

import (
	"context"
	"errors"

	"github.com/arborhq/arbor/internal/model"
	"github.com/arborhq/arbor/internal/store"
)

// AncestrySearcher walks the graph upward from a starting container,
// collecting topics from the container and its transitive parents. The
// traversal never mutates the graph.
type AncestrySearcher struct {
	store store.Store
}

func NewAncestrySearcher(s store.Store) *AncestrySearcher {
	return &AncestrySearcher{store: s}
}

// SearchAncestry runs a FIFO breadth-first traversal through parent
// edges, bounded by MaxResults, the time window, and the avoid set.
//
// Ordering is deterministic: containers are visited in BFS order with
// parents enqueued in stored edge order, and each container's topics
// arrive from the store ordered by creation time then name. The
// MaxResults check runs at the start of each dequeue, so the last
// visited container may push the collection over the cap; the final
// truncation enforces the hard bound.
//
// Containers reachable only through an avoided ancestor are never
// visited: the avoid set is checked at enqueue time. Missing containers
// are skipped without error. Cancelling ctx aborts between dequeues.
func (s *AncestrySearcher) SearchAncestry(ctx context.Context, req model.AncestrySearchRequest) ([]*model.Topic, error) {
	if req.StartContainerID == "" || req.MaxResults <= 0 {
		return nil, model.ErrValidation
	}

	avoid := make(map[string]bool, len(req.Avoid))
	for _, id := range req.Avoid {
		avoid[id] = true
	}

	queue := []string{req.StartContainerID}
	visited := make(map[string]bool)
	var results []*model.Topic

	for len(queue) > 0 && len(results) < req.MaxResults {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		currentID := queue[0]
		queue = queue[1:]
		if visited[currentID] {
			continue
		}
		visited[currentID] = true

		container, err := s.store.Containers().Get(ctx, currentID)
		if errors.Is(err, model.ErrNotFound) {
			// A dangling parent reference is not the searcher's problem.
			continue
		}
		if err != nil {
			return nil, err
		}

		topics, err := s.store.Topics().FindByOriginAndDateRange(ctx, currentID, req.TimeRange.Start, req.TimeRange.End)
		if err != nil {
			return nil, err
		}
		results = append(results, topics...)

		for _, parentID := range container.Parents {
			if !avoid[parentID] && !visited[parentID] {
				queue = append(queue, parentID)
			}
		}
	}

	if len(results) > req.MaxResults {
		results = results[:req.MaxResults]
	}
	return results, nil
}
