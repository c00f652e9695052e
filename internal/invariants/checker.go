// Package invariants checks the graph's structural contract: for every
// pair (A, B), A is in B's parents iff B is in A's children, and every
// edge endpoint resolves to a live container. Edge mutations are
// transactional, so violations should only appear after partial
// restores or external edits; the checker both detects and heals them.
package invariants

import (
	"context"
	"fmt"

	"github.com/arborhq/arbor/internal/model"
	"github.com/arborhq/arbor/internal/store"
)

// ViolationKind classifies a structural defect.
type ViolationKind string

const (
	// MissingChild: A lists B as child but B does not list A as parent.
	MissingChild ViolationKind = "missing-child-backref"
	// MissingParent: A lists B as parent but B does not list A as child.
	MissingParent ViolationKind = "missing-parent-backref"
	// DanglingEdge: an edge endpoint does not resolve to a container.
	DanglingEdge ViolationKind = "dangling-edge"
)

// Violation describes one asymmetric or dangling edge.
type Violation struct {
	Kind     ViolationKind
	ParentID string
	ChildID  string
}

func (v Violation) String() string {
	return fmt.Sprintf("%s: parent=%s child=%s", v.Kind, v.ParentID, v.ChildID)
}

// Checker scans the graph store for invariant violations.
type Checker struct {
	store store.Store
}

func NewChecker(s store.Store) *Checker { return &Checker{store: s} }

// Scan loads every container and reports all violations found.
func (c *Checker) Scan(ctx context.Context) ([]Violation, error) {
	all, err := c.store.Containers().All(ctx)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]*model.Container, len(all))
	for _, ct := range all {
		byID[ct.ContainerID] = ct
	}

	var out []Violation
	for _, ct := range all {
		for _, childID := range ct.Children {
			child, ok := byID[childID]
			if !ok {
				out = append(out, Violation{Kind: DanglingEdge, ParentID: ct.ContainerID, ChildID: childID})
				continue
			}
			if !child.HasParent(ct.ContainerID) {
				out = append(out, Violation{Kind: MissingChild, ParentID: ct.ContainerID, ChildID: childID})
			}
		}
		for _, parentID := range ct.Parents {
			parent, ok := byID[parentID]
			if !ok {
				out = append(out, Violation{Kind: DanglingEdge, ParentID: parentID, ChildID: ct.ContainerID})
				continue
			}
			if !parent.HasChild(ct.ContainerID) {
				out = append(out, Violation{Kind: MissingParent, ParentID: parentID, ChildID: ct.ContainerID})
			}
		}
	}
	return out, nil
}

// Repair heals asymmetric edges by completing them through the shared
// edge routine; AddEdge is a set operation, so the side already present
// is untouched. Dangling edges are reported but not auto-repaired,
// since removal would need a one-sided write and the right fix (drop
// the edge vs. restore the container) is an operator call. Returns the
// number of repairs applied.
func (c *Checker) Repair(ctx context.Context, violations []Violation) (int, error) {
	n := 0
	for _, v := range violations {
		if v.Kind != MissingChild && v.Kind != MissingParent {
			continue
		}
		if err := c.store.Containers().AddEdge(ctx, v.ParentID, v.ChildID); err != nil {
			return n, fmt.Errorf("repair %s: %w", v, err)
		}
		n++
	}
	return n, nil
}
