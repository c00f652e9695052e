package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/arborhq/arbor/internal/events"
	"github.com/arborhq/arbor/internal/model"
	"github.com/arborhq/arbor/internal/policy"
	"github.com/arborhq/arbor/internal/store"
)

// LinkStatus tells a caller whether a link attempt produced an edge or
// a pending request.
type LinkStatus string

const (
	// StatusLinked means the edge exists after the call.
	StatusLinked LinkStatus = "linked"
	// StatusRequested means a pending request was filed for approval.
	StatusRequested LinkStatus = "requested"
)

// LinkResult is the outcome of RequestGetLink / RequestPutLink.
type LinkResult struct {
	Status  LinkStatus         `json:"status"`
	Request *model.LinkRequest `json:"request,omitempty"`
}

// LinkService orchestrates direct linking versus request/approval for
// the two gated link operations, and owns the pending-request ledger.
type LinkService struct {
	store store.Store
	bus   *events.Bus // optional
}

func NewLinkService(s store.Store, bus *events.Bus) *LinkService {
	return &LinkService{store: s, bus: bus}
}

func (s *LinkService) publish(evt events.Event) {
	if s.bus != nil {
		s.bus.Publish(evt)
	}
}

// RequestGetLink attaches the initiating container as a child of
// parentID. The parent's getLink gate decides: public links directly,
// private files a request. The requester must own the initiating
// container.
func (s *LinkService) RequestGetLink(ctx context.Context, containerID, parentID, requesterID string) (*LinkResult, error) {
	container, err := s.store.Containers().Get(ctx, containerID)
	if err != nil {
		return nil, err
	}
	parent, err := s.store.Containers().Get(ctx, parentID)
	if err != nil {
		return nil, err
	}
	if container.OwnerID != requesterID {
		return nil, model.ErrForbidden
	}
	return s.link(ctx, container, parent, parent, model.LinkGet, parent.Settings.GetLink)
}

// RequestPutLink attaches childID under the initiating container. The
// child's putLink gate decides.
func (s *LinkService) RequestPutLink(ctx context.Context, containerID, childID, requesterID string) (*LinkResult, error) {
	container, err := s.store.Containers().Get(ctx, containerID)
	if err != nil {
		return nil, err
	}
	child, err := s.store.Containers().Get(ctx, childID)
	if err != nil {
		return nil, err
	}
	if container.OwnerID != requesterID {
		return nil, model.ErrForbidden
	}
	return s.link(ctx, container, child, container, model.LinkPut, child.Settings.PutLink)
}

// link resolves the gate decision for both operations. initiator is the
// container acting, target is the gate owner, parent is whichever of
// the two ends up on the parent side of the edge.
func (s *LinkService) link(ctx context.Context, initiator, target, parent *model.Container, lt model.LinkType, gate model.Setting) (*LinkResult, error) {
	child := initiator
	if parent == initiator {
		child = target
	}

	if policy.Decide(gate) == policy.RequiresApproval {
		_, err := s.store.LinkRequests().FindPending(ctx, initiator.ContainerID, target.ContainerID, lt)
		switch {
		case err == nil:
			return nil, model.ErrDuplicateRequest
		case !errors.Is(err, model.ErrNotFound):
			return nil, err
		}
		req, err := s.store.LinkRequests().Create(ctx, &model.LinkRequest{
			RequestedBy:     initiator.ContainerID,
			TargetContainer: target.ContainerID,
			RequesteeID:     target.OwnerID,
			Link:            lt,
		})
		if err != nil {
			return nil, err
		}
		s.publish(events.Event{
			Kind:        events.EventLinkRequested,
			ParentID:    parent.ContainerID,
			ChildID:     child.ContainerID,
			RequestID:   req.RequestID,
			RequesteeID: req.RequesteeID,
		})
		return &LinkResult{Status: StatusRequested, Request: req}, nil
	}

	// Direct path. AddEdge has set semantics, so re-linking an existing
	// edge succeeds without duplicating it.
	if err := s.store.Containers().AddEdge(ctx, parent.ContainerID, child.ContainerID); err != nil {
		return nil, err
	}
	s.publish(events.Event{
		Kind:     events.EventContainersLinked,
		ParentID: parent.ContainerID,
		ChildID:  child.ContainerID,
	})
	return &LinkResult{Status: StatusLinked}, nil
}

// AcceptLinkRequest creates the requested edge and deletes the request,
// in that order, so a crash can leave a stale request but never an
// accepted request with no edge.
func (s *LinkService) AcceptLinkRequest(ctx context.Context, requestID string) error {
	req, err := s.store.LinkRequests().Get(ctx, requestID)
	if err != nil {
		return err
	}
	if !req.Link.Valid() {
		return model.ErrInvalidLinkType
	}

	// For getLink the target is the parent; for putLink roles invert.
	parentID, childID := req.TargetContainer, req.RequestedBy
	if req.Link == model.LinkPut {
		parentID, childID = req.RequestedBy, req.TargetContainer
	}

	child, err := s.store.Containers().Get(ctx, childID)
	if err != nil {
		return err
	}
	if _, err := s.store.Containers().Get(ctx, parentID); err != nil {
		return err
	}
	if child.HasParent(parentID) {
		return model.ErrAlreadyLinked
	}

	if err := s.store.Containers().AddEdge(ctx, parentID, childID); err != nil {
		return err
	}
	if err := s.store.LinkRequests().Delete(ctx, requestID); err != nil {
		return fmt.Errorf("edge created but request not removed: %w", err)
	}
	s.publish(events.Event{
		Kind:      events.EventLinkAccepted,
		ParentID:  parentID,
		ChildID:   childID,
		RequestID: requestID,
	})
	return nil
}

// CancelLinkRequest deletes a pending request. No container state is
// touched.
func (s *LinkService) CancelLinkRequest(ctx context.Context, requestID string) error {
	return s.store.LinkRequests().Delete(ctx, requestID)
}

// UnlinkGet removes the edge between a container and one of its
// parents. The edge must currently exist.
func (s *LinkService) UnlinkGet(ctx context.Context, containerID, parentID string) error {
	container, err := s.store.Containers().Get(ctx, containerID)
	if err != nil {
		return err
	}
	if _, err := s.store.Containers().Get(ctx, parentID); err != nil {
		return err
	}
	if !container.HasParent(parentID) {
		return model.ErrNoSuchLink
	}
	if err := s.store.Containers().RemoveEdge(ctx, parentID, containerID); err != nil {
		return err
	}
	s.publish(events.Event{Kind: events.EventLinkRemoved, ParentID: parentID, ChildID: containerID})
	return nil
}

// UnlinkPut removes the edge between a container and one of its
// children.
func (s *LinkService) UnlinkPut(ctx context.Context, containerID, childID string) error {
	container, err := s.store.Containers().Get(ctx, containerID)
	if err != nil {
		return err
	}
	if _, err := s.store.Containers().Get(ctx, childID); err != nil {
		return err
	}
	if !container.HasChild(childID) {
		return model.ErrNoSuchLink
	}
	if err := s.store.Containers().RemoveEdge(ctx, containerID, childID); err != nil {
		return err
	}
	s.publish(events.Event{Kind: events.EventLinkRemoved, ParentID: containerID, ChildID: childID})
	return nil
}

// RequestsInitiatedBy lists pending requests filed on behalf of the
// given container, filtered by link type.
func (s *LinkService) RequestsInitiatedBy(ctx context.Context, containerID string, lt model.LinkType) ([]*model.LinkRequest, error) {
	if !lt.Valid() {
		return nil, model.ErrInvalidLinkType
	}
	return s.store.LinkRequests().ListByRequester(ctx, containerID, lt)
}

// RequestsTargeting lists pending requests awaiting the given user's
// approval, filtered by link type.
func (s *LinkService) RequestsTargeting(ctx context.Context, userID string, lt model.LinkType) ([]*model.LinkRequest, error) {
	if !lt.Valid() {
		return nil, model.ErrInvalidLinkType
	}
	return s.store.LinkRequests().ListByRequestee(ctx, userID, lt)
}
