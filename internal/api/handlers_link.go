package api

import (
	"encoding/json"
	"net/http"

	"github.com/arborhq/arbor/internal/api/respond"
	"github.com/arborhq/arbor/internal/api/validate"
	"github.com/arborhq/arbor/internal/auth"
	"github.com/arborhq/arbor/internal/model"
	"github.com/arborhq/arbor/internal/services"
)

// LinkHandler provides HTTP transport for the link workflow.
type LinkHandler struct {
	links *services.LinkService
}

func NewLinkHandler(svc *services.LinkService) *LinkHandler {
	return &LinkHandler{links: svc}
}

// GetLink POST /link/getlink
func (h *LinkHandler) GetLink(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		respond.WriteForbidden(w, "no authenticated user")
		return
	}
	var req struct {
		ContainerID string `json:"containerId"`
		ParentID    string `json:"parentId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.WriteBadRequest(w, "Invalid JSON")
		return
	}
	if err := validate.NonEmpty("containerId", req.ContainerID); err != nil {
		respond.WriteBadRequest(w, err.Error())
		return
	}
	if err := validate.NonEmpty("parentId", req.ParentID); err != nil {
		respond.WriteBadRequest(w, err.Error())
		return
	}

	res, err := h.links.RequestGetLink(r.Context(), req.ContainerID, req.ParentID, userID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	// A filed request is a new resource; a direct link is not.
	status := http.StatusOK
	if res.Status == services.StatusRequested {
		status = http.StatusCreated
	}
	respond.WriteJSON(w, status, res)
}

// PutLink POST /link/putlink
func (h *LinkHandler) PutLink(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		respond.WriteForbidden(w, "no authenticated user")
		return
	}
	var req struct {
		ContainerID string `json:"containerId"`
		ChildID     string `json:"childId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.WriteBadRequest(w, "Invalid JSON")
		return
	}
	if err := validate.NonEmpty("containerId", req.ContainerID); err != nil {
		respond.WriteBadRequest(w, err.Error())
		return
	}
	if err := validate.NonEmpty("childId", req.ChildID); err != nil {
		respond.WriteBadRequest(w, err.Error())
		return
	}

	res, err := h.links.RequestPutLink(r.Context(), req.ContainerID, req.ChildID, userID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	status := http.StatusOK
	if res.Status == services.StatusRequested {
		status = http.StatusCreated
	}
	respond.WriteJSON(w, status, res)
}

// UnlinkGet POST /link/unlinkget
func (h *LinkHandler) UnlinkGet(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ContainerID string `json:"containerId"`
		ParentID    string `json:"parentId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.WriteBadRequest(w, "Invalid JSON")
		return
	}
	if err := h.links.UnlinkGet(r.Context(), req.ContainerID, req.ParentID); err != nil {
		writeDomainError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]string{"message": "getLink removed"})
}

// UnlinkPut POST /link/unlinkput
func (h *LinkHandler) UnlinkPut(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ContainerID string `json:"containerId"`
		ChildID     string `json:"childId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.WriteBadRequest(w, "Invalid JSON")
		return
	}
	if err := h.links.UnlinkPut(r.Context(), req.ContainerID, req.ChildID); err != nil {
		writeDomainError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]string{"message": "putLink removed"})
}

// RequestsMadeByMe POST /link/madebyme
func (h *LinkHandler) RequestsMadeByMe(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ContainerID string         `json:"containerId"`
		LinkType    model.LinkType `json:"linkType"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.WriteBadRequest(w, "Invalid JSON")
		return
	}
	res, err := h.links.RequestsInitiatedBy(r.Context(), req.ContainerID, req.LinkType)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{"requests": res, "count": len(res)})
}

// RequestsMadeToMe POST /link/madetome
func (h *LinkHandler) RequestsMadeToMe(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		respond.WriteForbidden(w, "no authenticated user")
		return
	}
	var req struct {
		LinkType model.LinkType `json:"linkType"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.WriteBadRequest(w, "Invalid JSON")
		return
	}
	res, err := h.links.RequestsTargeting(r.Context(), userID, req.LinkType)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{"requests": res, "count": len(res)})
}

// AcceptLinkRequest POST /link/accept
func (h *LinkHandler) AcceptLinkRequest(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RequestID string `json:"requestId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.WriteBadRequest(w, "Invalid JSON")
		return
	}
	if err := h.links.AcceptLinkRequest(r.Context(), req.RequestID); err != nil {
		writeDomainError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]string{"message": "link request accepted"})
}

// CancelLinkRequest POST /link/cancel
func (h *LinkHandler) CancelLinkRequest(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RequestID string `json:"requestId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.WriteBadRequest(w, "Invalid JSON")
		return
	}
	if err := h.links.CancelLinkRequest(r.Context(), req.RequestID); err != nil {
		writeDomainError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]string{"message": "link request canceled"})
}
