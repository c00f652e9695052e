package api

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/arborhq/arbor/internal/api/respond"
	"github.com/arborhq/arbor/internal/api/validate"
	"github.com/arborhq/arbor/internal/auth"
	"github.com/arborhq/arbor/internal/model"
	"github.com/arborhq/arbor/internal/services"
)

// ContainerHandler provides HTTP transport for container operations.
type ContainerHandler struct {
	containers *services.ContainerService
}

func NewContainerHandler(svc *services.ContainerService) *ContainerHandler {
	return &ContainerHandler{containers: svc}
}

// CreateContainer POST /containers
func (h *ContainerHandler) CreateContainer(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		respond.WriteForbidden(w, "no authenticated user")
		return
	}

	var req struct {
		Name     string                  `json:"name"`
		Settings model.ContainerSettings `json:"settings"`
		Parents  []string                `json:"parents,omitempty"`
		Children []string                `json:"children,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.WriteBadRequest(w, "Invalid JSON")
		return
	}
	if err := validate.ContainerName(req.Name); err != nil {
		respond.WriteBadRequest(w, err.Error())
		return
	}

	c, err := h.containers.CreateContainer(r.Context(), services.CreateContainerRequest{
		OwnerID:  ownerID,
		Name:     req.Name,
		Settings: req.Settings,
		Parents:  req.Parents,
		Children: req.Children,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusCreated, c)
}

// GetContainer GET /containers/{containerId}
func (h *ContainerHandler) GetContainer(w http.ResponseWriter, r *http.Request) {
	containerID := mux.Vars(r)["containerId"]
	c, err := h.containers.GetContainer(r.Context(), containerID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, c)
}

// DeleteContainer POST /containers/delete
func (h *ContainerHandler) DeleteContainer(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		respond.WriteForbidden(w, "no authenticated user")
		return
	}

	var req struct {
		ContainerID string `json:"containerId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.WriteBadRequest(w, "Invalid JSON")
		return
	}
	if err := validate.NonEmpty("containerId", req.ContainerID); err != nil {
		respond.WriteBadRequest(w, err.Error())
		return
	}

	c, err := h.containers.GetContainer(r.Context(), req.ContainerID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if c.OwnerID != userID {
		respond.WriteForbidden(w, "only the owner may delete a container")
		return
	}

	if err := h.containers.DeleteContainer(r.Context(), req.ContainerID); err != nil {
		writeDomainError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]string{"message": "container deleted"})
}

// SearchPrivate POST /containersearch/private
func (h *ContainerHandler) SearchPrivate(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		respond.WriteForbidden(w, "no authenticated user")
		return
	}

	var req struct {
		Prefix string `json:"prefix"`
		Limit  int    `json:"limit,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.WriteBadRequest(w, "Invalid JSON")
		return
	}
	res, err := h.containers.SearchPrivate(r.Context(), userID, req.Prefix, req.Limit)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{"containers": res, "count": len(res)})
}

// SearchPublic POST /containersearch/public
func (h *ContainerHandler) SearchPublic(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Prefix string `json:"prefix"`
		Limit  int    `json:"limit,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.WriteBadRequest(w, "Invalid JSON")
		return
	}
	res, err := h.containers.SearchPublic(r.Context(), req.Prefix, req.Limit)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{"containers": res, "count": len(res)})
}
