package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/arborhq/arbor/internal/api/respond"
	"github.com/arborhq/arbor/internal/api/validate"
	"github.com/arborhq/arbor/internal/model"
	"github.com/arborhq/arbor/internal/search"
	"github.com/arborhq/arbor/internal/services"
)

// TopicHandler provides HTTP transport for topics and ancestry search.
type TopicHandler struct {
	topics   *services.TopicService
	searcher *search.AncestrySearcher
}

func NewTopicHandler(topics *services.TopicService, searcher *search.AncestrySearcher) *TopicHandler {
	return &TopicHandler{topics: topics, searcher: searcher}
}

// CreateTopic POST /topics
func (h *TopicHandler) CreateTopic(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Origin  string `json:"origin"`
		Name    string `json:"name"`
		Content string `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.WriteBadRequest(w, "Invalid JSON")
		return
	}
	if err := validate.TopicName(req.Name); err != nil {
		respond.WriteBadRequest(w, err.Error())
		return
	}
	t, err := h.topics.CreateTopic(r.Context(), req.Origin, req.Name, req.Content)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusCreated, t)
}

// DeleteTopic DELETE /topics/{topicId}
func (h *TopicHandler) DeleteTopic(w http.ResponseWriter, r *http.Request) {
	topicID := mux.Vars(r)["topicId"]
	if err := h.topics.DeleteTopic(r.Context(), topicID); err != nil {
		writeDomainError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]string{"message": "topic deleted"})
}

// SearchTopics POST /topicsearch
func (h *TopicHandler) SearchTopics(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ContainerID     string    `json:"containerId"`
		NumberOfTopics  int       `json:"numberOfTopics"`
		TimeRange       timeRange `json:"timeRange"`
		AvoidContainers []string  `json:"avoidContainers,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.WriteBadRequest(w, "Invalid JSON")
		return
	}
	if req.ContainerID == "" {
		respond.WriteBadRequest(w, "containerId is required")
		return
	}
	if req.NumberOfTopics <= 0 {
		respond.WriteBadRequest(w, "numberOfTopics must be positive")
		return
	}

	topics, err := h.searcher.SearchAncestry(r.Context(), model.AncestrySearchRequest{
		StartContainerID: req.ContainerID,
		MaxResults:       req.NumberOfTopics,
		TimeRange:        model.TimeRange{Start: req.TimeRange.Start, End: req.TimeRange.End},
		Avoid:            req.AvoidContainers,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{"topics": topics, "count": len(topics)})
}

type timeRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}
