package services

import (
	"context"

	"github.com/arborhq/arbor/internal/model"
	"github.com/arborhq/arbor/internal/store"
)

// TopicService anchors topics to containers.
type TopicService struct {
	store store.Store
}

func NewTopicService(s store.Store) *TopicService { return &TopicService{store: s} }

// CreateTopic stores a topic after verifying the origin container
// exists. Topic names are globally unique.
func (s *TopicService) CreateTopic(ctx context.Context, originID, name, content string) (*model.Topic, error) {
	if originID == "" || name == "" || content == "" {
		return nil, model.ErrValidation
	}
	if _, err := s.store.Containers().Get(ctx, originID); err != nil {
		return nil, err
	}
	return s.store.Topics().Create(ctx, &model.Topic{OriginID: originID, Name: name, Content: content})
}

func (s *TopicService) GetTopic(ctx context.Context, topicID string) (*model.Topic, error) {
	return s.store.Topics().Get(ctx, topicID)
}

func (s *TopicService) DeleteTopic(ctx context.Context, topicID string) error {
	return s.store.Topics().Delete(ctx, topicID)
}
