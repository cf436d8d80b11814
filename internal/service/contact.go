package service

import (
	"context"

	"github.com/and161185/village-mart/internal/model"
	"github.com/and161185/village-mart/internal/repository"
)

// ContactService accepts visitor messages. Content is stored as given.
type ContactService interface {
	Submit(ctx context.Context, name, message string) (model.ContactMessage, error)
}

type ContactServiceImpl struct {
	repo repository.ContactRepository
}

func NewContactService(repo repository.ContactRepository) *ContactServiceImpl {
	return &ContactServiceImpl{repo: repo}
}

func (s *ContactServiceImpl) Submit(ctx context.Context, name, message string) (model.ContactMessage, error) {
	return s.repo.Create(ctx, name, message)
}
