package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"auth-gateway/internal/model"
)

type DocumentStore interface {
	List(ctx context.Context, search string) ([]model.Document, error)
	FindByID(ctx context.Context, id int64) (model.Document, error)
	Create(ctx context.Context, d model.Document) (model.Document, error)
}

type DocumentService struct {
	docs DocumentStore
}

func NewDocumentService(docs DocumentStore) *DocumentService {
	return &DocumentService{docs: docs}
}

func (s *DocumentService) List(ctx context.Context, search string) ([]model.Document, error) {
	docs, err := s.docs.List(ctx, strings.TrimSpace(search))
	if err != nil {
		return nil, err
	}

	slog.Info("documents listed", "count", len(docs), "search", search)
	return docs, nil
}

func (s *DocumentService) Get(ctx context.Context, id int64) (model.Document, error) {
	return s.docs.FindByID(ctx, id)
}

func (s *DocumentService) Create(ctx context.Context, userID int64, req model.CreateDocumentRequest) (model.Document, error) {
	if strings.TrimSpace(req.Title) == "" {
		return model.Document{}, fmt.Errorf("%w: title is required", model.ErrInvalidInput)
	}

	doc, err := s.docs.Create(ctx, model.Document{
		Title:    req.Title,
		Content:  req.Content,
		Category: req.Category,
		UserID:   userID,
	})
	if err != nil {
		return model.Document{}, err
	}

	slog.Info("document created", "document_id", doc.ID, "user_id", userID)
	return doc, nil
}
