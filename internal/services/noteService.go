package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"highway/internal/metrics"
	"highway/internal/models"
	"highway/internal/repositories"
)

const (
	noteTitleMaxLen   = 200
	noteContentMaxLen = 10000
)

// NoteService is ownership-scoped note management; every operation is keyed by
// the authenticated author so users can never touch each other's notes.
type NoteService interface {
	GetNotes(ctx context.Context, authorID primitive.ObjectID) ([]models.Note, error)
	AddNote(ctx context.Context, authorID primitive.ObjectID, body models.AddNoteRequestBody) (*models.Note, error)
	GetNoteByID(ctx context.Context, authorID, noteID primitive.ObjectID) (*models.Note, error)
	UpdateNote(ctx context.Context, authorID, noteID primitive.ObjectID, body models.UpdateNoteRequestBody) (*models.Note, error)
	DeleteNote(ctx context.Context, authorID, noteID primitive.ObjectID) error
}

type noteService struct {
	noteRepo repositories.NoteRepository
}

func NewNoteService(noteRepo repositories.NoteRepository) NoteService {
	return &noteService{noteRepo: noteRepo}
}

func validateTitle(title string) (string, error) {
	title = strings.TrimSpace(title)
	if len(title) < 1 || len(title) > noteTitleMaxLen {
		return "", fmt.Errorf("%w: title must be between 1 and %d characters", ErrValidation, noteTitleMaxLen)
	}
	return title, nil
}

func validateContent(content string) (string, error) {
	content = strings.TrimSpace(content)
	if len(content) < 1 || len(content) > noteContentMaxLen {
		return "", fmt.Errorf("%w: content must be between 1 and %d characters", ErrValidation, noteContentMaxLen)
	}
	return content, nil
}

func (s *noteService) GetNotes(ctx context.Context, authorID primitive.ObjectID) ([]models.Note, error) {
	return s.noteRepo.FindByAuthor(ctx, authorID)
}

func (s *noteService) AddNote(ctx context.Context, authorID primitive.ObjectID, body models.AddNoteRequestBody) (*models.Note, error) {
	title, err := validateTitle(body.Title)
	if err != nil {
		return nil, err
	}
	content, err := validateContent(body.Content)
	if err != nil {
		return nil, err
	}

	note := &models.Note{
		Title:   title,
		Content: content,
		Author:  authorID,
	}

	created, err := s.noteRepo.Create(ctx, note)
	if err != nil {
		return nil, err
	}

	metrics.NoteCreatedTotal.Inc()
	log.Info().Str("note_id", created.ID.Hex()).Str("author", authorID.Hex()).Msg("Note created")
	return created, nil
}

func (s *noteService) GetNoteByID(ctx context.Context, authorID, noteID primitive.ObjectID) (*models.Note, error) {
	note, err := s.noteRepo.FindByIDAndAuthor(ctx, noteID, authorID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNoteNotFound
		}
		return nil, err
	}
	return note, nil
}

func (s *noteService) UpdateNote(ctx context.Context, authorID, noteID primitive.ObjectID, body models.UpdateNoteRequestBody) (*models.Note, error) {
	updateFields := bson.M{}
	if body.Title != nil {
		title, err := validateTitle(*body.Title)
		if err != nil {
			return nil, err
		}
		updateFields["title"] = title
	}
	if body.Content != nil {
		content, err := validateContent(*body.Content)
		if err != nil {
			return nil, err
		}
		updateFields["content"] = content
	}

	if len(updateFields) == 0 {
		return nil, fmt.Errorf("%w: no valid fields provided for update", ErrValidation)
	}

	result, err := s.noteRepo.Update(ctx, noteID, authorID, updateFields)
	if err != nil {
		return nil, err
	}
	if result.MatchedCount == 0 {
		return nil, ErrNoteNotFound
	}

	return s.GetNoteByID(ctx, authorID, noteID)
}

func (s *noteService) DeleteNote(ctx context.Context, authorID, noteID primitive.ObjectID) error {
	result, err := s.noteRepo.Delete(ctx, noteID, authorID)
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return ErrNoteNotFound
	}

	log.Info().Str("note_id", noteID.Hex()).Msg("Note deleted")
	return nil
}
