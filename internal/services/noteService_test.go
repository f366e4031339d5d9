package services

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"highway/internal/models"
)

type mockNoteRepository struct {
	mock.Mock
}

func (m *mockNoteRepository) Create(ctx context.Context, note *models.Note) (*models.Note, error) {
	args := m.Called(ctx, note)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Note), args.Error(1)
}

func (m *mockNoteRepository) FindByAuthor(ctx context.Context, authorID primitive.ObjectID) ([]models.Note, error) {
	args := m.Called(ctx, authorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Note), args.Error(1)
}

func (m *mockNoteRepository) FindByIDAndAuthor(ctx context.Context, noteID, authorID primitive.ObjectID) (*models.Note, error) {
	args := m.Called(ctx, noteID, authorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Note), args.Error(1)
}

func (m *mockNoteRepository) Update(ctx context.Context, noteID, authorID primitive.ObjectID, updateFields bson.M) (*mongo.UpdateResult, error) {
	args := m.Called(ctx, noteID, authorID, updateFields)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*mongo.UpdateResult), args.Error(1)
}

func (m *mockNoteRepository) Delete(ctx context.Context, noteID, authorID primitive.ObjectID) (*mongo.DeleteResult, error) {
	args := m.Called(ctx, noteID, authorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*mongo.DeleteResult), args.Error(1)
}

func TestAddNoteValidation(t *testing.T) {
	svc := NewNoteService(&mockNoteRepository{})
	authorID := primitive.NewObjectID()

	tests := []struct {
		name string
		body models.AddNoteRequestBody
	}{
		{"empty title", models.AddNoteRequestBody{Title: "   ", Content: "hello"}},
		{"empty content", models.AddNoteRequestBody{Title: "Groceries", Content: ""}},
		{"title too long", models.AddNoteRequestBody{Title: strings.Repeat("x", 201), Content: "hello"}},
		{"content too long", models.AddNoteRequestBody{Title: "Groceries", Content: strings.Repeat("x", 10001)}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.AddNote(context.Background(), authorID, tc.body)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
}

func TestAddNoteTrimsAndStores(t *testing.T) {
	authorID := primitive.NewObjectID()
	repo := &mockNoteRepository{}
	repo.On("Create", mock.Anything, mock.MatchedBy(func(n *models.Note) bool {
		return n.Title == "Groceries" && n.Content == "milk, eggs" && n.Author == authorID
	})).Return(&models.Note{ID: primitive.NewObjectID(), Title: "Groceries", Content: "milk, eggs", Author: authorID}, nil)

	svc := NewNoteService(repo)

	note, err := svc.AddNote(context.Background(), authorID, models.AddNoteRequestBody{
		Title:   "  Groceries  ",
		Content: " milk, eggs ",
	})
	require.NoError(t, err)
	assert.Equal(t, "Groceries", note.Title)
	repo.AssertExpectations(t)
}

func TestGetNoteByIDNotOwned(t *testing.T) {
	authorID := primitive.NewObjectID()
	noteID := primitive.NewObjectID()
	repo := &mockNoteRepository{}
	repo.On("FindByIDAndAuthor", mock.Anything, noteID, authorID).Return(nil, mongo.ErrNoDocuments)

	svc := NewNoteService(repo)

	_, err := svc.GetNoteByID(context.Background(), authorID, noteID)
	assert.ErrorIs(t, err, ErrNoteNotFound)
}

func TestUpdateNoteNoFields(t *testing.T) {
	svc := NewNoteService(&mockNoteRepository{})

	_, err := svc.UpdateNote(context.Background(), primitive.NewObjectID(), primitive.NewObjectID(), models.UpdateNoteRequestBody{})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestUpdateNoteNotMatched(t *testing.T) {
	authorID := primitive.NewObjectID()
	noteID := primitive.NewObjectID()
	title := "New title"

	repo := &mockNoteRepository{}
	repo.On("Update", mock.Anything, noteID, authorID, mock.Anything).
		Return(&mongo.UpdateResult{MatchedCount: 0}, nil)

	svc := NewNoteService(repo)

	_, err := svc.UpdateNote(context.Background(), authorID, noteID, models.UpdateNoteRequestBody{Title: &title})
	assert.ErrorIs(t, err, ErrNoteNotFound)
}

func TestUpdateNoteReturnsFreshCopy(t *testing.T) {
	authorID := primitive.NewObjectID()
	noteID := primitive.NewObjectID()
	title := "New title"

	repo := &mockNoteRepository{}
	repo.On("Update", mock.Anything, noteID, authorID, bson.M{"title": "New title"}).
		Return(&mongo.UpdateResult{MatchedCount: 1, ModifiedCount: 1}, nil)
	repo.On("FindByIDAndAuthor", mock.Anything, noteID, authorID).
		Return(&models.Note{ID: noteID, Title: "New title", Content: "unchanged", Author: authorID}, nil)

	svc := NewNoteService(repo)

	note, err := svc.UpdateNote(context.Background(), authorID, noteID, models.UpdateNoteRequestBody{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, "New title", note.Title)
	repo.AssertExpectations(t)
}

func TestDeleteNoteNotOwned(t *testing.T) {
	authorID := primitive.NewObjectID()
	noteID := primitive.NewObjectID()

	repo := &mockNoteRepository{}
	repo.On("Delete", mock.Anything, noteID, authorID).Return(&mongo.DeleteResult{DeletedCount: 0}, nil)

	svc := NewNoteService(repo)

	err := svc.DeleteNote(context.Background(), authorID, noteID)
	assert.ErrorIs(t, err, ErrNoteNotFound)
}

func TestDeleteNoteOK(t *testing.T) {
	authorID := primitive.NewObjectID()
	noteID := primitive.NewObjectID()

	repo := &mockNoteRepository{}
	repo.On("Delete", mock.Anything, noteID, authorID).Return(&mongo.DeleteResult{DeletedCount: 1}, nil)

	svc := NewNoteService(repo)

	assert.NoError(t, svc.DeleteNote(context.Background(), authorID, noteID))
}
