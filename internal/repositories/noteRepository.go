package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"highway/internal/models"
	"highway/internal/utils"
)

type NoteRepository interface {
	Create(ctx context.Context, note *models.Note) (*models.Note, error)
	FindByAuthor(ctx context.Context, authorID primitive.ObjectID) ([]models.Note, error)
	FindByIDAndAuthor(ctx context.Context, noteID, authorID primitive.ObjectID) (*models.Note, error)
	Update(ctx context.Context, noteID, authorID primitive.ObjectID, updateFields bson.M) (*mongo.UpdateResult, error)
	Delete(ctx context.Context, noteID, authorID primitive.ObjectID) (*mongo.DeleteResult, error)
}

type noteRepository struct {
	collection *mongo.Collection
}

func NewNoteRepository(db *mongo.Database) NoteRepository {
	return &noteRepository{collection: db.Collection("notes")}
}

func (r *noteRepository) observe(queryType string, status *string) func() time.Duration {
	timer := prometheus.NewTimer(prometheus.ObserverFunc(func(v float64) {
		utils.DBQueryDurationSeconds.WithLabelValues(queryType, "note", *status).Observe(v)
	}))
	return timer.ObserveDuration
}

func (r *noteRepository) Create(ctx context.Context, note *models.Note) (*models.Note, error) {
	queryType := "create"
	status := "success"
	defer r.observe(queryType, &status)()

	note.ID = primitive.NewObjectID()
	note.CreatedAt = time.Now()
	note.UpdatedAt = note.CreatedAt

	_, err := r.collection.InsertOne(ctx, note)
	if err != nil {
		status = "error"
		utils.DBQueryErrorsTotal.WithLabelValues(queryType, "note").Inc()
		log.Error().Err(err).Str("author", note.Author.Hex()).Msg("Failed to insert note into database")
		return nil, fmt.Errorf("failed to create note: %w", err)
	}
	return note, nil
}

func (r *noteRepository) FindByAuthor(ctx context.Context, authorID primitive.ObjectID) ([]models.Note, error) {
	queryType := "findByAuthor"
	status := "success"
	defer r.observe(queryType, &status)()

	opts := options.Find().SetSort(bson.M{"created_at": -1})
	cursor, err := r.collection.Find(ctx, bson.M{"author": authorID}, opts)
	if err != nil {
		status = "error"
		utils.DBQueryErrorsTotal.WithLabelValues(queryType, "note").Inc()
		return nil, fmt.Errorf("failed to fetch notes: %w", err)
	}
	defer cursor.Close(ctx)

	notes := []models.Note{}
	if err := cursor.All(ctx, &notes); err != nil {
		status = "error"
		utils.DBQueryErrorsTotal.WithLabelValues(queryType, "note").Inc()
		return nil, fmt.Errorf("failed to decode notes: %w", err)
	}
	return notes, nil
}

func (r *noteRepository) FindByIDAndAuthor(ctx context.Context, noteID, authorID primitive.ObjectID) (*models.Note, error) {
	queryType := "findByIdAndAuthor"
	status := "success"
	defer r.observe(queryType, &status)()

	var note models.Note
	err := r.collection.FindOne(ctx, bson.M{"_id": noteID, "author": authorID}).Decode(&note)
	if err != nil {
		status = "error"
		utils.DBQueryErrorsTotal.WithLabelValues(queryType, "note").Inc()
		return nil, err // Can be mongo.ErrNoDocuments
	}
	return &note, nil
}

func (r *noteRepository) Update(ctx context.Context, noteID, authorID primitive.ObjectID, updateFields bson.M) (*mongo.UpdateResult, error) {
	queryType := "update"
	status := "success"
	defer r.observe(queryType, &status)()

	updateFields["updated_at"] = time.Now()
	update := bson.M{"$set": updateFields}
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": noteID, "author": authorID}, update)
	if err != nil {
		status = "error"
		utils.DBQueryErrorsTotal.WithLabelValues(queryType, "note").Inc()
		log.Error().Err(err).Str("note_id", noteID.Hex()).Msg("Error updating note")
		return nil, fmt.Errorf("failed to update note: %w", err)
	}
	return result, nil
}

func (r *noteRepository) Delete(ctx context.Context, noteID, authorID primitive.ObjectID) (*mongo.DeleteResult, error) {
	queryType := "delete"
	status := "success"
	defer r.observe(queryType, &status)()

	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": noteID, "author": authorID})
	if err != nil {
		status = "error"
		utils.DBQueryErrorsTotal.WithLabelValues(queryType, "note").Inc()
		log.Error().Err(err).Str("note_id", noteID.Hex()).Msg("Error deleting note")
		return nil, fmt.Errorf("failed to delete note: %w", err)
	}
	return result, nil
}
