package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Note struct {
	ID        primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	Title     string             `json:"title" bson:"title"`
	Content   string             `json:"content" bson:"content"`
	Author    primitive.ObjectID `json:"author" bson:"author"`
	CreatedAt time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time          `json:"updated_at" bson:"updated_at"`
}

type AddNoteRequestBody struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

type UpdateNoteRequestBody struct {
	Title   *string `json:"title,omitempty"`
	Content *string `json:"content,omitempty"`
}
