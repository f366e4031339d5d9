package database

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Service interface {
	Health() map[string]string
	Client() *mongo.Client
	Database() *mongo.Database
	Close() error
}

type service struct {
	client *mongo.Client
	dbName string
}

func New(uri, dbName string) Service {
	if uri == "" {
		log.Fatal().Msg("Mongo URI not configured")
	}
	client, err := mongo.Connect(context.Background(), options.Client().ApplyURI(uri))
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to MongoDB")
	}
	return &service{
		client: client,
		dbName: dbName,
	}
}

func (s *service) Health() map[string]string {
	ctx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
	defer cancel()

	err := s.client.Ping(ctx, nil)
	if err != nil {
		log.Error().Err(err).Msg("Database health check failed")
		return map[string]string{
			"message": "db down",
			"error":   err.Error(),
		}
	}

	return map[string]string{
		"message": "It's healthy",
	}
}

func (s *service) Client() *mongo.Client {
	return s.client
}

func (s *service) Database() *mongo.Database {
	return s.client.Database(s.dbName)
}

func (s *service) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}
