package services

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"highway/internal/config"
)

// Claims carries the user id inside the signed session token.
type Claims struct {
	ID string `json:"userId"`
	jwt.RegisteredClaims
}

// TokenService mints and verifies stateless bearer session tokens. There is no
// server-side revocation; a token dies by expiry or by its user disappearing.
type TokenService interface {
	Issue(userID primitive.ObjectID) (string, error)
	Verify(tokenString string) (string, error)
}

type tokenService struct {
	secret []byte
	expiry time.Duration
}

func NewTokenService(cfg *config.Config) TokenService {
	return &tokenService{
		secret: []byte(cfg.JWTSecret),
		expiry: cfg.JWTExpiry,
	}
}

func (t *tokenService) Issue(userID primitive.ObjectID) (string, error) {
	claims := &Claims{
		ID: userID.Hex(),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(t.expiry)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(t.secret)
}

func (t *tokenService) Verify(tokenString string) (string, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return t.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", ErrTokenExpired
		}
		return "", ErrInvalidToken
	}
	if !token.Valid || claims.ID == "" {
		return "", ErrInvalidToken
	}
	return claims.ID, nil
}
