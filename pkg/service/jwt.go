package service

import (
	"errors"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	apperrors "studio-system/pkg/errors"
)

// JwtCustomClaim mirrors the claims written by the auth service.
type JwtCustomClaim struct {
	UserID         uint64   `json:"userId"`
	StudentID      uint64   `json:"studentId,omitempty"`
	Role           string   `json:"role"`
	Permissions    []string `json:"permissions"`
	IsRefreshToken bool     `json:"isRefreshToken"`
	jwt.RegisteredClaims
}

type JWTService interface {
	ValidateToken(tokenString string) (*JwtCustomClaim, error)
	GenerateAccessToken(claims JwtCustomClaim, ttl time.Duration) (string, error)
}

type jwtService struct {
	secretKey []byte
	logger    *zap.Logger
}

func NewJWTService(secretKey string, logger *zap.Logger) JWTService {
	return &jwtService{secretKey: []byte(secretKey), logger: logger}
}

// GenerateAccessToken signs claims with the shared secret. Production tokens
// come from the auth service; this is for local tooling and tests.
func (s *jwtService) GenerateAccessToken(claims JwtCustomClaim, ttl time.Duration) (string, error) {
	now := time.Now()
	claims.IsRefreshToken = false
	claims.IssuedAt = jwt.NewNumericDate(now)
	claims.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))

	token := jwt.NewWithClaims(jwt.SigningMethodHS512, &claims)
	return token.SignedString(s.secretKey)
}

func (s *jwtService) ValidateToken(tokenString string) (*JwtCustomClaim, error) {
	token, err := jwt.ParseWithClaims(tokenString, &JwtCustomClaim{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, apperrors.ErrInvalidSigningMethod
		}
		return s.secretKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS512.Alg()}))
	if err != nil {
		s.logger.Debug("token parse failed", zap.Error(err))
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, apperrors.ErrTokenExpired
		case errors.Is(err, jwt.ErrTokenNotValidYet), errors.Is(err, jwt.ErrTokenUsedBeforeIssued):
			return nil, apperrors.ErrTokenNotYetValid
		case errors.Is(err, apperrors.ErrInvalidSigningMethod):
			return nil, apperrors.ErrInvalidSigningMethod
		default:
			return nil, apperrors.ErrInvalidToken
		}
	}

	claims, ok := token.Claims.(*JwtCustomClaim)
	if !ok || !token.Valid {
		return nil, apperrors.ErrInvalidToken
	}
	if claims.UserID == 0 {
		return nil, apperrors.ErrInvalidToken
	}

	return claims, nil
}
