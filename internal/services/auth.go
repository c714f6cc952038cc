package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	domainerrs "github.com/yungbote/luminar-backend/internal/pkg/errors"
	"github.com/yungbote/luminar-backend/internal/platform/ctxutil"
	"github.com/yungbote/luminar-backend/internal/platform/logger"
)

type JWTClaims struct {
	jwt.RegisteredClaims
}

// AuthService verifies bearer tokens issued by the identity provider.
// Accounts live elsewhere; the token subject is the user id.
type AuthService interface {
	SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error)
	IssueAccessToken(userID uuid.UUID, ttl time.Duration) (string, error)
}

type authService struct {
	log       *logger.Logger
	secretKey []byte
	issuer    string
	leeway    time.Duration
}

func NewAuthService(log *logger.Logger, jwtSecretKey string, issuer string) AuthService {
	return &authService{
		log:       log.With("service", "AuthService"),
		secretKey: []byte(jwtSecretKey),
		issuer:    strings.TrimSpace(issuer),
		leeway:    30 * time.Second,
	}
}

func (as *authService) IssueAccessToken(userID uuid.UUID, ttl time.Duration) (string, error) {
	if userID == uuid.Nil {
		return "", fmt.Errorf("%w: missing user id", domainerrs.ErrInvalidArgument)
	}
	now := time.Now()
	claims := JWTClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			Issuer:    as.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(as.secretKey)
}

func (as *authService) SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error) {
	if tokenString == "" {
		return ctx, fmt.Errorf("%w: missing token", domainerrs.ErrUnauthorized)
	}
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithLeeway(as.leeway),
		jwt.WithExpirationRequired(),
	}
	if as.issuer != "" {
		opts = append(opts, jwt.WithIssuer(as.issuer))
	}
	parsed, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(*jwt.Token) (interface{}, error) {
		return as.secretKey, nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return ctx, fmt.Errorf("%w: token expired", domainerrs.ErrUnauthorized)
		}
		as.log.Debug("token rejected", "error", err)
		return ctx, fmt.Errorf("%w: invalid token", domainerrs.ErrUnauthorized)
	}
	claims, ok := parsed.Claims.(*JWTClaims)
	if !ok || !parsed.Valid {
		return ctx, fmt.Errorf("%w: invalid token", domainerrs.ErrUnauthorized)
	}
	userID, err := uuid.Parse(claims.Subject)
	if err != nil || userID == uuid.Nil {
		return ctx, fmt.Errorf("%w: invalid subject", domainerrs.ErrUnauthorized)
	}
	return ctxutil.WithRequestData(ctx, &ctxutil.RequestData{UserID: userID, SessionID: claims.ID}), nil
}

// userFromContext returns the authenticated caller.
func userFromContext(ctx context.Context) (uuid.UUID, error) {
	rd := ctxutil.GetRequestData(ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return uuid.Nil, domainerrs.ErrUnauthorized
	}
	return rd.UserID, nil
}
