package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"storymagic/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Gin context keys set by the auth middleware.
const (
	ContextUserIDKey      = "userID"
	ContextDisplayNameKey = "displayName"
)

// JWTVerifier verifies HS256 tokens issued by the external auth provider.
type JWTVerifier struct {
	jwtSecret string
	logger    *zap.Logger
}

// NewJWTVerifier creates a JWTVerifier. A nil logger falls back to Noop.
func NewJWTVerifier(jwtSecret string, logger *zap.Logger) (*JWTVerifier, error) {
	if jwtSecret == "" {
		return nil, errors.New("JWT secret cannot be empty")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &JWTVerifier{
		jwtSecret: jwtSecret,
		logger:    logger.Named("JWTVerifier"),
	}, nil
}

// VerifyToken checks the signature and validity of a token and extracts its
// claims.
func (v *JWTVerifier) VerifyToken(_ context.Context, tokenString string) (*models.Claims, error) {
	log := v.logger.With(zap.String("tokenSnippet", tokenSnippet(tokenString)))
	claims := &models.Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			log.Warn("Unexpected signing method", zap.Any("alg", token.Header["alg"]))
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(v.jwtSecret), nil
	})
	if err != nil {
		log.Warn("Failed to parse or verify token", zap.Error(err))
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, models.ErrTokenExpired
		} else if errors.Is(err, jwt.ErrTokenMalformed) {
			return nil, models.ErrTokenMalformed
		} else if errors.Is(err, jwt.ErrTokenSignatureInvalid) {
			return nil, models.ErrTokenInvalid
		}
		return nil, fmt.Errorf("%w: %v", models.ErrTokenInvalid, err)
	}

	if !token.Valid {
		log.Warn("Token is invalid despite no parsing error")
		return nil, models.ErrTokenInvalid
	}
	if claims.Subject == "" {
		log.Warn("Token missing subject")
		return nil, fmt.Errorf("%w: subject missing", models.ErrTokenInvalid)
	}
	if _, err := claims.UserID(); err != nil {
		log.Warn("Token subject is not a UUID", zap.String("subject", claims.Subject))
		return nil, fmt.Errorf("%w: malformed subject", models.ErrTokenInvalid)
	}
	return claims, nil
}

// RequireAuth rejects requests without a valid bearer token and stores the
// user id and display name in the Gin context.
func RequireAuth(verifier *JWTVerifier, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := verifyRequest(c, verifier, logger)
		if !ok {
			return
		}
		userID, _ := claims.UserID()
		c.Set(ContextUserIDKey, userID)
		c.Set(ContextDisplayNameKey, claims.Name)
		c.Next()
	}
}

// OptionalAuth attaches the user identity when a valid bearer token is
// present and lets anonymous requests pass untouched. An invalid token is
// still rejected rather than silently downgraded.
func OptionalAuth(verifier *JWTVerifier, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetHeader("Authorization") == "" {
			c.Next()
			return
		}
		claims, ok := verifyRequest(c, verifier, logger)
		if !ok {
			return
		}
		userID, _ := claims.UserID()
		c.Set(ContextUserIDKey, userID)
		c.Set(ContextDisplayNameKey, claims.Name)
		c.Next()
	}
}

func verifyRequest(c *gin.Context, verifier *JWTVerifier, logger *zap.Logger) (*models.Claims, bool) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		logger.Warn("Authorization header missing", zap.String("path", c.Request.URL.Path))
		c.AbortWithStatusJSON(http.StatusUnauthorized, models.ErrorResponse{Error: "Unauthorized: Missing token"})
		return nil, false
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		logger.Warn("Malformed Authorization header", zap.String("path", c.Request.URL.Path))
		c.AbortWithStatusJSON(http.StatusUnauthorized, models.ErrorResponse{Error: "Unauthorized: Malformed token header"})
		return nil, false
	}

	claims, err := verifier.VerifyToken(c.Request.Context(), parts[1])
	if err != nil {
		msg := "Unauthorized: Invalid token"
		if errors.Is(err, models.ErrTokenExpired) {
			msg = "Unauthorized: Token expired"
		}
		logger.Warn("Token verification failed", zap.Error(err), zap.String("path", c.Request.URL.Path))
		c.AbortWithStatusJSON(http.StatusUnauthorized, models.ErrorResponse{Error: msg})
		return nil, false
	}
	return claims, true
}

// UserIDFromContext returns the authenticated user id, if any.
func UserIDFromContext(c *gin.Context) (uuid.UUID, bool) {
	v, exists := c.Get(ContextUserIDKey)
	if !exists {
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	return id, ok
}

// DisplayNameFromContext returns the display name claim, if any.
func DisplayNameFromContext(c *gin.Context) string {
	return c.GetString(ContextDisplayNameKey)
}

func tokenSnippet(tokenString string) string {
	limit := 15
	if len(tokenString) > limit {
		return tokenString[:limit] + "..."
	}
	return tokenString
}
