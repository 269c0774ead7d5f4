package http

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"storefront-service/internal/domain"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	requestIDKey    = "request_id"
	actorKey        = "actor"
	requestIDHeader = "X-Request-ID"
)

// RequestLogger tags each request with an id and logs it once finished.
func RequestLogger(log *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Header(requestIDHeader, id)

		c.Next()

		log.WithFields(logrus.Fields{
			"request_id": id,
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"status":     c.Writer.Status(),
			"latency_ms": time.Since(start).Milliseconds(),
		}).Info("request")
	}
}

// Auth verifies an HS256 bearer token and stores the caller as a
// domain.Actor. The token must carry user_id and role claims.
func Auth(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		raw, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(raw) == "" {
			ErrorResponse(c, http.StatusUnauthorized, CodeUnauthorized, "missing bearer token")
			return
		}

		actor, err := ParseToken(strings.TrimSpace(raw), secret)
		if err != nil {
			ErrorResponse(c, http.StatusUnauthorized, CodeUnauthorized, "invalid token")
			return
		}
		c.Set(actorKey, actor)
		c.Next()
	}
}

var errBadClaims = errors.New("token claims missing user_id or role")

func ParseToken(tokenString string, secret []byte) (domain.Actor, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return domain.Actor{}, err
	}
	if !token.Valid {
		return domain.Actor{}, errBadClaims
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return domain.Actor{}, errBadClaims
	}
	userID, ok := claims["user_id"].(float64)
	if !ok || userID < 1 || userID != float64(uint64(userID)) {
		return domain.Actor{}, errBadClaims
	}
	role, _ := claims["role"].(string)
	if !domain.IsValidRole(domain.Role(role)) {
		return domain.Actor{}, errBadClaims
	}
	return domain.Actor{ID: uint64(userID), Role: domain.Role(role)}, nil
}

func RequireArtisan() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !actorFrom(c).IsArtisan() {
			ErrorResponse(c, http.StatusForbidden, CodeForbidden, "artisan role required")
			return
		}
		c.Next()
	}
}

func actorFrom(c *gin.Context) domain.Actor {
	a, _ := c.Get(actorKey)
	actor, _ := a.(domain.Actor)
	return actor
}
