package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/erp/focco-sync/internal/infrastructure/auth"
	"github.com/erp/focco-sync/internal/infrastructure/logger"
	"github.com/erp/focco-sync/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const claimsKey = "service_claims"

// ServiceAuth admits requests carrying a valid service token as
// "Authorization: Bearer <token>". The token subject names the calling
// system and is attached to the request context for logging.
func ServiceAuth(tokens *auth.JWTService, log *zap.Logger) gin.HandlerFunc {
	if log == nil {
		log = zap.NewNop()
	}
	log = log.Named("auth")

	return func(c *gin.Context) {
		raw, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			rejectToken(c, log, auth.ErrInvalidToken)
			return
		}
		claims, err := tokens.ValidateToken(raw)
		if err != nil {
			rejectToken(c, log, err)
			return
		}

		c.Set(claimsKey, claims)
		c.Request = c.Request.WithContext(logger.WithSubject(c.Request.Context(), claims.Subject))
		c.Next()
	}
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func rejectToken(c *gin.Context, log *zap.Logger, err error) {
	code, msg := dto.ErrCodeTokenInvalid, "Invalid service token"
	switch {
	case errors.Is(err, auth.ErrExpiredToken):
		code, msg = dto.ErrCodeTokenExpired, "Service token has expired"
	case errors.Is(err, auth.ErrTokenNotYetValid):
		msg = "Service token is not yet valid"
	}
	log.Warn("Service token rejected",
		zap.String("route", c.FullPath()),
		zap.String("code", code),
		zap.Error(err),
	)
	c.AbortWithStatusJSON(http.StatusUnauthorized, dto.Fail(code, msg, GetRequestID(c)))
}

// RequireScope rejects callers whose token lacks scope. It runs after ServiceAuth.
func RequireScope(scope string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := ServiceClaims(c)
		switch {
		case claims == nil:
			c.AbortWithStatusJSON(http.StatusUnauthorized, dto.Fail(
				dto.ErrCodeUnauthorized, "Authentication required", GetRequestID(c)))
		case !claims.HasScope(scope):
			c.AbortWithStatusJSON(http.StatusForbidden, dto.Fail(
				dto.ErrCodeForbidden, "Token lacks scope "+scope, GetRequestID(c)))
		default:
			c.Next()
		}
	}
}

// ServiceClaims returns the claims of the authenticated caller, or nil.
func ServiceClaims(c *gin.Context) *auth.Claims {
	v, ok := c.Get(claimsKey)
	if !ok {
		return nil
	}
	claims, _ := v.(*auth.Claims)
	return claims
}

// CallerSubject is the subject of the service token, empty when unauthenticated.
func CallerSubject(c *gin.Context) string {
	if claims := ServiceClaims(c); claims != nil {
		return claims.Subject
	}
	return ""
}
