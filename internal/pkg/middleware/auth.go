package middleware

import (
	"context"
	"net/http"
	"strings"

	"gosupply/internal/domain"
	apperror "gosupply/internal/errors"
	"gosupply/internal/pkg/httpx"
	"gosupply/internal/pkg/logger"
	"gosupply/internal/pkg/token"
)

// ContextKey é o tipo não exportável das chaves de contexto deste pacote.
type ContextKey int

const (
	UserClaimsKey ContextKey = iota
)

// UserClaims são os dados do usuário extraídos do JWT.
type UserClaims struct {
	UserID string
	Role   domain.UserRole
}

// TokenValidator é o contrato de validação usado pelo middleware.
type TokenValidator interface {
	ValidateToken(tokenString string) (*token.CustomClaims, error)
}

// NewAuthMiddleware valida o Bearer token e anexa as claims ao contexto.
func NewAuthMiddleware(tokenSvc TokenValidator, log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// 1. Header Authorization: Bearer <token>
			authHeader := r.Header.Get("Authorization")
			tokenString, found := strings.CutPrefix(authHeader, "Bearer ")
			if !found || tokenString == "" {
				httpx.WriteError(w, r, log, apperror.NewUnauthorizedError("Token de autorização ausente ou malformado."))
				return
			}

			// 2. Validação
			claims, err := tokenSvc.ValidateToken(tokenString)
			if err != nil {
				httpx.WriteError(w, r, log, apperror.NewUnauthorizedError("Token inválido ou expirado."))
				return
			}

			// 3. Claims no contexto
			ctx := context.WithValue(r.Context(), UserClaimsKey, UserClaims{
				UserID: claims.UserID,
				Role:   domain.UserRole(claims.Role),
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetUserClaimsFromContext extrai as claims anexadas pelo NewAuthMiddleware.
func GetUserClaimsFromContext(ctx context.Context) (UserClaims, bool) {
	claims, ok := ctx.Value(UserClaimsKey).(UserClaims)
	return claims, ok
}

// PermissionMiddleware libera o acesso apenas aos papéis informados (403 caso contrário).
func PermissionMiddleware(log logger.Logger, requiredRoles ...domain.UserRole) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := GetUserClaimsFromContext(r.Context())
			if !ok {
				httpx.WriteError(w, r, log, apperror.NewUnauthorizedError("Autorização necessária. Token não processado."))
				return
			}

			for _, role := range requiredRoles {
				if claims.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}

			httpx.WriteJSON(w, http.StatusForbidden, map[string]interface{}{
				"code":     http.StatusForbidden,
				"category": "FORBIDDEN",
				"message":  "Acesso negado. Você não tem a permissão necessária.",
			})
		})
	}
}
