package middleware

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/ild-thl/motbot-sub000/internal/api/auth"
	"github.com/ild-thl/motbot-sub000/internal/models"
)

type ContextKey string

const UserContextKey ContextKey = "admin_user"

func JWTAuthMiddleware(jwtManager *auth.JWTManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				respondUnauthorized(w, "Missing authorization header")
				return
			}

			tokenString, err := auth.ExtractTokenFromBearer(authHeader)
			if err != nil {
				respondUnauthorized(w, "Invalid authorization header format")
				return
			}

			claims, err := jwtManager.ValidateToken(tokenString)
			if err != nil {
				respondUnauthorized(w, "Invalid or expired token")
				return
			}

			ctx := context.WithValue(r.Context(), UserContextKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func RequireRole(minRole models.AdminRole) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims := GetUserFromContext(r.Context())
			if claims == nil {
				respondForbidden(w, "Access denied")
				return
			}

			if !hasRequiredRole(claims.Role, minRole) {
				respondForbidden(w, "Insufficient permissions")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func GetUserFromContext(ctx context.Context) *auth.Claims {
	claims, ok := ctx.Value(UserContextKey).(*auth.Claims)
	if !ok {
		return nil
	}
	return claims
}

// Role hierarchy: super_admin > admin > viewer.
func hasRequiredRole(userRole, requiredRole models.AdminRole) bool {
	roleHierarchy := map[models.AdminRole]int{
		models.AdminRoleSuperAdmin: 3,
		models.AdminRoleAdmin:      2,
		models.AdminRoleViewer:     1,
	}

	return roleHierarchy[userRole] >= roleHierarchy[requiredRole]
}

func respondUnauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

func respondForbidden(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusForbidden)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
