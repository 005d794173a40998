package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/forgo/tontine/api/internal/model"
)

// GroupMembershipChecker defines the interface for checking group membership
type GroupMembershipChecker interface {
	IsMember(ctx context.Context, userID, groupID string) (bool, error)
}

// GroupIDKey is the context key for group ID
const GroupIDKey contextKey = "groupID"

// GetGroupID extracts the group ID from context
func GetGroupID(ctx context.Context) string {
	if id, ok := ctx.Value(GroupIDKey).(string); ok {
		return id
	}
	return ""
}

// GroupAccess returns a middleware that validates group membership.
// It expects the group ID to be in the URL path parameter.
func GroupAccess(checker GroupMembershipChecker) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID := GetUserID(r.Context())
			if userID == "" {
				model.NewUnauthorizedError("authentication required").WriteJSON(w)
				return
			}

			groupID := extractGroupID(r.URL.Path)
			if groupID == "" {
				model.NewBadRequestError("invalid group ID").WriteJSON(w)
				return
			}

			isMember, err := checker.IsMember(r.Context(), userID, groupID)
			if err != nil {
				// Return 404 to not leak information on errors
				model.NewNotFoundError("group").WriteJSON(w)
				return
			}

			if !isMember {
				// 404 instead of 403 to not leak group existence
				model.NewNotFoundError("group").WriteJSON(w)
				return
			}

			ctx := context.WithValue(r.Context(), GroupIDKey, groupID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// extractGroupID extracts the group ID from URL path
// Expected formats:
// - /v1/groups/{groupId}
// - /v1/groups/{groupId}/members
// - /v1/groups/{groupId}/contributions/generate
// etc.
func extractGroupID(path string) string {
	parts := strings.Split(path, "/")

	// Find "groups" in path and get the next segment
	for i, part := range parts {
		if part == "groups" && i+1 < len(parts) {
			groupID := parts[i+1]
			// Must look like an ID, not a sub-resource name
			if groupID != "" && groupID != "discover" && groupID != "members" && groupID != "contributions" && groupID != "statistics" {
				return groupID
			}
		}
	}

	return ""
}
