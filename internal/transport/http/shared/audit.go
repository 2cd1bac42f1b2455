package shared

import (
	"log/slog"
	"net/http"

	"cityhr/internal/domain/audit"
	"cityhr/internal/transport/http/middleware"
)

// Audit records a completed change made by the requesting user. Failures
// are logged and never fail the request.
func Audit(r *http.Request, svc *audit.Service, action, entityType, entityID string, details any) {
	if svc == nil {
		return
	}
	user, _ := middleware.GetUser(r.Context())
	err := svc.Record(r.Context(), audit.Entry{
		ActorID:    user.UserID,
		ActorName:  user.Username,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		RequestID:  middleware.GetRequestID(r.Context()),
		IP:         middleware.ClientIP(r),
		Details:    details,
	})
	if err != nil {
		slog.Warn("audit record failed", "action", action, "entityId", entityID, "err", err)
	}
}
