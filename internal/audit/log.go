package audit

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"gatehouse.org/internal/auth"
	"gatehouse.org/internal/obs"
)

// LogEvent writes a JSON audit line enriched with whatever identity the
// context carries. It satisfies auth.AuditFunc so it can be handed to the
// service via auth.WithAuditLog.
func LogEvent(ctx context.Context, event string, fields map[string]any) {
	event = strings.TrimSpace(event)
	if event == "" {
		return
	}
	entry := map[string]any{
		"ts":    time.Now().UTC().Format(time.RFC3339Nano),
		"type":  "audit",
		"event": event,
	}
	if user, ok := auth.UserFromContext(ctx); ok {
		entry["actor"] = user.Username
	}
	if sessionID, ok := auth.SessionIDFromContext(ctx); ok {
		entry["session_id"] = sessionID
	}
	if len(fields) > 0 {
		copied := make(map[string]any, len(fields))
		for k, v := range fields {
			copied[k] = v
		}
		entry["fields"] = copied
	} else {
		entry["fields"] = map[string]any{}
	}

	data, err := json.Marshal(entry)
	if err != nil {
		obs.Logger().Println(`{"type":"audit","event":"marshal_failed"}`)
		return
	}
	obs.Logger().Println(string(data))
}
