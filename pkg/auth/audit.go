package auth

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/deenmate/sync-core/pkg/log"
	"github.com/deenmate/sync-core/pkg/storage"
	"github.com/deenmate/sync-core/pkg/types"
)

// Auditor appends audit log entries for admin control actions, always
// redacting sensitive detail fields before they reach storage.
type Auditor struct {
	gateway storage.Audit
}

// NewAuditor constructs an Auditor over the Audit repository.
func NewAuditor(gateway storage.Audit) *Auditor {
	return &Auditor{gateway: gateway}
}

// Record appends one audit entry. A failure to persist an audit entry
// is logged but never blocks the action that triggered it: an
// unrecorded audit line is preferable to an admin operation that
// succeeded for the user but failed for an unrelated logging reason.
func (a *Auditor) Record(ctx context.Context, userID *string, action, resource string, resourceID *string, detail map[string]interface{}, ip, userAgent *string) {
	redacted := types.RedactDetail(detail)

	var raw []byte
	if redacted != nil {
		b, err := json.Marshal(redacted)
		if err == nil {
			raw = b
		}
	}

	entry := &types.AuditLogEntry{
		ID:         uuid.New().String(),
		UserID:     userID,
		Action:     action,
		Resource:   resource,
		ResourceID: resourceID,
		Detail:     redacted,
		DetailRaw:  raw,
		IP:         ip,
		UserAgent:  userAgent,
		CreatedAt:  time.Now(),
	}

	if err := a.gateway.AppendAuditLog(ctx, entry); err != nil {
		log.Logger.Warn().Err(err).Str("action", action).Msg("failed to append audit log entry")
	}
}
