package types

import "time"

// AuditLogEntry is an append-only record of an admin control action.
type AuditLogEntry struct {
	ID         string                 `json:"id" db:"id"`
	UserID     *string                `json:"userId,omitempty" db:"user_id"`
	Action     string                 `json:"action" db:"action"`
	Resource   string                 `json:"resource" db:"resource"`
	ResourceID *string                `json:"resourceId,omitempty" db:"resource_id"`
	Detail     map[string]interface{} `json:"detail,omitempty" db:"-"`
	DetailRaw  []byte                 `json:"-" db:"detail"`
	IP         *string                `json:"ip,omitempty" db:"ip"`
	UserAgent  *string                `json:"userAgent,omitempty" db:"user_agent"`
	CreatedAt  time.Time              `json:"createdAt" db:"created_at"`
}

// Audit action names recognized by pkg/auth and pkg/adminapi.
const (
	ActionLogin               = "LOGIN"
	ActionChangePassword      = "CHANGE_PASSWORD"
	ActionResetPassword       = "RESET_PASSWORD"
	ActionCreateUser          = "CREATE_USER"
	ActionUpdateUser          = "UPDATE_USER"
	ActionDeleteUser          = "DELETE_USER"
	ActionTriggerSync         = "TRIGGER_SYNC"
	ActionCreateRateLimitRule = "CREATE_RATE_LIMIT_RULE"
	ActionUpdateRateLimitRule = "UPDATE_RATE_LIMIT_RULE"
	ActionDeleteRateLimitRule = "DELETE_RATE_LIMIT_RULE"
	ActionCreateIPBlockRule   = "CREATE_IP_BLOCK_RULE"
	ActionDeleteIPBlockRule   = "DELETE_IP_BLOCK_RULE"
	ActionJobPause            = "JOB_PAUSE"
	ActionJobResume           = "JOB_RESUME"
	ActionJobCancel           = "JOB_CANCEL"
	ActionJobDelete           = "JOB_DELETE"
	ActionJobPriorityUpdate   = "JOB_PRIORITY_UPDATE"
	ActionScheduleUpdate      = "SCHEDULE_UPDATE"
	ActionCacheClear          = "CACHE_CLEAR"
)

// redactedDetailKeys lists the fields that must never reach an audit
// log entry's detail map, even if a caller passes them in.
var redactedDetailKeys = map[string]bool{
	"password":        true,
	"currentPassword": true,
	"newPassword":     true,
	"accessToken":     true,
	"refreshToken":    true,
	"token":           true,
}

// RedactDetail returns a copy of detail with sensitive fields removed.
func RedactDetail(detail map[string]interface{}) map[string]interface{} {
	if detail == nil {
		return nil
	}
	out := make(map[string]interface{}, len(detail))
	for k, v := range detail {
		if redactedDetailKeys[k] {
			continue
		}
		out[k] = v
	}
	return out
}
