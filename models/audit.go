package models

import "time"

const (
	AuditCreate      = "CREATE"
	AuditUpdate      = "UPDATE"
	AuditDelete      = "DELETE"
	AuditStateChange = "STATE_CHANGE"
	AuditAssign      = "ASSIGN"
	AuditArchive     = "ARCHIVE"
	AuditUnarchive   = "UNARCHIVE"
	AuditApprove     = "APPROVE"
	AuditReject      = "REJECT"
	AuditLogin       = "LOGIN"
	AuditLoginFailed = "LOGIN_FAILED"
	AuditLogout      = "LOGOUT"
	AuditRegister    = "REGISTER"
)

const (
	EntityUser      = "user"
	EntityCustomer  = "customer"
	EntityOrder     = "order"
	EntityWorkPlan  = "workplan"
	EntityExecution = "execution"
	EntityChecklist = "checklist"
	EntityEvidence  = "evidence"
	EntityCostItem  = "cost_item"
)

// SystemUserID marks entries written by the system rather than a person.
const SystemUserID = 0

type AuditLog struct {
	ID         int                    `json:"id"`
	EntityType string                 `json:"entity_type"`
	EntityID   int                    `json:"entity_id"`
	Action     string                 `json:"action"`
	UserID     int                    `json:"user_id"`
	Before     map[string]interface{} `json:"before,omitempty"`
	After      map[string]interface{} `json:"after,omitempty"`
	Reason     string                 `json:"reason,omitempty"`
	IP         string                 `json:"ip,omitempty"`
	UserAgent  string                 `json:"user_agent,omitempty"`
	CreatedAt  time.Time              `json:"created_at"`
}

// RequestMeta carries caller information used for audit entries.
type RequestMeta struct {
	UserID    int
	Role      string
	IP        string
	UserAgent string
}
