package models

import "time"

type RegisterRequest struct {
	Email    string `json:"email" form:"email" binding:"required,email"`
	Password string `json:"password" form:"password" binding:"required,min=8"`
	Name     string `json:"name" form:"name" binding:"required,min=3"`
	Phone    string `json:"phone" form:"phone" binding:"omitempty"`
}

type LoginRequest struct {
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

type LogoutRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type ChangePasswordRequest struct {
	OldPassword string `json:"old_password" binding:"required"`
	NewPassword string `json:"new_password" binding:"required,min=8"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type ResetPasswordRequest struct {
	Email       string `json:"email" binding:"required,email"`
	OTP         string `json:"otp" binding:"required,len=6"`
	NewPassword string `json:"new_password" binding:"required,min=8"`
}

type UpdateProfileRequest struct {
	Name  string `json:"name" form:"name"`
	Phone string `json:"phone" form:"phone"`
}

type CreateUserRequest struct {
	Email      string `json:"email" binding:"required,email"`
	Password   string `json:"password" binding:"required,min=8"`
	Name       string `json:"name" binding:"required,min=3"`
	Phone      string `json:"phone"`
	Role       string `json:"role" binding:"required,oneof=admin supervisor tecnico cliente"`
	CustomerID *int   `json:"customer_id"`
}

type UpdateUserRequest struct {
	Email      string `json:"email" binding:"omitempty,email"`
	Name       string `json:"name"`
	Phone      string `json:"phone"`
	Role       string `json:"role" binding:"omitempty,oneof=admin supervisor tecnico cliente"`
	CustomerID *int   `json:"customer_id"`
}

type SetActiveRequest struct {
	Active *bool `json:"active" binding:"required"`
}

type CustomerRequest struct {
	Name    string `json:"name" binding:"required"`
	NIT     string `json:"nit"`
	Email   string `json:"email" binding:"omitempty,email"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
}

type CreateOrderRequest struct {
	CustomerID      *int       `json:"customer_id"`
	Cliente         string     `json:"cliente"`
	Description     string     `json:"description"`
	Location        string     `json:"location"`
	Priority        string     `json:"priority"`
	SupervisorID    *int       `json:"supervisor_id"`
	EstimatedBudget float64    `json:"estimated_budget"`
	DueDate         *time.Time `json:"due_date"`
}

type UpdateOrderRequest struct {
	Cliente         *string    `json:"cliente"`
	Description     *string    `json:"description"`
	Location        *string    `json:"location"`
	Priority        *string    `json:"priority"`
	SupervisorID    *int       `json:"supervisor_id"`
	EstimatedBudget *float64   `json:"estimated_budget"`
	DueDate         *time.Time `json:"due_date"`
}

type TransitionRequest struct {
	State   OrderState `json:"state" form:"state"`
	Comment string     `json:"comment" form:"comment"`
}

type AssignRequest struct {
	TechnicianID int `json:"technician_id" binding:"required"`
}

type ArchiveRequest struct {
	Reason string `json:"reason"`
}

type WorkPlanRequest struct {
	Materials []Material `json:"materials"`
	Tools     []Tool     `json:"tools"`
	Labor     Labor      `json:"labor"`
	Notes     string     `json:"notes"`
}

type RejectRequest struct {
	Reason string `json:"reason" form:"reason"`
}

type StartExecutionRequest struct {
	EstimatedHours float64   `json:"estimated_hours"`
	Location       *GeoPoint `json:"location"`
	Note           string    `json:"note"`
	Tasks          []string  `json:"tasks"`
}

type PauseRequest struct {
	Reason string `json:"reason"`
}

type ResumeRequest struct {
	Location *GeoPoint `json:"location"`
}

type ProgressRequest struct {
	Progress int    `json:"progress"`
	Notes    string `json:"notes"`
}

type TaskRequest struct {
	Description string `json:"description" binding:"required"`
}

type CompleteExecutionRequest struct {
	Notes string `json:"notes"`
}

type AttachChecklistRequest struct {
	TemplateID int `json:"template_id" binding:"required"`
}

type ChecklistAnswersRequest struct {
	Answers map[string]interface{} `json:"answers" binding:"required"`
}

type CostItemRequest struct {
	Category    CostCategory `json:"category" binding:"required"`
	Kind        string       `json:"kind" binding:"required,oneof=presupuestado real"`
	Description string       `json:"description" binding:"required"`
	Quantity    float64      `json:"quantity" binding:"required,gt=0"`
	UnitCost    float64      `json:"unit_cost" binding:"gte=0"`
}

// UploadEvidenceInput is the service-level form of an evidence upload.
type UploadEvidenceInput struct {
	OrderID     int
	ExecutionID *int
	Type        string
	FileName    string
	Size        int64
	Latitude    *float64
	Longitude   *float64
	Description string
}
