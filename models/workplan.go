package models

import "time"

const (
	WorkPlanBorrador  = "borrador"
	WorkPlanAprobado  = "aprobado"
	WorkPlanRechazado = "rechazado"
)

type Material struct {
	Name     string  `json:"name" binding:"required"`
	Quantity float64 `json:"quantity" binding:"required"`
	Unit     string  `json:"unit"`
	UnitCost float64 `json:"unit_cost"`
}

type Tool struct {
	Name     string `json:"name" binding:"required"`
	Quantity int    `json:"quantity"`
}

type Labor struct {
	Hours         float64 `json:"hours"`
	HourlyRate    float64 `json:"hourly_rate"`
	OvertimeHours float64 `json:"overtime_hours"`
}

type WorkPlan struct {
	ID              int        `json:"id"`
	OrderID         int        `json:"order_id"`
	Materials       []Material `json:"materials"`
	Tools           []Tool     `json:"tools"`
	Labor           Labor      `json:"labor"`
	Budget          float64    `json:"budget"`
	Status          string     `json:"status"`
	Notes           string     `json:"notes"`
	ApprovedBy      *int       `json:"approved_by,omitempty"`
	ApprovedAt      *time.Time `json:"approved_at,omitempty"`
	RejectionReason string     `json:"rejection_reason,omitempty"`
	CreatedBy       int        `json:"created_by"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}
