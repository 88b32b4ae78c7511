package models

import "time"

// OrderReport aggregates everything recorded for one order.
type OrderReport struct {
	Order       *Order         `json:"order"`
	Progress    int            `json:"progress"`
	WorkPlan    *WorkPlan      `json:"work_plan,omitempty"`
	Execution   *Execution     `json:"execution,omitempty"`
	Evidence    map[string]int `json:"evidence"`
	Costs       *CostSummary   `json:"costs"`
	History     []AuditLog     `json:"history"`
	GeneratedAt time.Time      `json:"generated_at"`
}
