package models

import "time"

type StateGroups struct {
	Pending    int `json:"pending"`
	InProgress int `json:"in_progress"`
	Closing    int `json:"closing"`
	Completed  int `json:"completed"`
}

type Workload struct {
	ResponsibleID int    `json:"responsible_id"`
	Name          string `json:"name"`
	Count         int    `json:"count"`
}

type Alert struct {
	Type     string `json:"type"`
	Severity string `json:"severity"`
	Message  string `json:"message"`
	OrderID  int    `json:"order_id,omitempty"`
}

type CostTotals struct {
	Budgeted            float64 `json:"budgeted"`
	Actual              float64 `json:"actual"`
	DeviationPercentage float64 `json:"deviation_percentage"`
}

type KPIOverview struct {
	Total              int                `json:"total"`
	ByState            map[OrderState]int `json:"by_state"`
	Groups             StateGroups        `json:"groups"`
	Archived           int                `json:"archived"`
	Active             int                `json:"active"`
	CompletionRate     float64            `json:"completion_rate"`
	AverageCycleDays   float64            `json:"average_cycle_days"`
	MedianCycleDays    float64            `json:"median_cycle_days"`
	CompletedThisWeek  int                `json:"completed_this_week"`
	CompletedThisMonth int                `json:"completed_this_month"`
	Costs              CostTotals         `json:"costs"`
	Workload           []Workload         `json:"workload"`
	Alerts             []Alert            `json:"alerts"`
	GeneratedAt        time.Time          `json:"generated_at"`
}

// CycleSample is a completed order's creation and completion time.
type CycleSample struct {
	CreatedAt   time.Time
	CompletedAt time.Time
}

type DueOrder struct {
	ID      int
	Numero  string
	DueDate time.Time
	State   OrderState
}
