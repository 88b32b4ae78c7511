package models

import "time"

const (
	ExecutionNoIniciada = "no_iniciada"
	ExecutionEnProgreso = "en_progreso"
	ExecutionPausada    = "pausada"
	ExecutionCompletada = "completada"
)

type GeoPoint struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type Task struct {
	ID          int        `json:"id"`
	Description string     `json:"description"`
	Done        bool       `json:"done"`
	DoneBy      *int       `json:"done_by,omitempty"`
	DoneAt      *time.Time `json:"done_at,omitempty"`
}

type TimeLog struct {
	StartedAt time.Time  `json:"started_at"`
	EndedAt   *time.Time `json:"ended_at,omitempty"`
}

// Duration returns the logged span, measured up to now when still open.
func (l TimeLog) Duration(now time.Time) time.Duration {
	if l.EndedAt != nil {
		return l.EndedAt.Sub(l.StartedAt)
	}
	return now.Sub(l.StartedAt)
}

type Execution struct {
	ID             int        `json:"id"`
	OrderID        int        `json:"order_id"`
	WorkPlanID     int        `json:"workplan_id"`
	Status         string     `json:"status"`
	Progress       int        `json:"progress"`
	EstimatedHours float64    `json:"estimated_hours"`
	Tasks          []Task     `json:"tasks"`
	TimeLogs       []TimeLog  `json:"time_logs"`
	Location       *GeoPoint  `json:"location,omitempty"`
	Observations   string     `json:"observations"`
	StartedBy      *int       `json:"started_by,omitempty"`
	CompletedBy    *int       `json:"completed_by,omitempty"`
	StartedAt      *time.Time `json:"started_at,omitempty"`
	CompletedAt    *time.Time `json:"completed_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`

	WorkedHours float64 `json:"worked_hours"`
}

func (e *Execution) PendingTasks() int {
	n := 0
	for _, t := range e.Tasks {
		if !t.Done {
			n++
		}
	}
	return n
}

func (e *Execution) WorkedTime(now time.Time) time.Duration {
	var total time.Duration
	for _, l := range e.TimeLogs {
		total += l.Duration(now)
	}
	return total
}
