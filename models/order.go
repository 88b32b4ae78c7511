package models

import "time"

type OrderState string

const (
	StateSolicitud  OrderState = "solicitud"
	StateVisita     OrderState = "visita"
	StatePO         OrderState = "po"
	StatePlaneacion OrderState = "planeacion"
	StateEjecucion  OrderState = "ejecucion"
	StateInforme    OrderState = "informe"
	StateActa       OrderState = "acta"
	StateSES        OrderState = "ses"
	StateFactura    OrderState = "factura"
	StatePago       OrderState = "pago"
)

// OrderStates lists every state in workflow order.
var OrderStates = []OrderState{
	StateSolicitud,
	StateVisita,
	StatePO,
	StatePlaneacion,
	StateEjecucion,
	StateInforme,
	StateActa,
	StateSES,
	StateFactura,
	StatePago,
}

func (s OrderState) Valid() bool {
	for _, st := range OrderStates {
		if st == s {
			return true
		}
	}
	return false
}

const (
	PriorityBaja    = "baja"
	PriorityMedia   = "media"
	PriorityAlta    = "alta"
	PriorityUrgente = "urgente"
)

type Order struct {
	ID              int                      `json:"id"`
	Numero          string                   `json:"numero"`
	CustomerID      *int                     `json:"customer_id,omitempty"`
	Cliente         string                   `json:"cliente"`
	Description     string                   `json:"description"`
	Location        string                   `json:"location"`
	State           OrderState               `json:"state"`
	Priority        string                   `json:"priority"`
	ResponsibleID   *int                     `json:"responsible_id,omitempty"`
	SupervisorID    *int                     `json:"supervisor_id,omitempty"`
	EstimatedBudget float64                  `json:"estimated_budget"`
	Notes           string                   `json:"notes"`
	Archived        bool                     `json:"archived"`
	ArchivedAt      *time.Time               `json:"archived_at,omitempty"`
	StateChangedAt  map[OrderState]time.Time `json:"state_changed_at"`
	DueDate         *time.Time               `json:"due_date,omitempty"`
	StartedAt       *time.Time               `json:"started_at,omitempty"`
	CompletedAt     *time.Time               `json:"completed_at,omitempty"`
	CreatedBy       int                      `json:"created_by"`
	CreatedAt       time.Time                `json:"created_at"`
	UpdatedAt       time.Time                `json:"updated_at"`
}

type OrderFilter struct {
	State         OrderState
	Priority      string
	ResponsibleID int
	CustomerID    int
	Search        string
	Archived      bool
	From          *time.Time
	To            *time.Time
	Page          int
	Limit         int

	// IncludeArchived lists archived and active orders together and ignores Archived.
	IncludeArchived bool
}

// OrderProgress is the view exposed to customers in the portal.
type OrderProgress struct {
	Order    *Order       `json:"order"`
	Progress int          `json:"progress"`
	Next     *OrderState  `json:"next_state,omitempty"`
	Evidence []Evidence   `json:"evidence"`
	Allowed  []OrderState `json:"allowed_states,omitempty"`
}
