package models

import "time"

const (
	ItemCheck     = "check"
	ItemNumero    = "numero"
	ItemTexto     = "texto"
	ItemCalculado = "calculado"
)

type ChecklistItem struct {
	Key      string `json:"key" yaml:"key"`
	Label    string `json:"label" yaml:"label"`
	Kind     string `json:"kind" yaml:"kind"`
	Formula  string `json:"formula,omitempty" yaml:"formula,omitempty"`
	Required bool   `json:"required" yaml:"required"`
}

type ChecklistTemplate struct {
	ID          int             `json:"id"`
	Name        string          `json:"name" yaml:"name"`
	Description string          `json:"description" yaml:"description"`
	Items       []ChecklistItem `json:"items" yaml:"items"`
	CreatedAt   time.Time       `json:"created_at"`
}

type Checklist struct {
	ID          int                    `json:"id"`
	ExecutionID int                    `json:"execution_id"`
	TemplateID  int                    `json:"template_id"`
	Name        string                 `json:"name"`
	Items       []ChecklistItem        `json:"items"`
	Answers     map[string]interface{} `json:"answers"`
	Completed   bool                   `json:"completed"`
	CompletedBy *int                   `json:"completed_by,omitempty"`
	CompletedAt *time.Time             `json:"completed_at,omitempty"`
	CreatedAt   time.Time              `json:"created_at"`
	UpdatedAt   time.Time              `json:"updated_at"`
}
