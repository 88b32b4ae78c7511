package models

import "time"

const (
	EvidenceFoto      = "FOTO"
	EvidenceVideo     = "VIDEO"
	EvidenceDocumento = "DOCUMENTO"
	EvidenceAudio     = "AUDIO"
)

const (
	EvidencePendiente = "pendiente"
	EvidenceAprobada  = "aprobada"
	EvidenceRechazada = "rechazada"
)

type Evidence struct {
	ID              int        `json:"id"`
	OrderID         int        `json:"order_id"`
	ExecutionID     *int       `json:"execution_id,omitempty"`
	Type            string     `json:"type"`
	FileURL         string     `json:"file_url"`
	StorageKey      string     `json:"-"`
	FileName        string     `json:"file_name"`
	MimeType        string     `json:"mime_type"`
	Size            int64      `json:"size"`
	Latitude        *float64   `json:"latitude,omitempty"`
	Longitude       *float64   `json:"longitude,omitempty"`
	Description     string     `json:"description"`
	Status          string     `json:"status"`
	ReviewedBy      *int       `json:"reviewed_by,omitempty"`
	ReviewedAt      *time.Time `json:"reviewed_at,omitempty"`
	RejectionReason string     `json:"rejection_reason,omitempty"`
	UploadedBy      int        `json:"uploaded_by"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

type EvidenceFilter struct {
	Status string
	Type   string
}
