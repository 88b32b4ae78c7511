package models

import "time"

type CostCategory string

const (
	CostMaterials      CostCategory = "MATERIALS"
	CostLabor          CostCategory = "LABOR"
	CostEquipment      CostCategory = "EQUIPMENT"
	CostTransportation CostCategory = "TRANSPORTATION"
	CostPermits        CostCategory = "PERMITS"
	CostOverhead       CostCategory = "OVERHEAD"
)

var CostCategories = []CostCategory{
	CostMaterials,
	CostLabor,
	CostEquipment,
	CostTransportation,
	CostPermits,
	CostOverhead,
}

const (
	CostPresupuestado = "presupuestado"
	CostReal          = "real"
)

const (
	BudgetUnder = "UNDER_BUDGET"
	BudgetOn    = "ON_BUDGET"
	BudgetOver  = "OVER_BUDGET"
)

type CostItem struct {
	ID          int          `json:"id"`
	OrderID     int          `json:"order_id"`
	Category    CostCategory `json:"category"`
	Kind        string       `json:"kind"`
	Description string       `json:"description"`
	Quantity    float64      `json:"quantity"`
	UnitCost    float64      `json:"unit_cost"`
	Total       float64      `json:"total"`
	CreatedBy   int          `json:"created_by"`
	CreatedAt   time.Time    `json:"created_at"`
}

type CategoryCost struct {
	Budgeted float64 `json:"budgeted"`
	Actual   float64 `json:"actual"`
	Variance float64 `json:"variance"`
}

type CostSummary struct {
	OrderID            int                           `json:"order_id"`
	Budgeted           float64                       `json:"budgeted"`
	Actual             float64                       `json:"actual"`
	Tax                float64                       `json:"tax"`
	TotalWithTax       float64                       `json:"total_with_tax"`
	Variance           float64                       `json:"variance"`
	VariancePercentage float64                       `json:"variance_percentage"`
	Status             string                        `json:"status"`
	ByCategory         map[CostCategory]CategoryCost `json:"by_category"`
}
