package domain

import "time"

// Valores padrão aplicados na criação de um item.
const (
	DefaultDurationAdjustmentFactor = 0.7
	DefaultMinimumUpdateFraction    = 0.6
	DefaultRestockSize              = 1
	MinDurationPerUnit              = 1.0
)

// Limites aceitos na entrada. Com eles, quantity*durationPerUnit cabe com folga
// na aritmética de calendário.
const (
	MaxQuantity        = 100_000
	MaxDurationPerUnit = 36_500.0
)

// SupplyItem representa um suprimento doméstico rastreado (papel higiênico, café, ...).
// @Description Item de suprimento com quantidade e taxa de consumo aprendida.
type SupplyItem struct {
	ID                       string    `json:"id" example:"7a1e0f56-1c1b-4a5f-9d6c-1f2a3b4c5d6e"`
	Name                     string    `json:"name" example:"Café em grãos"`
	CreatedDate              time.Time `json:"created_date"`
	Quantity                 int       `json:"quantity" example:"3"`
	DurationPerUnit          float64   `json:"duration_per_unit" example:"30"`
	NotifyThresholdDays      *int      `json:"notify_threshold_days,omitempty" example:"10"`
	IsOnOrder                bool      `json:"is_on_order"`
	LastUsedAt               time.Time `json:"last_used_at"`
	RestockSize              int       `json:"restock_size" example:"5"`
	DurationAdjustmentFactor float64   `json:"duration_adjustment_factor" example:"0.7"`
	MinimumUpdateFraction    float64   `json:"minimum_update_fraction" example:"0.6"`
	Version                  int       `json:"version"`
	UpdatedAt                time.Time `json:"updated_at"`
}

// ItemInput é o payload de criação/edição de um item.
// Campos ponteiro ausentes recebem os valores padrão.
type ItemInput struct {
	Name                     string     `json:"name" example:"Café em grãos"`
	CreatedDate              *time.Time `json:"created_date,omitempty"`
	Quantity                 int        `json:"quantity" example:"3"`
	DurationPerUnit          float64    `json:"duration_per_unit" example:"30"`
	NotifyThresholdDays      *int       `json:"notify_threshold_days,omitempty" example:"10"`
	LastUsedAt               *time.Time `json:"last_used_at,omitempty"`
	RestockSize              *int       `json:"restock_size,omitempty" example:"5"`
	DurationAdjustmentFactor *float64   `json:"duration_adjustment_factor,omitempty" example:"0.7"`
	MinimumUpdateFraction    *float64   `json:"minimum_update_fraction,omitempty" example:"0.6"`
}

// Status é a classificação de urgência usada apenas na apresentação.
type Status string

const (
	StatusCritical Status = "critical"
	StatusWarning  Status = "warning"
	StatusNormal   Status = "normal"
)

// ItemView é o modelo de leitura: o item mais os campos derivados pelo estimador.
type ItemView struct {
	SupplyItem
	EstimatedEmptyDate time.Time `json:"estimated_empty_date"`
	DaysUntilEmpty     int       `json:"days_until_empty" example:"12"`
	Status             Status    `json:"status" example:"warning"`
	IsUnderThreshold   bool      `json:"is_under_threshold"`
}

// UsageResult é o retorno de useItem. RequiresConfirmation=true significa que nada foi gravado.
type UsageResult struct {
	Item                 ItemView `json:"item"`
	RequiresConfirmation bool     `json:"requires_confirmation"`
}

// MutateFunc calcula o novo estado de um item dentro da seção serializada do repositório.
// write=false descarta a gravação e devolve o item lido.
type MutateFunc func(current SupplyItem) (next SupplyItem, write bool, err error)

// SortOrder define a ordenação da listagem.
type SortOrder string

const (
	SortByCreatedDesc SortOrder = "created_desc"
	SortByName        SortOrder = "name"
	SortByEmptyDate   SortOrder = "empty_date"
)

// ListFilter controla a listagem de itens.
type ListFilter struct {
	NameContains       string
	Sort               SortOrder
	OnlyUnderThreshold bool
	OnlyOnOrder        bool
}
