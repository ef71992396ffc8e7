// Package depletion calcula a previsão de esgotamento de um item e aplica as
// transições de uso, reposição e pedido sobre um snapshot.
// Nada aqui faz I/O: quem chama lê o snapshot e grava o resultado.
package depletion

import (
	"math"
	"time"

	"gosupply/internal/domain"
)

// Limiares de urgência (em dias) usados na classificação de apresentação.
const (
	CriticalDays = 7
	WarningDays  = 14
)

// Estimator faz as contas de calendário no fuso configurado.
type Estimator struct {
	Location *time.Location
}

// NewEstimator cria um Estimator; loc nil significa time.Local.
func NewEstimator(loc *time.Location) Estimator {
	if loc == nil {
		loc = time.Local
	}
	return Estimator{Location: loc}
}

func (e Estimator) loc() *time.Location {
	if e.Location == nil {
		return time.Local
	}
	return e.Location
}

// maxHorizonDays limita o horizonte para valores gravados fora dos limites de entrada.
const maxHorizonDays = float64(domain.MaxQuantity) * domain.MaxDurationPerUnit

// EstimatedEmptyDate é lastUsedAt + floor(quantity * durationPerUnit) dias.
// Com quantity = 0 o resultado é o próprio lastUsedAt.
func (e Estimator) EstimatedEmptyDate(item domain.SupplyItem) time.Time {
	return item.LastUsedAt.In(e.loc()).AddDate(0, 0, horizonDays(item))
}

func horizonDays(item domain.SupplyItem) int {
	days := math.Floor(float64(item.Quantity) * item.DurationPerUnit)
	switch {
	case math.IsNaN(days) || days <= 0:
		return 0
	case days > maxHorizonDays:
		return int(maxHorizonDays)
	default:
		return int(days)
	}
}

// DaysUntilEmpty conta os dias de calendário entre hoje e o dia previsto de esgotamento.
// Negativo significa atrasado.
func (e Estimator) DaysUntilEmpty(item domain.SupplyItem, now time.Time) int {
	return calendarDaysBetween(now, e.EstimatedEmptyDate(item), e.loc())
}

// IsUnderThreshold compara a quantidade com notifyThresholdDays (0 quando ausente).
// Mistura unidades com dias, e o comportamento é mantido assim de propósito.
func IsUnderThreshold(item domain.SupplyItem) bool {
	threshold := 0
	if item.NotifyThresholdDays != nil {
		threshold = *item.NotifyThresholdDays
	}
	return item.Quantity <= threshold
}

// Classify traduz os dias restantes na cor de urgência.
func Classify(daysUntilEmpty int) domain.Status {
	switch {
	case daysUntilEmpty <= CriticalDays:
		return domain.StatusCritical
	case daysUntilEmpty <= WarningDays:
		return domain.StatusWarning
	default:
		return domain.StatusNormal
	}
}

// Describe monta o modelo de leitura com todos os campos derivados.
func (e Estimator) Describe(item domain.SupplyItem, now time.Time) domain.ItemView {
	days := e.DaysUntilEmpty(item, now)
	return domain.ItemView{
		SupplyItem:         item,
		EstimatedEmptyDate: e.EstimatedEmptyDate(item),
		DaysUntilEmpty:     days,
		Status:             Classify(days),
		IsUnderThreshold:   IsUnderThreshold(item),
	}
}

// StartOfDay expõe o início do dia no fuso do estimador (usado pelo agendador de alertas).
func (e Estimator) StartOfDay(t time.Time) time.Time {
	return startOfDay(t, e.loc())
}
