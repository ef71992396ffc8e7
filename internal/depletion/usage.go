package depletion

import (
	"math"
	"time"

	"gosupply/internal/domain"
)

// RecordUsage consome uma unidade do item no instante now.
//
// Se o intervalo desde o último uso for menor que durationPerUnit*minimumUpdateFraction
// e forceConfirm for falso, devolve o item intacto e requiresConfirmation=true.
// Caso contrário decrementa a quantidade (mínimo 0), move lastUsedAt para now e,
// se passou ao menos uma hora, mistura o intervalo observado na duração aprendida:
//
//	duration = clamp(duration*factor + observed*(1-factor), 1, MaxDurationPerUnit)
//
// onde observed são os dias inteiros decorridos, ou 1 quando menos de um dia passou.
func (e Estimator) RecordUsage(item domain.SupplyItem, now time.Time, forceConfirm bool) (domain.SupplyItem, bool) {
	elapsedDays := wholeDaysBetween(item.LastUsedAt, now, e.loc())
	elapsedHours := wholeHoursBetween(item.LastUsedAt, now)

	minimumRequiredDays := item.DurationPerUnit * item.MinimumUpdateFraction
	if float64(elapsedDays) < minimumRequiredDays && !forceConfirm {
		return item, true
	}

	next := item
	next.Quantity = max(0, item.Quantity-1)
	next.LastUsedAt = now

	if elapsedDays > 0 || elapsedHours >= 1 {
		observedDays := 1.0
		if elapsedDays > 0 {
			observedDays = float64(elapsedDays)
		}
		oldWeight := item.DurationAdjustmentFactor
		newWeight := 1 - oldWeight
		blended := item.DurationPerUnit*oldWeight + observedDays*newWeight
		next.DurationPerUnit = math.Min(domain.MaxDurationPerUnit, math.Max(domain.MinDurationPerUnit, blended))
	}

	return next, false
}

// Restock soma restockSize à quantidade (até MaxQuantity) e limpa o status de pedido.
func Restock(item domain.SupplyItem) domain.SupplyItem {
	item.Quantity = min(domain.MaxQuantity, item.Quantity+item.RestockSize)
	item.IsOnOrder = false
	return item
}

// SetOrderStatus só altera o indicador de pedido.
func SetOrderStatus(item domain.SupplyItem, ordered bool) domain.SupplyItem {
	item.IsOnOrder = ordered
	return item
}
