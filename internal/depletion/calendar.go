package depletion

import "time"

const secondsPerDay = 24 * 60 * 60

// startOfDay devolve a meia-noite local do dia de t.
func startOfDay(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

// calendarDaysBetween conta as viradas de dia entre o dia de a e o dia de b.
// A conta é feita sobre a data civil, então horário de verão não desloca o resultado.
func calendarDaysBetween(a, b time.Time, loc *time.Location) int {
	ay, am, ad := a.In(loc).Date()
	by, bm, bd := b.In(loc).Date()
	ca := time.Date(ay, am, ad, 0, 0, 0, 0, time.UTC)
	cb := time.Date(by, bm, bd, 0, 0, 0, 0, time.UTC)
	return int((cb.Unix() - ca.Unix()) / secondsPerDay)
}

// wholeDaysBetween conta os dias inteiros decorridos de from até to
// (maior n com from + n dias <= to). Negativo quando to é anterior a from.
func wholeDaysBetween(from, to time.Time, loc *time.Location) int {
	if to.Before(from) {
		return -wholeDaysBetween(to, from, loc)
	}
	from = from.In(loc)
	// A diferença de datas civis erra no máximo por um dia; os laços ajustam.
	n := calendarDaysBetween(from, to, loc)
	for n > 0 && from.AddDate(0, 0, n).After(to) {
		n--
	}
	for !from.AddDate(0, 0, n+1).After(to) {
		n++
	}
	return n
}

// wholeHoursBetween trunca em direção a zero.
func wholeHoursBetween(from, to time.Time) int {
	return int(to.Sub(from) / time.Hour)
}
