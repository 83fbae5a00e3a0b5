// Package stock contiene servicios de dominio puros sobre el catálogo y el libro:
// evaluación de alertas y normalización de texto para búsquedas.
package stock

import (
	"time"

	"github.com/jhoicas/stock-ledger-api/internal/domain/entity"
)

// Status estado derivado de un artículo. Nunca se persiste.
type Status string

const (
	StatusAvailable    Status = "available"
	StatusExpiringSoon Status = "expiring-soon"
	StatusLow          Status = "low"
	StatusExpired      Status = "expired"
	StatusCritical     Status = "critical"
)

// DefaultExpiringWindowDays ventana por defecto de "próximo a vencer".
const DefaultExpiringWindowDays = 30

// Policy parámetros del evaluador.
type Policy struct {
	ExpiringWindowDays int
}

// DefaultPolicy devuelve la política por defecto.
func DefaultPolicy() Policy { return Policy{ExpiringWindowDays: DefaultExpiringWindowDays} }

// Statuses en orden de severidad descendente.
var Statuses = []Status{StatusCritical, StatusExpired, StatusLow, StatusExpiringSoon, StatusAvailable}

// IsValidStatus indica si s es un estado conocido.
func IsValidStatus(s string) bool {
	for _, v := range Statuses {
		if string(v) == s {
			return true
		}
	}
	return false
}

// Severity devuelve 0 para el estado más grave.
func Severity(s Status) int {
	for i, v := range Statuses {
		if v == s {
			return i
		}
	}
	return len(Statuses)
}

// IsAlert indica si el estado requiere atención.
func IsAlert(s Status) bool { return s != StatusAvailable }

// DaysToExpiration cuenta días calendario entre hoy y la fecha de vencimiento
// (0 = vence hoy, negativo = vencido). ok es false si el artículo no vence.
// El vencimiento es un DATE guardado como medianoche UTC; "hoy" es el día de now
// en su propia zona.
func DaysToExpiration(item *entity.StockItem, now time.Time) (days int, ok bool) {
	if item.ExpirationDate == nil {
		return 0, false
	}
	exp := item.ExpirationDate.UTC()
	expDay := time.Date(exp.Year(), exp.Month(), exp.Day(), 0, 0, 0, 0, time.UTC)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	return int(expDay.Sub(today) / (24 * time.Hour)), true
}

// Evaluate deriva el estado con una precedencia única:
//
//	critical      cantidad == 0
//	expired       vence hoy o antes
//	low           umbral > 0 y cantidad <= umbral
//	expiring-soon faltan menos de ExpiringWindowDays días
//	available     en otro caso
//
// Un artículo vencido deja de estarlo cuando su cantidad se lleva a 0.
func Evaluate(item *entity.StockItem, now time.Time, p Policy) Status {
	if item.Quantity.Sign() <= 0 {
		return StatusCritical
	}
	days, expires := DaysToExpiration(item, now)
	if expires && days <= 0 {
		return StatusExpired
	}
	if item.CriticalThreshold.Sign() > 0 && item.Quantity.LessThanOrEqual(item.CriticalThreshold) {
		return StatusLow
	}
	window := p.ExpiringWindowDays
	if window <= 0 {
		window = DefaultExpiringWindowDays
	}
	if expires && days < window {
		return StatusExpiringSoon
	}
	return StatusAvailable
}
