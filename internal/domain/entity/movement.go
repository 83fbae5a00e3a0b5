package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Tipos de movimiento del libro de stock.
const (
	MovementAddition    = "addition"    // entrada
	MovementConsumption = "consumption" // consumo interno
	MovementExit        = "exit"        // salida no consumida (donación, traslado, pérdida...)
	MovementCorrection  = "correction"  // ajuste por inventario físico o corrección manual
)

// MovementFilterExitOrConsumption filtro combinado de historial (exit + consumption).
const MovementFilterExitOrConsumption = "exit+consumption"

// Subtipos de salida.
const (
	ExitDonation         = "donation"
	ExitTransfer         = "transfer"
	ExitLoss             = "loss"
	ExitExpiredDiscard   = "expired-discard"
	ExitReturnToSupplier = "return-to-supplier"
	ExitOther            = "other"
)

// QuantityScale decimales que conserva el almacenamiento (NUMERIC(18,4)).
const QuantityScale = 4

// FitsScale indica si d se guarda sin redondeo con QuantityScale decimales.
// Los ceros a la derecha no cuentan: 2.50000 es válido.
func FitsScale(d decimal.Decimal) bool { return d.Equal(d.Truncate(QuantityScale)) }

// MovementKinds lista los tipos válidos.
var MovementKinds = []string{MovementAddition, MovementConsumption, MovementExit, MovementCorrection}

// ExitKinds lista los subtipos de salida válidos.
var ExitKinds = []string{ExitDonation, ExitTransfer, ExitLoss, ExitExpiredDiscard, ExitReturnToSupplier, ExitOther}

// IsValidMovementKind indica si k es un tipo de movimiento conocido.
func IsValidMovementKind(k string) bool { return contains(MovementKinds, k) }

// IsValidExitKind indica si k es un subtipo de salida conocido.
func IsValidExitKind(k string) bool { return contains(ExitKinds, k) }

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

// Movement es un asiento inmutable del libro: un cambio de cantidad y su causa.
// BalanceAfter = saldo anterior + Delta. Seq es monótona y desempata movimientos
// con el mismo CreatedAt.
type Movement struct {
	ID           string
	Seq          int64
	ItemID       string
	ItemName     string // solo lectura (join), no se persiste
	Kind         string
	ExitKind     string
	Delta        decimal.Decimal
	BalanceAfter decimal.Decimal
	Destination  string
	Reason       string
	ActorID      string
	CreatedAt    time.Time
}

// BalanceBefore reconstruye el saldo previo al movimiento.
func (m *Movement) BalanceBefore() decimal.Decimal { return m.BalanceAfter.Sub(m.Delta) }
