package inventory

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/BilalDariyeri/MUBA-MUHASEBE-VE-MUSTERI-TAKIP-UYGULAMASI-sub001/internal/domain/entity"
)

// LedgerMismatchError un movimiento no coincide con el saldo reconstruido.
type LedgerMismatchError struct {
	Index      int
	MovementID string
	Expected   Balance
	Recorded   Balance
}

func (e *LedgerMismatchError) Error() string {
	return fmt.Sprintf("movimiento %d (%s): esperado stock=%s costo=%s, registrado stock=%s costo=%s",
		e.Index, e.MovementID,
		e.Expected.Stock, e.Expected.AverageCost,
		e.Recorded.Stock, e.Recorded.AverageCost)
}

// Replay reproduce los movimientos (ya ordenados por CreatedAt, Seq) desde 0/0 y verifica
// que cada uno registre exactamente el saldo que produce. Devuelve el saldo final.
func Replay(movements []entity.StockMovement, scale int32) (Balance, error) {
	bal := Balance{Stock: decimal.Zero, AverageCost: decimal.Zero}
	for i, m := range movements {
		switch m.Type {
		case entity.MovementTypeReceipt:
			next, err := ApplyReceipt(bal, m.Quantity, m.UnitPrice, scale)
			if err != nil {
				return bal, fmt.Errorf("movimiento %d (%s): %w", i, m.ID, err)
			}
			bal = next
		default:
			return bal, fmt.Errorf("movimiento %d (%s): tipo %q no soportado", i, m.ID, m.Type)
		}
		recorded := Balance{Stock: m.ResultingStock, AverageCost: m.ResultingAverageCost}
		if !bal.Stock.Equal(recorded.Stock) || !bal.AverageCost.Equal(recorded.AverageCost) {
			return bal, &LedgerMismatchError{Index: i, MovementID: m.ID, Expected: bal, Recorded: recorded}
		}
	}
	return bal, nil
}
