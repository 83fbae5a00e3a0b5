package stock

import (
	"time"

	"github.com/jhoicas/stock-ledger-api/internal/application/dto"
	"github.com/jhoicas/stock-ledger-api/internal/domain/entity"
	domainstock "github.com/jhoicas/stock-ledger-api/internal/domain/stock"
)

func toItemResponse(it *entity.StockItem, now time.Time, p domainstock.Policy) dto.ItemResponse {
	r := dto.ItemResponse{
		ID:                it.ID,
		Name:              it.Name,
		Category:          it.Category,
		Unit:              it.Unit,
		UnitPrice:         it.UnitPrice,
		Quantity:          it.Quantity,
		Value:             it.Value(),
		CriticalThreshold: it.CriticalThreshold,
		PurchaseDate:      dto.NewDate(it.PurchaseDate),
		ExpirationDate:    dto.NewDate(it.ExpirationDate),
		Status:            string(domainstock.Evaluate(it, now, p)),
		Supplier:          it.Supplier,
		Location:          it.Location,
		Notes:             it.Notes,
		Version:           it.Version,
		Archived:          it.Archived(),
		CreatedAt:         it.CreatedAt,
		UpdatedAt:         it.UpdatedAt,
	}
	if it.Barcode != nil {
		r.Barcode = *it.Barcode
	}
	if days, ok := domainstock.DaysToExpiration(it, now); ok {
		r.DaysToExpiration = &days
	}
	return r
}

func toMovementResponse(m *entity.Movement) dto.MovementResponse {
	return dto.MovementResponse{
		ID:            m.ID,
		Seq:           m.Seq,
		ItemID:        m.ItemID,
		ItemName:      m.ItemName,
		Kind:          m.Kind,
		ExitKind:      m.ExitKind,
		Delta:         m.Delta,
		BalanceBefore: m.BalanceBefore(),
		BalanceAfter:  m.BalanceAfter,
		Destination:   m.Destination,
		Reason:        m.Reason,
		ActorID:       m.ActorID,
		CreatedAt:     m.CreatedAt,
	}
}

func toMovementResponses(list []*entity.Movement) []dto.MovementResponse {
	out := make([]dto.MovementResponse, 0, len(list))
	for _, m := range list {
		out = append(out, toMovementResponse(m))
	}
	return out
}
