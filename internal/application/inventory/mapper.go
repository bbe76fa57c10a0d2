package inventory

import (
	"github.com/BilalDariyeri/MUBA-MUHASEBE-VE-MUSTERI-TAKIP-UYGULAMASI-sub001/internal/application/dto"
	"github.com/BilalDariyeri/MUBA-MUHASEBE-VE-MUSTERI-TAKIP-UYGULAMASI-sub001/internal/domain/entity"
)

// ToMaterialResponse mapea la entidad a su DTO.
func ToMaterialResponse(m *entity.Material) *dto.MaterialResponse {
	return &dto.MaterialResponse{
		ID:                m.ID,
		Code:              m.Code,
		Name:              m.Name,
		Unit:              m.Unit,
		TaxRate:           m.TaxRate,
		Notes:             m.Notes,
		Stock:             m.Stock,
		AverageCost:       m.AverageCost,
		LastPurchasePrice: m.LastPurchasePrice,
		LastMovementAt:    m.LastMovementAt,
		CreatedAt:         m.CreatedAt,
		UpdatedAt:         m.UpdatedAt,
	}
}

func ToMovementResponse(m entity.StockMovement) dto.MovementResponse {
	return dto.MovementResponse{
		ID:                   m.ID,
		Seq:                  m.Seq,
		MaterialID:           m.MaterialID,
		Type:                 m.Type,
		Quantity:             m.Quantity,
		UnitPrice:            m.UnitPrice,
		TotalValue:           m.TotalValue,
		ResultingStock:       m.ResultingStock,
		ResultingAverageCost: m.ResultingAverageCost,
		ReferenceType:        m.ReferenceType,
		ReferenceID:          m.ReferenceID,
		Notes:                m.Notes,
		CreatedAt:            m.CreatedAt,
	}
}

func ToReceiptResponse(materialID string, r *ReceiptResult) *dto.ReceiptResponse {
	return &dto.ReceiptResponse{
		MaterialID:  materialID,
		Stock:       r.Stock,
		AverageCost: r.AverageCost,
		Movement:    ToMovementResponse(r.Movement),
	}
}

func ToLedgerReportResponse(r *LedgerReport) *dto.LedgerReportResponse {
	return &dto.LedgerReportResponse{
		MaterialID:       r.MaterialID,
		Movements:        r.Movements,
		Consistent:       r.Consistent,
		SnapshotStock:    r.SnapshotStock,
		SnapshotCost:     r.SnapshotCost,
		ReplayedStock:    r.ReplayedStock,
		ReplayedCost:     r.ReplayedCost,
		MismatchIndex:    r.MismatchIndex,
		MismatchMovement: r.MismatchMovement,
		Detail:           r.Detail,
	}
}
