package postgres

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"github.com/BilalDariyeri/MUBA-MUHASEBE-VE-MUSTERI-TAKIP-UYGULAMASI-sub001/internal/domain/entity"
	"github.com/BilalDariyeri/MUBA-MUHASEBE-VE-MUSTERI-TAKIP-UYGULAMASI-sub001/internal/domain/repository"
)

var _ repository.StockMovementRepository = (*StockMovementRepo)(nil)

const stockMovementsTable = "stock_movements"

var movementColumns = []string{
	"id", "seq", "material_id", "type", "quantity", "unit_price", "total_value",
	"resulting_stock", "resulting_average_cost", "reference_type", "reference_id", "notes", "created_at",
}

// insertMovementColumns todas menos seq (BIGSERIAL).
var insertMovementColumns = []string{
	"id", "material_id", "type", "quantity", "unit_price", "total_value",
	"resulting_stock", "resulting_average_cost", "reference_type", "reference_id", "notes", "created_at",
}

// StockMovementRepo movimientos de inventario (solo inserción).
type StockMovementRepo struct {
	q Querier
}

// NewStockMovementRepository construye el adaptador. Pasar pool o tx.
func NewStockMovementRepository(q Querier) *StockMovementRepo {
	return &StockMovementRepo{q: q}
}

// Create inserta el movimiento; seq lo asigna la base (BIGSERIAL).
func (r *StockMovementRepo) Create(ctx context.Context, mv *entity.StockMovement) error {
	query, args, err := buildInsertMovementQuery(mv)
	if err != nil {
		return fmt.Errorf("build insert movement: %w", err)
	}
	if err := r.q.QueryRow(ctx, query, args...).Scan(&mv.Seq); err != nil {
		return fmt.Errorf("insert movement: %w", err)
	}
	return nil
}

func buildInsertMovementQuery(mv *entity.StockMovement) (string, []any, error) {
	return psql.Insert(stockMovementsTable).
		Columns(insertMovementColumns...).
		Values(
			mv.ID, mv.MaterialID, mv.Type, mv.Quantity, mv.UnitPrice, mv.TotalValue,
			mv.ResultingStock, mv.ResultingAverageCost, mv.ReferenceType, mv.ReferenceID, mv.Notes, mv.CreatedAt,
		).
		Suffix("RETURNING seq").
		ToSql()
}

// ListByMaterial historial ordenado por (created_at, seq).
func (r *StockMovementRepo) ListByMaterial(ctx context.Context, materialID string, filter repository.MovementFilter) ([]entity.StockMovement, error) {
	query, args, err := buildMovementHistoryQuery(materialID, filter)
	if err != nil {
		return nil, fmt.Errorf("build movement history: %w", err)
	}
	var list []entity.StockMovement
	if err := pgxscan.Select(ctx, r.q, &list, query, args...); err != nil {
		return nil, fmt.Errorf("list movements: %w", err)
	}
	return list, nil
}

// ListByReference movimientos de un documento (ej. factura de compra).
func (r *StockMovementRepo) ListByReference(ctx context.Context, referenceType, referenceID string) ([]entity.StockMovement, error) {
	query, args, err := psql.Select(movementColumns...).
		From(stockMovementsTable).
		Where(squirrel.Eq{"reference_type": referenceType, "reference_id": referenceID}).
		OrderBy("created_at ASC", "seq ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build movements by reference: %w", err)
	}
	var list []entity.StockMovement
	if err := pgxscan.Select(ctx, r.q, &list, query, args...); err != nil {
		return nil, fmt.Errorf("list movements by reference: %w", err)
	}
	return list, nil
}

func buildMovementHistoryQuery(materialID string, filter repository.MovementFilter) (string, []any, error) {
	q := psql.Select(movementColumns...).
		From(stockMovementsTable).
		Where(squirrel.Eq{"material_id": materialID}).
		OrderBy("created_at ASC", "seq ASC")
	if filter.From != nil {
		q = q.Where(squirrel.GtOrEq{"created_at": *filter.From})
	}
	if filter.To != nil {
		q = q.Where(squirrel.LtOrEq{"created_at": *filter.To})
	}
	return paginate(q, filter.Limit, filter.Offset).ToSql()
}
