package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"

	"github.com/BilalDariyeri/MUBA-MUHASEBE-VE-MUSTERI-TAKIP-UYGULAMASI-sub001/internal/domain"
	"github.com/BilalDariyeri/MUBA-MUHASEBE-VE-MUSTERI-TAKIP-UYGULAMASI-sub001/internal/domain/entity"
	"github.com/BilalDariyeri/MUBA-MUHASEBE-VE-MUSTERI-TAKIP-UYGULAMASI-sub001/internal/domain/repository"
)

var _ repository.MaterialRepository = (*MaterialRepo)(nil)

const materialColumns = `id, code, name, unit, tax_rate, notes, stock, average_cost, last_purchase_price, last_movement_at, created_at, updated_at`

// MaterialRepo implementación del puerto MaterialRepository sobre PostgreSQL (usable con pool o tx).
type MaterialRepo struct {
	q Querier
}

// NewMaterialRepository construye el adaptador. Pasar pool o tx (Querier).
func NewMaterialRepository(q Querier) *MaterialRepo {
	return &MaterialRepo{q: q}
}

// Create persiste un nuevo material.
func (r *MaterialRepo) Create(ctx context.Context, m *entity.Material) error {
	query := `
		INSERT INTO materials (` + materialColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`
	_, err := r.q.Exec(ctx, query,
		m.ID, m.Code, m.Name, m.Unit, m.TaxRate, m.Notes,
		m.Stock, m.AverageCost, m.LastPurchasePrice, m.LastMovementAt, m.CreatedAt, m.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert material: %w", err)
	}
	return nil
}

// GetByID obtiene un material por ID.
func (r *MaterialRepo) GetByID(ctx context.Context, id string) (*entity.Material, error) {
	return r.getOne(ctx, `SELECT `+materialColumns+` FROM materials WHERE id = $1`, id)
}

// GetForUpdate obtiene el material bloqueando la fila hasta el fin de la transacción.
func (r *MaterialRepo) GetForUpdate(ctx context.Context, id string) (*entity.Material, error) {
	return r.getOne(ctx, `SELECT `+materialColumns+` FROM materials WHERE id = $1 FOR UPDATE`, id)
}

// GetByCode obtiene un material por código.
func (r *MaterialRepo) GetByCode(ctx context.Context, code string) (*entity.Material, error) {
	return r.getOne(ctx, `SELECT `+materialColumns+` FROM materials WHERE code = $1`, code)
}

func (r *MaterialRepo) getOne(ctx context.Context, query string, arg any) (*entity.Material, error) {
	var m entity.Material
	err := r.q.QueryRow(ctx, query, arg).Scan(
		&m.ID, &m.Code, &m.Name, &m.Unit, &m.TaxRate, &m.Notes,
		&m.Stock, &m.AverageCost, &m.LastPurchasePrice, &m.LastMovementAt, &m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get material: %w", err)
	}
	return &m, nil
}

// UpdateDetails actualiza los campos descriptivos.
func (r *MaterialRepo) UpdateDetails(ctx context.Context, m *entity.Material) error {
	query := `
		UPDATE materials SET code = $2, name = $3, unit = $4, tax_rate = $5, notes = $6, updated_at = $7
		WHERE id = $1`
	tag, err := r.q.Exec(ctx, query, m.ID, m.Code, m.Name, m.Unit, m.TaxRate, m.Notes, m.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("update material: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// UpdateBalance actualiza stock, costo promedio y último precio de compra.
func (r *MaterialRepo) UpdateBalance(ctx context.Context, m *entity.Material) error {
	query := `
		UPDATE materials
		SET stock = $2, average_cost = $3, last_purchase_price = $4, last_movement_at = $5, updated_at = $6
		WHERE id = $1`
	tag, err := r.q.Exec(ctx, query, m.ID, m.Stock, m.AverageCost, m.LastPurchasePrice, m.LastMovementAt, m.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update balance: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// List lista materiales por código, filtrando por código o nombre (ILIKE).
func (r *MaterialRepo) List(ctx context.Context, search string, limit, offset int) ([]*entity.Material, error) {
	query, args, err := buildMaterialListQuery(search, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("build material list: %w", err)
	}
	var list []*entity.Material
	if err := pgxscan.Select(ctx, r.q, &list, query, args...); err != nil {
		return nil, fmt.Errorf("list materials: %w", err)
	}
	return list, nil
}

func buildMaterialListQuery(search string, limit, offset int) (string, []any, error) {
	q := psql.Select(materialColumns).From("materials").OrderBy("code ASC")
	if search != "" {
		pattern := "%" + search + "%"
		q = q.Where(squirrel.Or{
			squirrel.ILike{"code": pattern},
			squirrel.ILike{"name": pattern},
		})
	}
	return paginate(q, limit, offset).ToSql()
}
