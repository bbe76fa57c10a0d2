package inventory

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/BilalDariyeri/MUBA-MUHASEBE-VE-MUSTERI-TAKIP-UYGULAMASI-sub001/internal/application/dto"
	"github.com/BilalDariyeri/MUBA-MUHASEBE-VE-MUSTERI-TAKIP-UYGULAMASI-sub001/internal/domain"
	"github.com/BilalDariyeri/MUBA-MUHASEBE-VE-MUSTERI-TAKIP-UYGULAMASI-sub001/internal/domain/entity"
	domaininv "github.com/BilalDariyeri/MUBA-MUHASEBE-VE-MUSTERI-TAKIP-UYGULAMASI-sub001/internal/domain/inventory"
	"github.com/BilalDariyeri/MUBA-MUHASEBE-VE-MUSTERI-TAKIP-UYGULAMASI-sub001/internal/domain/repository"
)

const maxCodeSuffix = 999

// MaterialUseCase alta y mantenimiento de materiales. Stock y costo solo cambian vía CostingEngine.
type MaterialUseCase struct {
	txRunner TxRunner
	repo     repository.MaterialRepository
	engine   *CostingEngine
}

// NewMaterialUseCase construye el caso de uso.
func NewMaterialUseCase(txRunner TxRunner, repo repository.MaterialRepository, engine *CostingEngine) *MaterialUseCase {
	return &MaterialUseCase{txRunner: txRunner, repo: repo, engine: engine}
}

// Create crea el material en 0/0 y, si hay saldo inicial, registra la entrada OPENING en la misma transacción.
func (uc *MaterialUseCase) Create(ctx context.Context, in dto.CreateMaterialRequest) (*dto.MaterialResponse, error) {
	name := strings.TrimSpace(in.Name)
	unit := strings.TrimSpace(in.Unit)
	if name == "" || unit == "" {
		return nil, domain.ErrInvalidInput
	}
	taxRate := decimal.Zero
	if in.TaxRate != nil {
		if in.TaxRate.IsNegative() {
			return nil, domain.ErrInvalidInput
		}
		taxRate = *in.TaxRate
	}
	openingStock := decimal.Zero
	if in.OpeningStock != nil {
		openingStock = *in.OpeningStock
	}
	openingCost := decimal.Zero
	if in.OpeningCost != nil {
		openingCost = *in.OpeningCost
	}
	if openingStock.IsNegative() {
		return nil, domain.ErrInvalidQuantity
	}
	if openingCost.IsNegative() {
		return nil, domain.ErrInvalidPrice
	}

	now := time.Now().UTC()
	material := &entity.Material{
		ID:                uuid.New().String(),
		Name:              name,
		Unit:              unit,
		TaxRate:           taxRate,
		Notes:             in.Notes,
		Stock:             decimal.Zero,
		AverageCost:       decimal.Zero,
		LastPurchasePrice: decimal.Zero,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	err := uc.txRunner.Run(ctx, func(materialRepo repository.MaterialRepository, movRepo repository.StockMovementRepository) error {
		code, err := resolveCode(ctx, materialRepo, in.Code, name)
		if err != nil {
			return err
		}
		material.Code = code
		if err := materialRepo.Create(ctx, material); err != nil {
			return fmt.Errorf("create material: %w", err)
		}
		if !openingStock.IsPositive() {
			return nil
		}
		res, err := uc.engine.RecordReceiptInTx(ctx, materialRepo, movRepo, ReceiptInput{
			MaterialID:    material.ID,
			Quantity:      openingStock,
			UnitPrice:     openingCost,
			ReferenceType: entity.ReferenceOpening,
			ReferenceID:   material.ID,
			Notes:         "saldo inicial",
		})
		if err != nil {
			return err
		}
		material.Stock = res.Stock
		material.AverageCost = res.AverageCost
		material.LastPurchasePrice = openingCost
		material.LastMovementAt = &res.Movement.CreatedAt
		return nil
	})
	if err != nil {
		return nil, storageError("create material", err)
	}
	return ToMaterialResponse(material), nil
}

// resolveCode normaliza un código explícito (duplicado = error) o genera uno libre desde el nombre.
func resolveCode(ctx context.Context, repo repository.MaterialRepository, code, name string) (string, error) {
	if explicit := domaininv.NormalizeMaterialCode(code); explicit != "" {
		existing, err := repo.GetByCode(ctx, explicit)
		if err != nil {
			return "", fmt.Errorf("get by code: %w", err)
		}
		if existing != nil {
			return "", domain.ErrDuplicate
		}
		return explicit, nil
	}

	base := domaininv.GenerateMaterialCode(name)
	candidate := base
	for n := 1; ; n++ {
		existing, err := repo.GetByCode(ctx, candidate)
		if err != nil {
			return "", fmt.Errorf("get by code: %w", err)
		}
		if existing == nil {
			return candidate, nil
		}
		if n > maxCodeSuffix {
			return "", domain.ErrDuplicate
		}
		prefix := domaininv.TruncateCode(base, domaininv.MaxMaterialCodeLen-3)
		candidate = fmt.Sprintf("%s%03d", prefix, n)
	}
}

// Update actualiza campos descriptivos. No toca Stock ni AverageCost.
func (uc *MaterialUseCase) Update(ctx context.Context, id string, in dto.UpdateMaterialRequest) (*dto.MaterialResponse, error) {
	material, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, storageError("get material", err)
	}
	if material == nil {
		return nil, domain.ErrNotFound
	}
	if in.Code != nil {
		code := domaininv.NormalizeMaterialCode(*in.Code)
		if code == "" {
			return nil, domain.ErrInvalidInput
		}
		if code != material.Code {
			existing, err := uc.repo.GetByCode(ctx, code)
			if err != nil {
				return nil, storageError("get by code", err)
			}
			if existing != nil && existing.ID != material.ID {
				return nil, domain.ErrDuplicate
			}
			material.Code = code
		}
	}
	if in.Name != nil {
		if strings.TrimSpace(*in.Name) == "" {
			return nil, domain.ErrInvalidInput
		}
		material.Name = strings.TrimSpace(*in.Name)
	}
	if in.Unit != nil {
		if strings.TrimSpace(*in.Unit) == "" {
			return nil, domain.ErrInvalidInput
		}
		material.Unit = strings.TrimSpace(*in.Unit)
	}
	if in.TaxRate != nil {
		if in.TaxRate.IsNegative() {
			return nil, domain.ErrInvalidInput
		}
		material.TaxRate = *in.TaxRate
	}
	if in.Notes != nil {
		material.Notes = *in.Notes
	}
	material.UpdatedAt = time.Now().UTC()
	if err := uc.repo.UpdateDetails(ctx, material); err != nil {
		return nil, storageError("update material", err)
	}
	return ToMaterialResponse(material), nil
}

// GetByID obtiene un material con su saldo.
func (uc *MaterialUseCase) GetByID(ctx context.Context, id string) (*dto.MaterialResponse, error) {
	m, err := uc.engine.GetSnapshot(ctx, id)
	if err != nil {
		return nil, err
	}
	return ToMaterialResponse(m), nil
}

// List lista materiales filtrando por código o nombre.
func (uc *MaterialUseCase) List(ctx context.Context, search string, limit, offset int) (*dto.MaterialListResponse, error) {
	list, err := uc.repo.List(ctx, strings.TrimSpace(search), limit, offset)
	if err != nil {
		return nil, storageError("list materials", err)
	}
	items := make([]dto.MaterialResponse, 0, len(list))
	for _, m := range list {
		items = append(items, *ToMaterialResponse(m))
	}
	return &dto.MaterialListResponse{
		Items: items,
		Page:  dto.PageResponse{Limit: limit, Offset: offset},
	}, nil
}
