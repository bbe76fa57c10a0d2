package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/BilalDariyeri/MUBA-MUHASEBE-VE-MUSTERI-TAKIP-UYGULAMASI-sub001/internal/application/inventory"
	"github.com/BilalDariyeri/MUBA-MUHASEBE-VE-MUSTERI-TAKIP-UYGULAMASI-sub001/internal/application/payments"
	"github.com/BilalDariyeri/MUBA-MUHASEBE-VE-MUSTERI-TAKIP-UYGULAMASI-sub001/internal/application/purchasing"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	Engine       *inventory.CostingEngine
	MaterialUC   *inventory.MaterialUseCase
	PurchaseUC   *purchasing.UseCase
	Payments     *payments.Service
	SyncEnqueuer SyncEnqueuer // nil = POST /payments/sync en línea
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api")

	materials := api.Group("/materials")
	materialHandler := NewMaterialHandler(deps.MaterialUC, deps.Engine)
	materials.Post("/", materialHandler.Create)
	materials.Get("/", materialHandler.List)
	materials.Get("/:id", materialHandler.GetByID)
	materials.Put("/:id", materialHandler.Update)
	materials.Get("/:id/movements", materialHandler.Movements)
	materials.Get("/:id/ledger", materialHandler.Ledger)

	invGroup := api.Group("/inventory")
	inventoryHandler := NewInventoryHandler(deps.Engine)
	invGroup.Post("/receipts", inventoryHandler.RecordReceipt)

	invoices := api.Group("/purchase-invoices")
	invoiceHandler := NewPurchaseInvoiceHandler(deps.PurchaseUC)
	invoices.Post("/", invoiceHandler.Create)
	invoices.Get("/", invoiceHandler.List)
	invoices.Get("/:id", invoiceHandler.GetByID)

	pays := api.Group("/payments")
	paymentHandler := NewPaymentHandler(deps.Payments, deps.SyncEnqueuer)
	pays.Get("/", paymentHandler.List)
	pays.Post("/ensure", paymentHandler.Ensure)
	pays.Post("/sync", paymentHandler.Sync)
}
