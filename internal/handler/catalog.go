package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/vuhoangviet271/packing-video-app/internal/apierror"
	"github.com/vuhoangviet271/packing-video-app/internal/dto"
	"github.com/vuhoangviet271/packing-video-app/internal/model"
	"github.com/vuhoangviet271/packing-video-app/internal/repository"
	"github.com/vuhoangviet271/packing-video-app/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// CatalogHandler serves read-mostly resources: products, orders, persisted
// recordings, the inventory ledger, and reconciliation tasks.
type CatalogHandler struct {
	products        repository.ProductRepository
	orders          repository.OrderRepository
	videos          repository.VideoRepository
	inventory       repository.InventoryRepository
	reconciliations repository.ReconciliationRepository
	backend         service.Backend
	cache           *service.ProductCache
}

func NewCatalogHandler(
	products repository.ProductRepository,
	orders repository.OrderRepository,
	videos repository.VideoRepository,
	inventory repository.InventoryRepository,
	reconciliations repository.ReconciliationRepository,
	backend service.Backend,
	cache *service.ProductCache,
) *CatalogHandler {
	return &CatalogHandler{
		products:        products,
		orders:          orders,
		videos:          videos,
		inventory:       inventory,
		reconciliations: reconciliations,
		backend:         backend,
		cache:           cache,
	}
}

func paging(c *gin.Context) (page, limit int) {
	page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ = strconv.Atoi(c.DefaultQuery("limit", "50"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 200 {
		limit = 50
	}
	return page, limit
}

// ListProducts handles GET /products.
func (h *CatalogHandler) ListProducts(c *gin.Context) {
	page, limit := paging(c)
	filter := dto.ProductFilter{
		SKU:     c.Query("sku"),
		Barcode: c.Query("barcode"),
		Name:    c.Query("name"),
		Combo:   c.Query("combo"),
		Page:    page,
		Limit:   limit,
	}

	products, total, err := h.products.List(c.Request.Context(), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, apierror.New("failed to list products"))
		return
	}

	views := make([]dto.ProductView, 0, len(products))
	for i := range products {
		views = append(views, toProductView(&products[i]))
	}
	c.JSON(http.StatusOK, dto.ProductListResponse{Data: views, Total: total, Page: page, Limit: limit})
}

// GetProductByBarcode handles GET /products/barcode/:code. Resolution goes
// through the same cache the scan path uses, so the endpoint doubles as a
// cache probe.
func (h *CatalogHandler) GetProductByBarcode(c *gin.Context) {
	code := c.Param("code")

	if p, ok := h.cache.Lookup(code); ok {
		c.JSON(http.StatusOK, toProductView(p))
		return
	}

	p, err := h.products.FindByBarcode(c.Request.Context(), code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, apierror.New("product not found"))
			return
		}
		c.JSON(http.StatusInternalServerError, apierror.New("failed to look up product"))
		return
	}
	c.JSON(http.StatusOK, toProductView(p))
}

// GetOrder handles GET /orders/:shippingCode.
func (h *CatalogHandler) GetOrder(c *gin.Context) {
	code := c.Param("shippingCode")
	order, err := h.orders.FindByShippingCode(c.Request.Context(), code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, apierror.New("order not found"))
			return
		}
		c.JSON(http.StatusInternalServerError, apierror.New("failed to fetch order"))
		return
	}

	view := dto.OrderView{
		ID:           order.ID.String(),
		ShippingCode: order.ShippingCode,
		Source:       order.Source,
		Items:        make([]dto.OrderItemView, 0, len(order.Items)),
	}
	for _, it := range order.Items {
		iv := dto.OrderItemView{ProductID: it.ProductID.String(), Quantity: it.Quantity}
		if it.Product != nil {
			iv.ProductName = it.Product.Name
			iv.SKU = it.Product.SKU
			iv.IsCombo = it.Product.IsCombo
		}
		view.Items = append(view.Items, iv)
	}
	c.JSON(http.StatusOK, view)
}

// ListRecordings handles GET /recordings.
func (h *CatalogHandler) ListRecordings(c *gin.Context) {
	page, limit := paging(c)
	filter := dto.RecordingFilter{
		Type:         c.Query("type"),
		Status:       c.Query("status"),
		ShippingCode: c.Query("shipping_code"),
		Page:         page,
		Limit:        limit,
	}

	records, total, err := h.videos.List(c.Request.Context(), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, apierror.New("failed to list recordings"))
		return
	}

	views := make([]dto.RecordingView, 0, len(records))
	for _, r := range records {
		views = append(views, dto.RecordingView{
			ID:           r.ID.String(),
			ShippingCode: r.ShippingCode,
			StaffID:      r.StaffID,
			Type:         string(r.Type),
			Status:       string(r.Status),
			Duration:     r.Duration,
			FileName:     r.FileName,
			MachineName:  r.MachineName,
			CreatedAt:    r.CreatedAt.Format(time.RFC3339),
		})
	}
	c.JSON(http.StatusOK, dto.RecordingListResponse{Data: views, Total: total, Page: page, Limit: limit})
}

// ListInventoryTransactions handles GET /inventory/transactions.
func (h *CatalogHandler) ListInventoryTransactions(c *gin.Context) {
	page, limit := paging(c)
	rows, total, err := h.inventory.List(c.Request.Context(), page, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, apierror.New("failed to list inventory transactions"))
		return
	}

	views := make([]dto.InventoryTransactionView, 0, len(rows))
	for _, t := range rows {
		v := dto.InventoryTransactionView{
			ID:        t.ID.String(),
			ProductID: t.ProductID.String(),
			Action:    string(t.Action),
			Quantity:  t.Quantity,
			CreatedAt: t.CreatedAt.Format(time.RFC3339),
		}
		if t.Reference != nil {
			v.Reference = *t.Reference
		}
		views = append(views, v)
	}
	c.JSON(http.StatusOK, dto.InventoryLogResponse{Data: views, Total: total, Page: page, Limit: limit})
}

// ListReconciliations handles GET /reconciliations.
func (h *CatalogHandler) ListReconciliations(c *gin.Context) {
	includeResolved := c.Query("include_resolved") == "true"
	tasks, err := h.reconciliations.List(c.Request.Context(), includeResolved)
	if err != nil {
		c.JSON(http.StatusInternalServerError, apierror.New("failed to list reconciliation tasks"))
		return
	}

	views := make([]dto.ReconciliationView, 0, len(tasks))
	for _, t := range tasks {
		views = append(views, dto.ReconciliationView{
			ID:           t.ID.String(),
			ShippingCode: t.ShippingCode,
			Type:         string(t.Type),
			FailedStep:   t.FailedStep,
			Reason:       t.Reason,
			FileName:     t.FileName,
			Resolved:     t.Resolved,
			CreatedAt:    t.CreatedAt.Format(time.RFC3339),
		})
	}
	c.JSON(http.StatusOK, gin.H{"data": views, "total": len(views)})
}

// ResolveReconciliation handles POST /reconciliations/:id/resolve.
func (h *CatalogHandler) ResolveReconciliation(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid task id"))
		return
	}
	if err := h.reconciliations.MarkResolved(c.Request.Context(), id); err != nil {
		c.JSON(http.StatusInternalServerError, apierror.New("failed to resolve task"))
		return
	}
	c.JSON(http.StatusOK, gin.H{"resolved": true})
}

// ReloadCache handles POST /cache/reload — replaces the in-memory barcode
// index from the catalog. The current index keeps serving scans until the
// new one is ready.
func (h *CatalogHandler) ReloadCache(c *gin.Context) {
	products, err := h.backend.LoadAllProducts(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusBadGateway, apierror.New("failed to load products"))
		return
	}
	h.cache.Load(products)
	log.Info().Int("products", len(products)).Int("barcodes", h.cache.Size()).Msg("product cache reloaded")
	c.JSON(http.StatusOK, gin.H{"products": len(products), "barcodes": h.cache.Size()})
}

func toProductView(p *model.Product) dto.ProductView {
	v := dto.ProductView{
		ID:            p.ID.String(),
		SKU:           p.SKU,
		Name:          p.Name,
		IsCombo:       p.IsCombo,
		Quantity:      p.Quantity,
		UnsellableQty: p.UnsellableQty,
	}
	if p.Barcode != nil {
		v.Barcode = *p.Barcode
	}
	for _, ab := range p.AdditionalBarcodes {
		v.AdditionalBarcodes = append(v.AdditionalBarcodes, ab.Barcode)
	}
	for _, comp := range p.Components {
		cv := dto.ComboComponentView{ProductID: comp.ComponentID.String(), Quantity: comp.Quantity}
		if comp.Component != nil {
			cv.ProductName = comp.Component.Name
			cv.SKU = comp.Component.SKU
		}
		v.Components = append(v.Components, cv)
	}
	return v
}
