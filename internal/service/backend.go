package service

import (
	"context"
	"fmt"
	"time"

	"github.com/vuhoangviet271/packing-video-app/internal/model"
	"github.com/vuhoangviet271/packing-video-app/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ScannedItemInput is one product tally persisted with a recording.
type ScannedItemInput struct {
	ProductID     uuid.UUID
	ScannedQty    int
	ReturnQuality *model.ReturnQuality
}

// RecordingMetadata is the record created after the video artifact is
// durably stored — it references the artifact by file name, so ordering
// matters.
type RecordingMetadata struct {
	ShippingCode string
	StaffID      string
	Type         model.VideoType
	Status       model.VideoStatus
	Duration     int
	FileName     string
	MachineName  string
	ScannedItems []ScannedItemInput
}

// InventoryDelta is one packing deduction line.
type InventoryDelta struct {
	ProductID uuid.UUID
	Quantity  int
}

// ReturnDelta is one return credit line, split by quality.
type ReturnDelta struct {
	ProductID uuid.UUID
	Quantity  int
	Quality   model.ReturnQuality
}

// Backend is the persistence collaborator the recording engine orchestrates.
// The engine only ever sees this interface; tests substitute stubs.
type Backend interface {
	FetchOrderByShippingCode(ctx context.Context, code string) (*model.Order, error)
	CheckDuplicateRecording(ctx context.Context, shippingCode string, typ model.VideoType) (bool, error)
	LoadAllProducts(ctx context.Context) ([]model.Product, error)
	// LookupProductByBarcode is the cold-path fallback used only before the
	// local cache has loaded.
	LookupProductByBarcode(ctx context.Context, code string) (*model.Product, error)
	CreateRecordingMetadata(ctx context.Context, meta RecordingMetadata) (uuid.UUID, error)
	ApplyPackingDeduction(ctx context.Context, shippingCode string, items []InventoryDelta) error
	ApplyReturnCredit(ctx context.Context, shippingCode string, items []ReturnDelta) error
}

type gormBackend struct {
	products  repository.ProductRepository
	orders    repository.OrderRepository
	videos    repository.VideoRepository
	inventory repository.InventoryRepository
}

// NewBackend wires the GORM-backed implementation of the persistence
// collaborator.
func NewBackend(
	products repository.ProductRepository,
	orders repository.OrderRepository,
	videos repository.VideoRepository,
	inventory repository.InventoryRepository,
) Backend {
	return &gormBackend{products: products, orders: orders, videos: videos, inventory: inventory}
}

// runTx executes fn inside a GORM transaction when db is available, or calls
// fn(nil) directly when db is nil (unit test mode).
func runTx(ctx context.Context, db *gorm.DB, fn func(tx *gorm.DB) error) error {
	if db == nil {
		return fn(nil)
	}
	return db.WithContext(ctx).Transaction(fn)
}

func (b *gormBackend) FetchOrderByShippingCode(ctx context.Context, code string) (*model.Order, error) {
	return b.orders.FindByShippingCode(ctx, code)
}

func (b *gormBackend) CheckDuplicateRecording(ctx context.Context, shippingCode string, typ model.VideoType) (bool, error) {
	return b.videos.ExistsCompleted(ctx, shippingCode, typ)
}

func (b *gormBackend) LoadAllProducts(ctx context.Context) ([]model.Product, error) {
	return b.products.ListAll(ctx)
}

func (b *gormBackend) LookupProductByBarcode(ctx context.Context, code string) (*model.Product, error) {
	return b.products.FindByBarcode(ctx, code)
}

func (b *gormBackend) CreateRecordingMetadata(ctx context.Context, meta RecordingMetadata) (uuid.UUID, error) {
	rec := &model.VideoRecord{
		ShippingCode: meta.ShippingCode,
		StaffID:      meta.StaffID,
		Type:         meta.Type,
		Status:       meta.Status,
		Duration:     meta.Duration,
		FileName:     meta.FileName,
		MachineName:  meta.MachineName,
	}
	for _, it := range meta.ScannedItems {
		rec.ScannedItems = append(rec.ScannedItems, model.ScannedItem{
			ProductID:     it.ProductID,
			ScannedQty:    it.ScannedQty,
			ReturnQuality: it.ReturnQuality,
			ScannedAt:     time.Now(),
		})
	}
	if err := b.videos.Create(ctx, rec); err != nil {
		return uuid.Nil, err
	}
	return rec.ID, nil
}

// ApplyPackingDeduction removes packed units from sellable stock, one ledger
// row per item, all inside one transaction.
func (b *gormBackend) ApplyPackingDeduction(ctx context.Context, shippingCode string, items []InventoryDelta) error {
	if len(items) == 0 {
		return nil
	}
	return runTx(ctx, b.products.DB(), func(tx *gorm.DB) error {
		for _, it := range items {
			if err := b.products.AdjustQuantityTx(tx, it.ProductID, -it.Quantity); err != nil {
				return fmt.Errorf("deduct product %s: %w", it.ProductID, err)
			}
			ref := shippingCode
			if err := b.inventory.CreateTx(tx, &model.InventoryTransaction{
				ProductID: it.ProductID,
				Action:    model.ActionPackingDeduct,
				Quantity:  -it.Quantity,
				Reference: &ref,
			}); err != nil {
				return err
			}
		}
		return nil
	})
}

// ApplyReturnCredit restocks GOOD units and quarantines BAD units into the
// unsellable pool, one ledger row per line.
func (b *gormBackend) ApplyReturnCredit(ctx context.Context, shippingCode string, items []ReturnDelta) error {
	if len(items) == 0 {
		return nil
	}
	return runTx(ctx, b.products.DB(), func(tx *gorm.DB) error {
		for _, it := range items {
			action := model.ActionReturnGood
			adjust := b.products.AdjustQuantityTx
			if it.Quality == model.ReturnQualityBad {
				action = model.ActionReturnBad
				adjust = b.products.AdjustUnsellableTx
			}
			if err := adjust(tx, it.ProductID, it.Quantity); err != nil {
				return fmt.Errorf("credit product %s: %w", it.ProductID, err)
			}
			ref := shippingCode
			if err := b.inventory.CreateTx(tx, &model.InventoryTransaction{
				ProductID: it.ProductID,
				Action:    action,
				Quantity:  it.Quantity,
				Reference: &ref,
			}); err != nil {
				return err
			}
		}
		return nil
	})
}
