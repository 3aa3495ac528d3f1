package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/vuhoangviet271/packing-video-app/internal/infra"
	"github.com/vuhoangviet271/packing-video-app/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ── Stub collaborators ───────────────────────────────────────────────────────

type stubBackend struct {
	mu sync.Mutex

	order     *model.Order
	orderErr  error
	duplicate bool
	dupErr    error

	metaErr error
	invErr  error

	metadata   []RecordingMetadata
	deductions []InventoryDelta
	credits    []ReturnDelta
	dupChecks  int
}

func (b *stubBackend) FetchOrderByShippingCode(_ context.Context, _ string) (*model.Order, error) {
	if b.orderErr != nil {
		return nil, b.orderErr
	}
	return b.order, nil
}

func (b *stubBackend) CheckDuplicateRecording(_ context.Context, _ string, _ model.VideoType) (bool, error) {
	b.mu.Lock()
	b.dupChecks++
	b.mu.Unlock()
	return b.duplicate, b.dupErr
}

func (b *stubBackend) LoadAllProducts(_ context.Context) ([]model.Product, error) {
	return nil, nil
}

func (b *stubBackend) LookupProductByBarcode(_ context.Context, _ string) (*model.Product, error) {
	return nil, errors.New("record not found")
}

func (b *stubBackend) CreateRecordingMetadata(_ context.Context, meta RecordingMetadata) (uuid.UUID, error) {
	if b.metaErr != nil {
		return uuid.Nil, b.metaErr
	}
	b.mu.Lock()
	b.metadata = append(b.metadata, meta)
	b.mu.Unlock()
	return uuid.New(), nil
}

func (b *stubBackend) ApplyPackingDeduction(_ context.Context, _ string, items []InventoryDelta) error {
	if b.invErr != nil {
		return b.invErr
	}
	b.mu.Lock()
	b.deductions = append(b.deductions, items...)
	b.mu.Unlock()
	return nil
}

func (b *stubBackend) ApplyReturnCredit(_ context.Context, _ string, items []ReturnDelta) error {
	if b.invErr != nil {
		return b.invErr
	}
	b.mu.Lock()
	b.credits = append(b.credits, items...)
	b.mu.Unlock()
	return nil
}

type stubCapture struct {
	startErr error
	stopErr  error
	rec      infra.Recording
	starts   int
	stops    int
}

func (c *stubCapture) Start(_ context.Context) error {
	c.starts++
	return c.startErr
}

func (c *stubCapture) Stop(_ context.Context) (infra.Recording, error) {
	c.stops++
	return c.rec, c.stopErr
}

type stubStore struct {
	saveErr error
	saved   []string
}

func (s *stubStore) Save(_ []byte, fileName string) (string, error) {
	if s.saveErr != nil {
		return "", s.saveErr
	}
	s.saved = append(s.saved, fileName)
	return "/videos/" + fileName, nil
}

type stubSink struct {
	failures []SaveFailure
}

func (s *stubSink) ReportSaveFailure(_ context.Context, f SaveFailure) error {
	s.failures = append(s.failures, f)
	return nil
}

// ── Test harness ─────────────────────────────────────────────────────────────

type engineFixture struct {
	engine  *RecordingEngine
	backend *stubBackend
	capture *stubCapture
	store   *stubStore
	sink    *stubSink
	ledger  *Ledger
	clock   *fakeClock
}

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func newFixture(t *testing.T, typ model.VideoType, products []model.Product, cfgMut ...func(*EngineConfig)) *engineFixture {
	t.Helper()

	backend := &stubBackend{}
	capture := &stubCapture{rec: infra.Recording{Bytes: []byte("webm"), DurationSeconds: 17}}
	store := &stubStore{}
	sink := &stubSink{}
	ledger := NewLedger()
	cache := NewProductCache()
	cache.Load(products)

	cfg := EngineConfig{
		Type:           typ,
		StaffID:        "staff-7",
		MachineName:    "station-1",
		DebounceWindow: 2 * time.Second,
		Failures:       sink,
	}
	for _, mut := range cfgMut {
		mut(&cfg)
	}

	engine := NewRecordingEngine(cfg, backend, capture, store, cache, ledger)
	clock := &fakeClock{t: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
	engine.now = clock.now

	return &engineFixture{engine: engine, backend: backend, capture: capture, store: store, sink: sink, ledger: ledger, clock: clock}
}

// twoWidgetOrder builds an order requiring 2 units of one widget and returns
// the order plus the widget product (barcode "w-1").
func twoWidgetOrder() (*model.Order, model.Product) {
	code := "w-1"
	widget := model.Product{ID: uuid.New(), SKU: "WID-1", Name: "Widget", Barcode: &code}
	order := &model.Order{
		ID:           uuid.New(),
		ShippingCode: "SHP-100",
		Items:        []model.OrderItem{{ProductID: widget.ID, Quantity: 2, Product: &widget}},
	}
	return order, widget
}

// submit advances the clock past the debounce window first so consecutive
// test scans are never suppressed accidentally.
func (f *engineFixture) submit(code string) string {
	f.clock.advance(3 * time.Second)
	return f.engine.SubmitCode(context.Background(), code).Outcome
}

// ── Session lifecycle ────────────────────────────────────────────────────────

func TestEngine_StartsOnShippingCode(t *testing.T) {
	f := newFixture(t, model.VideoTypePacking, nil)
	f.backend.orderErr = errors.New("record not found")

	assert.Equal(t, "started", f.submit("SHP-1"))
	assert.Equal(t, StateRecording, f.engine.State())
	assert.Equal(t, 1, f.capture.starts)

	// Unknown order: empty requirements, always complete.
	verdict := f.engine.Completeness()
	assert.True(t, verdict.Complete)
}

func TestEngine_EmptyCodeIgnored(t *testing.T) {
	f := newFixture(t, model.VideoTypePacking, nil)
	assert.Equal(t, "ignored", f.submit("   "))
	assert.Equal(t, StateIdle, f.engine.State())
}

func TestEngine_DebounceSuppressesRepeatWithinWindow(t *testing.T) {
	f := newFixture(t, model.VideoTypePacking, nil)
	f.backend.orderErr = errors.New("record not found")

	assert.Equal(t, "started", f.submit("SHP-1"))

	// Same code again immediately: suppressed before any state handling.
	resp := f.engine.SubmitCode(context.Background(), "SHP-1")
	assert.Equal(t, "ignored", resp.Outcome)

	// After the window it reaches the state machine again — now a chain
	// attempt on a complete (unknown-order) session.
	f.clock.advance(3 * time.Second)
	resp = f.engine.SubmitCode(context.Background(), "SHP-1")
	assert.Equal(t, "chained", resp.Outcome)
}

func TestEngine_ProductScanOutsideRecordingDropped(t *testing.T) {
	_, widget := twoWidgetOrder()
	f := newFixture(t, model.VideoTypePacking, []model.Product{widget})

	assert.Equal(t, "ignored", f.submit("w-1"))
	assert.Equal(t, StateIdle, f.engine.State())
}

// ── Packing classification ───────────────────────────────────────────────────

func TestEngine_PackingRequiredExcessForeign(t *testing.T) {
	order, widget := twoWidgetOrder()
	gcode := "g-1"
	gadget := model.Product{ID: uuid.New(), SKU: "GAD-1", Name: "Gadget", Barcode: &gcode}

	f := newFixture(t, model.VideoTypePacking, []model.Product{widget, gadget})
	f.backend.order = order

	require.Equal(t, "started", f.submit(order.ShippingCode))

	assert.Equal(t, "required", f.submit("w-1"))
	assert.Equal(t, "required", f.submit("w-1"))
	// Requirement met; further widget scans are excess.
	assert.Equal(t, "excess", f.submit("w-1"))
	// Gadget is not on the order at all.
	assert.Equal(t, "foreign", f.submit("g-1"))

	snap := f.engine.Snapshot()
	require.NotNil(t, snap.ForeignAlert)
	assert.Equal(t, "Gadget", snap.ForeignAlert.ProductName)
	require.Len(t, snap.Items, 1)
	assert.Equal(t, 2, snap.Items[0].ScannedQty)
	assert.Equal(t, 1, snap.Items[0].ExtraQty)

	// Over-scans never make a complete order incomplete.
	assert.True(t, f.engine.Completeness().Complete)

	f.engine.DismissAlert()
	assert.Nil(t, f.engine.Snapshot().ForeignAlert)
}

func TestEngine_StopBlockedWhileIncomplete(t *testing.T) {
	order, widget := twoWidgetOrder()
	order.Items[0].Quantity = 5
	f := newFixture(t, model.VideoTypePacking, []model.Product{widget})
	f.backend.order = order

	require.Equal(t, "started", f.submit(order.ShippingCode))
	require.Equal(t, "required", f.submit("w-1"))
	require.Equal(t, "required", f.submit("w-1"))
	require.Equal(t, "required", f.submit("w-1"))

	resp := f.engine.RequestManualStop(context.Background())
	assert.False(t, resp.Accepted)
	require.Len(t, resp.Missing, 1)
	assert.Equal(t, "WID-1", resp.Missing[0].SKU)
	assert.Equal(t, 5, resp.Missing[0].Required)
	assert.Equal(t, 3, resp.Missing[0].Scanned)
	assert.Equal(t, 2, resp.Missing[0].MissingCount)
	assert.Equal(t, StateRecording, f.engine.State())
}

func TestEngine_ProductScanDebounceIdempotence(t *testing.T) {
	order, widget := twoWidgetOrder()
	f := newFixture(t, model.VideoTypePacking, []model.Product{widget})
	f.backend.order = order

	require.Equal(t, "started", f.submit(order.ShippingCode))

	// Two identical codes within the window count as one increment.
	require.Equal(t, "required", f.submit("w-1"))
	resp := f.engine.SubmitCode(context.Background(), "w-1")
	assert.Equal(t, "ignored", resp.Outcome)
	assert.Equal(t, 1, f.engine.Snapshot().Items[0].ScannedQty)

	// With a gap beyond the window the same code counts again.
	require.Equal(t, "required", f.submit("w-1"))
	assert.Equal(t, 2, f.engine.Snapshot().Items[0].ScannedQty)
}

func TestEngine_ChainBlockedWhileIncomplete(t *testing.T) {
	order, widget := twoWidgetOrder()
	f := newFixture(t, model.VideoTypePacking, []model.Product{widget})
	f.backend.order = order

	require.Equal(t, "started", f.submit(order.ShippingCode))

	f.clock.advance(3 * time.Second)
	resp := f.engine.SubmitCode(context.Background(), "SHP-NEXT")

	assert.Equal(t, "blocked", resp.Outcome)
	require.Len(t, resp.Missing, 1)
	assert.Equal(t, 2, resp.Missing[0].MissingCount)
	assert.Equal(t, StateRecording, f.engine.State())
	assert.Equal(t, order.ShippingCode, f.engine.Snapshot().ShippingCode)
}

// ── Save sequence ────────────────────────────────────────────────────────────

func TestEngine_CompleteStopSavesEverything(t *testing.T) {
	order, widget := twoWidgetOrder()
	f := newFixture(t, model.VideoTypePacking, []model.Product{widget})
	f.backend.order = order

	require.Equal(t, "started", f.submit(order.ShippingCode))
	require.Equal(t, "required", f.submit("w-1"))
	require.Equal(t, "required", f.submit("w-1"))

	resp := f.engine.RequestManualStop(context.Background())
	require.True(t, resp.Accepted)
	assert.Equal(t, StateIdle, f.engine.State())

	// Artifact written before metadata referencing it.
	require.Len(t, f.store.saved, 1)
	require.Len(t, f.backend.metadata, 1)
	meta := f.backend.metadata[0]
	assert.Equal(t, order.ShippingCode, meta.ShippingCode)
	assert.Equal(t, f.store.saved[0], meta.FileName)
	assert.Equal(t, model.VideoStatusCompleted, meta.Status)
	assert.Equal(t, 17, meta.Duration)
	assert.Equal(t, "staff-7", meta.StaffID)
	assert.Equal(t, "station-1", meta.MachineName)
	require.Len(t, meta.ScannedItems, 1)
	assert.Equal(t, 2, meta.ScannedItems[0].ScannedQty)

	// Deduction uses the order's required quantity, not the scan count.
	require.Len(t, f.backend.deductions, 1)
	assert.Equal(t, widget.ID, f.backend.deductions[0].ProductID)
	assert.Equal(t, 2, f.backend.deductions[0].Quantity)

	entries := f.ledger.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, OutcomeCompleted, entries[0].Outcome)
	assert.Equal(t, 17, entries[0].DurationSeconds)
}

func TestEngine_ChainSavesPreviousAndStartsNext(t *testing.T) {
	f := newFixture(t, model.VideoTypePacking, nil)
	f.backend.orderErr = errors.New("record not found")

	require.Equal(t, "started", f.submit("SHP-1"))
	assert.Equal(t, "chained", f.submit("SHP-2"))

	assert.Equal(t, StateRecording, f.engine.State())
	assert.Equal(t, "SHP-2", f.engine.Snapshot().ShippingCode)

	entries := f.ledger.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, "SHP-1", entries[0].ShippingCode)
	assert.Equal(t, OutcomeCompleted, entries[0].Outcome)
	assert.Equal(t, 2, f.capture.starts)
}

func TestEngine_SaveFailureLeavesBreadcrumbAndResets(t *testing.T) {
	f := newFixture(t, model.VideoTypePacking, nil)
	f.backend.orderErr = errors.New("record not found")
	f.backend.metaErr = errors.New("backend down")

	require.Equal(t, "started", f.submit("SHP-1"))
	resp := f.engine.RequestManualStop(context.Background())
	assert.True(t, resp.Accepted)

	// Exactly one failed entry, never a completed one.
	entries := f.ledger.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, OutcomeFailed, entries[0].Outcome)
	assert.Equal(t, 0, entries[0].DurationSeconds)

	require.Len(t, f.sink.failures, 1)
	assert.Equal(t, "metadata", f.sink.failures[0].FailedStep)
	assert.Equal(t, "SHP-1", f.sink.failures[0].ShippingCode)
	assert.NotEmpty(t, f.sink.failures[0].FileName)

	// Machine never strands in SAVING; ready for the next session.
	assert.Equal(t, StateIdle, f.engine.State())
	assert.Equal(t, "started", f.submit("SHP-2"))
}

func TestEngine_InventoryFailureStillRecordsEarlierSteps(t *testing.T) {
	order, widget := twoWidgetOrder()
	f := newFixture(t, model.VideoTypePacking, []model.Product{widget})
	f.backend.order = order
	f.backend.invErr = errors.New("deadlock")

	require.Equal(t, "started", f.submit(order.ShippingCode))
	require.Equal(t, "required", f.submit("w-1"))
	require.Equal(t, "required", f.submit("w-1"))
	f.engine.RequestManualStop(context.Background())

	// Artifact and metadata stay; only the breadcrumb records the partial state.
	assert.Len(t, f.store.saved, 1)
	assert.Len(t, f.backend.metadata, 1)
	require.Len(t, f.sink.failures, 1)
	assert.Equal(t, "inventory", f.sink.failures[0].FailedStep)
	assert.Equal(t, OutcomeFailed, f.ledger.Entries()[0].Outcome)
}

func TestEngine_EmptyCaptureDiscardedSilently(t *testing.T) {
	f := newFixture(t, model.VideoTypePacking, nil)
	f.backend.orderErr = errors.New("record not found")
	f.capture.rec = infra.Recording{}

	require.Equal(t, "started", f.submit("SHP-1"))
	resp := f.engine.RequestManualStop(context.Background())
	assert.True(t, resp.Accepted)

	assert.Equal(t, StateIdle, f.engine.State())
	assert.Empty(t, f.ledger.Entries())
	assert.Empty(t, f.store.saved)
	assert.Empty(t, f.backend.metadata)
	assert.Empty(t, f.sink.failures)
}

// ── Duplicate handling ───────────────────────────────────────────────────────

func TestEngine_DuplicateDeclinedDiscardsCode(t *testing.T) {
	f := newFixture(t, model.VideoTypePacking, nil, func(cfg *EngineConfig) {
		cfg.OnDuplicate = func(_ context.Context, _ string) bool { return false }
	})
	f.backend.duplicate = true
	f.backend.orderErr = errors.New("record not found")

	assert.Equal(t, "ignored", f.submit("SHP-1"))
	assert.Equal(t, StateIdle, f.engine.State())
	assert.Equal(t, 0, f.capture.starts)
}

func TestEngine_DuplicateAcceptedProceeds(t *testing.T) {
	var asked string
	f := newFixture(t, model.VideoTypePacking, nil, func(cfg *EngineConfig) {
		cfg.OnDuplicate = func(_ context.Context, code string) bool {
			asked = code
			return true
		}
	})
	f.backend.duplicate = true
	f.backend.orderErr = errors.New("record not found")

	assert.Equal(t, "started", f.submit("SHP-1"))
	assert.Equal(t, "SHP-1", asked)
	assert.Equal(t, StateRecording, f.engine.State())
}

func TestEngine_DuplicateCheckFailOpen(t *testing.T) {
	f := newFixture(t, model.VideoTypePacking, nil, func(cfg *EngineConfig) {
		cfg.OnDuplicate = func(_ context.Context, _ string) bool {
			t.Fatal("resolver must not be asked when the check errors")
			return false
		}
	})
	f.backend.dupErr = errors.New("network down")
	f.backend.orderErr = errors.New("record not found")

	assert.Equal(t, "started", f.submit("SHP-1"))
	assert.Equal(t, StateRecording, f.engine.State())
}

// ── Return sessions ──────────────────────────────────────────────────────────

func TestEngine_ReturnScansAreItemizedPerUnit(t *testing.T) {
	_, widget := twoWidgetOrder()
	f := newFixture(t, model.VideoTypeReturn, []model.Product{widget})
	f.backend.orderErr = errors.New("record not found")

	require.Equal(t, "started", f.submit("SHP-R1"))
	assert.Equal(t, "return_entry", f.submit("w-1"))
	assert.Equal(t, "return_entry", f.submit("w-1"))
	assert.Equal(t, "return_entry", f.submit("w-1"))

	snap := f.engine.Snapshot()
	require.Len(t, snap.ReturnEntries, 3)
	for _, en := range snap.ReturnEntries {
		assert.Equal(t, "GOOD", en.Quality)
	}

	// Returns never have a completeness gate.
	assert.True(t, f.engine.Completeness().Complete)
}

func TestEngine_ReturnQualityEditAndCreditSplit(t *testing.T) {
	_, widget := twoWidgetOrder()
	f := newFixture(t, model.VideoTypeReturn, []model.Product{widget})
	f.backend.orderErr = errors.New("record not found")

	require.Equal(t, "started", f.submit("SHP-R1"))
	f.submit("w-1")
	f.submit("w-1")
	f.submit("w-1")

	snap := f.engine.Snapshot()
	require.Len(t, snap.ReturnEntries, 3)
	badID := uuid.MustParse(snap.ReturnEntries[1].ID)
	require.True(t, f.engine.SetReturnEntryQuality(badID, model.ReturnQualityBad))
	assert.False(t, f.engine.SetReturnEntryQuality(uuid.New(), model.ReturnQualityBad))

	resp := f.engine.RequestManualStop(context.Background())
	require.True(t, resp.Accepted)

	// 2 GOOD restocked, 1 BAD quarantined, collapsed by (product, quality).
	require.Len(t, f.backend.credits, 2)
	assert.Equal(t, model.ReturnQualityGood, f.backend.credits[0].Quality)
	assert.Equal(t, 2, f.backend.credits[0].Quantity)
	assert.Equal(t, model.ReturnQualityBad, f.backend.credits[1].Quality)
	assert.Equal(t, 1, f.backend.credits[1].Quantity)
}

func TestEngine_RemoveReturnEntry(t *testing.T) {
	_, widget := twoWidgetOrder()
	f := newFixture(t, model.VideoTypeReturn, []model.Product{widget})
	f.backend.orderErr = errors.New("record not found")

	require.Equal(t, "started", f.submit("SHP-R1"))
	f.submit("w-1")
	f.submit("w-1")

	snap := f.engine.Snapshot()
	require.Len(t, snap.ReturnEntries, 2)
	id := uuid.MustParse(snap.ReturnEntries[0].ID)

	assert.True(t, f.engine.RemoveReturnEntry(id))
	assert.False(t, f.engine.RemoveReturnEntry(id))
	assert.Len(t, f.engine.Snapshot().ReturnEntries, 1)
}

// ── Scan edits ───────────────────────────────────────────────────────────────

func TestEngine_DecrementAndRemoveScan(t *testing.T) {
	order, widget := twoWidgetOrder()
	f := newFixture(t, model.VideoTypePacking, []model.Product{widget})
	f.backend.order = order

	require.Equal(t, "started", f.submit(order.ShippingCode))
	f.submit("w-1")
	f.submit("w-1")
	assert.True(t, f.engine.Completeness().Complete)

	f.engine.DecrementScan(widget.ID)
	verdict := f.engine.Completeness()
	assert.False(t, verdict.Complete)
	require.Len(t, verdict.Missing, 1)
	assert.Equal(t, 1, verdict.Missing[0].Scanned)

	f.engine.RemoveScan(widget.ID)
	verdict = f.engine.Completeness()
	require.Len(t, verdict.Missing, 1)
	assert.Equal(t, 0, verdict.Missing[0].Scanned)
}

// ── Type switching ───────────────────────────────────────────────────────────

func TestEngine_SetTypeOnlyWhileIdle(t *testing.T) {
	f := newFixture(t, model.VideoTypePacking, nil)
	f.backend.orderErr = errors.New("record not found")

	require.NoError(t, f.engine.SetType(model.VideoTypeReturn))
	assert.Equal(t, model.VideoTypeReturn, f.engine.Type())

	require.Equal(t, "started", f.submit("SHP-1"))
	assert.Error(t, f.engine.SetType(model.VideoTypePacking))
}
