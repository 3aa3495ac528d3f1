package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/vuhoangviet271/packing-video-app/internal/dto"
	"github.com/vuhoangviet271/packing-video-app/internal/infra"
	"github.com/vuhoangviet271/packing-video-app/internal/model"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// State is the recording session state. The machine cycles
// IDLE → CHECK_DUPLICATE → RECORDING → SAVING → IDLE for the life of the
// process; there is no terminal state.
type State string

const (
	StateIdle           State = "IDLE"
	StateCheckDuplicate State = "CHECK_DUPLICATE"
	StateRecording      State = "RECORDING"
	StateSaving         State = "SAVING"
)

// ReturnScanEntry is one physical scan during a RETURN session. Entries are
// itemized (never collapsed by product) because quality is assigned per unit
// and independently editable after the scan.
type ReturnScanEntry struct {
	ID          uuid.UUID
	ProductID   uuid.UUID
	ProductName string
	SKU         string
	Quality     model.ReturnQuality
	ScannedAt   time.Time
}

// DuplicateResolver asks the operator whether to record a shipping code that
// already has a completed recording. It may block until the operator
// answers; returning false discards the code.
type DuplicateResolver func(ctx context.Context, shippingCode string) bool

// Cues receives advisory feedback events (sound hooks in the operator UI).
// Purely informational — no functional coupling.
type Cues interface {
	ScanCue(outcome string)
	StartCue()
	StopCue()
}

// SaveFailure describes a save sequence that failed partway. Earlier steps
// are not rolled back; the failure is reported for administrative review.
type SaveFailure struct {
	ShippingCode string
	Type         model.VideoType
	FailedStep   string // capture | artifact | metadata | inventory
	Reason       string
	FileName     string
}

// FailureSink receives save failures (best effort — a sink error is logged
// and dropped, never propagated into the state machine).
type FailureSink interface {
	ReportSaveFailure(ctx context.Context, f SaveFailure) error
}

// EngineConfig carries the per-station wiring of a RecordingEngine.
type EngineConfig struct {
	Type        model.VideoType
	StaffID     string
	MachineName string
	// DebounceWindow suppresses identical codes resubmitted within it.
	DebounceWindow time.Duration
	// OnDuplicate resolves duplicate-recording prompts; nil proceeds.
	OnDuplicate DuplicateResolver
	// Cues is optional advisory feedback.
	Cues Cues
	// Failures is the optional sink for failed saves.
	Failures FailureSink
}

// RecordingEngine owns the session state machine. All transitions are gated
// on the current state under one mutex: handlers re-check the authoritative
// state after every suspension point, so inputs arriving during an in-flight
// duplicate check or save are dropped deterministically instead of racing it.
type RecordingEngine struct {
	typ            model.VideoType
	staffID        string
	machineName    string
	debounceWindow time.Duration
	onDuplicate    DuplicateResolver
	cues           Cues
	failures       FailureSink

	backend Backend
	capture infra.CaptureDevice
	store   infra.ArtifactStore
	cache   *ProductCache
	ledger  *Ledger

	now func() time.Time

	mu            sync.Mutex
	state         State
	shippingCode  string
	startedAt     time.Time
	items         []ExpandedItem
	scanCounts    map[uuid.UUID]int // required bucket
	extraCounts   map[uuid.UUID]int // foreign + excess bucket
	returnEntries []ReturnScanEntry
	foreignAlert  *dto.ForeignAlert
	debounce      scanDebouncer
}

func NewRecordingEngine(
	cfg EngineConfig,
	backend Backend,
	capture infra.CaptureDevice,
	store infra.ArtifactStore,
	cache *ProductCache,
	ledger *Ledger,
) *RecordingEngine {
	if cfg.DebounceWindow <= 0 {
		cfg.DebounceWindow = 2 * time.Second
	}
	return &RecordingEngine{
		typ:            cfg.Type,
		staffID:        cfg.StaffID,
		machineName:    cfg.MachineName,
		debounceWindow: cfg.DebounceWindow,
		onDuplicate:    cfg.OnDuplicate,
		cues:           cfg.Cues,
		failures:       cfg.Failures,
		backend:        backend,
		capture:        capture,
		store:          store,
		cache:          cache,
		ledger:         ledger,
		now:            time.Now,
		state:          StateIdle,
		scanCounts:     make(map[uuid.UUID]int),
		extraCounts:    make(map[uuid.UUID]int),
	}
}

// Type returns the session type this engine records.
func (e *RecordingEngine) Type() model.VideoType { return e.typ }

// State returns the authoritative current state.
func (e *RecordingEngine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// SetType switches between PACKING and RETURN. Only permitted while idle.
func (e *RecordingEngine) SetType(typ model.VideoType) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state != StateIdle {
		return fmt.Errorf("cannot switch session type in state %s", e.state)
	}
	e.typ = typ
	return nil
}

// ── Scan entry point ─────────────────────────────────────────────────────────

// SubmitCode is the single entry point for decoded codes from every channel:
// camera QR, scanner gun, manual field. A code resolving to a known product
// is always a product scan, regardless of channel; anything else is treated
// as a shipping code candidate.
func (e *RecordingEngine) SubmitCode(ctx context.Context, code string) dto.ScanResponse {
	code = strings.TrimSpace(code)
	if code == "" {
		return dto.ScanResponse{Outcome: "ignored"}
	}

	e.mu.Lock()
	now := e.now()
	if e.debounce.shouldSuppress(code, now, e.debounceWindow) {
		e.mu.Unlock()
		return dto.ScanResponse{Outcome: "ignored"}
	}
	e.debounce.remember(code, now)
	e.mu.Unlock()

	if product, ok := e.resolveProduct(ctx, code); ok {
		return e.handleProductScan(product)
	}
	return e.handleShippingCode(ctx, code)
}

// resolveProduct consults the in-memory cache; before the first cache load
// it falls back to the backend barcode lookup (cold path).
func (e *RecordingEngine) resolveProduct(ctx context.Context, code string) (*model.Product, bool) {
	if p, ok := e.cache.Lookup(code); ok {
		return p, true
	}
	if e.cache.Loaded() {
		return nil, false
	}
	p, err := e.backend.LookupProductByBarcode(ctx, code)
	if err != nil || p == nil {
		return nil, false
	}
	return p, true
}

func (e *RecordingEngine) handleProductScan(p *model.Product) dto.ScanResponse {
	e.mu.Lock()
	defer e.mu.Unlock()

	// Product scans only count while recording; anywhere else they are
	// silently dropped — not queued, not an error.
	if e.state != StateRecording {
		return dto.ScanResponse{Outcome: "ignored"}
	}

	resp := dto.ScanResponse{
		ShippingCode: e.shippingCode,
		ProductID:    p.ID.String(),
		ProductName:  p.Name,
		SKU:          p.SKU,
	}

	if e.typ == model.VideoTypeReturn {
		// Returns are never validated against an order: every recognized scan
		// becomes its own entry with default quality GOOD.
		e.returnEntries = append(e.returnEntries, ReturnScanEntry{
			ID:          uuid.New(),
			ProductID:   p.ID,
			ProductName: p.Name,
			SKU:         p.SKU,
			Quality:     model.ReturnQualityGood,
			ScannedAt:   e.now(),
		})
		resp.Outcome = "return_entry"
		e.cue(resp.Outcome)
		return resp
	}

	kind := classifyPackingScan(e.items, e.scanCounts, p.ID)
	switch kind {
	case MatchRequired:
		e.scanCounts[p.ID]++
	case MatchExcess, MatchForeign:
		e.extraCounts[p.ID]++
		alert := &dto.ForeignAlert{ProductName: p.Name, SKU: p.SKU, Reason: string(kind)}
		e.foreignAlert = alert
		resp.Alert = alert
	}
	resp.Outcome = string(kind)
	e.cue(resp.Outcome)
	return resp
}

func (e *RecordingEngine) handleShippingCode(ctx context.Context, code string) dto.ScanResponse {
	e.mu.Lock()
	switch e.state {
	case StateSaving, StateCheckDuplicate:
		// A transition is in flight; late codes are dropped, never queued.
		e.mu.Unlock()
		return dto.ScanResponse{Outcome: "ignored"}

	case StateRecording:
		// Gate before chaining: an incomplete known order rejects the new
		// code and surfaces what is missing.
		missing := e.missingLocked()
		if len(e.items) > 0 && len(missing) > 0 {
			e.mu.Unlock()
			return dto.ScanResponse{Outcome: "blocked", ShippingCode: code, Missing: missing}
		}
		e.mu.Unlock()

		e.save(ctx)
		if e.startNew(ctx, code) {
			return dto.ScanResponse{Outcome: "chained", ShippingCode: code}
		}
		return dto.ScanResponse{Outcome: "ignored", ShippingCode: code}

	default: // IDLE
		e.mu.Unlock()
		if e.startNew(ctx, code) {
			return dto.ScanResponse{Outcome: "started", ShippingCode: code}
		}
		return dto.ScanResponse{Outcome: "ignored", ShippingCode: code}
	}
}

// ── Transitions ──────────────────────────────────────────────────────────────

// startNew runs IDLE → CHECK_DUPLICATE → RECORDING. Returns false when the
// machine was not idle or the operator declined a duplicate.
func (e *RecordingEngine) startNew(ctx context.Context, shippingCode string) bool {
	e.mu.Lock()
	if e.state != StateIdle {
		e.mu.Unlock()
		return false
	}
	e.state = StateCheckDuplicate
	e.mu.Unlock()

	// Duplicate check is fail-open: blocking the operator on a transient
	// network error is worse than an occasional missed duplicate warning.
	dup, err := e.backend.CheckDuplicateRecording(ctx, shippingCode, e.typ)
	if err != nil {
		log.Warn().Err(err).Str("shipping_code", shippingCode).Msg("duplicate check failed, proceeding")
		dup = false
	}
	if dup && e.onDuplicate != nil {
		if !e.onDuplicate(ctx, shippingCode) {
			e.mu.Lock()
			e.resetLocked()
			e.mu.Unlock()
			log.Info().Str("shipping_code", shippingCode).Msg("duplicate declined, code discarded")
			return false
		}
	}

	// Order fetch is best effort: not found / unreachable means unknown-order
	// mode with empty requirements, a valid non-error state.
	var items []ExpandedItem
	if order, err := e.backend.FetchOrderByShippingCode(ctx, shippingCode); err == nil {
		items = ExpandOrder(order)
	} else {
		log.Warn().Err(err).Str("shipping_code", shippingCode).Msg("order fetch failed, recording without requirements")
	}

	if err := e.capture.Start(ctx); err != nil {
		log.Error().Err(err).Msg("capture start failed, session continues without video")
	}

	e.mu.Lock()
	e.shippingCode = shippingCode
	e.items = items
	e.scanCounts = make(map[uuid.UUID]int)
	e.extraCounts = make(map[uuid.UUID]int)
	e.returnEntries = nil
	e.foreignAlert = nil
	e.startedAt = e.now()
	e.state = StateRecording
	e.mu.Unlock()

	if e.cues != nil {
		e.cues.StartCue()
	}
	log.Info().Str("shipping_code", shippingCode).Str("type", string(e.typ)).
		Int("required_items", len(items)).Msg("recording started")
	return true
}

// RequestManualStop applies the completeness gate and, when it passes, runs
// the save sequence. A blocked stop returns the missing items and leaves the
// machine in RECORDING.
func (e *RecordingEngine) RequestManualStop(ctx context.Context) dto.StopResponse {
	e.mu.Lock()
	if e.state != StateRecording {
		e.mu.Unlock()
		return dto.StopResponse{Accepted: false}
	}
	missing := e.missingLocked()
	if len(e.items) > 0 && len(missing) > 0 {
		e.mu.Unlock()
		return dto.StopResponse{Accepted: false, Missing: missing}
	}
	e.mu.Unlock()

	e.save(ctx)
	return dto.StopResponse{Accepted: true}
}

// save runs RECORDING → SAVING → IDLE. Ordering is strict: artifact before
// metadata before inventory, so a metadata row never references a missing
// file and every inventory delta is attributable to a recorded event. Any
// failure yields a failed ledger entry and an unconditional reset — the
// machine must never strand in SAVING.
func (e *RecordingEngine) save(ctx context.Context) {
	e.mu.Lock()
	if e.state != StateRecording {
		e.mu.Unlock()
		return
	}
	e.state = StateSaving
	shippingCode := e.shippingCode
	items := e.items
	counts := make(map[uuid.UUID]int, len(e.scanCounts))
	for k, v := range e.scanCounts {
		counts[k] = v
	}
	entries := make([]ReturnScanEntry, len(e.returnEntries))
	copy(entries, e.returnEntries)
	e.mu.Unlock()

	fail := func(step string, fileName string, err error) {
		log.Error().Err(err).Str("shipping_code", shippingCode).Str("step", step).Msg("save failed")
		e.ledger.Append(shippingCode, OutcomeFailed, 0, e.typ, e.now())
		if e.failures != nil {
			if sinkErr := e.failures.ReportSaveFailure(ctx, SaveFailure{
				ShippingCode: shippingCode,
				Type:         e.typ,
				FailedStep:   step,
				Reason:       err.Error(),
				FileName:     fileName,
			}); sinkErr != nil {
				log.Error().Err(sinkErr).Msg("failure sink unavailable")
			}
		}
		e.mu.Lock()
		e.resetLocked()
		e.mu.Unlock()
	}

	rec, err := e.capture.Stop(ctx)
	if err != nil {
		fail("capture", "", err)
		return
	}
	if e.cues != nil {
		e.cues.StopCue()
	}

	// Nothing was captured (device produced no data): discard the session
	// without a ledger entry.
	if len(rec.Bytes) == 0 {
		log.Warn().Str("shipping_code", shippingCode).Msg("empty capture, session discarded")
		e.mu.Lock()
		e.resetLocked()
		e.mu.Unlock()
		return
	}

	fileName := fmt.Sprintf("%s_%s_%d.webm",
		strings.ToLower(string(e.typ)), shippingCode, e.now().UnixMilli())
	if _, err := e.store.Save(rec.Bytes, fileName); err != nil {
		fail("artifact", fileName, err)
		return
	}

	meta := RecordingMetadata{
		ShippingCode: shippingCode,
		StaffID:      e.staffID,
		Type:         e.typ,
		Status:       model.VideoStatusCompleted,
		Duration:     rec.DurationSeconds,
		FileName:     fileName,
		MachineName:  e.machineName,
		ScannedItems: buildScannedItems(e.typ, counts, entries),
	}
	if _, err := e.backend.CreateRecordingMetadata(ctx, meta); err != nil {
		fail("metadata", fileName, err)
		return
	}

	if err := e.postInventory(ctx, shippingCode, items, entries); err != nil {
		fail("inventory", fileName, err)
		return
	}

	e.ledger.Append(shippingCode, OutcomeCompleted, rec.DurationSeconds, e.typ, e.now())
	log.Info().Str("shipping_code", shippingCode).Int("duration_s", rec.DurationSeconds).
		Str("file", fileName).Msg("recording saved")

	e.mu.Lock()
	e.resetLocked()
	e.mu.Unlock()
}

// postInventory deducts the order's required quantities for packing, or
// credits returns split by per-unit quality.
func (e *RecordingEngine) postInventory(ctx context.Context, shippingCode string, items []ExpandedItem, entries []ReturnScanEntry) error {
	if e.typ == model.VideoTypeReturn {
		return e.backend.ApplyReturnCredit(ctx, shippingCode, aggregateReturns(entries))
	}
	deltas := make([]InventoryDelta, 0, len(items))
	for _, it := range items {
		deltas = append(deltas, InventoryDelta{ProductID: it.ProductID, Quantity: it.RequiredQty})
	}
	return e.backend.ApplyPackingDeduction(ctx, shippingCode, deltas)
}

// buildScannedItems flattens the session's scan record for persistence:
// required-bucket tallies for packing, quality-bucketed tallies for returns.
func buildScannedItems(typ model.VideoType, counts map[uuid.UUID]int, entries []ReturnScanEntry) []ScannedItemInput {
	if typ == model.VideoTypeReturn {
		var out []ScannedItemInput
		for _, d := range aggregateReturns(entries) {
			q := d.Quality
			out = append(out, ScannedItemInput{ProductID: d.ProductID, ScannedQty: d.Quantity, ReturnQuality: &q})
		}
		return out
	}
	var out []ScannedItemInput
	for id, qty := range counts {
		out = append(out, ScannedItemInput{ProductID: id, ScannedQty: qty})
	}
	return out
}

// aggregateReturns collapses itemized entries into (product, quality) lines,
// preserving first-scan order.
func aggregateReturns(entries []ReturnScanEntry) []ReturnDelta {
	type key struct {
		id uuid.UUID
		q  model.ReturnQuality
	}
	index := make(map[key]int)
	var out []ReturnDelta
	for _, en := range entries {
		k := key{en.ProductID, en.Quality}
		if pos, ok := index[k]; ok {
			out[pos].Quantity++
			continue
		}
		index[k] = len(out)
		out = append(out, ReturnDelta{ProductID: en.ProductID, Quantity: 1, Quality: en.Quality})
	}
	return out
}

// resetLocked returns the machine to IDLE and clears all session state.
// Callers hold e.mu.
func (e *RecordingEngine) resetLocked() {
	e.state = StateIdle
	e.shippingCode = ""
	e.startedAt = time.Time{}
	e.items = nil
	e.scanCounts = make(map[uuid.UUID]int)
	e.extraCounts = make(map[uuid.UUID]int)
	e.returnEntries = nil
	e.foreignAlert = nil
}

func (e *RecordingEngine) cue(outcome string) {
	if e.cues != nil {
		e.cues.ScanCue(outcome)
	}
}

// ── Completeness ─────────────────────────────────────────────────────────────

// Completeness reports the stop-gate verdict. Sessions with empty
// requirements and RETURN sessions are always complete; over-scans never
// make a complete order incomplete.
func (e *RecordingEngine) Completeness() dto.CompletenessResponse {
	e.mu.Lock()
	defer e.mu.Unlock()
	missing := e.missingLocked()
	return dto.CompletenessResponse{Complete: len(missing) == 0, Missing: missing}
}

func (e *RecordingEngine) missingLocked() []dto.MissingItem {
	if e.typ == model.VideoTypeReturn {
		return nil
	}
	var missing []dto.MissingItem
	for _, it := range e.items {
		scanned := e.scanCounts[it.ProductID]
		if scanned >= it.RequiredQty {
			continue
		}
		missing = append(missing, dto.MissingItem{
			ProductID:    it.ProductID.String(),
			ProductName:  it.ProductName,
			SKU:          it.SKU,
			Required:     it.RequiredQty,
			Scanned:      scanned,
			MissingCount: it.RequiredQty - scanned,
		})
	}
	return missing
}

// ── Post-scan edits ──────────────────────────────────────────────────────────

// DecrementScan undoes one required-bucket scan of a product (operator fixes
// a double count). No-op below zero.
func (e *RecordingEngine) DecrementScan(productID uuid.UUID) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state != StateRecording {
		return
	}
	if e.scanCounts[productID] <= 1 {
		delete(e.scanCounts, productID)
		return
	}
	e.scanCounts[productID]--
}

// RemoveScan drops a product's required-bucket tally entirely.
func (e *RecordingEngine) RemoveScan(productID uuid.UUID) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state != StateRecording {
		return
	}
	delete(e.scanCounts, productID)
}

// SetReturnEntryQuality reassigns one return entry between GOOD and BAD.
func (e *RecordingEngine) SetReturnEntryQuality(id uuid.UUID, quality model.ReturnQuality) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	for i := range e.returnEntries {
		if e.returnEntries[i].ID == id {
			e.returnEntries[i].Quality = quality
			return true
		}
	}
	return false
}

// RemoveReturnEntry deletes one itemized return scan.
func (e *RecordingEngine) RemoveReturnEntry(id uuid.UUID) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	for i := range e.returnEntries {
		if e.returnEntries[i].ID == id {
			e.returnEntries = append(e.returnEntries[:i], e.returnEntries[i+1:]...)
			return true
		}
	}
	return false
}

// DismissAlert clears the transient foreign/excess alert, independent of
// session state.
func (e *RecordingEngine) DismissAlert() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.foreignAlert = nil
}

// ── Observable snapshot ──────────────────────────────────────────────────────

// Snapshot is the read-only session view the operator UI polls.
func (e *RecordingEngine) Snapshot() dto.SessionSnapshot {
	e.mu.Lock()
	defer e.mu.Unlock()

	snap := dto.SessionSnapshot{
		State:         string(e.state),
		Type:          string(e.typ),
		ShippingCode:  e.shippingCode,
		IsRecording:   e.state == StateRecording,
		Items:         make([]dto.ExpandedItemView, 0, len(e.items)),
		ReturnEntries: make([]dto.ReturnEntryView, 0, len(e.returnEntries)),
		ForeignAlert:  e.foreignAlert,
	}
	if e.state == StateRecording {
		snap.ElapsedSeconds = int(e.now().Sub(e.startedAt).Seconds())
	}
	for _, it := range e.items {
		snap.Items = append(snap.Items, dto.ExpandedItemView{
			ProductID:        it.ProductID.String(),
			ProductName:      it.ProductName,
			SKU:              it.SKU,
			Barcode:          it.Barcode,
			RequiredQty:      it.RequiredQty,
			ScannedQty:       e.scanCounts[it.ProductID],
			ExtraQty:         e.extraCounts[it.ProductID],
			ParentComboName:  it.ParentComboName,
			IsComboComponent: it.IsComboComponent,
		})
	}
	for _, en := range e.returnEntries {
		snap.ReturnEntries = append(snap.ReturnEntries, dto.ReturnEntryView{
			ID:          en.ID.String(),
			ProductID:   en.ProductID.String(),
			ProductName: en.ProductName,
			SKU:         en.SKU,
			Quality:     string(en.Quality),
			ScannedAt:   en.ScannedAt.Format(time.RFC3339),
		})
	}
	return snap
}
