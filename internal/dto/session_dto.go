package dto

// ScanRequest is the single entry point for codes from every input channel:
// camera QR decode, scanner gun, or the manual entry field.
type ScanRequest struct {
	Code string `json:"code" validate:"required,min=1"`
	// Source is advisory: "qr" enables frame-level dedup before the engine's
	// own debounce. Classification never depends on it.
	Source string `json:"source" validate:"omitempty,oneof=qr gun manual"`
}

// ScanResponse reports how the engine classified and handled one code.
type ScanResponse struct {
	Outcome      string         `json:"outcome"` // started | chained | blocked | required | excess | foreign | return_entry | ignored
	ShippingCode string         `json:"shipping_code,omitempty"`
	ProductID    string         `json:"product_id,omitempty"`
	ProductName  string         `json:"product_name,omitempty"`
	SKU          string         `json:"sku,omitempty"`
	Missing      []MissingItem  `json:"missing,omitempty"`
	Alert        *ForeignAlert  `json:"alert,omitempty"`
}

// ForeignAlert names a product scanned outside the order's requirements.
type ForeignAlert struct {
	ProductName string `json:"product_name"`
	SKU         string `json:"sku"`
	Reason      string `json:"reason"` // foreign | excess
}

// MissingItem is one outstanding requirement blocking a stop.
type MissingItem struct {
	ProductID    string `json:"product_id"`
	ProductName  string `json:"product_name"`
	SKU          string `json:"sku"`
	Required     int    `json:"required"`
	Scanned      int    `json:"scanned"`
	MissingCount int    `json:"missing_count"`
}

// CompletenessResponse is the stop-gate verdict.
type CompletenessResponse struct {
	Complete bool          `json:"complete"`
	Missing  []MissingItem `json:"missing"`
}

// StopResponse reports whether a manual stop was accepted.
type StopResponse struct {
	Accepted bool          `json:"accepted"`
	Missing  []MissingItem `json:"missing,omitempty"`
}

// ExpandedItemView is one required leaf product of the current order.
type ExpandedItemView struct {
	ProductID        string `json:"product_id"`
	ProductName      string `json:"product_name"`
	SKU              string `json:"sku"`
	Barcode          string `json:"barcode,omitempty"`
	RequiredQty      int    `json:"required_qty"`
	ScannedQty       int    `json:"scanned_qty"`
	ExtraQty         int    `json:"extra_qty"` // foreign/excess scans of this product
	ParentComboName  string `json:"parent_combo_name,omitempty"`
	IsComboComponent bool   `json:"is_combo_component"`
}

// ReturnEntryView is one itemized return scan.
type ReturnEntryView struct {
	ID          string `json:"id"`
	ProductID   string `json:"product_id"`
	ProductName string `json:"product_name"`
	SKU         string `json:"sku"`
	Quality     string `json:"quality"`
	ScannedAt   string `json:"scanned_at"`
}

// SessionSnapshot is the read-only view the operator UI polls.
type SessionSnapshot struct {
	State            string             `json:"state"`
	Type             string             `json:"type"`
	ShippingCode     string             `json:"shipping_code"`
	IsRecording      bool               `json:"is_recording"`
	ElapsedSeconds   int                `json:"elapsed_seconds"`
	Items            []ExpandedItemView `json:"items"`
	ReturnEntries    []ReturnEntryView  `json:"return_entries"`
	ForeignAlert     *ForeignAlert      `json:"foreign_alert,omitempty"`
	PendingDuplicate string             `json:"pending_duplicate,omitempty"`
}

// DuplicateDecisionRequest resolves a pending duplicate-recording prompt.
type DuplicateDecisionRequest struct {
	Proceed bool `json:"proceed"`
}

// UpdateReturnQualityRequest reassigns the condition of one return entry.
type UpdateReturnQualityRequest struct {
	Quality string `json:"quality" validate:"required,oneof=GOOD BAD"`
}

// HistoryEntryView is one completed/failed session outcome.
type HistoryEntryView struct {
	Seq             int    `json:"seq"`
	ShippingCode    string `json:"shipping_code"`
	Outcome         string `json:"outcome"` // completed | failed
	DurationSeconds int    `json:"duration_seconds"`
	Type            string `json:"type"`
	Time            string `json:"time"`
}

// KeyEventRequest is one raw keypress forwarded by the host shell.
type KeyEventRequest struct {
	Key          string `json:"key" validate:"required"`
	TimestampMS  int64  `json:"timestamp_ms" validate:"required"`
	FieldFocused bool   `json:"field_focused"`
}

// KeyBatchRequest carries a burst of keypress events in arrival order.
type KeyBatchRequest struct {
	Events []KeyEventRequest `json:"events" validate:"required,min=1,dive"`
}
