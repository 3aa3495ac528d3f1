package dto

// ProductFilter narrows the paged catalog listing.
type ProductFilter struct {
	SKU     string
	Barcode string
	Name    string
	Combo   string // "true" | "false" | "" (all)
	Page    int
	Limit   int
}

// ProductView is the catalog representation served to the operator UI and
// consumed by the product cache reload.
type ProductView struct {
	ID                 string              `json:"id"`
	SKU                string              `json:"sku"`
	Barcode            string              `json:"barcode,omitempty"`
	Name               string              `json:"name"`
	IsCombo            bool                `json:"is_combo"`
	Quantity           int                 `json:"quantity"`
	UnsellableQty      int                 `json:"unsellable_qty"`
	AdditionalBarcodes []string            `json:"additional_barcodes,omitempty"`
	Components         []ComboComponentView `json:"components,omitempty"`
}

// ComboComponentView is one line of a combo's contents.
type ComboComponentView struct {
	ProductID   string `json:"product_id"`
	ProductName string `json:"product_name"`
	SKU         string `json:"sku"`
	Quantity    int    `json:"quantity"`
}

// ProductListResponse is a paged catalog listing.
type ProductListResponse struct {
	Data  []ProductView `json:"data"`
	Total int64         `json:"total"`
	Page  int           `json:"page"`
	Limit int           `json:"limit"`
}

// OrderView is the read-only order representation.
type OrderView struct {
	ID           string          `json:"id"`
	ShippingCode string          `json:"shipping_code"`
	Source       string          `json:"source"`
	Items        []OrderItemView `json:"items"`
}

// OrderItemView is one order line.
type OrderItemView struct {
	ProductID   string `json:"product_id"`
	ProductName string `json:"product_name"`
	SKU         string `json:"sku"`
	IsCombo     bool   `json:"is_combo"`
	Quantity    int    `json:"quantity"`
}

// RecordingFilter narrows the persisted recording listing.
type RecordingFilter struct {
	Type         string
	Status       string
	ShippingCode string
	Page         int
	Limit        int
}

// RecordingView is one persisted recording metadata row.
type RecordingView struct {
	ID           string `json:"id"`
	ShippingCode string `json:"shipping_code"`
	StaffID      string `json:"staff_id"`
	Type         string `json:"type"`
	Status       string `json:"status"`
	Duration     int    `json:"duration"`
	FileName     string `json:"file_name"`
	MachineName  string `json:"machine_name"`
	CreatedAt    string `json:"created_at"`
}

// RecordingListResponse is a paged recording listing.
type RecordingListResponse struct {
	Data  []RecordingView `json:"data"`
	Total int64           `json:"total"`
	Page  int             `json:"page"`
	Limit int             `json:"limit"`
}

// InventoryTransactionView is one stock ledger row.
type InventoryTransactionView struct {
	ID        string `json:"id"`
	ProductID string `json:"product_id"`
	Action    string `json:"action"`
	Quantity  int    `json:"quantity"`
	Reference string `json:"reference,omitempty"`
	CreatedAt string `json:"created_at"`
}

// InventoryLogResponse is a paged inventory ledger listing.
type InventoryLogResponse struct {
	Data  []InventoryTransactionView `json:"data"`
	Total int64                      `json:"total"`
	Page  int                        `json:"page"`
	Limit int                        `json:"limit"`
}

// ReconciliationView is one failed-save breadcrumb awaiting review.
type ReconciliationView struct {
	ID           string `json:"id"`
	ShippingCode string `json:"shipping_code"`
	Type         string `json:"type"`
	FailedStep   string `json:"failed_step"`
	Reason       string `json:"reason"`
	FileName     string `json:"file_name,omitempty"`
	Resolved     bool   `json:"resolved"`
	CreatedAt    string `json:"created_at"`
}
