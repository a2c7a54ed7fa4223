package internal

// Warehouse is one seller warehouse as returned by the marketplace API.
type Warehouse struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// PriceUpdate is one entry of the price upload payload. Price is an integer,
// the API accepts no fractional prices.
type PriceUpdate struct {
	NmID     int64 `json:"nmID"`
	Price    int64 `json:"price"`
	Discount int   `json:"discount"`
}

// StockUpdate is one entry of the stock upsert payload. ChrtID is the
// line-item variant identifier; when unknown it is omitted and the API
// resolves it server-side from the sku.
type StockUpdate struct {
	SKU    string `json:"sku"`
	Amount int    `json:"amount"`
	ChrtID int64  `json:"chrtId,omitempty"`
}

// BrandRecord is one parsed data row of a per-brand price file.
type BrandRecord struct {
	Article  string
	Barcode  string
	Price    float64
	Quantity int
	Raw      []string
}

// ConfirmFunc gates mutating API calls. It receives a human-readable
// summary of what is about to change and returns whether to proceed.
// Unattended runs pass a pre-approved implementation.
type ConfirmFunc func(summary string) bool

// MailAttachment is the price archive pulled out of a mailbox.
type MailAttachment struct {
	Provider   string
	MessageID  string
	Subject    string
	From       string
	ReceivedAt string
	Filename   string
	Content    []byte
}
