package inventory

import "time"

// Record is a row of the inventory table. Stock is owned elsewhere; this service only reads it.
type Record struct {
	ProductID         string
	StockQuantity     int64
	ReservedQuantity  int64
	LowStockThreshold int64
	UpdatedAt         time.Time
}

func (r Record) Available() int64 {
	return r.StockQuantity - r.ReservedQuantity
}

type Request struct {
	ProductID string `json:"productId"`
	Quantity  int64  `json:"quantity"`
}

type Result struct {
	ProductID         string `json:"productId"`
	IsTracked         bool   `json:"isTracked"`
	IsAvailable       bool   `json:"isAvailable"`
	AvailableQuantity *int64 `json:"availableQuantity,omitempty"`
	RequestedQuantity int64  `json:"requestedQuantity"`
	IsLowStock        bool   `json:"isLowStock"`
}

type BatchResult struct {
	Results      []Result `json:"results"`
	AllAvailable bool     `json:"allAvailable"`
}

// Unavailable returns the product ids that cannot be fulfilled.
func (b *BatchResult) Unavailable() []string {
	var out []string
	for _, r := range b.Results {
		if !r.IsAvailable {
			out = append(out, r.ProductID)
		}
	}
	return out
}
