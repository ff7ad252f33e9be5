// Package deals defines core types shared across subsystems.
package deals

import (
	"errors"
	"strings"
	"time"
)

// Sentinel errors for the two failure classes of an ingestion run.
var (
	// ErrFetch marks a network failure, non-2xx response, or undecodable
	// body from the upstream API. It aborts the whole run.
	ErrFetch = errors.New("upstream fetch failed")

	// ErrMalformedDeal marks an upstream deal missing a required field
	// (options, price, amount). Fatal for the run, never skipped per-deal,
	// so revenue is not silently under-reported.
	ErrMalformedDeal = errors.New("malformed deal record")
)

// SyncKeyLayout is the timestamp layout shared by every record of one
// orchestration run. The date portion leads so DayKey can truncate at the
// first space.
const SyncKeyLayout = "2006-01-02 15:04:05.000000"

// SyncMarker records one completed orchestration run.
type SyncMarker struct {
	CreatedAt    time.Time `json:"created_at"`
	SyncKey      string    `json:"sync_key"`
	TotalRevenue float64   `json:"total_revenue"`
}

// Deal is one normalized deal row, immutable after creation.
type Deal struct {
	SyncKey      string  `json:"sync_key"`
	DivisionID   string  `json:"division_id"`
	Title        string  `json:"title"`
	URL          string  `json:"url"`
	Tipped       bool    `json:"tipped"`
	QuantitySold int     `json:"quantity_sold"`
	UnitPrice    float64 `json:"unit_price"`
	Currency     string  `json:"currency"`
	ActiveDays   float64 `json:"active_days"`
	Revenue      float64 `json:"revenue"`
}

// RevenueSummary is the denormalized total of all deals in one run.
type RevenueSummary struct {
	SyncKey      string  `json:"sync_key"`
	TotalRevenue float64 `json:"total_revenue"`
}

// RawDeal mirrors one entry of the upstream deals payload. Pointer fields
// distinguish absent values from zero values so Normalize can reject
// incomplete records.
type RawDeal struct {
	Title        string      `json:"title"`
	DealURL      string      `json:"dealUrl"`
	IsTipped     bool        `json:"isTipped"`
	SoldQuantity int         `json:"soldQuantity"`
	StartAt      string      `json:"startAt"`
	EndAt        string      `json:"endAt"`
	Options      []RawOption `json:"options"`
}

// RawOption is one purchase option of a RawDeal.
type RawOption struct {
	Price *RawPrice `json:"price"`
}

// RawPrice holds an amount in minor currency units.
type RawPrice struct {
	Amount       *int64 `json:"amount"`
	CurrencyCode string `json:"currencyCode"`
}

// DayKey returns the date-only prefix of a sync key, used to group runs by
// calendar day for retention.
func DayKey(syncKey string) string {
	day, _, _ := strings.Cut(syncKey, " ")
	return day
}

// Clock abstracts wall-clock access so sync keys are testable.
type Clock interface {
	Now() time.Time
}
