package deals

import (
	"fmt"
	"math"
	"time"
)

const (
	upstreamTimeLayout = "2006-01-02T15:04:05Z"
	secondsPerDay      = 86400.0
)

// Normalize converts a raw upstream deal into a Deal whose revenue is
// prorated to a single day.
//
// The unit price is options[0].price.amount in minor units divided by 100.
// ActiveDays defaults to 1.0 and is raised to round(elapsed/86400) only
// when both startAt and endAt are present and the rounded span exceeds one
// day; the floor guarantees the revenue division is never by zero.
// Rounding is half away from zero, so a 2.5 day span counts as 3 days.
func Normalize(raw RawDeal, divisionID, syncKey string) (Deal, error) {
	if len(raw.Options) == 0 || raw.Options[0].Price == nil || raw.Options[0].Price.Amount == nil {
		return Deal{}, fmt.Errorf("deal %q in division %s has no price: %w", raw.Title, divisionID, ErrMalformedDeal)
	}
	price := raw.Options[0].Price

	deal := Deal{
		SyncKey:      syncKey,
		DivisionID:   divisionID,
		Title:        raw.Title,
		URL:          raw.DealURL,
		Tipped:       raw.IsTipped,
		QuantitySold: raw.SoldQuantity,
		UnitPrice:    float64(*price.Amount) / 100.0,
		Currency:     price.CurrencyCode,
		ActiveDays:   1.0,
	}

	if raw.StartAt != "" && raw.EndAt != "" {
		start, err := time.Parse(upstreamTimeLayout, raw.StartAt)
		if err != nil {
			return Deal{}, fmt.Errorf("deal %q has bad startAt %q: %w", raw.Title, raw.StartAt, ErrMalformedDeal)
		}
		end, err := time.Parse(upstreamTimeLayout, raw.EndAt)
		if err != nil {
			return Deal{}, fmt.Errorf("deal %q has bad endAt %q: %w", raw.Title, raw.EndAt, ErrMalformedDeal)
		}
		days := math.Round(end.Sub(start).Seconds() / secondsPerDay)
		if days > 1 {
			deal.ActiveDays = days
		}
	}

	deal.Revenue = float64(deal.QuantitySold) * deal.UnitPrice / deal.ActiveDays
	return deal, nil
}
