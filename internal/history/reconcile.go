package history

import (
	"sort"
	"time"

	"lbxwatch/internal/offers"
)

// OpenInterval is the mutable portion of the currently open history row for
// one (item, provider) pair, used to detect material changes.
type OpenInterval struct {
	ProviderName     string
	PresentationType string
	URL              string
}

// Input carries everything one reconciliation pass needs. Previous maps each
// provider with an open interval to that interval's recorded fields; Now is
// the timestamp stamped onto opened and closed intervals, injected so plans
// are deterministic.
type Input struct {
	ItemID   int64
	EntryID  string
	Previous map[int64]OpenInterval
	Current  []offers.Offer
	Now      time.Time
}

// Plan is the complete set of store mutations for one item. The caller must
// apply all three lists atomically so a provider is never simultaneously
// current and closed.
type Plan struct {
	ItemID  int64
	EntryID string
	Now     time.Time

	// UpsertCurrent refreshes the snapshot row for every current offer,
	// advancing last_seen_at even when nothing changed.
	UpsertCurrent []offers.Offer
	// CloseAndRemove closes the open interval and deletes the snapshot row
	// for providers that disappeared, in ascending provider order.
	CloseAndRemove []int64
	// OpenIntervals opens a fresh interval for providers that are new or
	// whose open interval differs materially; any existing open interval for
	// these providers is closed in the same transaction.
	OpenIntervals []offers.Offer
}

// Empty reports whether the plan carries no mutations at all.
func (p Plan) Empty() bool {
	return len(p.UpsertCurrent) == 0 && len(p.CloseAndRemove) == 0 && len(p.OpenIntervals) == 0
}

// Reconcile diffs the previous open-interval state against the current offer
// set and emits the minimal mutation plan. Given identical inputs the plan is
// identical: no randomness and no wall-clock reads beyond Input.Now.
func Reconcile(in Input) Plan {
	plan := Plan{
		ItemID:        in.ItemID,
		EntryID:       in.EntryID,
		Now:           in.Now,
		UpsertCurrent: in.Current,
	}

	currentIDs := make(map[int64]struct{}, len(in.Current))
	for _, offer := range in.Current {
		currentIDs[offer.ProviderID] = struct{}{}
	}

	for providerID := range in.Previous {
		if _, stillActive := currentIDs[providerID]; !stillActive {
			plan.CloseAndRemove = append(plan.CloseAndRemove, providerID)
		}
	}
	sort.Slice(plan.CloseAndRemove, func(i, j int) bool {
		return plan.CloseAndRemove[i] < plan.CloseAndRemove[j]
	})

	for _, offer := range in.Current {
		previous, open := in.Previous[offer.ProviderID]
		if !open || changed(previous, offer) {
			plan.OpenIntervals = append(plan.OpenIntervals, offer)
		}
	}

	return plan
}

// changed reports whether an open interval differs materially from the
// incoming offer. Closing and reopening on change keeps the history accurate
// instead of treating "interval already open" as "no change needed".
func changed(previous OpenInterval, offer offers.Offer) bool {
	return previous.ProviderName != offer.ProviderName ||
		previous.PresentationType != offer.PresentationType ||
		previous.URL != offer.URL
}
