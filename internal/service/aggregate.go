package service

import "medrisk.app/console/internal/model"

// Aggregate folds a snapshot into per-category entry counts. Pure and
// order-independent: the counts depend only on which entries are present.
// Categories with no entries are absent from the result.
func Aggregate(snapshot model.HistorySnapshot) model.AggregateCounts {
	counts := make(model.AggregateCounts)
	for _, entry := range snapshot {
		counts[entry.Category]++
	}
	return counts
}
