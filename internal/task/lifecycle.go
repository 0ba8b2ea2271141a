package task

import (
	"time"

	"github.com/baflo/kanbn-sub002/internal/date"
	"github.com/baflo/kanbn-sub002/internal/index"
)

// UpdateDates applies the date bookkeeping of a move from one column to
// another:
//   - Sets Started on entering a started column (never overwrites).
//   - Sets Completed on entering a completed column from one that is not.
//   - Sets date custom fields named after the target column per their
//     updateDate rule: always overwrites, once only fills a missing value.
//
// Updated is left to Touch.
func UpdateDates(t *Task, from, to string, o index.Options, now time.Time) {
	if from == to {
		return
	}

	if o.IsStarted(to) && t.Metadata.Started == nil {
		started := now
		t.Metadata.Started = &started
	}
	if o.IsCompleted(to) && !o.IsCompleted(from) {
		completed := now
		t.Metadata.Completed = &completed
	}

	cf, ok := o.CustomField(to)
	if !ok || cf.Type != index.FieldDate {
		return
	}
	_, exists := t.Metadata.Custom[cf.Name]
	switch cf.UpdateDate {
	case index.UpdateAlways:
	case index.UpdateOnce:
		if exists {
			return
		}
	default:
		return
	}
	if t.Metadata.Custom == nil {
		t.Metadata.Custom = make(map[string]any)
	}
	t.Metadata.Custom[cf.Name] = date.Format(now)
}
