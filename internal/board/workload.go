package board

import (
	"math"

	"github.com/baflo/kanbn-sub002/internal/index"
	"github.com/baflo/kanbn-sub002/internal/task"
)

// DefaultTaskWorkload is used when no tag matches and the board does not set
// defaultTaskWorkload.
const DefaultTaskWorkload = 2

// DefaultWorkloadTags apply when the board does not set taskWorkloadTags.
var DefaultWorkloadTags = map[string]float64{
	"Nothing": 0,
	"Tiny":    1,
	"Small":   2,
	"Medium":  3,
	"Large":   5,
	"Huge":    8,
}

// Workload sums the weights of the task's tags. A task with no weighted tag
// gets the default workload instead of zero.
func Workload(t *task.Task, o index.Options) float64 {
	weights := o.TaskWorkloadTags
	if weights == nil {
		weights = DefaultWorkloadTags
	}

	var sum float64
	matched := false
	for _, tag := range t.Metadata.Tags {
		if w, ok := weights[tag]; ok {
			sum += w
			matched = true
		}
	}
	if matched {
		return sum
	}
	if o.DefaultTaskWorkload != nil {
		return *o.DefaultTaskWorkload
	}
	return DefaultTaskWorkload
}

// Progress is 1 for completed tasks (a completed date, or a completed
// column), otherwise the task's progress metadata, otherwise 0.
func Progress(t *task.Task, column string, o index.Options) float64 {
	if t.Metadata.Completed != nil || o.IsCompleted(column) {
		return 1
	}
	if t.Metadata.Progress != nil {
		return *t.Metadata.Progress
	}
	return 0
}

// RemainingWorkload is workload*(1-progress), rounded up.
func RemainingWorkload(workload, progress float64) float64 {
	return math.Ceil(workload * (1 - progress))
}
