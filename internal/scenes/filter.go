package scenes

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"
)

// Selector picks the indices of scenes it considers important.
type Selector interface {
	SelectMainScenes(ctx context.Context, summaries []Summary, title string) ([]int, error)
}

// RetentionPolicy bounds how aggressively scenes may be dropped.
type RetentionPolicy struct {
	// SmallSceneCount is the list size at or below which nothing is filtered.
	SmallSceneCount int
	// MinRetention is the minimum fraction of scenes a result must keep.
	MinRetention float64
	// MinKeep is the absolute floor on the result size.
	MinKeep int
}

func DefaultRetentionPolicy() RetentionPolicy {
	return RetentionPolicy{
		SmallSceneCount: 8,
		MinRetention:    0.6,
		MinKeep:         3,
	}
}

// Required returns how many of n scenes a filtered result must contain.
func (p RetentionPolicy) Required(n int) int {
	need := int(math.Ceil(float64(n)*p.MinRetention - 1e-9))
	if need < p.MinKeep {
		need = p.MinKeep
	}
	if need > n {
		need = n
	}
	return need
}

type BudgetFilter struct {
	selector Selector
	policy   RetentionPolicy
	logger   *slog.Logger
}

// NewBudgetFilter returns a filter. A nil selector always takes the
// deterministic path.
func NewBudgetFilter(selector Selector, policy RetentionPolicy, logger *slog.Logger) *BudgetFilter {
	return &BudgetFilter{selector: selector, policy: policy, logger: logger}
}

// Filter returns the main scenes in their original order. It never fails:
// selector errors and unusable selections fall back to a duration-ranked
// pick that always keeps the first and last scene.
func (f *BudgetFilter) Filter(ctx context.Context, scenes []Scene, title string) []Scene {
	if len(scenes) <= f.policy.SmallSceneCount {
		return scenes
	}

	required := f.policy.Required(len(scenes))

	if f.selector != nil {
		indices, err := f.selector.SelectMainScenes(ctx, Summarize(scenes), title)
		if err != nil {
			f.log("scene selection unavailable, using fallback", "error", err)
		} else {
			kept, rejectErr := f.acceptSelection(scenes, indices, required)
			if rejectErr == nil {
				f.log("main scenes selected", "total", len(scenes), "kept", len(kept))
				return kept
			}
			f.log("scene selection rejected, using fallback", "error", rejectErr, "required", required)
		}
	}

	return fallbackSelection(scenes, required)
}

func (f *BudgetFilter) acceptSelection(scenes []Scene, indices []int, required int) ([]Scene, error) {
	pos := make(map[int]int, len(scenes))
	for i, s := range scenes {
		pos[s.Index] = i
	}

	keep := make([]bool, len(scenes))
	count := 0
	for _, idx := range indices {
		p, ok := pos[idx]
		if !ok {
			return nil, fmt.Errorf("scene index %d out of range", idx)
		}
		if !keep[p] {
			keep[p] = true
			count++
		}
	}
	if count < required {
		return nil, fmt.Errorf("selection keeps %d of %d scenes, need %d", count, len(scenes), required)
	}
	return collect(scenes, keep), nil
}

func fallbackSelection(scenes []Scene, required int) []Scene {
	n := len(scenes)
	keep := make([]bool, n)
	keep[0] = true
	keep[n-1] = true
	count := 1
	if n > 1 {
		count = 2
	}

	order := make([]int, 0, n)
	for i := 1; i < n-1; i++ {
		order = append(order, i)
	}
	sort.SliceStable(order, func(a, b int) bool {
		return scenes[order[a]].Duration() > scenes[order[b]].Duration()
	})

	for _, i := range order {
		if count >= required {
			break
		}
		keep[i] = true
		count++
	}
	return collect(scenes, keep)
}

func collect(scenes []Scene, keep []bool) []Scene {
	out := make([]Scene, 0, len(scenes))
	for i, s := range scenes {
		if keep[i] {
			out = append(out, s)
		}
	}
	return out
}

func (f *BudgetFilter) log(msg string, args ...any) {
	if f.logger != nil {
		f.logger.Info(msg, args...)
	}
}
