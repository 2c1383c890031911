package dispatch

import (
	"encoding/json"
	"fmt"

	"reorderflow/internal"
	"reorderflow/internal/storage"
)

const (
	keyFailedVendors = "dispatch.failed_vendors"
	keyProgress      = "dispatch.progress"
)

// StateRepo persists the dispatch checkpoint and failed-vendor list
// between invocations.
type StateRepo struct {
	store storage.StateStore
}

func NewStateRepo(store storage.StateStore) *StateRepo {
	return &StateRepo{store: store}
}

// LoadFailed returns the stored failed-vendor list. The legacy format
// was a plain array of names; those upgrade to entries with both
// category flags set.
func (r *StateRepo) LoadFailed() ([]internal.FailedVendor, error) {
	raw, ok, err := r.store.Get(keyFailedVendors)
	if err != nil || !ok {
		return nil, err
	}

	var failed []internal.FailedVendor
	if err := json.Unmarshal([]byte(raw), &failed); err == nil {
		return failed, nil
	}

	var names []string
	if err := json.Unmarshal([]byte(raw), &names); err != nil {
		return nil, fmt.Errorf("corrupt failed-vendor state: %w", err)
	}
	for _, name := range names {
		failed = append(failed, internal.FailedVendor{Name: name, Today: true, Previous: true})
	}
	return failed, nil
}

func (r *StateRepo) SaveFailed(failed []internal.FailedVendor) error {
	if len(failed) == 0 {
		return r.store.Delete(keyFailedVendors)
	}
	raw, err := json.Marshal(failed)
	if err != nil {
		return err
	}
	return r.store.Set(keyFailedVendors, string(raw))
}

func (r *StateRepo) ClearFailed() error {
	return r.store.Delete(keyFailedVendors)
}

// LoadProgress returns the stored checkpoint, or nil when none exists.
func (r *StateRepo) LoadProgress() (*internal.DispatchProgress, error) {
	raw, ok, err := r.store.Get(keyProgress)
	if err != nil || !ok {
		return nil, err
	}
	var progress internal.DispatchProgress
	if err := json.Unmarshal([]byte(raw), &progress); err != nil {
		return nil, fmt.Errorf("corrupt dispatch checkpoint: %w", err)
	}
	return &progress, nil
}

func (r *StateRepo) SaveProgress(progress internal.DispatchProgress) error {
	raw, err := json.Marshal(progress)
	if err != nil {
		return err
	}
	return r.store.Set(keyProgress, string(raw))
}

func (r *StateRepo) ClearProgress() error {
	return r.store.Delete(keyProgress)
}

// upsertFailed merges category flags into the entry for name, creating
// it when absent. Existing flags are never cleared here; retry success
// clears them through clearFailedCategory.
func upsertFailed(failed []internal.FailedVendor, name string, today, previous bool) []internal.FailedVendor {
	for i := range failed {
		if failed[i].Name == name {
			failed[i].Today = failed[i].Today || today
			failed[i].Previous = failed[i].Previous || previous
			return failed
		}
	}
	return append(failed, internal.FailedVendor{Name: name, Today: today, Previous: previous})
}

// removeFailed drops the entry for name.
func removeFailed(failed []internal.FailedVendor, name string) []internal.FailedVendor {
	out := failed[:0]
	for _, f := range failed {
		if f.Name != name {
			out = append(out, f)
		}
	}
	return out
}

// clearFailedCategory unsets one category flag; entries with no flags
// left are removed.
func clearFailedCategory(failed []internal.FailedVendor, name string, today bool) []internal.FailedVendor {
	for i := range failed {
		if failed[i].Name != name {
			continue
		}
		if today {
			failed[i].Today = false
		} else {
			failed[i].Previous = false
		}
		if !failed[i].Today && !failed[i].Previous {
			return removeFailed(failed, name)
		}
		return failed
	}
	return failed
}

// categoryLabel renders the failed categories of an entry for the
// completion summary.
func categoryLabel(f internal.FailedVendor) string {
	switch {
	case f.Today && f.Previous:
		return "today+previous"
	case f.Today:
		return "today"
	case f.Previous:
		return "previous"
	default:
		return "none"
	}
}
