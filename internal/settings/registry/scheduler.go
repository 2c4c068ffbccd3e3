package registry

import (
	"errors"
	"fmt"
	"sort"
	"time"
)

// Group identifies a unit of persistence.
type Group int

const (
	GroupPrimary Group = iota
	GroupSecondary
	GroupTertiary
	GroupIPOverride
	GroupLearnedKeys
)

// String returns the group name.
func (g Group) String() string {
	switch g {
	case GroupPrimary:
		return "primary"
	case GroupSecondary:
		return "secondary"
	case GroupTertiary:
		return "tertiary"
	case GroupIPOverride:
		return "ipoverride"
	case GroupLearnedKeys:
		return "learnedkeys"
	default:
		return fmt.Sprintf("group(%d)", int(g))
	}
}

// ParseGroup returns the group named s.
func ParseGroup(s string) (Group, error) {
	for g := GroupPrimary; g <= GroupLearnedKeys; g++ {
		if g.String() == s {
			return g, nil
		}
	}
	return 0, fmt.Errorf("unknown group %q", s)
}

// ScheduleSave marks g for a deferred save. A group scheduled again before
// it is due waits for the full delay from now, so a burst of changes ends
// in a single write.
func (r *Registry) ScheduleSave(g Group) {
	r.pending[g] = r.now().Add(r.saveDelay)
}

// Pending returns the scheduled groups in order.
func (r *Registry) Pending() []Group {
	out := make([]Group, 0, len(r.pending))
	for g := range r.pending {
		out = append(out, g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Tick saves every group whose delay has elapsed at now. Deferred saves are
// rate limited; a group the limiter refuses stays pending for the next
// Tick. It returns the number of groups saved.
func (r *Registry) Tick(now time.Time) int {
	saved := 0
	for _, g := range r.Pending() {
		if now.Before(r.pending[g]) {
			continue
		}
		if !r.limiter.AllowN(now, 1) {
			break
		}
		delete(r.pending, g)
		if err := r.saveGroup(g); err != nil {
			r.logger.Warn("deferred save failed", "group", g.String(), "error", err)
			continue
		}
		saved++
	}
	return saved
}

// Flush saves every pending group now, ignoring delays and the rate limit.
func (r *Registry) Flush() error {
	var errs []error
	for _, g := range r.Pending() {
		delete(r.pending, g)
		if err := r.saveGroup(g); err != nil && !IsUnavailable(err) {
			errs = append(errs, fmt.Errorf("%s: %w", g, err))
		}
	}
	return errors.Join(errs...)
}

func (r *Registry) saveGroup(g Group) error {
	switch g {
	case GroupPrimary:
		return r.SavePrimary()
	case GroupSecondary:
		return r.saveSecondary(true)
	case GroupTertiary:
		return r.saveTertiary(true)
	case GroupIPOverride:
		return r.SaveIPOverride()
	case GroupLearnedKeys:
		return r.SaveLearnedKeys()
	default:
		return fmt.Errorf("unknown group %d", int(g))
	}
}
