// Package migrate converts settings left behind by earlier firmware into
// current-format records.
//
// Each obsolete record is described by an Artifact: where it was kept, which
// current record it feeds, and how its fields map onto current values. One
// generic routine walks the table. A found artifact is parsed, converted,
// handed to a Sink that persists the result, and then deleted from every
// medium. Artifacts that fail to parse or lack a required field are deleted
// without conversion.
//
// Building with the sid_nomigrate tag compiles conversion out. Building with
// sid_purgelegacy makes Purge delete every known obsolete record at boot.
package migrate

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/circuitsetup/sidconf/internal/core/domain"
	"github.com/circuitsetup/sidconf/internal/storage/document"
	"github.com/circuitsetup/sidconf/internal/storage/medium"
)

// State is the progress of one artifact through a run.
type State int

const (
	Absent State = iota
	Found
	Converted
	Removed
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case Absent:
		return "absent"
	case Found:
		return "found"
	case Converted:
		return "converted"
	case Removed:
		return "removed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Sink receives converted values and persists them in the current format.
type Sink interface {
	ApplyMigrated(target Target, values Values) error
}

// Result reports what happened to one artifact.
type Result struct {
	Artifact string
	Target   Target
	Medium   string
	State    State

	// Converted is set when values reached the Sink.
	Converted bool
	Values    Values
	Err       error
}

// Options overrides the build-time switches.
type Options struct {
	// Disabled turns conversion off.
	Disabled bool

	// Purge enables Purge regardless of build tags.
	Purge bool

	// Artifacts replaces the compiled-in table.
	Artifacts []Artifact
}

// Engine runs the conversion table against the mounted media.
type Engine struct {
	sel       *medium.Selector
	artifacts []Artifact
	enabled   bool
	purge     bool
	logger    *slog.Logger
}

// NewEngine creates an engine over sel.
func NewEngine(sel *medium.Selector, opts Options, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	artifacts := opts.Artifacts
	if artifacts == nil {
		artifacts = Artifacts()
	}
	return &Engine{
		sel:       sel,
		artifacts: artifacts,
		enabled:   compiledIn && !opts.Disabled,
		purge:     purgeByDefault || opts.Purge,
		logger:    logger.With("component", "migrate"),
	}
}

// Enabled reports whether conversion is active.
func (e *Engine) Enabled() bool { return e.enabled }

// PurgeEnabled reports whether Purge deletes anything.
func (e *Engine) PurgeEnabled() bool { return e.purge }

// Run converts every artifact feeding target. The caller runs it only when
// the current-format record for target could not be loaded.
func (e *Engine) Run(target Target, sink Sink) []Result {
	if !e.enabled {
		return nil
	}
	var results []Result
	for _, a := range e.artifacts {
		if a.Target != target {
			continue
		}
		results = append(results, e.runArtifact(a, sink))
	}
	return results
}

func (e *Engine) runArtifact(a Artifact, sink Sink) Result {
	res := Result{Artifact: a.Name, Target: a.Target, State: Absent}

	var doc *document.Document
	var readErr error
	for _, m := range e.searchOrder(a) {
		if !m.Exists(a.Name) {
			continue
		}
		res.State = Found
		res.Medium = m.Name()
		doc, _, readErr = document.Read(m, a.Name)
		break
	}
	if res.State == Absent {
		return res
	}

	log := e.logger.With("artifact", a.Name, "medium", res.Medium)
	switch {
	case readErr != nil:
		log.Warn("legacy record unreadable, discarding", "error", readErr)
		res.Err = readErr
	default:
		values, ok := a.convert(doc)
		if !ok {
			log.Warn("legacy record incomplete, discarding")
			res.Err = domain.ErrFieldOutOfRange.WithDetails(a.Name + ": required field missing or invalid")
			break
		}
		if err := sink.ApplyMigrated(a.Target, values); err != nil {
			// Keep the artifact so the next boot can retry.
			log.Error("persisting converted settings failed", "error", err)
			res.Err = err
			return res
		}
		res.State = Converted
		res.Converted = true
		res.Values = values
		log.Info("legacy record converted", "target", a.Target.String())
	}

	if err := e.removeEverywhere(a.Name); err != nil {
		log.Warn("removing legacy record failed", "error", err)
		if res.Err == nil {
			res.Err = err
		}
		return res
	}
	res.State = Removed
	return res
}

// searchOrder lists the media to look on: the media the record was stored on
// first, then any other mounted medium. Card-only artifacts are looked for
// on the card only.
func (e *Engine) searchOrder(a Artifact) []medium.Medium {
	if a.CardOnly {
		return e.sel.ReadOrder(medium.ClassCardOnly)
	}
	order := e.sel.ReadOrder(a.Class)
	for _, m := range e.sel.Mounted() {
		seen := false
		for _, o := range order {
			if o == m {
				seen = true
				break
			}
		}
		if !seen {
			order = append(order, m)
		}
	}
	return order
}

func (e *Engine) removeEverywhere(name string) error {
	var errs []error
	for _, m := range e.sel.Mounted() {
		if !m.Exists(name) {
			continue
		}
		if err := m.Remove(name); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", m.Name(), err))
		}
	}
	return errors.Join(errs...)
}

// Purge deletes every known obsolete record from every mounted medium and
// returns how many were deleted. It does nothing unless purging is enabled.
func (e *Engine) Purge() int {
	if !e.purge {
		return 0
	}
	removed := 0
	for _, name := range domain.LegacyRecords() {
		for _, m := range e.sel.Mounted() {
			if !m.Exists(name) {
				continue
			}
			if err := m.Remove(name); err != nil {
				e.logger.Warn("purge failed", "record", name, "medium", m.Name(), "error", err)
				continue
			}
			removed++
		}
	}
	if removed > 0 {
		e.logger.Info("obsolete records purged", "count", removed)
	}
	return removed
}
