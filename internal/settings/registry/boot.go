package registry

import (
	"errors"

	"github.com/circuitsetup/sidconf/internal/core/domain"
	"github.com/circuitsetup/sidconf/internal/settings/migrate"
	"github.com/circuitsetup/sidconf/internal/storage/document"
	"github.com/circuitsetup/sidconf/internal/storage/medium"
)

// BootReport summarizes what Boot found and did.
type BootReport struct {
	Mount medium.MountReport

	// PrimaryRewritten is set when the primary document was missing,
	// malformed or incomplete and was written anew.
	PrimaryRewritten bool

	// IdentityCreated is set when a new device identity was generated.
	IdentityCreated bool

	// Purged counts obsolete records deleted unconditionally.
	Purged int

	Migrations []migrate.Result
}

// Boot mounts the media and loads every settings group.
//
// Nothing in Boot is fatal. A group that cannot be loaded keeps its
// compiled defaults; a save that fails is logged and retried by the next
// natural save of that group.
func (r *Registry) Boot() BootReport {
	var rep BootReport
	rep.Mount = r.sel.Mount()
	r.mount = rep.Mount

	rewrite, wroteCard := r.loadPrimary()
	rep.PrimaryRewritten = wroteCard

	if rep.Mount.ForeignFS {
		r.logger.Warn("reformatting flash")
		if err := r.sel.FormatFlash(); err != nil {
			r.logger.Error("flash format failed", "error", err)
		}
		rewrite = true
	}
	if rewrite && r.sel.HaveFlash() && !r.sel.ReadOnlyFlash() {
		r.hashes.Invalidate(domain.RecordPrimary)
		if err := r.SavePrimary(); err != nil {
			r.logger.Error("writing primary config failed", "error", err)
		} else {
			rep.PrimaryRewritten = true
		}
	}

	rep.Purged = r.engine.Purge()

	created, results := r.loadIdentity()
	rep.IdentityCreated = created
	rep.Migrations = append(rep.Migrations, results...)

	r.sel.SetCardPreference(r.primary.StoreSecondaryOnCard())

	rep.Migrations = append(rep.Migrations, r.loadSecondary()...)
	rep.Migrations = append(rep.Migrations, r.loadTertiary()...)
	rep.Migrations = append(rep.Migrations, r.loadIPOverride()...)
	r.loadLearnedKeys()

	for _, res := range rep.Migrations {
		if res.State != migrate.Absent {
			r.metrics.Migrated(res.Artifact, res.Converted)
		}
	}

	r.booted = true
	r.logger.Info("settings loaded",
		"identity", r.id.String(),
		"selectable_on_card", r.sel.SelectableOnCard(),
		"read_only_flash", r.sel.ReadOnlyFlash(),
		"ip_override", r.ip.IsSet(),
		"learned_keys", r.haveKeys)
	return rep
}

// loadPrimary reads the primary document. It reports whether the document
// has to be written to flash and whether it was written to the card.
//
// Flash is read first. In read-only-flash mode the card copy is read on
// top of it and, when missing or incomplete, written back to the card.
func (r *Registry) loadPrimary() (rewrite, wroteCard bool) {
	reads := 0

	if r.sel.HaveFlash() {
		var ok bool
		ok, rewrite = r.readPrimary(r.sel.Flash(), reads == 0)
		if ok {
			reads++
		}
	}

	if r.sel.ReadOnlyFlash() && r.sel.HaveCard() {
		_, rewriteCard := r.readPrimary(r.sel.Card(), reads == 0)
		if rewriteCard {
			r.hashes.Invalidate(domain.RecordPrimary)
			if err := r.SavePrimary(); err != nil {
				r.logger.Error("writing primary config to card failed", "error", err)
			} else {
				wroteCard = true
			}
		}
	}
	return rewrite, wroteCard
}

// readPrimary applies the document on m. It reports whether a document was
// read and whether it has to be rewritten.
func (r *Registry) readPrimary(m medium.Medium, first bool) (bool, bool) {
	log := r.logger.With("record", domain.RecordPrimary, "medium", m.Name())

	doc, hash, err := document.Read(m, domain.RecordPrimary)
	switch {
	case medium.IsNotExist(err):
		log.Info("primary config missing")
		return false, true
	case errors.Is(err, document.ErrMalformed):
		log.Warn("primary config malformed, regenerating", "error", err)
		return true, true
	case err != nil:
		log.Error("primary config unreadable", "error", err)
		return false, true
	}

	rewrite := r.primary.Apply(doc, first)
	if rewrite {
		log.Info("primary config incomplete, rewriting")
	}
	r.hashes.Seed(domain.RecordPrimary, hash)
	return true, rewrite
}

// PrimaryExists reports whether the primary document exists where it is
// written to.
func (r *Registry) PrimaryExists() bool {
	m, err := r.sel.WriteTarget(medium.ClassPrimary)
	if err != nil {
		return false
	}
	return m.Exists(domain.RecordPrimary)
}

// Primary returns a copy of the primary settings.
func (r *Registry) Primary() *domain.PrimaryConfig {
	return r.primary.Clone()
}

// SetPrimaryField validates and stores one primary field in memory. It
// returns the stored value and whether it differs from the input.
func (r *Registry) SetPrimaryField(key, value string) (string, bool, error) {
	changed, err := r.primary.Set(key, value)
	if err != nil {
		return "", false, err
	}
	return r.primary.Get(key), changed, nil
}

// UpdatePrimary applies fn to the primary settings, saves the document once
// and relocates selectable records when the "store on card" preference
// changed. On error from fn nothing is saved and the settings are restored.
func (r *Registry) UpdatePrimary(fn func(p *domain.PrimaryConfig) error) error {
	before := r.primary.Clone()
	if err := fn(r.primary); err != nil {
		r.primary = before
		return err
	}
	if err := r.SavePrimary(); err != nil {
		return err
	}
	pref := r.primary.StoreSecondaryOnCard()
	if pref == before.StoreSecondaryOnCard() {
		return nil
	}
	if !r.sel.HaveFlash() || !r.sel.HaveCard() {
		r.sel.SetCardPreference(pref)
		return nil
	}
	return r.MoveSelectable(pref)
}

// SavePrimary writes the primary document unless it is unchanged.
func (r *Registry) SavePrimary() error {
	m, err := r.sel.WriteTarget(medium.ClassPrimary)
	if err != nil {
		r.logger.Info("no medium for primary config, not saving")
		return domain.ErrMediumUnavailable.WithCause(err).WithDetails(domain.RecordPrimary)
	}

	b := document.NewBuilder()
	r.primary.Each(func(f domain.FieldSpec, value string) {
		b.Set(f.Key, value)
	})

	hash, wrote, err := document.Write(m, domain.RecordPrimary, b, r.hashes.Get(domain.RecordPrimary))
	if err != nil {
		r.metrics.WriteFailed(domain.RecordPrimary, m.Name())
		return domain.ErrWriteFailed.Wrapf(err, "%s on %s", domain.RecordPrimary, m.Name())
	}
	if !wrote {
		r.metrics.RecordSkipped(domain.RecordPrimary)
		return nil
	}
	r.hashes.Commit(domain.RecordPrimary, hash)
	r.metrics.RecordWritten(domain.RecordPrimary, m.Name())
	r.logger.Debug("primary config written", "medium", m.Name())
	return nil
}
