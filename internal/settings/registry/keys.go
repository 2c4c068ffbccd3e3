package registry

import (
	"github.com/circuitsetup/sidconf/internal/core/domain"
	"github.com/circuitsetup/sidconf/internal/storage/document"
	"github.com/circuitsetup/sidconf/internal/storage/medium"
)

// loadLearnedKeys loads the first learned key table along the selectable
// read order. A malformed or incomplete table is deleted.
func (r *Registry) loadLearnedKeys() {
	r.keys = domain.LearnedKeyTable{}
	r.haveKeys = false

	for _, m := range r.sel.ReadOrder(medium.ClassSelectable) {
		if !m.Exists(domain.RecordLearnedKeys) {
			continue
		}
		log := r.logger.With("record", domain.RecordLearnedKeys, "medium", m.Name())

		doc, hash, err := document.Read(m, domain.RecordLearnedKeys)
		if err != nil {
			log.Warn("learned keys unreadable, deleting", "error", err)
			r.dropLearnedKeys(m)
			return
		}

		var t domain.LearnedKeyTable
		for _, name := range domain.LearnedKeyNames() {
			raw, _ := doc.Lookup(name)
			_ = t.Set(name, domain.ParseKeyCode(raw))
		}
		if !t.Complete() {
			log.Warn("learned keys incomplete, deleting")
			r.dropLearnedKeys(m)
			return
		}

		r.keys = t
		r.haveKeys = true
		r.hashes.Seed(domain.RecordLearnedKeys, hash)
		log.Debug("learned keys loaded")
		return
	}
}

func (r *Registry) dropLearnedKeys(m medium.Medium) {
	r.hashes.Invalidate(domain.RecordLearnedKeys)
	if err := m.Remove(domain.RecordLearnedKeys); err != nil {
		r.logger.Warn("deleting learned keys failed", "medium", m.Name(), "error", err)
	}
}

// LearnedKeys returns the learned key table and whether one is stored.
func (r *Registry) LearnedKeys() (domain.LearnedKeyTable, bool) {
	return r.keys, r.haveKeys
}

// SetLearnedKeys stores t. An incomplete table deletes the stored one.
func (r *Registry) SetLearnedKeys(t domain.LearnedKeyTable) error {
	delete(r.pending, GroupLearnedKeys)
	if !t.Complete() {
		return r.DeleteLearnedKeys()
	}
	r.keys = t
	r.haveKeys = true
	return r.SaveLearnedKeys()
}

// SaveLearnedKeys writes the learned key table unless it is unchanged. An
// incomplete table is deleted instead.
func (r *Registry) SaveLearnedKeys() error {
	if !r.haveKeys || !r.keys.Complete() {
		return r.DeleteLearnedKeys()
	}
	m, err := r.sel.WriteTarget(medium.ClassSelectable)
	if err != nil {
		return domain.ErrMediumUnavailable.WithCause(err).WithDetails(domain.RecordLearnedKeys)
	}

	b := document.NewBuilder()
	for i, name := range domain.LearnedKeyNames() {
		b.Set(name, domain.FormatKeyCode(r.keys[i]))
	}
	hash, wrote, err := document.Write(m, domain.RecordLearnedKeys, b, r.hashes.Get(domain.RecordLearnedKeys))
	if err != nil {
		r.metrics.WriteFailed(domain.RecordLearnedKeys, m.Name())
		return domain.ErrWriteFailed.Wrapf(err, "%s on %s", domain.RecordLearnedKeys, m.Name())
	}
	if !wrote {
		r.metrics.RecordSkipped(domain.RecordLearnedKeys)
		return nil
	}
	r.hashes.Commit(domain.RecordLearnedKeys, hash)
	r.metrics.RecordWritten(domain.RecordLearnedKeys, m.Name())
	return nil
}

// DeleteLearnedKeys forgets the learned key table and removes it from
// storage.
func (r *Registry) DeleteLearnedKeys() error {
	r.keys = domain.LearnedKeyTable{}
	r.haveKeys = false
	delete(r.pending, GroupLearnedKeys)
	return r.removeFrom(domain.RecordLearnedKeys, medium.ClassSelectable)
}
