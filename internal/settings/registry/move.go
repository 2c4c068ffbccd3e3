package registry

import (
	"errors"

	"github.com/circuitsetup/sidconf/internal/core/domain"
	"github.com/circuitsetup/sidconf/internal/storage/medium"
)

// MoveSelectable relocates the secondary group and the learned key table
// to the card (toCard) or to flash. Both media must be present, and in
// read-only-flash mode nothing can move to flash.
//
// The records are written to the new medium before the old copies are
// removed. When writing fails the preference is restored and the old
// copies stay in place.
func (r *Registry) MoveSelectable(toCard bool) error {
	switch {
	case !r.sel.HaveFlash() || !r.sel.HaveCard():
		return domain.ErrMoveRejected.WithDetails("both media must be present")
	case !toCard && r.sel.ReadOnlyFlash():
		return domain.ErrMoveRejected.WithDetails("flash is read-only")
	}

	prevPref := r.sel.CardPreference()
	from, err := r.sel.WriteTarget(medium.ClassSelectable)
	if err != nil {
		return domain.ErrMediumUnavailable.WithCause(err)
	}
	r.sel.SetCardPreference(toCard)
	to, err := r.sel.WriteTarget(medium.ClassSelectable)
	if err != nil {
		r.sel.SetCardPreference(prevPref)
		return domain.ErrMediumUnavailable.WithCause(err)
	}
	if to.Name() == from.Name() {
		return nil
	}

	if err := r.Flush(); err != nil {
		r.logger.Warn("flush before move failed", "error", err)
	}

	log := r.logger.With("from", from.Name(), "to", to.Name())
	r.hashes.Invalidate(domain.RecordSecondary)
	r.hashes.Invalidate(domain.RecordLearnedKeys)

	err = r.saveSecondary(false)
	if err == nil && r.haveKeys {
		err = r.SaveLearnedKeys()
	}
	if err != nil {
		r.sel.SetCardPreference(prevPref)
		r.hashes.Invalidate(domain.RecordSecondary)
		r.hashes.Invalidate(domain.RecordLearnedKeys)
		log.Error("moving settings failed", "error", err)
		return err
	}

	var errs []error
	for _, name := range []string{domain.RecordSecondary, domain.RecordLearnedKeys} {
		if err := from.Remove(name); err != nil {
			errs = append(errs, domain.ErrWriteFailed.Wrapf(err, "remove %s on %s", name, from.Name()))
		}
	}
	log.Info("settings moved")
	return errors.Join(errs...)
}
