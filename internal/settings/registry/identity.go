package registry

import (
	"github.com/circuitsetup/sidconf/internal/core/domain"
	"github.com/circuitsetup/sidconf/internal/settings/migrate"
	"github.com/circuitsetup/sidconf/internal/storage/medium"
)

// loadIdentity loads the device identity, converting or generating one when
// none is stored. It reports whether a new identity was generated.
func (r *Registry) loadIdentity() (bool, []migrate.Result) {
	payload, m, err := r.loadBinary(domain.RecordIdentity, medium.ClassFlashPreferred)
	if err == nil {
		id, derr := decodeIdentity(payload)
		if derr == nil && id.Valid() {
			r.id = id
			r.seed(domain.RecordIdentity, payload)
			r.logger.Debug("identity loaded", "medium", m.Name(), "identity", id.String())
			if r.sel.ReadOnlyFlash() && m == r.sel.Flash() {
				// Carry the identity over to the card while flash is frozen.
				if err := r.saveIdentity(false); err != nil {
					r.logger.Warn("copying identity to card failed", "error", err)
				}
			}
			return false, nil
		}
		r.logger.Warn("stored identity invalid", "medium", m.Name())
	}

	results := r.engine.Run(migrate.TargetIdentity, r)
	if r.id.Valid() {
		return false, results
	}

	id, err := domain.NewDeviceIdentity(r.random)
	if err != nil {
		r.logger.Error("generating identity failed", "error", err)
		return false, results
	}
	r.id = id
	if err := r.saveIdentity(false); err != nil {
		r.logger.Error("saving identity failed", "error", err)
	}
	r.logger.Info("new device identity", "identity", id.String())
	return true, results
}

func (r *Registry) saveIdentity(useCache bool) error {
	payload, err := encodeIdentity(r.id)
	if err != nil {
		return err
	}
	_, err = r.saveBinary(domain.RecordIdentity, medium.ClassFlashPreferred, payload, useCache)
	return err
}

// Identity returns the device identity. It is zero before Boot.
func (r *Registry) Identity() domain.DeviceIdentity { return r.id }
