package registry

import (
	"fmt"

	"github.com/circuitsetup/sidconf/internal/core/domain"
	"github.com/circuitsetup/sidconf/internal/settings/migrate"
	"github.com/circuitsetup/sidconf/internal/settings/validate"
	"github.com/circuitsetup/sidconf/internal/storage/medium"
)

// ApplyMigrated stores values converted from a legacy record and persists
// the affected group at once. A returned error keeps the legacy record for
// the next boot.
func (r *Registry) ApplyMigrated(target migrate.Target, values migrate.Values) error {
	switch target {
	case migrate.TargetIPOverride:
		o := domain.IPOverride{
			IP:      values[migrate.ValueIP],
			Gateway: values[migrate.ValueGateway],
			Netmask: values[migrate.ValueNetmask],
			DNS:     values[migrate.ValueDNS],
		}
		if err := o.Validate(); err != nil {
			r.logger.Warn("legacy static address invalid, dropping", "error", err)
			return nil
		}
		r.ip = o
		payload, err := encodeIPOverride(o)
		if err != nil {
			return err
		}
		_, err = r.saveBinary(domain.RecordIPOverride, medium.ClassFlashPreferred, payload, false)
		return err

	case migrate.TargetIdentity:
		v, ok := values.Uint32(migrate.ValueID)
		if !ok || v == 0 {
			return nil
		}
		r.id = domain.DeviceIdentity(v)
		return r.saveIdentity(false)

	case migrate.TargetSecondary:
		if v, ok := values.Int(migrate.ValueBrightness); ok {
			r.secondary.Brightness = clampUint16(v)
		}
		if v, ok := values[migrate.ValueIRLocked]; ok {
			r.secondary.IRLocked = validate.Bool(v)
		}
		r.secondary.Sanitize()
		r.haveSecondary = true
		return r.saveSecondary(false)

	case migrate.TargetTertiary:
		if v, ok := values.Int(migrate.ValueIdleMode); ok && v >= 0 && v <= domain.MaxIdleMode {
			r.tertiary.IdleMode = uint8(v)
		}
		r.haveTertiary = true
		if err := r.saveTertiary(false); err != nil {
			return err
		}
		if v, ok := values[migrate.ValueStrictMode]; ok {
			r.secondary.StrictMode = validate.Bool(v)
			return r.saveSecondary(true)
		}
		return nil
	}
	return fmt.Errorf("no sink for %s", target)
}
