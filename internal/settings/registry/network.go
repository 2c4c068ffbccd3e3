package registry

import (
	"errors"

	"github.com/circuitsetup/sidconf/internal/core/domain"
	"github.com/circuitsetup/sidconf/internal/settings/migrate"
	"github.com/circuitsetup/sidconf/internal/storage/medium"
)

func (r *Registry) loadIPOverride() []migrate.Result {
	payload, m, err := r.loadBinary(domain.RecordIPOverride, medium.ClassFlashPreferred)
	switch {
	case errors.Is(err, domain.ErrRecordCorrupt):
		r.removeIPOverride()
		return nil
	case err != nil:
		return r.engine.Run(migrate.TargetIPOverride, r)
	}

	o, err := decodeIPOverride(payload)
	if err == nil {
		err = o.Validate()
	}
	if err != nil {
		r.logger.Warn("static address record invalid, deleting", "medium", m.Name(), "error", err)
		r.removeIPOverride()
		return nil
	}
	r.ip = o
	r.seed(domain.RecordIPOverride, payload)
	r.logger.Debug("static address loaded", "medium", m.Name(), "ip", o.IP)
	return nil
}

func (r *Registry) removeIPOverride() {
	r.ip = domain.IPOverride{}
	if err := r.removeFrom(domain.RecordIPOverride, medium.ClassFlashPreferred); err != nil {
		r.logger.Warn("deleting static address record failed", "error", err)
	}
}

// IPOverride returns the static network configuration. IsSet reports false
// when DHCP is used.
func (r *Registry) IPOverride() domain.IPOverride { return r.ip }

// SetIPOverride validates and stores o. An override without address
// deletes the stored one.
func (r *Registry) SetIPOverride(o domain.IPOverride) error {
	o = domain.IPOverride{
		IP:      clampText(o.IP),
		Gateway: clampText(o.Gateway),
		Netmask: clampText(o.Netmask),
		DNS:     clampText(o.DNS),
	}
	if !o.IsSet() {
		return r.DeleteIPOverride()
	}
	if err := o.Validate(); err != nil {
		return err
	}
	r.ip = o
	delete(r.pending, GroupIPOverride)
	return r.SaveIPOverride()
}

// SaveIPOverride writes the static network configuration unless it is
// unchanged. Nothing is written when no override is set.
func (r *Registry) SaveIPOverride() error {
	if !r.ip.IsSet() {
		return nil
	}
	payload, err := encodeIPOverride(r.ip)
	if err != nil {
		return err
	}
	_, err = r.saveBinary(domain.RecordIPOverride, medium.ClassFlashPreferred, payload, true)
	return err
}

// DeleteIPOverride removes the static network configuration, returning the
// device to DHCP.
func (r *Registry) DeleteIPOverride() error {
	r.ip = domain.IPOverride{}
	delete(r.pending, GroupIPOverride)
	return r.removeFrom(domain.RecordIPOverride, medium.ClassFlashPreferred)
}
