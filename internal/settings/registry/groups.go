package registry

import (
	"errors"
	"fmt"

	"github.com/circuitsetup/sidconf/internal/core/domain"
	"github.com/circuitsetup/sidconf/internal/settings/migrate"
	"github.com/circuitsetup/sidconf/internal/storage/hashcache"
	"github.com/circuitsetup/sidconf/internal/storage/medium"
)

func (r *Registry) loadSecondary() []migrate.Result {
	payload, m, err := r.loadBinary(domain.RecordSecondary, medium.ClassSelectable)
	if err == nil {
		g, partial, derr := decodeSecondary(payload)
		if derr == nil {
			sanitized := g.Sanitize()
			r.secondary = g
			r.haveSecondary = true
			if !partial && !sanitized {
				r.seed(domain.RecordSecondary, payload)
			}
			r.logger.Debug("secondary settings loaded", "medium", m.Name(), "partial", partial)
			return nil
		}
		r.logger.Warn("secondary settings undecodable", "error", derr)
	}

	r.secondary = domain.DefaultSecondary()
	return r.engine.Run(migrate.TargetSecondary, r)
}

func (r *Registry) loadTertiary() []migrate.Result {
	if !r.sel.HaveCard() {
		return nil
	}
	payload, m, err := r.loadBinary(domain.RecordTertiary, medium.ClassCardOnly)
	if err == nil {
		g, partial, derr := decodeTertiary(payload)
		if derr == nil {
			sanitized := g.Sanitize()
			r.tertiary = g
			r.haveTertiary = true
			if !partial && !sanitized {
				r.seed(domain.RecordTertiary, payload)
			}
			r.logger.Debug("tertiary settings loaded", "medium", m.Name(), "partial", partial)
			return nil
		}
		r.logger.Warn("tertiary settings undecodable", "error", derr)
	}

	r.tertiary = domain.DefaultTertiary()
	return r.engine.Run(migrate.TargetTertiary, r)
}

// seed records the hash of a payload just loaded.
func (r *Registry) seed(name string, payload []byte) {
	r.hashes.Seed(name, hashcache.Sum(payload))
}

func (r *Registry) saveSecondary(useCache bool) error {
	payload, err := encodeSecondary(r.secondary)
	if err != nil {
		return err
	}
	_, err = r.saveBinary(domain.RecordSecondary, medium.ClassSelectable, payload, useCache)
	return err
}

func (r *Registry) saveTertiary(useCache bool) error {
	payload, err := encodeTertiary(r.tertiary)
	if err != nil {
		return err
	}
	_, err = r.saveBinary(domain.RecordTertiary, medium.ClassCardOnly, payload, useCache)
	return err
}

// SaveSecondary writes the secondary group. With useCache set an unchanged
// group is not written.
func (r *Registry) SaveSecondary(useCache bool) error { return r.saveSecondary(useCache) }

// SaveTertiary writes the tertiary group. It needs a card.
func (r *Registry) SaveTertiary(useCache bool) error { return r.saveTertiary(useCache) }

// Secondary returns a copy of the secondary group.
func (r *Registry) Secondary() domain.SecondaryGroup { return r.secondary }

// Tertiary returns a copy of the tertiary group.
func (r *Registry) Tertiary() domain.TertiaryGroup { return r.tertiary }

// HaveSecondary reports whether the secondary group was loaded from storage.
func (r *Registry) HaveSecondary() bool { return r.haveSecondary }

// HaveTertiary reports whether the tertiary group was loaded from storage.
func (r *Registry) HaveTertiary() bool { return r.haveTertiary }

// UpdateSecondary applies every change made by fn and saves the group once.
func (r *Registry) UpdateSecondary(fn func(g *domain.SecondaryGroup)) error {
	fn(&r.secondary)
	r.secondary.Sanitize()
	delete(r.pending, GroupSecondary)
	return r.saveSecondary(true)
}

// StageSecondary applies fn and schedules a deferred save.
func (r *Registry) StageSecondary(fn func(g *domain.SecondaryGroup)) {
	fn(&r.secondary)
	r.secondary.Sanitize()
	r.ScheduleSave(GroupSecondary)
}

// UpdateTertiary applies every change made by fn and saves the group once.
func (r *Registry) UpdateTertiary(fn func(g *domain.TertiaryGroup)) error {
	prev := r.tertiary
	fn(&r.tertiary)
	if mode := r.tertiary.IdleMode; mode > domain.MaxIdleMode {
		r.tertiary = prev
		return domain.ErrFieldOutOfRange.WithDetails(fmt.Sprintf("idle mode %d above %d", mode, domain.MaxIdleMode))
	}
	delete(r.pending, GroupTertiary)
	return r.saveTertiary(true)
}

// StageTertiary applies fn and schedules a deferred save.
func (r *Registry) StageTertiary(fn func(g *domain.TertiaryGroup)) {
	prev := r.tertiary
	fn(&r.tertiary)
	if r.tertiary.IdleMode > domain.MaxIdleMode {
		r.tertiary.IdleMode = prev.IdleMode
	}
	r.ScheduleSave(GroupTertiary)
}

// Brightness returns the display brightness.
func (r *Registry) Brightness() int { return int(r.secondary.Brightness) }

// SetBrightness stores the display brightness, clamped to the valid range.
func (r *Registry) SetBrightness(v int) error {
	return r.UpdateSecondary(func(g *domain.SecondaryGroup) {
		g.Brightness = clampUint16(v)
	})
}

// IRLocked returns whether the remote control is locked.
func (r *Registry) IRLocked() bool { return r.secondary.IRLocked }

// SetIRLocked stores the remote control lock.
func (r *Registry) SetIRLocked(v bool) error {
	return r.UpdateSecondary(func(g *domain.SecondaryGroup) { g.IRLocked = v })
}

// StrictMode returns the strict mode flag.
func (r *Registry) StrictMode() bool { return r.secondary.StrictMode }

// SetStrictMode stores the strict mode flag.
func (r *Registry) SetStrictMode(v bool) error {
	return r.UpdateSecondary(func(g *domain.SecondaryGroup) { g.StrictMode = v })
}

// SAPeaks returns whether the spectrum analyzer shows peaks.
func (r *Registry) SAPeaks() bool { return r.secondary.SAPeaks }

// SetSAPeaks stores the spectrum analyzer peaks flag.
func (r *Registry) SetSAPeaks(v bool) error {
	return r.UpdateSecondary(func(g *domain.SecondaryGroup) { g.SAPeaks = v })
}

// IRShowPosFB returns whether accepted remote commands are acknowledged on
// the display.
func (r *Registry) IRShowPosFB() bool { return r.secondary.IRShowPosFB }

// SetIRShowPosFB stores the positive feedback flag.
func (r *Registry) SetIRShowPosFB(v bool) error {
	return r.UpdateSecondary(func(g *domain.SecondaryGroup) { g.IRShowPosFB = v })
}

// IRShowCmdFB returns whether command entry is echoed on the display.
func (r *Registry) IRShowCmdFB() bool { return r.secondary.IRShowCmdFB }

// SetIRShowCmdFB stores the command feedback flag.
func (r *Registry) SetIRShowCmdFB(v bool) error {
	return r.UpdateSecondary(func(g *domain.SecondaryGroup) { g.IRShowCmdFB = v })
}

// ShowUpdAvail returns whether an available update is announced at boot.
func (r *Registry) ShowUpdAvail() bool { return r.secondary.ShowUpdAvail }

// SetShowUpdAvail stores the update notification flag.
func (r *Registry) SetShowUpdAvail(v bool) error {
	return r.UpdateSecondary(func(g *domain.SecondaryGroup) { g.ShowUpdAvail = v })
}

// IdleMode returns the idle pattern.
func (r *Registry) IdleMode() int { return int(r.tertiary.IdleMode) }

// SetIdleMode stores the idle pattern. Modes above the maximum are rejected.
func (r *Registry) SetIdleMode(v int) error {
	if v < 0 || v > domain.MaxIdleMode {
		return domain.ErrFieldOutOfRange.WithDetails(fmt.Sprintf("idle mode %d not in 0-%d", v, domain.MaxIdleMode))
	}
	return r.UpdateTertiary(func(g *domain.TertiaryGroup) { g.IdleMode = uint8(v) })
}

// BootMode returns the display mode entered at boot. Without a card it is
// always 0.
func (r *Registry) BootMode() int {
	if !r.sel.HaveCard() {
		return 0
	}
	return int(r.tertiary.BootMode)
}

// SetBootMode stores the boot display mode.
func (r *Registry) SetBootMode(v uint8) error {
	return r.UpdateTertiary(func(g *domain.TertiaryGroup) { g.BootMode = v })
}

// IsUnavailable reports whether err only means that no medium could take
// the write.
func IsUnavailable(err error) bool {
	return errors.Is(err, domain.ErrMediumUnavailable)
}
