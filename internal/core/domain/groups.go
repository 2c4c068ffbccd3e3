package domain

// SecondaryGroup holds frequently changed preference bits. It is stored as
// a binary record on the medium selected by the CfgOnSD preference.
type SecondaryGroup struct {
	Brightness   uint16 `json:"brightness"`
	IRLocked     bool   `json:"ir_locked"`
	StrictMode   bool   `json:"strict_mode"`
	SAPeaks      bool   `json:"sa_peaks"`
	IRShowPosFB  bool   `json:"ir_show_pos_fb"`
	IRShowCmdFB  bool   `json:"ir_show_cmd_fb"`
	ShowUpdAvail bool   `json:"show_upd_avail"`
}

// MaxBrightness is the highest display brightness level.
const MaxBrightness = 15

// DefaultSecondary returns the compiled defaults.
func DefaultSecondary() SecondaryGroup {
	return SecondaryGroup{
		Brightness:   MaxBrightness,
		SAPeaks:      true,
		IRShowPosFB:  true,
		IRShowCmdFB:  true,
		ShowUpdAvail: true,
	}
}

// Sanitize clamps out-of-range values and reports whether any changed.
func (g *SecondaryGroup) Sanitize() bool {
	if g.Brightness > MaxBrightness {
		g.Brightness = MaxBrightness
		return true
	}
	return false
}

// TertiaryGroup holds boot and idle modes. It lives on the card only.
type TertiaryGroup struct {
	BootMode uint8 `json:"boot_mode"`
	IdleMode uint8 `json:"idle_mode"`
}

// MaxIdleMode is the highest valid idle pattern.
const MaxIdleMode = 4

// DefaultTertiary returns the compiled defaults.
func DefaultTertiary() TertiaryGroup {
	return TertiaryGroup{}
}

// Sanitize resets an unknown idle mode and reports whether it did.
func (g *TertiaryGroup) Sanitize() bool {
	if g.IdleMode > MaxIdleMode {
		g.IdleMode = 0
		return true
	}
	return false
}
