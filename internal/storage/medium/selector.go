package medium

import (
	"fmt"
	"log/slog"

	"github.com/circuitsetup/sidconf/internal/core/domain"
)

// Class groups records by their medium policy.
type Class int

const (
	// ClassPrimary is the primary configuration document. It lives on flash
	// unless flash is read-only.
	ClassPrimary Class = iota

	// ClassSelectable records follow the "store on card" preference.
	ClassSelectable

	// ClassCardOnly records are only ever kept on the card.
	ClassCardOnly

	// ClassFlashPreferred records live on flash unless flash is read-only.
	ClassFlashPreferred
)

// String returns the class name.
func (c Class) String() string {
	switch c {
	case ClassPrimary:
		return "primary"
	case ClassSelectable:
		return "selectable"
	case ClassCardOnly:
		return "card-only"
	case ClassFlashPreferred:
		return "flash-preferred"
	default:
		return fmt.Sprintf("class(%d)", int(c))
	}
}

// MountReport describes the outcome of Selector.Mount.
type MountReport struct {
	Flash bool
	Card  bool

	// FlashFormatted is set when flash failed to mount and was formatted.
	FlashFormatted bool

	// ReadOnlyFlash is set when flash is treated as reference only.
	ReadOnlyFlash bool

	// ForeignFS is set when writable flash carries the foreign file system
	// marker.
	ForeignFS bool
}

// Selector decides which medium each record class is read from and written
// to.
type Selector struct {
	flash  Medium
	card   Medium
	logger *slog.Logger

	haveFlash  bool
	haveCard   bool
	readOnly   bool
	preferCard bool
}

// NewSelector creates a selector over the flash and card media. Either may
// be an absent medium; neither may be nil.
func NewSelector(flash, card Medium, logger *slog.Logger) *Selector {
	if logger == nil {
		logger = slog.Default()
	}
	return &Selector{flash: flash, card: card, logger: logger}
}

// Mount mounts both media and determines the operating mode.
//
// Flash that fails to mount is formatted and mounted again. The card is
// optional. Flash becomes read-only when the card carries the read-only
// marker or when flash is unusable. The foreign file system marker is only
// reported; the caller formats flash once it has read what it needs.
func (s *Selector) Mount() MountReport {
	var rep MountReport

	if err := s.flash.Mount(); err != nil {
		s.logger.Warn("flash mount failed, formatting", "error", err)
		if ferr := s.flash.Format(); ferr != nil {
			s.logger.Error("flash format failed", "error", ferr)
		} else {
			rep.FlashFormatted = true
		}
	}
	s.haveFlash = s.flash.Available()

	if err := s.card.Mount(); err != nil {
		s.logger.Info("no card", "error", err)
	}
	s.haveCard = s.card.Available()

	if s.haveCard && s.card.Exists(domain.MarkerFlashReadOnly) {
		s.logger.Info("card requests read-only flash")
		s.readOnly = true
	}
	if !s.haveFlash {
		s.readOnly = true
	}

	if s.haveFlash && !s.readOnly && s.flash.Exists(domain.MarkerForeignFS) {
		s.logger.Warn("foreign file system marker on flash")
		rep.ForeignFS = true
	}

	rep.Flash = s.haveFlash
	rep.Card = s.haveCard
	rep.ReadOnlyFlash = s.readOnly

	s.logger.Info("media mounted",
		"flash", rep.Flash,
		"card", rep.Card,
		"read_only_flash", rep.ReadOnlyFlash,
		"flash_formatted", rep.FlashFormatted)
	return rep
}

// Flash returns the internal medium.
func (s *Selector) Flash() Medium { return s.flash }

// Card returns the removable medium.
func (s *Selector) Card() Medium { return s.card }

// HaveFlash reports whether flash is mounted.
func (s *Selector) HaveFlash() bool { return s.haveFlash }

// HaveCard reports whether a card is mounted.
func (s *Selector) HaveCard() bool { return s.haveCard }

// ReadOnlyFlash reports whether flash is reference only.
func (s *Selector) ReadOnlyFlash() bool { return s.readOnly }

// Available reports whether any medium is usable.
func (s *Selector) Available() bool { return s.haveFlash || s.haveCard }

// SetCardPreference records the user's "store secondary settings on card"
// choice.
func (s *Selector) SetCardPreference(pref bool) { s.preferCard = pref }

// CardPreference returns the recorded preference.
func (s *Selector) CardPreference() bool { return s.preferCard }

// SelectableOnCard reports whether selectable records currently live on the
// card.
func (s *Selector) SelectableOnCard() bool {
	return s.haveCard && (s.preferCard || s.readOnly)
}

func (s *Selector) flashIfUsable() Medium {
	if s.haveFlash {
		return s.flash
	}
	return nil
}

func (s *Selector) cardIfUsable() Medium {
	if s.haveCard {
		return s.card
	}
	return nil
}

// WriteTarget returns the medium records of class c are written to. It
// returns an error wrapping ErrUnavailable when no medium qualifies.
func (s *Selector) WriteTarget(c Class) (Medium, error) {
	var m Medium
	switch c {
	case ClassPrimary, ClassFlashPreferred:
		if s.readOnly {
			m = s.cardIfUsable()
		} else {
			m = s.flashIfUsable()
		}
	case ClassSelectable:
		if s.SelectableOnCard() {
			m = s.card
		} else if !s.readOnly {
			m = s.flashIfUsable()
		}
	case ClassCardOnly:
		m = s.cardIfUsable()
	}
	if m == nil {
		return nil, fmt.Errorf("%s record: %w", c, ErrUnavailable)
	}
	return m, nil
}

// ReadOrder returns the media records of class c are read from, in order.
// For ClassPrimary in read-only mode the card copy overlays the flash copy;
// In read-only mode flash-preferred records are read from the card first and
// fall back to flash, so records written before the switch stay visible.
// For other classes the first medium holding a valid record wins.
func (s *Selector) ReadOrder(c Class) []Medium {
	var order []Medium
	add := func(m Medium) {
		if m != nil {
			order = append(order, m)
		}
	}

	switch c {
	case ClassPrimary:
		add(s.flashIfUsable())
		if s.readOnly {
			add(s.cardIfUsable())
		}
	case ClassSelectable:
		if s.SelectableOnCard() {
			add(s.card)
		}
		add(s.flashIfUsable())
	case ClassCardOnly:
		add(s.cardIfUsable())
	case ClassFlashPreferred:
		if s.readOnly {
			add(s.cardIfUsable())
		}
		add(s.flashIfUsable())
	}
	return order
}

// Mounted returns every usable medium, flash first.
func (s *Selector) Mounted() []Medium {
	var all []Medium
	if m := s.flashIfUsable(); m != nil {
		all = append(all, m)
	}
	if m := s.cardIfUsable(); m != nil {
		all = append(all, m)
	}
	return all
}

// FormatFlash erases flash. It is refused in read-only mode.
func (s *Selector) FormatFlash() error {
	if s.readOnly {
		return fmt.Errorf("format flash: %w", ErrReadOnly)
	}
	if err := s.flash.Format(); err != nil {
		return err
	}
	s.haveFlash = s.flash.Available()
	return nil
}

// Unmount unmounts both media.
func (s *Selector) Unmount() error {
	var firstErr error
	for _, m := range []Medium{s.card, s.flash} {
		if err := m.Unmount(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	s.haveFlash = false
	s.haveCard = false
	return firstErr
}
