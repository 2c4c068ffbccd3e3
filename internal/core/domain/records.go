package domain

// Record names as stored on a medium.
const (
	RecordPrimary     = "sidconfig.json"
	RecordSecondary   = "sid2cfg"
	RecordTertiary    = "sid3cfg"
	RecordIPOverride  = "sidipcfg"
	RecordIdentity    = "sidid"
	RecordLearnedKeys = "sidirkeys.json"
)

// Marker files.
const (
	// MarkerFlashReadOnly on the card switches the device to read-only-flash mode.
	MarkerFlashReadOnly = "SID_FLASH_RO"

	// MarkerForeignFS on flash indicates a file system left by other firmware.
	MarkerForeignFS = "VER"
)

// Legacy record names, superseded by the records above.
const (
	LegacyIPOverride  = "sidipcfg.json"
	LegacyIdentity    = "sidid.json"
	LegacyBrightness  = "sidbricfg.json"
	LegacyIRLock      = "sidirlcfg.json"
	LegacyIdlePattern = "sidipat.json"
)

// LegacyRecords lists every obsolete record name.
func LegacyRecords() []string {
	return []string{
		LegacyIPOverride,
		LegacyIdentity,
		LegacyBrightness,
		LegacyIRLock,
		LegacyIdlePattern,
	}
}
