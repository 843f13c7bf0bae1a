package diag

import "fmt"

type Code uint16

const (
	UnknownCode Code = 0

	// Манифест
	ManifestInfo           Code = 1000
	ManifestMissingProject Code = 1001
	ManifestBadCacheDir    Code = 1002
	ManifestUnknownKey     Code = 1003

	// Цели
	TargetInfo             Code = 2000
	TargetMissingAddress   Code = 2001
	TargetDuplicateAddress Code = 2002
	TargetUnknownKind      Code = 2003

	// Поля
	FieldInfo           Code = 3000
	FieldInvalidValue   Code = 3001
	FieldDuplicateKey   Code = 3002
	FieldBadRequirement Code = 3003
	FieldBadExclude     Code = 3004
	FieldBadArchive     Code = 3005
	FieldBadNativeLib   Code = 3006
	FieldEmptySetMember Code = 3007
)

var codeNames = map[Code]string{
	UnknownCode:            "unknown",
	ManifestInfo:           "manifest",
	ManifestMissingProject: "manifest-missing-project",
	ManifestBadCacheDir:    "manifest-bad-cache-dir",
	ManifestUnknownKey:     "manifest-unknown-key",
	TargetInfo:             "target",
	TargetMissingAddress:   "target-missing-address",
	TargetDuplicateAddress: "target-duplicate-address",
	TargetUnknownKind:      "target-unknown-kind",
	FieldInfo:              "field",
	FieldInvalidValue:      "field-invalid-value",
	FieldDuplicateKey:      "field-duplicate-key",
	FieldBadRequirement:    "field-bad-requirement",
	FieldBadExclude:        "field-bad-exclude",
	FieldBadArchive:        "field-bad-archive",
	FieldBadNativeLib:      "field-bad-native-library",
	FieldEmptySetMember:    "field-empty-set-member",
}

// String returns the stable identifier, e.g. "FH3001".
func (c Code) String() string {
	return fmt.Sprintf("FH%04d", uint16(c))
}

// Title returns the short kebab-case name of the code.
func (c Code) Title() string {
	if name, ok := codeNames[c]; ok {
		return name
	}
	return codeNames[UnknownCode]
}
