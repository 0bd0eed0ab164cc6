package caseload

import (
	"fmt"
	"regexp"
)

// tableNamePattern is the identifier allow-list for derived table names.
// Table names come from untrusted file names and are interpolated into DDL
// (identifiers cannot be bound as parameters), so anything outside letters,
// digits, and underscore is rejected. Unicode letters are allowed because the
// archive ships files with Chinese base names.
var tableNamePattern = regexp.MustCompile(`^[\p{L}\p{N}_]+$`)

// routeTable maps a source file's base name to its destination table:
// the first prefixLen runes of the name as given, extension included.
// Deterministic and pure. No collision detection is performed; two file
// families sharing a prefix silently merge into one table.
func routeTable(baseName string, prefixLen int) (string, error) {
	if prefixLen <= 0 {
		prefixLen = DefaultTablePrefixLen
	}

	runes := []rune(baseName)
	if len(runes) > prefixLen {
		runes = runes[:prefixLen]
	}
	name := string(runes)

	if err := validateTableName(name); err != nil {
		return "", err
	}
	return name, nil
}

// validateTableName rejects identifiers outside the allow-list pattern.
func validateTableName(name string) error {
	if !tableNamePattern.MatchString(name) {
		return fmt.Errorf("%w: %q", ErrInvalidTableName, name)
	}
	return nil
}
