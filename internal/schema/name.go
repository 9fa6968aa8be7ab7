package schema

import (
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// StoragePrefix is prepended to every derived table name.
const StoragePrefix = "y_"

// StorageName derives the table name of a record type from its type name.
func StorageName(typeName string) string {
	return StoragePrefix + lower(typeName)
}

// lower applies Unicode lower casing. A Caser is not safe for concurrent use,
// so one is built per call.
func lower(s string) string {
	return cases.Lower(language.Und).String(s)
}
