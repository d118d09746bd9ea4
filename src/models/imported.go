package models

// Standard field keys a report column can be mapped to.
const (
	FieldInterpreterID   = "interpreterId"
	FieldInterpreterName = "interpreterName"
	FieldMinutes         = "minutes"
	FieldHours           = "hours"
	FieldDate            = "date"
	FieldLanguagePair    = "languagePair"
	FieldRate            = "rate"
)

// StandardFields lists the 7 standard field keys in a fixed order.
var StandardFields = []string{
	FieldInterpreterID,
	FieldInterpreterName,
	FieldMinutes,
	FieldHours,
	FieldDate,
	FieldLanguagePair,
	FieldRate,
}

// ImportedRow is one parsed report row: report column name -> raw cell value.
// Rows only live for the duration of an import session.
type ImportedRow map[string]string

// ColumnMapping assigns standard field keys to report column names. Absent
// keys mean the field is unmapped; lookups through an unmapped field yield no
// value downstream rather than an error.
type ColumnMapping map[string]string
