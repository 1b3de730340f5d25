package ingest

import (
	"fmt"
	"sort"
)

// DataType selects how an uploaded dataset is processed.
type DataType string

const (
	DataTypeTraining DataType = "training"
	DataTypeFiscal   DataType = "fiscal"
	DataTypeWelfare  DataType = "welfare"
)

// DataTypes lists the accepted data types.
var DataTypes = []DataType{DataTypeTraining, DataTypeFiscal, DataTypeWelfare}

var requiredColumns = map[DataType][]string{
	DataTypeTraining: {"contract_title", "final_price", "audit_outcome"},
	DataTypeFiscal:   {"transaction_id", "amount"},
	DataTypeWelfare:  {"district_name", "population_bpl", "active_beneficiaries"},
}

var labels = map[DataType]string{
	DataTypeTraining: "training data",
	DataTypeFiscal:   "fiscal logs",
	DataTypeWelfare:  "welfare stats",
}

// InvalidDataTypeError is returned for an unknown data_type value.
type InvalidDataTypeError struct {
	Value string
}

func (e *InvalidDataTypeError) Error() string {
	return fmt.Sprintf("Invalid data_type '%s'. Must be one of: %v", e.Value, DataTypes)
}

// MissingColumnsError is returned when a dataset lacks columns its type requires.
type MissingColumnsError struct {
	Label   string
	Missing []string
	Found   []string
}

func (e *MissingColumnsError) Error() string {
	return fmt.Sprintf("Missing required columns for %s: %v. Found columns: %v", e.Label, e.Missing, e.Found)
}

// ParseDataType validates a data_type form value.
func ParseDataType(s string) (DataType, error) {
	for _, dt := range DataTypes {
		if string(dt) == s {
			return dt, nil
		}
	}
	return "", &InvalidDataTypeError{Value: s}
}

// RequiredColumns returns the columns a dataset of the given type must have.
func RequiredColumns(dt DataType) []string {
	return append([]string(nil), requiredColumns[dt]...)
}

// ValidateColumns checks that the table has every column required for the data type.
func ValidateColumns(table *Table, dt DataType) error {
	var missing []string
	for _, col := range requiredColumns[dt] {
		if !table.HasColumn(col) {
			missing = append(missing, col)
		}
	}
	if len(missing) == 0 {
		return nil
	}

	found := append([]string(nil), table.Columns...)
	sort.Strings(missing)
	sort.Strings(found)
	return &MissingColumnsError{Label: labels[dt], Missing: missing, Found: found}
}
