package ingest

import (
	"errors"
	"testing"
)

func TestParseFile_CSV(t *testing.T) {
	content := `transaction_id,date,department,amount
TX-1,2024-04-01,Public Works,9900
TX-2,2024-04-02,Health,12345.50`

	table, err := ParseFile([]byte(content), "ledger.csv")
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if len(table.Rows) != 2 {
		t.Fatalf("Expected 2 rows, got %d", len(table.Rows))
	}
	if len(table.Columns) != 4 {
		t.Fatalf("Expected 4 columns, got %d", len(table.Columns))
	}
	if table.Rows[1]["amount"] != "12345.50" {
		t.Errorf("Expected amount '12345.50', got '%s'", table.Rows[1]["amount"])
	}
	if table.Rows[0]["department"] != "Public Works" {
		t.Errorf("Expected department 'Public Works', got '%s'", table.Rows[0]["department"])
	}
}

func TestParseFile_CSVWhitespaceAndShortRows(t *testing.T) {
	content := "\ufeff transaction_id , amount , department\n TX-1 , 500 \n"

	table, err := ParseFile([]byte(content), "LEDGER.CSV")
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if !table.HasColumn("transaction_id") {
		t.Fatalf("Expected transaction_id column, got %v", table.Columns)
	}
	row := table.Rows[0]
	if row["transaction_id"] != "TX-1" || row["amount"] != "500" {
		t.Errorf("Expected trimmed values, got %v", row)
	}
	if row["department"] != "" {
		t.Errorf("Expected empty department, got '%s'", row["department"])
	}
}

func TestParseFile_JSONArray(t *testing.T) {
	content := `[{"transaction_id": "TX-1", "amount": 9900}, {"transaction_id": "TX-2", "amount": "0.05", "flagged": true}]`

	table, err := ParseFile([]byte(content), "ledger.json")
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if len(table.Rows) != 2 {
		t.Fatalf("Expected 2 rows, got %d", len(table.Rows))
	}
	if table.Rows[0]["amount"] != "9900" {
		t.Errorf("Expected amount '9900', got '%s'", table.Rows[0]["amount"])
	}
	if table.Rows[1]["flagged"] != "true" {
		t.Errorf("Expected flagged 'true', got '%s'", table.Rows[1]["flagged"])
	}
	want := []string{"amount", "flagged", "transaction_id"}
	for i, c := range want {
		if table.Columns[i] != c {
			t.Errorf("Expected column %d to be %s, got %s", i, c, table.Columns[i])
		}
	}
}

func TestParseFile_JSONWrapped(t *testing.T) {
	for _, key := range []string{"data", "records", "rows"} {
		content := `{"` + key + `": [{"district_name": "Gaya", "population_bpl": 100, "active_beneficiaries": 120}]}`

		table, err := ParseFile([]byte(content), "welfare.json")
		if err != nil {
			t.Fatalf("%s: expected no error, got: %v", key, err)
		}
		if len(table.Rows) != 1 || table.Rows[0]["district_name"] != "Gaya" {
			t.Errorf("%s: expected one Gaya row, got %v", key, table.Rows)
		}
	}
}

func TestParseFile_JSONSingleObject(t *testing.T) {
	table, err := ParseFile([]byte(`{"transaction_id": "TX-9", "amount": 1}`), "one.json")
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if len(table.Rows) != 1 {
		t.Fatalf("Expected 1 row, got %d", len(table.Rows))
	}
}

func TestParseFile_Errors(t *testing.T) {
	if _, err := ParseFile([]byte("  \n"), "empty.csv"); !errors.Is(err, ErrEmptyFile) {
		t.Errorf("Expected ErrEmptyFile, got %v", err)
	}
	if _, err := ParseFile([]byte("a,b"), "ledger.xlsx"); !errors.Is(err, ErrUnsupportedFileType) {
		t.Errorf("Expected ErrUnsupportedFileType, got %v", err)
	}
	if _, err := ParseFile([]byte("42"), "ledger.json"); err == nil {
		t.Error("Expected error for scalar JSON")
	}
	if _, err := ParseFile([]byte("[1, 2]"), "ledger.json"); err == nil {
		t.Error("Expected error for non-object rows")
	}
	if _, err := ParseFile([]byte(`a,"b`), "ledger.csv"); err == nil {
		t.Error("Expected error for malformed CSV")
	}
}

func TestChecksum(t *testing.T) {
	got := Checksum([]byte("abc"))
	want := "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad"
	if got != want {
		t.Errorf("Expected %s, got %s", want, got)
	}
}
