package testkit

import (
	"bytes"
	"strings"
	"testing"

	"fraudlens/domain/dataset"
)

func TestFraudDataGenerator_Deterministic(t *testing.T) {
	config := DefaultFraudConfig()
	config.Transactions = 200

	a := NewFraudDataGenerator(config).Records()
	b := NewFraudDataGenerator(config).Records()
	if len(a) != 201 {
		t.Fatalf("expected header plus 200 rows, got %d", len(a))
	}
	for i := range a {
		if strings.Join(a[i], ",") != strings.Join(b[i], ",") {
			t.Fatalf("row %d differs between identical seeds", i)
		}
	}
}

func TestFraudDataGenerator_Dataset(t *testing.T) {
	config := DefaultFraudConfig()
	config.Transactions = 3000

	ds, err := NewFraudDataGenerator(config).Dataset("synthetic.csv")
	if err != nil {
		t.Fatalf("Failed to build dataset: %v", err)
	}
	if ds.TotalRecords != 3000 {
		t.Errorf("expected 3000 records, got %d", ds.TotalRecords)
	}
	for _, reserved := range []string{dataset.DefaultFraudFlagColumn, dataset.DefaultSessionIDColumn} {
		if ds.HasVariable(reserved) {
			t.Errorf("reserved column %s listed as a variable", reserved)
		}
	}

	series, err := ds.Series("amount")
	if err != nil {
		t.Fatalf("Failed to extract amount: %v", err)
	}
	if series.Len() == ds.TotalRecords {
		t.Error("expected some missing amounts to be dropped")
	}
	rate := series.FraudRate()
	if rate <= 0.01 || rate >= 0.5 {
		t.Errorf("fraud rate %.3f outside plausible range", rate)
	}

	fraud, legit := series.Split()
	if mean(fraud) <= mean(legit) {
		t.Errorf("fraudulent amounts should be larger on average: %.2f vs %.2f", mean(fraud), mean(legit))
	}
}

func TestFraudDataGenerator_WriteCSV(t *testing.T) {
	config := DefaultFraudConfig()
	config.Transactions = 5

	var buf bytes.Buffer
	if err := NewFraudDataGenerator(config).WriteCSV(&buf); err != nil {
		t.Fatalf("WriteCSV failed: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 6 {
		t.Fatalf("expected 6 lines, got %d", len(lines))
	}
	if lines[0] != strings.Join(FraudColumns, ",") {
		t.Errorf("unexpected header %q", lines[0])
	}
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
