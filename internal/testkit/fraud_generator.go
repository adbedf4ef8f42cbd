package testkit

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"math/rand"
	"strconv"

	"fraudlens/domain/dataset"
)

// FraudGeneratorConfig configures the synthetic transaction generator
type FraudGeneratorConfig struct {
	Transactions  int     `json:"transactions"`
	BaseFraudRate float64 `json:"base_fraud_rate"`
	MissingRate   float64 `json:"missing_rate"`
	Seed          int64   `json:"seed"`
}

// DefaultFraudConfig returns sensible defaults for transaction generation
func DefaultFraudConfig() FraudGeneratorConfig {
	return FraudGeneratorConfig{
		Transactions:  5000,
		BaseFraudRate: 0.05,
		MissingRate:   0.02,
		Seed:          42,
	}
}

// Columns of a generated file, reserved columns first
var FraudColumns = []string{
	dataset.DefaultSessionIDColumn,
	dataset.DefaultFraudFlagColumn,
	"amount",
	"account_age_days",
	"hour_of_day",
	"items",
	"distance_km",
}

// FraudDataGenerator produces transaction tables where fraud concentrates in
// large amounts, young accounts and night-time hours
type FraudDataGenerator struct {
	config FraudGeneratorConfig
	rng    *rand.Rand
}

// NewFraudDataGenerator creates a new generator; identical configs yield
// identical tables
func NewFraudDataGenerator(config FraudGeneratorConfig) *FraudDataGenerator {
	return &FraudDataGenerator{
		config: config,
		rng:    rand.New(rand.NewSource(config.Seed)),
	}
}

// Records returns the header row followed by one row per transaction
func (g *FraudDataGenerator) Records() [][]string {
	records := make([][]string, 0, g.config.Transactions+1)
	records = append(records, append([]string(nil), FraudColumns...))
	for i := 0; i < g.config.Transactions; i++ {
		records = append(records, g.transaction(i))
	}
	return records
}

func (g *FraudDataGenerator) transaction(i int) []string {
	amount := math.Exp(g.rng.NormFloat64()*0.9 + 4)
	ageDays := math.Floor(g.rng.ExpFloat64() * 400)
	hour := g.rng.Intn(24)
	items := 1 + g.rng.Intn(8)
	distance := math.Abs(g.rng.NormFloat64() * 30)

	// log-odds shift over the base rate
	logit := math.Log(g.config.BaseFraudRate / (1 - g.config.BaseFraudRate))
	logit += 0.8 * (math.Log(amount) - 4)
	logit -= ageDays / 250
	if hour < 6 {
		logit += 1.2
	}
	logit += distance / 60
	fraud := 0
	if g.rng.Float64() < 1/(1+math.Exp(-logit)) {
		fraud = 1
	}

	return []string{
		fmt.Sprintf("sess_%06d", i+1),
		strconv.Itoa(fraud),
		g.maybeMissing(strconv.FormatFloat(math.Round(amount*100)/100, 'f', 2, 64)),
		g.maybeMissing(strconv.FormatFloat(ageDays, 'f', 0, 64)),
		g.maybeMissing(strconv.Itoa(hour)),
		g.maybeMissing(strconv.Itoa(items)),
		g.maybeMissing(strconv.FormatFloat(distance, 'f', 3, 64)),
	}
}

func (g *FraudDataGenerator) maybeMissing(cell string) string {
	if g.rng.Float64() >= g.config.MissingRate {
		return cell
	}
	if g.rng.Intn(2) == 0 {
		return ""
	}
	return "n/a"
}

// Dataset builds the generated table as an in-memory dataset
func (g *FraudDataGenerator) Dataset(name string) (*dataset.Dataset, error) {
	records := g.Records()
	headers := records[0]
	rows := make([]dataset.Row, 0, len(records)-1)
	for _, rec := range records[1:] {
		row := make(dataset.Row, len(headers))
		for j, h := range headers {
			row[h] = rec[j]
		}
		rows = append(rows, row)
	}
	return dataset.New(name, headers, rows, dataset.DefaultColumnMapping())
}

// WriteCSV writes the generated table as CSV
func (g *FraudDataGenerator) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.WriteAll(g.Records()); err != nil {
		return fmt.Errorf("failed to write CSV: %w", err)
	}
	return nil
}
