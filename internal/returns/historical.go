package returns

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"
)

// ErrStartYearOutOfRange is returned for a backtest start year outside the dataset.
var ErrStartYearOutOfRange = errors.New("historical start year out of range")

// HistoricalRecord is one year of nominal annual returns and inflation.
type HistoricalRecord struct {
	Year      int     `json:"year"`
	Stocks    float64 `json:"stocks"`
	Bonds     float64 `json:"bonds"`
	Cash      float64 `json:"cash"`
	Inflation float64 `json:"inflation"`
}

// ColumnStatistics summarizes one dataset column.
type ColumnStatistics struct {
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	StdDev float64 `json:"std_dev"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
}

// HistoricalStatistics provides statistical summary of the dataset
type HistoricalStatistics struct {
	Stocks    ColumnStatistics `json:"stocks"`
	Bonds     ColumnStatistics `json:"bonds"`
	Cash      ColumnStatistics `json:"cash"`
	Inflation ColumnStatistics `json:"inflation"`
	Count     int              `json:"count"`
}

// Dataset is a contiguous run of annual records.
type Dataset struct {
	Name       string               `json:"name"`
	Records    []HistoricalRecord   `json:"records"`
	MinYear    int                  `json:"min_year"`
	MaxYear    int                  `json:"max_year"`
	Statistics HistoricalStatistics `json:"statistics"`
}

// LoadDatasetFile loads a dataset CSV from disk.
func LoadDatasetFile(filePath string) (*Dataset, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open file %s: %w", filePath, err)
	}
	defer file.Close()

	ds, err := ParseDataset(file, filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", filePath, err)
	}
	return ds, nil
}

// ParseDataset reads CSV with header year,stocks,bonds,cash,inflation. Values
// are annual fractions (0.07 = 7%). Years must be contiguous.
func ParseDataset(r io.Reader, name string) (*Dataset, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.Comment = '#'
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	if len(header) < 5 {
		return nil, fmt.Errorf("invalid CSV format: expected 5 columns, got %d", len(header))
	}

	var records []HistoricalRecord
	for line := 2; ; line++ {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read data row: %w", err)
		}
		if len(row) == 1 && strings.TrimSpace(row[0]) == "" {
			continue
		}
		rec, err := parseRecord(row)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		records = append(records, rec)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("no valid data points found in %s", name)
	}

	sort.Slice(records, func(i, j int) bool { return records[i].Year < records[j].Year })
	for i := 1; i < len(records); i++ {
		if records[i].Year != records[i-1].Year+1 {
			return nil, fmt.Errorf("dataset is not contiguous between %d and %d", records[i-1].Year, records[i].Year)
		}
	}

	return &Dataset{
		Name:       name,
		Records:    records,
		MinYear:    records[0].Year,
		MaxYear:    records[len(records)-1].Year,
		Statistics: calculateStatistics(records),
	}, nil
}

func parseRecord(row []string) (HistoricalRecord, error) {
	if len(row) < 5 {
		return HistoricalRecord{}, fmt.Errorf("expected 5 fields, got %d", len(row))
	}
	year, err := strconv.Atoi(strings.TrimSpace(row[0]))
	if err != nil {
		return HistoricalRecord{}, fmt.Errorf("invalid year %q", row[0])
	}
	values := make([]float64, 4)
	for i := range values {
		v, err := strconv.ParseFloat(strings.TrimSpace(row[i+1]), 64)
		if err != nil {
			return HistoricalRecord{}, fmt.Errorf("invalid value %q for %d", row[i+1], year)
		}
		values[i] = v
	}
	return HistoricalRecord{Year: year, Stocks: values[0], Bonds: values[1], Cash: values[2], Inflation: values[3]}, nil
}

// Len returns the number of years in the dataset.
func (ds *Dataset) Len() int {
	return len(ds.Records)
}

// Record returns the record for a year.
func (ds *Dataset) Record(year int) (HistoricalRecord, error) {
	if year < ds.MinYear || year > ds.MaxYear {
		return HistoricalRecord{}, fmt.Errorf("year %d not in %d-%d: %w", year, ds.MinYear, ds.MaxYear, ErrStartYearOutOfRange)
	}
	return ds.Records[year-ds.MinYear], nil
}

// Years lists every dataset year in order.
func (ds *Dataset) Years() []int {
	years := make([]int, len(ds.Records))
	for i, r := range ds.Records {
		years[i] = r.Year
	}
	return years
}

func calculateStatistics(records []HistoricalRecord) HistoricalStatistics {
	column := func(get func(HistoricalRecord) float64) ColumnStatistics {
		values := make([]float64, len(records))
		for i, r := range records {
			values[i] = get(r)
		}
		return summarize(values)
	}
	return HistoricalStatistics{
		Stocks:    column(func(r HistoricalRecord) float64 { return r.Stocks }),
		Bonds:     column(func(r HistoricalRecord) float64 { return r.Bonds }),
		Cash:      column(func(r HistoricalRecord) float64 { return r.Cash }),
		Inflation: column(func(r HistoricalRecord) float64 { return r.Inflation }),
		Count:     len(records),
	}
}

func summarize(values []float64) ColumnStatistics {
	if len(values) == 0 {
		return ColumnStatistics{}
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	sum := 0.0
	for _, v := range values {
		sum += v
	}
	mean := sum / float64(len(values))

	variance := 0.0
	for _, v := range values {
		variance += (v - mean) * (v - mean)
	}
	variance /= float64(len(values))

	n := len(sorted)
	median := sorted[n/2]
	if n%2 == 0 {
		median = (sorted[n/2-1] + sorted[n/2]) / 2
	}
	return ColumnStatistics{
		Mean:   mean,
		Median: median,
		StdDev: math.Sqrt(variance),
		Min:    sorted[0],
		Max:    sorted[n-1],
	}
}
