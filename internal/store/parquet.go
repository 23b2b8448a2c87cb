package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/parquet-go/parquet-go"

	"pytrader/internal/domain"
)

// Compile-time interface check.
var _ QuoteLog = (*ParquetQuoteLog)(nil)

// ParquetQuoteLog implements QuoteLog using per-day Parquet files.
// Layout: <dataDir>/quotes/<YYYY-MM-DD>.parquet
type ParquetQuoteLog struct {
	DataDir string

	// Serialises read-merge-write cycles on the day files.
	mu sync.Mutex
}

// NewParquetQuoteLog creates a quote log rooted at the given data directory.
func NewParquetQuoteLog(dataDir string) *ParquetQuoteLog {
	return &ParquetQuoteLog{DataDir: dataDir}
}

// QuoteRecord is the Parquet schema for logged quotes.
type QuoteRecord struct {
	Symbol    string  `parquet:"symbol"`
	Timestamp int64   `parquet:"timestamp,timestamp(millisecond)"` // Unix ms
	AskPrice  float64 `parquet:"ask_price"`
	BidPrice  float64 `parquet:"bid_price"`
	AskSize   int64   `parquet:"ask_size"`
	BidSize   int64   `parquet:"bid_size"`
}

// AppendQuotes writes the given quotes to their day files, merging with any
// existing records and deduplicating by (symbol, timestamp).
func (l *ParquetQuoteLog) AppendQuotes(_ context.Context, quotes map[string]domain.Quote) error {
	if len(quotes) == 0 {
		return nil
	}

	// Group by quote date (a batch can straddle midnight).
	groups := make(map[string][]QuoteRecord)
	for _, q := range quotes {
		date := q.Timestamp.UTC().Format("2006-01-02")
		groups[date] = append(groups[date], QuoteRecord{
			Symbol:    q.Symbol,
			Timestamp: q.Timestamp.UnixMilli(),
			AskPrice:  q.AskPrice,
			BidPrice:  q.BidPrice,
			AskSize:   q.AskSize,
			BidSize:   q.BidSize,
		})
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	for date, records := range groups {
		path := l.quotePath(date)

		existing, _ := readParquetFile[QuoteRecord](path)
		merged := mergeQuoteRecords(existing, records)

		if err := writeParquetFile(path, merged); err != nil {
			return fmt.Errorf("writing quotes for %s: %w", date, err)
		}
	}
	return nil
}

// ReadQuotes returns all logged quotes for a date, sorted by timestamp.
func (l *ParquetQuoteLog) ReadQuotes(_ context.Context, date string) ([]domain.Quote, error) {
	path := l.quotePath(date)
	records, err := readParquetFile[QuoteRecord](path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading quotes for %s: %w", date, err)
	}

	quotes := make([]domain.Quote, 0, len(records))
	for _, r := range records {
		quotes = append(quotes, domain.Quote{
			Symbol:    r.Symbol,
			Timestamp: time.UnixMilli(r.Timestamp).UTC(),
			AskPrice:  r.AskPrice,
			BidPrice:  r.BidPrice,
			AskSize:   r.AskSize,
			BidSize:   r.BidSize,
		})
	}
	return quotes, nil
}

// quotePath returns the filesystem path for a day's quote file.
func (l *ParquetQuoteLog) quotePath(date string) string {
	return filepath.Join(l.DataDir, "quotes", date+".parquet")
}

func writeParquetFile[T any](path string, records []T) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return parquet.WriteFile(path, records)
}

func readParquetFile[T any](path string) ([]T, error) {
	rows, err := parquet.ReadFile[T](path)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// mergeQuoteRecords deduplicates quote records by (symbol, timestamp),
// preferring new records over existing ones. Results are sorted by
// timestamp, then symbol.
func mergeQuoteRecords(existing, incoming []QuoteRecord) []QuoteRecord {
	type key struct {
		symbol string
		ts     int64
	}
	seen := make(map[key]QuoteRecord, len(existing)+len(incoming))
	for _, r := range existing {
		seen[key{r.Symbol, r.Timestamp}] = r
	}
	for _, r := range incoming {
		seen[key{r.Symbol, r.Timestamp}] = r
	}

	merged := make([]QuoteRecord, 0, len(seen))
	for _, r := range seen {
		merged = append(merged, r)
	}
	sort.Slice(merged, func(i, j int) bool {
		if merged[i].Timestamp != merged[j].Timestamp {
			return merged[i].Timestamp < merged[j].Timestamp
		}
		return merged[i].Symbol < merged[j].Symbol
	})
	return merged
}
