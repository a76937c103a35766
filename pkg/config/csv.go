package config

import (
	"encoding/csv"
	"fmt"
	"io"
	"time"
)

// IterationRecord is one row of the CSV output: the per-party resource,
// transport and on-chain accounting for a single simulation iteration.
// Fields follow the CSV header's column order (S = seller, B = buyer).
type IterationRecord struct {
	Start                time.Time
	SRealSeconds          float64
	BRealSeconds          float64
	SUserSeconds          float64
	BUserSeconds          float64
	SSysSeconds           float64
	BSysSeconds           float64
	SellerToBuyerBytes    int64
	BuyerToSellerBytes    int64
	SellerToBuyerObjects  int64
	BuyerToSellerObjects  int64
	STxCount              int
	BTxCount              int
	STxFeesGas            int64
	BTxFeesGas            int64
	SFundsDiffEth         float64
	BFundsDiffEth         float64
}

var csvHeader = []string{
	"Start", "S real", "B real", "S user", "B user", "S sys", "B sys",
	"S>B bytes", "B>S bytes", "S>B obj", "B>S obj",
	"S Tx Ct", "B Tx Ct", "S Tx Fees (Gas)", "B Tx Fees (Gas)",
	"S Funds Diff (Eth)", "B Funds Diff (Eth)",
}

// CSVWriter serializes IterationRecords to an io.Writer in the column
// order the reference implementation's `--output-csv` option produces.
type CSVWriter struct {
	w           *csv.Writer
	wroteHeader bool
}

// NewCSVWriter wraps dst in a buffered CSV writer. Callers must call
// Flush when done.
func NewCSVWriter(dst io.Writer) *CSVWriter {
	return &CSVWriter{w: csv.NewWriter(dst)}
}

// WriteRecord appends rec as the next row, writing the header first if
// this is the first call.
func (c *CSVWriter) WriteRecord(rec IterationRecord) error {
	if !c.wroteHeader {
		if err := c.w.Write(csvHeader); err != nil {
			return fmt.Errorf("config: write csv header: %w", err)
		}
		c.wroteHeader = true
	}
	row := []string{
		rec.Start.Format(time.RFC3339Nano),
		formatFloat(rec.SRealSeconds), formatFloat(rec.BRealSeconds),
		formatFloat(rec.SUserSeconds), formatFloat(rec.BUserSeconds),
		formatFloat(rec.SSysSeconds), formatFloat(rec.BSysSeconds),
		fmt.Sprintf("%d", rec.SellerToBuyerBytes), fmt.Sprintf("%d", rec.BuyerToSellerBytes),
		fmt.Sprintf("%d", rec.SellerToBuyerObjects), fmt.Sprintf("%d", rec.BuyerToSellerObjects),
		fmt.Sprintf("%d", rec.STxCount), fmt.Sprintf("%d", rec.BTxCount),
		fmt.Sprintf("%d", rec.STxFeesGas), fmt.Sprintf("%d", rec.BTxFeesGas),
		formatFloat(rec.SFundsDiffEth), formatFloat(rec.BFundsDiffEth),
	}
	return c.w.Write(row)
}

// Flush flushes any buffered rows to the underlying writer.
func (c *CSVWriter) Flush() error {
	c.w.Flush()
	return c.w.Error()
}

func formatFloat(f float64) string {
	return fmt.Sprintf("%.9f", f)
}
