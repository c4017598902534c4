package s3

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/emiafrica/market-intel/internal/domain"
)

// exportBatch is how many ledger rows one store page carries.
const exportBatch = 5000

// Archiver serializes ledger rows to JSONL and uploads them under
// exports/price-history/{date}/. The ledger itself is never touched;
// exports exist for warehousing, not retention.
type Archiver struct {
	history domain.HistoryStore
	writer  domain.BlobWriter
	logger  *slog.Logger
}

// NewArchiver wires an Archiver.
func NewArchiver(history domain.HistoryStore, writer domain.BlobWriter, logger *slog.Logger) *Archiver {
	return &Archiver{history: history, writer: writer, logger: logger}
}

// ExportHistory pages through every row recorded before the cutoff,
// writes them as one JSONL object and returns the count and object path.
// Zero matching rows uploads nothing.
func (a *Archiver) ExportHistory(ctx context.Context, before time.Time) (int, string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)

	count := 0
	offset := 0
	for {
		points, err := a.history.ListBefore(ctx, before, domain.ListOpts{
			Limit:  exportBatch,
			Offset: offset,
		})
		if err != nil {
			return 0, "", fmt.Errorf("export: page history: %w", err)
		}
		for _, p := range points {
			if err := enc.Encode(newExportRow(p)); err != nil {
				return 0, "", fmt.Errorf("export: encode row %s: %w", p.ID, err)
			}
		}
		count += len(points)
		if len(points) < exportBatch {
			break
		}
		offset += exportBatch
	}

	if count == 0 {
		a.logger.Info("export skipped, no rows before cutoff", "before", before)
		return 0, "", nil
	}

	path := fmt.Sprintf("exports/price-history/%s/history-%s.jsonl",
		time.Now().UTC().Format("2006-01-02"),
		before.UTC().Format("20060102T150405Z"))

	if err := a.writer.Put(ctx, path, &buf, "application/x-ndjson"); err != nil {
		return 0, "", fmt.Errorf("export: upload: %w", err)
	}

	a.logger.Info("history exported", "rows", count, "path", path)
	return count, path, nil
}

// exportRow is the flat JSONL shape warehouse loaders expect.
type exportRow struct {
	ID         string    `json:"id"`
	ListingID  string    `json:"listing_id"`
	Seq        int64     `json:"seq"`
	Price      string    `json:"price"`
	Currency   string    `json:"currency"`
	RecordedAt time.Time `json:"recorded_at"`
}

func newExportRow(p domain.PricePoint) exportRow {
	return exportRow{
		ID:         p.ID,
		ListingID:  p.ListingID,
		Seq:        p.Seq,
		Price:      p.Price.String(),
		Currency:   p.Currency,
		RecordedAt: p.RecordedAt,
	}
}

var _ domain.Archiver = (*Archiver)(nil)
