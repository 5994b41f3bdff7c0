package unitconverter

import (
	"database/sql"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Record is one conversion as the user saw it. Output holds either the
// formatted number or the sentinel text.
type Record struct {
	ID        uuid.UUID
	Timestamp time.Time
	Input     string
	Category  string
	FromUnit  string
	ToUnit    string
	Output    string
}

// OK reports whether the conversion produced a number.
func (r Record) OK() bool {
	return r.Output != ErrInvalidInput.Error() && r.Output != ErrInvalidConversion.Error()
}

// History keeps a log of conversions, optionally mirrored to SQLite.
type History struct {
	records []Record
	mutex   sync.Mutex
	logs    []string
	db      *sql.DB
	logger  *slog.Logger
	now     func() time.Time
}

func NewHistory() *History {
	return &History{
		logger: slog.Default(),
		now:    time.Now,
	}
}

func (h *History) WithLogger(logger *slog.Logger) *History {
	h.logger = logger
	return h
}

// Convert runs the conversion and records it. The error is only non-nil
// when persisting fails; conversion failures are part of the record.
func (h *History) Convert(input, category, fromUnit, toUnit string) (Record, error) {
	rec := Record{
		ID:        uuid.New(),
		Timestamp: h.now(),
		Input:     input,
		Category:  category,
		FromUnit:  fromUnit,
		ToUnit:    toUnit,
		Output:    Convert(input, category, fromUnit, toUnit),
	}

	h.mutex.Lock()
	defer h.mutex.Unlock()

	if h.db != nil {
		if err := h.persistRecord(rec); err != nil {
			h.logger.Error("failed to persist conversion", "id", rec.ID, "error", err)
			return rec, err
		}
	}
	h.records = append(h.records, rec)
	h.logs = append(h.logs, "Conversion "+rec.ID.String()+" recorded")
	h.logger.Debug("conversion recorded",
		"id", rec.ID,
		"category", category,
		"from", fromUnit,
		"to", toUnit,
		"output", rec.Output,
	)
	return rec, nil
}

// Records returns a copy of the log ordered by timestamp.
func (h *History) Records() []Record {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	out := append([]Record(nil), h.records...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.Before(out[j].Timestamp)
	})
	return out
}

func (h *History) Clear() error {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	if h.db != nil {
		if err := h.deleteRecords(); err != nil {
			return err
		}
	}
	h.records = nil
	h.logs = append(h.logs, "History cleared")
	return nil
}

func (h *History) GetLogs() []string {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	return append([]string(nil), h.logs...) // return a copy
}

func (h *History) Close() error {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	if h.db == nil {
		return nil
	}
	err := h.db.Close()
	h.db = nil
	return err
}
