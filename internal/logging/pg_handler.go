package logging

import (
	"context"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/ahmetcoskunkizilkaya/accounts-backend/internal/models"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const batchSize = 50

// PGHandler is an slog.Handler that batches ERROR+ records into system_logs.
type PGHandler struct {
	sink  *logSink
	attrs []slog.Attr
	group string
}

// logSink is shared by every handler derived through WithAttrs / WithGroup.
type logSink struct {
	db     *gorm.DB
	mu     sync.Mutex
	buffer []models.SystemLog
	ticker *time.Ticker
	done   chan struct{}
	wg     sync.WaitGroup
	once   sync.Once
}

func NewPGHandler(db *gorm.DB, interval time.Duration) *PGHandler {
	sink := &logSink{
		db:     db,
		buffer: make([]models.SystemLog, 0, batchSize),
		ticker: time.NewTicker(interval),
		done:   make(chan struct{}),
	}
	sink.wg.Add(1)
	go sink.flushLoop()
	return &PGHandler{sink: sink}
}

func (s *logSink) flushLoop() {
	defer s.wg.Done()
	for {
		select {
		case <-s.ticker.C:
			s.flush()
		case <-s.done:
			s.flush()
			return
		}
	}
}

func (s *logSink) flush() {
	s.mu.Lock()
	if len(s.buffer) == 0 {
		s.mu.Unlock()
		return
	}
	batch := s.buffer
	s.buffer = make([]models.SystemLog, 0, batchSize)
	s.mu.Unlock()

	if err := s.db.CreateInBatches(batch, batchSize).Error; err != nil {
		// not slog: an ERROR here would feed straight back into the buffer
		slog.Warn("failed to flush system logs", "error", err, "count", len(batch))
	}
}

func (s *logSink) add(entry models.SystemLog) {
	s.mu.Lock()
	s.buffer = append(s.buffer, entry)
	full := len(s.buffer) >= batchSize
	s.mu.Unlock()

	if full {
		go s.flush()
	}
}

// Stop flushes what is buffered and waits for the writer to exit.
func (h *PGHandler) Stop() {
	h.sink.once.Do(func() {
		h.sink.ticker.Stop()
		close(h.sink.done)
	})
	h.sink.wg.Wait()
}

// Enabled only handles ERROR and above.
func (h *PGHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= slog.LevelError
}

func (h *PGHandler) Handle(_ context.Context, record slog.Record) error {
	entry := models.SystemLog{
		ID:        uuid.New(),
		Timestamp: record.Time,
		Level:     record.Level.String(),
		Message:   record.Message,
	}

	extra := make(map[string]interface{})
	apply := func(key string, v slog.Value) {
		switch key {
		case "request_id":
			entry.RequestID = v.String()
		case "account_id":
			s := v.String()
			entry.AccountID = &s
		case "action":
			entry.Action = v.String()
		case "error":
			entry.Error = v.String()
		case "latency_ms":
			switch v.Kind() {
			case slog.KindFloat64:
				entry.LatencyMs = int(math.Round(v.Float64()))
			case slog.KindInt64:
				entry.LatencyMs = int(v.Int64())
			}
		default:
			extra[key] = v.Any()
		}
	}
	// bound attrs already carry the group that was open when they were added
	for _, a := range h.attrs {
		apply(a.Key, a.Value)
	}
	record.Attrs(func(a slog.Attr) bool {
		apply(qualify(h.group, a.Key), a.Value)
		return true
	})

	if len(extra) > 0 {
		if b, err := json.Marshal(extra); err == nil {
			entry.Extra = datatypes.JSON(b)
		}
	}

	h.sink.add(entry)
	return nil
}

func (h *PGHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	merged := make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	merged = append(merged, h.attrs...)
	for _, a := range attrs {
		merged = append(merged, slog.Attr{Key: qualify(h.group, a.Key), Value: a.Value})
	}
	return &PGHandler{sink: h.sink, attrs: merged, group: h.group}
}

func (h *PGHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	return &PGHandler{sink: h.sink, attrs: h.attrs, group: qualify(h.group, name)}
}

func qualify(group, key string) string {
	if group == "" {
		return key
	}
	return group + "." + key
}
