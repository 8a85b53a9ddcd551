// Package telemetry exposes a sensor.DataSource and its orientation.History
// over HTTP: a JSON snapshot of the current orientation, a CSV or JSON
// snapshot of the retained history, and an SSE stream of live updates.
//
// The SSE broadcast loop uses a buffered-channel-per-client registry guarded
// by one mutex and a sync.Pool-backed SSE frame builder, with a
// "snapshot on connect, then drain the channel" handler shape — driven by
// DataSource publish events rather than a polling ticker, since the sensor
// feed here is push-based.
package telemetry

import (
	"bufio"
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"sync"

	fiber "github.com/gofiber/fiber/v3"
	recovermiddleware "github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/gofiber/schema"
	"github.com/google/uuid"

	"github.com/kauailabs/sf2go/pkg/log"
	"github.com/kauailabs/sf2go/pkg/orientation"
	"github.com/kauailabs/sf2go/pkg/quantity"
	"github.com/kauailabs/sf2go/pkg/sensor"
	"github.com/kauailabs/sf2go/pkg/timestamp"
)

const sseBufSize = 4

// historyQuery binds the /api/history query string via gofiber/schema
// instead of reading c.Query by hand, matching how fiber-family services in
// the pack bind request parameters to structs.
type historyQuery struct {
	Format string `schema:"format"`
}

// queryValues adapts fasthttp's query-arg representation to the
// map[string][]string gofiber/schema's Decoder expects: fiber v3's own
// c.Queries() returns map[string]string, one value per key, which doesn't
// fit a decoder built around repeatable query parameters.
func queryValues(c fiber.Ctx) map[string][]string {
	args := c.RequestCtx().QueryArgs()
	values := make(map[string][]string, args.Len())
	args.VisitAll(func(key, value []byte) {
		k := string(key)
		values[k] = append(values[k], string(value))
	})
	return values
}

// orientationSnapshot is the JSON shape served by /api/orientation and
// streamed over /events.
type orientationSnapshot struct {
	ProcessorTS int64   `json:"processor_ts_ns"`
	Yaw         float64 `json:"yaw_deg"`
	Pitch       float64 `json:"pitch_deg"`
	Roll        float64 `json:"roll_deg"`
}

// Server encapsulates the Fiber app, the SSE client registry, and the
// orientation history it serves. It is safe for concurrent use.
type Server struct {
	app     *fiber.App
	source  *sensor.DataSource
	history *orientation.History
	subID   uuid.UUID

	yawIdx, pitchIdx, rollIdx int

	ssesMu  sync.Mutex
	clients map[chan []byte]struct{}

	decoder *schema.Decoder
}

// New constructs a Server bound to source and hist, and subscribes itself
// to source so every publish is broadcast to connected SSE clients.
func New(source *sensor.DataSource, hist *orientation.History) *Server {
	infos := source.DataSourceInfos()
	s := &Server{
		source:   source,
		history:  hist,
		subID:    uuid.New(),
		yawIdx:   sensor.IndexOf(infos, "Yaw"),
		pitchIdx: sensor.IndexOf(infos, "Pitch"),
		rollIdx:  sensor.IndexOf(infos, "Roll"),
		clients:  make(map[chan []byte]struct{}),
		decoder:  schema.NewDecoder(),
	}

	app := fiber.New(fiber.Config{
		ServerHeader: "sf2-telemetryd",
	})
	app.Use(recovermiddleware.New())

	app.Get("/api/orientation", s.handleOrientation)
	app.Get("/api/history", s.handleHistory)
	app.Get("/events", s.handleSSE)

	s.app = app
	source.Subscribe(s.subID, s)
	return s
}

// Run starts the HTTP listener and blocks until ctx is canceled.
func (s *Server) Run(ctx context.Context, addr string) error {
	go func() {
		<-ctx.Done()
		s.source.Unsubscribe(s.subID)
		_ = s.app.Shutdown()
	}()
	log.Logger.Info().Str("addr", addr).Msg("telemetry server listening")
	return s.app.Listen(addr)
}

// Publish implements sensor.Subscriber: it broadcasts every published
// sample to connected SSE clients. Called with the DataSource's subscriber
// lock held, so it must not block.
func (s *Server) Publish(quantities []quantity.Quantity, processorTS timestamp.Timestamp) {
	snap := s.snapshotFrom(quantities, processorTS)
	payload, err := json.Marshal(snap)
	if err != nil {
		return
	}
	event := buildSSEEvent(payload)

	s.ssesMu.Lock()
	defer s.ssesMu.Unlock()
	for ch := range s.clients {
		select {
		case ch <- event:
		default:
		}
	}
}

func (s *Server) snapshotFrom(quantities []quantity.Quantity, processorTS timestamp.Timestamp) orientationSnapshot {
	var snap orientationSnapshot
	snap.ProcessorTS = processorTS.Nanoseconds()
	if s.yawIdx >= 0 {
		if v, ok := quantities[s.yawIdx].(*quantity.Scalar); ok {
			snap.Yaw = float64(v.Value)
		}
	}
	if s.pitchIdx >= 0 {
		if v, ok := quantities[s.pitchIdx].(*quantity.Scalar); ok {
			snap.Pitch = float64(v.Value)
		}
	}
	if s.rollIdx >= 0 {
		if v, ok := quantities[s.rollIdx].(*quantity.Scalar); ok {
			snap.Roll = float64(v.Value)
		}
	}
	return snap
}

var sseBufPool = sync.Pool{New: func() any { b := make([]byte, 0, 256); return &b }}

func buildSSEEvent(payload []byte) []byte {
	buf := sseBufPool.Get().(*[]byte)
	*buf = (*buf)[:0]
	*buf = append(*buf, "retry: 2000\ndata: "...)
	*buf = append(*buf, payload...)
	*buf = append(*buf, "\n\n"...)
	out := make([]byte, len(*buf))
	copy(out, *buf)
	sseBufPool.Put(buf)
	return out
}

func (s *Server) handleOrientation(c fiber.Ctx) error {
	var quantities [5]quantity.Quantity
	var ts timestamp.Timestamp
	if !s.source.Current(quantities[:], &ts) {
		return fiber.NewError(fiber.StatusServiceUnavailable, "sensor not connected")
	}
	snap := s.snapshotFrom(quantities[:], ts)
	c.Set("Content-Type", "application/json; charset=utf-8")
	b, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	return c.Send(b)
}

// handleHistory serves the retained orientation history as CSV (the
// native export format, per the history package's SnapshotToWriter) or, if
// ?format=json is given, the same CSV re-parsed into a JSON array — the
// same round trip the history's invariants are tested against.
func (s *Server) handleHistory(c fiber.Ctx) error {
	var q historyQuery
	if err := s.decoder.Decode(&q, queryValues(c)); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid query parameters")
	}

	var buf bytes.Buffer
	if err := s.history.WriteSnapshot(&buf); err != nil {
		return err
	}

	if q.Format != "json" {
		c.Set("Content-Type", "text/csv; charset=utf-8")
		return c.Send(buf.Bytes())
	}

	rows, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		return err
	}
	var records []map[string]string
	if len(rows) > 0 {
		header := rows[0]
		for _, row := range rows[1:] {
			rec := make(map[string]string, len(header))
			for i, field := range row {
				if i < len(header) {
					rec[header[i]] = field
				}
			}
			records = append(records, rec)
		}
	}
	c.Set("Content-Type", "application/json; charset=utf-8")
	b, err := json.Marshal(records)
	if err != nil {
		return err
	}
	return c.Send(b)
}

func (s *Server) handleSSE(c fiber.Ctx) error {
	c.Set("Content-Type", "text/event-stream")
	c.Set("Cache-Control", "no-cache")
	c.Set("Connection", "keep-alive")
	c.Set("X-Accel-Buffering", "no")

	ch := make(chan []byte, sseBufSize)

	s.ssesMu.Lock()
	s.clients[ch] = struct{}{}
	s.ssesMu.Unlock()

	c.RequestCtx().SetBodyStreamWriter(func(w *bufio.Writer) {
		defer func() {
			s.ssesMu.Lock()
			delete(s.clients, ch)
			s.ssesMu.Unlock()
		}()

		if q, ok := s.history.MostRecentQuaternion(); ok {
			yaw, pitch, roll := q.YawPitchRollRadians()
			snap := orientationSnapshot{
				Yaw:   yaw * 180 / 3.14159265358979323846,
				Pitch: pitch * 180 / 3.14159265358979323846,
				Roll:  roll * 180 / 3.14159265358979323846,
			}
			if payload, err := json.Marshal(snap); err == nil {
				if _, err := w.Write(buildSSEEvent(payload)); err != nil {
					return
				}
				_ = w.Flush()
			}
		}

		for event := range ch {
			if _, err := w.Write(event); err != nil {
				return
			}
			if err := w.Flush(); err != nil {
				return
			}
		}
	})
	return nil
}
