package bme280

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const readingType = "BME280"

// Sensor is polled by Server. *Dev implements it.
type Sensor interface {
	Refresh() error
	Sample() Sample
}

// Sink receives every successful reading.
type Sink interface {
	Write(ctx context.Context, r Reading) error
}

// ServerConfig configures a Server. Recorder and Sink are optional.
type ServerConfig struct {
	Interval time.Duration
	Location string
	Recorder *Recorder
	Sink     Sink
	Logger   logrus.FieldLogger
}

// Server polls a Sensor, fans the readings out to the recorder, the sink and
// websocket clients, and serves them over HTTP.
type Server struct {
	sensor   Sensor
	cfg      ServerConfig
	log      logrus.FieldLogger
	wsServer *WebSocketServer
	mux      *http.ServeMux
	now      func() time.Time

	mu     sync.Mutex
	latest *Reading
}

func NewServer(sensor Sensor, cfg ServerConfig) *Server {
	if cfg.Interval <= 0 {
		cfg.Interval = 15 * time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.StandardLogger()
	}
	s := &Server{
		sensor:   sensor,
		cfg:      cfg,
		log:      cfg.Logger,
		wsServer: NewWebSocketServer(cfg.Logger),
		mux:      http.NewServeMux(),
		now:      time.Now,
	}
	s.mux.HandleFunc("/latest", s.handleLatest)
	s.mux.HandleFunc("/recent", s.handleRecent)
	s.mux.HandleFunc("/history", s.handleHistory)
	s.mux.Handle("/ws", s.wsServer)
	return s
}

func (s *Server) Handler() http.Handler {
	return s.mux
}

// Run serves HTTP on l and polls the sensor until ctx is done.
func (s *Server) Run(ctx context.Context, l net.Listener) error {
	srv := &http.Server{Handler: s.mux}

	go s.wsServer.Run(ctx)
	go s.monitor(ctx)

	errc := make(chan error, 1)
	go func() {
		s.log.Infof("http server listening on %s", l.Addr())
		errc <- srv.Serve(l)
	}()

	select {
	case err := <-errc:
		return errors.Wrap(err, "http server failed")
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(err, "failed to shut down http server")
	}
	return nil
}

func (s *Server) monitor(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.Poll(ctx); err != nil {
				s.log.Errorf("error reading %s: %v", readingType, err)
			}
		}
	}
}

// Poll takes one reading and distributes it. A failed refresh leaves the
// latest reading untouched.
func (s *Server) Poll(ctx context.Context) error {
	if err := s.sensor.Refresh(); err != nil {
		return err
	}

	reading := Reading{
		Type:      readingType,
		Location:  s.cfg.Location,
		Timestamp: s.now().UnixMicro(),
		Sample:    s.sensor.Sample(),
	}

	s.mu.Lock()
	s.latest = &reading
	s.mu.Unlock()

	if s.cfg.Recorder != nil {
		if err := s.cfg.Recorder.AddReading(reading); err != nil {
			s.log.Errorf("error writing to database: %v", err)
		}
	}
	if s.cfg.Sink != nil {
		if err := s.cfg.Sink.Write(ctx, reading); err != nil {
			s.log.Errorf("error writing to sink: %v", err)
		}
	}
	s.wsServer.Broadcast(reading)
	return nil
}

func (s *Server) handleLatest(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	s.mu.Lock()
	latest := s.latest
	s.mu.Unlock()

	if latest == nil {
		http.Error(w, "No reading yet", http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, latest)
}

func (s *Server) handleRecent(w http.ResponseWriter, r *http.Request) {
	if s.cfg.Recorder == nil {
		http.Error(w, "Recording disabled", http.StatusNotFound)
		return
	}
	writeJSON(w, s.cfg.Recorder.Recent())
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if s.cfg.Recorder == nil {
		http.Error(w, "Recording disabled", http.StatusNotFound)
		return
	}

	start, err := strconv.ParseInt(r.URL.Query().Get("start"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid start", http.StatusBadRequest)
		return
	}
	end := s.now().UnixMicro()
	if v := r.URL.Query().Get("end"); v != "" {
		if end, err = strconv.ParseInt(v, 10, 64); err != nil {
			http.Error(w, "Invalid end", http.StatusBadRequest)
			return
		}
	}

	readings, err := s.cfg.Recorder.GetHistoricalData(start, end)
	if err != nil {
		s.log.Errorf("history query failed: %v", err)
		http.Error(w, "Failed to query history", http.StatusInternalServerError)
		return
	}
	writeJSON(w, readings)
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}
