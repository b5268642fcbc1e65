package admission

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/deenmate/sync-core/pkg/log"
	"github.com/deenmate/sync-core/pkg/storage"
	"github.com/deenmate/sync-core/pkg/types"
)

// RequestLogger buffers request log entries on a channel and appends
// them from a single background goroutine, so a slow storage write
// never adds latency to the request it is logging.
type RequestLogger struct {
	gateway storage.RequestLog
	entries chan *types.RequestLogEntry
	done    chan struct{}
}

// NewRequestLogger starts the background writer. bufferSize bounds
// how many entries can be queued before Log starts dropping new ones
// rather than blocking the request path.
func NewRequestLogger(gateway storage.RequestLog, bufferSize int) *RequestLogger {
	l := &RequestLogger{
		gateway: gateway,
		entries: make(chan *types.RequestLogEntry, bufferSize),
		done:    make(chan struct{}),
	}
	go l.run()
	return l
}

// Log enqueues an entry for asynchronous persistence. If the buffer is
// full the entry is dropped and a warning is logged, since request
// logging must never backpressure the admission pipeline.
func (l *RequestLogger) Log(ip, method, path string, statusCode int, latency time.Duration, userAgent string) {
	e := &types.RequestLogEntry{
		ID:         uuid.New().String(),
		IP:         ip,
		Method:     method,
		Path:       path,
		StatusCode: statusCode,
		LatencyMs:  latency.Milliseconds(),
		UserAgent:  userAgent,
		ReceivedAt: time.Now(),
	}
	select {
	case l.entries <- e:
	default:
		log.Logger.Warn().Str("ip", ip).Str("path", path).Msg("request log buffer full, dropping entry")
	}
}

// Close stops accepting new entries and waits for the writer goroutine
// to drain what remains in the buffer.
func (l *RequestLogger) Close() {
	close(l.entries)
	<-l.done
}

func (l *RequestLogger) run() {
	defer close(l.done)
	ctx := context.Background()
	for e := range l.entries {
		if err := l.gateway.AppendRequestLog(ctx, e); err != nil {
			log.Logger.Warn().Err(err).Str("ip", e.IP).Msg("failed to persist request log entry")
		}
	}
}
