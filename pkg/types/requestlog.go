package types

import "time"

// RequestLogEntry is an append-mostly record of one inbound HTTP
// request as observed by the admission pipeline (C3).
type RequestLogEntry struct {
	ID         string    `json:"id" db:"id"`
	IP         string    `json:"ip" db:"ip"`
	Method     string    `json:"method" db:"method"`
	Path       string    `json:"path" db:"path"`
	StatusCode int       `json:"statusCode" db:"status_code"`
	LatencyMs  int64     `json:"latencyMs" db:"latency_ms"`
	UserAgent  string    `json:"userAgent,omitempty" db:"user_agent"`
	ReceivedAt time.Time `json:"receivedAt" db:"received_at"`
}

// StatusIPBlocked is the synthetic status recorded for requests
// rejected at the IP-block stage, distinguishing them from ordinary
// 403s a handler might return.
const StatusIPBlocked = 1403

// ClientIPStat is maintained asynchronously by the admission pipeline,
// eventually consistent with the request log.
type ClientIPStat struct {
	IP               string    `json:"ip" db:"ip"`
	RequestCount     int64     `json:"requestCount" db:"request_count"`
	ErrorCount       int64     `json:"errorCount" db:"error_count"`
	LastRequestAt    time.Time `json:"lastRequestAt" db:"last_request_at"`
	Blocked          bool      `json:"blocked" db:"blocked"`
}

// ErrorRate returns the derived error rate in [0,1], or 0 if there have
// been no requests yet.
func (s *ClientIPStat) ErrorRate() float64 {
	if s.RequestCount == 0 {
		return 0
	}
	return float64(s.ErrorCount) / float64(s.RequestCount)
}
