package monitoring

import (
	"sync"
	"time"

	"github.com/tr1v3r/pkg/log"
)

// Metrics tracks basic protocol engine metrics
type Metrics struct {
	mu sync.RWMutex

	// Discovery metrics
	SSDPSearchesTotal int64
	ServersFoundTotal int64

	// SOAP metrics
	SOAPRequestsTotal int64
	SOAPErrorsTotal   int64

	// Stream metrics
	ProtocolErrorsTotal  int64
	BytesDownloadedTotal int64

	startTime time.Time
}

var (
	globalMetrics *Metrics
	metricsOnce   sync.Once
)

// GetMetrics returns the global metrics instance
func GetMetrics() *Metrics {
	metricsOnce.Do(func() {
		globalMetrics = &Metrics{startTime: time.Now()}
	})
	return globalMetrics
}

// RecordSearch records an SSDP search pass
func (m *Metrics) RecordSearch() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.SSDPSearchesTotal++
}

// RecordServerFound records a newly discovered server
func (m *Metrics) RecordServerFound() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.ServersFoundTotal++
}

// RecordSOAPRequest records an outgoing SOAP request
func (m *Metrics) RecordSOAPRequest() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.SOAPRequestsTotal++
}

// RecordSOAPError records a failed SOAP exchange
func (m *Metrics) RecordSOAPError() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.SOAPErrorsTotal++
}

// RecordProtocolError records a wire-format violation
func (m *Metrics) RecordProtocolError() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.ProtocolErrorsTotal++
}

// RecordDownloadedBytes records streamed body bytes
func (m *Metrics) RecordDownloadedBytes(n int64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.BytesDownloadedTotal += n
}

// GetUptime returns the application uptime
func (m *Metrics) GetUptime() time.Duration {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return time.Since(m.startTime)
}

// LogMetrics logs current metrics
func (m *Metrics) LogMetrics() {
	m.mu.RLock()
	defer m.mu.RUnlock()

	log.Info("Session metrics uptime=%s ssdp_searches_total=%d servers_found_total=%d soap_requests_total=%d soap_errors_total=%d protocol_errors_total=%d bytes_downloaded_total=%d",
		time.Since(m.startTime).String(),
		m.SSDPSearchesTotal,
		m.ServersFoundTotal,
		m.SOAPRequestsTotal,
		m.SOAPErrorsTotal,
		m.ProtocolErrorsTotal,
		m.BytesDownloadedTotal)
}
