package transport

import (
	"hush/internal/log"
)

// LoggingTransport implements the Transport interface by logging frames at
// debug level.
type LoggingTransport struct{}

// NewLoggingTransport creates a new LoggingTransport instance.
func NewLoggingTransport() *LoggingTransport {
	log.Component("transport").Info("using logging transport")
	return &LoggingTransport{}
}

// Send logs the received data. It never fails.
func (lt *LoggingTransport) Send(data any) error {
	entry := log.Component("transport")
	if f, ok := data.(Frame); ok {
		entry.WithFields(log.Fields{
			"seq":    f.Sequence,
			"active": f.Active,
			"in":     f.InputLevel,
			"out":    f.OutputLevel,
			"mix":    f.Strength,
			"xruns":  f.XRuns,
		}).Debug("frame")
		return nil
	}
	entry.Debugf("received %T: %+v", data, data)
	return nil
}

// Close is a no-op for LoggingTransport.
func (lt *LoggingTransport) Close() error {
	return nil
}

// Ensure LoggingTransport satisfies the interface at compile time.
var _ Transport = (*LoggingTransport)(nil)
