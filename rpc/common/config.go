package common

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// --------------------------------------------------------------------------
// RPC server configuration struct
// --------------------------------------------------------------------------

// ServerConfig holds all configuration parameters for the RPC server.
type ServerConfig struct {
	// Listen address of the server (e.g. "localhost:8080" or a socket path)
	Endpoint string

	// Base directory; store paths sent by clients are resolved below it
	DataDir string

	// Upper bound for concurrently running store tasks (0 = number of CPUs)
	Workers int

	// Per-request handling timeout
	TimeoutSecond int64

	// Optional HTTP endpoint that exposes Prometheus metrics (empty = disabled)
	MetricsEndpoint string

	// Logging configuration
	LogLevel string

	// Transport tuning parameters
	Transport TransportConfig
}

// String returns a formatted string representation of the configuration
func (c *ServerConfig) String() string {
	var sb strings.Builder

	// Create helper functions for consistent formatting
	addSection := func(title string) {
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("%s\n", strings.ToUpper(title)))
	}

	addField := func(name, value string) {
		sb.WriteString(fmt.Sprintf("  %-22s: %s\n", name, value))
	}

	// RPC settings
	addSection("RPC Server")
	addField("Endpoint", c.Endpoint)
	addField("Timeout", fmt.Sprintf("%d sec", c.TimeoutSecond))
	addField("Workers", strconv.Itoa(c.Workers))

	// Storage
	addSection("Storage")
	addField("Data Directory", c.DataDir)

	// Observability
	addSection("Observability")
	addField("Log Level", c.LogLevel)
	if c.MetricsEndpoint != "" {
		addField("Metrics Endpoint", c.MetricsEndpoint)
	} else {
		addField("Metrics Endpoint", "disabled")
	}

	// Transport tuning
	addSection("Transport")
	addField("Read Buffer Size", strconv.Itoa(c.Transport.ReadBufferSize))
	addField("Write Buffer Size", strconv.Itoa(c.Transport.WriteBufferSize))
	addField("Workers Per Conn", strconv.Itoa(c.Transport.MaxWorkersPerConn))

	return sb.String()
}

// --------------------------------------------------------------------------
// RPC client configuration struct
// --------------------------------------------------------------------------

type ClientConfig struct {
	Endpoints              []string
	TimeoutSecond          int
	RetryCount             int
	ConnectionsPerEndpoint int
	Transport              TransportConfig
}

// String returns a formatted string representation of the client configuration
func (c *ClientConfig) String() string {
	var sb strings.Builder

	// Create helper functions for consistent formatting
	addSection := func(title string) {
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("%s\n", strings.ToUpper(title)))
	}

	addField := func(name, value string) {
		sb.WriteString(fmt.Sprintf("  %-22s: %s\n", name, value))
	}

	// General Client Settings
	addSection("Client Configuration")
	addField("Timeout", fmt.Sprintf("%d sec", c.TimeoutSecond))
	addField("Retry Count", strconv.Itoa(c.RetryCount))
	addField("Connections Per Endpoint", strconv.Itoa(int(math.Max(1, float64(c.ConnectionsPerEndpoint)))))

	// Endpoints
	addSection("Endpoints")
	for i, endpoint := range c.Endpoints {
		addField(strconv.Itoa(i), endpoint)
	}

	return sb.String()
}

// --------------------------------------------------------------------------
// Transport tuning parameters
// --------------------------------------------------------------------------

// TransportConfig collects the low-level connection parameters shared by the
// stream transports. The zero value selects sensible defaults.
type TransportConfig struct {
	// Size of the buffered reader/writer wrapped around each connection
	ReadBufferSize  int
	WriteBufferSize int

	// TCP specific settings (ignored by unix and http transports)
	TCPNoDelay      bool
	TCPKeepAliveSec int

	// Maximum number of requests handled concurrently per connection
	MaxWorkersPerConn int
}
