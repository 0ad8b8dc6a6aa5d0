package server

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/VictoriaMetrics/metrics"
	enginepebble "github.com/stashdb/stashdb/lib/engine/pebble"
	"github.com/stashdb/stashdb/lib/host"
	"github.com/stashdb/stashdb/rpc/common"
	"github.com/stashdb/stashdb/rpc/serializer"
	"github.com/stashdb/stashdb/rpc/transport"
)

var Logger = common.CreateLogger("rpc")

// NewRPCServer creates a new RPC server
// It takes a config, transport and serializer as parameters
//
// Usage:
//
//	s := server.NewRPCServer(
//		*config,
//		http.NewHttpServerTransport(),
//		serializer.NewJSONSerializer(),
//	)
//
//	if err := s.Serve(); err != nil {
//		panic(err)
//	 }
func NewRPCServer(
	config common.ServerConfig,
	transport transport.IRPCServerTransport,
	serializer serializer.IRPCSerializer,
) rpcServer {
	// https://github.com/golang/go/issues/17393
	if runtime.GOOS == "darwin" {
		signal.Ignore(syscall.Signal(0xd))
	}

	Logger.Infof("Created RPC Server")
	Logger.Infof(config.String())

	// Create the RPC server
	return rpcServer{
		config:     config,
		transport:  transport,
		serializer: serializer,
	}
}

type rpcServer struct {
	config     common.ServerConfig
	transport  transport.IRPCServerTransport
	serializer serializer.IRPCSerializer
	host       host.IHost
	adapter    IRPCServerAdapter
}

func (s *rpcServer) registerTransportHandler() {
	requestsTotal := metrics.GetOrCreateCounter(`stashdb_rpc_requests_total`)
	requestErrors := metrics.GetOrCreateCounter(`stashdb_rpc_request_errors_total`)
	requestDuration := metrics.GetOrCreateSummary(`stashdb_rpc_request_duration_seconds`)

	timeout := time.Duration(s.config.TimeoutSecond) * time.Second

	s.transport.RegisterHandler(func(req []byte) []byte {
		start := time.Now()
		requestsTotal.Inc()

		var msg common.Message
		var respMsg common.Message

		// Decode the request
		err := s.serializer.Deserialize(req, &msg)
		if err != nil {
			respMsg = common.Message{
				MsgType: common.MsgTError,
				Err:     fmt.Sprintf("failed to deserialize request: %s", err),
			}
		} else {
			// Let the adapter handle the request under the configured timeout
			ctx := context.Background()
			cancel := context.CancelFunc(func() {})
			if timeout > 0 {
				ctx, cancel = context.WithTimeout(ctx, timeout)
			}
			respMsg = *s.adapter.Handle(ctx, &msg, s.host)
			cancel()
		}

		if respMsg.Err != "" {
			requestErrors.Inc()
		}
		requestDuration.UpdateDuration(start)

		// Return result
		val, err := s.serializer.Serialize(respMsg)
		if err != nil {
			Logger.Errorf("failed to serialize response: %s", err)
			return nil
		}
		return val
	})
}

func (s *rpcServer) init() error {

	// Init logger
	if err := common.InitLoggers(s.config); err != nil {
		return err
	}

	// Create the store host backed by the pebble engine
	s.host = host.New(enginepebble.Open, host.Config{
		MaxWorkers: s.config.Workers,
	})

	// Create the adapter that maps messages to host operations
	s.adapter = NewHostServerAdapter(s.config.DataDir)

	// Optionally expose Prometheus metrics
	if s.config.MetricsEndpoint != "" {
		go func() {
			mux := http.NewServeMux()
			mux.HandleFunc("/metrics", func(w http.ResponseWriter, r *http.Request) {
				metrics.WritePrometheus(w, true)
			})
			Logger.Infof("Starting metrics endpoint on %s", s.config.MetricsEndpoint)
			if err := http.ListenAndServe(s.config.MetricsEndpoint, mux); err != nil {
				Logger.Errorf("Metrics endpoint failed: %v", err)
			}
		}()
	}

	Logger.Infof("stashdb setup completed successfully")

	// Configure the transport layer
	s.registerTransportHandler()

	return nil
}

// Serve starts the RPC server
// This function will also initialize the server plus the store host and start
// the transport layer
func (s *rpcServer) Serve() error {
	err := s.init()
	if err != nil {
		return err
	}
	return s.transport.Listen(s.config)
}

// Shutdown closes all open stores without destroying their on-disk data
func (s *rpcServer) Shutdown(ctx context.Context) error {
	if s.host == nil {
		return nil
	}
	return s.host.Shutdown(ctx)
}
