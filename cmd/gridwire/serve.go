package main

import (
	"context"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Zereker/gridwire"
)

type serveFlags struct {
	Address         string
	MetricsAddress  string
	ClusterName     string
	FragmentSize    int
	MaxFrameLength  int
	Heartbeat       time.Duration
	ShutdownTimeout time.Duration
}

var serveOpts serveFlags

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run an in-memory member",
	Long: `serve listens for grid clients and answers authentication, ping,
distributed object listing and map put/get/entry set/entry listener
requests from an in-memory store. Other message types get an exception
response.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return runServe(ctx, serveOpts, nil)
	},
}

func init() {
	serveCmd.Flags().StringVarP(&serveOpts.Address, "addr", "a", "127.0.0.1:5701", "listen address")
	serveCmd.Flags().StringVar(&serveOpts.MetricsAddress, "metrics-addr", "127.0.0.1:9701", "prometheus listen address, empty to disable")
	serveCmd.Flags().StringVar(&serveOpts.ClusterName, "cluster-name", "dev", "cluster name clients must present")
	serveCmd.Flags().IntVar(&serveOpts.FragmentSize, "fragment-size", 0, "outbound fragment size in bytes, 0 for the default, negative to disable")
	serveCmd.Flags().IntVar(&serveOpts.MaxFrameLength, "max-frame-length", 0, "largest accepted frame in bytes, 0 for the default")
	serveCmd.Flags().DurationVar(&serveOpts.Heartbeat, "heartbeat", 0, "heartbeat interval, 0 for the default")
	serveCmd.Flags().DurationVar(&serveOpts.ShutdownTimeout, "shutdown-timeout", 0, "how long to let clients finish before closing their connections")
}

// runServe blocks until ctx is done. ready, when not nil, receives the
// listen address once the member accepts connections.
func runServe(ctx context.Context, flags serveFlags, ready chan<- net.Addr) error {
	addr, err := net.ResolveTCPAddr("tcp", flags.Address)
	if err != nil {
		return err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics, err := gridwire.NewPrometheusMetrics(registry)
	if err != nil {
		return err
	}

	connLogger := gridwire.NewZapLogger(logger.Named("conn"))
	server, err := gridwire.New(addr,
		gridwire.ServerLoggerOption(gridwire.NewZapLogger(logger.Named("server"))),
		gridwire.ServerShutdownTimeoutOption(flags.ShutdownTimeout),
	)
	if err != nil {
		return err
	}
	defer server.Close()

	if flags.MetricsAddress != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
		httpServer := &http.Server{Addr: flags.MetricsAddress, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("metrics server", zap.Error(err))
			}
		}()
		defer httpServer.Close()
		logger.Info("metrics listening", zap.String("addr", flags.MetricsAddress))
	}

	m := newMember(flags.ClusterName, server.Addr(), logger.Named("member"),
		gridwire.LoggerOption(connLogger),
		gridwire.MetricsOption(metrics),
		gridwire.FragmentSizeOption(flags.FragmentSize),
		gridwire.MaxFrameLengthOption(flags.MaxFrameLength),
		gridwire.HeartbeatOption(flags.Heartbeat),
	)
	logger.Info("member started",
		zap.Stringer("addr", server.Addr()),
		zap.String("cluster", flags.ClusterName),
		zap.Stringer("member", m.uuid))

	if ready != nil {
		ready <- server.Addr()
	}

	err = server.Serve(ctx, m)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
