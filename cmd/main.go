package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/pprof"
	"net/url"
	"os"
	"reflect"
	"syscall"
	"time"

	"github.com/aukilabs/go-tooling/pkg/cli"
	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/go-tooling/pkg/logs"
	"github.com/aukilabs/go-tooling/pkg/metrics"
	"github.com/aukilabs/spatial/featureflag"
	spatialhttp "github.com/aukilabs/spatial/http"
	"github.com/aukilabs/spatial/models"
	"github.com/aukilabs/spatial/modules"
	"github.com/aukilabs/spatial/modules/picking"
	"github.com/aukilabs/spatial/modules/pointcloud"
	"github.com/aukilabs/spatial/smoketest"
	swebsocket "github.com/aukilabs/spatial/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/segmentio/encoding/json"
	"golang.org/x/net/websocket"
)

var (
	// The server version number. Set at build.
	version = "v0.1.0"

	infoGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name:        "spatial_info",
		Help:        "Spatial server information.",
		ConstLabels: prometheus.Labels{"version": version},
	})
)

// This will effectively disable obfuscation of the config struct. Without it, the keys would get obfuscated causing the cli package to generate garbled command-line options.
// https://github.com/burrowers/garble/issues/403
var _ = reflect.TypeOf(config{})

type config struct {
	Addr               string        `cli:""        env:"SPATIAL_ADDR"                 help:"Listening address for client connections."`
	AdminAddr          string        `cli:""        env:"SPATIAL_ADMIN_ADDR"           help:"Admin listening address."`
	PublicEndpoint     string        `cli:""        env:"SPATIAL_PUBLIC_ENDPOINT"      help:"The public endpoint where this server is reachable."`
	LogLevel           string        `cli:""        env:"SPATIAL_LOG_LEVEL"            help:"Log level (debug|info|warning|error)."`
	LogIndent          bool          `cli:""        env:"SPATIAL_LOG_INDENT"           help:"Indent logs."`
	SyncClockInterval  time.Duration `cli:",hidden" env:"SPATIAL_SYNC_CLOCK_INTERVAL"  help:"Client sync clock (heartbeat) message interval."`
	ClientIdleTimeout  time.Duration `cli:",hidden" env:"SPATIAL_CLIENT_IDLE_TIMEOUT"  help:"Time until an idle client will be disconnected"`
	LogSummaryInterval time.Duration `cli:",hidden" env:"SPATIAL_LOG_SUMMARY_INTERVAL" help:"The duration between each log summary by connection."`
	ShutdownTimeout    time.Duration `cli:",hidden" env:"SPATIAL_SHUTDOWN_TIMEOUT"     help:"The time given to open connections to close on shutdown."`
	MaxPointCloudSize  int           `cli:",hidden" env:"SPATIAL_MAX_POINT_CLOUD_SIZE" help:"The maximum number of points of a point cloud. Zero means no limit."`
	FeatureFlags       []string      `cli:",hidden" env:"SPATIAL_FEATURE_FLAGS"        help:"Comma separated feature flags"`
	Version            bool          `cli:""        env:"-"                            help:"Show version."`
	Help               bool          `cli:""        env:"-"                            help:"Show help."`
}

func main() {
	conf := config{
		Addr:               ":4000",
		AdminAddr:          ":18190",
		PublicEndpoint:     "http://localhost:4000",
		LogLevel:           logs.InfoLevel.String(),
		SyncClockInterval:  time.Second * 5,
		ClientIdleTimeout:  time.Minute * 5,
		LogSummaryInterval: time.Minute,
		ShutdownTimeout:    time.Second * 10,
		MaxPointCloudSize:  1 << 20,
	}

	// set the information gauge to 1, useful for SUM query
	infoGauge.Set(1)

	ctx, cancel := cli.ContextWithSignals(context.Background(),
		os.Interrupt,
		syscall.SIGTERM,
	)
	defer cancel()

	cli.Register().
		Help("Starts the spatial query server.").
		Options(&conf)
	cli.Load()

	if conf.Version {
		fmt.Println(version)
		os.Exit(0)
	}

	if err := validateConfig(conf); err != nil {
		logs.Fatal(err)
	}

	logs.SetLevel(logs.ParseLevel(conf.LogLevel))
	logs.Encoder = json.Marshal
	if conf.LogIndent {
		logs.Encoder = func(v any) ([]byte, error) {
			return json.MarshalIndent(v, "", "  ")
		}
	}

	errors.Encoder = json.Marshal

	featureFlags := featureflag.New(conf.FeatureFlags)
	sessions := models.SessionStore{}

	readinessCheck := func() bool {
		return ctx.Err() == nil
	}

	var service http.ServeMux
	service.Handle("/health", spatialhttp.HandleWithCORS(http.HandlerFunc(spatialhttp.HandleHealthCheck)))
	service.Handle("/version", spatialhttp.HandleWithCORS(http.HandlerFunc(spatialhttp.HandleVersion(version))))
	service.Handle("/ready", spatialhttp.HandleWithCORS(http.HandlerFunc(spatialhttp.HandleReadyCheck(readinessCheck))))

	service.Handle("/", spatialhttp.HandleWithCORS(websocket.Server{
		Handler: func(conn *websocket.Conn) {
			defer conn.Close()

			var rh swebsocket.Handler = &swebsocket.RealtimeHandler{
				ClientSyncClockInterval: conf.SyncClockInterval,
				ClientIdleTimeout:       conf.ClientIdleTimeout,
				Sessions:                &sessions,
				Modules:                 newModules(conf, featureFlags),
				FeatureFlags:            featureFlags,
			}
			h := swebsocket.HandlerWithLogs(rh, conf.LogSummaryInterval)
			h = swebsocket.HandlerWithMetrics(h, conf.PublicEndpoint)
			defer h.Close()

			swebsocket.Handle(ctx, conn, h)
		},
	}))

	service.Handle("/ping", websocket.Server{
		Handler: func(ws *websocket.Conn) {
			defer ws.Close()
			io.Copy(ws, ws)
		},
	})

	var admin http.ServeMux
	admin.Handle("/metrics", promhttp.Handler())
	admin.HandleFunc("/health", spatialhttp.HandleHealthCheck)
	admin.HandleFunc("/debug/pprof/", pprof.Index)
	admin.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	admin.HandleFunc("/debug/pprof/profile", pprof.Profile)
	admin.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	admin.HandleFunc("/debug/pprof/trace", pprof.Trace)
	admin.Handle("/debug/pprof/goroutine", pprof.Handler("goroutine"))
	admin.Handle("/debug/pprof/heap", pprof.Handler("heap"))
	admin.Handle("/debug/pprof/threadcreate", pprof.Handler("threadcreate"))
	admin.Handle("/debug/pprof/block", pprof.Handler("block"))
	admin.HandleFunc("/ready", spatialhttp.HandleReadyCheck(readinessCheck))
	admin.HandleFunc("/smoke-test", smoketest.HandleSmokeTest(ctx, smoketest.Options{
		Endpoint:  conf.PublicEndpoint,
		UserAgent: fmt.Sprintf("Spatial %s", version),
	}))

	logs.WithTag("version", version).
		WithTag("log_level", conf.LogLevel).
		WithTag("endpoint", conf.PublicEndpoint).
		WithTag("max_point_cloud_size", conf.MaxPointCloudSize).
		WithTag("feature_flags", conf.FeatureFlags).
		Info("starting spatial server")

	spatialhttp.ListenAndServe(ctx, conf.ShutdownTimeout,
		&http.Server{Addr: conf.Addr, Handler: metrics.HTTPHandler(&service,
			spatialhttp.MetricsPathFormatter)},
		&http.Server{Addr: conf.AdminAddr, Handler: &admin},
	)
}

// newModules returns the modules of a client connection. Modules hold per
// connection state and are never shared.
func newModules(conf config, featureFlags featureflag.FeatureFlag) []modules.Module {
	return []modules.Module{
		&picking.Module{},
		&pointcloud.Module{
			MaxPoints:    conf.MaxPointCloudSize,
			FeatureFlags: featureFlags,
		},
	}
}

func validateConfig(conf config) error {
	if _, err := url.ParseRequestURI(conf.PublicEndpoint); err != nil {
		return errors.New("invalid public endpoint").Wrap(err)
	}

	if conf.MaxPointCloudSize < 0 {
		return errors.New("max point cloud size is negative").
			WithTag("max_point_cloud_size", conf.MaxPointCloudSize)
	}

	if conf.SyncClockInterval <= 0 {
		return errors.New("sync clock interval must be positive").
			WithTag("sync_clock_interval", conf.SyncClockInterval)
	}

	return nil
}
