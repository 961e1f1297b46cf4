package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"golang.org/x/sync/errgroup"

	"github.com/heartmarshall/allergycare-backend/internal/config"
	"github.com/heartmarshall/allergycare-backend/internal/transport/mcpserver"
	"github.com/heartmarshall/allergycare-backend/internal/transport/middleware"
	"github.com/heartmarshall/allergycare-backend/internal/transport/rest"
	"github.com/heartmarshall/allergycare-backend/pkg/ctxutil"
)

// Run serves the REST API until ctx is cancelled, then shuts down
// gracefully within server.shutdown_timeout.
func Run(ctx context.Context, configPath string) error {
	rt, err := Bootstrap(ctx, configPath)
	if err != nil {
		return err
	}

	cfg := rt.Config
	rt.Log.Info("starting application",
		slog.String("version", BuildVersion()),
		slog.String("storage", rt.Storage.Driver),
		slog.Bool("advisory", cfg.Advisory.Enabled),
	)

	limiter := middleware.NewRateLimiter(cfg.RateLimit.CleanupInterval)
	defer limiter.Stop()

	srv := &http.Server{
		Addr:         net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.Port)),
		Handler:      rt.HTTPHandler(limiter),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	return serve(ctx, rt, srv, cfg.Server.ShutdownTimeout)
}

// HTTPHandler builds the REST router over the runtime's services.
func (rt *Runtime) HTTPHandler(limiter *middleware.RateLimiter) http.Handler {
	svc := rt.Services
	h := rest.Handlers{
		Health:   rest.NewHealthHandler(rt.Storage.Pinger, rt.Storage.Driver, rt.Config.Advisory.Enabled, BuildVersion()),
		Profile:  rest.NewProfileHandler(svc.Profile, rt.Log),
		Diary:    rest.NewDiaryHandler(svc.Diary, rt.Log),
		Settings: rest.NewSettingsHandler(svc.Settings, rt.Log),
		Analysis: rest.NewAnalysisHandler(svc.Analysis, rt.Log),
		Backup:   rest.NewBackupHandler(svc.Backup, rt.Log),
	}

	return rest.NewRouter(h, rest.RouterConfig{
		CORS:              rt.Config.CORS,
		MaxBodyBytes:      rt.Config.Server.MaxBodyBytes,
		AnalysisPerMinute: rt.Config.RateLimit.AnalysisPerMinute,
	}, limiter, rt.Log)
}

// MCPServer builds the MCP tool server over the runtime's services.
func (rt *Runtime) MCPServer() *mcp.Server {
	svc := rt.Services
	return mcpserver.New(mcpserver.Services{
		Profiles: svc.Profile,
		Diary:    svc.Diary,
		Analysis: svc.Analysis,
		Backup:   svc.Backup,
	}, Version)
}

// RunMCP serves the MCP tools over the configured transport until ctx is
// cancelled or, for stdio, the client disconnects.
func RunMCP(ctx context.Context, configPath string) error {
	rt, err := Bootstrap(ctx, configPath)
	if err != nil {
		return err
	}

	cfg := rt.Config
	srv := rt.MCPServer()
	rt.Log.Info("starting mcp server",
		slog.String("version", BuildVersion()),
		slog.String("transport", cfg.MCP.Transport),
		slog.String("storage", rt.Storage.Driver),
	)

	if cfg.MCP.Transport == config.MCPTransportStdio {
		runErr := srv.Run(ctx, &mcp.StdioTransport{})
		closeErr := shutdownRuntime(rt, cfg.Server.ShutdownTimeout)
		if runErr != nil && !errors.Is(runErr, context.Canceled) {
			return fmt.Errorf("mcp stdio: %w", runErr)
		}
		return closeErr
	}

	handler := mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server { return srv }, nil)
	httpSrv := &http.Server{
		Addr: cfg.MCP.Addr,
		Handler: middleware.Chain(
			middleware.Recovery(rt.Log),
			middleware.RequestID(),
			middleware.Source(ctxutil.SourceMCP),
			middleware.Logger(rt.Log),
		)(handler),
		ReadHeaderTimeout: cfg.Server.ReadTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}
	return serve(ctx, rt, httpSrv, cfg.Server.ShutdownTimeout)
}

// serve runs srv until ctx ends, then drains connections and the runtime.
func serve(ctx context.Context, rt *Runtime, srv *http.Server, shutdownTimeout time.Duration) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		rt.Log.Info("http server listening", slog.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		rt.Log.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			rt.Log.Error("http shutdown", slog.String("error", err.Error()))
		}
		return rt.Close(shutdownCtx)
	})

	return g.Wait()
}

func shutdownRuntime(rt *Runtime, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return rt.Close(ctx)
}
