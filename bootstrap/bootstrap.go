package bootstrap

import (
	"context"
	"crypto/tls"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/fulldump/box"
	"golang.org/x/sync/errgroup"

	"github.com/fulldump/genmap/api"
	"github.com/fulldump/genmap/configuration"
	"github.com/fulldump/genmap/database"
	"github.com/fulldump/genmap/service"
)

var VERSION = "dev"

// NewLogger builds the process logger. Unknown levels fall back to info.
func NewLogger(level string) *slog.Logger {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.TrimSpace(level))); err != nil {
		l = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: l}))
}

func Bootstrap(c *configuration.Configuration) (start, stop func()) {

	logger := NewLogger(c.LogLevel)

	db := database.NewDatabase(&database.Config{
		Dir:    c.Dir,
		Logger: logger,
	})

	s := service.NewService(db, c.DefaultCapacity, c.MaxCapacity)

	b := api.Build(s, VERSION, c.ApiKey, c.ApiSecret)
	if c.EnableCompression {
		b.WithInterceptors(api.Compression)
	}
	b.WithInterceptors(
		api.AccessLog(logger.With("component", "access")),
		api.PrettyErrorInterceptor,
		api.RecoverFromPanic(logger),
		api.InterceptorUnavailable(db),
		api.RateLimit(c.RateLimit, c.RateBurst),
	)

	server := &http.Server{
		Addr:     c.HttpAddr,
		Handler:  box.Box2Http(b),
		ErrorLog: slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	if c.HttpsSelfsigned {
		logger.Info("HTTPS self-signed")
		cert, err := selfSignedCertificate()
		if err != nil {
			logger.Error("self-signed certificate", "err", err)
			os.Exit(-1)
		}
		server.TLSConfig = &tls.Config{
			Certificates: []tls.Certificate{cert},
		}
	}

	ln, err := net.Listen("tcp", c.HttpAddr)
	if err != nil {
		logger.Error("listen", "addr", c.HttpAddr, "err", err)
		os.Exit(-1)
	}
	logger.Info("listening", "addr", ln.Addr().String())

	stop = func() {
		shutdown(context.Background(), server, db, logger)
	}

	signalChan := make(chan os.Signal, 1)
	signal.Notify(signalChan, syscall.SIGTERM, syscall.SIGINT)
	go func() {
		for sig := range signalChan {
			logger.Info("signal received", "signal", sig.String())
			stop()
		}
	}()

	start = func() {

		g := &errgroup.Group{}

		g.Go(db.Start)

		g.Go(func() error {
			var err error
			if c.HttpsEnabled {
				err = server.ServeTLS(ln, "", "")
			} else {
				err = server.Serve(ln)
			}
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return err
		})

		if err := g.Wait(); err != nil {
			logger.Error("stopped with error", "err", err)
		}
	}

	return
}

// shutdown drains in-flight requests before closing the tables they write to.
func shutdown(ctx context.Context, server *http.Server, db *database.Database, logger *slog.Logger) {
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("shutdown server", "err", err)
	}
	if err := db.Stop(); err != nil {
		logger.Error("stop database", "err", err)
	}
}
