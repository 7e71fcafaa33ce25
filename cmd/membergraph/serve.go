package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	config "github.com/hanpama/membergraph/internal/config"
	eventbus "github.com/hanpama/membergraph/internal/eventbus"
	executor "github.com/hanpama/membergraph/internal/executor"
	graph "github.com/hanpama/membergraph/internal/graph"
	introspection "github.com/hanpama/membergraph/internal/introspection"
	loader "github.com/hanpama/membergraph/internal/loader"
	logging "github.com/hanpama/membergraph/internal/logging"
	otel "github.com/hanpama/membergraph/internal/otel"
	server "github.com/hanpama/membergraph/internal/server"
	store "github.com/hanpama/membergraph/internal/store"
	validation "github.com/hanpama/membergraph/internal/validation"
)

func newServeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the GraphQL HTTP server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context(), a.cfg)
		},
	}
	cmd.Flags().String("addr", "", "HTTP listen address")
	cmd.Flags().Bool("pretty", false, "indent JSON responses")
	_ = a.v.BindPFlag("server.addr", cmd.Flags().Lookup("addr"))
	_ = a.v.BindPFlag("server.pretty", cmd.Flags().Lookup("pretty"))
	return cmd
}

func serve(ctx context.Context, cfg *config.Config) error {
	log, closer, err := logging.New(cfg.Log)
	if err != nil {
		return err
	}
	defer closer.Close()

	eventbus.Use(eventbus.New())
	defer logging.Subscribe(log)()
	shutdownTracing, err := otel.Setup(ctx, cfg.Otel)
	if err != nil {
		return err
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			log.Warn().Err(err).Msg("flush traces")
		}
	}()

	st, err := store.Open(cfg.Database, log)
	if err != nil {
		return err
	}
	defer st.Close()
	if err := st.Migrate(ctx); err != nil {
		return err
	}

	handler, err := newHandler(cfg, st, log)
	if err != nil {
		return err
	}
	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Str("addr", cfg.Server.Addr).Str("path", cfg.Server.Path).Msg("serving GraphQL")
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		log.Info().Msg("shutting down")
		return srv.Shutdown(sctx)
	})
	return g.Wait()
}

// newHandler assembles the request pipeline over st: the GraphQL endpoint at
// cfg.Server.Path and a health check at /healthz.
func newHandler(cfg *config.Config, st *store.Store, log zerolog.Logger) (http.Handler, error) {
	b, err := graph.New(st)
	if err != nil {
		return nil, fmt.Errorf("bind resolvers: %w", err)
	}
	var runtime executor.Runtime = b
	sch := b.Schema()

	var vopts []validation.Option
	if cfg.GraphQL.Introspection {
		w := introspection.Wrap(runtime, sch)
		runtime, sch = w.Runtime, w.Schema
	} else {
		vopts = append(vopts, validation.WithoutIntrospection())
	}
	valid, err := validation.New(b.Schema(), cfg.GraphQL.MaxDepth, vopts...)
	if err != nil {
		return nil, fmt.Errorf("load validator: %w", err)
	}
	exec := executor.NewExecutor(runtime, sch, executor.WithParallelism(cfg.GraphQL.Parallelism))

	sopts := []server.Option{
		server.WithTimeout(cfg.Server.Timeout),
		server.WithMaxBodyBytes(cfg.Server.MaxBodyBytes),
		server.WithLogger(log),
		server.WithContextFunc(func(ctx context.Context) context.Context {
			return loader.NewContext(ctx, loader.New(st))
		}),
	}
	if cfg.Server.Pretty {
		sopts = append(sopts, server.WithPretty())
	}
	if len(cfg.Server.CORS) > 0 {
		sopts = append(sopts, server.WithCORS(cfg.Server.CORS...))
	}

	mux := http.NewServeMux()
	mux.Handle(cfg.Server.Path, server.New(exec, valid, sopts...))
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := st.Ping(r.Context()); err != nil {
			zerolog.Ctx(r.Context()).Warn().Err(err).Msg("health check")
			http.Error(w, "unavailable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok\n"))
	})
	return mux, nil
}
