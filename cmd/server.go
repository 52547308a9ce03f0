package cmd

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"linkport/handler"
	"linkport/handler/hc"
	"linkport/handler/rest"
	"linkport/worker"
	"linkport/worker/expiry"
	"linkport/worker/relayer"

	"github.com/drone/signal"
	"github.com/fox-one/pkg/logger"
	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "run the configured chains, relayer and api server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		log := logger.FromContext(ctx)

		tr := provideTransport()
		nodes, err := provideNodes(tr)
		if err != nil {
			return err
		}

		defer func() {
			for _, n := range nodes {
				n.DB.Close()
			}
		}()

		chains := make(map[uint64]*rest.Chain, len(nodes))
		selectors := make([]uint64, 0, len(nodes))
		outboxes := make([]relayer.Outbox, 0, len(nodes))
		cancellers := make([]expiry.Canceller, 0, len(nodes))
		for _, n := range nodes {
			if err := bootstrap(ctx, n); err != nil {
				return err
			}

			chains[n.cfg.Selector] = n.Chain
			selectors = append(selectors, n.cfg.Selector)
			outboxes = append(outboxes, n.Port)
			cancellers = append(cancellers, n.Port)
		}

		expiryJob, err := expiry.New(cfg.Expiry.Location, cfg.Expiry.Spec, cancellers...)
		if err != nil {
			return err
		}

		mux := chi.NewMux()
		mux.Use(middleware.Recoverer)
		mux.Use(middleware.StripSlashes)
		mux.Use(cors.AllowAll().Handler)
		mux.Use(logger.WithRequestID)
		mux.Use(middleware.Logger)
		mux.Use(middleware.NewCompressor(5).Handler)

		{
			//hc
			mux.Mount("/hc", hc.Handle(rootCmd.Version, selectors...))
		}

		{
			//metrics
			mux.Mount("/metrics", promhttp.Handler())
		}

		{
			//restful api
			mux.Mount("/api", handler.New(chains).HandleRestAPI())
		}

		addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
		server := &http.Server{
			Addr:    addr,
			Handler: mux,
		}

		ctx, quit := context.WithCancel(ctx)
		defer quit()

		g, ctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			return relayer.New(cfg.Relayer.IntervalDuration(), tr, outboxes...).Run(ctx)
		})

		g.Go(func() error {
			return worker.Run(ctx, expiryJob)
		})

		done := make(chan struct{}, 1)
		signal.WithContextFunc(ctx, func() {
			quit()

			ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
			defer cancel()

			if err := server.Shutdown(ctx); err != nil {
				logrus.WithError(err).Error("graceful shutdown server failed")
			}

			close(done)
		})

		log.Infoln("serve at", addr)
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			logrus.WithError(err).Fatal("server aborted")
		}

		<-done
		if err := g.Wait(); err != nil && err != context.Canceled {
			return err
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(serverCmd)
}
