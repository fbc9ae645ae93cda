package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	firebase "firebase.google.com/go/v4"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"google.golang.org/api/option"

	"github.com/fairyhunter13/hampers-storefront/internal/catalog"
	"github.com/fairyhunter13/hampers-storefront/internal/checkout"
	"github.com/fairyhunter13/hampers-storefront/internal/config"
	httpapi "github.com/fairyhunter13/hampers-storefront/internal/http"
	"github.com/fairyhunter13/hampers-storefront/internal/identity"
	"github.com/fairyhunter13/hampers-storefront/internal/obs"
	"github.com/fairyhunter13/hampers-storefront/internal/session"
	"github.com/fairyhunter13/hampers-storefront/internal/storefront"
)

const janitorInterval = time.Minute

// backends are the external collaborators picked by configuration.
type backends struct {
	source   catalog.Source
	provider identity.Provider
	closers  []func() error
}

func (b backends) close() {
	for _, c := range b.closers {
		if err := c(); err != nil {
			obs.Logger.WithError(err).Warn("backend_close_error")
		}
	}
}

func buildBackends(ctx context.Context, cfg config.Config) (backends, error) {
	b := backends{provider: identity.LocalProvider{}}
	switch cfg.CatalogSource {
	case config.SourceFirestore:
		var opts []option.ClientOption
		if cfg.CredentialsFile != "" {
			opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
		}
		app, err := firebase.NewApp(ctx, &firebase.Config{
			ProjectID:     cfg.Platform.ProjectID,
			StorageBucket: cfg.Platform.StorageBucket,
		}, opts...)
		if err != nil {
			return b, errors.Wrap(err, "init firebase")
		}
		authClient, err := app.Auth(ctx)
		if err != nil {
			return b, errors.Wrap(err, "init firebase auth")
		}
		fs, err := app.Firestore(ctx)
		if err != nil {
			return b, errors.Wrap(err, "init firestore")
		}
		b.closers = append(b.closers, fs.Close)
		b.source = catalog.NewFirestoreSource(fs, cfg.AppID)
		b.provider = identity.NewFirebaseProvider(authClient, cfg.AnonymousUID)
	case config.SourceFile:
		b.source = catalog.NewFileSource(cfg.CatalogFile, 0)
	case config.SourceStatic:
		products, err := catalog.ReadCatalogFile(cfg.CatalogFile)
		if err != nil {
			return b, err
		}
		b.source = catalog.NewStaticSource(products)
	}
	return b, nil
}

func buildSessions(cfg config.Config) (session.Store, func() error) {
	if cfg.SessionBackend == config.BackendRedis {
		rs := session.NewRedisStore(cfg.RedisAddr, cfg.SessionTTL)
		return rs, rs.Close
	}
	return session.NewMemoryStore(cfg.SessionTTL), func() error { return nil }
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	obs.InitLogger(cfg.LogLevel)
	obs.Logger.WithFields(logrus.Fields{
		"version":        version,
		"catalog_source": cfg.CatalogSource,
		"session_store":  cfg.SessionBackend,
		"app_id":         cfg.AppID,
	}).Info("service_starting")

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	shutdownTracing, err := obs.InitTracerProvider(ctx, obs.TracingConfig{
		OTLPEndpoint: cfg.OTLPEndpoint,
		Stdout:       cfg.TraceStdout,
		Version:      version,
	})
	if err != nil {
		return err
	}
	defer func() {
		tctx, tcancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer tcancel()
		if err := shutdownTracing(tctx); err != nil {
			obs.Logger.WithError(err).Warn("tracing_shutdown_error")
		}
	}()

	be, err := buildBackends(ctx, cfg)
	if err != nil {
		return err
	}
	defer be.close()

	sessions, closeSessions := buildSessions(cfg)
	defer func() { _ = closeSessions() }()

	vm := catalog.NewViewModel(be.source)
	composer := checkout.NewComposer(checkout.Settings{
		Greeting:      cfg.Greeting,
		CurrencyLabel: cfg.CurrencyLabel,
		BaseURL:       cfg.MessagingBaseURL,
		Phone:         cfg.MerchantPhone,
		Locale:        checkout.ParseLocale(cfg.Locale),
	})
	shop := storefront.New(vm, sessions, composer)
	app, err := httpapi.NewApp(cfg, shop)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           httpapi.NewRouter(app),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		bootstrapCatalog(gctx, be.provider, cfg.InitialAuthToken, vm)
		return nil
	})

	if mem, ok := sessions.(*session.MemoryStore); ok {
		g.Go(func() error {
			mem.RunJanitor(gctx, janitorInterval)
			return nil
		})
	}

	g.Go(func() error {
		obs.Logger.WithField("addr", cfg.HTTPAddr).Info("http_listen")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return errors.Wrap(err, "http server")
		}
		return nil
	})

	g.Go(func() error {
		sigc := make(chan os.Signal, 1)
		signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(sigc)
		select {
		case s := <-sigc:
			obs.Logger.WithField("signal", s.String()).Info("shutdown_signal")
		case <-gctx.Done():
		}
		app.StartShutdown()

		ctxSrv, cancelSrv := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancelSrv()
		if err := srv.Shutdown(ctxSrv); err != nil {
			obs.Logger.WithError(err).Error("http_shutdown_error")
		}
		cancel()
		vm.Close()
		return nil
	})

	err = g.Wait()
	obs.Logger.Info("service_stopped")
	return err
}

// bootstrapCatalog acquires an identity and binds the catalog to it. The
// catalog stays empty until an identity exists; failing to get one leaves
// the rest of the storefront serving.
func bootstrapCatalog(ctx context.Context, p identity.Provider, token string, vm *catalog.ViewModel) {
	id, err := identity.Acquire(ctx, p, token)
	if err != nil {
		obs.Logger.WithError(err).Error("identity_error")
		return
	}
	if err := vm.Bind(ctx, id); err != nil {
		obs.Logger.WithError(err).Error("catalog_bind_error")
	}
}
