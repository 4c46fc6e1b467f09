package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/spf13/cobra"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	config "github.com/davicafu/backoffice/internal/config"
	resourceApp "github.com/davicafu/backoffice/internal/resource/application"
	resourceDomain "github.com/davicafu/backoffice/internal/resource/domain"
	resourceHttp "github.com/davicafu/backoffice/internal/resource/infra/inbound/http"
	"github.com/davicafu/backoffice/internal/resource/infra/outbound/analytics/clickhouse"
	"github.com/davicafu/backoffice/internal/resource/infra/outbound/db/mongodb"
	"github.com/davicafu/backoffice/internal/resource/infra/outbound/db/sqlstore"
	sharedDomain "github.com/davicafu/backoffice/internal/shared/domain"
	infraEvents "github.com/davicafu/backoffice/internal/shared/infra/events"
	sharedBus "github.com/davicafu/backoffice/internal/shared/infra/platform/bus"
	sharedCache "github.com/davicafu/backoffice/internal/shared/infra/platform/cache"
	"github.com/davicafu/backoffice/internal/shared/infra/relayer"
	sharedUtils "github.com/davicafu/backoffice/internal/shared/infra/utils"
	"github.com/davicafu/backoffice/pkg/logger"
)

func newServeCmd(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Levanta la API de recursos con outbox y change feed",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg, logger.Logger())
		},
	}
	cmd.Flags().StringVar(&cfg.StoreDriver, "store", cfg.StoreDriver, "sqlite | postgres | mongo")
	cmd.Flags().StringVar(&cfg.HTTPPort, "port", cfg.HTTPPort, "puerto HTTP")
	return cmd
}

// store junta lo que el servidor necesita de la base elegida.
type store struct {
	docs   resourceDomain.DocumentRepository
	outbox sharedDomain.OutboxRepository
	close  func()
}

func openStore(ctx context.Context, cfg *config.Config, log *zap.Logger) (*store, error) {
	switch cfg.StoreDriver {
	case "sqlite", "postgres":
		dsn := sharedUtils.Ternary(cfg.StoreDriver == "sqlite", cfg.SQLitePath, cfg.PostgresDSN)
		db, d, err := sqlstore.Open(cfg.StoreDriver, dsn)
		if err != nil {
			return nil, err
		}
		// la base puede tardar en aceptar conexiones al arrancar
		if err := sharedUtils.Retry(ctx, 5, 2*time.Second, func() error { return db.PingContext(ctx) }); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to ping %s: %w", cfg.StoreDriver, err)
		}
		if err := sqlstore.InitSchema(ctx, db, d); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to initialize schema: %w", err)
		}
		log.Info("✅ Base SQL lista", zap.String("driver", d.Name()))
		return &store{
			docs:   sqlstore.NewDocumentRepo(db, d),
			outbox: sqlstore.NewOutboxRepo(db, d),
			close:  func() { db.Close() },
		}, nil

	case "mongo":
		client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
		if err != nil {
			return nil, err
		}
		docs, err := mongodb.NewDocumentRepoMongoDB(ctx, client, cfg.MongoDB)
		if err != nil {
			_ = client.Disconnect(ctx)
			return nil, err
		}
		if err := docs.EnsureIndexes(ctx); err != nil {
			log.Warn("⚠️ No se pudieron crear los índices de MongoDB", zap.Error(err))
		}
		log.Info("✅ MongoDB conectado", zap.String("db", cfg.MongoDB))
		return &store{
			docs:   docs,
			outbox: mongodb.NewOutboxRepoMongoDB(client, cfg.MongoDB),
			close:  func() { _ = client.Disconnect(context.Background()) },
		}, nil
	}
	return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
}

// openCache usa Redis si responde y si no la caché en memoria.
func openCache(ctx context.Context, cfg *config.Config, log *zap.Logger) (sharedCache.VersionedCache, func()) {
	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		log.Warn("⚠️ Redis no disponible, cache en memoria", zap.Error(err))
		_ = rdb.Close()
		mem := sharedCache.NewInMemoryCache(cfg.CacheTTL, 3*cfg.CacheTTL)
		return mem, mem.Stop
	}
	log.Info("✅ Redis conectado, cache habilitado")
	return sharedCache.NewRedisCache(rdb, "backoffice:", cfg.CacheTTL), func() { _ = rdb.Close() }
}

// feedLogger consume el bus en memoria cuando no hay Kafka: los cambios
// solo quedan en el log.
type feedLogger struct {
	log *zap.Logger
}

func (f feedLogger) HandleMessage(ctx context.Context, key string, payload []byte) {
	f.log.Debug("Change feed", zap.String("key", key), zap.Int("bytes", len(payload)))
}

func serve(ctx context.Context, cfg *config.Config, log *zap.Logger) error {
	// ---------------- DB ----------------
	st, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer st.close()

	// ---------------- Cache ----------------
	cache, closeCache := openCache(ctx, cfg, log)
	defer closeCache()

	// ---------------- Events ---------------
	var publisher sharedBus.EventBus
	if cfg.UseKafka {
		log.Info("🚀 Usando Kafka como change feed", zap.String("topic", cfg.KafkaTopic))
		writer := infraEvents.NewChangeFeedWriter(cfg.KafkaBrokers, cfg.KafkaTopic)
		defer writer.Close()
		publisher = infraEvents.NewKafkaPublisher(writer, log)
	} else {
		log.Info("⚡️Usando bus de eventos en memoria (canales de Go)")
		bus := infraEvents.NewInMemoryEventBus(cfg.KafkaTopic)
		defer bus.Close()
		infraEvents.ConsumeChannel(ctx, bus, feedLogger{log: log}, log)
		publisher = bus
	}

	// ------------ Outbox Worker ------------
	worker := relayer.NewOutboxWorker(st.outbox, publisher, cfg.OutboxPeriod, cfg.OutboxLimit, log)
	go worker.Start(ctx)

	// --------------- Servicio --------------
	opts := []resourceApp.Option{
		resourceApp.WithCache(cache, int(cfg.CacheTTL.Seconds())),
		resourceApp.WithPageSize(cfg.PageSize),
	}
	if cfg.ClickHouse != "" {
		repo, err := clickhouse.NewRequestLogRepo(cfg.ClickHouse, "default")
		if err != nil {
			log.Warn("⚠️ ClickHouse no disponible, sin log de consultas", zap.Error(err))
		} else {
			defer repo.Close()
			if err := repo.InitSchema(ctx); err != nil {
				log.Warn("⚠️ No se pudo crear la tabla de ClickHouse", zap.Error(err))
			}
			reqLog := resourceApp.NewRequestLogger(repo, 500, 5*time.Second, log)
			go reqLog.Start(ctx)
			opts = append(opts, resourceApp.WithRequestLogger(reqLog))
		}
	}
	service := resourceApp.NewResourceService(sharedDomain.DefaultRegistry(), st.docs, log, opts...)

	// ---------------- HTTP ----------------
	router := gin.Default()
	resourceHttp.RegisterResourceRoutes(router, resourceHttp.NewResourceHandler(service, log))

	srv := &http.Server{Addr: ":" + cfg.HTTPPort, Handler: router}
	errCh := make(chan error, 1)
	go func() {
		log.Info("🚀 Server running", zap.String("url", "http://localhost:"+cfg.HTTPPort))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("failed to start server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("🛑 Apagando servidor")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
