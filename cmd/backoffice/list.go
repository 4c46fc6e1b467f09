package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	config "github.com/davicafu/backoffice/internal/config"
	listingApp "github.com/davicafu/backoffice/internal/listing/application"
	listingDomain "github.com/davicafu/backoffice/internal/listing/domain"
	listingEvents "github.com/davicafu/backoffice/internal/listing/infra/inbound/events"
	listingCache "github.com/davicafu/backoffice/internal/listing/infra/outbound/cache"
	"github.com/davicafu/backoffice/internal/listing/infra/outbound/resource"
	sharedDomain "github.com/davicafu/backoffice/internal/shared/domain"
	infraEvents "github.com/davicafu/backoffice/internal/shared/infra/events"
	sharedCache "github.com/davicafu/backoffice/internal/shared/infra/platform/cache"
	"github.com/davicafu/backoffice/pkg/logger"
)

type listFlags struct {
	filters     []string
	link        string
	search      string
	sort        string
	pages       int
	follow      bool
	sharedCache bool
}

func newListCmd(cfg *config.Config) *cobra.Command {
	var f listFlags
	cmd := &cobra.Command{
		Use:   "list <resource>",
		Short: "Muestra un listado filtrado con scroll por páginas",
		Example: `  backoffice list documentos --filter proveedor:contains:Gomez --sort -fecha_documento
  backoffice list presupuestos --link "estado=Aprobado&proveedor=Perez" --pages 3
  backoffice list pagos --follow`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runList(ctx, cmd.OutOrStdout(), cfg, args[0], f, logger.Logger())
		},
	}
	cmd.Flags().StringArrayVar(&f.filters, "filter", nil, "filtro campo:operador:valor (repetible)")
	cmd.Flags().StringVar(&f.link, "link", "", "query string de un enlace del back office (estado=..&detalle=..)")
	cmd.Flags().StringVar(&f.search, "search", "", "texto de búsqueda")
	cmd.Flags().StringVar(&f.sort, "sort", "", "orden: campo o -campo")
	cmd.Flags().IntVar(&f.pages, "pages", 1, "páginas a cargar")
	cmd.Flags().BoolVar(&f.follow, "follow", false, "aplicar los cambios del change feed (requiere USE_KAFKA=true)")
	cmd.Flags().BoolVar(&f.sharedCache, "shared-cache", false, "guardar las páginas en Redis")
	return cmd
}

func buildFilters(cfgRes sharedDomain.ResourceConfig, f listFlags) ([]sharedDomain.Filter, error) {
	var filters []sharedDomain.Filter
	if f.link != "" {
		values, err := url.ParseQuery(f.link)
		if err != nil {
			return nil, fmt.Errorf("invalid --link: %w", err)
		}
		filters = listingDomain.FiltersFromQuery(values, listingDomain.DefaultURLFilterOptions())
	}
	for _, raw := range f.filters {
		flt, err := parseFilter(cfgRes, raw)
		if err != nil {
			return nil, err
		}
		filters = append(filters, flt)
	}
	return filters, nil
}

func entryStore(ctx context.Context, cfg *config.Config, shared bool, log *zap.Logger) (listingDomain.EntryStore, func()) {
	if !shared {
		return listingApp.NewLRUStore(0, cfg.CacheTTL), func() {}
	}
	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Warn("⚠️ Redis no disponible, páginas en memoria", zap.Error(err))
		_ = rdb.Close()
		return listingApp.NewLRUStore(0, cfg.CacheTTL), func() {}
	}
	cache := sharedCache.NewRedisCache(rdb, "backoffice:", cfg.CacheTTL)
	return listingCache.NewEntryStore(cache, "listing:", cfg.CacheTTL, log), func() { _ = rdb.Close() }
}

func runList(ctx context.Context, out io.Writer, cfg *config.Config, name string, f listFlags, log *zap.Logger) error {
	registry := sharedDomain.DefaultRegistry()
	res, err := registry.Get(name)
	if err != nil {
		return fmt.Errorf("%w (disponibles: %v)", err, registry.Names())
	}
	filters, err := buildFilters(res, f)
	if err != nil {
		return err
	}
	if f.follow && !cfg.UseKafka {
		return errors.New("--follow needs the Kafka change feed (USE_KAFKA=true)")
	}

	client := resource.NewClient(resource.Config{
		BaseURL: cfg.APIBaseURL,
		Token:   cfg.APIToken,
		Timeout: cfg.HTTPTimeout,
	}, log)
	store, closeStore := entryStore(ctx, cfg, f.sharedCache, log)
	defer closeStore()

	ctrl, err := listingApp.NewController(registry, name, client, store, log, listingApp.Options{
		Debounce: cfg.Debounce,
		Filters:  filters,
		Search:   f.search,
		Sort:     parseSort(f.sort),
	})
	if err != nil {
		return err
	}
	defer ctrl.Close()
	// sin teclado no hay nada que esperar
	ctrl.Flush()

	if err := ctrl.Load(ctx); err != nil {
		return err
	}
	for i := 1; i < f.pages && ctrl.HasMore(); i++ {
		if err := ctrl.LoadMore(ctx); err != nil {
			return err
		}
	}
	if err := printList(out, registry, ctrl); err != nil {
		return err
	}
	if !f.follow {
		return nil
	}
	return follow(ctx, out, cfg, registry, ctrl, log)
}

func printList(out io.Writer, registry *sharedDomain.Registry, ctrl *listingApp.Controller) error {
	key := ctrl.Key()
	fmt.Fprintf(out, "%s?%s\n", ctrl.Resource().Path, key.Query)
	if err := renderTable(out, ctrl.Resource(), registry.FieldNames(), ctrl.Items()); err != nil {
		return err
	}
	more := ""
	if ctrl.HasMore() {
		more = " (hay más)"
	}
	_, err := fmt.Fprintf(out, "%d registros%s\n", ctrl.Len(), more)
	return err
}

// follow aplica el change feed al listado abierto y lo vuelve a imprimir
// cuando cambia.
func follow(ctx context.Context, out io.Writer, cfg *config.Config, registry *sharedDomain.Registry, ctrl *listingApp.Controller, log *zap.Logger) error {
	hub := listingApp.NewHub(log)
	unregister := hub.Register(ctrl)
	defer unregister()

	reader := infraEvents.NewChangeFeedReader(cfg.KafkaBrokers, cfg.KafkaTopic, "backoffice-list-"+uuid.NewString())
	infraEvents.NewConsumerAdapter(reader, listingEvents.NewChangeConsumer(hub, log), log).Start(ctx)

	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()
	var seen uint64
	if e, ok := ctrl.Entry(); ok {
		seen = e.Mutations
	}
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			e, ok := ctrl.Entry()
			if !ok || e.Mutations == seen {
				continue
			}
			seen = e.Mutations
			if err := printList(out, registry, ctrl); err != nil {
				return err
			}
		}
	}
}
