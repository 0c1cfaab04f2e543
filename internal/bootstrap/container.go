package bootstrap

import (
	"context"
	"fmt"

	"notehub-engine/internal/config"
	"notehub-engine/internal/controller"
	"notehub-engine/internal/entity"
	"notehub-engine/internal/handler"
	"notehub-engine/internal/pkg/logger"
	"notehub-engine/internal/repository/contract"
	"notehub-engine/internal/repository/implementation"
	"notehub-engine/internal/repository/memory"
	"notehub-engine/internal/service"
	"notehub-engine/internal/websocket"
	"notehub-engine/pkg/database"
	"notehub-engine/pkg/events"
	pktNats "notehub-engine/pkg/nats"
	"notehub-engine/pkg/origin"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const mutationDurable = "notehub-engine-mutations"

type Container struct {
	Config *config.Config
	Logger logger.ILogger
	Bus    *events.Bus

	// Engine services
	DocumentCacheService  service.IDocumentCacheService
	ViewService           service.IViewService
	SearchService         service.ISearchService
	FolderService         service.IFolderService
	ReferenceService      service.IReferenceService
	ResourceBridgeService service.IResourceBridgeService
	TagService            service.ITagService
	NoteService           service.INoteService
	Sessions              *memory.SessionRepository

	// Controllers
	DocumentController  controller.IDocumentController
	SearchController    controller.ISearchController
	ViewController      controller.IViewController
	ReferenceController controller.IReferenceController
	ChatController      controller.IChatController
	TagController       controller.ITagController

	// WebSockets & external events
	EventHandler    *handler.EventHandler
	MutationHandler *handler.MutationHandler
	WebSocketHub    *websocket.Hub
	NatsPublisher   *pktNats.Publisher
	NatsSubscriber  *pktNats.Subscriber

	db  *gorm.DB
	rdb *redis.Client
}

type stores struct {
	documents contract.DocumentStore
	tree      contract.TreeRepository
	resources contract.ResourceStore
}

// OpenDatabase connects and migrates when the postgres driver is selected.
// It returns nil for the memory driver.
func OpenDatabase(cfg *config.Config) (*gorm.DB, error) {
	if cfg.Database.Driver != "postgres" {
		return nil, nil
	}
	db, err := database.NewGormDBFromDSN(cfg.Database.Connection)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	if err := database.Migrate(db); err != nil {
		return nil, fmt.Errorf("migrate database: %w", err)
	}
	return db, nil
}

func newStores(db *gorm.DB) stores {
	if db == nil {
		return stores{
			documents: memory.NewDocumentStore(),
			tree:      memory.NewTreeRepository(),
			resources: memory.NewResourceStore(),
		}
	}
	return stores{
		documents: implementation.NewDocumentStore(db),
		tree:      implementation.NewTreeRepository(db),
		resources: implementation.NewResourceStore(db),
	}
}

func newRedis(cfg *config.Config, log logger.ILogger) *redis.Client {
	if cfg.App.RedisURL == "" {
		return nil
	}
	opt, err := redis.ParseURL(cfg.App.RedisURL)
	if err != nil {
		log.Warn("Bootstrap", "Failed to parse Redis URL, using it as address", map[string]interface{}{"error": err.Error()})
		opt = &redis.Options{Addr: cfg.App.RedisURL}
	}
	rdb := redis.NewClient(opt)
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		log.Warn("Bootstrap", "Redis unreachable, preferences stay in memory", map[string]interface{}{"error": err.Error()})
		_ = rdb.Close()
		return nil
	}
	return rdb
}

// NewContainer wires the engine. db may be nil, in which case every store is
// in memory.
func NewContainer(cfg *config.Config, db *gorm.DB, log logger.ILogger) *Container {
	st := newStores(db)
	rdb := newRedis(cfg, log)

	var prefs contract.PreferenceStore = memory.NewPreferenceStore()
	if rdb != nil {
		prefs = implementation.NewPreferenceStore(rdb)
	}
	sessions := memory.NewSessionRepository(cfg.Engine.SessionTTL)

	bus := events.NewBus(log)

	// 1. Engine services, in dependency order
	cache := service.NewDocumentCacheService(st.documents, bus, log, entity.ContentKindMarkdown)
	cache.SetMaintenanceMode(cfg.Engine.MaintenanceMode)

	view := service.NewViewService(cache, prefs, bus, log, cfg.Engine.ViewStatePrefKey, cfg.Engine.ViewPersistDebounce)
	search := service.NewSearchService(st.documents, bus, log)
	folders := service.NewFolderService(st.tree, log)

	origins := origin.NewRegistry(origin.NewFileProvider(st.documents))
	origins.Register(origin.NewDocumentProvider(cache, st.documents))
	origins.Register(origin.NewTextbookProvider(st.documents))
	origins.Register(origin.NewExamProvider(st.documents))
	origins.Register(origin.NewFileProvider(st.documents))

	references := service.NewReferenceService(folders, origins, bus, log, cfg.Engine.ValidationTTL, cfg.Engine.ValidationConcurrency)
	bridge := service.NewResourceBridgeService(cache, references, sessions, st.resources, origins, bus, log)
	tags := service.NewTagService(st.documents, cache, log)
	notes := service.NewNoteService(st.documents, cache, view, folders, bus, log, entity.ContentKindMarkdown)

	// 2. Event delivery
	wsLogger := logger.NewIsolatedLogger(cfg.App.EventLogFilePath)
	wsHub := websocket.NewHub(rdb, wsLogger)

	c := &Container{
		Config: cfg,
		Logger: log,
		Bus:    bus,

		DocumentCacheService:  cache,
		ViewService:           view,
		SearchService:         search,
		FolderService:         folders,
		ReferenceService:      references,
		ResourceBridgeService: bridge,
		TagService:            tags,
		NoteService:           notes,
		Sessions:              sessions,

		DocumentController:  controller.NewDocumentController(notes, cache),
		SearchController:    controller.NewSearchController(search),
		ViewController:      controller.NewViewController(view),
		ReferenceController: controller.NewReferenceController(references),
		ChatController:      controller.NewChatController(bridge),
		TagController:       controller.NewTagController(tags),

		EventHandler:    handler.NewEventHandler(wsHub, log),
		MutationHandler: handler.NewMutationHandler(notes, log),
		WebSocketHub:    wsHub,

		db:  db,
		rdb: rdb,
	}

	if cfg.App.NatsURL != "" {
		natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL, log)
		if err != nil {
			log.Warn("Bootstrap", "Failed to connect to NATS publisher", map[string]interface{}{"error": err.Error()})
		}
		natsSub, err := pktNats.NewSubscriber(cfg.App.NatsURL, log)
		if err != nil {
			log.Warn("Bootstrap", "Failed to connect to NATS subscriber", map[string]interface{}{"error": err.Error()})
		}
		c.NatsPublisher = natsPub
		c.NatsSubscriber = natsSub
	}

	return c
}

// Start runs background delivery and restores the workspace. Everything it
// starts stops when ctx is done.
func (c *Container) Start(ctx context.Context) error {
	go c.WebSocketHub.Run(ctx)
	if err := c.WebSocketHub.Forward(ctx, c.Bus); err != nil {
		return fmt.Errorf("forward events to websocket: %w", err)
	}

	if c.NatsPublisher != nil {
		if err := pktNats.Relay(ctx, c.Bus, c.NatsPublisher, c.Logger); err != nil {
			return fmt.Errorf("relay events to NATS: %w", err)
		}
	}
	if c.NatsSubscriber != nil {
		err := c.NatsSubscriber.Subscribe(ctx, c.Config.Engine.MutationSubject, mutationDurable, c.MutationHandler.Handle)
		if err != nil {
			c.Logger.Warn("Bootstrap", "Mutation notices disabled", map[string]interface{}{"error": err.Error()})
		}
	}

	if err := c.NoteService.LoadWorkspace(ctx); err != nil {
		return fmt.Errorf("load workspace: %w", err)
	}
	return nil
}

// Close flushes pending view state and releases connections.
func (c *Container) Close() {
	c.ViewService.Close()
	c.DocumentCacheService.Wait()

	if c.NatsSubscriber != nil {
		c.NatsSubscriber.Close()
	}
	if c.NatsPublisher != nil {
		c.NatsPublisher.Close()
	}
	if err := c.Bus.Close(); err != nil {
		c.Logger.Warn("Bootstrap", "Failed to close event bus", map[string]interface{}{"error": err.Error()})
	}
	if c.rdb != nil {
		_ = c.rdb.Close()
	}
	if c.db != nil {
		if sqlDB, err := c.db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
}
