// Package server initializes and runs the main application server.
// It connects the metadata and blob backends, wires the sync and file
// services, handles graceful shutdown, and starts the HTTP endpoint.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/dbelovs/syncbox/internal/blobstore"
	"github.com/dbelovs/syncbox/internal/logging"
	"github.com/dbelovs/syncbox/internal/server/config"
	"github.com/dbelovs/syncbox/internal/server/httpapi"
	"github.com/dbelovs/syncbox/internal/server/repositories/files"
	"github.com/dbelovs/syncbox/internal/server/repositories/sessions"
	"github.com/dbelovs/syncbox/internal/server/services"
	"github.com/dbelovs/syncbox/internal/tracing"
)

const (
	filesCollection    = "files"
	sessionsCollection = "sync_sessions"
)

type App struct {
	config      *config.Config
	logger      logging.Logger
	mongoClient *mongo.Client
	syncService *services.SyncService
	fileService *services.FileService
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {

	sl := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	logger := logging.NewSlogLogger(sl)

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(c.MongoURI))
	if err != nil {
		return nil, fmt.Errorf("mongo connect error: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		return nil, fmt.Errorf("mongo ping error: %w", err)
	}

	db := client.Database(c.MongoDatabase)
	fileRepo := files.NewMongoRepository(db.Collection(filesCollection))
	sessionRepo := sessions.NewMongoRepository(db.Collection(sessionsCollection))

	blobs, err := blobstore.NewMinioStore(ctx, c.MinioEndpoint, c.MinioAccessKey, c.MinioSecretKey, c.MinioBucket, c.MinioUseSSL)
	if err != nil {
		return nil, fmt.Errorf("blob store init error: %w", err)
	}

	ss := services.NewSyncService(fileRepo, sessionRepo, blobs, logger)
	fs := services.NewFileService(fileRepo, blobs, logger)

	return &App{config: c, logger: logger, mongoClient: client, syncService: ss, fileService: fs}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {

	maxArchiveBytes := app.config.MaxArchiveSizeMB << 20
	s := httpapi.NewServer(app.config.EndpointAddr, app.logger, app.syncService, app.fileService, maxArchiveBytes, app.config.ShutdownTimeout)

	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	if app.config.OTLPEndpoint != "" {
		shutdown, err := tracing.InitTracer(ctx, "syncbox-server", app.config.OTLPEndpoint)
		if err != nil {
			app.logger.Error(ctx, "tracing init", "error", err.Error())
		} else {
			defer func() {
				if err := shutdown(context.Background()); err != nil {
					app.logger.Error(ctx, "tracing shutdown", "error", err.Error())
				}
			}()
		}
	}

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	wg.Wait()

	if err := app.mongoClient.Disconnect(context.Background()); err != nil {
		app.logger.Error(ctx, "mongo disconnect", "error", err.Error())
	}
}
