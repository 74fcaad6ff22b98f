package main

import (
	"context"
	"log"

	"clearway-backend/controller"
	"clearway-backend/dal"
	"clearway-backend/models"
	"clearway-backend/repository"
	"clearway-backend/services"
	"clearway-backend/store"
	"clearway-backend/utils"
	"clearway-backend/utils/logger"
	"clearway-backend/worker"

	"github.com/gin-gonic/gin"
)

var config *models.Config

func Init() {
	var err error
	config, err = utils.GetConfig()
	if err != nil {
		log.Fatal(err)
	}
}

func main() {
	Init()

	appLogger := logger.NewLogger(config.LogLevel, config.LogFormat)
	appLogger.Infof("Config loaded: %s", utils.PrintPrettyJSON(config))

	ctx := context.Background()

	notifier := store.NewNotifier(config.NotifyCoalesceWindow)
	runner := store.NewFollowUpRunner(appLogger)
	jobStore := store.New(store.Deps{
		Notifier: notifier,
		Runner:   runner,
		Logger:   appLogger,
	})
	runner.Start()

	// The live store is authoritative; DynamoDB is the optional write-behind
	// archive and crew registry.
	var repoContainer repository.RepositoryContainerInterface
	var dbClient dal.DatabaseClientInterface
	if config.ArchiveEnabled {
		client, err := dal.NewDynamoDBClient(config, appLogger)
		if err != nil {
			log.Fatalf("Failed to initialize DynamoDB client: %v", err)
		}
		dbClient = client
		repoContainer = repository.NewRepository(dbClient, config, appLogger)
	}

	svc := services.NewService(jobStore, repoContainer, appLogger, config)

	r := gin.New()
	c := controller.NewController(ctx, svc, config, appLogger)

	// Start server (this is blocking)
	go func() {
		if err := c.RegisterRoutes(ctx, config, r, config.BasePath); err != nil {
			log.Fatalf("Server stopped: %v", err)
		}
	}()

	slaWorker, err := worker.NewService(ctx, config, appLogger, jobStore, dbClient)
	if err != nil {
		log.Fatalf("Failed to create SLA worker: %v", err)
	}
	if err := slaWorker.StartInBackground(); err != nil {
		log.Fatalf("Failed to start SLA worker: %v", err)
	}

	// Keep main goroutine alive
	select {}
}
