package cmd

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/viniciussvasques/crm-innexar/internal/application"
	"github.com/viniciussvasques/crm-innexar/internal/application/commands"
	"github.com/viniciussvasques/crm-innexar/internal/application/interfaces"
	"github.com/viniciussvasques/crm-innexar/internal/application/processors"
	"github.com/viniciussvasques/crm-innexar/internal/application/query"
	"github.com/viniciussvasques/crm-innexar/internal/infra/ai"
	"github.com/viniciussvasques/crm-innexar/internal/infra/config"
	"github.com/viniciussvasques/crm-innexar/internal/infra/db/repo"
	"github.com/viniciussvasques/crm-innexar/internal/infra/deploy"
	"github.com/viniciussvasques/crm-innexar/internal/infra/genlog"
	"github.com/viniciussvasques/crm-innexar/internal/infra/mail"
	"github.com/viniciussvasques/crm-innexar/internal/infra/template"
	"github.com/viniciussvasques/crm-innexar/internal/presentation/queue"
	"github.com/viniciussvasques/crm-innexar/internal/presentation/rest"
	dbs "github.com/viniciussvasques/crm-innexar/pkg/db"
	"github.com/viniciussvasques/crm-innexar/pkg/env"
)

func Init() {
	if err := godotenv.Load(); err != nil {
		slog.Info("no .env file loaded", "error", err)
	}

	// DB
	dbConfig := dbs.NewConfig()
	pool, err := pgxpool.New(context.Background(), dbConfig.GetDSN())
	if err != nil {
		log.Panicf("failed to create pool: %v", err)
	}
	err = pool.Ping(context.Background())
	if err != nil {
		log.Panicf("failed to connect to db: %v", err)
	}
	uowFactory := dbs.NewUoWFactory(pool)

	// Configs
	generatorConfig := config.NewGeneratorConfig()
	templateConfig := template.NewConfig()
	queueConfig := queue.NewConfig()
	paymentConfig := commands.NewPaymentConfig()
	mailConfig := mail.NewConfig()

	// Infra
	sink := genlog.NewSink(pool)
	mailer := mail.NewMailer(mailConfig)

	// Queue
	if err := queueConfig.Ping(context.Background()); err != nil {
		log.Panicf("failed to connect to redis: %v", err)
	}
	client := queue.NewClient(queueConfig)
	// Every execution gets its own gateway, materializer and provider
	// clients, nothing leaks between generation runs.
	factory := func() *processors.GenerateSite {
		credentials := deploy.NewCredentialStore(pool)
		return processors.NewGenerateSite(
			generatorConfig,
			repo.NewOrderRepo(pool),
			repo.NewDeliverableRepo(pool),
			repo.NewDeploymentRepo(pool),
			genlog.NewSink(pool),
			ai.NewGateway(ai.NewPgRoutingStore(pool)),
			template.NewMaterializer(templateConfig),
			[]interfaces.Deployer{
				deploy.NewGitHubDeployer(credentials),
				deploy.NewStorageDeployer(credentials),
				deploy.NewPagesDeployer(credentials),
				deploy.NewDNSDeployer(credentials),
			},
			mailer,
		)
	}
	sweeper := queue.NewSweeper(repo.NewOrderRepo(pool), client)
	worker := queue.NewWorker(queueConfig, factory, sweeper)
	scheduler, err := queue.NewSchedulerWithSweep(queueConfig)
	if err != nil {
		log.Panicf("failed to build scheduler: %v", err)
	}

	handlers := &application.Collection{
		Payment:          commands.NewPayment(uowFactory, mailer, paymentConfig),
		SubmitOnboarding: commands.NewSubmitOnboarding(uowFactory, client, mailer),
		StartGeneration:  commands.NewStartGeneration(uowFactory, client),
		GetOrder:         query.NewGetOrder(pool),
		GetLogs:          query.NewGetLogs(sink),
		CheckStage:       query.NewCheckStage(generatorConfig, pool, sink),
	}
	server := rest.NewServer(handlers, rest.NewAuthConfig())
	app := fiber.New(fiber.Config{
		IdleTimeout: 5 * time.Second,
	})
	app.Use(cors.New(cors.Config{
		AllowOrigins:     env.GetEnv("CORS_ORIGINS", "http://localhost:3000"),
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, Stripe-Signature",
		AllowCredentials: true,
	}))
	server.Register(app)

	go func() {
		if err := worker.Start(); err != nil {
			log.Panic(err)
		}
	}()
	go func() {
		if err := scheduler.Start(); err != nil {
			log.Panic(err)
		}
	}()
	go func() {
		if err := app.Listen(":" + env.GetEnv("HTTP_PORT", "8080")); err != nil {
			log.Panic(err)
		}
	}()

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	<-c
	fmt.Println("Gracefully shutting down...")
	_ = app.Shutdown()
	scheduler.Shutdown()
	worker.Shutdown()
	_ = client.Close()

	pool.Close()
	fmt.Println("Shutdown complete.")
}
