package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-co-op/gocron/v2"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"example.com/campushub/services/events/config"
	"example.com/campushub/services/events/internal/cache"
	"example.com/campushub/services/events/internal/database"
	"example.com/campushub/services/events/internal/messaging"
	"example.com/campushub/services/events/internal/metrics"
	"example.com/campushub/services/events/internal/notifier"
	"example.com/campushub/services/events/internal/repositories"
	"example.com/campushub/services/events/internal/search"
	"example.com/campushub/services/events/internal/services"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Start the background worker",
	Long:  `Start the background worker that scans for upcoming deadlines and delivers reminder notifications`,
	RunE:  runWorker,
}

func init() {
	rootCmd.AddCommand(workerCmd)
}

func runWorker(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig(".")
	if err != nil {
		return err
	}

	if cfg.Environment == "development" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	ctx, stop := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	db, readOnlyDB, err := database.Connect(cfg.DB)
	if err != nil {
		return err
	}

	redisCache, err := cache.NewRedisCache(cfg.Redis)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to initialize Redis cache, dedup will hit the database directly")
		redisCache = nil
	}

	pushSender, err := messaging.NewPushSender(cfg.Push)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to initialize push sender, continuing with in-app delivery only")
		pushSender = nil
	} else {
		defer pushSender.Close()
	}

	elasticClient, err := search.NewElasticClient(cfg.Elastic)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to initialize Elasticsearch client, continuing without delivery audit indexing")
		elasticClient = nil
	}

	collector := metrics.NewMetrics()
	collector.SetHealth("database", true)

	eventRepo := repositories.NewEventRepository(db, readOnlyDB)
	assignmentRepo := repositories.NewAssignmentRepository(db, readOnlyDB)
	studentRepo := repositories.NewStudentProfileRepository(db, readOnlyDB)
	submissionRepo := repositories.NewSubmissionRepository(db, readOnlyDB)
	notificationRepo := repositories.NewNotificationRepository(db, readOnlyDB)

	gateway := notifier.New(notificationRepo, redisCache, pushSender, elasticClient)

	reminderService := services.NewReminderService(
		eventRepo,
		assignmentRepo,
		studentRepo,
		submissionRepo,
		gateway,
		collector,
		cfg.Reminders.LeadTime,
		cfg.Reminders.WindowPad,
	)

	g.Go(func() error {
		log.Info().Dur("interval", cfg.Reminders.Interval).Msg("Starting deadline reminder loop")

		scheduler, err := gocron.NewScheduler()
		if err != nil {
			return err
		}

		// The first scan fires at startup; after that the job runs on
		// the fixed interval regardless of prior tick outcomes.
		_, err = scheduler.NewJob(
			gocron.DurationJob(cfg.Reminders.Interval),
			gocron.NewTask(func() {
				reminderService.Run(ctx)
			}),
			gocron.WithStartAt(gocron.WithStartImmediately()),
		)
		if err != nil {
			return err
		}

		scheduler.Start()

		<-ctx.Done()

		return scheduler.Shutdown()
	})

	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("Worker error")
		return err
	}

	log.Info().Msg("Worker shutting down gracefully")
	return nil
}
