package bootstrap

import (
	"context"
	"log"
	"time"

	"star-booking-be/internal/config"
	"star-booking-be/internal/controller"
	"star-booking-be/internal/pkg/gateway"
	"star-booking-be/internal/pkg/logger"
	"star-booking-be/internal/pkg/mailer"
	"star-booking-be/internal/repository/memory"
	"star-booking-be/internal/repository/unitofwork"
	"star-booking-be/internal/service"
	"star-booking-be/pkg/lock"
	pktNats "star-booking-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/benbjohnson/clock"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const starProfileCacheTTL = 10 * time.Minute

type Container struct {
	// Controllers
	AppointmentController  controller.IAppointmentController
	AvailabilityController controller.IAvailabilityController
	PaymentController      controller.IPaymentController
	AdminController        controller.IAdminController

	// Background services, started by main
	ConversationConsumer service.IConversationConsumer
	Reconciler           service.IReconciliationService

	Logger logger.ILogger

	closers []func()
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	return NewContainerWithClock(db, cfg, clock.New())
}

// NewContainerWithClock wires the services against clk, so one-off runs can
// evaluate the schedule as of another instant.
func NewContainerWithClock(db *gorm.DB, cfg *config.Config, clk clock.Clock) *Container {
	// 1. Core facades
	uowFactory := unitofwork.NewRepositoryFactory(db)
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")
	schedulerLogger := logger.NewIsolatedLogger(cfg.Scheduler.LogFilePath)

	c := &Container{Logger: sysLogger}

	var emailService mailer.IEmailService
	if cfg.SMTP.Enabled() {
		emailService = mailer.NewEmailService(
			cfg.SMTP.Host,
			cfg.SMTP.Port,
			cfg.SMTP.Email,
			cfg.SMTP.Password,
			cfg.SMTP.SenderName,
		)
	} else {
		log.Println("[INFO] SMTP not configured, booking emails are disabled")
	}

	// 2. In-process event bus for conversation purges
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermill.NewStdLogger(false, false),
	)
	c.closers = append(c.closers, func() { _ = pubSub.Close() })

	// 3. Infrastructure
	var publisher pktNats.EventPublisher
	natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
	} else {
		publisher = natsPub
		c.closers = append(c.closers, natsPub.Close)
	}

	locker := lock.NewLocalLocker()
	if cfg.App.RedisURL != "" {
		opt, err := redis.ParseURL(cfg.App.RedisURL)
		if err != nil {
			log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
			opt = &redis.Options{
				Addr: cfg.App.RedisURL,
			}
		}
		rdb := redis.NewClient(opt)
		if _, err := rdb.Ping(context.Background()).Result(); err != nil {
			log.Printf("[WARN] Failed to connect to Redis: %v", err)
		}
		locker = lock.NewRedisLocker(rdb)
		c.closers = append(c.closers, func() { _ = rdb.Close() })
	} else {
		log.Println("[INFO] REDIS_URL not set, scheduler runs with a process-local lock")
	}

	paymentGateway := gateway.NewMidtransGateway(
		cfg.Payment.MidtransServerKey,
		cfg.Payment.IsProduction,
		cfg.Payment.FinishRedirectURL,
	)

	// 4. Services
	profiles := service.NewStarProfileProvider(uowFactory, memory.NewStarProfileCache(starProfileCacheTTL))
	notifier := service.NewNotificationService(publisher, emailService, sysLogger)
	ledger := service.NewLedgerService(uowFactory, paymentGateway, sysLogger)
	purger := service.NewConversationPurger(pubSub, cfg.Purge.Topic)

	appointmentService := service.NewAppointmentService(
		uowFactory,
		ledger,
		profiles,
		notifier,
		service.NewInMemoryPager(),
		clk,
		sysLogger,
		cfg.Scheduler.CompletionSeconds,
	)
	availabilityService := service.NewAvailabilityService(uowFactory, profiles, clk, sysLogger)
	paymentService := service.NewPaymentService(
		uowFactory,
		ledger,
		paymentGateway,
		profiles,
		notifier,
		clk,
		sysLogger,
		cfg.Payment.LockTimeout,
	)

	c.Reconciler = service.NewReconciliationService(
		uowFactory,
		ledger,
		notifier,
		purger,
		paymentService,
		locker,
		clk,
		schedulerLogger,
		cfg.Scheduler,
	)
	c.ConversationConsumer = service.NewConversationConsumer(pubSub, cfg.Purge.Topic, uowFactory, sysLogger)

	// 5. Controllers
	c.AppointmentController = controller.NewAppointmentController(appointmentService, cfg.App.JwtSecret)
	c.AvailabilityController = controller.NewAvailabilityController(availabilityService, cfg.App.JwtSecret)
	c.PaymentController = controller.NewPaymentController(paymentService, sysLogger)
	c.AdminController = controller.NewAdminController(c.Reconciler, paymentService, cfg.App.JwtSecret)

	return c
}

// Close releases broker and cache connections in reverse order of creation.
func (c *Container) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
}
