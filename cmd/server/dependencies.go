package main

import (
	"context"
	"fmt"

	"unicarpool/internal/config"
	"unicarpool/internal/handlers/driver"
	"unicarpool/internal/handlers/rider"
	handlers "unicarpool/internal/handlers/shared"
	"unicarpool/internal/models"
	"unicarpool/internal/repositories/interfaces"
	"unicarpool/internal/repositories/memory"
	"unicarpool/internal/repositories/mongodb"
	"unicarpool/internal/services"
	"unicarpool/pkg/cache"
	"unicarpool/pkg/database"
	"unicarpool/pkg/logger"
	"unicarpool/pkg/mailer"
	"unicarpool/pkg/push"
	"unicarpool/pkg/queue"
	"unicarpool/pkg/sms"
	"unicarpool/pkg/websocket"
	"unicarpool/routes"
)

type dependencies struct {
	logger  *logger.Logger
	hub     *websocket.Hub
	checks  map[string]handlers.HealthCheck
	closers []func() error

	users       interfaces.UserRepository
	rides       interfaces.RideRepository
	requests    interfaces.RideRequestRepository
	reviews     interfaces.ReviewRepository
	emergencies interfaces.EmergencyRepository

	authService      services.AuthService
	userService      services.UserService
	rideService      services.RideService
	requestService   services.RideRequestService
	bookingService   services.BookingService
	reviewService    services.ReviewService
	emergencyService services.EmergencyService
}

func buildDependencies(ctx context.Context, cfg *config.Config, appLogger *logger.Logger) (*dependencies, error) {
	d := &dependencies{
		logger: appLogger,
		hub:    websocket.NewHub(appLogger),
		checks: make(map[string]handlers.HealthCheck),
	}

	store, err := d.initCache(ctx, cfg)
	if err != nil {
		d.Close()
		return nil, err
	}
	if err := d.initStore(ctx, cfg, store); err != nil {
		d.Close()
		return nil, err
	}
	broker, err := d.initBroker(cfg)
	if err != nil {
		d.Close()
		return nil, err
	}

	events := services.NewNotificationService(d.users, d.hub, broker, d.initPush(ctx, cfg), appLogger)
	d.closers = append(d.closers, events.Close)

	d.authService = services.NewAuthService(d.users, store, d.initMailer(cfg), services.AuthConfig{
		JWTSecret:         cfg.Security.JWTSecret,
		TokenTTL:          cfg.Security.JWTAccessTokenTTL,
		OTPExpiry:         cfg.Security.OTPExpiry,
		MaxLoginAttempts:  cfg.Security.MaxLoginAttempts,
		LoginLockoutTime:  cfg.Security.LoginLockoutTime,
		SchoolEmailDomain: cfg.App.SchoolEmailDomain,
	}, appLogger)
	d.userService = services.NewUserService(d.users, cfg.App.SchoolEmailDomain, appLogger)
	d.rideService = services.NewRideService(d.rides, d.requests, d.users, events, appLogger)
	d.requestService = services.NewRideRequestService(d.rides, d.requests, d.users, events, appLogger)
	d.bookingService = services.NewBookingService(d.rides, d.requests, d.reviews)
	d.reviewService = services.NewReviewService(d.reviews, d.rides, d.requests, events, appLogger)
	d.emergencyService = services.NewEmergencyService(d.emergencies, d.rides, d.requests, d.users, d.initSMS(ctx, cfg), events, services.EmergencyConfig{
		Numbers:            cfg.Emergency.Numbers,
		NotifyParticipants: cfg.Emergency.NotifyRiders,
		DefaultCountryCode: cfg.SMS.DefaultCountryCode,
		MessagePrefix:      cfg.Emergency.MessagePrefix,
	}, appLogger)

	return d, nil
}

// initCache connects to Redis, or falls back to a process-local cache when
// Redis is disabled. Codes and login counters then do not survive a restart.
func (d *dependencies) initCache(ctx context.Context, cfg *config.Config) (cache.Cache, error) {
	if !cfg.Redis.Enabled {
		d.logger.Warn("Redis disabled, using in-process cache")
		memoryCache := cache.NewMemoryCache()
		d.closers = append(d.closers, memoryCache.Close)
		return memoryCache, nil
	}

	redisCache, err := cache.NewRedisCache(cfg.Redis.Client())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	if err := redisCache.Ping(ctx); err != nil {
		_ = redisCache.Close()
		return nil, fmt.Errorf("failed to ping Redis: %w", err)
	}
	d.closers = append(d.closers, redisCache.Close)
	d.checks["redis"] = redisCache.Ping
	return redisCache, nil
}

func (d *dependencies) initStore(ctx context.Context, cfg *config.Config, store cache.Cache) error {
	if cfg.App.Storage == config.StorageMemory {
		d.logger.Warn("Using in-memory storage, data is lost on restart")
		d.users = memory.NewUserRepository()
		d.rides = memory.NewRideRepository()
		d.requests = memory.NewRideRequestRepository()
		d.reviews = memory.NewReviewRepository()
		d.emergencies = memory.NewEmergencyRepository()
		return nil
	}

	db, err := database.NewMongoDB(ctx, cfg.Database.Client())
	if err != nil {
		return fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	d.closers = append(d.closers, db.Close)
	d.checks["mongodb"] = db.Ping

	if cfg.Database.MigrateOnStart {
		if err := database.NewMigrator(db.Database, d.logger).Up(ctx); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	d.users = mongodb.NewUserRepository(db.Database)
	d.rides = mongodb.NewRideRepository(db.Database)
	d.requests = mongodb.NewRideRequestRepository(db.Database)
	d.reviews = mongodb.NewReviewRepository(db.Database, store)
	d.emergencies = mongodb.NewEmergencyRepository(db.Database)
	return nil
}

// initBroker returns nil when no broker is configured. The result is typed as
// the interface so a missing broker stays a true nil.
func (d *dependencies) initBroker(cfg *config.Config) (services.BrokerPublisher, error) {
	if cfg.RabbitMQ.URL == "" {
		d.logger.Info("RabbitMQ not configured, events stay in-process")
		return nil, nil
	}

	publisher, err := queue.NewRabbitMQPublisher(queue.Config{
		URL:      cfg.RabbitMQ.URL,
		Exchange: cfg.RabbitMQ.Exchange,
		Bindings: cfg.RabbitMQ.Bindings,
	}, d.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}
	d.closers = append(d.closers, publisher.Close)
	return publisher, nil
}

// initPush builds whichever push providers have credentials. A provider that
// fails to start is logged and skipped; push is best-effort.
func (d *dependencies) initPush(ctx context.Context, cfg *config.Config) map[models.DevicePlatform]push.PushProvider {
	providers := make(map[models.DevicePlatform]push.PushProvider)

	if cfg.Push.FCM.Enabled() {
		fcm, err := push.NewFCMProvider(ctx, cfg.Push.FCM.Credentials)
		if err != nil {
			d.logger.WithError(err).Error("Failed to initialize FCM")
		} else {
			providers[models.PlatformAndroid] = fcm
		}
	}

	if cfg.Push.APNS.Enabled() {
		apns, err := push.NewAPNSProvider(cfg.Push.APNS.KeyFile, cfg.Push.APNS.KeyID, cfg.Push.APNS.TeamID, cfg.Push.APNS.BundleID, cfg.Push.APNS.Production)
		if err != nil {
			d.logger.WithError(err).Error("Failed to initialize APNs")
		} else {
			providers[models.PlatformIOS] = apns
		}
	}

	return providers
}

func (d *dependencies) initSMS(ctx context.Context, cfg *config.Config) sms.SMSProvider {
	switch cfg.SMS.Provider {
	case config.SMSProviderTwilio:
		return sms.NewTwilioProvider(cfg.SMS.Twilio.AccountSID, cfg.SMS.Twilio.AuthToken, cfg.SMS.Twilio.FromNumber)
	case config.SMSProviderSNS:
		provider, err := sms.NewAWSSNSProvider(ctx, cfg.SMS.AWS.Region)
		if err != nil {
			d.logger.WithError(err).Error("Failed to initialize AWS SNS, emergency SMS disabled")
			return nil
		}
		return provider
	default:
		d.logger.Warn("No SMS provider configured, emergency alerts will not be texted")
		return nil
	}
}

func (d *dependencies) initMailer(cfg *config.Config) mailer.Mailer {
	if !cfg.SMTP.Configured() {
		d.logger.Warn("SMTP not configured, verification codes are written to the log")
		return mailer.NewLogMailer(d.logger)
	}
	return mailer.NewSMTPMailer(mailer.SMTPConfig{
		Host:      cfg.SMTP.Host,
		Port:      cfg.SMTP.Port,
		Username:  cfg.SMTP.Username,
		Password:  cfg.SMTP.Password,
		FromEmail: cfg.SMTP.FromEmail,
		FromName:  cfg.SMTP.FromName,
	})
}

func (d *dependencies) handlers(cfg *config.Config) *routes.Handlers {
	return &routes.Handlers{
		Health:    handlers.NewHealthHandler(cfg.App.Version, d.checks),
		Auth:      handlers.NewAuthHandler(d.authService),
		User:      handlers.NewUserHandler(d.userService, d.authService, d.rideService),
		Rating:    handlers.NewRatingHandler(d.reviewService),
		Emergency: handlers.NewEmergencyHandler(d.emergencyService),
		WebSocket: websocket.NewHandler(d.hub, cfg.WebSocket.AllowedOrigins, d.logger),

		DriverRides:    driver.NewRideHandler(d.rideService),
		DriverRequests: driver.NewRideRequestHandler(d.requestService),
		DriverReviews:  driver.NewReviewHandler(d.reviewService),

		RiderRides:    rider.NewRideHandler(d.rideService),
		RiderRequests: rider.NewRideRequestHandler(d.requestService, d.bookingService),
		RiderReviews:  rider.NewReviewHandler(d.reviewService),
	}
}

// Close releases connections in reverse order of creation.
func (d *dependencies) Close() {
	for i := len(d.closers) - 1; i >= 0; i-- {
		if err := d.closers[i](); err != nil {
			d.logger.WithError(err).Warn("Failed to close dependency")
		}
	}
	d.closers = nil
}
