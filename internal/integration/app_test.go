package integration_test

import (
	"log/slog"
	"os"
	"time"

	"github.com/cinetix/movie-ticket-booking/internal/app"
	"github.com/cinetix/movie-ticket-booking/internal/mailer"
	"github.com/cinetix/movie-ticket-booking/internal/payment"
	"github.com/cinetix/movie-ticket-booking/internal/repository"
	appvalidator "github.com/cinetix/movie-ticket-booking/internal/validator"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

type TestApp struct {
	App    *app.Application
	DB     *pgxpool.Pool
	Redis  *redis.Client
	Mailer *mailer.MockMailer
}

func newTestApp(cfg app.Config) (*TestApp, error) {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	validator := appvalidator.NewValidator()
	mockMailer := mailer.NewMockMailer()

	location, err := time.LoadLocation(cfg.TimeZone)
	if err != nil {
		return nil, err
	}

	db, err := app.NewDatabasePool(cfg)
	if err != nil {
		return nil, err
	}

	redisClient, err := app.NewRedisClient(cfg)
	if err != nil {
		db.Close()
		return nil, err
	}

	sessionManager := app.NewSessionManager(redisClient)

	movieRepo := repository.NewPostgresMovieRepository(db)
	theaterRepo := repository.NewPostgresTheaterRepository(db)
	bookingRepo := repository.NewPostgresBookingRepository(db)
	paymentRepo := repository.NewPostgresPaymentRepository(db)

	paymentProvider := payment.NewMockPaymentProvider()

	application := app.NewApp(
		cfg,
		logger,
		db,
		redisClient,
		validator,
		mockMailer,
		sessionManager,
		location,
		movieRepo,
		theaterRepo,
		bookingRepo,
		paymentRepo,
		paymentProvider,
	)

	return &TestApp{
		App:    application,
		DB:     db,
		Redis:  redisClient,
		Mailer: mockMailer,
	}, nil
}
