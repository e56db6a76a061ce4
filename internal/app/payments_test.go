package app

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/cinetix/movie-ticket-booking/api"
	"github.com/cinetix/movie-ticket-booking/internal/domain"
	"github.com/cinetix/movie-ticket-booking/internal/mocks"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
	"github.com/stripe/stripe-go/v82"
)

type PaymentsTestSuite struct {
	suite.Suite
	app             *Application
	movieRepo       *mocks.MockMovieRepo
	theaterRepo     *mocks.MockTheaterRepo
	bookingRepo     *mocks.MockBookingRepo
	paymentRepo     *mocks.MockPaymentRepo
	paymentProvider *mocks.MockPaymentProvider
	redisClient     *mocks.MockRedisClient
	pipeline        *mocks.MockTxPipeline
}

func (s *PaymentsTestSuite) SetupTest() {
	s.movieRepo = new(mocks.MockMovieRepo)
	s.theaterRepo = new(mocks.MockTheaterRepo)
	s.bookingRepo = new(mocks.MockBookingRepo)
	s.paymentRepo = new(mocks.MockPaymentRepo)
	s.paymentProvider = new(mocks.MockPaymentProvider)
	s.redisClient = new(mocks.MockRedisClient)
	s.pipeline = new(mocks.MockTxPipeline)

	s.app = newTestApplication(func(a *Application) {
		a.movieRepo = s.movieRepo
		a.theaterRepo = s.theaterRepo
		a.bookingRepo = s.bookingRepo
		a.paymentRepo = s.paymentRepo
		a.paymentProvider = s.paymentProvider
		a.redis = s.redisClient
	})
}

func TestPaymentsSuite(t *testing.T) {
	suite.Run(t, new(PaymentsTestSuite))
}

func testIntentRequest() api.CreatePaymentIntentRequest {
	return api.CreatePaymentIntentRequest{
		Movie:   testMovieID.String(),
		Theater: "Grand Cinema",
		Date:    "2099-06-15",
		Time:    "8:00 PM",
		Seats:   []string{"A1", "A2"},
	}
}

func (s *PaymentsTestSuite) mockHoldAcquisition() {
	s.redisClient.On("EvalSha", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(redis.NewCmdResult("OK", nil))

	s.redisClient.On("TxPipeline").Return(s.pipeline)
	s.pipeline.On("SAdd", mock.Anything, mock.Anything, mock.Anything).Return(redis.NewIntResult(2, nil))
	s.pipeline.On("Expire", mock.Anything, mock.Anything, seatHoldTTL).Return(redis.NewBoolResult(true, nil))
	s.pipeline.On("Exec", mock.Anything).Return([]redis.Cmder{}, nil)
}

func (s *PaymentsTestSuite) mockHoldRelease() {
	s.pipeline.On("Del", mock.Anything, mock.Anything).Return(redis.NewIntResult(2, nil))
	s.pipeline.On("SRem", mock.Anything, mock.Anything, mock.Anything).Return(redis.NewIntResult(2, nil))
}

func (s *PaymentsTestSuite) TestCreatePaymentIntent() {
	theater := &domain.Theater{ID: testTheaterID, Name: "Grand Cinema"}

	tests := []struct {
		name           string
		mutate         func(*api.CreatePaymentIntentRequest)
		setupMocks     func()
		wantStatus     int
		wantErrMessage string
	}{
		{
			name:           "should fail when no seats are selected",
			mutate:         func(req *api.CreatePaymentIntentRequest) { req.Seats = nil },
			wantStatus:     http.StatusUnprocessableEntity,
			wantErrMessage: "is required",
		},
		{
			name: "should fail when movie does not exist",
			setupMocks: func() {
				s.movieRepo.On("GetById", mock.Anything, testMovieID).
					Return(nil, domain.ErrRecordNotFound)
			},
			wantStatus:     http.StatusNotFound,
			wantErrMessage: "movie not found",
		},
		{
			name:   "should fail when time matches no showtime of the movie",
			mutate: func(req *api.CreatePaymentIntentRequest) { req.Time = "11:00 PM" },
			setupMocks: func() {
				s.movieRepo.On("GetById", mock.Anything, testMovieID).Return(testMovie(), nil)
			},
			wantStatus:     http.StatusBadRequest,
			wantErrMessage: domain.ErrShowtimeNotFound.Error(),
		},
		{
			name: "should fail when a requested seat is already booked",
			setupMocks: func() {
				s.movieRepo.On("GetById", mock.Anything, testMovieID).Return(testMovie(), nil)
				s.theaterRepo.On("GetOrCreateByName", mock.Anything, "Grand Cinema").Return(theater, nil)
				s.bookingRepo.On("GetOccupiedSeats", mock.Anything, mock.Anything).
					Return([]string{"A2"}, nil)
			},
			wantStatus:     http.StatusConflict,
			wantErrMessage: domain.ErrSeatAlreadyReserved.Error(),
		},
		{
			name: "should fail when a requested seat is held by another checkout",
			setupMocks: func() {
				s.movieRepo.On("GetById", mock.Anything, testMovieID).Return(testMovie(), nil)
				s.theaterRepo.On("GetOrCreateByName", mock.Anything, "Grand Cinema").Return(theater, nil)
				s.bookingRepo.On("GetOccupiedSeats", mock.Anything, mock.Anything).
					Return([]string{}, nil)

				s.redisClient.On("EvalSha", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
					Return(redis.NewCmdResult(nil, mocks.MockRedisError{Msg: "seat already held"}))
			},
			wantStatus:     http.StatusConflict,
			wantErrMessage: domain.ErrSeatHeldElsewhere.Error(),
		},
		{
			name: "should release holds when the payment provider fails",
			setupMocks: func() {
				s.movieRepo.On("GetById", mock.Anything, testMovieID).Return(testMovie(), nil)
				s.theaterRepo.On("GetOrCreateByName", mock.Anything, "Grand Cinema").Return(theater, nil)
				s.bookingRepo.On("GetOccupiedSeats", mock.Anything, mock.Anything).
					Return([]string{}, nil)
				s.mockHoldAcquisition()
				s.mockHoldRelease()

				s.paymentProvider.On("CreatePaymentIntent", mock.Anything, mock.Anything).
					Return(nil, fmt.Errorf("stripe unavailable"))
			},
			wantStatus:     http.StatusInternalServerError,
			wantErrMessage: ErrInternalServer,
		},
		{
			name: "should create intent with the server-side amount",
			setupMocks: func() {
				s.movieRepo.On("GetById", mock.Anything, testMovieID).Return(testMovie(), nil)
				s.theaterRepo.On("GetOrCreateByName", mock.Anything, "Grand Cinema").Return(theater, nil)
				s.bookingRepo.On("GetOccupiedSeats", mock.Anything, mock.Anything).
					Return([]string{}, nil)
				s.mockHoldAcquisition()

				s.paymentProvider.On("CreatePaymentIntent", mock.Anything, mock.MatchedBy(func(d domain.CheckoutDetails) bool {
					return d.Amount.Equal(decimal.NewFromInt(900)) && d.Currency == "PHP"
				})).Return(&stripe.PaymentIntent{
					ID:           "pi_123",
					ClientSecret: "pi_123_secret",
					Amount:       90000,
					Currency:     stripe.CurrencyPHP,
				}, nil)

				s.paymentRepo.On("Create", mock.Anything, mock.MatchedBy(func(p *domain.Payment) bool {
					return p.PaymentIntentID == "pi_123" &&
						p.Status == domain.PaymentStatusPending &&
						p.Amount.Equal(decimal.NewFromInt(900))
				})).Return(nil)
			},
			wantStatus: http.StatusOK,
		},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			s.SetupTest()

			defer s.movieRepo.AssertExpectations(s.T())
			defer s.theaterRepo.AssertExpectations(s.T())
			defer s.bookingRepo.AssertExpectations(s.T())
			defer s.paymentRepo.AssertExpectations(s.T())
			defer s.paymentProvider.AssertExpectations(s.T())

			if tt.setupMocks != nil {
				tt.setupMocks()
			}

			input := testIntentRequest()
			if tt.mutate != nil {
				tt.mutate(&input)
			}

			w, r := executeRequest(s.T(), http.MethodPost, "/payment-intents", input)
			r = setupTestSession(s.T(), s.app, r)

			s.app.CreatePaymentIntent(w, r)

			s.Equal(tt.wantStatus, w.Code)

			if tt.wantStatus == http.StatusOK {
				var response api.PaymentIntentResponse
				s.Require().NoError(json.NewDecoder(w.Body).Decode(&response))

				s.Equal("pi_123_secret", response.ClientSecret)
				s.Equal(int64(90000), response.Amount)
				s.Equal("php", response.Currency)
			}

			checkErrorResponse(s.T(), w, struct {
				wantStatus     int
				wantErrMessage string
			}{
				wantStatus:     tt.wantStatus,
				wantErrMessage: tt.wantErrMessage,
			})
		})
	}
}

func (s *PaymentsTestSuite) TestStripeWebhookRejectsUnsignedPayload() {
	payload := map[string]any{"type": "payment_intent.succeeded"}

	w, r := executeRequest(s.T(), http.MethodPost, "/webhook", payload)
	s.app.StripeWebhook(w, r)

	s.Equal(http.StatusBadRequest, w.Code)

	checkErrorResponse(s.T(), w, struct {
		wantStatus     int
		wantErrMessage string
	}{
		wantStatus:     http.StatusBadRequest,
		wantErrMessage: "webhook signature verification failed",
	})
}

func (s *PaymentsTestSuite) TestReconcilePayment() {
	tests := []struct {
		name       string
		intent     *stripe.PaymentIntent
		setupMocks func()
		wantErr    bool
	}{
		{
			name:   "should mark payment completed when captured amount matches",
			intent: &stripe.PaymentIntent{ID: "pi_123", AmountReceived: 90000},
			setupMocks: func() {
				s.paymentRepo.On("GetByIntentID", mock.Anything, "pi_123").
					Return(&domain.Payment{
						PaymentIntentID: "pi_123",
						Amount:          decimal.NewFromInt(900),
						Status:          domain.PaymentStatusPending,
					}, nil)

				s.paymentRepo.On("UpdateStatus", mock.Anything, "pi_123", domain.PaymentStatusCompleted, "").
					Return(nil)
			},
		},
		{
			name:   "should mark payment failed when captured amount differs",
			intent: &stripe.PaymentIntent{ID: "pi_123", AmountReceived: 45000},
			setupMocks: func() {
				s.paymentRepo.On("GetByIntentID", mock.Anything, "pi_123").
					Return(&domain.Payment{
						PaymentIntentID: "pi_123",
						Amount:          decimal.NewFromInt(900),
						Status:          domain.PaymentStatusPending,
					}, nil)

				s.paymentRepo.On("UpdateStatus", mock.Anything, "pi_123",
					domain.PaymentStatusFailed, "captured amount 45000 does not match expected 90000").
					Return(nil)
			},
		},
		{
			// Surfacing an error would make the processor retry the delivery
			// forever for an intent this service never issued.
			name:   "should ignore unknown intents",
			intent: &stripe.PaymentIntent{ID: "pi_unknown", AmountReceived: 90000},
			setupMocks: func() {
				s.paymentRepo.On("GetByIntentID", mock.Anything, "pi_unknown").
					Return(nil, domain.ErrRecordNotFound)
			},
		},
		{
			name:   "should surface store errors",
			intent: &stripe.PaymentIntent{ID: "pi_123", AmountReceived: 90000},
			setupMocks: func() {
				s.paymentRepo.On("GetByIntentID", mock.Anything, "pi_123").
					Return(nil, fmt.Errorf("database error"))
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			s.SetupTest()

			defer s.paymentRepo.AssertExpectations(s.T())

			tt.setupMocks()

			err := s.app.reconcilePayment(context.Background(), tt.intent)

			if tt.wantErr {
				s.Error(err)
			} else {
				s.NoError(err)
			}
		})
	}
}
