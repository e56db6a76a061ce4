// Package api defines the JSON request and response shapes of the booking API.
package api

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// ClientPrice carries the price a client claims it displayed. Browsers send
// it as a JSON number, older clients as a formatted string. The value is only
// a hint, so decoding accepts either shape and never fails the request.
type ClientPrice string

func (p *ClientPrice) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*p = ClientPrice(s)
		return nil
	}

	if string(data) == "null" {
		*p = ""
		return nil
	}

	*p = ClientPrice(data)
	return nil
}

type ErrorResponse struct {
	Message   string    `json:"message"`
	RequestId string    `json:"requestId,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

type ValidationError struct {
	Field string `json:"field"`
	Issue string `json:"issue"`
}

type ValidationErrorResponse struct {
	Message          string            `json:"message"`
	RequestId        string            `json:"requestId,omitempty"`
	Timestamp        time.Time         `json:"timestamp"`
	ValidationErrors []ValidationError `json:"validationErrors"`
}

type SystemInfo struct {
	Version     string `json:"version"`
	Environment string `json:"environment"`
}

type HealthcheckResponse struct {
	Status     string     `json:"status"`
	SystemInfo SystemInfo `json:"systemInfo"`
}

type ShowtimeRequest struct {
	Time       string          `json:"time" validate:"required,time_label"`
	TotalSeats int             `json:"totalSeats"`
	Price      decimal.Decimal `json:"price" validate:"required"`
}

type Showtime struct {
	Time       string          `json:"time"`
	TotalSeats int             `json:"totalSeats"`
	Price      decimal.Decimal `json:"price"`
	Available  *int            `json:"available,omitempty"`
}

type MovieRequest struct {
	Title       string            `json:"title" validate:"required"`
	Description string            `json:"description" validate:"required"`
	Poster      string            `json:"poster" validate:"required"`
	Backdrop    string            `json:"backdrop" validate:"required"`
	Year        string            `json:"year" validate:"required"`
	Duration    string            `json:"duration" validate:"required"`
	Genre       string            `json:"genre" validate:"required"`
	Studio      string            `json:"studio" validate:"required"`
	Rating      string            `json:"rating" validate:"required"`
	Trailer     string            `json:"trailer" validate:"required"`
	Showtimes   []ShowtimeRequest `json:"showtimes" validate:"omitempty,dive"`
}

type MovieStatusRequest struct {
	IsActive    bool       `json:"isActive"`
	ScheduledAt *time.Time `json:"scheduledAt"`
}

type MovieResponse struct {
	Id          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Poster      string     `json:"poster"`
	Backdrop    string     `json:"backdrop"`
	Year        string     `json:"year"`
	Duration    string     `json:"duration"`
	Genre       string     `json:"genre"`
	Studio      string     `json:"studio"`
	Rating      string     `json:"rating"`
	Trailer     string     `json:"trailer"`
	Showtimes   []Showtime `json:"showtimes"`
	IsActive    bool       `json:"isActive"`
	ScheduledAt *time.Time `json:"scheduledAt"`
	CreatedAt   time.Time  `json:"createdAt"`
}

type CreateBookingRequest struct {
	Movie           string      `json:"movie" validate:"required,uuid4"`
	Theater         string      `json:"theater" validate:"required,max=120"`
	Date            string      `json:"date" validate:"required,show_date"`
	Time            string      `json:"time" validate:"required,time_label"`
	Seats           []string    `json:"seats" validate:"required,min=1,max=5,unique,dive,seat_label"`
	Price           ClientPrice `json:"price,omitempty"`
	PaymentIntentId string      `json:"paymentIntentId,omitempty"`
	Email           string      `json:"email,omitempty" validate:"omitempty,email"`
}

type MovieRef struct {
	Id     string `json:"id"`
	Title  string `json:"title"`
	Poster string `json:"poster"`
}

type BookingResponse struct {
	Id        string          `json:"id"`
	Movie     MovieRef        `json:"movie"`
	Theater   string          `json:"theater"`
	Date      string          `json:"date"`
	Time      string          `json:"time"`
	Seats     []string        `json:"seats"`
	Price     decimal.Decimal `json:"price"`
	Total     decimal.Decimal `json:"total"`
	Status    string          `json:"status"`
	CreatedAt time.Time       `json:"createdAt"`
}

type OccupancyResponse struct {
	Movie   string   `json:"movie"`
	Theater string   `json:"theater"`
	Date    string   `json:"date"`
	Time    string   `json:"time"`
	Seats   []string `json:"seats"`
}

type CreatePaymentIntentRequest struct {
	Movie   string      `json:"movie" validate:"required,uuid4"`
	Theater string      `json:"theater" validate:"required,max=120"`
	Date    string      `json:"date" validate:"required,show_date"`
	Time    string      `json:"time" validate:"required,time_label"`
	Seats   []string    `json:"seats" validate:"required,min=1,max=5,unique,dive,seat_label"`
	Price   ClientPrice `json:"price,omitempty"`
}

type PaymentIntentResponse struct {
	ClientSecret string `json:"clientSecret"`
	Amount       int64  `json:"amount"`
	Currency     string `json:"currency"`
}
