package booking

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/brianvoe/gofakeit/v7"

	"github.com/nanyeglm/CPU-Gym-Reserve-online/pkg/config"
	errs "github.com/nanyeglm/CPU-Gym-Reserve-online/pkg/errors"
	"github.com/nanyeglm/CPU-Gym-Reserve-online/pkg/extract"
	"github.com/nanyeglm/CPU-Gym-Reserve-online/pkg/gymsite"
	"github.com/nanyeglm/CPU-Gym-Reserve-online/pkg/logger"
	"github.com/nanyeglm/CPU-Gym-Reserve-online/pkg/models"
	"github.com/nanyeglm/CPU-Gym-Reserve-online/pkg/retry"
	"github.com/nanyeglm/CPU-Gym-Reserve-online/pkg/store"
	"github.com/nanyeglm/CPU-Gym-Reserve-online/pkg/venues"
)

// Request is a user-initiated booking.
type Request struct {
	VenueID     int
	Date        string // YYYY-MM-DD
	TimeSlot    string // single hour value
	HolderName  string // blank: a plausible placeholder is generated
	HolderPhone string // blank: placeholder; otherwise must be 11 digits
}

// Confirmation is the persisted outcome of an accepted booking.
type Confirmation struct {
	Record models.Record
}

// UserVisibleError carries a human-readable reason the caller can show
// directly. The user must know whether their slot is reserved.
type UserVisibleError struct {
	Reason string
	Err    error
}

func (e *UserVisibleError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Reason, e.Err)
	}
	return e.Reason
}

func (e *UserVisibleError) Unwrap() error { return e.Err }

// SiteClient is the transport surface the booking transaction needs.
type SiteClient interface {
	Get(ctx context.Context, url string) ([]byte, int, error)
	PostForm(ctx context.Context, url string, form url.Values) ([]byte, int, error)
	TokenURL(venueID int) string
	SubmitURL() string
	CancelURL() string
}

// Storage is the slice of the store the booking transaction touches.
type Storage interface {
	Insert(ctx context.Context, name store.Name, rec models.Record) (bool, error)
	DeleteBoth(ctx context.Context, id int64) error
}

// Service performs the multi-step booking and cancel transactions.
type Service struct {
	client   SiteClient
	storage  Storage
	venues   *venues.Map
	accounts config.AccountsConfig
	cfg      config.BookingConfig
	logger   logger.Logger
}

// NewService wires the booking service.
func NewService(client SiteClient, storage Storage, vm *venues.Map, accounts config.AccountsConfig, cfg config.BookingConfig, log logger.Logger) *Service {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Service{
		client:   client,
		storage:  storage,
		venues:   vm,
		accounts: accounts,
		cfg:      cfg,
		logger:   log,
	}
}

// Submit runs the booking transaction: acquire token, submit, parse the
// confirmation, persist the reservation. Step order matters: no local state
// is written before the remote side has accepted the booking.
func (s *Service) Submit(ctx context.Context, req Request) (*Confirmation, error) {
	venueName, ok := s.venues.Name(req.VenueID)
	if !ok {
		return nil, &UserVisibleError{Reason: fmt.Sprintf("unknown venue id %d", req.VenueID)}
	}
	if _, err := time.Parse(models.DateLayout, req.Date); err != nil {
		return nil, &UserVisibleError{Reason: fmt.Sprintf("invalid booking date %q", req.Date)}
	}
	if !models.ValidPhone(req.HolderPhone) {
		return nil, &UserVisibleError{Reason: "phone number must be 11 digits"}
	}

	name := req.HolderName
	if name == "" {
		name = gofakeit.Name()
	}
	phone := req.HolderPhone
	if phone == "" {
		phone = gofakeit.Numerify("1##########")
	}

	// A name on the allow-list routes the booking to its own remote
	// account; everything else uses the default.
	openID := s.accounts.DefaultOpenID
	if mapped, ok := s.accounts.OpenIDs[name]; ok {
		openID = mapped
	}

	token, err := s.acquireToken(ctx, req.VenueID)
	if err != nil {
		logger.LogBooking("submit", 0, false, err)
		return nil, err
	}

	form := gymsite.SubmitForm(token, req.Date, req.TimeSlot, name, phone, req.VenueID, openID)
	body, _, err := s.client.PostForm(ctx, s.client.SubmitURL(), form)
	if err != nil {
		logger.LogBooking("submit", 0, false, err)
		return nil, &UserVisibleError{Reason: "failed to send booking request", Err: err}
	}

	externalID, err := gymsite.ParseSubmitResponse(body)
	if err != nil {
		// The remote booking may already exist at this point; the next
		// discovery cycle can only pick it up as a confirmed order.
		logger.LogBooking("submit", 0, false, err)
		return nil, &UserVisibleError{Reason: "failed to parse server response", Err: err}
	}

	rec := models.Record{
		ExternalID:  externalID,
		Venue:       venueName,
		HolderName:  name,
		HolderPhone: phone,
		Date:        req.Date,
		TimeSlot:    req.TimeSlot,
	}

	if _, err := s.storage.Insert(ctx, store.Reservations, rec); err != nil {
		logger.LogBooking("submit", externalID, false, err)
		return nil, &UserVisibleError{
			Reason: fmt.Sprintf("booking %d was accepted remotely but saving it locally failed", externalID),
			Err:    err,
		}
	}

	logger.LogBooking("submit", externalID, true, nil)
	return &Confirmation{Record: rec}, nil
}

// acquireToken fetches the venue page and tries the token patterns, retrying
// with a short fixed delay up to the configured bound. A page without a token
// is treated like a transient fetch failure; the key appears once the site is
// ready to accept the booking.
func (s *Service) acquireToken(ctx context.Context, venueID int) (string, error) {
	tokenURL := s.client.TokenURL(venueID)

	token, err := retry.DoWithResult(func() (string, error) {
		body, _, err := s.client.Get(ctx, tokenURL)
		if err != nil {
			s.logger.WarnWithFields("token fetch failed", map[string]interface{}{
				"venue_id": venueID,
				"error":    err.Error(),
			})
			return "", err
		}

		if token, ok := extract.Token(string(body)); ok {
			return token, nil
		}

		s.logger.WarnWithFields("no token in venue page", map[string]interface{}{
			"venue_id": venueID,
		})
		return "", errs.New(errs.ErrorTypeTransient, "no booking key in venue page")
	}, &retry.Config{
		MaxAttempts: s.cfg.TokenAttempts,
		Backoff:     &retry.ConstantBackoff{Delay: s.cfg.TokenDelay},
		RetryIf:     retry.DefaultRetryIf,
		Context:     ctx,
		Logger:      s.logger,
	})
	if err != nil {
		return "", &UserVisibleError{Reason: "cannot obtain booking key", Err: err}
	}
	return token, nil
}

// Cancel runs the cancel transaction for one booking id. Only the explicit
// success code mutates local state; any other response is surfaced untouched.
func (s *Service) Cancel(ctx context.Context, id int64) error {
	body, _, err := s.client.PostForm(ctx, s.client.CancelURL(), gymsite.CancelForm(id))
	if err != nil {
		logger.LogBooking("cancel", id, false, err)
		return &UserVisibleError{Reason: "failed to send cancel request", Err: err}
	}

	resp, err := gymsite.ParseCancelResponse(body)
	if err != nil {
		logger.LogBooking("cancel", id, false, err)
		return &UserVisibleError{Reason: "failed to parse server response", Err: err}
	}

	if resp.Code != "0" {
		msg := resp.Msg
		if msg == "" {
			msg = fmt.Sprintf("server returned code %s", resp.Code)
		}
		logger.LogBooking("cancel", id, false, nil)
		return &UserVisibleError{Reason: fmt.Sprintf("cancel rejected: %s", msg)}
	}

	if err := s.storage.DeleteBoth(ctx, id); err != nil {
		logger.LogBooking("cancel", id, false, err)
		return &UserVisibleError{Reason: "cancelled remotely but removing the local record failed", Err: err}
	}

	logger.LogBooking("cancel", id, true, nil)
	return nil
}
