// Package calendar implements the best-effort remote calendar collaborator
// against the Google Calendar API. Callers bound every operation with a
// timeout and treat failures as soft warnings, never as mutation failures.
package calendar

import (
	"context"
	"fmt"
	"time"

	"voicedesk/internal/domain/booking"
	"voicedesk/internal/domain/business"
	"voicedesk/internal/domain/customer"
	"voicedesk/internal/pkg/config"
	"voicedesk/internal/pkg/errs"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"
)

var ErrNotConfigured = errs.New("google calendar is not configured")

type GoogleSync struct {
	cfg   config.CalendarConfig
	creds CredentialsStore
}

func NewGoogleSync(cfg config.Config, creds CredentialsStore) *GoogleSync {
	return &GoogleSync{cfg: cfg.Calendar, creds: creds}
}

func (g *GoogleSync) CreateEvent(ctx context.Context, biz *business.Business, bkg *booking.Booking, cust *customer.Customer) (string, error) {
	srv, err := g.service(ctx, biz)
	if err != nil {
		return "", err
	}

	created, err := srv.Events.Insert(calendarID(biz), buildEvent(biz, bkg, cust)).Context(ctx).Do()
	if err != nil {
		return "", errs.Wrap(err, "failed to insert calendar event")
	}
	return created.Id, nil
}

func (g *GoogleSync) UpdateEvent(ctx context.Context, biz *business.Business, bkg *booking.Booking, cust *customer.Customer, eventID string) (string, error) {
	srv, err := g.service(ctx, biz)
	if err != nil {
		return "", err
	}

	updated, err := srv.Events.Update(calendarID(biz), eventID, buildEvent(biz, bkg, cust)).Context(ctx).Do()
	if err != nil {
		return "", errs.Wrap(err, "failed to update calendar event")
	}
	return updated.Id, nil
}

func (g *GoogleSync) DeleteEvent(ctx context.Context, biz *business.Business, eventID string) error {
	srv, err := g.service(ctx, biz)
	if err != nil {
		return err
	}

	if err := srv.Events.Delete(calendarID(biz), eventID).Context(ctx).Do(); err != nil {
		return errs.Wrap(err, "failed to delete calendar event")
	}
	return nil
}

// service builds a per-tenant client: the stored refresh token plus the
// shared OAuth client config yields a self-refreshing token source.
func (g *GoogleSync) service(ctx context.Context, biz *business.Business) (*gcal.Service, error) {
	if !g.cfg.Enabled() {
		return nil, ErrNotConfigured
	}

	refreshToken, err := g.creds.RefreshToken(ctx, biz.ID())
	if err != nil {
		return nil, err
	}

	oauthCfg := &oauth2.Config{
		ClientID:     g.cfg.GoogleClientID,
		ClientSecret: g.cfg.GoogleClientSecret,
		Endpoint:     google.Endpoint,
		Scopes:       []string{gcal.CalendarEventsScope},
	}
	tokenSource := oauthCfg.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken})

	srv, err := gcal.NewService(ctx, option.WithTokenSource(tokenSource))
	if err != nil {
		return nil, errs.Wrap(err, "failed to create calendar service")
	}
	return srv, nil
}

func buildEvent(biz *business.Business, bkg *booking.Booking, cust *customer.Customer) *gcal.Event {
	name, phoneNum := "Guest", ""
	if cust != nil {
		name, phoneNum = cust.Name(), cust.Phone()
	}

	description := fmt.Sprintf("Party size: %d\nPhone: %s\nNotes: %s",
		bkg.PartySize(), phoneNum, bkg.Notes())

	return &gcal.Event{
		Summary:     fmt.Sprintf("%s Reservation - %s", biz.Name(), name),
		Description: description,
		Start: &gcal.EventDateTime{
			DateTime: bkg.Slot().Start().Format(time.RFC3339),
			TimeZone: biz.Timezone(),
		},
		End: &gcal.EventDateTime{
			DateTime: bkg.Slot().End().Format(time.RFC3339),
			TimeZone: biz.Timezone(),
		},
		Reminders: &gcal.EventReminders{
			UseDefault:      true,
			ForceSendFields: []string{"UseDefault"},
		},
	}
}

func calendarID(biz *business.Business) string {
	if id := biz.Calendar().CalendarID; id != "" {
		return id
	}
	return "primary"
}
