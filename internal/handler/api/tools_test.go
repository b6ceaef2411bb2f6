//go:build unit

package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"voicedesk/internal/domain/business"
	"voicedesk/internal/handler/api"
	"voicedesk/internal/usecase/commands"
	"voicedesk/internal/usecase/queries"
	"voicedesk/internal/usecase/shared"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
)

type fakeTenantQueries struct {
	biz    *business.Business
	err    error
	reason string
}

func (f *fakeTenantQueries) Resolve(context.Context, shared.CallContext) (*business.Business, error) {
	return f.biz, f.err
}

func (f *fakeTenantQueries) ResolveInbound(context.Context, string, string) (*business.Business, string, error) {
	return f.biz, f.reason, f.err
}

type fakeAvailabilityQueries struct {
	starts []time.Time
	err    error
}

func (f *fakeAvailabilityQueries) FindAvailableStarts(context.Context, *business.Business, time.Time, time.Duration, int, int) ([]time.Time, error) {
	return f.starts, f.err
}

type fakeBookingQueries struct {
	matches []queries.BookingMatch
	err     error
}

func (f *fakeBookingQueries) FindCandidates(context.Context, uuid.UUID, queries.FindBookingParams) ([]queries.BookingMatch, error) {
	return f.matches, f.err
}

type fakeBookingCommands struct {
	createResult *commands.CreateBookingResult
	createErr    error
	modifyData   *commands.ModifyBookingData
	modifyErr    error
	cancelData   *commands.CancelBookingData
	cancelErr    error
}

func (f *fakeBookingCommands) Create(context.Context, *business.Business, commands.CreateBookingParams) (*commands.CreateBookingResult, error) {
	return f.createResult, f.createErr
}

func (f *fakeBookingCommands) Modify(context.Context, *business.Business, commands.ModifyBookingParams) (*commands.ModifyBookingData, error) {
	return f.modifyData, f.modifyErr
}

func (f *fakeBookingCommands) Cancel(context.Context, *business.Business, uuid.UUID) (*commands.CancelBookingData, error) {
	return f.cancelData, f.cancelErr
}

type ToolsHandlerTestSuite struct {
	suite.Suite
	router       *gin.Engine
	tenants      *fakeTenantQueries
	availability *fakeAvailabilityQueries
	bookings     *fakeBookingQueries
	commands     *fakeBookingCommands
}

func (s *ToolsHandlerTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	s.router = gin.New()

	s.tenants = &fakeTenantQueries{biz: testBusiness()}
	s.availability = &fakeAvailabilityQueries{}
	s.bookings = &fakeBookingQueries{}
	s.commands = &fakeBookingCommands{}

	handler := api.NewToolsHandler(s.tenants, s.availability, s.bookings, s.commands)
	s.router.POST("/tools/check_availability", handler.CheckAvailability)
	s.router.POST("/tools/create_booking", handler.CreateBooking)
	s.router.POST("/tools/find_booking", handler.FindBooking)
	s.router.POST("/tools/modify_booking", handler.ModifyBooking)
	s.router.POST("/tools/cancel_booking", handler.CancelBooking)
}

func TestToolsHandlerSuite(t *testing.T) {
	suite.Run(t, new(ToolsHandlerTestSuite))
}

func testBusiness() *business.Business {
	return business.ReconstructBusiness(
		uuid.New(), nil, "Mario's", "UTC", nil, nil,
		map[string]any{}, business.CalendarLink{}, time.Now(),
	)
}

func toolBody(name string, args any) []byte {
	body, err := json.Marshal(map[string]any{
		"name": name,
		"args": args,
		"call": map[string]any{
			"call_id":  "call_1",
			"metadata": map[string]any{"internal_customer_id": "mario_001"},
		},
	})
	if err != nil {
		panic(err)
	}
	return body
}

func (s *ToolsHandlerTestSuite) post(path string, body []byte) (*httptest.ResponseRecorder, shared.Envelope) {
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	var env shared.Envelope
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &env))
	return rec, env
}

func (s *ToolsHandlerTestSuite) TestWrapperValidation() {
	s.Run("missing args is an invalid request", func() {
		_, env := s.post("/tools/check_availability", []byte(`{"name":"check_availability"}`))
		s.False(env.OK)
		s.Equal(shared.CodeInvalidRequest, env.ErrorCode)
	})

	s.Run("malformed json is an invalid request", func() {
		rec, env := s.post("/tools/check_availability", []byte(`{not json`))
		s.Equal(http.StatusOK, rec.Code, "tool errors ride in the envelope, not the status")
		s.Equal(shared.CodeInvalidRequest, env.ErrorCode)
	})
}

func (s *ToolsHandlerTestSuite) TestTenantResolution() {
	body := toolBody("check_availability", map[string]any{
		"desired_start": "2026-09-01T18:00:00Z",
		"party_size":    4,
	})

	s.Run("missing tenant context", func() {
		s.tenants.err = queries.ErrMissingTenantContext
		_, env := s.post("/tools/check_availability", body)
		s.Equal(shared.CodeMissingTenantContext, env.ErrorCode)
	})

	s.Run("unresolvable business", func() {
		s.tenants.err = queries.ErrBusinessResolutionFailed
		_, env := s.post("/tools/check_availability", body)
		s.Equal(shared.CodeBusinessResolutionFailed, env.ErrorCode)
	})
}

func (s *ToolsHandlerTestSuite) TestCheckAvailability() {
	body := toolBody("check_availability", map[string]any{
		"desired_start": "2026-09-01T18:00:00Z",
		"party_size":    4,
	})

	s.Run("returns ranked starts", func() {
		s.availability.starts = []time.Time{
			time.Date(2026, 9, 1, 18, 0, 0, 0, time.UTC),
			time.Date(2026, 9, 1, 17, 45, 0, 0, time.UTC),
		}
		_, env := s.post("/tools/check_availability", body)
		s.True(env.OK)

		data := env.Data.(map[string]any)
		s.Equal("AVAILABLE", data["result"])
		starts := data["available_start_times"].([]any)
		s.Equal("2026-09-01T18:00:00Z", starts[0])
	})

	s.Run("zero slots is still ok", func() {
		s.availability.starts = nil
		_, env := s.post("/tools/check_availability", body)
		s.True(env.OK)

		data := env.Data.(map[string]any)
		s.Equal("NO_AVAILABILITY", data["result"])
		s.Empty(data["available_start_times"])
	})

	s.Run("bad args", func() {
		_, env := s.post("/tools/check_availability", toolBody("check_availability", map[string]any{
			"party_size": 0,
		}))
		s.Equal(shared.CodeInvalidArgs, env.ErrorCode)
	})
}

func (s *ToolsHandlerTestSuite) TestCreateBooking() {
	body := toolBody("create_booking", map[string]any{
		"customer_name":  "Alice Johnson",
		"customer_phone": "+1 555 010 4477",
		"start_time":     "2026-09-01T18:00:00Z",
		"party_size":     4,
	})

	s.Run("passes the stored envelope through untouched", func() {
		stored := json.RawMessage(`{"ok":true,"data":{"booking_id":"b1"}}`)
		s.commands.createResult = &commands.CreateBookingResult{Response: stored, Replayed: true}

		rec, env := s.post("/tools/create_booking", body)
		s.True(env.OK)
		s.Equal(string(stored), rec.Body.String())
	})

	s.Run("maps no availability", func() {
		s.commands.createResult = nil
		s.commands.createErr = commands.ErrNoAvailability
		_, env := s.post("/tools/create_booking", body)
		s.Equal(shared.CodeNoAvailability, env.ErrorCode)
	})

	s.Run("maps unexpected failures to system unavailable", func() {
		s.commands.createErr = fmt.Errorf("connection refused")
		_, env := s.post("/tools/create_booking", body)
		s.Equal(shared.CodeSystemUnavailable, env.ErrorCode)
	})
}

func (s *ToolsHandlerTestSuite) TestFindBooking() {
	body := toolBody("find_booking", map[string]any{
		"customer_phone": "+1 555 010 4477",
	})

	newMatch := func() queries.BookingMatch {
		return queries.BookingMatch{
			BookingID:     uuid.New(),
			StartTime:     time.Date(2026, 9, 1, 18, 0, 0, 0, time.UTC),
			PartySize:     2,
			Status:        "confirmed",
			CustomerName:  "Alice",
			CustomerPhone: "5550104477",
		}
	}

	s.Run("no matches", func() {
		s.bookings.matches = nil
		_, env := s.post("/tools/find_booking", body)
		s.Equal(shared.CodeBookingNotFound, env.ErrorCode)
	})

	s.Run("single match", func() {
		s.bookings.matches = []queries.BookingMatch{newMatch()}
		_, env := s.post("/tools/find_booking", body)
		s.True(env.OK)
		data := env.Data.(map[string]any)
		s.Contains(data, "booking")
	})

	s.Run("multiple matches ask to narrow down", func() {
		s.bookings.matches = []queries.BookingMatch{newMatch(), newMatch()}
		_, env := s.post("/tools/find_booking", body)
		s.Equal(shared.CodeAmbiguousBooking, env.ErrorCode)
		data := env.Data.(map[string]any)
		s.Equal(float64(2), data["count"])
	})
}

func (s *ToolsHandlerTestSuite) TestModifyBooking() {
	s.Run("invalid booking id", func() {
		_, env := s.post("/tools/modify_booking", toolBody("modify_booking", map[string]any{
			"booking_id": "not-a-uuid",
			"party_size": 2,
		}))
		s.Equal(shared.CodeInvalidArgs, env.ErrorCode)
	})

	s.Run("no changes requested", func() {
		_, env := s.post("/tools/modify_booking", toolBody("modify_booking", map[string]any{
			"booking_id": uuid.NewString(),
		}))
		s.Equal(shared.CodeInvalidArgs, env.ErrorCode)
	})

	s.Run("already cancelled", func() {
		s.commands.modifyErr = commands.ErrBookingAlreadyCancelled
		_, env := s.post("/tools/modify_booking", toolBody("modify_booking", map[string]any{
			"booking_id": uuid.NewString(),
			"party_size": 2,
		}))
		s.Equal(shared.CodeBookingAlreadyCancelled, env.ErrorCode)
	})
}

func (s *ToolsHandlerTestSuite) TestCancelBooking() {
	s.Run("success", func() {
		s.commands.cancelData = &commands.CancelBookingData{BookingID: uuid.NewString(), Status: "cancelled"}
		_, env := s.post("/tools/cancel_booking", toolBody("cancel_booking", map[string]any{
			"booking_id": uuid.NewString(),
		}))
		s.True(env.OK)
	})

	s.Run("unknown booking", func() {
		s.commands.cancelErr = commands.ErrBookingNotFound
		_, env := s.post("/tools/cancel_booking", toolBody("cancel_booking", map[string]any{
			"booking_id": uuid.NewString(),
		}))
		s.Equal(shared.CodeBookingNotFound, env.ErrorCode)
	})
}
