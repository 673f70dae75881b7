package list_bookings

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/portops/PGC-BookingService/internal/api/handlers"
	"github.com/portops/PGC-BookingService/internal/api/middleware"
	"github.com/portops/PGC-BookingService/internal/domain"
	"github.com/portops/PGC-BookingService/internal/service/bookings"
	"github.com/portops/PGC-BookingService/pkg/ptr"
)

const (
	msgInvalidFilter   = "требуется хотя бы один из параметров carrierId или terminalId"
	msgInvalidCarrier  = "некорректный carrierId"
	msgInvalidTerminal = "некорректный terminalId"
	msgInvalidStatus   = "некорректный статус бронирования"
	msgInvalidPeriod   = "некорректный период, ожидается YYYY-MM-DD"
	msgMissingUserID   = "отсутствует ID пользователя"
	msgForbidden       = "доступ запрещен"
)

var knownStatuses = map[domain.BookingStatus]struct{}{
	domain.StatusPending:   {},
	domain.StatusConfirmed: {},
	domain.StatusRejected:  {},
	domain.StatusConsumed:  {},
	domain.StatusCancelled: {},
	domain.StatusExpired:   {},
	domain.StatusNoShow:    {},
}

type Handler struct {
	service BookingService
	logger  Logger
}

func NewHandler(service BookingService, logger Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Handle GET /api/v1/bookings?carrierId=&terminalId=&status=&from=&to=
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	callerID, ok := middleware.GetUserID(r.Context())
	if !ok {
		h.logger.Warn("GET /bookings - Missing user ID")
		handlers.RespondUnauthorized(w, msgMissingUserID)
		return
	}

	req, err := parseListRequest(r)
	if err != nil {
		h.logger.Warn("GET /bookings - Invalid query: caller_id=%d, error=%v", callerID, err)
		handlers.RespondBadRequest(w, err.Error())
		return
	}

	list, err := h.service.List(r.Context(), callerID, req)
	if err != nil {
		switch {
		case errors.Is(err, bookings.ErrInvalidFilter):
			h.logger.Warn("GET /bookings - Invalid filter: caller_id=%d", callerID)
			handlers.RespondBadRequest(w, msgInvalidFilter)

		case errors.Is(err, bookings.ErrAccessDenied):
			h.logger.Warn("GET /bookings - Access denied: caller_id=%d", callerID)
			handlers.RespondForbidden(w, msgForbidden)

		case errors.Is(err, bookings.ErrInvalidInput):
			h.logger.Warn("GET /bookings - Invalid input: caller_id=%d, error=%v", callerID, err)
			handlers.RespondBadRequest(w, msgInvalidPeriod)

		default:
			h.logger.Error("GET /bookings - Failed to list bookings: caller_id=%d, error=%v", callerID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("GET /bookings - %d bookings returned: caller_id=%d", len(list), callerID)
	handlers.RespondJSON(w, http.StatusOK, handlers.BookingsFromDomain(list))
}

func parseListRequest(r *http.Request) (*bookings.ListRequest, error) {
	q := r.URL.Query()
	req := &bookings.ListRequest{}

	if raw := q.Get("carrierId"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			return nil, errors.New(msgInvalidCarrier)
		}
		req.CarrierID = ptr.Ptr(id)
	}
	if raw := q.Get("terminalId"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			return nil, errors.New(msgInvalidTerminal)
		}
		req.TerminalID = ptr.Ptr(id)
	}
	if raw := q.Get("status"); raw != "" {
		status := domain.BookingStatus(raw)
		if _, ok := knownStatuses[status]; !ok {
			return nil, errors.New(msgInvalidStatus)
		}
		req.Status = ptr.Ptr(status)
	}
	if raw := q.Get("from"); raw != "" {
		from, err := time.Parse(domain.DateFormat, raw)
		if err != nil {
			return nil, errors.New(msgInvalidPeriod)
		}
		req.StartDate = ptr.Ptr(from)
	}
	if raw := q.Get("to"); raw != "" {
		to, err := time.Parse(domain.DateFormat, raw)
		if err != nil {
			return nil, errors.New(msgInvalidPeriod)
		}
		req.EndDate = ptr.Ptr(to)
	}

	return req, nil
}
