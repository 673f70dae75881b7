package decide_booking

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/portops/PGC-BookingService/internal/api/handlers"
	"github.com/portops/PGC-BookingService/internal/api/middleware"
	"github.com/portops/PGC-BookingService/internal/domain"
	"github.com/portops/PGC-BookingService/internal/service/bookings"
)

const (
	msgInvalidBookingID   = "некорректный ID бронирования"
	msgInvalidRequestBody = "некорректное тело запроса"
	msgInvalidDecision    = "некорректное решение, ожидается confirm или reject"
	msgNotFound           = "бронирование не найдено"
	msgMissingUserID      = "отсутствует ID пользователя"
	msgForbidden          = "доступ запрещен"
	msgAlreadyDecided     = "решение по бронированию уже принято"
	msgStatusConflict     = "статус бронирования изменился, повторите запрос"
)

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

// Handle PATCH /api/v1/bookings/{bookingId}/decide
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	bookingID, err := strconv.ParseInt(vars["bookingId"], 10, 64)
	if err != nil {
		h.logger.Warn("PATCH /bookings/{id}/decide - Invalid booking ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidBookingID)
		return
	}

	operatorID, ok := middleware.GetUserID(r.Context())
	if !ok {
		h.logger.Warn("PATCH /bookings/{id}/decide - Missing user ID")
		handlers.RespondUnauthorized(w, msgMissingUserID)
		return
	}

	var req DecideBookingRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("PATCH /bookings/{id}/decide - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	booking, err := h.service.Decide(r.Context(), operatorID, &bookings.DecideRequest{
		BookingID: bookingID,
		Decision:  domain.Decision(req.Decision),
		Comment:   req.Comment,
	})
	if err != nil {
		switch {
		case errors.Is(err, bookings.ErrInvalidDecision):
			h.logger.Warn("PATCH /bookings/{id}/decide - Invalid decision %q: booking_id=%d", req.Decision, bookingID)
			handlers.RespondBadRequest(w, msgInvalidDecision)

		case errors.Is(err, bookings.ErrBookingNotFound):
			h.logger.Warn("PATCH /bookings/{id}/decide - Booking not found: booking_id=%d", bookingID)
			handlers.RespondNotFound(w, msgNotFound)

		case errors.Is(err, bookings.ErrAccessDenied):
			h.logger.Warn("PATCH /bookings/{id}/decide - Access denied: booking_id=%d, operator_id=%d",
				bookingID, operatorID)
			handlers.RespondForbidden(w, msgForbidden)

		case errors.Is(err, bookings.ErrAlreadyDecided):
			h.logger.Warn("PATCH /bookings/{id}/decide - Already decided: booking_id=%d", bookingID)
			handlers.RespondError(w, http.StatusConflict, msgAlreadyDecided)

		case errors.Is(err, bookings.ErrStatusConflict):
			h.logger.Warn("PATCH /bookings/{id}/decide - Status conflict: booking_id=%d", bookingID)
			handlers.RespondError(w, http.StatusConflict, msgStatusConflict)

		case errors.Is(err, bookings.ErrInvalidInput):
			h.logger.Warn("PATCH /bookings/{id}/decide - Invalid input: %v", err)
			handlers.RespondBadRequest(w, msgInvalidBookingID)

		default:
			h.logger.Error("PATCH /bookings/{id}/decide - Failed to decide: booking_id=%d, error=%v", bookingID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("PATCH /bookings/{id}/decide - Decision %s applied: booking_id=%d, operator_id=%d",
		req.Decision, bookingID, operatorID)
	handlers.RespondJSON(w, http.StatusOK, handlers.BookingFromDomain(booking))
}
