package cancel_booking

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/portops/PGC-BookingService/internal/api/handlers"
	"github.com/portops/PGC-BookingService/internal/api/middleware"
	"github.com/portops/PGC-BookingService/internal/service/bookings"
)

const (
	msgInvalidBookingID = "некорректный ID бронирования"
	msgNotFound         = "бронирование не найдено"
	msgMissingUserID    = "отсутствует ID пользователя"
	msgForbidden        = "доступ запрещен"
	msgNotCancellable   = "бронирование в текущем статусе нельзя отменить"
	msgStatusConflict   = "статус бронирования изменился, повторите запрос"
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

// Handle PATCH /api/v1/bookings/{bookingId}/cancel
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	bookingID, err := strconv.ParseInt(vars["bookingId"], 10, 64)
	if err != nil {
		h.logger.Warn("PATCH /bookings/{id}/cancel - Invalid booking ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidBookingID)
		return
	}

	callerID, ok := middleware.GetUserID(r.Context())
	if !ok {
		h.logger.Warn("PATCH /bookings/{id}/cancel - Missing user ID")
		handlers.RespondUnauthorized(w, msgMissingUserID)
		return
	}

	booking, err := h.service.Cancel(r.Context(), callerID, bookingID)
	if err != nil {
		switch {
		case errors.Is(err, bookings.ErrBookingNotFound):
			h.logger.Warn("PATCH /bookings/{id}/cancel - Booking not found: booking_id=%d", bookingID)
			handlers.RespondNotFound(w, msgNotFound)

		case errors.Is(err, bookings.ErrAccessDenied):
			h.logger.Warn("PATCH /bookings/{id}/cancel - Access denied: booking_id=%d, caller_id=%d",
				bookingID, callerID)
			handlers.RespondForbidden(w, msgForbidden)

		case errors.Is(err, bookings.ErrNotCancellable):
			h.logger.Warn("PATCH /bookings/{id}/cancel - Not cancellable: booking_id=%d", bookingID)
			handlers.RespondError(w, http.StatusConflict, msgNotCancellable)

		case errors.Is(err, bookings.ErrStatusConflict):
			h.logger.Warn("PATCH /bookings/{id}/cancel - Status conflict: booking_id=%d", bookingID)
			handlers.RespondError(w, http.StatusConflict, msgStatusConflict)

		case errors.Is(err, bookings.ErrInvalidInput):
			h.logger.Warn("PATCH /bookings/{id}/cancel - Invalid input: %v", err)
			handlers.RespondBadRequest(w, msgInvalidBookingID)

		default:
			h.logger.Error("PATCH /bookings/{id}/cancel - Failed to cancel: booking_id=%d, error=%v", bookingID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("PATCH /bookings/{id}/cancel - Booking cancelled: booking_id=%d, caller_id=%d",
		bookingID, callerID)
	handlers.RespondJSON(w, http.StatusOK, handlers.BookingFromDomain(booking))
}
