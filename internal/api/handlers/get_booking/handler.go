package get_booking

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"github.com/portops/PGC-BookingService/internal/api/handlers"
	"github.com/portops/PGC-BookingService/internal/api/middleware"
	"github.com/portops/PGC-BookingService/internal/domain"
	"github.com/portops/PGC-BookingService/internal/service/bookings"
)

const (
	msgInvalidBookingID = "некорректный ID бронирования"
	msgNotFound         = "бронирование не найдено"
	msgMissingUserID    = "отсутствует ID пользователя"
	msgForbidden        = "доступ запрещен"
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

// Handle GET /api/v1/bookings/{bookingId}
// В качестве идентификатора принимается числовой ID либо номер брони (PGC-...)
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	idStr := vars["bookingId"]

	callerID, ok := middleware.GetUserID(r.Context())
	if !ok {
		h.logger.Warn("GET /bookings/{id} - Missing user ID")
		handlers.RespondUnauthorized(w, msgMissingUserID)
		return
	}

	var (
		booking *domain.Booking
		err     error
	)
	if strings.HasPrefix(idStr, domain.BookingReferencePrefix+"-") {
		booking, err = h.service.GetByReference(r.Context(), callerID, idStr)
	} else {
		bookingID, parseErr := strconv.ParseInt(idStr, 10, 64)
		if parseErr != nil {
			h.logger.Warn("GET /bookings/{id} - Invalid booking ID %q: %v", idStr, parseErr)
			handlers.RespondBadRequest(w, msgInvalidBookingID)
			return
		}
		booking, err = h.service.GetByID(r.Context(), callerID, bookingID)
	}

	if err != nil {
		switch {
		case errors.Is(err, bookings.ErrBookingNotFound):
			h.logger.Warn("GET /bookings/{id} - Booking not found: id=%s", idStr)
			handlers.RespondNotFound(w, msgNotFound)

		case errors.Is(err, bookings.ErrAccessDenied):
			h.logger.Warn("GET /bookings/{id} - Access denied: id=%s, caller_id=%d", idStr, callerID)
			handlers.RespondForbidden(w, msgForbidden)

		case errors.Is(err, bookings.ErrInvalidInput):
			h.logger.Warn("GET /bookings/{id} - Invalid input: %v", err)
			handlers.RespondBadRequest(w, msgInvalidBookingID)

		default:
			h.logger.Error("GET /bookings/{id} - Failed to get booking: id=%s, error=%v", idStr, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("GET /bookings/{id} - Booking retrieved successfully: booking_id=%d, caller_id=%d",
		booking.ID, callerID)
	handlers.RespondJSON(w, http.StatusOK, handlers.BookingFromDomain(booking))
}
