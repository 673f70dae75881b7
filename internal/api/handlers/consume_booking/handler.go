package consume_booking

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/portops/PGC-BookingService/internal/api/handlers"
	"github.com/portops/PGC-BookingService/internal/api/middleware"
	"github.com/portops/PGC-BookingService/internal/service/bookings"
)

const (
	msgInvalidBookingID   = "некорректный ID бронирования"
	msgInvalidRequestBody = "некорректное тело запроса"
	msgNotFound           = "бронирование не найдено"
	msgMissingUserID      = "отсутствует ID пользователя"
	msgForbidden          = "доступ запрещен"
	msgNotConsumable      = "бронирование не подтверждено"
	msgOutsideWindow      = "прибытие вне окна слота"
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

// Handle PATCH /api/v1/bookings/{bookingId}/consume
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	bookingID, err := strconv.ParseInt(vars["bookingId"], 10, 64)
	if err != nil {
		h.logger.Warn("PATCH /bookings/{id}/consume - Invalid booking ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidBookingID)
		return
	}

	operatorID, ok := middleware.GetUserID(r.Context())
	if !ok {
		h.logger.Warn("PATCH /bookings/{id}/consume - Missing user ID")
		handlers.RespondUnauthorized(w, msgMissingUserID)
		return
	}

	// Тело необязательное: сканеры на воротах могут слать пустой запрос
	var req ConsumeBookingRequest
	if err := handlers.DecodeJSON(r, &req); err != nil && !errors.Is(err, io.EOF) {
		h.logger.Warn("PATCH /bookings/{id}/consume - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	booking, err := h.service.Consume(r.Context(), operatorID, &bookings.ConsumeRequest{
		BookingID:   bookingID,
		ScanContext: req.ScanContext,
	})
	if err != nil {
		switch {
		case errors.Is(err, bookings.ErrBookingNotFound):
			h.logger.Warn("PATCH /bookings/{id}/consume - Booking not found: booking_id=%d", bookingID)
			handlers.RespondNotFound(w, msgNotFound)

		case errors.Is(err, bookings.ErrAccessDenied):
			h.logger.Warn("PATCH /bookings/{id}/consume - Access denied: booking_id=%d, operator_id=%d",
				bookingID, operatorID)
			handlers.RespondForbidden(w, msgForbidden)

		case errors.Is(err, bookings.ErrNotConsumable):
			h.logger.Warn("PATCH /bookings/{id}/consume - Not confirmed: booking_id=%d", bookingID)
			handlers.RespondError(w, http.StatusConflict, msgNotConsumable)

		case errors.Is(err, bookings.ErrOutsideArrivalWindow):
			h.logger.Warn("PATCH /bookings/{id}/consume - Outside arrival window: booking_id=%d", bookingID)
			handlers.RespondError(w, http.StatusConflict, msgOutsideWindow)

		case errors.Is(err, bookings.ErrStatusConflict):
			h.logger.Warn("PATCH /bookings/{id}/consume - Status conflict: booking_id=%d", bookingID)
			handlers.RespondError(w, http.StatusConflict, msgStatusConflict)

		case errors.Is(err, bookings.ErrInvalidInput):
			h.logger.Warn("PATCH /bookings/{id}/consume - Invalid input: %v", err)
			handlers.RespondBadRequest(w, msgInvalidBookingID)

		default:
			h.logger.Error("PATCH /bookings/{id}/consume - Failed to consume: booking_id=%d, error=%v", bookingID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("PATCH /bookings/{id}/consume - Booking consumed: booking_id=%d, operator_id=%d",
		bookingID, operatorID)
	handlers.RespondJSON(w, http.StatusOK, handlers.BookingFromDomain(booking))
}
