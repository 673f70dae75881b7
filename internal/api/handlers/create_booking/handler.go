package create_booking

import (
	"errors"
	"net/http"

	"github.com/portops/PGC-BookingService/internal/api/handlers"
	"github.com/portops/PGC-BookingService/internal/api/middleware"
	createBooking "github.com/portops/PGC-BookingService/internal/usecase/create_booking"
)

const (
	msgInvalidRequestBody = "некорректное тело запроса"
	msgInvalidDateTime    = "некорректный формат даты или времени, ожидается YYYY-MM-DD и HH:MM"
	msgMissingUserID      = "отсутствует ID пользователя"
	msgTerminalNotFound   = "терминал не найден"
	msgTruckNotFound      = "грузовик не найден"
	msgTruckNotOwned      = "грузовик не принадлежит перевозчику"
	msgTruckNotAllowed    = "грузовик не допускается ни на одни подходящие ворота"
	msgContainerNotFound  = "контейнер не найден"
	msgContainerNotOwned  = "контейнер не принадлежит перевозчику"
	msgContainerBooked    = "контейнер уже участвует в активном бронировании"
	msgTooManyContainers  = "превышен лимит контейнеров на бронирование"
	msgInvalidBookingDate = "некорректная дата бронирования"
	msgDateTooFar         = "дата бронирования слишком далеко в будущем"
	msgTooLateToBook      = "слишком поздно для бронирования этого слота"
	msgTerminalClosed     = "терминал закрыт в выбранную дату"
	msgInvalidTimeSlot    = "запрошенное окно не совпадает со слотовой сеткой терминала"
	msgSlotFull           = "свободная емкость слота исчерпана"
	msgContention         = "слот бронируется конкурентно, повторите запрос"
)

type Handler struct {
	useCase CreateBookingUseCase
	logger  Logger
}

func NewHandler(useCase CreateBookingUseCase, logger Logger) *Handler {
	return &Handler{
		useCase: useCase,
		logger:  logger,
	}
}

// Handle POST /api/v1/bookings
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	var req CreateBookingRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("POST /bookings - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	// Вызывающий - перевозчик-владелец бронирования (через middleware Auth)
	carrierID, ok := middleware.GetUserID(r.Context())
	if !ok {
		h.logger.Warn("POST /bookings - Missing user ID")
		handlers.RespondUnauthorized(w, msgMissingUserID)
		return
	}

	// Конвертируем HTTP запрос в модель use case (с парсингом даты и времени)
	useCaseReq, err := req.ToUseCaseRequest(carrierID)
	if err != nil {
		h.logger.Warn("POST /bookings - Failed to parse request: %v", err)
		handlers.RespondBadRequest(w, msgInvalidDateTime)
		return
	}

	// Вызываем use case
	result, err := h.useCase.Execute(r.Context(), useCaseReq)
	if err != nil {
		// Обработка ошибок use case
		switch {
		case errors.Is(err, createBooking.ErrSlotFull):
			h.logger.Warn("POST /bookings - Slot full: carrier_id=%d, terminal_id=%d", carrierID, req.TerminalID)
			handlers.RespondError(w, http.StatusConflict, msgSlotFull)

		case errors.Is(err, createBooking.ErrContention):
			h.logger.Warn("POST /bookings - Contention: carrier_id=%d, terminal_id=%d", carrierID, req.TerminalID)
			handlers.RespondError(w, http.StatusConflict, msgContention)

		case errors.Is(err, createBooking.ErrContainerBooked):
			h.logger.Warn("POST /bookings - Container already booked: carrier_id=%d", carrierID)
			handlers.RespondError(w, http.StatusConflict, msgContainerBooked)

		case errors.Is(err, createBooking.ErrTerminalNotFound):
			h.logger.Warn("POST /bookings - Terminal not found: terminal_id=%d", req.TerminalID)
			handlers.RespondNotFound(w, msgTerminalNotFound)

		case errors.Is(err, createBooking.ErrTruckNotFound):
			h.logger.Warn("POST /bookings - Truck not found: truck_id=%d", req.TruckID)
			handlers.RespondNotFound(w, msgTruckNotFound)

		case errors.Is(err, createBooking.ErrContainerNotFound):
			h.logger.Warn("POST /bookings - Container not found: carrier_id=%d", carrierID)
			handlers.RespondNotFound(w, msgContainerNotFound)

		case errors.Is(err, createBooking.ErrTruckNotOwned):
			h.logger.Warn("POST /bookings - Truck not owned: carrier_id=%d, truck_id=%d", carrierID, req.TruckID)
			handlers.RespondForbidden(w, msgTruckNotOwned)

		case errors.Is(err, createBooking.ErrContainerNotOwned):
			h.logger.Warn("POST /bookings - Container not owned: carrier_id=%d", carrierID)
			handlers.RespondForbidden(w, msgContainerNotOwned)

		case errors.Is(err, createBooking.ErrTruckNotAllowed):
			h.logger.Warn("POST /bookings - Truck not allowed: carrier_id=%d, truck_id=%d", carrierID, req.TruckID)
			handlers.RespondBadRequest(w, msgTruckNotAllowed)

		case errors.Is(err, createBooking.ErrTooManyContainers):
			h.logger.Warn("POST /bookings - Too many containers: carrier_id=%d, count=%d", carrierID, len(req.ContainerIDs))
			handlers.RespondBadRequest(w, msgTooManyContainers)

		case errors.Is(err, createBooking.ErrInvalidDate):
			h.logger.Warn("POST /bookings - Invalid booking date: carrier_id=%d, date=%s", carrierID, req.BookingDate)
			handlers.RespondBadRequest(w, msgInvalidBookingDate)

		case errors.Is(err, createBooking.ErrDateTooFarInFuture):
			h.logger.Warn("POST /bookings - Date too far in future: carrier_id=%d, date=%s", carrierID, req.BookingDate)
			handlers.RespondBadRequest(w, msgDateTooFar)

		case errors.Is(err, createBooking.ErrTooLateToBook):
			h.logger.Warn("POST /bookings - Too late to book: carrier_id=%d, date=%s", carrierID, req.BookingDate)
			handlers.RespondBadRequest(w, msgTooLateToBook)

		case errors.Is(err, createBooking.ErrTerminalClosed):
			h.logger.Warn("POST /bookings - Terminal closed: terminal_id=%d, date=%s", req.TerminalID, req.BookingDate)
			handlers.RespondBadRequest(w, msgTerminalClosed)

		case errors.Is(err, createBooking.ErrInvalidTimeSlot):
			h.logger.Warn("POST /bookings - Invalid time slot: terminal_id=%d, window=%s-%s",
				req.TerminalID, req.TimeStart, req.TimeEnd)
			handlers.RespondBadRequest(w, msgInvalidTimeSlot)

		case errors.Is(err, createBooking.ErrInvalidInput):
			h.logger.Warn("POST /bookings - Invalid input: carrier_id=%d, error=%v", carrierID, err)
			handlers.RespondBadRequest(w, msgInvalidRequestBody)

		default:
			h.logger.Error("POST /bookings - Failed to create booking: carrier_id=%d, terminal_id=%d, error=%v",
				carrierID, req.TerminalID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	// Формируем HTTP ответ
	response := FromUseCaseResponse(result)

	h.logger.Info("POST /bookings - Booking created successfully: booking_id=%d, reference=%s, carrier_id=%d",
		result.ID, result.Reference, carrierID)
	handlers.RespondJSON(w, http.StatusCreated, response)
}
