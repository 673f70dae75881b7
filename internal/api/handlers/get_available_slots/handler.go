package get_available_slots

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/portops/PGC-BookingService/internal/api/handlers"
	"github.com/portops/PGC-BookingService/internal/domain"
	getAvailableSlots "github.com/portops/PGC-BookingService/internal/usecase/get_available_slots"
	"github.com/portops/PGC-BookingService/pkg/ptr"
)

const (
	msgInvalidTerminalID = "некорректный ID терминала"
	msgInvalidGateID     = "некорректный ID ворот"
	msgInvalidDate       = "некорректный формат даты, ожидается YYYY-MM-DD"
	msgMissingDate       = "отсутствует обязательный параметр date"
	msgTerminalNotFound  = "терминал не найден"
	msgGateNotFound      = "ворота не найдены"
	msgDateOutOfRange    = "дата вне окна бронирования терминала"
)

type Handler struct {
	useCase GetAvailableSlotsUseCase
	logger  Logger
}

func NewHandler(useCase GetAvailableSlotsUseCase, logger Logger) *Handler {
	return &Handler{
		useCase: useCase,
		logger:  logger,
	}
}

// Handle GET /api/v1/terminals/{terminalId}/available-slots?date=YYYY-MM-DD&gateId=N
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	terminalID, err := strconv.ParseInt(vars["terminalId"], 10, 64)
	if err != nil {
		h.logger.Warn("GET /terminals/{id}/available-slots - Invalid terminal ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidTerminalID)
		return
	}

	dateStr := r.URL.Query().Get("date")
	if dateStr == "" {
		h.logger.Warn("GET /terminals/{id}/available-slots - Missing date: terminal_id=%d", terminalID)
		handlers.RespondBadRequest(w, msgMissingDate)
		return
	}
	date, err := time.Parse(domain.DateFormat, dateStr)
	if err != nil {
		h.logger.Warn("GET /terminals/{id}/available-slots - Invalid date %q: %v", dateStr, err)
		handlers.RespondBadRequest(w, msgInvalidDate)
		return
	}

	var gateID *int64
	if raw := r.URL.Query().Get("gateId"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			h.logger.Warn("GET /terminals/{id}/available-slots - Invalid gate ID %q: %v", raw, err)
			handlers.RespondBadRequest(w, msgInvalidGateID)
			return
		}
		gateID = ptr.Ptr(parsed)
	}

	result, err := h.useCase.Execute(r.Context(), &getAvailableSlots.Request{
		TerminalID: terminalID,
		GateID:     gateID,
		Date:       date,
	})
	if err != nil {
		switch {
		case errors.Is(err, getAvailableSlots.ErrTerminalNotFound):
			h.logger.Warn("GET /terminals/{id}/available-slots - Terminal not found: terminal_id=%d", terminalID)
			handlers.RespondNotFound(w, msgTerminalNotFound)

		case errors.Is(err, getAvailableSlots.ErrGateNotFound):
			h.logger.Warn("GET /terminals/{id}/available-slots - Gate not found: terminal_id=%d", terminalID)
			handlers.RespondNotFound(w, msgGateNotFound)

		case errors.Is(err, getAvailableSlots.ErrInvalidDate):
			h.logger.Warn("GET /terminals/{id}/available-slots - Date out of range: terminal_id=%d, date=%s",
				terminalID, dateStr)
			handlers.RespondBadRequest(w, msgDateOutOfRange)

		case errors.Is(err, getAvailableSlots.ErrInvalidInput):
			h.logger.Warn("GET /terminals/{id}/available-slots - Invalid input: %v", err)
			handlers.RespondBadRequest(w, msgInvalidTerminalID)

		default:
			h.logger.Error("GET /terminals/{id}/available-slots - Failed: terminal_id=%d, error=%v", terminalID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("GET /terminals/{id}/available-slots - %d slots returned: terminal_id=%d, date=%s",
		len(result.Slots), terminalID, dateStr)
	handlers.RespondJSON(w, http.StatusOK, FromUseCaseResponse(result))
}
