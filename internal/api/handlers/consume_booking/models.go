package consume_booking

// ConsumeBookingRequest HTTP request model
// Тело запроса необязательное: сканер может не передавать контекст
type ConsumeBookingRequest struct {
	ScanContext string `json:"scanContext,omitempty"`
}
