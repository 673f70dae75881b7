package decide_booking

// DecideBookingRequest HTTP request model
type DecideBookingRequest struct {
	Decision string `json:"decision"` // confirm | reject
	Comment  string `json:"comment,omitempty"`
}
