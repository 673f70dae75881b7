package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// BookingReferencePrefix префикс человекочитаемого номера бронирования
const BookingReferencePrefix = "PGC"

// NewBookingReference generates a globally unique human-readable booking
// reference: PGC-20261014-9F3A2C81. The date part is the booking's slot date,
// the suffix comes from a random UUID.
func NewBookingReference(slotDate time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))[:8]
	return fmt.Sprintf("%s-%s-%s", BookingReferencePrefix, slotDate.Format("20060102"), suffix)
}
