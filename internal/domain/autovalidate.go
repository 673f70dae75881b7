package domain

// AutoApprove decides whether a freshly reserved booking may skip operator
// review. Pure function of the slot state after reservation and the terminal
// threshold.
//
// Сравнение целочисленное, без плавающей точки:
// reservedAfter/capacity*100 < thresholdPct  <=>  reservedAfter*100 < thresholdPct*capacity
// Равенство (ровно порог) трактуется консервативно - ручная проверка.
func AutoApprove(capacity, reservedAfter, thresholdPct int) bool {
	if capacity <= 0 || reservedAfter < 0 {
		return false
	}
	if thresholdPct <= 0 {
		return false
	}
	return reservedAfter*100 < thresholdPct*capacity
}
