package services

import (
	"fmt"
	"time"

	"shoten/internal/repositories"
)

// Order number format: ORD + YYYYMMDD + zero-padded daily sequence. The
// format is a public contract consumed by downstream reporting and must not
// change.
const (
	orderNumberPrefix      = "ORD"
	orderNumberDateLayout  = "20060102"
	orderNumberMaxAttempts = 3
	orderNumberRetryDelay  = 25 * time.Millisecond
)

// generateOrderNumber produces a unique, date-scoped order number with
// bounded collision retry. It must run against the transaction-scoped order
// repository so the uniqueness check stays consistent with the insert that
// follows it.
func generateOrderNumber(orders repositories.OrderRepository, now time.Time) (string, error) {
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	dayEnd := dayStart.AddDate(0, 0, 1)

	for attempt := 0; attempt < orderNumberMaxAttempts; attempt++ {
		if attempt > 0 {
			time.Sleep(orderNumberRetryDelay)
		}

		count, err := orders.CountByOrderDate(dayStart, dayEnd)
		if err != nil {
			continue // transient, retry within the bound
		}

		// The attempt offset defends against the count having shifted between
		// the count query and the uniqueness check under concurrent checkouts.
		sequence := count + 1 + int64(attempt)
		candidate := fmt.Sprintf("%s%s%04d", orderNumberPrefix, now.Format(orderNumberDateLayout), sequence)

		exists, err := orders.ExistsByNumber(candidate)
		if err != nil || exists {
			continue
		}
		return candidate, nil
	}
	return "", fmt.Errorf("%w: exhausted %d attempts", ErrOrderNumberGeneration, orderNumberMaxAttempts)
}
