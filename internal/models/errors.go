package models

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrRaffleNotFound   = errors.New("raffle not found")
	ErrSaleNotFound     = errors.New("sale not found")
	ErrRaffleInactive   = errors.New("raffle is not active")
	// ErrRaffleFinished guards the winner invariant: a raffle with a winner
	// recorded can only return to active through reactivation, which clears
	// the winner fields in the same update.
	ErrRaffleFinished = errors.New("raffle already has a winner")
	ErrInvalidSignature = errors.New("webhook signature mismatch")
	// ErrGatewayQueryFailed marks a transient failure fetching the payment
	// record; the webhook handler answers non-2xx so the gateway retries.
	ErrGatewayQueryFailed = errors.New("payment gateway query failed")
	// ErrReconciliationMismatch means the notification could not be tied to a
	// local sale. No state is mutated; the delivery is acknowledged.
	ErrReconciliationMismatch = errors.New("payment does not match a local sale")
	ErrAmountMismatch         = errors.New("paid amount differs from sale amount")
	ErrNumberOutOfRange       = errors.New("number outside raffle range")
	ErrNoNumbers              = errors.New("at least one number is required")
	ErrNoSaleForNumber        = errors.New("no confirmed sale holds this number")
	ErrSaleNotPayable         = errors.New("sale is not awaiting payment")
	ErrAmountTooHigh          = errors.New("transaction amount too high")
	ErrInvalidCredentials     = errors.New("invalid credentials")
)

// NumbersUnavailableError is returned when a reservation collides with
// numbers already held by an in-flight or confirmed sale.
type NumbersUnavailableError struct {
	Numbers []int
}

func (e *NumbersUnavailableError) Error() string {
	sorted := make([]int, len(e.Numbers))
	copy(sorted, e.Numbers)
	sort.Ints(sorted)
	parts := make([]string, len(sorted))
	for i, n := range sorted {
		parts[i] = fmt.Sprint(n)
	}
	return "numbers unavailable: " + strings.Join(parts, ", ")
}
