package ticketeta

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"
)

// Random fallback ranges used when the backing index cannot be scanned.
const (
	fallbackTicketMin   = 10001
	fallbackTicketMax   = 99999
	fallbackCustomerMin = 1001
	fallbackCustomerMax = 9999

	idScanLimit = 1000
)

// TicketLister enumerates indexed tickets. BleveIndex implements it.
type TicketLister interface {
	List(ctx context.Context, limit int) ([]Candidate, error)
}

// HighestIDer reports the largest identifiers in an index without listing
// it. The allocator prefers it over a capped List scan. BleveIndex
// implements it.
type HighestIDer interface {
	HighestIDs(ctx context.Context) (Identity, error)
}

var errNoLister = errors.New("no ticket index configured")

// IDAllocator hands out ticket and customer identifiers one above the
// highest numeric identifiers found in the backing index.
type IDAllocator struct {
	src     TicketLister
	timeout time.Duration
	log     *slog.Logger
	intn    func(lo, hi int) int
}

// NewIDAllocator creates an allocator over src. A nil src always falls back
// to random identifiers.
func NewIDAllocator(src TicketLister, timeout time.Duration, logger *slog.Logger) *IDAllocator {
	if logger == nil {
		logger = slog.Default()
	}
	return &IDAllocator{
		src:     src,
		timeout: timeout,
		log:     logger,
		intn: func(lo, hi int) int {
			return lo + rand.IntN(hi-lo+1)
		},
	}
}

// Next returns the next identity. It never fails: a scan error yields random
// identifiers from the fallback ranges.
func (a *IDAllocator) Next(ctx context.Context) Identity {
	id, err := a.scan(ctx)
	if err != nil {
		a.log.Warn("id scan failed, using random ids", "error", fmt.Errorf("%w: %w", ErrSystem, err))
		return Identity{
			TicketID:   a.intn(fallbackTicketMin, fallbackTicketMax),
			CustomerID: a.intn(fallbackCustomerMin, fallbackCustomerMax),
		}
	}
	return id
}

func (a *IDAllocator) scan(ctx context.Context) (Identity, error) {
	if a.src == nil {
		return Identity{}, errNoLister
	}

	ctx, cancel := withTimeout(ctx, a.timeout)
	defer cancel()

	if h, ok := a.src.(HighestIDer); ok {
		top, err := h.HighestIDs(ctx)
		if err != nil {
			return Identity{}, err
		}
		return Identity{TicketID: top.TicketID + 1, CustomerID: top.CustomerID + 1}, nil
	}

	tickets, err := a.src.List(ctx, idScanLimit)
	if err != nil {
		return Identity{}, err
	}

	var maxTicket, maxCustomer int
	for _, t := range tickets {
		if n, ok := numericID(t.TicketID); ok {
			maxTicket = max(maxTicket, n)
		}
		if n, ok := numericID(t.Fields[FieldCustomerID]); ok {
			maxCustomer = max(maxCustomer, n)
		}
	}
	return Identity{TicketID: maxTicket + 1, CustomerID: maxCustomer + 1}, nil
}
