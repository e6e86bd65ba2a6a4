package ledger

import (
	"context"
	"errors"
	"fmt"
	"strconv"
)

const (
	BillKindSales    = "S"
	BillKindPurchase = "B"
)

// billPrefixLen is the "S_" / "B_" part stripped before parsing.
const billPrefixLen = 2

func FormatBillNumber(kind string, n int64) string {
	return fmt.Sprintf("%s_%d", kind, n)
}

// ParseBillNumber returns the numeric suffix of a bill number like "S_42".
func ParseBillNumber(billNo string) (int64, bool) {
	if len(billNo) <= billPrefixLen {
		return 0, false
	}
	n, err := strconv.ParseInt(billNo[billPrefixLen:], 10, 64)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

// NextBillNumber follows last in sequence, starting at 1 when last is empty or unparsable.
func NextBillNumber(kind, last string) string {
	n, ok := ParseBillNumber(last)
	if !ok {
		n = 0
	}
	return FormatBillNumber(kind, n+1)
}

// issueBillNumber takes the next number from the kind's counter row.
// A missing counter is seeded from the newest existing bill so old data keeps its sequence.
func issueBillNumber(ctx context.Context, repo Repository, kind string) (string, error) {
	value, ok, err := repo.IncrementBillCounter(ctx, kind)
	if err != nil {
		return "", err
	}
	if ok {
		return FormatBillNumber(kind, value), nil
	}

	last, err := repo.MostRecentBillNumber(ctx, kind)
	if err != nil {
		return "", err
	}
	billNo := NextBillNumber(kind, last)
	value, _ = ParseBillNumber(billNo)
	if err := repo.CreateBillCounter(ctx, kind, value); err != nil {
		if errors.Is(err, ErrDuplicate) {
			return "", newError(ErrConflict, "bill counter %q was created concurrently", kind)
		}
		return "", err
	}
	return billNo, nil
}
