package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"gym_sales_backend/internal/repositories"
)

const (
	saleNumberDateLayout = "20060102"
	saleNumberSeqDigits  = 4
	maxSaleSequence      = 9999
)

// ErrSaleNumberExhausted is returned when a gym has used every sequence number of a day.
var ErrSaleNumberExhausted = errors.New("sale numbers for this day are exhausted")

// SaleNumberPrefix returns the date part of sale numbers issued at t in loc.
func SaleNumberPrefix(t time.Time, loc *time.Location) string {
	return t.In(loc).Format(saleNumberDateLayout)
}

// NextSaleNumber returns the number that follows latest within prefix's day.
// An empty latest starts the day at 0001.
func NextSaleNumber(prefix, latest string) (string, error) {
	seq := 1
	if latest != "" {
		if !strings.HasPrefix(latest, prefix) || len(latest) != len(prefix)+saleNumberSeqDigits {
			return "", fmt.Errorf("malformed sale number %q for day %s", latest, prefix)
		}
		last, err := strconv.Atoi(latest[len(prefix):])
		if err != nil {
			return "", fmt.Errorf("malformed sale number %q: %w", latest, err)
		}
		seq = last + 1
	}
	if seq > maxSaleSequence {
		return "", ErrSaleNumberExhausted
	}
	return fmt.Sprintf("%s%0*d", prefix, saleNumberSeqDigits, seq), nil
}

// generateSaleNumber reserves the next sale number of the gym's day. The lock
// it takes holds until the surrounding transaction ends, so the number stays
// reserved until the sale header is inserted.
func generateSaleNumber(ctx context.Context, sales repositories.SaleRepository, gymID int64, prefix string) (string, error) {
	if err := sales.LockSaleNumbers(ctx, gymID, prefix); err != nil {
		return "", err
	}
	latest, err := sales.LatestSaleNumber(ctx, gymID, prefix)
	if err != nil {
		return "", err
	}
	return NextSaleNumber(prefix, latest)
}
