package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

var basePrices = map[GarmentType]decimal.Decimal{
	GarmentShirt:     decimal.NewFromInt(800),
	GarmentPant:      decimal.NewFromInt(600),
	GarmentKurta:     decimal.NewFromInt(1200),
	GarmentKoti:      decimal.NewFromInt(1500),
	GarmentWaistcoat: decimal.NewFromInt(1800),
}

var urgencyMultipliers = map[Urgency]decimal.Decimal{
	UrgencyNormal:  decimal.NewFromInt(1),
	UrgencyUrgent:  decimal.RequireFromString("1.25"),
	UrgencyExpress: decimal.RequireFromString("1.5"),
}

var leadDays = map[Urgency]int{
	UrgencyNormal:  7,
	UrgencyUrgent:  3,
	UrgencyExpress: 1,
}

// BasePrice returns the list price of one garment at normal urgency.
func BasePrice(garment GarmentType) (float64, error) {
	price, ok := basePrices[garment]
	if !ok {
		return 0, fmt.Errorf("unknown garment type %q", garment)
	}
	return price.InexactFloat64(), nil
}

// QuotePrice returns the unit price of a garment at the given urgency,
// rounded to two places.
func QuotePrice(garment GarmentType, urgency Urgency) (float64, error) {
	price, ok := basePrices[garment]
	if !ok {
		return 0, fmt.Errorf("unknown garment type %q", garment)
	}
	mult, ok := urgencyMultipliers[urgency]
	if !ok {
		return 0, fmt.Errorf("unknown urgency %q", urgency)
	}
	return price.Mul(mult).Round(2).InexactFloat64(), nil
}

// DefaultDeliveryDate returns the promised delivery date for an order placed
// at now, formatted as YYYY-MM-DD.
func DefaultDeliveryDate(now time.Time, urgency Urgency) (string, error) {
	days, ok := leadDays[urgency]
	if !ok {
		return "", fmt.Errorf("unknown urgency %q", urgency)
	}
	return now.AddDate(0, 0, days).Format(DeliveryDateLayout), nil
}
