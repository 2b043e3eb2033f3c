package pipeline

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/ginjaninja78/inflightpayment/internal/csvparser"
	"github.com/ginjaninja78/inflightpayment/internal/logging"
	"github.com/ginjaninja78/inflightpayment/internal/types"
	"github.com/ginjaninja78/inflightpayment/internal/validation"
)

// Source column names in the purchases file.
const (
	ColPurchaseID = "purchase_identifier"
	ColCustomerID = "customer_id"
	ColProductID  = "product_id"
	ColQuantity   = "quantity"
	ColPrice      = "price"
	ColCurrency   = "currency"
	ColDate       = "date"
)

// PurchaseResult holds the partitioned purchases of one file.
type PurchaseResult struct {
	// Valid maps customer id to its accepted purchases, in file order.
	Valid *types.Buckets[types.PurchaseRecord]

	// Invalid maps customer id to its rejected raw rows, in file order.
	Invalid *types.Buckets[types.Rejected]

	// Errors holds the violation of each rejected row, in file order.
	Errors []*validation.ValidationError

	// Rows is the number of data rows read.
	Rows int
}

// PurchaseTransformer coerces, validates and routes purchase rows.
type PurchaseTransformer struct {
	validator *validation.Validator
	logger    logging.Logger
}

// NewPurchaseTransformer creates a PurchaseTransformer.
func NewPurchaseTransformer(v *validation.Validator, logger logging.Logger) *PurchaseTransformer {
	return &PurchaseTransformer{validator: v, logger: logger}
}

// FormatRow coerces a raw purchase row into a PurchaseRecord. Columns other
// than the five purchase fields are dropped. A missing column or a value that
// does not coerce is returned as a ValidationError.
func (t *PurchaseTransformer) FormatRow(row types.RawRow) (types.PurchaseRecord, *validation.ValidationError) {
	var p types.PurchaseRecord

	productID, ok := row[ColProductID]
	if !ok {
		return p, validation.RequiredError("product_id")
	}
	p.ProductID = productID

	rawPrice, ok := row[ColPrice]
	if !ok {
		return p, validation.RequiredError("price")
	}
	price, err := parseDecimal(rawPrice)
	if err != nil || math.IsNaN(price) || math.IsInf(price, 0) {
		return p, validation.TypeError("price", rawPrice, "number")
	}
	p.Price = price

	currency, ok := row[ColCurrency]
	if !ok {
		return p, validation.RequiredError("currency")
	}
	p.Currency = currency

	rawQuantity, ok := row[ColQuantity]
	if !ok {
		return p, validation.RequiredError("quantity")
	}
	quantity, err := strconv.Atoi(strings.TrimSpace(rawQuantity))
	if err != nil {
		return p, validation.TypeError("quantity", rawQuantity, "integer")
	}
	p.Quantity = quantity

	date, ok := row[ColDate]
	if !ok {
		return p, validation.RequiredError("purchased_at")
	}
	p.PurchasedAt = date

	return p, nil
}

// Transform partitions every row of data into valid and invalid buckets keyed
// by customer id.
func (t *PurchaseTransformer) Transform(data *csvparser.CSVData) *PurchaseResult {
	result := &PurchaseResult{
		Valid:   types.NewBuckets[types.PurchaseRecord](),
		Invalid: types.NewBuckets[types.Rejected](),
		Rows:    len(data.Rows),
	}

	for i, row := range data.Rows {
		id := types.NewCustomerID(row[ColCustomerID])

		purchase, verr := t.FormatRow(row)
		if verr != nil {
			t.validator.Reject("purchase", row, verr)
		} else {
			verr = t.validator.Purchase(purchase)
		}

		if verr != nil {
			result.Invalid.Append(id, types.Rejected{Row: data.Ordered(i), Reason: verr.Error()})
			result.Errors = append(result.Errors, verr)
			continue
		}
		result.Valid.Append(id, purchase)
	}

	t.logger.Debug("purchases: %d row(s), %d valid for %d customer(s), %d invalid",
		result.Rows, result.Valid.Count(), result.Valid.Len(), result.Invalid.Count())
	return result
}

// parseDecimal parses a decimal number. Hexadecimal floats ("0x1p3"), which
// strconv accepts, are refused.
func parseDecimal(raw string) (float64, error) {
	s := strings.TrimSpace(raw)
	digits := strings.TrimLeft(s, "+-")
	if len(digits) > 1 && digits[0] == '0' && (digits[1] == 'x' || digits[1] == 'X') {
		return 0, fmt.Errorf("not a decimal number: %q", raw)
	}
	return strconv.ParseFloat(s, 64)
}
