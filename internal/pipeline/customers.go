package pipeline

import (
	"strings"

	"github.com/ginjaninja78/inflightpayment/internal/csvparser"
	"github.com/ginjaninja78/inflightpayment/internal/logging"
	"github.com/ginjaninja78/inflightpayment/internal/types"
	"github.com/ginjaninja78/inflightpayment/internal/validation"
)

// Source column names in the customers file. The id column is shared with the
// purchases file (ColCustomerID).
const (
	ColTitle     = "title"
	ColLastName  = "lastname"
	ColFirstName = "firstname"
	ColEmail     = "email"
)

// salutationCodes maps the title code of the customers file to a salutation.
// A missing title column is looked up as "".
var salutationCodes = map[string]string{
	"1": "Mme",
	"2": "M",
	"":  "",
}

// Salutation looks up a title code. ok is false for codes outside the table.
func Salutation(code string) (salutation string, ok bool) {
	salutation, ok = salutationCodes[strings.TrimSpace(code)]
	return salutation, ok
}

// CustomerResult holds the partitioned customers of one file.
type CustomerResult struct {
	// Valid maps customer id to its accepted record. A repeated id keeps the
	// last accepted row.
	Valid map[types.CustomerID]types.CustomerRecord

	// Invalid maps customer id to its rejected raw rows, in file order.
	Invalid *types.Buckets[types.Rejected]

	// Errors holds the violation of each rejected row, in file order.
	Errors []*validation.ValidationError

	// Rows is the number of data rows read.
	Rows int
}

// CustomerTransformer coerces, validates and routes customer rows.
type CustomerTransformer struct {
	validator *validation.Validator
	logger    logging.Logger
}

// NewCustomerTransformer creates a CustomerTransformer.
func NewCustomerTransformer(v *validation.Validator, logger logging.Logger) *CustomerTransformer {
	return &CustomerTransformer{validator: v, logger: logger}
}

// FormatRow builds the canonical customer record. Missing values become empty
// strings; an unknown title code is returned as a ValidationError.
func (t *CustomerTransformer) FormatRow(row types.RawRow) (types.CustomerRecord, *validation.ValidationError) {
	code := row[ColTitle]
	salutation, ok := Salutation(code)
	if !ok {
		return types.CustomerRecord{}, validation.LookupError(ColTitle, code)
	}

	return types.CustomerRecord{
		Salutation: salutation,
		LastName:   row[ColLastName],
		FirstName:  row[ColFirstName],
		Email:      row[ColEmail],
	}, nil
}

// Transform partitions every row of data into valid records and invalid
// buckets keyed by customer id.
func (t *CustomerTransformer) Transform(data *csvparser.CSVData) *CustomerResult {
	result := &CustomerResult{
		Valid:   make(map[types.CustomerID]types.CustomerRecord),
		Invalid: types.NewBuckets[types.Rejected](),
		Rows:    len(data.Rows),
	}

	for i, row := range data.Rows {
		id := types.NewCustomerID(row[ColCustomerID])

		customer, verr := t.FormatRow(row)
		if verr != nil {
			t.validator.Reject("customer", row, verr)
		} else {
			verr = t.validator.Customer(customer)
		}

		if verr != nil {
			result.Invalid.Append(id, types.Rejected{Row: data.Ordered(i), Reason: verr.Error()})
			result.Errors = append(result.Errors, verr)
			continue
		}
		if _, dup := result.Valid[id]; dup {
			t.logger.Warn("customer %q appears more than once; keeping the last row", id)
		}
		result.Valid[id] = customer
	}

	t.logger.Debug("customers: %d row(s), %d valid, %d invalid",
		result.Rows, len(result.Valid), result.Invalid.Count())
	return result
}
