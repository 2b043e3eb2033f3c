// =============================================================================
// In-flight Payment Sender - Validation Engine
// =============================================================================
//
// This module validates canonical purchase and customer records against the
// fixed API schemas before they are accepted into the payload.
//
// SCHEMAS (declared as struct tags on the records in internal/types):
//   Purchase: currency in {USD, EUR, GBP}; purchased_at matches YYYY-MM-DD;
//             price is a floating-point number; all five fields required.
//   Customer: salutation in {"M", "Mme", ""}; email is a valid address;
//             all four fields required, empty strings allowed.
//
// "Required" is a presence check. It is enforced while the transformers
// coerce raw rows (see RequiredError), because a canonical record always has
// every field.
//
// ERROR HANDLING:
//   - Only the first violated constraint is reported, in field order
//   - A rejection is printed for the operator and logged at ERROR level
//   - Rejections are never fatal; the caller diverts the row
//
// =============================================================================

package validation

import (
	"errors"
	"fmt"
	"io"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/ginjaninja78/inflightpayment/internal/logging"
	"github.com/ginjaninja78/inflightpayment/internal/types"
)

// =============================================================================
// VALIDATION ERROR TYPE
// =============================================================================

// Rule names carried by ValidationError.
const (
	RuleRequired = "required"
	RuleType     = "type"
	RuleEnum     = "enum"
	RulePattern  = "pattern"
	RuleFormat   = "format"
	RuleLookup   = "lookup"
)

// ValidationError describes the first constraint a record violated.
type ValidationError struct {
	// Field is the API field name (JSON name) that failed.
	Field string

	// Value is the offending value as text.
	Value string

	// Rule is one of the Rule* constants.
	Rule string

	// Message is a human-readable description of the violation.
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s (field '%s', rule %s)", e.Message, e.Field, e.Rule)
}

// RequiredError reports a field missing from the source row.
func RequiredError(field string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Rule:    RuleRequired,
		Message: fmt.Sprintf("'%s' is a required property", field),
	}
}

// TypeError reports a value that could not be coerced to the field's type.
func TypeError(field, value, typ string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Value:   value,
		Rule:    RuleType,
		Message: fmt.Sprintf("'%s' is not of type '%s'", value, typ),
	}
}

// LookupError reports a code missing from a fixed lookup table.
func LookupError(field, value string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Value:   value,
		Rule:    RuleLookup,
		Message: fmt.Sprintf("'%s' is not a known %s code", value, field),
	}
}

// =============================================================================
// VALIDATOR
// =============================================================================

// isoDatePattern is the purchased_at pattern. Only the shape is checked.
var isoDatePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// Salutations are the accepted salutation values; "" means unknown.
var Salutations = []string{"M", "Mme", ""}

// Validator checks canonical records and reports rejections.
type Validator struct {
	validate *validator.Validate
	out      io.Writer
	logger   logging.Logger
}

// New creates a Validator. Rejections are printed to out and logged.
func New(out io.Writer, logger logging.Logger) *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report JSON names so messages match the API field names.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})

	// Both functions are registered on a fresh Validate with static tag
	// names, so registration cannot fail.
	_ = v.RegisterValidation("isodate", func(fl validator.FieldLevel) bool {
		return isoDatePattern.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("salutation", func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		for _, ok := range Salutations {
			if s == ok {
				return true
			}
		}
		return false
	})

	if out == nil {
		out = io.Discard
	}
	return &Validator{validate: v, out: out, logger: logger}
}

// Check validates a canonical record without side effects. It returns nil
// when the record is accepted.
func (v *Validator) Check(record interface{}) *ValidationError {
	err := v.validate.Struct(record)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return &ValidationError{Rule: RuleType, Message: err.Error()}
	}
	return fromFieldError(fieldErrs[0])
}

// Purchase validates a purchase record and reports a rejection.
func (v *Validator) Purchase(p types.PurchaseRecord) *ValidationError {
	verr := v.Check(p)
	if verr != nil {
		v.Reject("purchase", p, verr)
	}
	return verr
}

// Customer validates a customer record and reports a rejection.
func (v *Validator) Customer(c types.CustomerRecord) *ValidationError {
	verr := v.Check(c)
	if verr != nil {
		v.Reject("customer", c, verr)
	}
	return verr
}

// Reject emits the diagnostic for a rejected record of the given kind.
func (v *Validator) Reject(kind string, record interface{}, verr *ValidationError) {
	msg := fmt.Sprintf("Schema validation error: %s in %+v. Skipping this %s.", verr.Message, record, kind)
	fmt.Fprintln(v.out, msg)
	if v.logger != nil {
		v.logger.Error("%s", msg)
	}
}

// fromFieldError maps a validator field error to a ValidationError.
func fromFieldError(fe validator.FieldError) *ValidationError {
	value := fmt.Sprintf("%v", fe.Value())
	verr := &ValidationError{
		Field: fe.Field(),
		Value: value,
	}

	switch fe.Tag() {
	case "oneof":
		verr.Rule = RuleEnum
		verr.Message = fmt.Sprintf("'%s' is not one of [%s]", value, fe.Param())
	case "salutation":
		verr.Rule = RuleEnum
		verr.Message = fmt.Sprintf("'%s' is not one of %q", value, Salutations)
	case "isodate":
		verr.Rule = RulePattern
		verr.Message = fmt.Sprintf("'%s' does not match '%s'", value, isoDatePattern.String())
	case "email":
		verr.Rule = RuleFormat
		verr.Message = fmt.Sprintf("'%s' is not a 'email'", value)
	default:
		verr.Rule = fe.Tag()
		verr.Message = fmt.Sprintf("'%s' failed '%s' validation", value, fe.Tag())
	}
	return verr
}

// FormatErrors summarizes the rejections of one source for the run log,
// grouped by field and rule in first-seen order.
func FormatErrors(kind string, errs []*ValidationError) string {
	if len(errs) == 0 {
		return fmt.Sprintf("No %s rows rejected.", kind)
	}

	type group struct {
		key   string
		count int
		first *ValidationError
	}
	var groups []*group
	byKey := make(map[string]*group)
	for _, e := range errs {
		key := e.Field + "/" + e.Rule
		g, ok := byKey[key]
		if !ok {
			g = &group{key: key, first: e}
			byKey[key] = g
			groups = append(groups, g)
		}
		g.count++
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%d %s row(s) rejected:", len(errs), kind)
	for _, g := range groups {
		fmt.Fprintf(&b, "\n  %s x%d, e.g. %s", g.key, g.count, g.first.Message)
	}
	return b.String()
}
