// =============================================================================
// In-flight Payment Sender - Shared Types
// =============================================================================
//
// This package contains the record shapes shared by the CSV parser, the
// validation engine, the pipeline and the reporters. Keeping them here avoids
// import cycles between those packages.
//
// RECORD LIFECYCLE:
//   RawRow (as parsed) -> PurchaseRecord / CustomerRecord (canonical)
//   -> PayloadEntry (joined, sent to the API)
//
// =============================================================================

package types

import (
	"bytes"
	"encoding/json"
	"slices"
	"strings"
)

// =============================================================================
// RAW ROWS
// =============================================================================

// RawRow is a data row exactly as parsed from delimited text: column header
// to string value. A column missing from a short row is absent from the map.
type RawRow map[string]string

// Columns lists the header order of the file the row came from. It is only
// used to keep JSON output in source column order and is not serialized.
type Columns []string

// OrderedRow pairs a RawRow with its source column order.
type OrderedRow struct {
	Columns Columns
	Row     RawRow
}

// MarshalJSON writes the row's keys in source column order. Keys that are not
// part of Columns (should not happen for parsed rows) follow in sorted order.
func (r OrderedRow) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')

	seen := make(map[string]bool, len(r.Row))
	first := true
	write := func(key, value string) error {
		if !first {
			buf.WriteByte(',')
		}
		first = false
		k, err := json.Marshal(key)
		if err != nil {
			return err
		}
		v, err := json.Marshal(value)
		if err != nil {
			return err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
		return nil
	}

	for _, col := range r.Columns {
		value, ok := r.Row[col]
		if !ok || seen[col] {
			continue
		}
		seen[col] = true
		if err := write(col, value); err != nil {
			return nil, err
		}
	}

	var rest []string
	for key := range r.Row {
		if !seen[key] {
			rest = append(rest, key)
		}
	}
	slices.Sort(rest)
	for _, key := range rest {
		if err := write(key, r.Row[key]); err != nil {
			return nil, err
		}
	}

	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Rejected is a raw row that failed coercion or validation, with the reason.
// Only the row itself is serialized to JSON; Reason feeds the operator
// workbook and the log.
type Rejected struct {
	Row    OrderedRow
	Reason string
}

// MarshalJSON writes the raw row only.
func (r Rejected) MarshalJSON() ([]byte, error) {
	return r.Row.MarshalJSON()
}

// =============================================================================
// CUSTOMER IDENTIFIER
// =============================================================================

// CustomerID is the join key between purchases and customers. It is taken
// verbatim from the source column apart from surrounding whitespace, so "1"
// and " 1" join while "1" and "01" do not.
type CustomerID string

// NewCustomerID normalizes a raw identifier value.
func NewCustomerID(raw string) CustomerID {
	return CustomerID(strings.TrimSpace(raw))
}

// =============================================================================
// CANONICAL RECORDS
// =============================================================================

// PurchaseRecord is a purchase row after coercion. Field order matches the
// JSON key order expected by the API.
type PurchaseRecord struct {
	ProductID   string  `json:"product_id"`
	Quantity    int     `json:"quantity"`
	Price       float64 `json:"price"`
	Currency    string  `json:"currency" validate:"oneof=USD EUR GBP"`
	PurchasedAt string  `json:"purchased_at" validate:"isodate"`
}

// CustomerRecord is a customer row after coercion and salutation lookup.
// Missing values are empty strings, never absent.
type CustomerRecord struct {
	Salutation string `json:"salutation" validate:"salutation"`
	LastName   string `json:"last_name"`
	FirstName  string `json:"first_name"`
	Email      string `json:"email" validate:"email"`
}

// PayloadEntry is one outbound record: a customer with its purchases.
//
// Purchases is a single-element outer list wrapping the customer's ordered
// purchases. The API consumes this nesting as-is.
type PayloadEntry struct {
	CustomerRecord
	Purchases [][]PurchaseRecord `json:"purchases"`
}

// =============================================================================
// BUCKETS
// =============================================================================

// Buckets is an insertion-ordered mapping from customer identifier to a list
// of values. Keys iterate in the order they were first appended.
type Buckets[T any] struct {
	keys   []CustomerID
	values map[CustomerID][]T
}

// NewBuckets creates an empty Buckets.
func NewBuckets[T any]() *Buckets[T] {
	return &Buckets[T]{values: make(map[CustomerID][]T)}
}

// Append adds v to the list for id, creating an empty list on first use.
func (b *Buckets[T]) Append(id CustomerID, v T) {
	if b.values == nil {
		b.values = make(map[CustomerID][]T)
	}
	if _, ok := b.values[id]; !ok {
		b.keys = append(b.keys, id)
	}
	b.values[id] = append(b.values[id], v)
}

// Get returns the list stored for id.
func (b *Buckets[T]) Get(id CustomerID) ([]T, bool) {
	v, ok := b.values[id]
	return v, ok
}

// Keys returns the identifiers in first-appended order.
func (b *Buckets[T]) Keys() []CustomerID {
	out := make([]CustomerID, len(b.keys))
	copy(out, b.keys)
	return out
}

// Len returns the number of distinct identifiers.
func (b *Buckets[T]) Len() int {
	return len(b.keys)
}

// Count returns the total number of values across all identifiers.
func (b *Buckets[T]) Count() int {
	n := 0
	for _, v := range b.values {
		n += len(v)
	}
	return n
}

// MarshalJSON writes a JSON object keyed by identifier, in insertion order.
func (b *Buckets[T]) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, id := range b.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(string(id))
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(b.values[id])
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
