package types_test

import (
	"encoding/json"
	"testing"

	"github.com/ginjaninja78/inflightpayment/internal/types"
)

func TestBucketsKeepFirstSeenOrder(t *testing.T) {
	b := types.NewBuckets[int]()
	b.Append("2", 1)
	b.Append("10", 2)
	b.Append("2", 3)

	if b.Len() != 2 || b.Count() != 3 {
		t.Fatalf("len=%d count=%d", b.Len(), b.Count())
	}
	got, err := json.Marshal(b)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(got) != `{"2":[1,3],"10":[2]}` {
		t.Fatalf("unexpected json: %s", got)
	}

	keys := b.Keys()
	keys[0] = "mutated"
	if b.Keys()[0] != "2" {
		t.Fatalf("Keys should return a copy")
	}

	var zero types.Buckets[string]
	zero.Append("1", "a")
	if v, ok := zero.Get("1"); !ok || v[0] != "a" {
		t.Fatalf("zero value Buckets should be usable")
	}
}

func TestOrderedRowJSON(t *testing.T) {
	row := types.OrderedRow{
		Columns: types.Columns{"customer_id", "title", "email"},
		Row:     types.RawRow{"email": "", "customer_id": "1", "title": "2", "extra": "x"},
	}
	got, err := json.Marshal(types.Rejected{Row: row, Reason: "ignored"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(got) != `{"customer_id":"1","title":"2","email":"","extra":"x"}` {
		t.Fatalf("unexpected json: %s", got)
	}
}

func TestNewCustomerID(t *testing.T) {
	if types.NewCustomerID(" 1 ") != types.NewCustomerID("1") {
		t.Fatalf("surrounding whitespace should not matter")
	}
	if types.NewCustomerID("01") == types.NewCustomerID("1") {
		t.Fatalf("leading zeros are significant")
	}
}
