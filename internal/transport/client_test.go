package transport_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ginjaninja78/inflightpayment/internal/logging"
	"github.com/ginjaninja78/inflightpayment/internal/transport"
	"github.com/ginjaninja78/inflightpayment/internal/types"
)

func samplePayload() []types.PayloadEntry {
	return []types.PayloadEntry{{
		CustomerRecord: types.CustomerRecord{Salutation: "M", LastName: "Doe", FirstName: "John", Email: "johndoe@example.com"},
		Purchases: [][]types.PurchaseRecord{{
			{ProductID: "1221", Quantity: 1, Price: 10, Currency: "EUR", PurchasedAt: "2017-12-31"},
		}},
	}}
}

func TestUpsertSuccess(t *testing.T) {
	var gotMethod, gotContentType string
	var gotBody []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotContentType = r.Header.Get("Content-Type")
		gotBody, _ = io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"success","message":null}`))
	}))
	defer srv.Close()

	var out bytes.Buffer
	c := transport.New(srv.URL+"/v1/customers/", time.Second, &out, logging.Discard())
	resp, err := c.Upsert(context.Background(), samplePayload())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotMethod != http.MethodPut || gotContentType != "application/json" {
		t.Fatalf("unexpected request: method=%s content-type=%s", gotMethod, gotContentType)
	}

	want, _ := json.Marshal(samplePayload())
	if !bytes.Equal(gotBody, want) {
		t.Fatalf("unexpected body:\n got %s\nwant %s", gotBody, want)
	}
	if !strings.Contains(string(gotBody), `"purchases":[[{"product_id":"1221"`) {
		t.Fatalf("purchases should be double-nested: %s", gotBody)
	}

	if !resp.OK() || resp.Err != nil {
		t.Fatalf("unexpected response: %+v", resp)
	}
	body, ok := resp.Body.(map[string]interface{})
	if !ok || body["status"] != "success" {
		t.Fatalf("unexpected decoded body: %#v", resp.Body)
	}
	if !strings.Contains(out.String(), "data sent successfully") {
		t.Fatalf("unexpected operator output: %q", out.String())
	}
}

func TestUpsertFailureStatusStillReturnsBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"status":"error","message":"bad customer johndoe@example.com"}`))
	}))
	defer srv.Close()

	var out, logBuf bytes.Buffer
	c := transport.New(srv.URL, time.Second, &out, logging.New(&logBuf, logging.LevelInfo))
	resp, err := c.Upsert(context.Background(), samplePayload())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.OK() || resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("unexpected response: %+v", resp)
	}
	body, ok := resp.Body.(map[string]interface{})
	if !ok || body["status"] != "error" {
		t.Fatalf("unexpected decoded body: %#v", resp.Body)
	}
	if resp.Err == nil || strings.Contains(resp.Err.Error(), "johndoe@example.com") {
		t.Fatalf("expected redacted HTTPError, got %v", resp.Err)
	}
	if !strings.Contains(out.String(), "Failed to send in-flight payment data. Status code: 422") {
		t.Fatalf("unexpected operator output: %q", out.String())
	}
	if !strings.Contains(logBuf.String(), "- ERROR - Failed to send") {
		t.Fatalf("unexpected log output: %q", logBuf.String())
	}
}

func TestUpsertNonJSONBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	c := transport.New(srv.URL, time.Second, nil, logging.Discard())
	resp, err := c.Upsert(context.Background(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !resp.OK() || resp.Body != nil {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestUpsertNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	var out bytes.Buffer
	c := transport.New(url, time.Second, &out, logging.Discard())
	if _, err := c.Upsert(context.Background(), samplePayload()); err == nil {
		t.Fatalf("expected error")
	}
	if !strings.Contains(out.String(), "Failed to send in-flight payment data") {
		t.Fatalf("unexpected operator output: %q", out.String())
	}
}

func TestUpsertTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer srv.Close()
	defer close(release)

	c := transport.New(srv.URL, 50*time.Millisecond, nil, logging.Discard())
	if _, err := c.Upsert(context.Background(), samplePayload()); err == nil {
		t.Fatalf("expected timeout error")
	}
}
