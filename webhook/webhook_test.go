package webhook

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/use-agent/revscan/models"
)

func TestDeliverSignsAndSendsJobEvent(t *testing.T) {
	const secret = "hunter2"
	var (
		gotBody []byte
		gotSig  string
		gotUA   string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotBody, _ = io.ReadAll(r.Body)
		gotSig = r.Header.Get("X-Revscan-Signature")
		gotUA = r.Header.Get("User-Agent")
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	event := JobEvent(EventJobCompleted, "job-9", models.BatchSummary{TotalHotels: 3, Scanned: 3, PixelCount: 1})
	if err := Deliver(context.Background(), srv.URL, secret, event); err != nil {
		t.Fatalf("deliver: %v", err)
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(gotBody)
	want := "sha256=" + hex.EncodeToString(mac.Sum(nil))
	if gotSig != want {
		t.Errorf("signature = %q, want %q", gotSig, want)
	}
	if gotUA != "Revscan-Webhook/1.0" {
		t.Errorf("user-agent = %q", gotUA)
	}

	var decoded Event
	if err := json.Unmarshal(gotBody, &decoded); err != nil {
		t.Fatalf("unmarshal body: %v", err)
	}
	if decoded.Type != EventJobCompleted || decoded.JobID != "job-9" {
		t.Errorf("event = %+v", decoded)
	}
	if decoded.Summary == nil || decoded.Summary.PixelCount != 1 {
		t.Errorf("summary = %+v", decoded.Summary)
	}
	if decoded.Hotel != nil {
		t.Errorf("job event carries hotel payload: %+v", decoded.Hotel)
	}
}

func TestDeliverHotelEvent(t *testing.T) {
	var gotBody []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	event := HotelEvent("job-9", HotelResult{
		Name:       "Test Hotel",
		Index:      2,
		Pixel:      true,
		Confidence: models.ConfidenceHigh,
	})
	if err := Deliver(context.Background(), srv.URL, "", event); err != nil {
		t.Fatalf("deliver: %v", err)
	}

	var decoded Event
	if err := json.Unmarshal(gotBody, &decoded); err != nil {
		t.Fatalf("unmarshal body: %v", err)
	}
	if decoded.Type != EventHotelScanned {
		t.Errorf("type = %q", decoded.Type)
	}
	if decoded.Hotel == nil || !decoded.Hotel.Pixel || decoded.Hotel.Index != 2 {
		t.Errorf("hotel = %+v", decoded.Hotel)
	}
}

func TestDeliverRejectsErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	err := Deliver(context.Background(), srv.URL, "", JobEvent(EventJobFailed, "job-x", models.BatchSummary{}))
	if err == nil {
		t.Fatal("expected error for 502 response")
	}
}
