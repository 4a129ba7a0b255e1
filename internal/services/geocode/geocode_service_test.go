package geocode

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	geo "github.com/codingsince1985/geo-golang"
)

func TestNominatimReverse(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/reverse" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		gotQuery = r.URL.RawQuery
		if r.URL.Query().Get("lat") == "0.000000" {
			_, _ = w.Write([]byte(`{"error":"Unable to geocode"}`))
			return
		}
		_, _ = w.Write([]byte(`{"display_name":"MG Road, Bengaluru, Karnataka, India","lat":"12.97","lon":"77.59"}`))
	}))
	defer srv.Close()

	s := NewNominatimService(srv.URL, time.Second)

	addr, err := s.Reverse(context.Background(), 12.97, 77.59)
	if err != nil {
		t.Fatalf("Reverse: %v", err)
	}
	if addr != "MG Road, Bengaluru, Karnataka, India" {
		t.Fatalf("unexpected address %q", addr)
	}
	if gotQuery != "format=json&lat=12.970000&lon=77.590000" {
		t.Fatalf("unexpected query %q", gotQuery)
	}

	if _, err := s.Reverse(context.Background(), 0, 0); !errors.Is(err, ErrNoAddress) {
		t.Fatalf("expected ErrNoAddress, got %v", err)
	}
}

func TestNominatimReverse_EmptyBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	s := NewNominatimService(srv.URL, time.Second)
	if _, err := s.Reverse(context.Background(), 1, 1); !errors.Is(err, ErrNoAddress) {
		t.Fatalf("expected ErrNoAddress, got %v", err)
	}
}

func TestNominatimReverse_UpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(`<html>bad gateway</html>`))
	}))
	defer srv.Close()

	s := NewNominatimService(srv.URL, time.Second)
	_, err := s.Reverse(context.Background(), 1, 1)
	if err == nil || errors.Is(err, ErrNoAddress) {
		t.Fatalf("expected upstream error, got %v", err)
	}
}

type slowGeocoder struct{ release chan struct{} }

func (g slowGeocoder) Geocode(string) (*geo.Location, error) { return nil, nil }

func (g slowGeocoder) ReverseGeocode(float64, float64) (*geo.Address, error) {
	<-g.release
	return &geo.Address{FormattedAddress: "late"}, nil
}

func TestNominatimReverse_Timeout(t *testing.T) {
	g := slowGeocoder{release: make(chan struct{})}
	defer close(g.release)

	s := &NominatimService{Client: g, Timeout: 20 * time.Millisecond}
	_, err := s.Reverse(context.Background(), 1, 1)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline error, got %v", err)
	}
}
