package geocode

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	geo "github.com/codingsince1985/geo-golang"
	"github.com/codingsince1985/geo-golang/openstreetmap"
)

var ErrNoAddress = errors.New("no address for coordinates")

// Geocoder turns coordinates into a human-readable address.
type Geocoder interface {
	Reverse(ctx context.Context, lat, lng float64) (string, error)
}

// NominatimService reverse-geocodes through an OpenStreetMap Nominatim instance.
type NominatimService struct {
	Client  geo.Geocoder
	Timeout time.Duration
}

func NewNominatimService(baseURL string, timeout time.Duration) *NominatimService {
	return &NominatimService{
		Client:  openstreetmap.GeocoderWithURL(strings.TrimRight(baseURL, "/") + "/"),
		Timeout: timeout,
	}
}

type reverseResult struct {
	addr *geo.Address
	err  error
}

func (s *NominatimService) Reverse(ctx context.Context, lat, lng float64) (string, error) {
	if s.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.Timeout)
		defer cancel()
	}

	ch := make(chan reverseResult, 1)
	go func() {
		addr, err := s.Client.ReverseGeocode(lat, lng)
		ch <- reverseResult{addr: addr, err: err}
	}()

	var res reverseResult
	select {
	case <-ctx.Done():
		return "", fmt.Errorf("reverse geocode: %w", ctx.Err())
	case res = <-ch:
	}

	if res.err != nil {
		// Nominatim answers {"error": "..."} when nothing is near the point.
		if strings.HasPrefix(res.err.Error(), "reverse geocoding error") {
			return "", ErrNoAddress
		}
		return "", fmt.Errorf("reverse geocode: %w", res.err)
	}
	if res.addr == nil || res.addr.FormattedAddress == "" {
		return "", ErrNoAddress
	}
	return res.addr.FormattedAddress, nil
}
