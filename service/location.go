package service

import (
	"cmp"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"saneamento-dashboard/model"
)

const (
	ipLocationEndpoint    = "https://ipapi.co/json/"
	ipWhoIsEndpoint       = "https://ipwho.is/"
	ipInfoEndpoint        = "https://ipinfo.io/json"
	locationErrorSnippetN = 120
)

// UserLocation is the approximate position of the machine running the
// dashboard, as reported by an IP geolocation provider.
type UserLocation struct {
	Position model.LatLng
	City     string
	Region   string
	Country  string
	Source   string
}

type locationProvider struct {
	name     string
	endpoint string
	parse    func([]byte) (UserLocation, error)
}

var defaultLocationProviders = []locationProvider{
	{name: "ipapi", endpoint: ipLocationEndpoint, parse: decodeLocation[ipAPIResponse]},
	{name: "ipwhois", endpoint: ipWhoIsEndpoint, parse: decodeLocation[ipWhoIsResponse]},
	{name: "ipinfo", endpoint: ipInfoEndpoint, parse: decodeLocation[ipInfoResponse]},
}

// Locator resolves the current location by trying each IP provider in turn.
type Locator struct {
	httpClient *http.Client
	providers  []locationProvider
	logger     *zap.Logger
}

func NewLocator(httpClient *http.Client, logger *zap.Logger) *Locator {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 8 * time.Second}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Locator{httpClient: httpClient, providers: defaultLocationProviders, logger: logger}
}

// Locate returns the first location any provider can determine.
func (l *Locator) Locate(ctx context.Context) (UserLocation, error) {
	if len(l.providers) == 0 {
		return UserLocation{}, errors.New("no location providers configured")
	}

	var providerErrors []string
	for _, provider := range l.providers {
		location, err := l.fromProvider(ctx, provider)
		if err == nil {
			l.logger.Debug("location resolved",
				zap.String("source", location.Source),
				zap.String("region", location.Region),
			)
			return location, nil
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return UserLocation{}, err
		}
		l.logger.Debug("location provider failed", zap.String("provider", provider.name), zap.Error(err))
		providerErrors = append(providerErrors, fmt.Sprintf("%s: %s", provider.name, err.Error()))
	}
	return UserLocation{}, fmt.Errorf("all location providers failed (%s)", strings.Join(providerErrors, " | "))
}

func (l *Locator) fromProvider(ctx context.Context, provider locationProvider) (UserLocation, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, provider.endpoint, nil)
	if err != nil {
		return UserLocation{}, fmt.Errorf("create location request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", defaultUserAgent)

	res, err := l.httpClient.Do(req)
	if err != nil {
		return UserLocation{}, fmt.Errorf("location request failed: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode < http.StatusOK || res.StatusCode >= http.StatusMultipleChoices {
		snippet, _ := io.ReadAll(io.LimitReader(res.Body, 4<<10))
		msg := compactProviderErrorSnippet(string(snippet))
		if msg == "" {
			return UserLocation{}, errors.New(res.Status)
		}
		return UserLocation{}, fmt.Errorf("%s: %s", res.Status, msg)
	}

	body, err := io.ReadAll(io.LimitReader(res.Body, 64<<10))
	if err != nil {
		return UserLocation{}, fmt.Errorf("read location response: %w", err)
	}

	location, err := provider.parse(body)
	if err != nil {
		return UserLocation{}, err
	}
	if location.Position == (model.LatLng{}) {
		return UserLocation{}, errors.New("provider returned empty coordinates")
	}
	if strings.TrimSpace(location.Source) == "" {
		location.Source = provider.name
	}
	return location, nil
}

// providerPayload is one provider's JSON response.
type providerPayload interface {
	position() (model.LatLng, error)
	place() (city, region, country string)
}

func decodeLocation[P providerPayload](body []byte) (UserLocation, error) {
	var payload P
	if err := json.Unmarshal(body, &payload); err != nil {
		return UserLocation{}, fmt.Errorf("decode location response: %w", err)
	}
	position, err := payload.position()
	if err != nil {
		return UserLocation{}, err
	}
	city, region, country := payload.place()
	return UserLocation{Position: position, City: city, Region: region, Country: country}, nil
}

type ipAPIResponse struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	City      string  `json:"city"`
	Region    string  `json:"region"`
	Country   string  `json:"country_name"`
	Error     bool    `json:"error"`
	Reason    string  `json:"reason"`
}

func (r ipAPIResponse) position() (model.LatLng, error) {
	if r.Error {
		return model.LatLng{}, errors.New(cmp.Or(r.Reason, "unknown error"))
	}
	return model.LatLng{Lat: r.Latitude, Lng: r.Longitude}, nil
}

func (r ipAPIResponse) place() (string, string, string) { return r.City, r.Region, r.Country }

type ipWhoIsResponse struct {
	Success   bool    `json:"success"`
	Message   string  `json:"message"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	City      string  `json:"city"`
	Region    string  `json:"region"`
	Country   string  `json:"country"`
}

func (r ipWhoIsResponse) position() (model.LatLng, error) {
	if !r.Success {
		return model.LatLng{}, errors.New(cmp.Or(strings.TrimSpace(r.Message), "provider returned unsuccessful response"))
	}
	return model.LatLng{Lat: r.Latitude, Lng: r.Longitude}, nil
}

func (r ipWhoIsResponse) place() (string, string, string) { return r.City, r.Region, r.Country }

// ipInfoResponse carries the position as a "lat,lng" string.
type ipInfoResponse struct {
	Loc     string `json:"loc"`
	City    string `json:"city"`
	Region  string `json:"region"`
	Country string `json:"country"`
	Bogon   bool   `json:"bogon"`
	Error   struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (r ipInfoResponse) position() (model.LatLng, error) {
	switch {
	case r.Bogon:
		return model.LatLng{}, errors.New("bogon IP")
	case r.Error.Message != "":
		return model.LatLng{}, errors.New(r.Error.Message)
	}
	lat, lng, ok := strings.Cut(strings.TrimSpace(r.Loc), ",")
	if !ok {
		return model.LatLng{}, errors.New("provider did not return valid loc")
	}
	var p model.LatLng
	var err error
	if p.Lat, err = strconv.ParseFloat(strings.TrimSpace(lat), 64); err != nil {
		return model.LatLng{}, fmt.Errorf("parse latitude: %w", err)
	}
	if p.Lng, err = strconv.ParseFloat(strings.TrimSpace(lng), 64); err != nil {
		return model.LatLng{}, fmt.Errorf("parse longitude: %w", err)
	}
	return p, nil
}

func (r ipInfoResponse) place() (string, string, string) { return r.City, r.Region, r.Country }

func compactProviderErrorSnippet(raw string) string {
	text := strings.TrimSpace(raw)
	if text == "" {
		return ""
	}
	lower := strings.ToLower(text)
	if strings.Contains(lower, "<html") || strings.Contains(lower, "<!doctype") {
		return ""
	}
	text = strings.Join(strings.Fields(text), " ")
	if len(text) > locationErrorSnippetN {
		text = text[:locationErrorSnippetN]
	}
	return text
}
