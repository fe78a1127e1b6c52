package postal

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/kikite/backend-order/internal/resilience"
)

// ZipcloudClient resolves postal codes against the zipcloud web API.
type ZipcloudClient struct {
	BaseURL string
	HTTP    resilience.HTTPClient
}

type zipcloudResponse struct {
	Status  int     `json:"status"`
	Message *string `json:"message"`
	Results []struct {
		Zipcode  string `json:"zipcode"`
		Address1 string `json:"address1"`
		Address2 string `json:"address2"`
		Address3 string `json:"address3"`
	} `json:"results"`
}

// Lookup queries zipcloud for a 7-digit postal code.
func (c ZipcloudClient) Lookup(ctx context.Context, code string) ([]Address, error) {
	endpoint := strings.TrimRight(c.BaseURL, "/") + "/resolve/api/search?zipcode=" + url.QueryEscape(code)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.HTTP.Do(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("zipcloud: request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("zipcloud: unexpected status %d", resp.StatusCode)
	}

	var payload zipcloudResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("zipcloud: decode: %w", err)
	}
	if payload.Status != http.StatusOK {
		msg := "lookup failed"
		if payload.Message != nil {
			msg = *payload.Message
		}
		return nil, fmt.Errorf("zipcloud: %s", msg)
	}

	out := make([]Address, 0, len(payload.Results))
	for _, r := range payload.Results {
		out = append(out, Address{
			PostalCode: r.Zipcode,
			Prefecture: r.Address1,
			City:       r.Address2,
			Town:       r.Address3,
		})
	}
	return out, nil
}

// HeartRailsClient resolves coordinates to addresses via the HeartRails Geo API.
type HeartRailsClient struct {
	BaseURL string
	HTTP    resilience.HTTPClient
}

type heartRailsResponse struct {
	Response struct {
		Location []struct {
			Postal     string `json:"postal"`
			Prefecture string `json:"prefecture"`
			City       string `json:"city"`
			Town       string `json:"town"`
		} `json:"location"`
		Error string `json:"error"`
	} `json:"response"`
}

// Reverse resolves a longitude/latitude pair to nearby addresses.
func (c HeartRailsClient) Reverse(ctx context.Context, lon, lat string) ([]Address, error) {
	query := url.Values{}
	query.Set("method", "searchByGeoLocation")
	query.Set("x", lon)
	query.Set("y", lat)
	endpoint := strings.TrimRight(c.BaseURL, "/") + "/api/json?" + query.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.HTTP.Do(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("heartrails: request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("heartrails: unexpected status %d", resp.StatusCode)
	}

	var payload heartRailsResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("heartrails: decode: %w", err)
	}
	if payload.Response.Error != "" {
		return nil, fmt.Errorf("heartrails: %s", payload.Response.Error)
	}

	out := make([]Address, 0, len(payload.Response.Location))
	for _, loc := range payload.Response.Location {
		out = append(out, Address{
			PostalCode: strings.ReplaceAll(loc.Postal, "-", ""),
			Prefecture: loc.Prefecture,
			City:       loc.City,
			Town:       loc.Town,
		})
	}
	return out, nil
}
