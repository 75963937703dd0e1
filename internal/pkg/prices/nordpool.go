package prices

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

const nordpoolBaseURL = "https://dataportal-api.nordpoolgroup.com/api/DayAheadPrices"

// NordpoolSource reads hourly day-ahead prices from the Nord Pool data portal.
type NordpoolSource struct {
	client   *http.Client
	baseURL  string
	area     string
	currency string
}

func NewNordpoolSource(area string) *NordpoolSource {
	return &NordpoolSource{
		client:   &http.Client{Timeout: 15 * time.Second},
		baseURL:  nordpoolBaseURL,
		area:     area,
		currency: "EUR",
	}
}

func (s *NordpoolSource) Name() string { return "nordpool" }

type nordpoolResponse struct {
	MultiAreaEntries []struct {
		DeliveryStart time.Time          `json:"deliveryStart"`
		DeliveryEnd   time.Time          `json:"deliveryEnd"`
		EntryPerArea  map[string]float64 `json:"entryPerArea"`
	} `json:"multiAreaEntries"`
}

func (s *NordpoolSource) Intervals(ctx context.Context, now time.Time) ([]Interval, error) {
	intervals := []Interval{}
	// today and tomorrow; tomorrow 404s until the auction clears
	for _, day := range []time.Time{now, now.AddDate(0, 0, 1)} {
		part, err := s.fetchDay(ctx, now, day)
		if err != nil {
			if len(intervals) > 0 {
				break
			}
			return nil, err
		}
		intervals = append(intervals, part...)
	}
	return intervals, nil
}

func (s *NordpoolSource) fetchDay(ctx context.Context, now, day time.Time) ([]Interval, error) {
	q := url.Values{}
	q.Set("market", "DayAhead")
	q.Set("deliveryArea", s.area)
	q.Set("currency", s.currency)
	q.Set("date", day.Format("2006-01-02"))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNoContent || resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("nordpool: status %d", resp.StatusCode)
	}

	out := nordpoolResponse{}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("nordpool: decode: %w", err)
	}

	intervals := make([]Interval, 0, len(out.MultiAreaEntries))
	for _, entry := range out.MultiAreaEntries {
		price, ok := entry.EntryPerArea[s.area]
		if !ok {
			continue
		}
		intervals = append(intervals, Interval{
			Start:    entry.DeliveryStart.In(now.Location()),
			Duration: entry.DeliveryEnd.Sub(entry.DeliveryStart),
			Price:    price / 1000, // EUR/MWh -> EUR/kWh
		})
	}
	return intervals, nil
}
