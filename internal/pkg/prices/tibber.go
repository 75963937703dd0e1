package prices

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

const tibberBaseURL = "https://api.tibber.com/v1-beta/gql"

const tibberPriceQuery = `{
  viewer {
    homes {
      currentSubscription {
        priceInfo {
          today { total startsAt }
          tomorrow { total startsAt }
        }
      }
    }
  }
}`

// TibberSource reads hourly spot prices from the Tibber GraphQL API.
type TibberSource struct {
	client  *http.Client
	baseURL string
	token   string
}

func NewTibberSource(token string) *TibberSource {
	return &TibberSource{
		client:  &http.Client{Timeout: 15 * time.Second},
		baseURL: tibberBaseURL,
		token:   token,
	}
}

func (s *TibberSource) Name() string { return "tibber" }

type tibberPricePoint struct {
	Total    float64   `json:"total"`
	StartsAt time.Time `json:"startsAt"`
}

type tibberResponse struct {
	Data struct {
		Viewer struct {
			Homes []struct {
				CurrentSubscription struct {
					PriceInfo struct {
						Today    []tibberPricePoint `json:"today"`
						Tomorrow []tibberPricePoint `json:"tomorrow"`
					} `json:"priceInfo"`
				} `json:"currentSubscription"`
			} `json:"homes"`
		} `json:"viewer"`
	} `json:"data"`
}

func (s *TibberSource) Intervals(ctx context.Context, now time.Time) ([]Interval, error) {
	body, err := json.Marshal(map[string]string{"query": tibberPriceQuery})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.token)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("tibber: status %d", resp.StatusCode)
	}

	out := tibberResponse{}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("tibber: decode: %w", err)
	}
	if len(out.Data.Viewer.Homes) == 0 {
		return nil, nil
	}

	info := out.Data.Viewer.Homes[0].CurrentSubscription.PriceInfo
	points := append(info.Today, info.Tomorrow...)
	intervals := make([]Interval, 0, len(points))
	for _, pt := range points {
		intervals = append(intervals, Interval{
			Start:    pt.StartsAt.In(now.Location()),
			Duration: time.Hour,
			Price:    pt.Total,
		})
	}
	return intervals, nil
}
