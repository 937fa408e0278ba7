package crawler

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"cinewatch/pkg/models"
)

// CGVSource reads the giveaway-state endpoints of the CGV site. The event
// list is paged; each event's detail groups theaters by region, and events
// without a region control report one flat store list instead.
type CGVSource struct {
	Client   *http.Client
	BaseURL  string
	MaxPages int // discovery safety cap
}

// FallbackRegion groups all theaters of an event that exposes no region
// control.
const FallbackRegion = "all"

func NewCGVSource(baseURL string, timeout time.Duration) *CGVSource {
	if baseURL == "" {
		baseURL = "https://cgv.co.kr"
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &CGVSource{
		Client:   &http.Client{Timeout: timeout},
		BaseURL:  strings.TrimRight(baseURL, "/"),
		MaxPages: 20,
	}
}

func (s *CGVSource) Name() string { return "cgv" }

type evtListResponse struct {
	Data struct {
		List []struct {
			SaprmEvntNo  string `json:"saprmEvntNo"`
			SaprmEvntNm  string `json:"saprmEvntNm"`
			EvntStartYmd string `json:"evntStartYmd"`
			EvntEndYmd   string `json:"evntEndYmd"`
		} `json:"list"`
	} `json:"data"`
}

type evtDetailResponse struct {
	Data struct {
		LocalList []struct {
			LocalNm   string         `json:"localNm"`
			StoreList []evtStoreItem `json:"storeList"`
		} `json:"localList"`
		StoreList []evtStoreItem `json:"storeList"`
	} `json:"data"`
}

type evtStoreItem struct {
	StoreNm string `json:"storeNm"`
	StateNm string `json:"stateNm"`
}

// DiscoverEvents pages through the event list until an empty page or the
// page cap. Duplicate event numbers keep their first occurrence.
func (s *CGVSource) DiscoverEvents(ctx context.Context) ([]models.EventInfo, error) {
	var events []models.EventInfo
	seen := make(map[string]bool)

	for page := 1; page <= s.MaxPages; page++ {
		u, err := url.Parse(s.BaseURL + "/evt/searchSaprmEvtListForPage")
		if err != nil {
			return nil, fmt.Errorf("cgv: build list url: %w", err)
		}
		q := u.Query()
		q.Set("pageNo", fmt.Sprintf("%d", page))
		u.RawQuery = q.Encode()

		var list evtListResponse
		if err := s.getJSON(ctx, u.String(), &list); err != nil {
			return nil, fmt.Errorf("cgv: list page %d: %w", page, err)
		}

		if len(list.Data.List) == 0 {
			break
		}

		for _, ev := range list.Data.List {
			if ev.SaprmEvntNo == "" || seen[ev.SaprmEvntNo] {
				continue
			}
			seen[ev.SaprmEvntNo] = true

			movie, event := SplitEventName(ev.SaprmEvntNm)
			events = append(events, models.EventInfo{
				No:         ev.SaprmEvntNo,
				MovieTitle: movie,
				EventTitle: event,
				StartDate:  ev.EvntStartYmd,
				EndDate:    ev.EvntEndYmd,
			})
		}
	}

	return events, nil
}

// FetchSnapshot retrieves one event's region -> (theater, status) listing.
func (s *CGVSource) FetchSnapshot(ctx context.Context, ev models.EventInfo) (*models.EventSnapshot, error) {
	u, err := url.Parse(s.BaseURL + "/evt/searchSaprmEvntStateDetail")
	if err != nil {
		return nil, fmt.Errorf("cgv: build detail url: %w", err)
	}
	q := u.Query()
	q.Set("saprmEvntNo", ev.No)
	u.RawQuery = q.Encode()

	var detail evtDetailResponse
	if err := s.getJSON(ctx, u.String(), &detail); err != nil {
		return nil, fmt.Errorf("cgv: detail %s: %w", ev.No, err)
	}

	regions := make(map[string][]models.Listing)

	for _, local := range detail.Data.LocalList {
		// region labels carry a count suffix like "Seoul(12)"
		name := strings.TrimSpace(strings.SplitN(local.LocalNm, "(", 2)[0])
		if name == "" {
			continue
		}
		regions[name] = append(regions[name], toListings(local.StoreList)...)
	}

	// no region control: one flat list for the whole event
	if len(regions) == 0 && len(detail.Data.StoreList) > 0 {
		regions[FallbackRegion] = toListings(detail.Data.StoreList)
	}

	return &models.EventSnapshot{
		EventInfo: ev,
		EventNo:   ev.No,
		Regions:   regions,
	}, nil
}

func toListings(items []evtStoreItem) []models.Listing {
	out := make([]models.Listing, 0, len(items))
	for _, it := range items {
		theater := strings.TrimSpace(it.StoreNm)
		status := strings.TrimSpace(it.StateNm)
		if theater == "" || status == "" {
			continue
		}
		out = append(out, models.Listing{Theater: theater, Status: status})
	}
	return out
}

func (s *CGVSource) getJSON(ctx context.Context, rawURL string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.Client.Do(req)
	if err != nil {
		return fmt.Errorf("request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("status %d: %s", resp.StatusCode, string(body))
	}

	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	return nil
}
