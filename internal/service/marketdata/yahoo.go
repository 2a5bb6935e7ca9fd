package marketdata

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/url"
	"strings"

	"QuantSuperior/internal/domain/models"
	drepo "QuantSuperior/internal/domain/repository"
	xhttp "QuantSuperior/pkg/http"
	"QuantSuperior/pkg/util"
)

const DefaultBaseURL = "https://query1.finance.yahoo.com"

// YahooProvider reads daily bars from the Yahoo Finance v8 chart endpoint.
type YahooProvider struct {
	baseURL string
	client  *xhttp.Client
}

func NewYahooProvider(baseURL string, client *xhttp.Client) *YahooProvider {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if client == nil {
		client = xhttp.NewClient()
	}
	return &YahooProvider{baseURL: strings.TrimRight(baseURL, "/"), client: client}
}

func (p *YahooProvider) Name() string { return "yfinance" }

type chartResponse struct {
	Chart struct {
		Result []chartResult `json:"result"`
		Error  *chartError   `json:"error"`
	} `json:"chart"`
}

type chartError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

type chartResult struct {
	Meta struct {
		Symbol    string `json:"symbol"`
		GMTOffset int64  `json:"gmtoffset"`
	} `json:"meta"`
	Timestamp  []int64 `json:"timestamp"`
	Indicators struct {
		Quote []struct {
			Open   []*float64 `json:"open"`
			High   []*float64 `json:"high"`
			Low    []*float64 `json:"low"`
			Close  []*float64 `json:"close"`
			Volume []*int64   `json:"volume"`
		} `json:"quote"`
	} `json:"indicators"`
}

// FetchDaily returns daily bars ascending by date. Rows with a missing price are skipped;
// a missing volume is reported as zero.
func (p *YahooProvider) FetchDaily(ctx context.Context, symbol string, period drepo.Period) ([]models.PriceBar, error) {
	if symbol == "" {
		return nil, errors.New("symbol required")
	}
	endpoint := p.baseURL + "/v8/finance/chart/" + url.PathEscape(symbol)
	query := map[string][]string{
		"range":    {string(period)},
		"interval": {"1d"},
		"events":   {"history"},
	}

	var resp chartResponse
	if err := p.client.GetJSON(ctx, endpoint, query, &resp); err != nil {
		var se *xhttp.StatusError
		if errors.As(err, &se) && se.Code == 404 {
			return []models.PriceBar{}, nil
		}
		return nil, fmt.Errorf("yahoo chart %s: %w", symbol, err)
	}
	if resp.Chart.Error != nil {
		return nil, fmt.Errorf("yahoo chart %s: %s: %s", symbol, resp.Chart.Error.Code, resp.Chart.Error.Description)
	}
	if len(resp.Chart.Result) == 0 {
		return []models.PriceBar{}, nil
	}
	return toBars(resp.Chart.Result[0]), nil
}

func toBars(r chartResult) []models.PriceBar {
	bars := make([]models.PriceBar, 0, len(r.Timestamp))
	if len(r.Indicators.Quote) == 0 {
		return bars
	}
	q := r.Indicators.Quote[0]
	lastDate := ""
	for i, ts := range r.Timestamp {
		o, okO := at(q.Open, i)
		h, okH := at(q.High, i)
		l, okL := at(q.Low, i)
		c, okC := at(q.Close, i)
		if !okO || !okH || !okL || !okC {
			continue
		}
		var v int64
		if i < len(q.Volume) && q.Volume[i] != nil && *q.Volume[i] > 0 {
			v = *q.Volume[i]
		}
		date := util.FormatDay(ts, r.Meta.GMTOffset)
		// live session row shares the day of the last close; keep the latest
		if date == lastDate {
			bars = bars[:len(bars)-1]
		}
		bars = append(bars, models.PriceBar{Date: date, Time: ts, Open: o, High: h, Low: l, Close: c, Volume: v})
		lastDate = date
	}
	return bars
}

func at(xs []*float64, i int) (float64, bool) {
	if i >= len(xs) || xs[i] == nil || math.IsNaN(*xs[i]) {
		return 0, false
	}
	return *xs[i], true
}
