package collector

import (
	"context"
	"time"

	"StockAdvisor/internal/model"
)

// MockFetcher returns controllable fixed data for development and testing.
type MockFetcher struct {
	Price     float64
	Days      int
	DailyData map[string][]model.Bar
	Err       error
	Calls     int
}

func (m *MockFetcher) Name() string { return "mock" }

// FetchDailyBars returns DailyData[symbol] if set, otherwise Days generated
// bars ending at to. An unknown symbol with DailyData set yields no bars.
func (m *MockFetcher) FetchDailyBars(_ context.Context, symbol string, _, to time.Time) ([]model.Bar, error) {
	m.Calls++
	if m.Err != nil {
		return nil, m.Err
	}
	if m.DailyData != nil {
		return m.DailyData[symbol], nil
	}
	return GenerateMockBars(m.Price, m.Days, to), nil
}

// GenerateMockBars builds count gently rising daily bars ending at end.
func GenerateMockBars(basePrice float64, count int, end time.Time) []model.Bar {
	bars := make([]model.Bar, count)
	end = model.Day(end)
	for i := 0; i < count; i++ {
		p := basePrice * (1 + float64(i-count/2)*0.001)
		bars[i] = model.Bar{
			Date:   end.AddDate(0, 0, -(count - 1 - i)),
			Open:   p * 0.999,
			High:   p * 1.005,
			Low:    p * 0.995,
			Close:  p,
			Volume: 1000000,
		}
	}
	return bars
}
