package advisor

import (
	"errors"
	"fmt"

	"StockAdvisor/internal/model"
)

// UserMessage turns an analysis error into the line shown to the user.
func UserMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, model.ErrInvalidTicker):
		return "Enter Stock Code (e.g., AAPL for Apple or 0005.HK for HSBC)."
	case errors.Is(err, model.ErrNotFound):
		return "No data found for the provided stock code."
	case errors.Is(err, ErrInvalidWindow):
		return fmt.Sprintf("The analysis window must be between 1 and %d years.", MaxWindowYears)
	case errors.Is(err, model.ErrInsufficientHistory):
		return "Not enough data points for indicator calculation."
	case errors.Is(err, model.ErrUndefinedSignal):
		return "Not enough history to produce a suggestion."
	case errors.Is(err, model.ErrUpstream):
		return "Could not fetch market data right now. Please try again later."
	default:
		return "Unexpected error while analyzing the stock."
	}
}

// Kind is the short failure label used in metrics and logs.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, model.ErrInvalidTicker):
		return "invalid_ticker"
	case errors.Is(err, model.ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrInvalidWindow):
		return "invalid_window"
	case errors.Is(err, model.ErrUpstream):
		return "upstream"
	default:
		return "internal"
	}
}
