package server

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"StockAdvisor/internal/advisor"
	"StockAdvisor/internal/chart"
	"StockAdvisor/internal/collector"
	"StockAdvisor/internal/model"
	"StockAdvisor/internal/recorder"
)

// DefaultRows is the number of trailing frame rows returned by /api/analyze.
const DefaultRows = 30

type analyzeResponse struct {
	*advisor.Result
	Rows []model.Row `json:"rows"`
	Bars int         `json:"bars"`
}

func intQuery(c *gin.Context, key string, def int) (int, error) {
	v := c.Query(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid %s %q", key, v)
	}
	return n, nil
}

func (s *Server) run(c *gin.Context) (*advisor.Result, bool) {
	years, err := intQuery(c, "years", 0)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return nil, false
	}
	res, err := s.Advisor.Analyze(c.Request.Context(), advisor.Request{
		Ticker: c.Param("ticker"),
		Years:  years,
		Source: "http",
	})
	if err != nil {
		fail(c, err)
		return nil, false
	}
	return res, true
}

func (s *Server) analyze(c *gin.Context) {
	rows, err := intQuery(c, "rows", DefaultRows)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	res, ok := s.run(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, analyzeResponse{
		Result: res,
		Rows:   res.Frame.Tail(rows),
		Bars:   res.Frame.Len(),
	})
}

func (s *Server) chart(c *gin.Context) {
	var draw func(w io.Writer, res *advisor.Result) error
	switch c.Param("kind") {
	case "price.png":
		draw = func(w io.Writer, res *advisor.Result) error {
			return chart.Price(w, res.Frame, res.History, s.Chart)
		}
	case "indicators.png":
		draw = func(w io.Writer, res *advisor.Result) error {
			return chart.Indicators(w, res.Frame, s.Chart)
		}
	case "rsi.png":
		draw = func(w io.Writer, res *advisor.Result) error {
			return chart.RSI(w, res.Frame, s.Thresholds.Oversold, s.Thresholds.Overbought, s.Chart)
		}
	case "macd.png":
		draw = func(w io.Writer, res *advisor.Result) error {
			return chart.MACD(w, res.Frame, s.Chart)
		}
	default:
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown chart " + c.Param("kind")})
		return
	}

	res, ok := s.run(c)
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := draw(&buf, res); err != nil {
		fail(c, err)
		return
	}
	c.Data(http.StatusOK, "image/png", buf.Bytes())
}

func (s *Server) history(c *gin.Context) {
	limit, err := intQuery(c, "limit", 50)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	records, err := s.Advisor.History(c.Param("ticker"), limit)
	if err != nil {
		fail(c, err)
		return
	}
	if records == nil {
		records = []recorder.AnalysisRecord{}
	}
	c.JSON(http.StatusOK, gin.H{"ticker": collector.NormalizeSymbol(c.Param("ticker")), "records": records})
}
