package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"StockAdvisor/internal/advisor"
	"StockAdvisor/internal/chart"
	"StockAdvisor/internal/metrics"
	"StockAdvisor/internal/model"
	"StockAdvisor/internal/recorder"
	"StockAdvisor/internal/strategy"
)

var log = logrus.WithField("component", "server")

// Advisor is the analysis surface the HTTP API serves.
type Advisor interface {
	Analyze(ctx context.Context, req advisor.Request) (*advisor.Result, error)
	History(ticker string, limit int) ([]recorder.AnalysisRecord, error)
}

// Server is the dashboard HTTP API.
type Server struct {
	Advisor    Advisor
	Metrics    *metrics.Metrics
	Thresholds strategy.Thresholds
	Chart      chart.Options

	srv *http.Server
}

// New creates a Server with default chart options and thresholds.
func New(a Advisor, m *metrics.Metrics) *Server {
	return &Server{
		Advisor:    a,
		Metrics:    m,
		Thresholds: strategy.DefaultThresholds(),
		Chart:      chart.DefaultOptions(),
	}
}

// Router builds the gin engine with every route registered.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger())
	r.Use(cors.New(cors.Config{
		AllowOrigins:  []string{"*"},
		AllowHeaders:  []string{"Origin", "Content-Type"},
		ExposeHeaders: []string{"Content-Length"},
		AllowMethods:  []string{"GET"},
		MaxAge:        12 * time.Hour,
	}))

	r.GET("/api/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})
	r.GET("/api/analyze/:ticker", s.analyze)
	r.GET("/api/chart/:ticker/:kind", s.chart)
	r.GET("/api/history/:ticker", s.history)
	if s.Metrics != nil {
		r.GET("/metrics", gin.WrapH(s.Metrics.Handler()))
	}
	return r
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.WithFields(logrus.Fields{
			"status":  c.Writer.Status(),
			"latency": time.Since(start),
		}).Debugf("%s %s", c.Request.Method, c.Request.URL.Path)
	}
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	s.srv = &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errC := make(chan error, 1)
	go func() {
		log.Infof("http server listening on %s", addr)
		errC <- s.srv.ListenAndServe()
	}()

	select {
	case err := <-errC:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down web server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("server forced to shutdown")
		return err
	}
	log.Info("server shutdown completed")
	return nil
}

// statusOf maps an analysis error to the HTTP status code.
func statusOf(err error) int {
	switch {
	case errors.Is(err, model.ErrInvalidTicker), errors.Is(err, advisor.ErrInvalidWindow):
		return http.StatusBadRequest
	case errors.Is(err, model.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, chart.ErrTooFewPoints), errors.Is(err, model.ErrUndefinedSignal):
		return http.StatusUnprocessableEntity
	case errors.Is(err, model.ErrUpstream):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func fail(c *gin.Context, err error) {
	status := statusOf(err)
	if status >= http.StatusInternalServerError {
		log.WithError(err).Errorf("%s %s", c.Request.Method, c.Request.URL.Path)
	}
	msg := advisor.UserMessage(err)
	if errors.Is(err, chart.ErrTooFewPoints) {
		msg = "Not enough data points to draw the chart."
	}
	c.JSON(status, gin.H{"error": msg, "kind": advisor.Kind(err)})
}
