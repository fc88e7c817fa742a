// Package server 用 chi 暴露推荐接口与订单/行为事件接口。
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/rushteam/storerank/core"
	"github.com/rushteam/storerank/metrics"
	"github.com/rushteam/storerank/service"
)

// maxBodyBytes 是事件请求体的上限。
const maxBodyBytes = 1 << 20

// Recommender 是 HTTP 层依赖的推荐能力，*service.Recommender 满足该接口。
type Recommender interface {
	Similar(ctx context.Context, productID string, limit int) (service.Response, error)
	FrequentlyBoughtTogether(ctx context.Context, productID string, limit int) (service.Response, error)
	Attachments(ctx context.Context, productID string, limit int) (service.Response, error)
	Personalized(ctx context.Context, userID string, limit int) (service.Response, error)
	Trending(ctx context.Context, limit int) (service.Response, error)
	HomeFeed(ctx context.Context, userID string, limit int) (service.Response, error)
	OrderCompleted(ctx context.Context, ev service.OrderCompleted) error
	Track(ctx context.Context, userID, productID string, typ core.InteractionType, meta map[string]any) error
}

// Options 是路由层参数。
type Options struct {
	// RequestTimeout 为 0 时不设置请求超时
	RequestTimeout time.Duration
	// Gatherer 为空时不挂载 /metrics
	Gatherer prometheus.Gatherer
}

// Server 持有路由与依赖。
type Server struct {
	rec     Recommender
	opts    Options
	logger  *zap.Logger
	metrics *metrics.Metrics
	router  chi.Router
}

// New 创建 Server 并注册全部路由。
func New(rec Recommender, opts Options, logger *zap.Logger, m *metrics.Metrics) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{rec: rec, opts: opts, logger: logger, metrics: m}
	s.router = s.routes()
	return s
}

// Handler 返回根 http.Handler。
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(s.recoverer)
	r.Use(chiMiddleware.RequestID)
	r.Use(s.accessLog)
	if s.opts.RequestTimeout > 0 {
		r.Use(chiMiddleware.Timeout(s.opts.RequestTimeout))
	}

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if s.opts.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.opts.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/recommendations", func(r chi.Router) {
		r.Get("/similar/{productID}", s.bySeed(s.rec.Similar))
		r.Get("/fbt/{productID}", s.bySeed(s.rec.FrequentlyBoughtTogether))
		r.Get("/attachments/{productID}", s.bySeed(s.rec.Attachments))
		r.Get("/personalized/{userID}", s.handlePersonalized)
		r.Get("/trending", s.handleTrending)
		r.Get("/home", s.handleHome)
	})
	r.Route("/events", func(r chi.Router) {
		r.Post("/interactions", s.handleInteraction)
		r.Post("/orders/completed", s.handleOrderCompleted)
	})
	return r
}

type seedFunc func(ctx context.Context, productID string, limit int) (service.Response, error)

func (s *Server) bySeed(fn seedFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, err := parseLimit(r)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		resp, err := fn(r.Context(), chi.URLParam(r, "productID"), limit)
		s.respond(w, r, resp, err)
	}
}

func (s *Server) handlePersonalized(w http.ResponseWriter, r *http.Request) {
	limit, err := parseLimit(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	resp, err := s.rec.Personalized(r.Context(), chi.URLParam(r, "userID"), limit)
	s.respond(w, r, resp, err)
}

func (s *Server) handleTrending(w http.ResponseWriter, r *http.Request) {
	limit, err := parseLimit(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	resp, err := s.rec.Trending(r.Context(), limit)
	s.respond(w, r, resp, err)
}

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	limit, err := parseLimit(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	resp, err := s.rec.HomeFeed(r.Context(), r.URL.Query().Get("userId"), limit)
	s.respond(w, r, resp, err)
}

type interactionRequest struct {
	UserID    string               `json:"userId"`
	ProductID string               `json:"productId"`
	Type      core.InteractionType `json:"type"`
	Meta      map[string]any       `json:"meta,omitempty"`
}

func (s *Server) handleInteraction(w http.ResponseWriter, r *http.Request) {
	var req interactionRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.rec.Track(r.Context(), req.UserID, req.ProductID, req.Type, req.Meta); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "accepted"})
}

func (s *Server) handleOrderCompleted(w http.ResponseWriter, r *http.Request) {
	var ev service.OrderCompleted
	if err := decodeBody(w, r, &ev); err != nil {
		s.writeError(w, r, err)
		return
	}
	if ev.CompletedAt.IsZero() {
		ev.CompletedAt = time.Now().UTC()
	}
	if err := s.rec.OrderCompleted(r.Context(), ev); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "accepted"})
}

func (s *Server) respond(w http.ResponseWriter, r *http.Request, resp service.Response, err error) {
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if resp.Items == nil {
		resp.Items = []core.ProductSummary{}
	}
	writeJSON(w, http.StatusOK, resp)
}

// errorResponse 是统一的错误响应体。
type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// writeError 只把 INVALID_INPUT 的消息透传给调用方，其余错误统一为 500。
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	if de := core.GetDomainError(err); de != nil && de.Code == core.ErrorCodeInvalidInput {
		writeJSON(w, http.StatusBadRequest, errorResponse{Code: de.Code, Message: de.Message})
		return
	}
	s.logger.Error("request failed",
		zap.String("request_id", chiMiddleware.GetReqID(r.Context())),
		zap.String("path", r.URL.Path),
		zap.Error(err),
	)
	writeJSON(w, http.StatusInternalServerError, errorResponse{
		Code:    core.ErrorCodeInternalError,
		Message: "internal error",
	})
}

func parseLimit(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, core.ErrInvalidInput(core.ModuleServer, fmt.Sprintf("invalid limit %q", raw))
	}
	return n, nil
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return core.ErrInvalidInput(core.ModuleServer, "request body is required")
		}
		return core.ErrInvalidInput(core.ModuleServer, "invalid request body")
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
