// Package gateway is the public tier: it validates input, rate-limits per
// user and forwards everything else to the business server.
package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"shareit/internal/api"
	"shareit/internal/apperr"
	"shareit/internal/config"
	"shareit/internal/domain"
	"shareit/internal/models"

	"github.com/rs/zerolog"
)

const maxBodyBytes = 1 << 20

// ErrorBody extends the server's error shape with validation details.
type ErrorBody struct {
	Error       string   `json:"error,omitempty"`
	Message     string   `json:"message"`
	Code        int      `json:"code"`
	FieldErrors []string `json:"fieldErrors,omitempty"`
}

type Gateway struct {
	cfg      config.GatewayConfig
	client   *Client
	limiter  domain.RateLimiter
	validate *inputValidator
	logger   *zerolog.Logger
	server   *http.Server
}

// New builds the gateway. limiter may be nil, which disables per-user limits.
func New(cfg config.GatewayConfig, client *Client, limiter domain.RateLimiter, logger *zerolog.Logger) *Gateway {
	g := &Gateway{
		cfg:      cfg,
		client:   client,
		limiter:  limiter,
		validate: newInputValidator(),
		logger:   logger,
	}

	mux := http.NewServeMux()
	g.routes(mux)

	g.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           api.Chain(mux, api.RequestID, api.AccessLog(logger), g.rateLimit),
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      cfg.Timeout + 15*time.Second,
	}
	return g
}

func (g *Gateway) routes(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		api.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	mux.HandleFunc("POST /users", g.withBody(false, func(raw []byte) []string {
		var body api.UserBody
		return g.decodeAndCheck(raw, &body)
	}))
	mux.HandleFunc("GET /users", g.plain(false))
	mux.HandleFunc("GET /users/{id}", g.plain(false))
	mux.HandleFunc("DELETE /users/{id}", g.plain(false))
	mux.HandleFunc("PATCH /users/{id}", g.withBody(false, g.checkUserPatch))

	mux.HandleFunc("POST /items", g.withBody(true, func(raw []byte) []string {
		var body api.ItemBody
		return g.decodeAndCheck(raw, &body)
	}))
	mux.HandleFunc("PATCH /items/{id}", g.withBody(true, nil))
	mux.HandleFunc("GET /items", g.paged(nil))
	mux.HandleFunc("GET /items/search", g.paged(nil))
	mux.HandleFunc("GET /items/{id}", g.plain(true))
	mux.HandleFunc("POST /items/{id}/comment", g.withBody(true, func(raw []byte) []string {
		var body api.CommentBody
		return g.decodeAndCheck(raw, &body)
	}))

	mux.HandleFunc("POST /bookings", g.withBody(true, func(raw []byte) []string {
		var body api.BookingBody
		return g.decodeAndCheck(raw, &body)
	}))
	mux.HandleFunc("PATCH /bookings/{id}", g.plainChecked(true, checkApproved))
	mux.HandleFunc("GET /bookings", g.paged(checkState))
	mux.HandleFunc("GET /bookings/owner", g.paged(checkState))
	mux.HandleFunc("GET /bookings/{id}", g.plain(true))

	mux.HandleFunc("POST /requests", g.withBody(true, func(raw []byte) []string {
		var body api.RequestBody
		return g.decodeAndCheck(raw, &body)
	}))
	mux.HandleFunc("GET /requests", g.plain(true))
	mux.HandleFunc("GET /requests/all", g.paged(nil))
	mux.HandleFunc("GET /requests/{id}", g.plain(true))
}

func (g *Gateway) Handler() http.Handler {
	return g.server.Handler
}

func (g *Gateway) Start() error {
	g.logger.Info().Str("addr", g.server.Addr).Str("server_url", g.cfg.ServerURL).Msg("gateway listening")
	if err := g.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (g *Gateway) Shutdown(ctx context.Context) error {
	return g.server.Shutdown(ctx)
}

// plain forwards requests without a body.
func (g *Gateway) plain(needsUser bool) http.HandlerFunc {
	return g.plainChecked(needsUser, nil)
}

func (g *Gateway) plainChecked(needsUser bool, check func(*http.Request) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !g.checkUser(w, r, needsUser) {
			return
		}
		if check != nil {
			if err := check(r); err != nil {
				writeError(w, http.StatusBadRequest, err.Error(), nil)
				return
			}
		}
		g.forward(w, r, nil)
	}
}

// paged forwards list requests after checking from/size and any extra
// query rule.
func (g *Gateway) paged(check func(*http.Request) error) http.HandlerFunc {
	return g.plainChecked(true, func(r *http.Request) error {
		if _, err := api.PageFromQuery(r); err != nil {
			return err
		}
		if check != nil {
			return check(r)
		}
		return nil
	})
}

// withBody reads the JSON body, runs check on it and forwards the original
// bytes.
func (g *Gateway) withBody(needsUser bool, check func(raw []byte) []string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !g.checkUser(w, r, needsUser) {
			return
		}
		raw, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
		if err != nil {
			writeError(w, http.StatusBadRequest, "Unable to read request body", nil)
			return
		}
		if len(strings.TrimSpace(string(raw))) == 0 {
			writeError(w, http.StatusBadRequest, "Request body is missing", nil)
			return
		}
		if check != nil {
			if fieldErrors := check(raw); len(fieldErrors) > 0 {
				writeError(w, http.StatusBadRequest, "Validation failed", fieldErrors)
				return
			}
		}
		g.forward(w, r, raw)
	}
}

func (g *Gateway) decodeAndCheck(raw []byte, dst any) []string {
	if err := json.Unmarshal(raw, dst); err != nil {
		return []string{fmt.Sprintf("Malformed JSON request: %v", err)}
	}
	return g.validate.Struct(dst)
}

func (g *Gateway) checkUserPatch(raw []byte) []string {
	var patch models.UserPatch
	if err := json.Unmarshal(raw, &patch); err != nil {
		return []string{fmt.Sprintf("Malformed JSON request: %v", err)}
	}
	if email, ok := patch.Email.Get(); ok && strings.TrimSpace(email) != "" {
		return g.validate.Email(email)
	}
	return nil
}

func (g *Gateway) checkUser(w http.ResponseWriter, r *http.Request, needsUser bool) bool {
	if !needsUser {
		return true
	}
	if _, err := api.UserIDFromHeader(r); err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), nil)
		return false
	}
	return true
}

func checkState(r *http.Request) error {
	parsed := models.ParseState(r.URL.Query().Get("state"))
	if !parsed.Known {
		return apperr.BadRequest("Unknown state: %s", parsed.Raw)
	}
	return nil
}

func checkApproved(r *http.Request) error {
	raw := r.URL.Query().Get("approved")
	if _, err := strconv.ParseBool(raw); err != nil {
		return apperr.BadRequest("Parameter 'approved' must be true or false, got %q", raw)
	}
	return nil
}

func (g *Gateway) forward(w http.ResponseWriter, r *http.Request, body []byte) {
	header := http.Header{}
	if v := r.Header.Get(models.HeaderUserID); v != "" {
		header.Set(models.HeaderUserID, v)
	}
	header.Set(models.HeaderRequestID, r.Header.Get(models.HeaderRequestID))

	target := r.URL.Path
	if r.URL.RawQuery != "" {
		target += "?" + r.URL.RawQuery
	}

	resp, err := g.client.Do(r.Context(), r.Method, target, header, body)
	if err != nil {
		g.logger.Error().Err(err).Str("request_id", api.RequestIDFrom(r.Context())).Msg("server unreachable")
		writeError(w, http.StatusBadGateway, "Server unavailable", nil)
		return
	}

	if resp.ContentType != "" {
		w.Header().Set("Content-Type", resp.ContentType)
	}
	w.WriteHeader(resp.Status)
	_, _ = w.Write(resp.Body)
}

func (g *Gateway) rateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID := strings.TrimSpace(r.Header.Get(models.HeaderUserID))
		if g.limiter == nil || g.cfg.RequestsPerMinute <= 0 || userID == "" {
			next.ServeHTTP(w, r)
			return
		}

		allowed, err := g.limiter.CheckRateLimit(r.Context(), "gateway:"+userID, g.cfg.RequestsPerMinute, time.Minute)
		if err != nil {
			g.logger.Warn().Err(err).Str("user_id", userID).Msg("rate limit check failed")
		} else if !allowed {
			writeError(w, http.StatusTooManyRequests, "Rate limit exceeded", nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeError(w http.ResponseWriter, status int, message string, fieldErrors []string) {
	api.WriteJSON(w, status, ErrorBody{
		Error:       http.StatusText(status),
		Message:     message,
		Code:        status,
		FieldErrors: fieldErrors,
	})
}
