package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httplog/v2"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
	"github.com/vadimbarashkov/shortlink/internal/database"
	"github.com/vadimbarashkov/shortlink/internal/models"
	"github.com/vadimbarashkov/shortlink/internal/service"
	"github.com/vadimbarashkov/shortlink/pkg/response"
)

const urlRequiredMsg = "URL is required and must be a string"

func handlePing(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprintln(w, "pong")
}

type shortenRequest struct {
	URL string `json:"url" validate:"required"`
}

type shortenResponse struct {
	ShortURL    string    `json:"short_url"`
	ShortCode   string    `json:"short_code"`
	OriginalURL string    `json:"original_url"`
	CreatedAt   time.Time `json:"created_at"`
}

type urlStatsResponse struct {
	ShortCode   string    `json:"short_code"`
	OriginalURL string    `json:"original_url"`
	CreatedAt   time.Time `json:"created_at"`
	ClickCount  int64     `json:"click_count"`
	IsActive    bool      `json:"is_active"`
}

func toURLStatsResponse(url *models.URL) urlStatsResponse {
	return urlStatsResponse{
		ShortCode:   url.ShortCode,
		OriginalURL: url.OriginalURL,
		CreatedAt:   url.CreatedAt,
		ClickCount:  url.ClickCount,
		IsActive:    url.IsActive,
	}
}

func handleShortenURL(svc URLService, validate *validator.Validate, baseURL string) http.HandlerFunc {
	const op = "api.http.handleShortenURL"

	return func(w http.ResponseWriter, r *http.Request) {
		var req shortenRequest

		if err := render.DecodeJSON(r.Body, &req); err != nil {
			var typeErr *json.UnmarshalTypeError

			switch {
			case errors.Is(err, io.EOF):
				render.Status(r, http.StatusBadRequest)
				render.JSON(w, r, response.EmptyRequestBodyResponse)
			case errors.As(err, &typeErr) && typeErr.Field == "url":
				render.Status(r, http.StatusBadRequest)
				render.JSON(w, r, response.ErrorResponse(urlRequiredMsg))
			default:
				render.Status(r, http.StatusBadRequest)
				render.JSON(w, r, response.InvalidRequestBodyResponse)
			}
			return
		}

		if err := validate.Struct(req); err != nil {
			resp := response.ValidationErrorResponse(err)
			resp.Message = urlRequiredMsg

			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, resp)
			return
		}

		url, err := svc.ShortenURL(r.Context(), req.URL, clientIP(r))
		if err != nil {
			renderError(w, r, op, err)
			return
		}

		render.Status(r, http.StatusCreated)
		render.JSON(w, r, shortenResponse{
			ShortURL:    shortURL(r, baseURL, url.ShortCode),
			ShortCode:   url.ShortCode,
			OriginalURL: url.OriginalURL,
			CreatedAt:   url.CreatedAt,
		})
	}
}

func handleRedirect(svc URLService) http.HandlerFunc {
	const op = "api.http.handleRedirect"

	return func(w http.ResponseWriter, r *http.Request) {
		shortCode := chi.URLParam(r, "shortCode")

		url, err := svc.ResolveShortCode(r.Context(), shortCode, service.Visit{
			ClientIP:  clientIP(r),
			UserAgent: r.UserAgent(),
		})
		if err != nil {
			renderError(w, r, op, err)
			return
		}

		w.Header().Set("Location", url.OriginalURL)
		w.Header().Set("Cache-Control", "no-cache")
		w.WriteHeader(http.StatusMovedPermanently)
	}
}

func handleGetURLStats(svc URLService) http.HandlerFunc {
	const op = "api.http.handleGetURLStats"

	return func(w http.ResponseWriter, r *http.Request) {
		shortCode := chi.URLParam(r, "shortCode")

		url, err := svc.GetURLStats(r.Context(), shortCode)
		if err != nil {
			renderError(w, r, op, err)
			return
		}

		render.Status(r, http.StatusOK)
		render.JSON(w, r, toURLStatsResponse(url))
	}
}

// renderError maps service errors to responses. Anything unexpected is
// attached to the request log entry and answered with a generic 500.
func renderError(w http.ResponseWriter, r *http.Request, op string, err error) {
	var validationErr *service.ValidationError

	switch {
	case errors.As(err, &validationErr):
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.ErrorResponse(validationErr.Reason))
	case errors.Is(err, database.ErrURLNotFound):
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, response.ResourceNotFoundResponse)
	case errors.Is(err, service.ErrURLInactive):
		render.Status(r, http.StatusGone)
		render.JSON(w, r, response.ResourceGoneResponse)
	default:
		fields := map[string]any{"op": op, "err": err}
		if shortCode := chi.URLParam(r, "shortCode"); shortCode != "" {
			fields["short_code"] = shortCode
		}
		httplog.LogEntrySetFields(r.Context(), fields)

		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.ServerErrorResponse)
	}
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func shortURL(r *http.Request, baseURL, shortCode string) string {
	if baseURL != "" {
		return baseURL + "/" + shortCode
	}

	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	}

	return scheme + "://" + r.Host + "/" + shortCode
}
