package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/eugenenazirov/pivot/internal/serialize"
	"github.com/eugenenazirov/pivot/internal/settings"
	"github.com/eugenenazirov/pivot/internal/store"
)

type contextKey string

const requestIDContextKey contextKey = "requestID"

// Handler serves the settings held by a store.
type Handler struct {
	store   store.Store
	version string

	clock func() time.Time
}

// HandlerOption configures Handler behaviour.
type HandlerOption func(*Handler)

// WithClock overrides the time source, primarily for tests.
func WithClock(clock func() time.Time) HandlerOption {
	return func(h *Handler) {
		h.clock = clock
	}
}

// WithVersion sets the version reported by the health and config endpoints.
func WithVersion(version string) HandlerOption {
	return func(h *Handler) {
		h.version = version
	}
}

// NewHandler constructs a Handler reading from st.
func NewHandler(st store.Store, opts ...HandlerOption) *Handler {
	h := &Handler{
		store: st,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	_ = r
	_, updatedAt, err := h.store.Get()
	resp := healthResponse{
		Status:    "ok",
		Version:   h.version,
		Timestamp: h.clock(),
		Loaded:    err == nil,
	}
	if err == nil {
		resp.SettingsUpdatedAt = &updatedAt
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	current, updatedAt, ok := h.current(w)
	if !ok {
		return
	}
	_ = r

	writeJSON(w, http.StatusOK, settingsResponse{
		Settings:  current,
		UpdatedAt: updatedAt,
	})
}

func (h *Handler) handleListDataCubes(w http.ResponseWriter, r *http.Request) {
	current, _, ok := h.current(w)
	if !ok {
		return
	}
	_ = r

	cubes := make([]dataCubeSummary, 0, len(current.DataCubes))
	for _, c := range current.DataCubes {
		cubes = append(cubes, dataCubeSummary{
			Name:        c.Name,
			Title:       c.Title,
			Description: c.Description,
			ClusterName: c.ClusterName,
			Source:      c.Source,
			Dimensions:  len(c.Dimensions),
			Measures:    len(c.Measures),
		})
	}
	writeJSON(w, http.StatusOK, dataCubesResponse{DataCubes: cubes})
}

func (h *Handler) handleGetDataCube(w http.ResponseWriter, r *http.Request) {
	current, _, ok := h.current(w)
	if !ok {
		return
	}

	name := r.PathValue("name")
	cube, found := current.DataCube(name)
	if !found {
		writeError(w, http.StatusNotFound, "Data cube not found", "no data cube named '"+name+"'")
		return
	}
	writeJSON(w, http.StatusOK, cube)
}

func (h *Handler) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	withComments := false
	if raw := r.URL.Query().Get("comments"); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid request", "comments must be true or false")
			return
		}
		withComments = parsed
	}

	current, _, ok := h.current(w)
	if !ok {
		return
	}

	doc, err := serialize.Settings(current, serialize.Options{
		Version:      h.version,
		WithComments: withComments,
		OmitSecrets:  true,
	})
	if err != nil {
		writeInternalError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/yaml; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(doc)
}

// current fetches the stored settings or writes the matching error.
func (h *Handler) current(w http.ResponseWriter) (*settings.Settings, time.Time, bool) {
	current, updatedAt, err := h.store.Get()
	if err != nil {
		if errors.Is(err, store.ErrEmpty) {
			writeError(w, http.StatusServiceUnavailable, "Settings not loaded", err.Error())
			return nil, time.Time{}, false
		}
		writeInternalError(w, err)
		return nil, time.Time{}, false
	}
	return current, updatedAt, true
}

func requestIDFromContext(ctx context.Context) string {
	if v := ctx.Value(requestIDContextKey); v != nil {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return ""
}

type settingsResponse struct {
	Settings  *settings.Settings `json:"settings"`
	UpdatedAt time.Time          `json:"updatedAt"`
}

type dataCubeSummary struct {
	Name        string `json:"name"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	ClusterName string `json:"clusterName"`
	Source      string `json:"source"`
	Dimensions  int    `json:"dimensions"`
	Measures    int    `json:"measures"`
}

type dataCubesResponse struct {
	DataCubes []dataCubeSummary `json:"dataCubes"`
}

type healthResponse struct {
	Status            string     `json:"status"`
	Version           string     `json:"version,omitempty"`
	Timestamp         time.Time  `json:"timestamp"`
	Loaded            bool       `json:"loaded"`
	SettingsUpdatedAt *time.Time `json:"settingsUpdatedAt,omitempty"`
}

type errorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	if status != 0 {
		w.WriteHeader(status)
	}
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message, details string) {
	writeJSON(w, status, errorResponse{
		Error:   message,
		Details: details,
	})
}

func writeInternalError(w http.ResponseWriter, err error) {
	writeError(w, http.StatusInternalServerError, "Internal error", err.Error())
}
