package api

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/groupwatch/dealstats/internal/deals"
	"github.com/groupwatch/dealstats/internal/storage"
)

// markerScanLimit bounds how many sync markers the report views walk when
// building day indexes and resolving day keys.
const markerScanLimit = 1000

// allSyncsLimit caps the marker listing on the all-syncs page.
const allSyncsLimit = 500

type indexPage struct {
	Days        []string
	LastUpdated string
}

type allPage struct {
	Syncs       []deals.SyncMarker
	LastUpdated string
}

type reportPage struct {
	SyncKey     string
	Deals       []deals.Deal
	TippedTotal string
	LastUpdated string
}

type staticPage struct {
	LastUpdated string
}

func (s *Server) home(w http.ResponseWriter, r *http.Request) {
	markers, err := s.store.ListSyncMarkers(r.Context(), markerScanLimit)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "failed to list syncs")
		return
	}
	seen := make(map[string]struct{}, len(markers))
	days := make([]string, 0, len(markers))
	for _, m := range markers {
		day := deals.DayKey(m.SyncKey)
		if _, ok := seen[day]; ok {
			continue
		}
		seen[day] = struct{}{}
		days = append(days, day)
	}
	s.render(w, "index.html", indexPage{Days: days, LastUpdated: s.lastUpdated(r)})
}

func (s *Server) allSyncs(w http.ResponseWriter, r *http.Request) {
	markers, err := s.store.ListSyncMarkers(r.Context(), allSyncsLimit)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "failed to list syncs")
		return
	}
	s.render(w, "all.html", allPage{Syncs: markers, LastUpdated: s.lastUpdated(r)})
}

// syncReport renders the deal table for one sync group. Unknown keys fall
// back to the landing page rather than a 404.
func (s *Server) syncReport(w http.ResponseWriter, r *http.Request) {
	key, err := url.QueryUnescape(chi.URLParam(r, "key"))
	if err != nil {
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}
	group, err := s.store.DealsBySyncKey(r.Context(), key)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "failed to load deals")
		return
	}
	if len(group) == 0 && !s.markerExists(r, key) {
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}
	s.renderReport(w, r, key, group)
}

// dayReport resolves a day key to the most recent sync of that day and
// renders its report. Unknown days fall back to the landing page.
func (s *Server) dayReport(w http.ResponseWriter, r *http.Request) {
	day, err := url.QueryUnescape(chi.URLParam(r, "day"))
	if err != nil || day == "" {
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}
	markers, err := s.store.ListSyncMarkers(r.Context(), markerScanLimit)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "failed to list syncs")
		return
	}
	for _, m := range markers {
		if !strings.Contains(m.SyncKey, day) {
			continue
		}
		group, err := s.store.DealsBySyncKey(r.Context(), m.SyncKey)
		if err != nil {
			s.writeError(w, http.StatusInternalServerError, "failed to load deals")
			return
		}
		s.renderReport(w, r, m.SyncKey, group)
		return
	}
	http.Redirect(w, r, "/", http.StatusFound)
}

func (s *Server) about(w http.ResponseWriter, r *http.Request) {
	s.render(w, "about.html", staticPage{LastUpdated: s.lastUpdated(r)})
}

func (s *Server) feedback(w http.ResponseWriter, r *http.Request) {
	s.render(w, "feedback.html", staticPage{LastUpdated: s.lastUpdated(r)})
}

func (s *Server) renderReport(w http.ResponseWriter, r *http.Request, key string, group []deals.Deal) {
	// The tipped headline figure multiplies quantity by unit price without
	// dividing by active days, so it overstates revenue for multi-day deals.
	// Kept for continuity with the historical reports.
	var tipped float64
	for _, d := range group {
		if d.Tipped {
			tipped += float64(d.QuantitySold) * d.UnitPrice
		}
	}
	s.render(w, "sync_report.html", reportPage{
		SyncKey:     key,
		Deals:       group,
		TippedTotal: strconv.FormatInt(int64(tipped), 10),
		LastUpdated: s.lastUpdated(r),
	})
}

func (s *Server) render(w http.ResponseWriter, name string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := pageTemplates.ExecuteTemplate(w, name, data); err != nil {
		s.logger.Error("render template failed", zap.String("template", name), zap.Error(err))
	}
}

func (s *Server) lastUpdated(r *http.Request) string {
	marker, err := s.store.LastSync(r.Context())
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			s.logger.Warn("last sync lookup failed", zap.Error(err))
		}
		return "never"
	}
	return marker.CreatedAt.Format("2006-01-02 15:04:05")
}

func (s *Server) markerExists(r *http.Request, key string) bool {
	markers, err := s.store.ListSyncMarkers(r.Context(), markerScanLimit)
	if err != nil {
		return false
	}
	for _, m := range markers {
		if m.SyncKey == key {
			return true
		}
	}
	return false
}
