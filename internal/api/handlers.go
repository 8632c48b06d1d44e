package api

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/t-race/typerace/internal/domain"
)

// ─── Health ─────────────────────────────────────────────────────────────────

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.svc.Health == nil {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		return
	}
	status, code := "ok", http.StatusOK
	if !s.svc.Health.IsHealthy() {
		status, code = "degraded", http.StatusServiceUnavailable
	}
	writeJSON(w, code, map[string]interface{}{
		"status": status,
		"checks": s.svc.Health.Statuses(),
	})
}

// ─── Users ──────────────────────────────────────────────────────────────────

func (s *Server) handleUpsertUser(w http.ResponseWriter, r *http.Request) {
	var req domain.User
	if !decodeJSON(w, r, &req) {
		return
	}
	user, created, err := s.svc.Profiles.Upsert(r.Context(), req)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	code := http.StatusOK
	if created {
		code = http.StatusCreated
	}
	writeJSON(w, code, map[string]interface{}{
		"success": true,
		"created": created,
		"user":    user,
	})
}

func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	user, err := s.svc.Profiles.Get(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "user": user})
}

type scoreRequest struct {
	Score    float64 `json:"score"`
	GameTime float64 `json:"gameTime"`
}

func (s *Server) handleUpdateScore(w http.ResponseWriter, r *http.Request) {
	var req scoreRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	user, err := s.svc.Profiles.UpdateScore(r.Context(), chi.URLParam(r, "userID"), req.Score, req.GameTime)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "user": user})
}

func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	offset, err := queryInt(r, "offset")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	page, err := s.svc.Profiles.Leaderboard(r.Context(), limit, offset)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":     true,
		"leaderboard": page.Leaderboard,
		"pagination":  page.Pagination,
	})
}

// ─── Typing Sessions ────────────────────────────────────────────────────────

type sessionRequest struct {
	UserID     string   `json:"userId"`
	WPM        *float64 `json:"wpm"`
	Accuracy   *float64 `json:"accuracy"`
	TimePlayed *float64 `json:"timePlayed"`
}

func (s *Server) handleRecordSession(w http.ResponseWriter, r *http.Request) {
	var req sessionRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.UserID == "" || req.WPM == nil || req.Accuracy == nil || req.TimePlayed == nil {
		writeError(w, http.StatusBadRequest, "missing or invalid fields: userId, wpm, accuracy, timePlayed")
		return
	}
	sample := domain.PerformanceSample{WPM: *req.WPM, Accuracy: *req.Accuracy, TimePlayed: *req.TimePlayed}

	res, err := s.svc.Sessions.Record(r.Context(), req.UserID, sample)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"success": true,
		"message": "Stat saved",
		"result":  res,
	})
}

func (s *Server) handleSessionHistory(w http.ResponseWriter, r *http.Request) {
	stats, err := s.svc.Sessions.History(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "stats": stats})
}

// ─── Badges ─────────────────────────────────────────────────────────────────

func (s *Server) handleListBadges(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"badges":  s.svc.Catalog.ListBadges(),
	})
}

type evaluateRequest struct {
	UserID     string  `json:"userId"`
	WPM        float64 `json:"wpm"`
	Accuracy   float64 `json:"accuracy"`
	TimePlayed float64 `json:"timePlayed"`
}

func (s *Server) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	var req evaluateRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	sample := domain.PerformanceSample{WPM: req.WPM, Accuracy: req.Accuracy, TimePlayed: req.TimePlayed}
	report, err := s.svc.Achievements.EvaluateAchievements(r.Context(), req.UserID, sample)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":           true,
		"newBadges":         report.NewBadges,
		"evaluationResults": report.EvaluationResults,
		"totalEvaluated":    report.TotalEvaluated,
	})
}

func (s *Server) handleProgress(w http.ResponseWriter, r *http.Request) {
	progress, err := s.svc.Progress.GetProgress(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "progress": progress})
}

type markViewedRequest struct {
	UserID   string   `json:"userId"`
	BadgeID  string   `json:"badgeId"`
	BadgeIDs []string `json:"badgeIds"`
}

func (s *Server) handleMarkViewed(w http.ResponseWriter, r *http.Request) {
	var req markViewedRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	ids := req.BadgeIDs
	if req.BadgeID != "" {
		ids = []string{req.BadgeID}
	}
	n, err := s.svc.Achievements.MarkViewed(r.Context(), req.UserID, ids)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":      true,
		"message":      strconv.Itoa(len(ids)) + " badge(s) marked as viewed",
		"markedBadges": ids,
		"updated":      n,
	})
}

func (s *Server) handleUserStat(w http.ResponseWriter, r *http.Request) {
	stat, err := s.svc.Stats.GetUserStat(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "stat": stat})
}

func (s *Server) handleUnviewed(w http.ResponseWriter, r *http.Request) {
	pending, err := s.svc.Notifications.Pending(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "celebrations": pending})
}

func (s *Server) handleAcknowledge(w http.ResponseWriter, r *http.Request) {
	n, err := s.svc.Notifications.Acknowledge(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "updated": n})
}

// queryInt reads an optional integer query parameter; absent reads as 0.
func queryInt(r *http.Request, name string) (int, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("query parameter %s=%q is not an integer", name, v)
	}
	return n, nil
}
