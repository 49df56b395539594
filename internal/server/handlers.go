package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/xeipuuv/gojsonschema"
	"go.uber.org/zap"

	"leadbot-backend/internal/chat"
	"leadbot-backend/internal/dialog"
	"leadbot-backend/internal/leads"
	"leadbot-backend/internal/types"
)

const (
	maxBodyBytes = 64 << 10
	readyTimeout = 3 * time.Second
)

func (s *Server) routes() {
	s.router.Get("/", s.handleHealth)
	s.router.Get("/ready", s.handleReady)
	s.router.Post("/chat", s.handleChat)
	s.router.Post("/lead", s.handleLead)
	s.router.Get("/flows", s.handleFlows)
	s.router.Get("/widget-config", s.handleWidgetConfig)
	s.router.Get("/analytics/funnel", s.handleFunnel)
	s.router.Get("/analytics/funnel.png", s.handleFunnelChart)
	s.router.Method(http.MethodGet, "/metrics", promhttp.Handler())
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, types.HealthResponse{Status: "Chatbot Backend Running"})
}

// handleReady answers 503 while the lead sink backend is unreachable.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
	defer cancel()
	if err := s.chat.Ready(ctx); err != nil {
		s.logger.Warn("readiness check failed", zap.Error(err))
		s.writeError(w, http.StatusServiceUnavailable, "lead storage unavailable")
		return
	}
	s.writeJSON(w, http.StatusOK, types.HealthResponse{Status: "ready"})
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req types.ChatRequest
	if err := s.decode(r, chatRequestSchema, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	sid := getOrCreateSessionID(w, r, req.SessionID)

	resp, err := s.chat.Handle(r.Context(), chat.Request{
		Message:   req.Message,
		Industry:  req.Industry,
		SessionID: sid,
	})
	if err != nil {
		s.logger.Error("chat turn failed", zap.String("session_id", sid), zap.Error(err))
		s.writeError(w, http.StatusInternalServerError, "chat is temporarily unavailable")
		return
	}

	// A finished form ends the conversation; the next visit starts fresh.
	if resp.Completed {
		if _, err := GetSessionCookie(r); err == nil {
			ClearSessionCookie(w)
		}
	}
	w.Header().Set(SessionHeader, sid)
	s.writeJSON(w, http.StatusOK, types.ChatResponse{
		Reply:     resp.Reply,
		Completed: resp.Completed,
		SessionID: sid,
	})
}

func (s *Server) handleLead(w http.ResponseWriter, r *http.Request) {
	var req types.LeadRequest
	if err := s.decode(r, leadRequestSchema, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	out := s.chat.SubmitContact(r.Context(), leads.Contact{
		Name:  sanitize(req.Name),
		Email: sanitize(req.Email),
		Phone: sanitize(req.Phone),
		Query: sanitize(req.Query),
	})
	switch {
	case out.OK():
		s.writeJSON(w, http.StatusOK, types.LeadResponse{Success: true})
	case errors.Is(out.Err, leads.ErrUnavailable):
		s.writeJSON(w, http.StatusOK, types.LeadResponse{Error: "Database not available"})
	default:
		s.writeJSON(w, http.StatusOK, types.LeadResponse{Error: "Failed to save lead data"})
	}
}

func (s *Server) handleFlows(w http.ResponseWriter, r *http.Request) {
	resp := types.FlowsResponse{TriggerWords: dialog.TriggerWords()}
	for _, industry := range dialog.Industries() {
		flow := types.Flow{Industry: industry}
		for _, f := range industry.Flow() {
			flow.Steps = append(flow.Steps, types.FlowStep{Field: f, Question: f.Question()})
		}
		resp.Flows = append(resp.Flows, flow)
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleWidgetConfig(w http.ResponseWriter, r *http.Request) {
	industry, ok := dialog.ParseIndustry(r.URL.Query().Get("industry"))
	if !ok {
		industry = ""
	}
	def, ok := dialog.ParseIndustry(s.cfg.DefaultIndustry)
	if !ok {
		def = dialog.Hotel
	}
	s.writeJSON(w, http.StatusOK, types.WidgetConfig{
		BotName:         s.cfg.Widget.BotName,
		WelcomeMessage:  s.cfg.Widget.WelcomeMessage,
		FallbackMessage: s.cfg.Widget.FallbackMessage,
		Industries:      dialog.Industries(),
		DefaultIndustry: def,
		QuickReplies:    dialog.QuickReplies(industry),
	})
}

func (s *Server) handleFunnel(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("format") == "text" {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = io.WriteString(w, s.funnel.Summary())
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"stages": s.funnel.Report()})
}

func (s *Server) handleFunnelChart(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := s.funnel.RenderPNG(&buf); err != nil {
		s.logger.Error("funnel chart render failed", zap.Error(err))
		s.writeError(w, http.StatusInternalServerError, "chart unavailable")
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-cache")
	_, _ = w.Write(buf.Bytes())
}

// decode validates the body against schema before unmarshalling into dst.
func (s *Server) decode(r *http.Request, schema *gojsonschema.Schema, dst any) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return errInvalidJSON
	}
	if err := validate(schema, body); err != nil {
		return err
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return errInvalidJSON
	}
	return nil
}

// sanitize trims the value and drops angle brackets so stored leads never
// carry markup.
func sanitize(v string) string {
	return strings.TrimSpace(strings.NewReplacer("<", "", ">", "").Replace(v))
}
