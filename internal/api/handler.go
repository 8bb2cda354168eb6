package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/aibisolutions/secretary/internal/biz/domain"
	"github.com/aibisolutions/secretary/internal/biz/usecase"
	"github.com/aibisolutions/secretary/internal/logging"
)

// StatusProvider reports pipeline health for the ops surface
type StatusProvider interface {
	Status(ctx context.Context) (activeChats int, pendingDrafts int, err error)
}

// Server exposes the operator HTTP API: draft listing and the review
// actions, callable from the CLI or any dashboard.
type Server struct {
	review *usecase.ReviewUsecase
	status StatusProvider

	server *http.Server
	port   int
	log    zerolog.Logger
}

// NewServer creates an operator API server
func NewServer(review *usecase.ReviewUsecase, status StatusProvider, port int) *Server {
	return &Server{
		review: review,
		status: status,
		port:   port,
		log:    logging.Component("api"),
	}
}

// Handler builds the route table
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/health", s.handleHealth)
	mux.HandleFunc("/api/drafts", s.handleDrafts)
	mux.HandleFunc("/api/drafts/", s.handleDraftAction)
	return mux
}

// Start runs the HTTP server until the context is canceled. Blocking.
func (s *Server) Start(ctx context.Context) error {
	s.server = &http.Server{
		Addr:    fmt.Sprintf("127.0.0.1:%d", s.port),
		Handler: s.Handler(),
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.server.ListenAndServe()
	}()
	s.log.Info().Int("port", s.port).Msg("operator api listening")

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
		return ctx.Err()
	case err := <-errCh:
		return err
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	activeChats, pendingDrafts, err := s.status.Status(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, map[string]interface{}{
		"status":         "ok",
		"active_chats":   activeChats,
		"pending_drafts": pendingDrafts,
	})
}

// draftView is the JSON shape of a draft on the wire
type draftView struct {
	ChatID     string `json:"chat_id"`
	ChatTitle  string `json:"chat_title"`
	Text       string `json:"text"`
	Confidence int    `json:"confidence"`
	Status     string `json:"status"`
	CreatedAt  string `json:"created_at"`
	LastError  string `json:"last_error,omitempty"`
}

func toDraftView(d *domain.Draft) draftView {
	return draftView{
		ChatID:     d.ChatID,
		ChatTitle:  d.ChatTitle,
		Text:       d.Text,
		Confidence: d.Confidence,
		Status:     string(d.Status),
		CreatedAt:  d.CreatedAt.Format(time.RFC3339),
		LastError:  d.LastError,
	}
}

func (s *Server) handleDrafts(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	drafts, err := s.review.ListPending(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}

	views := make([]draftView, 0, len(drafts))
	for _, d := range drafts {
		views = append(views, toDraftView(d))
	}
	s.writeJSON(w, map[string]interface{}{"drafts": views})
}

func (s *Server) handleDraftAction(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	// Path: /api/drafts/{chat_id}/{action}
	path := strings.TrimPrefix(r.URL.Path, "/api/drafts/")
	parts := strings.Split(path, "/")
	if len(parts) != 2 || parts[0] == "" {
		http.Error(w, "invalid path", http.StatusBadRequest)
		return
	}
	chatID, action := parts[0], parts[1]

	var result usecase.ActionResult
	switch action {
	case "approve":
		result = s.review.Approve(r.Context(), chatID)
	case "request-edit":
		result = s.review.RequestEdit(r.Context(), chatID)
	case "edit":
		var req struct {
			Text string `json:"text"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		result = s.review.SubmitEdit(r.Context(), chatID, req.Text)
	case "discard":
		result = s.review.Discard(r.Context(), chatID)
	default:
		http.Error(w, "unknown action", http.StatusNotFound)
		return
	}

	s.log.Info().
		Str("chat_id", chatID).
		Str("action", action).
		Bool("ok", result.OK).
		Str("status", result.Status).
		Msg("operator action")

	if !result.OK {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusConflict)
		json.NewEncoder(w).Encode(map[string]interface{}{"success": false, "status": result.Status})
		return
	}
	s.writeJSON(w, map[string]interface{}{"success": true, "status": result.Status})
}

func (s *Server) writeJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(data)
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusInternalServerError)
	json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}
