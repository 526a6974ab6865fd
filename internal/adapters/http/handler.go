package httpadapter

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/newsnest/nest-agent/internal/app/chat"
	"github.com/newsnest/nest-agent/internal/app/profiles"
	"github.com/newsnest/nest-agent/internal/app/sessions"
	"github.com/newsnest/nest-agent/internal/domain"
)

type Server struct {
	chat     *chat.Service
	sessions *sessions.Service
	profiles *profiles.Service
	news     domain.NewsSource
	log      *slog.Logger
}

func NewServer(
	chatSvc *chat.Service,
	sessionSvc *sessions.Service,
	profileSvc *profiles.Service,
	news domain.NewsSource,
	log *slog.Logger,
) http.Handler {
	s := &Server{
		chat:     chatSvc,
		sessions: sessionSvc,
		profiles: profileSvc,
		news:     news,
		log:      log,
	}

	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(withRequestLogging(log))
	r.Use(withCORS)

	r.Get("/healthz", s.handleHealth)

	r.Route("/agents", func(r chi.Router) {
		r.Get("/list", s.handleAgentList)
		r.Post("/chat", s.handleChat)
		r.Post("/route-only", s.handleRouteOnly)
		r.Post("/chat-and-route", s.handleChatAndRoute)
	})

	r.Route("/chats", func(r chi.Router) {
		r.Post("/save", s.handleSaveChat)
		r.Get("/history", s.handleChatHistory)
		r.Get("/session", s.handleGetSession)
	})

	r.Route("/news", func(r chi.Router) {
		r.Get("/", s.handleNewsSearch)
		r.Get("/top-headlines", s.handleTopHeadlines)
	})

	r.Route("/users", func(r chi.Router) {
		r.Get("/profile", s.handleGetProfile)
		r.Post("/profile", s.handleUpsertProfile)
		r.Get("/preferences", s.handleGetPreferences)
		r.Post("/preferences", s.handleUpsertPreferences)
		r.Get("/check-email", s.handleCheckEmail)
	})

	return r
}

// ─────────────────────────────────────────────
// DTOs (request/response)
// ─────────────────────────────────────────────

type turnDTO struct {
	Role     string `json:"role"`
	Text     string `json:"text"`
	AgentTag string `json:"agentTag,omitempty"`
}

type chatRequest struct {
	Agent       string    `json:"agent,omitempty"`
	Message     string    `json:"message"`
	History     []turnDTO `json:"conversationHistory,omitempty"`
	UserName    string    `json:"userName,omitempty"`
	DisplayName string    `json:"displayName,omitempty"`
}

type chatResponse struct {
	Agent               string                     `json:"agent"`
	AgentName           string                     `json:"agentName"`
	Response            string                     `json:"response"`
	HasArticleReference bool                       `json:"hasArticleReference"`
	Chart               *domain.ChartData          `json:"chart,omitempty"`
	Timeline            *domain.TimelineData       `json:"timeline,omitempty"`
	RoutingMessage      string                     `json:"routingMessage,omitempty"`
	RoutedFrom          string                     `json:"routedFrom,omitempty"`
	Articles            []domain.ClassifiedArticle `json:"articles,omitempty"`
	Scoreboard          []domain.SportsGame        `json:"scoreboard,omitempty"`
}

type routeOnlyResponse struct {
	TargetAgent     string `json:"targetAgent"`
	TargetAgentName string `json:"targetAgentName"`
	Confidence      string `json:"confidence"`
	Reasoning       string `json:"reasoning"`
	NeedsRouting    bool   `json:"needsRouting"`
	TopicChange     bool   `json:"topicChange"`
	RoutingMessage  string `json:"routingMessage,omitempty"`
}

type agentDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Emoji       string `json:"emoji"`
	Description string `json:"description"`
}

type saveChatRequest struct {
	Owner     string    `json:"ownerId"`
	SessionID string    `json:"sessionId,omitempty"`
	History   []turnDTO `json:"history"`
}

type saveChatResponse struct {
	SessionID        string   `json:"sessionId"`
	Title            string   `json:"title"`
	PersonasInvolved []string `json:"personasInvolved"`
}

type sessionSummaryDTO struct {
	SessionID        string    `json:"sessionId"`
	Title            string    `json:"title"`
	PersonasInvolved []string  `json:"personasInvolved"`
	MessageCount     int       `json:"messageCount"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

type sessionDTO struct {
	sessionSummaryDTO
	History []turnDTO `json:"history"`
}

type articleDTO struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	URL         string `json:"url"`
	SourceName  string `json:"sourceName"`
	PublishedAt string `json:"publishedAt,omitempty"`
}

type profileRequest struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

type profileResponse struct {
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

type preferencesRequest struct {
	Email             string   `json:"email"`
	ParrotName        string   `json:"parrotName"`
	Times             []string `json:"times"`
	Frequency         string   `json:"frequency"`
	PushNotifications bool     `json:"pushNotifications"`
	EmailSummaries    bool     `json:"emailSummaries"`
	Topics            []string `json:"topics"`
}

// ─────────────────────────────────────────────
// Agents
// ─────────────────────────────────────────────

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleAgentList(w http.ResponseWriter, r *http.Request) {
	personas := domain.Personas()
	out := make([]agentDTO, 0, len(personas))
	for _, p := range personas {
		out = append(out, agentDTO{
			ID:          string(p.ID),
			Name:        p.Name,
			Emoji:       p.Emoji,
			Description: p.Description,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"agents": out})
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeChatRequest(w, r)
	if !ok {
		return
	}
	if req.Agent == "" {
		badRequest(w, "agent is required")
		return
	}

	out, err := s.chat.Chat(r.Context(), toChatInput(req))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toChatResponse(out))
}

func (s *Server) handleRouteOnly(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeChatRequest(w, r)
	if !ok {
		return
	}

	decision, err := s.chat.RouteOnly(r.Context(), toChatInput(req))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, routeOnlyResponse{
		TargetAgent:     string(decision.Target),
		TargetAgentName: domain.ResolvePersona(string(decision.Target)).Name,
		Confidence:      string(decision.Confidence),
		Reasoning:       decision.Reasoning,
		NeedsRouting:    decision.NeedsRouting,
		TopicChange:     decision.TopicChange,
		RoutingMessage:  decision.RoutingMessage,
	})
}

func (s *Server) handleChatAndRoute(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeChatRequest(w, r)
	if !ok {
		return
	}

	out, err := s.chat.ChatAndRoute(r.Context(), toChatInput(req))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toChatResponse(out))
}

// ─────────────────────────────────────────────
// Chats
// ─────────────────────────────────────────────

func (s *Server) handleSaveChat(w http.ResponseWriter, r *http.Request) {
	var req saveChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid JSON body")
		return
	}
	if req.Owner == "" {
		badRequest(w, "ownerId is required")
		return
	}
	if len(req.History) == 0 {
		badRequest(w, "history is required")
		return
	}

	out, err := s.sessions.Save(r.Context(), sessions.SaveInput{
		OwnerID:   req.Owner,
		SessionID: req.SessionID,
		History:   toTurns(req.History),
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, saveChatResponse{
		SessionID:        out.SessionID,
		Title:            out.Title,
		PersonasInvolved: personaIDs(out.PersonasInvolved),
	})
}

func (s *Server) handleChatHistory(w http.ResponseWriter, r *http.Request) {
	owner := r.URL.Query().Get("owner")
	if owner == "" {
		badRequest(w, "owner is required")
		return
	}

	list, err := s.sessions.History(r.Context(), owner)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	out := make([]sessionSummaryDTO, 0, len(list))
	for _, session := range list {
		out = append(out, toSessionSummary(session))
	}
	writeJSON(w, http.StatusOK, map[string]any{"sessions": out})
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("id")
	owner := r.URL.Query().Get("owner")
	if id == "" || owner == "" {
		badRequest(w, "id and owner are required")
		return
	}

	session, err := s.sessions.Get(r.Context(), id, owner)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, sessionDTO{
		sessionSummaryDTO: toSessionSummary(session),
		History:           toTurnDTOs(session.Messages),
	})
}

// ─────────────────────────────────────────────
// News passthrough
// ─────────────────────────────────────────────

func (s *Server) handleNewsSearch(w http.ResponseWriter, r *http.Request) {
	if s.news == nil {
		s.writeError(w, r, domain.ErrUnavailable)
		return
	}
	q := r.URL.Query().Get("q")
	if q == "" {
		badRequest(w, "q is required")
		return
	}

	articles, err := s.news.Search(r.Context(), domain.NewsQuery{
		Query:    q,
		FromDays: queryInt(r, "days", 3),
		PageSize: queryInt(r, "pageSize", 10),
		SortBy:   "publishedAt",
		Language: "en",
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"articles": toArticleDTOs(articles)})
}

func (s *Server) handleTopHeadlines(w http.ResponseWriter, r *http.Request) {
	if s.news == nil {
		s.writeError(w, r, domain.ErrUnavailable)
		return
	}
	country := r.URL.Query().Get("country")
	if country == "" {
		country = "us"
	}
	category := r.URL.Query().Get("category")

	articles, err := s.news.TopHeadlines(r.Context(), country, category, queryInt(r, "pageSize", 10))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"articles": toArticleDTOs(articles)})
}

// ─────────────────────────────────────────────
// Users
// ─────────────────────────────────────────────

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	profile, err := s.profiles.GetProfile(r.Context(), r.URL.Query().Get("email"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toProfileResponse(profile))
}

func (s *Server) handleUpsertProfile(w http.ResponseWriter, r *http.Request) {
	var req profileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		badRequest(w, "name is required")
		return
	}

	profile, err := s.profiles.UpsertProfile(r.Context(), req.Email, req.Name)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toProfileResponse(profile))
}

func (s *Server) handleGetPreferences(w http.ResponseWriter, r *http.Request) {
	prefs, err := s.profiles.GetPreferences(r.Context(), r.URL.Query().Get("email"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, prefs)
}

func (s *Server) handleUpsertPreferences(w http.ResponseWriter, r *http.Request) {
	var req preferencesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid JSON body")
		return
	}

	prefs, err := s.profiles.UpsertPreferences(r.Context(), &domain.UserPreferences{
		Email:             req.Email,
		ParrotName:        req.ParrotName,
		Times:             req.Times,
		Frequency:         req.Frequency,
		PushNotifications: req.PushNotifications,
		EmailSummaries:    req.EmailSummaries,
		Topics:            req.Topics,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, prefs)
}

func (s *Server) handleCheckEmail(w http.ResponseWriter, r *http.Request) {
	exists, err := s.profiles.EmailExists(r.Context(), r.URL.Query().Get("email"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"exists": exists})
}

// ─────────────────────────────────────────────
// Conversion helpers
// ─────────────────────────────────────────────

func decodeChatRequest(w http.ResponseWriter, r *http.Request) (chatRequest, bool) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid JSON body")
		return chatRequest{}, false
	}
	if strings.TrimSpace(req.Message) == "" {
		badRequest(w, "message is required")
		return chatRequest{}, false
	}
	return req, true
}

func toChatInput(req chatRequest) chat.ChatInput {
	return chat.ChatInput{
		Agent:       req.Agent,
		Message:     req.Message,
		History:     toTurns(req.History),
		UserName:    req.UserName,
		DisplayName: req.DisplayName,
	}
}

func toChatResponse(out *chat.ChatOutput) chatResponse {
	return chatResponse{
		Agent:               string(out.Agent),
		AgentName:           out.AgentName,
		Response:            out.Response,
		HasArticleReference: out.HasArticleReference,
		Chart:               out.Chart,
		Timeline:            out.Timeline,
		RoutingMessage:      out.RoutingMessage,
		RoutedFrom:          string(out.RoutedFrom),
		Articles:            out.Articles,
		Scoreboard:          out.Scoreboard,
	}
}

func toTurns(dtos []turnDTO) []domain.ConversationTurn {
	turns := make([]domain.ConversationTurn, 0, len(dtos))
	for _, t := range dtos {
		role := domain.RoleUser
		if strings.EqualFold(t.Role, string(domain.RoleAssistant)) {
			role = domain.RoleAssistant
		}
		turns = append(turns, domain.ConversationTurn{Role: role, Text: t.Text, AgentTag: t.AgentTag})
	}
	return turns
}

func toTurnDTOs(turns []domain.ConversationTurn) []turnDTO {
	out := make([]turnDTO, 0, len(turns))
	for _, t := range turns {
		out = append(out, turnDTO{Role: string(t.Role), Text: t.Text, AgentTag: t.AgentTag})
	}
	return out
}

func toSessionSummary(s *domain.ChatSession) sessionSummaryDTO {
	return sessionSummaryDTO{
		SessionID:        s.ID,
		Title:            s.Title,
		PersonasInvolved: personaIDs(s.PersonasInvolved),
		MessageCount:     len(s.Messages),
		CreatedAt:        s.CreatedAt,
		UpdatedAt:        s.UpdatedAt,
	}
}

func toArticleDTOs(articles []domain.Article) []articleDTO {
	out := make([]articleDTO, 0, len(articles))
	for _, a := range articles {
		dto := articleDTO{
			Title:       a.Title,
			Description: a.Description,
			URL:         a.URL,
			SourceName:  a.SourceName,
		}
		if !a.PublishedAt.IsZero() {
			dto.PublishedAt = a.PublishedAt.UTC().Format(time.RFC3339)
		}
		out = append(out, dto)
	}
	return out
}

func toProfileResponse(p *domain.UserProfile) profileResponse {
	return profileResponse{Email: p.Email, Name: p.Name, CreatedAt: p.CreatedAt}
}

func personaIDs(ids []domain.PersonaID) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		out = append(out, string(id))
	}
	return out
}

func queryInt(r *http.Request, key string, fallback int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

// ─────────────────────────────────────────────
// HTTP Helpers
// ─────────────────────────────────────────────

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func badRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, map[string]string{
		"error": msg,
	})
}

// writeError maps service errors onto status codes. Moderation rejections are
// client errors that carry the rephrase prompt; upstream quota and auth
// problems are distinguished so operators can tell them apart.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var modErr *chat.ModerationError
	switch {
	case errors.As(err, &modErr):
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"error":     modErr.Reason,
			"moderated": true,
		})
	case errors.Is(err, chat.ErrUnknownAgent):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "unknown agent"})
	case errors.Is(err, profiles.ErrInvalidEmail):
		badRequest(w, "a valid email is required")
	case errors.Is(err, domain.ErrSessionNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "session not found"})
	case errors.Is(err, domain.ErrUserNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "user not found"})
	case errors.Is(err, domain.ErrRateLimited):
		writeJSON(w, http.StatusTooManyRequests, map[string]string{
			"error": "the news birds are catching their breath, try again shortly",
		})
	case errors.Is(err, domain.ErrUpstreamAuth):
		s.log.Error("upstream credentials rejected", "path", r.URL.Path, "error", err)
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": "upstream service is misconfigured"})
	case errors.Is(err, domain.ErrUnavailable):
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "upstream service unavailable"})
	default:
		s.log.Error("request failed", "path", r.URL.Path, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
	}
}
