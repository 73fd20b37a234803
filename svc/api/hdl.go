package api

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"freepaste/cfg"
	"freepaste/pkg/domain"
	"freepaste/svc/svc"
	"freepaste/svc/util"

	"github.com/go-chi/chi/v5"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/hlog"
)

const (
	ownerCookie = "owner_token"

	// The token cookie outlives any realistic session; it is the only way
	// back to a paste.
	ownerCookieMaxAge = 10 * 365 * 24 * 3600
)

type Hdl struct {
	paste *svc.Paste
	cfg   *cfg.Cfg
}

type createReq struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

type createResp struct {
	ID    string `json:"id"`
	URL   string `json:"url"`
	Raw   string `json:"raw"`
	Token string `json:"token"`
}

type editReq struct {
	Title   string `json:"title"`
	Content string `json:"content"`
	Token   string `json:"token"`
}

type tokenReq struct {
	Token string `json:"token"`
}

// decodeJSON reads a JSON body capped a little above the content limit,
// leaving headroom for JSON escaping and the title field.
func (h *Hdl) decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) error {
	limit := h.cfg.MaxPasteSize + 1<<20
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	err := json.NewDecoder(r.Body).Decode(v)
	if err == nil {
		return nil
	}
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return domain.ErrPasteTooLarge
	}
	if err == io.EOF {
		// No body at all; handlers treat that like an empty object.
		return nil
	}
	return domain.ErrInvalidRequest
}

// makeURL builds an absolute link for a paste. BASE_URL wins when set;
// otherwise the request itself tells us scheme and host.
func (h *Hdl) makeURL(r *http.Request, path string) string {
	if h.cfg.BaseURL != "" {
		return strings.TrimRight(h.cfg.BaseURL, "/") + path
	}
	scheme := "http"
	if r.Header.Get("X-Forwarded-Proto") == "https" || r.TLS != nil {
		scheme = "https"
	}
	return scheme + "://" + r.Host + path
}

func (h *Hdl) setOwnerCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:  ownerCookie,
		Value: token,
		Path:  "/",
		// Readable by the client script on purpose, so the view page can
		// detect ownership without a round trip.
		HttpOnly: false,
		MaxAge:   ownerCookieMaxAge,
		SameSite: http.SameSiteLaxMode,
		Secure:   h.cfg.Environment == "production",
	})
}

// resolveToken applies the precedence body > cookie > header. Only
// is_owner consults the header.
func resolveToken(r *http.Request, bodyToken string, allowHeader bool) string {
	if bodyToken != "" {
		return bodyToken
	}
	if c, err := r.Cookie(ownerCookie); err == nil && c.Value != "" {
		return c.Value
	}
	if allowHeader {
		return r.Header.Get("X-Owner-Token")
	}
	return ""
}

func (h *Hdl) CreatePaste(w http.ResponseWriter, r *http.Request) {
	log := hlog.FromRequest(r)
	requestID := util.GetRequestID(r.Context())
	var req createReq
	if err := h.decodeJSON(w, r, &req); err != nil {
		log.Warn().Err(err).Msg("invalid create request")
		writeErr(w, err, requestID)
		return
	}
	paste, err := h.paste.Create(r.Context(), req.Title, req.Content)
	if err != nil {
		log.Error().Err(err).Msg("failed to create paste")
		writeErr(w, err, requestID)
		return
	}
	h.setOwnerCookie(w, paste.OwnerToken)
	log.Info().
		Str("paste_id", paste.ID).
		Int("size", len(paste.Content)).
		Str("owner_token", util.RedactToken(paste.OwnerToken)).
		Msg("paste created")
	json.NewEncoder(w).Encode(createResp{
		ID:    paste.ID,
		URL:   h.makeURL(r, "/"+paste.ID),
		Raw:   h.makeURL(r, "/raw/"+paste.ID),
		Token: paste.OwnerToken,
	})
}

func (h *Hdl) GetPaste(w http.ResponseWriter, r *http.Request) {
	log := hlog.FromRequest(r)
	requestID := util.GetRequestID(r.Context())
	id := chi.URLParam(r, "id")
	paste, err := h.paste.Get(r.Context(), id)
	if err != nil {
		log.Warn().Err(err).Str("paste_id", id).Msg("get failed")
		writeErr(w, err, requestID)
		return
	}
	json.NewEncoder(w).Encode(paste)
}

func (h *Hdl) GetRaw(w http.ResponseWriter, r *http.Request) {
	log := hlog.FromRequest(r)
	id := chi.URLParam(r, "id")
	content, err := h.paste.RawContent(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrPasteNotFound) {
			http.Error(w, "Not found", http.StatusNotFound)
			return
		}
		log.Error().Err(err).Str("paste_id", id).Msg("raw fetch failed")
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	io.WriteString(w, content)
}

// IsOwner never fails: any error on the way resolves to owner=false, since
// a negative answer is always safe.
func (h *Hdl) IsOwner(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req tokenReq
	_ = h.decodeJSON(w, r, &req)
	token := resolveToken(r, req.Token, true)
	owner := h.paste.IsOwner(r.Context(), id, token)
	json.NewEncoder(w).Encode(map[string]bool{"owner": owner})
}

func (h *Hdl) EditPaste(w http.ResponseWriter, r *http.Request) {
	log := hlog.FromRequest(r)
	requestID := util.GetRequestID(r.Context())
	id := chi.URLParam(r, "id")
	var req editReq
	if err := h.decodeJSON(w, r, &req); err != nil {
		log.Warn().Err(err).Msg("invalid edit request")
		writeErr(w, err, requestID)
		return
	}
	token := resolveToken(r, req.Token, false)
	if err := h.paste.Edit(r.Context(), id, req.Title, req.Content, token); err != nil {
		if errors.Is(err, domain.ErrNotOwner) {
			log.Warn().
				Str("paste_id", id).
				Str("client_ip", util.RedactIP(r.RemoteAddr)).
				Msg("edit with wrong token")
		} else {
			log.Warn().Err(err).Str("paste_id", id).Msg("edit failed")
		}
		writeErr(w, err, requestID)
		return
	}
	log.Info().Str("paste_id", id).Msg("paste updated by owner")
	json.NewEncoder(w).Encode(map[string]bool{"ok": true})
}

func (h *Hdl) Profile(w http.ResponseWriter, r *http.Request) {
	log := hlog.FromRequest(r)
	requestID := util.GetRequestID(r.Context())
	var req tokenReq
	_ = h.decodeJSON(w, r, &req)
	token := resolveToken(r, req.Token, false)
	summaries, err := h.paste.ListByOwner(r.Context(), token)
	if err != nil {
		log.Warn().Err(err).Msg("profile listing failed")
		writeErr(w, err, requestID)
		return
	}
	json.NewEncoder(w).Encode(map[string]interface{}{"results": summaries})
}

func writeErr(w http.ResponseWriter, err error, requestID string) {
	statusCode := domain.Status(err)
	errorMsg := domain.ToResp(err).Error.Msg
	if statusCode >= 500 {
		errorMsg = "internal server error"
		util.Error().
			Err(err).
			Str("request_id", requestID).
			Msg("internal error with detailed info")
	}
	if w.Header().Get("Content-Type") == "" {
		w.Header().Set("Content-Type", "application/json")
	}
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(map[string]string{
		"error":      errorMsg,
		"request_id": requestID,
	})
}
