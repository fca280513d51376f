// Package api exposes the credential store over a small JSON HTTP
// surface: status, password verification issuing envelope tokens, and
// token validation against live account state.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/andrebq/lockbox/accounts"
	"github.com/andrebq/lockbox/envelope"
	"github.com/andrebq/lockbox/internal/audit"
	"github.com/andrebq/lockbox/internal/logutil"
	"github.com/andrebq/lockbox/internal/throttle"
	"github.com/andrebq/lockbox/license"
	"github.com/julienschmidt/httprouter"
	"github.com/rs/zerolog"
)

type (
	// Token is the payload minted on a successful verification. Valid is
	// informational only, validation always re-checks the live store.
	Token struct {
		Username string `json:"username"`
		Issued   string `json:"issued"`
		Valid    bool   `json:"valid"`
	}

	// Options carries the optional collaborators of the service.
	Options struct {
		// Audit, when set, records every verify/validate outcome.
		Audit *audit.Log
		// Throttle, when set, blocks usernames with too many recent
		// failed verifications.
		Throttle *throttle.Limiter
		// Version is reported by /api/status.
		Version string
	}

	service struct {
		store *accounts.Store
		codec *envelope.Codec
		opts  Options
		log   zerolog.Logger
	}

	credentials struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}

	tokenBody struct {
		Token string `json:"token"`
	}

	verifyResponse struct {
		Success  bool   `json:"success"`
		Message  string `json:"message"`
		Token    string `json:"token,omitempty"`
		Username string `json:"username,omitempty"`
	}

	statusResponse struct {
		Status  string `json:"status"`
		Version string `json:"version"`
	}
)

var errThrottled = errors.New("too many failed attempts, retry later")

// AsHandler builds the HTTP handler for the verification service. The
// context only provides the logger, request handling uses each request's
// own context.
func AsHandler(ctx context.Context, store *accounts.Store, codec *envelope.Codec, opts Options) http.Handler {
	if opts.Version == "" {
		opts.Version = "1.0"
	}
	s := &service{store: store, codec: codec, opts: opts, log: logutil.GetOrDefault(ctx)}
	router := httprouter.New()
	router.HandlerFunc("GET", "/api/status", s.status)
	router.HandlerFunc("POST", "/api/verify", s.verify)
	router.HandlerFunc("POST", "/api/validate_token", s.validateToken)
	return withCORS(router)
}

// withCORS answers any OPTIONS request generically and stamps the open
// allow-origin header on everything else.
func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		if r.Method == http.MethodOptions {
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *service) status(w http.ResponseWriter, r *http.Request) {
	sendJSON(w, statusResponse{Status: "online", Version: s.opts.Version})
}

func (s *service) verify(w http.ResponseWriter, r *http.Request) {
	var creds credentials
	decodeBody(r, &creds)
	if creds.Username == "" || creds.Password == "" {
		s.failVerify(r, creds.Username, accounts.ErrEmptyCredentials)
		sendJSON(w, verifyResponse{Success: false, Message: accounts.ErrEmptyCredentials.Error()})
		return
	}
	if s.opts.Throttle != nil && !s.opts.Throttle.Allow(creds.Username) {
		s.failVerify(r, creds.Username, errThrottled)
		sendJSON(w, verifyResponse{Success: false, Message: errThrottled.Error()})
		return
	}
	if err := s.store.Verify(creds.Username, creds.Password); err != nil {
		if s.opts.Throttle != nil {
			s.opts.Throttle.Failure(creds.Username)
		}
		s.failVerify(r, creds.Username, err)
		sendJSON(w, verifyResponse{Success: false, Message: err.Error()})
		return
	}
	if s.opts.Throttle != nil {
		s.opts.Throttle.Success(creds.Username)
	}
	token, err := s.codec.Encode(Token{
		Username: creds.Username,
		Issued:   time.Now().Format(license.TimeFormat),
		Valid:    true,
	})
	if err != nil {
		s.failVerify(r, creds.Username, err)
		sendJSON(w, verifyResponse{Success: false, Message: "unable to issue token"})
		return
	}
	s.log.Info().Str("username", creds.Username).Msg("Verification succeeded")
	s.record(r.Context(), audit.KindVerify, creds.Username, true, "")
	sendJSON(w, verifyResponse{
		Success:  true,
		Message:  "verification successful",
		Token:    token,
		Username: creds.Username,
	})
}

func (s *service) validateToken(w http.ResponseWriter, r *http.Request) {
	var body tokenBody
	decodeBody(r, &body)
	if body.Token == "" {
		sendJSON(w, verifyResponse{Success: false, Message: "token must not be empty"})
		return
	}
	var token Token
	if err := s.codec.Decode(body.Token, &token); err != nil {
		s.log.Warn().Msg("Rejected malformed token")
		s.record(r.Context(), audit.KindToken, "", false, "token invalid")
		sendJSON(w, verifyResponse{Success: false, Message: "token invalid"})
		return
	}
	// the token's own valid flag is ignored, only live account state counts
	if err := s.store.Check(token.Username); err != nil {
		s.log.Info().Str("username", token.Username).Str("reason", err.Error()).Msg("Token rejected")
		s.record(r.Context(), audit.KindToken, token.Username, false, err.Error())
		sendJSON(w, verifyResponse{Success: false, Message: err.Error()})
		return
	}
	s.record(r.Context(), audit.KindToken, token.Username, true, "")
	sendJSON(w, verifyResponse{Success: true, Message: "token valid", Username: token.Username})
}

func (s *service) failVerify(r *http.Request, username string, cause error) {
	s.log.Info().Str("username", username).Str("reason", cause.Error()).Msg("Verification failed")
	s.record(r.Context(), audit.KindVerify, username, false, cause.Error())
}

func (s *service) record(ctx context.Context, kind, username string, ok bool, detail string) {
	if s.opts.Audit == nil {
		return
	}
	if err := s.opts.Audit.Record(ctx, kind, username, ok, detail); err != nil {
		s.log.Error().Err(err).Msg("Unable to record audit entry")
	}
}

// decodeBody tolerates empty and malformed bodies, handlers treat missing
// fields as empty values just like missing JSON keys.
func decodeBody(r *http.Request, out interface{}) {
	defer r.Body.Close()
	json.NewDecoder(r.Body).Decode(out)
}

func sendJSON(w http.ResponseWriter, body interface{}) {
	buf, err := json.Marshal(body)
	if err != nil {
		http.Error(w, "unable to encode response", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write(buf)
}
