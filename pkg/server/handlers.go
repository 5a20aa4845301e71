package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"mercator-hq/matchgram/pkg/message"
	"mercator-hq/matchgram/pkg/rule"
	rerrors "mercator-hq/matchgram/pkg/rule/errors"
	"mercator-hq/matchgram/pkg/ruleset"
)

// Evidence source names for verdicts produced by the server.
const (
	SourceHTTP      = "http"
	SourceWebSocket = "websocket"
)

// CompileRequest is the body of POST /v1/compile.
type CompileRequest struct {
	Rule string `json:"rule"`
}

// Diagnostic is a compile error rendered for API clients.
type Diagnostic struct {
	Kind       string `json:"kind"`
	Category   string `json:"category"`
	Column     int    `json:"column,omitempty"`
	Message    string `json:"message"`
	Suggestion string `json:"suggestion,omitempty"`
	Rendered   string `json:"rendered"`
}

// CompileResponse reports whether a rule compiles. Normalized is the rule
// as the compiler understood it.
type CompileResponse struct {
	Valid       bool         `json:"valid"`
	Groups      int          `json:"groups,omitempty"`
	Normalized  string       `json:"normalized,omitempty"`
	Diagnostics []Diagnostic `json:"diagnostics,omitempty"`
}

// MatchRequest is the body of POST /v1/match. With Rule set only that rule
// is evaluated; otherwise the loaded rule sets are.
type MatchRequest struct {
	Rule    string          `json:"rule,omitempty"`
	Message json.RawMessage `json:"message"`
}

// RuleMatchResponse is the result of matching a single ad-hoc rule.
type RuleMatchResponse struct {
	Matched bool `json:"matched"`
	Group   int  `json:"group"`
}

// RuleInfo describes a loaded rule.
type RuleInfo struct {
	ID      string   `json:"id"`
	Set     string   `json:"set"`
	Name    string   `json:"name"`
	Action  string   `json:"action,omitempty"`
	Tags    []string `json:"tags,omitempty"`
	Enabled bool     `json:"enabled"`
	Rule    string   `json:"rule"`
	Path    string   `json:"path"`
	Line    int      `json:"line"`
}

// RulesResponse is the body of GET /v1/rules.
type RulesResponse struct {
	Status ruleset.Status `json:"status"`
	Rules  []RuleInfo     `json:"rules"`
}

func (s *Server) handleCompile(w http.ResponseWriter, r *http.Request) {
	var req CompileRequest
	if !s.decodeBody(w, r, &req) {
		return
	}

	m, err := s.compile(req.Rule)
	if err != nil {
		var rerr *rerrors.Error
		if !errors.As(err, &rerr) {
			writeError(w, http.StatusInternalServerError, "compile_failed", err.Error())
			return
		}
		writeJSON(w, http.StatusOK, CompileResponse{Diagnostics: []Diagnostic{diagnostic(rerr)}})
		return
	}
	writeJSON(w, http.StatusOK, CompileResponse{
		Valid:      true,
		Groups:     len(m.Groups()),
		Normalized: m.String(),
	})
}

func (s *Server) handleMatch(w http.ResponseWriter, r *http.Request) {
	var req MatchRequest
	if !s.decodeBody(w, r, &req) {
		return
	}
	if len(req.Message) == 0 {
		writeError(w, http.StatusBadRequest, "invalid_request", "message is required")
		return
	}

	msg, err := s.decodeMessage(req.Message)
	if err != nil {
		writeMessageError(w, err)
		return
	}

	if req.Rule != "" {
		m, err := s.compile(req.Rule)
		if err != nil {
			var rerr *rerrors.Error
			if errors.As(err, &rerr) {
				writeError(w, http.StatusUnprocessableEntity, rerr.Kind.String(), err.Error(), rerrors.Format(rerr))
				return
			}
			writeError(w, http.StatusUnprocessableEntity, "compile_failed", err.Error())
			return
		}
		group, err := m.MatchGroup(msg)
		if err != nil {
			writeError(w, http.StatusUnprocessableEntity, rerrors.KindOf(err).String(), err.Error())
			return
		}
		writeJSON(w, http.StatusOK, RuleMatchResponse{Matched: group >= 0, Group: group})
		return
	}

	verdict := s.manager.Evaluate(r.Context(), msg)
	s.record(r, SourceHTTP, msg, verdict)
	writeJSON(w, http.StatusOK, verdict)
}

func (s *Server) handleRules(w http.ResponseWriter, r *http.Request) {
	rules := s.manager.Rules()
	resp := RulesResponse{
		Status: s.manager.Status(),
		Rules:  make([]RuleInfo, 0, len(rules)),
	}
	for _, cr := range rules {
		resp.Rules = append(resp.Rules, RuleInfo{
			ID:      cr.ID(),
			Set:     cr.Set,
			Name:    cr.Name,
			Action:  cr.Action,
			Tags:    cr.Tags,
			Enabled: cr.Enabled,
			Rule:    cr.Text,
			Path:    cr.Path,
			Line:    cr.Line,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) compile(text string) (*rule.Matcher, error) {
	return ruleset.Compile(text, s.manager.Fields(), s.metrics, "request")
}

func (s *Server) decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	body := http.MaxBytesReader(w, r.Body, s.cfg.MaxBodyBytes)
	data, err := io.ReadAll(body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "body_too_large", err.Error())
			return false
		}
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return false
	}
	if err := json.Unmarshal(data, v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return false
	}
	return true
}

func (s *Server) decodeMessage(data []byte) (*message.Message, error) {
	if s.validator != nil {
		return s.validator.DecodeValid(data)
	}
	return message.Decode(data)
}

func (s *Server) record(r *http.Request, source string, msg *message.Message, v *ruleset.Verdict) {
	if s.recorder == nil {
		return
	}
	if err := s.recorder.RecordVerdict(r.Context(), source, msg, v); err != nil {
		s.logger.WarnContext(r.Context(), "Failed to record evidence", "error", err)
	}
}

func writeMessageError(w http.ResponseWriter, err error) {
	var verr *message.ValidationError
	if errors.As(err, &verr) {
		writeError(w, http.StatusBadRequest, "invalid_message", "message does not match the schema", verr.Violations...)
		return
	}
	writeError(w, http.StatusBadRequest, "invalid_message", err.Error())
}

func diagnostic(e *rerrors.Error) Diagnostic {
	return Diagnostic{
		Kind:       e.Kind.String(),
		Category:   string(e.Kind.Category()),
		Column:     e.Column,
		Message:    e.Error(),
		Suggestion: e.Suggestion,
		Rendered:   rerrors.Format(e),
	}
}
