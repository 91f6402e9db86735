package devhost

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"

	"github.com/dusk-indust/mergeframes/internal/host"
)

// MethodSelect sets the selection flag of entries. It is only served by the
// development host.
const MethodSelect = "dev/select"

// SelectRequest is the params of dev/select.
type SelectRequest struct {
	IDs      []string `json:"ids"`
	Selected bool     `json:"selected"`
}

// TriggerResponse is the result of dev/trigger.
type TriggerResponse struct {
	Delivered int `json:"delivered"`
}

// Server serves a Store through the host protocol.
type Server struct {
	store  *Store
	ui     *uiRecorder
	hub    *hub
	logger *slog.Logger

	http     *http.Server
	listener net.Listener
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the server logger. The default discards output.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		s.logger = l
	}
}

// NewServer creates a Server backed by store.
func NewServer(store *Store, opts ...Option) *Server {
	s := &Server{
		store:  store,
		ui:     newUIRecorder(),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.hub = newHub(s.logger)
	return s
}

// Store returns the backing workspace.
func (s *Server) Store() *Store {
	return s.store
}

// UI returns what plugins have displayed so far.
func (s *Server) UI() UIState {
	return s.ui.snapshot()
}

// Subscribers returns the number of connected event streams.
func (s *Server) Subscribers() int {
	return s.hub.count()
}

// Handler returns the HTTP handler serving JSON-RPC on POST / and the event
// stream on GET /events.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /", s.handleJSONRPC)
	mux.HandleFunc("GET "+host.EventsPath, s.hub.handleEvents)
	return mux
}

// Start listens on addr and begins serving in a background goroutine.
func (s *Server) Start(ctx context.Context, addr string) error {
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("devhost: listen: %w", err)
	}
	s.listener = ln
	s.http = &http.Server{Handler: s.Handler()}

	go func() {
		if err := s.http.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("devhost server stopped", "error", err)
		}
	}()
	s.logger.Info("devhost listening", "addr", ln.Addr().String())
	return nil
}

// Addr returns the listening address once Start has succeeded.
func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Stop closes every event stream and gracefully shuts down the HTTP server.
func (s *Server) Stop(ctx context.Context) error {
	s.hub.closeAll()
	if s.http == nil {
		return nil
	}
	return s.http.Shutdown(ctx)
}

// Trigger sends ev to every subscribed plugin and returns how many received it.
func (s *Server) Trigger(ev host.Event) (int, error) {
	req, err := host.EncodeEvent(ev)
	if err != nil {
		return 0, err
	}
	n := s.hub.broadcast(req)
	s.logger.Info("event triggered", "kind", ev.Kind, "delivered", n)
	return n, nil
}

// handleJSONRPC decodes a JSON-RPC 2.0 request and dispatches it.
func (s *Server) handleJSONRPC(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	var req host.JSONRPCRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONRPCError(w, nil, host.ErrCodeParse, "Parse error: "+err.Error())
		return
	}

	s.logger.Debug("rpc", "method", req.Method)

	switch req.Method {
	case host.MethodListEntries:
		writeJSONRPCResult(w, req.ID, host.ListEntriesResponse{Entries: s.store.List()})
	case host.MethodFetchEntries:
		s.dispatchFetch(w, &req)
	case host.MethodAddEntries:
		s.dispatchAdd(w, &req)
	case host.MethodRemoveEntries:
		s.dispatchRemove(w, &req)
	case host.MethodNotify:
		s.dispatchNotify(w, &req)
	case host.MethodSetListButton:
		s.dispatchSetListButton(w, &req)
	case host.MethodUpdateMenu:
		s.dispatchUpdateMenu(w, &req)
	case host.MethodTrigger:
		s.dispatchTrigger(w, &req)
	case MethodSelect:
		s.dispatchSelect(w, &req)
	default:
		writeJSONRPCError(w, req.ID, host.ErrCodeMethodNotFound, fmt.Sprintf("Method not found: %s", req.Method))
	}
}

func (s *Server) dispatchFetch(w http.ResponseWriter, req *host.JSONRPCRequest) {
	var params host.FetchEntriesRequest
	if !decodeParams(w, req, &params) {
		return
	}
	entries, err := s.store.Fetch(params.IDs)
	if err != nil {
		writeStoreError(w, req.ID, err)
		return
	}
	writeJSONRPCResult(w, req.ID, host.FetchEntriesResponse{Entries: entries})
}

func (s *Server) dispatchAdd(w http.ResponseWriter, req *host.JSONRPCRequest) {
	var params host.AddEntriesRequest
	if !decodeParams(w, req, &params) {
		return
	}
	ids := make([]string, 0, len(params.Entries))
	for _, e := range params.Entries {
		if e == nil {
			writeJSONRPCError(w, req.ID, host.ErrCodeInvalidParams, "Invalid params: null entry")
			return
		}
	}
	for _, e := range params.Entries {
		ids = append(ids, s.store.Add(e, false))
	}
	s.logger.Info("entries added", "ids", ids)
	writeJSONRPCResult(w, req.ID, host.AddEntriesResponse{IDs: ids})
}

func (s *Server) dispatchRemove(w http.ResponseWriter, req *host.JSONRPCRequest) {
	var params host.RemoveEntriesRequest
	if !decodeParams(w, req, &params) {
		return
	}
	if err := s.store.Remove(params.IDs); err != nil {
		writeStoreError(w, req.ID, err)
		return
	}
	s.logger.Info("entries removed", "ids", params.IDs)
	writeJSONRPCResult(w, req.ID, struct{}{})
}

func (s *Server) dispatchNotify(w http.ResponseWriter, req *host.JSONRPCRequest) {
	var params host.NotifyRequest
	if !decodeParams(w, req, &params) {
		return
	}
	id := s.ui.notify(params)
	s.logger.Info("notification", "id", id, "type", params.Type, "message", params.Message)
	writeJSONRPCResult(w, req.ID, struct{}{})
}

func (s *Server) dispatchSetListButton(w http.ResponseWriter, req *host.JSONRPCRequest) {
	var params host.SetListButtonRequest
	if !decodeParams(w, req, &params) {
		return
	}
	s.ui.setButton(params.Button, params.Label)
	writeJSONRPCResult(w, req.ID, struct{}{})
}

func (s *Server) dispatchUpdateMenu(w http.ResponseWriter, req *host.JSONRPCRequest) {
	var params host.UpdateMenuRequest
	if !decodeParams(w, req, &params) {
		return
	}
	s.ui.setMenu(params.Menu)
	writeJSONRPCResult(w, req.ID, struct{}{})
}

func (s *Server) dispatchTrigger(w http.ResponseWriter, req *host.JSONRPCRequest) {
	var params host.TriggerRequest
	if !decodeParams(w, req, &params) {
		return
	}
	n, err := s.Trigger(params.Event)
	if err != nil {
		writeJSONRPCError(w, req.ID, host.ErrCodeInvalidParams, "Invalid params: "+err.Error())
		return
	}
	writeJSONRPCResult(w, req.ID, TriggerResponse{Delivered: n})
}

func (s *Server) dispatchSelect(w http.ResponseWriter, req *host.JSONRPCRequest) {
	var params SelectRequest
	if !decodeParams(w, req, &params) {
		return
	}
	if err := s.store.Select(params.IDs, params.Selected); err != nil {
		writeStoreError(w, req.ID, err)
		return
	}
	writeJSONRPCResult(w, req.ID, struct{}{})
}

// decodeParams unmarshals the request params into v, writing an
// invalid-params error and returning false on failure.
func decodeParams(w http.ResponseWriter, req *host.JSONRPCRequest, v any) bool {
	if err := json.Unmarshal(req.Params, v); err != nil {
		writeJSONRPCError(w, req.ID, host.ErrCodeInvalidParams, "Invalid params: "+err.Error())
		return false
	}
	return true
}

func writeStoreError(w http.ResponseWriter, id any, err error) {
	code := host.ErrCodeInternal
	if errors.Is(err, ErrEntryNotFound) {
		code = host.ErrCodeEntryNotFound
	}
	writeJSONRPCError(w, id, code, err.Error())
}

// writeJSONRPCResult writes a successful JSON-RPC response.
func writeJSONRPCResult(w http.ResponseWriter, id any, result any) {
	data, err := json.Marshal(result)
	if err != nil {
		writeJSONRPCError(w, id, host.ErrCodeInternal, "Failed to marshal result: "+err.Error())
		return
	}

	resp := host.JSONRPCResponse{
		JSONRPC: host.JSONRPCVersion,
		ID:      id,
		Result:  data,
	}

	json.NewEncoder(w).Encode(resp)
}

// writeJSONRPCError writes a JSON-RPC error response.
func writeJSONRPCError(w http.ResponseWriter, id any, code int, message string) {
	resp := host.JSONRPCResponse{
		JSONRPC: host.JSONRPCVersion,
		ID:      id,
		Error: &host.JSONRPCError{
			Code:    code,
			Message: message,
		},
	}

	json.NewEncoder(w).Encode(resp)
}
