package host

import "encoding/json"

// JSONRPCVersion is the JSON-RPC protocol version.
const JSONRPCVersion = "2.0"

// JSONRPCRequest is a JSON-RPC 2.0 request envelope. A request without an ID
// is a notification; host events travel as notifications.
type JSONRPCRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      any             `json:"id,omitempty"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// JSONRPCResponse is a JSON-RPC 2.0 response envelope.
type JSONRPCResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      any             `json:"id,omitempty"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *JSONRPCError   `json:"error,omitempty"`
}

// JSONRPCError is a JSON-RPC 2.0 error object.
type JSONRPCError struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Standard JSON-RPC error codes.
const (
	ErrCodeParse          = -32700
	ErrCodeInvalidRequest = -32600
	ErrCodeMethodNotFound = -32601
	ErrCodeInvalidParams  = -32602
	ErrCodeInternal       = -32603

	// Workspace-specific error codes.
	ErrCodeEntryNotFound = -32001
)

// Plugin -> host methods.
const (
	MethodListEntries   = "workspace/list"
	MethodFetchEntries  = "workspace/fetch"
	MethodAddEntries    = "workspace/add"
	MethodRemoveEntries = "workspace/remove"
	MethodNotify        = "ui/notify"
	MethodSetListButton = "ui/setListButton"
	MethodUpdateMenu    = "ui/updateMenu"
	MethodTrigger       = "dev/trigger"
)

// Host -> plugin event methods.
const (
	EventRun              = "plugin/run"
	EventAdvancedSettings = "plugin/advancedSettings"
	EventSettingsToggled  = "plugin/settingsToggled"
)
