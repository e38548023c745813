package lsp

import "encoding/json"

// JSON-RPC 2.0 envelopes, matching the shape the teacher's
// validation.LSPRequest/LSPResponse/LSPNotification use, but with an id
// that can round-trip either an integer or a string (spec §4.4.3).

// Request is an outbound JSON-RPC request.
type Request struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      int64       `json:"id"`
	Method  string      `json:"method"`
	Params  interface{} `json:"params,omitempty"`
}

// Notification is an outbound or inbound JSON-RPC notification.
type Notification struct {
	JSONRPC string          `json:"jsonrpc"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// RawID preserves whichever JSON shape (number or string) an id arrived
// in, so responses can echo it back unchanged (spec §4.4.3).
type RawID struct {
	raw json.RawMessage
}

func (r *RawID) UnmarshalJSON(data []byte) error {
	r.raw = append(json.RawMessage(nil), data...)
	return nil
}

func (r RawID) MarshalJSON() ([]byte, error) {
	if r.raw == nil {
		return []byte("null"), nil
	}
	return r.raw, nil
}

// Envelope is a loosely-typed inbound message used to classify frames as
// responses (has "id" and one of result/error), requests (has "id" and
// "method"), or notifications (has "method", no "id").
type Envelope struct {
	ID     *RawID          `json:"id,omitempty"`
	Method string          `json:"method,omitempty"`
	Params json.RawMessage `json:"params,omitempty"`
	Result json.RawMessage `json:"result,omitempty"`
	Error  *ResponseError  `json:"error,omitempty"`
}

// ResponseError is a JSON-RPC error object.
type ResponseError struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// MethodNotFound is the JSON-RPC error code spec §4.4.5 treats specially.
const MethodNotFound = -32601

// Position is a 0-based UTF-16-code-unit LSP position (spec §3).
type Position struct {
	Line      int `json:"line"`
	Character int `json:"character"`
}

// Range is a half-open [Start, End) LSP range.
type Range struct {
	Start Position `json:"start"`
	End   Position `json:"end"`
}

// Location pairs a document URI with a range inside it.
type Location struct {
	URI   string `json:"uri"`
	Range Range  `json:"range"`
}

// LocationLink is the alternate shape `textDocument/definition` may
// return, carrying target selection/full ranges (spec §4.4.6).
type LocationLink struct {
	TargetURI            string `json:"targetUri"`
	TargetRange          *Range `json:"targetRange,omitempty"`
	TargetSelectionRange *Range `json:"targetSelectionRange,omitempty"`
}

// Diagnostic mirrors the teacher's LSPDiagnostic, trimmed to the fields
// this client consumes.
type Diagnostic struct {
	Range    Range  `json:"range"`
	Severity *int   `json:"severity,omitempty"`
	Message  string `json:"message"`
}

// PublishDiagnosticsParams is the payload of a publishDiagnostics
// notification.
type PublishDiagnosticsParams struct {
	URI         string       `json:"uri"`
	Version     *int         `json:"version,omitempty"`
	Diagnostics []Diagnostic `json:"diagnostics"`
}

// WorkspaceFolder identifies a root folder advertised to the server.
type WorkspaceFolder struct {
	URI  string `json:"uri"`
	Name string `json:"name"`
}

// InitializeParams is the request body sent on startup (spec §4.4.1/4.4.2).
type InitializeParams struct {
	ProcessID             *int               `json:"processId"`
	RootURI               *string            `json:"rootUri"`
	Capabilities          ClientCapabilities `json:"capabilities"`
	WorkspaceFolders       []WorkspaceFolder `json:"workspaceFolders,omitempty"`
}

// ClientCapabilities advertises the subset spec §4.4.2 requires.
type ClientCapabilities struct {
	Workspace    WorkspaceClientCapabilities    `json:"workspace"`
	TextDocument TextDocumentClientCapabilities `json:"textDocument"`
}

type WorkspaceClientCapabilities struct {
	Configuration    bool `json:"configuration"`
	WorkspaceFolders bool `json:"workspaceFolders"`
}

type TextDocumentClientCapabilities struct {
	PublishDiagnostics PublishDiagnosticsCapabilities      `json:"publishDiagnostics"`
	Synchronization    TextDocumentSyncClientCapabilities  `json:"synchronization"`
}

type PublishDiagnosticsCapabilities struct{}

type TextDocumentSyncClientCapabilities struct {
	DidSave bool `json:"didSave"`
}

// ServerCapabilities is the subset of the initialize response this client
// parses (spec §4.4.2): sync mode and the four feature provider flags.
type ServerCapabilities struct {
	TextDocumentSync   json.RawMessage `json:"textDocumentSync,omitempty"`
	CompletionProvider json.RawMessage `json:"completionProvider,omitempty"`
	HoverProvider      json.RawMessage `json:"hoverProvider,omitempty"`
	DefinitionProvider json.RawMessage `json:"definitionProvider,omitempty"`
	ReferencesProvider json.RawMessage `json:"referencesProvider,omitempty"`
}

// InitializeResult wraps the parsed capabilities.
type InitializeResult struct {
	Capabilities ServerCapabilities `json:"capabilities"`
}

// TextDocumentItem is the payload of didOpen.
type TextDocumentItem struct {
	URI        string `json:"uri"`
	LanguageID string `json:"languageId"`
	Version    int    `json:"version"`
	Text       string `json:"text"`
}

// DidOpenParams wraps a TextDocumentItem.
type DidOpenParams struct {
	TextDocument TextDocumentItem `json:"textDocument"`
}

// VersionedTextDocumentIdentifier identifies a document at a version.
type VersionedTextDocumentIdentifier struct {
	URI     string `json:"uri"`
	Version int64  `json:"version"`
}

// TextDocumentContentChangeEvent is one entry of didChange's
// contentChanges array: either `{text}` (full) or `{range, text}`
// (incremental), per spec §4.4.4.
type TextDocumentContentChangeEvent struct {
	Range *Range `json:"range,omitempty"`
	Text  string `json:"text"`
}

// DidChangeParams wraps a single content-change entry (spec §4.4.4 sends
// exactly one per notification).
type DidChangeParams struct {
	TextDocument   VersionedTextDocumentIdentifier  `json:"textDocument"`
	ContentChanges []TextDocumentContentChangeEvent `json:"contentChanges"`
}

// TextDocumentIdentifier identifies a document without a version.
type TextDocumentIdentifier struct {
	URI string `json:"uri"`
}

// DidSaveParams is the payload of didSave.
type DidSaveParams struct {
	TextDocument TextDocumentIdentifier `json:"textDocument"`
}

// DidCloseParams is the payload of didClose.
type DidCloseParams struct {
	TextDocument TextDocumentIdentifier `json:"textDocument"`
}

// CompletionContext carries the trigger kind (spec §4.4.6: always 1, a
// user-invoked completion).
type CompletionContext struct {
	TriggerKind int `json:"triggerKind"`
}

// CompletionParams is the request body for textDocument/completion.
type CompletionParams struct {
	TextDocument TextDocumentIdentifier `json:"textDocument"`
	Position     Position               `json:"position"`
	Context      CompletionContext      `json:"context"`
}

// TextEditRange is the `{replace, insert}` pair some servers return
// instead of a bare `range` on a completion item's textEdit.
type TextEditRange struct {
	Replace *Range `json:"replace,omitempty"`
	Insert  *Range `json:"insert,omitempty"`
}

// RawCompletionItem is the on-wire shape; Range/InsertText are parsed
// loosely since `textEdit` may be either shape (spec §4.4.6).
type RawCompletionItem struct {
	Label         string          `json:"label"`
	InsertText    string          `json:"insertText,omitempty"`
	TextEditRange json.RawMessage `json:"textEdit,omitempty"`
}

// RawCompletionList and the bare-array alternative are both accepted on
// the wire; normalizeCompletion (features.go) turns them into []CompletionItem.
type RawCompletionList struct {
	Items []RawCompletionItem `json:"items"`
}

// CompletionItem is the normalized, UI-facing shape (spec §3).
type CompletionItem struct {
	Label       string
	InsertText  string
	HasTextEdit bool
	EditStart   Position
	EditEnd     Position
}

// HoverParams is the request body for textDocument/hover.
type HoverParams struct {
	TextDocument TextDocumentIdentifier `json:"textDocument"`
	Position     Position               `json:"position"`
}

// DefinitionParams and ReferenceParams share the same position-targeting
// shape; References additionally carries a context flag.
type DefinitionParams struct {
	TextDocument TextDocumentIdentifier `json:"textDocument"`
	Position     Position               `json:"position"`
}

type ReferenceContext struct {
	IncludeDeclaration bool `json:"includeDeclaration"`
}

type ReferenceParams struct {
	TextDocument TextDocumentIdentifier `json:"textDocument"`
	Position     Position               `json:"position"`
	Context      ReferenceContext       `json:"context"`
}

// DocumentDiagnosticParams is the request body for the pull-diagnostics
// request textDocument/diagnostic (spec §4.4.5).
type DocumentDiagnosticParams struct {
	TextDocument TextDocumentIdentifier `json:"textDocument"`
}

// FullDocumentDiagnosticReport is the object-shaped pull-diagnostics
// response; the bare-array shape is also accepted (spec §4.4.5).
type FullDocumentDiagnosticReport struct {
	Items []Diagnostic `json:"items"`
}

// ConfigurationParams is the params of a server-to-client
// workspace/configuration request; only Items' length matters (spec
// §4.4.3: reply with an array of null of the same length).
type ConfigurationParams struct {
	Items []json.RawMessage `json:"items"`
}
