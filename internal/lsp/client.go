package lsp

import (
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// ChangeMode reflects the negotiated textDocument sync mode (spec §3).
type ChangeMode int

const (
	ChangeFull ChangeMode = iota
	ChangeIncremental
)

const (
	featureTimeout   = 1500 * time.Millisecond
	maxOpenFileBytes = 32 * 1024 * 1024
	defaultPulseInterval = 64 * time.Millisecond
)

// ErrServerUnavailable is returned when every candidate failed to spawn.
var ErrServerUnavailable = fmt.Errorf("lsp: no server candidate could be started")

// ErrFileTooBig is returned when a file exceeds the LSP-sync cap.
var ErrFileTooBig = fmt.Errorf("lsp: file exceeds 32MiB sync cap")

// ErrCapabilityUnavailable is returned by feature requests when the
// server never advertised the matching capability.
var ErrCapabilityUnavailable = fmt.Errorf("lsp: capability unavailable")

// ErrBusy is returned when a feature request is already in flight.
var ErrBusy = fmt.Errorf("lsp: request already in flight")

// inflight tracks one outstanding request keyed by JSON-RPC id.
type inflight struct {
	method string
	sentAt time.Time
}

// DiagnosticsSnapshot is the summarized diagnostics view spec §3
// describes, published only when it actually changes (spec §4.4.5).
type DiagnosticsSnapshot struct {
	Count        int
	FirstLine    int
	FirstMessage string
	FirstSymbol  string
	Lines        []int
	Rev          uint64
}

// CompletionSnapshot, HoverSnapshot, DefinitionSnapshot, ReferencesSnapshot
// each carry Pending plus a monotone Rev counter and a typed payload
// (spec §3).
type CompletionSnapshot struct {
	Pending bool
	Rev     uint64
	Items   []CompletionItem
}

type HoverSnapshot struct {
	Pending bool
	Rev     uint64
	Text    string
}

type DefinitionSnapshot struct {
	Pending bool
	Rev     uint64
	URI     string
	Pos     Position
}

type ReferencesSnapshot struct {
	Pending bool
	Rev     uint64
	Refs    []Location
}

// Client is the LSP Client State described in spec §3. It is driven
// cooperatively: StartForFile/feature-request methods enqueue work, and Poll
// must be called once per event-loop tick to read responses, expire
// timeouts, and dispatch the trailing didSave pulse.
type Client struct {
	mu sync.Mutex

	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stdout io.ReadCloser
	group  *errgroup.Group

	enabled      bool
	sessionReady bool

	documentURI string
	rootURI     string
	serverName  string // e.g. "typescript", used by the didSave pulse rule

	nextID  int64
	version int64

	changeMode ChangeMode

	supportsCompletion      bool
	supportsHover           bool
	supportsDefinition      bool
	supportsReferences      bool
	supportsPullDiagnostics bool

	initializeID   int64
	diagnosticsID  int64
	completionID   int64
	hoverID        int64
	definitionID   int64
	referencesID   int64
	requests       map[int64]inflight

	pendingOpenText string

	decoder Decoder
	outCh   chan []byte // frames decoded by the background reader goroutine
	errCh   chan error

	diagnostics DiagnosticsSnapshot
	completion  CompletionSnapshot
	hover       HoverSnapshot
	definition  DefinitionSnapshot
	references  ReferencesSnapshot

	didSavePulseInterval time.Duration
	nextDidSavePulseAt   time.Time
	didSavePulseQueued   bool
	tsPrimed             bool

	traceFn func(direction string, payload []byte)
}

// New constructs a disabled client; call StartForFile to launch a server.
func New() *Client {
	return &Client{
		requests:             make(map[int64]inflight),
		didSavePulseInterval: defaultPulseInterval,
	}
}

// SetTrace installs a wire-trace sink matching spec §6's
// LSP_TRACE-equivalent: direction is ">> " for outbound, "<< " for
// inbound; payloads are truncated to 2000 bytes before fn is called.
func (c *Client) SetTrace(fn func(direction string, payload []byte)) {
	c.traceFn = fn
}

func (c *Client) trace(direction string, payload []byte) {
	if c.traceFn == nil {
		return
	}
	if len(payload) > 2000 {
		payload = payload[:2000]
	}
	c.traceFn(direction, payload)
}

// Enabled reports whether the client currently has a live server.
func (c *Client) Enabled() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.enabled
}

// SupportsIncrementalSync reports the negotiated sync mode (used by the
// sync engine, spec §4.5).
func (c *Client) SupportsIncrementalSync() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.enabled && c.sessionReady && c.changeMode == ChangeIncremental
}

// Diagnostics, Completion, Hover, Definition, References return copies of
// the current snapshots.
func (c *Client) Diagnostics() DiagnosticsSnapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.diagnostics
}
func (c *Client) Completion() CompletionSnapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.completion
}
func (c *Client) Hover() HoverSnapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hover
}
func (c *Client) Definition() DefinitionSnapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.definition
}
func (c *Client) References() ReferencesSnapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.references
}

// toFileURI builds a file:// URI with space bytes percent-encoded
// (spec §6).
func toFileURI(absPath string) string {
	escaped := strings.ReplaceAll(absPath, " ", "%20")
	if !strings.HasPrefix(escaped, "/") {
		escaped = "/" + escaped
	}
	return "file://" + filepath.ToSlash(escaped)
}

// StartForFile implements spec §4.4.1: resolve candidates, spawn the
// first that launches, and kick off the initialize handshake.
func (c *Client) StartForFile(path string, adapters []AdapterOverride) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	info, statErr := os.Stat(abs)
	if statErr == nil && info.Size() > maxOpenFileBytes {
		return ErrFileTooBig
	}

	candidates := candidatesForFile(abs, adapters)
	var lastErr error
	for _, cand := range candidates {
		root := findRoot(filepath.Dir(abs), cand.RootMarkers)
		bin := resolveBinary(root, cand.Command)
		cmd := exec.Command(bin, cand.Args...)
		cmd.Dir = root
		cmd.Stderr = nil

		stdin, err := cmd.StdinPipe()
		if err != nil {
			lastErr = err
			continue
		}
		stdout, err := cmd.StdoutPipe()
		if err != nil {
			lastErr = err
			continue
		}
		if err := cmd.Start(); err != nil {
			lastErr = err
			continue
		}

		data, err := os.ReadFile(abs)
		if err != nil {
			data = nil
		}

		c.mu.Lock()
		c.cmd = cmd
		c.stdin = stdin
		c.stdout = stdout
		c.enabled = true
		c.sessionReady = false
		c.serverName = cand.Language
		c.documentURI = toFileURI(abs)
		c.rootURI = toFileURI(root)
		c.pendingOpenText = string(data)
		c.nextID = 1
		c.version = 0
		c.outCh = make(chan []byte, 64)
		c.errCh = make(chan error, 1)
		c.requests = make(map[int64]inflight)
		c.decoder = Decoder{}
		c.mu.Unlock()

		c.group = &errgroup.Group{}
		c.group.Go(func() error { return c.readLoop(stdout) })

		if err := c.sendInitialize(); err != nil {
			c.Stop()
			lastErr = err
			continue
		}
		return nil
	}
	if lastErr == nil {
		lastErr = ErrServerUnavailable
	}
	return fmt.Errorf("%w: %v", ErrServerUnavailable, lastErr)
}

// readLoop is the background goroutine that reads stdout and forwards
// raw bytes for the foreground Poll to decode; spec §5 allows threads
// with channels so long as ordering is preserved, and decoding itself
// (and all state mutation) stays on Poll's single-threaded path.
func (c *Client) readLoop(stdout io.ReadCloser) error {
	buf := make([]byte, 8192)
	for {
		n, err := stdout.Read(buf)
		if n > 0 {
			chunk := append([]byte(nil), buf[:n]...)
			c.outCh <- chunk
		}
		if err != nil {
			c.errCh <- err
			close(c.outCh)
			return err
		}
	}
}

func (c *Client) nextRequestID() int64 {
	id := c.nextID
	c.nextID++
	return id
}

func (c *Client) writeFrame(v interface{}) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return err
	}
	c.trace(">> ", payload)
	_, err = c.stdin.Write(Encode(payload))
	return err
}

// sendRequest marshals and writes a request, recording it as in-flight.
func (c *Client) sendRequest(method string, params interface{}) (int64, error) {
	id := c.nextRequestID()
	req := Request{JSONRPC: "2.0", ID: id, Method: method, Params: params}
	if err := c.writeFrame(req); err != nil {
		return 0, err
	}
	c.requests[id] = inflight{method: method, sentAt: time.Now()}
	return id, nil
}

func (c *Client) sendNotification(method string, params interface{}) error {
	raw, err := json.Marshal(params)
	if err != nil {
		return err
	}
	note := struct {
		JSONRPC string          `json:"jsonrpc"`
		Method  string          `json:"method"`
		Params  json.RawMessage `json:"params"`
	}{"2.0", method, raw}
	return c.writeFrame(note)
}

func (c *Client) respondResult(id *RawID, result interface{}) error {
	resp := struct {
		JSONRPC string      `json:"jsonrpc"`
		ID      *RawID      `json:"id"`
		Result  interface{} `json:"result"`
	}{"2.0", id, result}
	return c.writeFrame(resp)
}

// sendInitialize kicks off the handshake (spec §4.4.1 step 7 / §4.4.2).
func (c *Client) sendInitialize() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	pid := os.Getpid()
	root := c.rootURI
	params := InitializeParams{
		ProcessID: &pid,
		RootURI:   &root,
		Capabilities: ClientCapabilities{
			Workspace: WorkspaceClientCapabilities{
				Configuration:    true,
				WorkspaceFolders: true,
			},
			TextDocument: TextDocumentClientCapabilities{
				Synchronization: TextDocumentSyncClientCapabilities{DidSave: true},
			},
		},
		WorkspaceFolders: []WorkspaceFolder{{URI: c.rootURI, Name: filepath.Base(strings.TrimPrefix(c.rootURI, "file://"))}},
	}
	id, err := c.sendRequest("initialize", params)
	if err != nil {
		return err
	}
	c.initializeID = id
	return nil
}

// Stop kills the child process and resets state, per spec §4.4.9 /
// §7: the UI is left to reset its own panels; this just tears down the
// transport and marks the client disabled.
func (c *Client) Stop() {
	c.mu.Lock()
	cmd := c.cmd
	c.enabled = false
	c.sessionReady = false
	c.cmd = nil
	c.stdin = nil
	c.stdout = nil
	c.completion = CompletionSnapshot{}
	c.hover = HoverSnapshot{}
	c.definition = DefinitionSnapshot{}
	c.references = ReferencesSnapshot{}
	c.requests = make(map[int64]inflight)
	c.mu.Unlock()

	if cmd != nil && cmd.Process != nil {
		_ = cmd.Process.Kill()
		_ = cmd.Wait()
	}
}

// Poll drains decoded frames and advances timers; call once per event
// loop tick (spec §4.4.7).
func (c *Client) Poll() {
	c.mu.Lock()
	if !c.enabled {
		c.mu.Unlock()
		return
	}
	c.mu.Unlock()

	c.drainErrors()
	c.drainFrames()
	c.expireTimeouts()
	c.dispatchDueDidSavePulse()
}

func (c *Client) drainErrors() {
	select {
	case err := <-c.errCh:
		if err != nil {
			c.Stop()
		}
	default:
	}
}

func (c *Client) drainFrames() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.enabled {
		return
	}
	for {
		select {
		case chunk, ok := <-c.outCh:
			if !ok {
				c.enabled = false
				return
			}
			c.decoder.Feed(chunk)
		default:
			goto decode
		}
	}
decode:
	for _, payload := range c.decoder.DecodeAll() {
		c.trace("<< ", payload)
		c.handleFrame(payload)
	}
}

func (c *Client) handleFrame(payload []byte) {
	var env Envelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return
	}
	switch {
	case env.ID != nil && env.Method != "":
		c.handleServerRequest(env)
	case env.ID != nil:
		c.handleResponse(env)
	case env.Method != "":
		c.handleNotification(env)
	}
}

func (c *Client) handleServerRequest(env Envelope) {
	switch env.Method {
	case "workspace/configuration":
		var params ConfigurationParams
		_ = json.Unmarshal(env.Params, &params)
		result := make([]interface{}, len(params.Items))
		_ = c.respondResult(env.ID, result)
		if !c.tsPrimed && c.serverName == "typescript" {
			c.tsPrimed = true
			_ = c.doDidSave()
		}
	case "workspace/workspaceFolders":
		_ = c.respondResult(env.ID, []interface{}{})
	default:
		_ = c.respondResult(env.ID, nil)
	}
}

func (c *Client) handleNotification(env Envelope) {
	if env.Method != "textDocument/publishDiagnostics" {
		return
	}
	var params PublishDiagnosticsParams
	if err := json.Unmarshal(env.Params, &params); err != nil {
		return
	}
	if !strings.EqualFold(params.URI, c.documentURI) {
		return
	}
	c.applyDiagnostics(params.Diagnostics)
}

func (c *Client) handleResponse(env Envelope) {
	var id int64
	_ = json.Unmarshal(env.ID.raw, &id)
	req, ok := c.requests[id]
	if !ok {
		return
	}
	delete(c.requests, id)

	switch {
	case id == c.initializeID:
		c.handleInitializeResult(env)
	case id == c.diagnosticsID:
		c.handleDiagnosticsResult(env)
	case id == c.completionID:
		c.handleCompletionResult(env)
	case id == c.hoverID:
		c.handleHoverResult(env)
	case id == c.definitionID:
		c.handleDefinitionResult(env)
	case id == c.referencesID:
		c.handleReferencesResult(env)
	}
	_ = req
}

func (c *Client) handleInitializeResult(env Envelope) {
	if env.Error != nil {
		c.Stop()
		return
	}
	var result InitializeResult
	if err := json.Unmarshal(env.Result, &result); err != nil {
		c.Stop()
		return
	}
	c.changeMode = parseSyncMode(result.Capabilities.TextDocumentSync)
	c.supportsCompletion = providerPresent(result.Capabilities.CompletionProvider)
	c.supportsHover = providerPresent(result.Capabilities.HoverProvider)
	c.supportsDefinition = providerPresent(result.Capabilities.DefinitionProvider)
	c.supportsReferences = providerPresent(result.Capabilities.ReferencesProvider)
	c.supportsPullDiagnostics = true
	c.sessionReady = true

	_ = c.sendNotification("initialized", struct{}{})
	c.replayOpen()
}

// parseSyncMode implements spec §4.4.2: the integer 2, or an object whose
// change field is 2, selects incremental; anything else is full.
func parseSyncMode(raw json.RawMessage) ChangeMode {
	if len(raw) == 0 {
		return ChangeFull
	}
	var asInt int
	if err := json.Unmarshal(raw, &asInt); err == nil {
		if asInt == 2 {
			return ChangeIncremental
		}
		return ChangeFull
	}
	var obj struct {
		Change int `json:"change"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil && obj.Change == 2 {
		return ChangeIncremental
	}
	return ChangeFull
}

// providerPresent implements spec §4.4.2: present-and-not-false counts,
// whether it's a bare `true` or an options object.
func providerPresent(raw json.RawMessage) bool {
	if len(raw) == 0 {
		return false
	}
	var asBool bool
	if err := json.Unmarshal(raw, &asBool); err == nil {
		return asBool
	}
	return true // any non-boolean JSON value (object) counts as present
}

// replayOpen sends didOpen with the stashed pending_open_text, plus the
// TypeScript quirk didChange immediately after (spec §4.4.2, flagged as
// an open question implementers may remove once upstream is fixed).
func (c *Client) replayOpen() {
	text := c.pendingOpenText
	_ = c.sendNotification("textDocument/didOpen", DidOpenParams{
		TextDocument: TextDocumentItem{
			URI: c.documentURI, LanguageID: c.serverName, Version: 0, Text: text,
		},
	})
	if c.serverName == "typescript" {
		c.version++
		_ = c.sendNotification("textDocument/didChange", DidChangeParams{
			TextDocument:   VersionedTextDocumentIdentifier{URI: c.documentURI, Version: c.version},
			ContentChanges: []TextDocumentContentChangeEvent{{Text: text}},
		})
	}
	c.requestPullDiagnostics()
}

// DidChange implements spec §4.4.4's full-text path.
func (c *Client) DidChange(fullText string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.enabled {
		return
	}
	if !c.sessionReady {
		c.pendingOpenText = fullText
		return
	}
	c.version++
	_ = c.sendNotification("textDocument/didChange", DidChangeParams{
		TextDocument:   VersionedTextDocumentIdentifier{URI: c.documentURI, Version: c.version},
		ContentChanges: []TextDocumentContentChangeEvent{{Text: fullText}},
	})
	c.scheduleDidSavePulse()
	c.requestPullDiagnostics()
}

// DidChangeIncremental implements spec §4.4.4's incremental path; it is a
// caller error to call this when SupportsIncrementalSync() is false, but
// this method is defensive and no-ops in that case rather than sending a
// malformed request.
func (c *Client) DidChangeIncremental(rng Range, text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.enabled || !c.sessionReady || c.changeMode != ChangeIncremental {
		return
	}
	c.version++
	_ = c.sendNotification("textDocument/didChange", DidChangeParams{
		TextDocument:   VersionedTextDocumentIdentifier{URI: c.documentURI, Version: c.version},
		ContentChanges: []TextDocumentContentChangeEvent{{Range: &rng, Text: text}},
	})
	c.scheduleDidSavePulse()
	c.requestPullDiagnostics()
}

// scheduleDidSavePulse arms the trailing debounce described in spec
// §4.4.4/§4.4.9: only for a TypeScript server, reset on every call.
func (c *Client) scheduleDidSavePulse() {
	if c.serverName != "typescript" {
		return
	}
	c.nextDidSavePulseAt = time.Now().Add(c.didSavePulseInterval)
	c.didSavePulseQueued = true
}

func (c *Client) dispatchDueDidSavePulse() {
	c.mu.Lock()
	due := c.didSavePulseQueued && !time.Now().Before(c.nextDidSavePulseAt)
	c.mu.Unlock()
	if !due {
		return
	}
	c.mu.Lock()
	c.didSavePulseQueued = false
	c.mu.Unlock()
	_ = c.doDidSave()
}

// DidSave implements spec §4.4.4: cancels any queued pulse and fires a
// diagnostics request.
func (c *Client) DidSave() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.doDidSave()
}

func (c *Client) doDidSave() error {
	if !c.enabled || !c.sessionReady {
		return nil
	}
	c.didSavePulseQueued = false
	if err := c.sendNotification("textDocument/didSave", DidSaveParams{
		TextDocument: TextDocumentIdentifier{URI: c.documentURI},
	}); err != nil {
		return err
	}
	c.requestPullDiagnostics()
	return nil
}

// requestPullDiagnostics implements spec §4.4.5: fire iff supported and
// nothing is already outstanding.
func (c *Client) requestPullDiagnostics() {
	if !c.supportsPullDiagnostics || c.diagnosticsID != 0 {
		return
	}
	id, err := c.sendRequest("textDocument/diagnostic", DocumentDiagnosticParams{
		TextDocument: TextDocumentIdentifier{URI: c.documentURI},
	})
	if err != nil {
		return
	}
	c.diagnosticsID = id
}

func (c *Client) handleDiagnosticsResult(env Envelope) {
	c.diagnosticsID = 0
	if env.Error != nil {
		if env.Error.Code == MethodNotFound {
			c.supportsPullDiagnostics = false
		}
		return
	}
	var items []Diagnostic
	var asArray []Diagnostic
	if err := json.Unmarshal(env.Result, &asArray); err == nil {
		items = asArray
	} else {
		var report FullDocumentDiagnosticReport
		if err := json.Unmarshal(env.Result, &report); err == nil {
			items = report.Items
		}
	}
	c.applyDiagnostics(items)
}

// applyDiagnostics builds the summary snapshot and bumps Rev only when it
// actually changed (spec §4.4.5, testable property 8).
func (c *Client) applyDiagnostics(items []Diagnostic) {
	count := len(items)
	firstLine := 0
	firstMessage := ""
	firstSymbol := ""
	seen := map[int]bool{}
	var lines []int
	for i, d := range items {
		line := d.Range.Start.Line + 1
		if !seen[line] {
			seen[line] = true
			lines = append(lines, line)
		}
		if i == 0 {
			firstLine = line
			firstMessage = truncate(d.Message, 400)
			firstSymbol = extractQuoted(d.Message)
		}
	}

	prev := c.diagnostics
	changed := prev.Count != count ||
		prev.FirstLine != firstLine ||
		prev.FirstMessage != firstMessage ||
		prev.FirstSymbol != firstSymbol ||
		!sameLineSet(prev.Lines, lines)

	next := DiagnosticsSnapshot{
		Count: count, FirstLine: firstLine, FirstMessage: firstMessage,
		FirstSymbol: firstSymbol, Lines: lines, Rev: prev.Rev,
	}
	if changed {
		next.Rev = prev.Rev + 1
	}
	c.diagnostics = next
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

// extractQuoted returns the text between the first pair of single quotes
// in s, or "" if there isn't one (spec §3).
func extractQuoted(s string) string {
	start := strings.IndexByte(s, '\'')
	if start < 0 {
		return ""
	}
	end := strings.IndexByte(s[start+1:], '\'')
	if end < 0 {
		return ""
	}
	return s[start+1 : start+1+end]
}

func sameLineSet(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// expireTimeouts implements spec §4.4.5/§4.4.6/§4.4.9: a request older
// than featureTimeout is silently dropped; diagnostics additionally
// disables pull support.
func (c *Client) expireTimeouts() {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := time.Now()
	for id, req := range c.requests {
		if now.Sub(req.sentAt) < featureTimeout {
			continue
		}
		delete(c.requests, id)
		switch id {
		case c.diagnosticsID:
			c.diagnosticsID = 0
			c.supportsPullDiagnostics = false
		case c.completionID:
			c.completionID = 0
			c.completion.Pending = false
		case c.hoverID:
			c.hoverID = 0
			c.hover.Pending = false
		case c.definitionID:
			c.definitionID = 0
			c.definition.Pending = false
		case c.referencesID:
			c.referencesID = 0
			c.references.Pending = false
		}
	}
}

// PendingRequestCount is an observability helper matching spec §3's
// pending_requests counter.
func (c *Client) PendingRequestCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.requests)
}

// DocumentURI exposes the document URI for callers that need to print
// or compare it (loosely, case-insensitively, per spec §4.4.6).
func (c *Client) DocumentURI() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.documentURI
}

// parseAbsFileURI strips the file:// scheme, used when jumping to a
// definition/reference target (spec §4.4.6).
func parseAbsFileURI(uri string) (string, error) {
	u, err := url.Parse(uri)
	if err != nil {
		return "", err
	}
	if u.Scheme != "file" {
		return "", fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	return u.Path, nil
}
