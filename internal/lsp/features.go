package lsp

import "encoding/json"

// maxCompletionItems bounds how many items normalizeCompletion keeps
// (spec §4.4.6).
const maxCompletionItems = 64

// RequestCompletion implements spec §4.4.6: at most one in-flight
// completion request; fails fast if the capability is absent or another
// request is already outstanding.
func (c *Client) RequestCompletion(pos Position) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.supportsCompletion {
		return ErrCapabilityUnavailable
	}
	if c.completionID != 0 {
		return ErrBusy
	}
	id, err := c.sendRequest("textDocument/completion", CompletionParams{
		TextDocument: TextDocumentIdentifier{URI: c.documentURI},
		Position:     pos,
		Context:      CompletionContext{TriggerKind: 1},
	})
	if err != nil {
		return err
	}
	c.completionID = id
	c.completion.Pending = true
	return nil
}

func (c *Client) handleCompletionResult(env Envelope) {
	c.completionID = 0
	c.completion.Pending = false
	if env.Error != nil {
		return
	}
	items := normalizeCompletion(env.Result)
	c.completion = CompletionSnapshot{Rev: c.completion.Rev + 1, Items: items}
}

// normalizeCompletion accepts either a bare array or a {items: [...]}
// object, and resolves each item's textEdit shape (spec §4.4.6).
func normalizeCompletion(raw json.RawMessage) []CompletionItem {
	var rawItems []RawCompletionItem
	if err := json.Unmarshal(raw, &rawItems); err != nil {
		var list RawCompletionList
		if err := json.Unmarshal(raw, &list); err != nil {
			return nil
		}
		rawItems = list.Items
	}
	if len(rawItems) > maxCompletionItems {
		rawItems = rawItems[:maxCompletionItems]
	}
	out := make([]CompletionItem, 0, len(rawItems))
	for _, ri := range rawItems {
		item := CompletionItem{Label: ri.Label, InsertText: ri.InsertText}
		if item.InsertText == "" {
			item.InsertText = ri.Label
		}
		if rng, ok := parseTextEditRange(ri.TextEditRange); ok {
			item.HasTextEdit = true
			item.EditStart = rng.Start
			item.EditEnd = rng.End
		}
		out = append(out, item)
	}
	return out
}

// parseTextEditRange resolves a textEdit field that may be a bare
// `{range, newText}` edit or a `{replace, insert}` pair, preferring
// replace (spec §4.4.6).
func parseTextEditRange(raw json.RawMessage) (Range, bool) {
	if len(raw) == 0 {
		return Range{}, false
	}
	var bare struct {
		Range Range `json:"range"`
	}
	if err := json.Unmarshal(raw, &bare); err == nil && (bare.Range != Range{}) {
		return bare.Range, true
	}
	var pair TextEditRange
	if err := json.Unmarshal(raw, &pair); err == nil {
		if pair.Replace != nil {
			return *pair.Replace, true
		}
		if pair.Insert != nil {
			return *pair.Insert, true
		}
	}
	return Range{}, false
}

// RequestHover implements spec §4.4.6.
func (c *Client) RequestHover(pos Position) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.supportsHover {
		return ErrCapabilityUnavailable
	}
	if c.hoverID != 0 {
		return ErrBusy
	}
	id, err := c.sendRequest("textDocument/hover", HoverParams{
		TextDocument: TextDocumentIdentifier{URI: c.documentURI},
		Position:     pos,
	})
	if err != nil {
		return err
	}
	c.hoverID = id
	c.hover.Pending = true
	return nil
}

func (c *Client) handleHoverResult(env Envelope) {
	c.hoverID = 0
	c.hover.Pending = false
	if env.Error != nil {
		return
	}
	text := extractHoverText(env.Result)
	c.hover = HoverSnapshot{Rev: c.hover.Rev + 1, Text: text}
}

// extractHoverText implements spec §4.4.6: `result.contents` may be a
// string, an array of strings/{value}, or a single {kind,value}/{value}
// object; the first nonempty string wins.
func extractHoverText(raw json.RawMessage) string {
	var wrapper struct {
		Contents json.RawMessage `json:"contents"`
	}
	if err := json.Unmarshal(raw, &wrapper); err != nil || len(wrapper.Contents) == 0 {
		return ""
	}
	return firstNonemptyContents(wrapper.Contents)
}

func firstNonemptyContents(raw json.RawMessage) string {
	var asString string
	if err := json.Unmarshal(raw, &asString); err == nil {
		return asString
	}
	var asObj struct {
		Value string `json:"value"`
	}
	if err := json.Unmarshal(raw, &asObj); err == nil && asObj.Value != "" {
		return asObj.Value
	}
	var asArray []json.RawMessage
	if err := json.Unmarshal(raw, &asArray); err == nil {
		for _, el := range asArray {
			if s := firstNonemptyContents(el); s != "" {
				return s
			}
		}
	}
	return ""
}

// RequestDefinition implements spec §4.4.6.
func (c *Client) RequestDefinition(pos Position) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.supportsDefinition {
		return ErrCapabilityUnavailable
	}
	if c.definitionID != 0 {
		return ErrBusy
	}
	id, err := c.sendRequest("textDocument/definition", DefinitionParams{
		TextDocument: TextDocumentIdentifier{URI: c.documentURI},
		Position:     pos,
	})
	if err != nil {
		return err
	}
	c.definitionID = id
	c.definition.Pending = true
	return nil
}

func (c *Client) handleDefinitionResult(env Envelope) {
	c.definitionID = 0
	c.definition.Pending = false
	if env.Error != nil {
		return
	}
	uri, pos, ok := extractFirstDefinition(env.Result)
	if !ok {
		return
	}
	c.definition = DefinitionSnapshot{Rev: c.definition.Rev + 1, URI: uri, Pos: pos}
}

// extractFirstDefinition implements spec §4.4.6: accepts an array or a
// single value, of either Location or LocationLink shape.
func extractFirstDefinition(raw json.RawMessage) (string, Position, bool) {
	var arr []json.RawMessage
	if err := json.Unmarshal(raw, &arr); err == nil {
		if len(arr) == 0 {
			return "", Position{}, false
		}
		return extractOneDefinition(arr[0])
	}
	return extractOneDefinition(raw)
}

func extractOneDefinition(raw json.RawMessage) (string, Position, bool) {
	var loc Location
	if err := json.Unmarshal(raw, &loc); err == nil && loc.URI != "" {
		return loc.URI, loc.Range.Start, true
	}
	var link LocationLink
	if err := json.Unmarshal(raw, &link); err == nil && link.TargetURI != "" {
		if link.TargetSelectionRange != nil {
			return link.TargetURI, link.TargetSelectionRange.Start, true
		}
		if link.TargetRange != nil {
			return link.TargetURI, link.TargetRange.Start, true
		}
	}
	return "", Position{}, false
}

// RequestReferences implements spec §4.4.6.
func (c *Client) RequestReferences(pos Position) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.supportsReferences {
		return ErrCapabilityUnavailable
	}
	if c.referencesID != 0 {
		return ErrBusy
	}
	id, err := c.sendRequest("textDocument/references", ReferenceParams{
		TextDocument: TextDocumentIdentifier{URI: c.documentURI},
		Position:     pos,
		Context:      ReferenceContext{IncludeDeclaration: false},
	})
	if err != nil {
		return err
	}
	c.referencesID = id
	c.references.Pending = true
	return nil
}

func (c *Client) handleReferencesResult(env Envelope) {
	c.referencesID = 0
	c.references.Pending = false
	if env.Error != nil {
		return
	}
	var refs []Location
	if err := json.Unmarshal(env.Result, &refs); err != nil {
		return
	}
	c.references = ReferencesSnapshot{Rev: c.references.Rev + 1, Refs: refs}
}
