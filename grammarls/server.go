// Package grammarls implements a language server for EBNF grammar files. It
// publishes parse errors, grammar errors and LL(1) conflicts as diagnostics
// and shows the FIRST set of a production on hover.
package grammarls

import (
	"net/url"
	"path/filepath"
	"strings"
	"sync"

	"github.com/dhamidi/combo/combinator"
	"github.com/dhamidi/combo/ebnf/parse"
	"github.com/tliron/commonlog"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
	"github.com/tliron/glsp/server"

	_ "github.com/tliron/commonlog/simple"
)

const lsName = "combo"

// LSPServer serves diagnostics and hovers for EBNF grammars.
type LSPServer struct {
	handler protocol.Handler
	server  *server.Server
	version string
	log     commonlog.Logger

	mu        sync.Mutex
	documents map[string]string
	strict    bool
}

// NewLSPServer creates a server. With strict set, LL(1) conflicts are
// reported as errors instead of warnings.
func NewLSPServer(version string, strict bool) *LSPServer {
	ls := &LSPServer{
		version:   version,
		strict:    strict,
		documents: make(map[string]string),
		log:       commonlog.GetLogger("combo.lsp"),
	}

	ls.handler = protocol.Handler{
		Initialize:            ls.initialize,
		Initialized:           ls.initialized,
		Shutdown:              ls.shutdown,
		SetTrace:              ls.setTrace,
		TextDocumentDidOpen:   ls.textDocumentDidOpen,
		TextDocumentDidChange: ls.textDocumentDidChange,
		TextDocumentDidClose:  ls.textDocumentDidClose,
		TextDocumentDidSave:   ls.textDocumentDidSave,
		TextDocumentHover:     ls.textDocumentHover,
	}

	ls.server = server.NewServer(&ls.handler, lsName, false)

	return ls
}

// RunStdio serves the protocol over stdin and stdout until the client exits.
func (ls *LSPServer) RunStdio() error {
	return ls.server.RunStdio()
}

func (ls *LSPServer) initialize(ctx *glsp.Context, params *protocol.InitializeParams) (any, error) {
	capabilities := ls.handler.CreateServerCapabilities()

	capabilities.TextDocumentSync = &protocol.TextDocumentSyncOptions{
		OpenClose: boolPtr(true),
		Change:    syncKindPtr(protocol.TextDocumentSyncKindFull),
		Save: &protocol.SaveOptions{
			IncludeText: boolPtr(true),
		},
	}
	capabilities.HoverProvider = true

	return protocol.InitializeResult{
		Capabilities: capabilities,
		ServerInfo: &protocol.InitializeResultServerInfo{
			Name:    lsName,
			Version: &ls.version,
		},
	}, nil
}

func (ls *LSPServer) initialized(ctx *glsp.Context, params *protocol.InitializedParams) error {
	return nil
}

func (ls *LSPServer) shutdown(ctx *glsp.Context) error {
	return nil
}

func (ls *LSPServer) setTrace(ctx *glsp.Context, params *protocol.SetTraceParams) error {
	protocol.SetTraceValue(params.Value)
	return nil
}

func (ls *LSPServer) textDocumentDidOpen(ctx *glsp.Context, params *protocol.DidOpenTextDocumentParams) error {
	ls.update(ctx, params.TextDocument.URI, params.TextDocument.Text)
	return nil
}

func (ls *LSPServer) textDocumentDidChange(ctx *glsp.Context, params *protocol.DidChangeTextDocumentParams) error {
	if len(params.ContentChanges) > 0 {
		change := params.ContentChanges[len(params.ContentChanges)-1]
		if textChange, ok := change.(protocol.TextDocumentContentChangeEventWhole); ok {
			ls.update(ctx, params.TextDocument.URI, textChange.Text)
		}
	}
	return nil
}

func (ls *LSPServer) textDocumentDidClose(ctx *glsp.Context, params *protocol.DidCloseTextDocumentParams) error {
	ls.mu.Lock()
	delete(ls.documents, params.TextDocument.URI)
	ls.mu.Unlock()

	ctx.Notify(protocol.ServerTextDocumentPublishDiagnostics, protocol.PublishDiagnosticsParams{
		URI:         params.TextDocument.URI,
		Diagnostics: []protocol.Diagnostic{},
	})
	return nil
}

func (ls *LSPServer) textDocumentDidSave(ctx *glsp.Context, params *protocol.DidSaveTextDocumentParams) error {
	if params.Text != nil {
		ls.update(ctx, params.TextDocument.URI, *params.Text)
	}
	return nil
}

func (ls *LSPServer) textDocumentHover(ctx *glsp.Context, params *protocol.HoverParams) (*protocol.Hover, error) {
	ls.mu.Lock()
	text, ok := ls.documents[params.TextDocument.URI]
	ls.mu.Unlock()
	if !ok {
		return nil, nil
	}

	value := Hover(text, int(params.Position.Line)+1, int(params.Position.Character)+1)
	if value == "" {
		return nil, nil
	}
	return &protocol.Hover{
		Contents: protocol.MarkupContent{
			Kind:  protocol.MarkupKindMarkdown,
			Value: value,
		},
	}, nil
}

func (ls *LSPServer) update(ctx *glsp.Context, uri string, text string) {
	ls.mu.Lock()
	ls.documents[uri] = text
	ls.mu.Unlock()

	diags := Diagnose(uriToPath(uri), text, ls.strict)
	ls.log.Debugf("%s: %d diagnostics", uri, len(diags))
	ctx.Notify(protocol.ServerTextDocumentPublishDiagnostics, protocol.PublishDiagnosticsParams{
		URI:         uri,
		Diagnostics: diags,
	})
}

// Diagnose checks a grammar document and converts the findings to LSP
// diagnostics.
func Diagnose(filename, text string, strict bool) []protocol.Diagnostic {
	found := parse.Check(filename, strings.NewReader(text), parse.CheckOptions{Strict: strict})

	diags := make([]protocol.Diagnostic, 0, len(found))
	for _, d := range found {
		severity := protocol.DiagnosticSeverityError
		if d.Severity == parse.SeverityWarning {
			severity = protocol.DiagnosticSeverityWarning
		}
		diags = append(diags, protocol.Diagnostic{
			Range:    toRange(d),
			Severity: &severity,
			Source:   strPtr(lsName),
			Message:  d.Message,
		})
	}
	return diags
}

// Hover describes the syntactic production named at line and column
// (both 1-based) of text, or returns "".
func Hover(text string, line, column int) string {
	name := wordAt(text, line, column)
	if name == "" || !parse.IsRule(name) {
		return ""
	}
	g, err := parse.ReadGrammar("", strings.NewReader(text))
	if err != nil {
		return ""
	}
	rules, err := parse.CompileRules(g)
	if err != nil {
		return ""
	}
	rule, ok := rules[name]
	if !ok {
		return ""
	}

	var b strings.Builder
	b.WriteString("**" + name + "**\n\n")
	b.WriteString("FIRST: `" + combinator.First(rule).String() + "`")
	if !combinator.MakesProgress(rule) {
		b.WriteString("\n\nCan succeed without consuming input.")
	}
	return b.String()
}

func toRange(d parse.Diagnostic) protocol.Range {
	line := max(d.Pos.Line-1, 0)
	col := max(d.Pos.Column-1, 0)
	width := max(len(d.Rule), 1)
	return protocol.Range{
		Start: protocol.Position{Line: protocol.UInteger(line), Character: protocol.UInteger(col)},
		End:   protocol.Position{Line: protocol.UInteger(line), Character: protocol.UInteger(col + width)},
	}
}

// wordAt returns the identifier covering the given 1-based position.
func wordAt(text string, line, column int) string {
	lines := strings.Split(text, "\n")
	if line <= 0 || line > len(lines) {
		return ""
	}
	s := lines[line-1]
	i := column - 1
	if i < 0 || i >= len(s) || !isIdent(s[i]) {
		return ""
	}
	start, end := i, i
	for start > 0 && isIdent(s[start-1]) {
		start--
	}
	for end < len(s) && isIdent(s[end]) {
		end++
	}
	return s[start:end]
}

func isIdent(c byte) bool {
	return c == '_' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9'
}

func uriToPath(uri string) string {
	if strings.HasPrefix(uri, "file://") {
		parsed, err := url.Parse(uri)
		if err != nil {
			return uri
		}
		return filepath.Clean(parsed.Path)
	}
	return uri
}

func boolPtr(b bool) *bool {
	return &b
}

func strPtr(s string) *string {
	return &s
}

func syncKindPtr(k protocol.TextDocumentSyncKind) *protocol.TextDocumentSyncKind {
	return &k
}
