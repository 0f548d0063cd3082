// Package server implements a language server for tape programs:
// bracket diagnostics and hover help over stdio.
package server

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/tliron/commonlog"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
	glspserver "github.com/tliron/glsp/server"

	"github.com/chazu/brainiac/compiler"

	_ "github.com/tliron/commonlog/simple"
)

const lspName = "brainiac-lsp"

var log = commonlog.GetLogger("brainiac.server")

// LspServer publishes parse diagnostics and answers hover requests.
type LspServer struct {
	mu   sync.Mutex
	docs map[string]string // URI → full document content

	handler protocol.Handler
	server  *glspserver.Server
	version string
}

// NewLSP creates a new LSP server.
func NewLSP(version string) *LspServer {
	s := &LspServer{
		docs:    make(map[string]string),
		version: version,
	}

	s.handler = protocol.Handler{
		Initialize:  s.initialize,
		Initialized: s.initialized,
		Shutdown:    s.shutdown,
		SetTrace:    s.setTrace,

		TextDocumentDidOpen:   s.textDocumentDidOpen,
		TextDocumentDidChange: s.textDocumentDidChange,
		TextDocumentDidClose:  s.textDocumentDidClose,

		TextDocumentHover: s.textDocumentHover,
	}

	s.server = glspserver.NewServer(&s.handler, lspName, false)

	return s
}

// Run starts the LSP server on stdio. Blocks until the client disconnects.
func (s *LspServer) Run() error {
	return s.server.RunStdio()
}

// --- LSP lifecycle handlers ---

func (s *LspServer) initialize(ctx *glsp.Context, params *protocol.InitializeParams) (any, error) {
	log.Info("initializing")

	capabilities := s.handler.CreateServerCapabilities()

	syncKind := protocol.TextDocumentSyncKindFull
	capabilities.TextDocumentSync = &protocol.TextDocumentSyncOptions{
		OpenClose: boolPtr(true),
		Change:    &syncKind,
	}
	capabilities.HoverProvider = true

	return protocol.InitializeResult{
		Capabilities: capabilities,
		ServerInfo: &protocol.InitializeResultServerInfo{
			Name:    lspName,
			Version: &s.version,
		},
	}, nil
}

func (s *LspServer) initialized(ctx *glsp.Context, params *protocol.InitializedParams) error {
	return nil
}

func (s *LspServer) shutdown(ctx *glsp.Context) error {
	return nil
}

func (s *LspServer) setTrace(ctx *glsp.Context, params *protocol.SetTraceParams) error {
	return nil
}

// --- Document synchronization ---

func (s *LspServer) textDocumentDidOpen(ctx *glsp.Context, params *protocol.DidOpenTextDocumentParams) error {
	uri := params.TextDocument.URI
	text := params.TextDocument.Text

	s.mu.Lock()
	s.docs[string(uri)] = text
	s.mu.Unlock()

	s.publishDiagnostics(ctx, uri, text)
	return nil
}

func (s *LspServer) textDocumentDidChange(ctx *glsp.Context, params *protocol.DidChangeTextDocumentParams) error {
	uri := params.TextDocument.URI

	// With Full sync, the last change event contains the full text
	if len(params.ContentChanges) > 0 {
		last := params.ContentChanges[len(params.ContentChanges)-1]
		if whole, ok := last.(protocol.TextDocumentContentChangeEventWhole); ok {
			s.mu.Lock()
			s.docs[string(uri)] = whole.Text
			s.mu.Unlock()

			s.publishDiagnostics(ctx, uri, whole.Text)
		}
	}
	return nil
}

func (s *LspServer) textDocumentDidClose(ctx *glsp.Context, params *protocol.DidCloseTextDocumentParams) error {
	uri := params.TextDocument.URI

	s.mu.Lock()
	delete(s.docs, string(uri))
	s.mu.Unlock()

	// Clear diagnostics for the closed document
	go ctx.Notify(protocol.ServerTextDocumentPublishDiagnostics, protocol.PublishDiagnosticsParams{
		URI:         uri,
		Diagnostics: []protocol.Diagnostic{},
	})
	return nil
}

// --- Language features ---

func (s *LspServer) textDocumentHover(ctx *glsp.Context, params *protocol.HoverParams) (*protocol.Hover, error) {
	s.mu.Lock()
	text, ok := s.docs[string(params.TextDocument.URI)]
	s.mu.Unlock()

	if !ok {
		return nil, nil
	}
	return hoverAt(text, params.Position), nil
}

// hoverAt describes the command under pos, or returns nil for comments.
// Brackets also report where their partner is.
func hoverAt(text string, pos protocol.Position) *protocol.Hover {
	offset, ok := offsetAt(text, pos)
	if !ok {
		return nil
	}
	ch, _ := utf8.DecodeRuneInString(text[offset:])
	tok := compiler.Classify(ch)
	if tok == compiler.TokenUnknown {
		return nil
	}

	value := fmt.Sprintf("`%s` %s", tok, tok.Describe())
	if tok == compiler.TokenLoopStart || tok == compiler.TokenLoopEnd {
		if partner, ok := matchBracket(text, offset); ok {
			p := positionOf(text, partner)
			value += fmt.Sprintf("\n\nmatches `%c` at line %d, column %d", text[partner], p.Line+1, p.Character+1)
		} else {
			value += "\n\nunmatched"
		}
	}

	start := pos
	end := start
	end.Character++
	return &protocol.Hover{
		Contents: protocol.MarkupContent{
			Kind:  protocol.MarkupKindMarkdown,
			Value: value,
		},
		Range: &protocol.Range{Start: start, End: end},
	}
}

// --- Diagnostics ---

func (s *LspServer) publishDiagnostics(ctx *glsp.Context, uri protocol.DocumentUri, text string) {
	diagnostics := diagnosticsFor(text)
	if len(diagnostics) > 0 {
		log.Debugf("%s: %s", uri, diagnostics[0].Message)
	}

	go ctx.Notify(protocol.ServerTextDocumentPublishDiagnostics, protocol.PublishDiagnosticsParams{
		URI:         uri,
		Diagnostics: diagnostics,
	})
}

// diagnosticsFor parses text and reports the first bracket error as a
// one-character range on the offending bracket.
func diagnosticsFor(text string) []protocol.Diagnostic {
	_, err := compiler.Parse(text)
	if err == nil {
		return []protocol.Diagnostic{}
	}

	var pe *compiler.ParseError
	if !errors.As(err, &pe) {
		return []protocol.Diagnostic{newDiagnostic(protocol.Range{}, err.Error())}
	}

	start := positionOf(text, pe.Pos.Offset)
	end := start
	end.Character++

	msg := "unexpected closing bracket"
	if errors.Is(pe, compiler.ErrUnterminatedLoop) {
		msg = "missing closing bracket for this loop"
	}
	return []protocol.Diagnostic{newDiagnostic(protocol.Range{Start: start, End: end}, msg)}
}

func newDiagnostic(r protocol.Range, msg string) protocol.Diagnostic {
	severity := protocol.DiagnosticSeverityError
	source := lspName
	return protocol.Diagnostic{
		Range:    r,
		Severity: &severity,
		Source:   &source,
		Message:  msg,
	}
}

// --- Text position helpers ---

// offsetAt converts a 0-based line/character position into a byte offset.
// Characters are counted in runes. It fails past the end of a line.
func offsetAt(text string, pos protocol.Position) (int, bool) {
	offset := 0
	for line := protocol.UInteger(0); line < pos.Line; line++ {
		i := strings.IndexByte(text[offset:], '\n')
		if i < 0 {
			return 0, false
		}
		offset += i + 1
	}
	for ch := protocol.UInteger(0); ch < pos.Character; ch++ {
		if offset >= len(text) || text[offset] == '\n' {
			return 0, false
		}
		_, size := utf8.DecodeRuneInString(text[offset:])
		offset += size
	}
	if offset >= len(text) || text[offset] == '\n' {
		return 0, false
	}
	return offset, true
}

// positionOf converts a byte offset into a 0-based line/character position.
func positionOf(text string, offset int) protocol.Position {
	if offset > len(text) {
		offset = len(text)
	}
	before := text[:offset]
	line := strings.Count(before, "\n")
	lineStart := strings.LastIndexByte(before, '\n') + 1
	return protocol.Position{
		Line:      protocol.UInteger(line),
		Character: protocol.UInteger(utf8.RuneCountInString(before[lineStart:])),
	}
}

// matchBracket returns the offset of the bracket paired with the one at
// offset. Comment characters are skipped.
func matchBracket(text string, offset int) (int, bool) {
	switch text[offset] {
	case '[':
		depth := 0
		for i := offset; i < len(text); i++ {
			switch text[i] {
			case '[':
				depth++
			case ']':
				depth--
				if depth == 0 {
					return i, true
				}
			}
		}
	case ']':
		depth := 0
		for i := offset; i >= 0; i-- {
			switch text[i] {
			case ']':
				depth++
			case '[':
				depth--
				if depth == 0 {
					return i, true
				}
			}
		}
	}
	return 0, false
}

func boolPtr(b bool) *bool {
	return &b
}
