package parser

import (
	"context"
	"fmt"
	"sort"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/qsearch/qsearch/pkg/types"
)

// Parser extracts semantic definition spans from source files using
// tree-sitter grammars. It is safe for concurrent use.
type Parser struct {
	registry *Registry
}

// New creates a parser with all built-in languages registered.
func New() *Parser {
	r := NewRegistry()
	registerBuiltins(r)
	return &Parser{registry: r}
}

// Language returns the registered language name for a file path, or "".
func (p *Parser) Language(path string) string {
	return p.registry.LanguageName(path)
}

// Supports reports whether a grammar is registered for the file path.
func (p *Parser) Supports(path string) bool {
	spec, _ := p.registry.Lookup(path)
	return spec != nil
}

// Parse extracts top-level definition spans from src. The path is used only
// to select the grammar. It returns types.ErrUnsupportedLanguage when no
// grammar is registered for the file's extension.
func (p *Parser) Parse(ctx context.Context, path string, src []byte) ([]types.SemanticSpan, error) {
	spec, lang := p.registry.Lookup(path)
	if spec == nil {
		return nil, fmt.Errorf("%s: %w", path, types.ErrUnsupportedLanguage)
	}

	parser := sitter.NewParser()
	parser.SetLanguage(spec.Language)
	tree, err := parser.ParseCtx(ctx, nil, src)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	defer tree.Close()

	q, err := sitter.NewQuery([]byte(spec.Query), spec.Language)
	if err != nil {
		return nil, fmt.Errorf("compile query for %s: %w", lang, err)
	}
	defer q.Close()

	qc := sitter.NewQueryCursor()
	defer qc.Close()
	qc.Exec(q, tree.RootNode())

	var spans []types.SemanticSpan
	for {
		m, ok := qc.NextMatch()
		if !ok {
			break
		}
		var chunkNode *sitter.Node
		var name string
		for _, cap := range m.Captures {
			switch q.CaptureNameForId(cap.Index) {
			case "chunk":
				chunkNode = cap.Node
			case "name":
				name = cap.Node.Content(src)
			}
		}
		if chunkNode == nil {
			continue
		}
		spans = append(spans, types.SemanticSpan{
			Span: types.Span{
				StartLine: int(chunkNode.StartPoint().Row) + 1,
				EndLine:   int(chunkNode.EndPoint().Row) + 1,
				StartByte: int(chunkNode.StartByte()),
				EndByte:   int(chunkNode.EndByte()),
			},
			Kind: spanKind(chunkNode),
			Name: name,
		})
	}

	sort.Slice(spans, func(i, j int) bool {
		if spans[i].StartByte != spans[j].StartByte {
			return spans[i].StartByte < spans[j].StartByte
		}
		return spans[i].EndByte > spans[j].EndByte
	})
	return spans, nil
}

// spanKind maps a captured node type to a chunk kind. Wrapper nodes such as
// decorators and export statements take the kind of the inner definition.
func spanKind(n *sitter.Node) types.ChunkKind {
	switch n.Type() {
	case "function_declaration", "function_definition", "lexical_declaration":
		return types.KindFunction
	case "method_declaration", "method_definition":
		return types.KindMethod
	case "class_declaration", "class_definition":
		return types.KindClass
	case "type_declaration", "interface_declaration", "type_alias_declaration":
		return types.KindType
	case "decorated_definition", "export_statement":
		for i := 0; i < int(n.NamedChildCount()); i++ {
			if k := spanKind(n.NamedChild(i)); k != types.KindBlock {
				return k
			}
		}
	}
	return types.KindBlock
}
