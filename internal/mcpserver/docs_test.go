package mcpserver

import (
	"go/ast"
	"go/parser"
	"go/token"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Tool argument and result types become the MCP schema, so each exported
// type carries a doc comment.
func TestExportedTypesAreDocumented(t *testing.T) {
	file, err := parser.ParseFile(token.NewFileSet(), "server.go", nil, parser.ParseComments)
	require.NoError(t, err)

	var checked int
	for _, decl := range file.Decls {
		gen, ok := decl.(*ast.GenDecl)
		if !ok || gen.Tok != token.TYPE {
			continue
		}
		for _, spec := range gen.Specs {
			ts := spec.(*ast.TypeSpec)
			if !ts.Name.IsExported() {
				continue
			}
			checked++
			doc := gen.Doc
			if ts.Doc != nil {
				doc = ts.Doc
			}
			assert.NotNil(t, doc, "exported type %s has no doc comment", ts.Name.Name)
		}
	}
	assert.GreaterOrEqual(t, checked, 7)
}
