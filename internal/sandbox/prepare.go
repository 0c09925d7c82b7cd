package sandbox

import (
	"errors"
	"fmt"
	"go/scanner"
	"go/token"
	"regexp"
	"sort"
	"strings"
)

// ErrForbiddenImport is returned when generated code imports a package that is
// not part of the interpreter's capability set.
var ErrForbiddenImport = errors.New("forbidden import")

const (
	framePath = "datachat/frame"
	chartPath = "datachat/chart"
	uiPath    = "datachat/ui"
)

// stdPackages are the standard library packages visible to analysis code.
var stdPackages = []string{
	"errors",
	"fmt",
	"math",
	"sort",
	"strconv",
	"strings",
	"text/tabwriter",
	"time",
	"unicode",
}

var handlePackages = []string{framePath, chartPath, uiPath}

// aliases accepted in generated imports for the handle packages.
var handleAliases = map[string]string{
	"frame": framePath,
	"chart": chartPath,
	"ui":    uiPath,
}

// AllowedImports lists every import path analysis code may use.
func AllowedImports() []string {
	out := append(append([]string{}, stdPackages...), handlePackages...)
	sort.Strings(out)
	return out
}

func allowed(path string) bool {
	for _, p := range stdPackages {
		if p == path {
			return true
		}
	}
	for _, p := range handlePackages {
		if p == path {
			return true
		}
	}
	return false
}

var (
	packageLine = regexp.MustCompile(`^\s*package\s+\w+\s*(;\s*)?$`)
	importLine  = regexp.MustCompile(`^\s*import\s+(?:[\w.]+\s+)?"([^"]+)"\s*;?\s*$`)
	importOpen  = regexp.MustCompile(`^\s*import\s*\(\s*$`)
	importSpec  = regexp.MustCompile(`^\s*(?:[\w.]+\s+)?"([^"]+)"\s*;?\s*(//.*)?$`)
	mainDecl    = regexp.MustCompile(`(?m)^func\s+main\s*\(\s*\)`)
)

// program is generated code after the package clause and imports were removed.
type program struct {
	body    string
	imports []string
	hasMain bool
}

// prepare blanks out the package clause and import declarations, keeping the
// line count so interpreter positions still match the original code.
func prepare(code string) (program, error) {
	lines := strings.Split(code, "\n")
	var imports []string
	inBlock := false
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		switch {
		case inBlock:
			if strings.HasPrefix(trimmed, ")") {
				inBlock = false
			} else if m := importSpec.FindStringSubmatch(line); m != nil {
				imports = append(imports, m[1])
			}
			lines[i] = ""
		case packageLine.MatchString(line):
			lines[i] = ""
		case importOpen.MatchString(line):
			inBlock = true
			lines[i] = ""
		default:
			if m := importLine.FindStringSubmatch(line); m != nil {
				imports = append(imports, m[1])
				lines[i] = ""
			}
		}
	}

	var bad []string
	for i, imp := range imports {
		if p, ok := handleAliases[imp]; ok {
			imports[i] = p
			continue
		}
		if !allowed(imp) {
			bad = append(bad, imp)
		}
	}
	if len(bad) > 0 {
		return program{}, fmt.Errorf("%w: %s (allowed: %s)", ErrForbiddenImport,
			strings.Join(bad, ", "), strings.Join(AllowedImports(), ", "))
	}

	body := strings.Join(lines, "\n")
	p := program{imports: imports}
	if mainDecl.MatchString(body) {
		p.hasMain = true
		body = mainDecl.ReplaceAllString(body, "func "+entryMain+"()")
	}
	p.body = body
	return p, nil
}

const (
	entryMain = "datachatMain"
	entryRun  = "datachatRun"
)

// source returns the chunks the interpreter evaluates, in order, and the call
// that runs them. Top-level declarations are evaluated on their own; the
// remaining statements are wrapped in a function opened on the first line.
// Blank lines stand in for whatever went to the other chunk, so positions
// in compile errors match the original code. With a main, statements left at
// top level run after it.
func (p program) source() (chunks []string, call string) {
	decls, stmts := split(p.body, p.hasMain)
	if strings.TrimSpace(decls) != "" {
		chunks = append(chunks, decls)
	}
	chunks = append(chunks, "func "+entryRun+"() { "+stmts+"\n}")
	if p.hasMain {
		return chunks, entryMain + "()\n" + entryRun + "()"
	}
	return chunks, entryRun + "()"
}

type lexeme struct {
	tok  token.Token
	line int
}

func lex(body string) []lexeme {
	src := []byte(body)
	fset := token.NewFileSet()
	file := fset.AddFile("", fset.Base(), len(src))
	var s scanner.Scanner
	s.Init(file, src, nil, 0)

	var out []lexeme
	for {
		pos, tok, _ := s.Scan()
		if tok == token.EOF {
			return out
		}
		out = append(out, lexeme{tok, file.Line(pos)})
	}
}

// split partitions the lines of body into top-level declarations and
// statements. Named funcs, methods and types always count as declarations;
// var and const only in a program with main.
func split(body string, withMain bool) (decls, stmts string) {
	lines := strings.Split(body, "\n")
	isDecl := make([]bool, len(lines)+1)
	mark := func(from, to int) {
		for l := from; l <= to && l <= len(lines); l++ {
			isDecl[l] = true
		}
	}

	toks := lex(body)
	depth, start := 0, -1
	for i, lx := range toks {
		switch lx.tok {
		case token.LBRACE, token.LPAREN, token.LBRACK:
			depth++
		case token.RBRACE, token.RPAREN, token.RBRACK:
			if depth > 0 {
				depth--
			}
		}
		if start < 0 {
			if depth == 0 && opensDecl(toks, i, withMain) {
				start = lx.line
			}
			continue
		}
		if depth == 0 && lx.tok == token.SEMICOLON {
			mark(start, lx.line)
			start = -1
		}
	}
	if start >= 0 {
		mark(start, len(lines))
	}

	d := make([]string, len(lines))
	st := make([]string, len(lines))
	for i, line := range lines {
		if isDecl[i+1] {
			d[i] = line
		} else {
			st[i] = line
		}
	}
	return strings.Join(d, "\n"), strings.Join(st, "\n")
}

func opensDecl(toks []lexeme, i int, withMain bool) bool {
	switch toks[i].tok {
	case token.TYPE:
		return true
	case token.VAR, token.CONST:
		return withMain
	case token.FUNC:
		if i+1 >= len(toks) {
			return false
		}
		if toks[i+1].tok == token.IDENT {
			return true
		}
		return isMethod(toks, i+1)
	}
	return false
}

// isMethod reports whether the parenthesised group at i is a receiver, that
// is, it is followed by a name and a parameter list. A func literal's
// parameters are followed by a result type or a body instead.
func isMethod(toks []lexeme, i int) bool {
	if toks[i].tok != token.LPAREN {
		return false
	}
	depth := 0
	for j := i; j < len(toks); j++ {
		switch toks[j].tok {
		case token.LPAREN:
			depth++
		case token.RPAREN:
			depth--
			if depth == 0 {
				return j+2 < len(toks) && toks[j+1].tok == token.IDENT && toks[j+2].tok == token.LPAREN
			}
		}
	}
	return false
}

// prelude imports the whole capability set and binds df.
func prelude() string {
	var b strings.Builder
	b.WriteString("import (\n")
	for _, p := range stdPackages {
		fmt.Fprintf(&b, "\t%q\n", p)
	}
	for _, p := range handlePackages {
		fmt.Fprintf(&b, "\t%q\n", p)
	}
	b.WriteString(")\n")
	return b.String()
}
