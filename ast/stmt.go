package ast

type ExprStmt struct {
	Base
	Expr Expression
}

type BlockStmt struct {
	Base
	Stmts []Statement
}

// ReturnStmt's Value is nil for a bare `return`.
type ReturnStmt struct {
	Base
	Value Expression
}

// BreakStmt/ContinueStmt's Label is "" when unlabeled.
type BreakStmt struct {
	Base
	Label string
}

type ContinueStmt struct {
	Base
	Label string
}

// LoopStmt is the infinite `loop as L? { ... }` form.
type LoopStmt struct {
	Base
	Label string
	Body  *BlockStmt
}

// LoopBindingKind selects how many names `loop through` binds per
// iteration.
type LoopBindingKind int

const (
	LoopBindingNone LoopBindingKind = iota
	LoopBindingOne
	LoopBindingTwo
)

type LoopBindings struct {
	Kind          LoopBindingKind
	First, Second string
}

// LoopThroughStmt is `loop through iter with bindings? as L? { ... }`.
type LoopThroughStmt struct {
	Base
	Iterable Expression
	Bindings LoopBindings
	Label    string
	Body     *BlockStmt
}

// ImportStmt is `import a:b:c (as name)?`. Segments holds ["a","b","c"];
// Alias is "" unless `as name` was given, in which case it overrides the
// default binding name (the last segment, or the whole path's first/only
// segment for a single-segment import).
type ImportStmt struct {
	Base
	Segments []string
	Alias    string
}

// BindingName is the identifier this import binds in the importing scope.
func (i *ImportStmt) BindingName() string {
	if i.Alias != "" {
		return i.Alias
	}
	return i.Segments[len(i.Segments)-1]
}

type ExportEntry struct {
	Name  string
	Value Expression
}

// ExportStmt is `export { name: expr, ... }`. At most one may appear in a
// file; the parser enforces this (spec.md §3 invariants).
type ExportStmt struct {
	Base
	Entries []ExportEntry
}

// Program is a parsed file: a sequence of top-level statements plus the
// single optional export.
type Program struct {
	Base
	Stmts  []Statement
	Export *ExportStmt
}

func (ExprStmt) stmtNode()        {}
func (BlockStmt) stmtNode()       {}
func (ReturnStmt) stmtNode()      {}
func (BreakStmt) stmtNode()       {}
func (ContinueStmt) stmtNode()    {}
func (LoopStmt) stmtNode()        {}
func (LoopThroughStmt) stmtNode() {}
func (ImportStmt) stmtNode()      {}
func (ExportStmt) stmtNode()      {}
