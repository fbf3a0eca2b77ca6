package dot

// Graph is the root of a parsed DOT document.
type Graph struct {
	Strict   bool
	Directed bool
	ID       string
	Stmts    []Stmt
}

// Stmt is one statement of a graph or subgraph body.
type Stmt interface{ stmt() }

// Attr is a single key=value pair.
type Attr struct {
	Key   string
	Value string
}

// Attrs is an ordered attribute list. Later entries override earlier ones.
type Attrs []Attr

// Get returns the last value set for key.
func (a Attrs) Get(key string) (string, bool) {
	for i := len(a) - 1; i >= 0; i-- {
		if a[i].Key == key {
			return a[i].Value, true
		}
	}
	return "", false
}

// Value returns the last value set for key, or "".
func (a Attrs) Value(key string) string {
	v, _ := a.Get(key)
	return v
}

// NodeID is a node reference with an optional port.
type NodeID struct {
	ID   string
	Port string
	Line int
	Col  int
}

// NodeStmt declares a node or updates its attributes.
type NodeStmt struct {
	Node  NodeID
	Attrs Attrs
}

// EdgeStmt is an edge chain: each operand connects to the next. Operands
// are NodeID or *Subgraph values.
type EdgeStmt struct {
	Operands []any
	Attrs    Attrs
}

// AttrKind selects the target of an attribute statement.
type AttrKind int

const (
	AttrGraph AttrKind = iota
	AttrNode
	AttrEdge
)

// AttrStmt sets defaults: graph [..], node [..] or edge [..].
type AttrStmt struct {
	Kind  AttrKind
	Attrs Attrs
}

// Assignment is a bare ID = ID statement, a graph attribute.
type Assignment struct {
	Key   string
	Value string
}

// Subgraph is a nested statement block. Anonymous subgraphs have an empty ID.
type Subgraph struct {
	ID    string
	Stmts []Stmt
}

func (NodeStmt) stmt()   {}
func (EdgeStmt) stmt()   {}
func (AttrStmt) stmt()   {}
func (Assignment) stmt() {}
func (*Subgraph) stmt()  {}
