// Package dot reads and writes Graphviz DOT.
//
// [Lex] and [Parse] turn source text into a small AST ([Graph], statements,
// attribute lists); [Import] maps the AST onto the graph IR and [Export]
// writes it back. Only the subset of DOT that carries diagram structure is
// interpreted: nodes, edge chains, cluster subgraphs, labels, shapes,
// colors and the layout attributes graphviz itself writes (pos, width,
// height, bb). Everything else is parsed and ignored.
//
// DOT has no edges between clusters. As in graphviz, an edge to a subgraph
// operand fans out to every node inside it, and lhead/ltail under
// compound=true clip an edge at a cluster. Import reads the latter as an
// edge attached to the cluster node, and Export writes cluster edges back
// that way, anchored at the cluster's first leaf.
package dot
