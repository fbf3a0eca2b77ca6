package graph_test

import (
	"bytes"
	"fmt"

	"github.com/matzehuels/diagramkit/pkg/graph"
)

func ExampleWriteGraph() {
	g := graph.Graph{
		Nodes: []graph.Node{
			{ID: "a", Label: "A", Width: 100, Height: 40},
			{ID: "b", Label: "B", Width: 100, Height: 40},
		},
		Edges: []graph.Edge{
			{ID: "e1", Data: graph.EdgeData{Source: "A", Target: "B", SourceID: "a", TargetID: "b"}},
		},
	}

	var buf bytes.Buffer
	if err := graph.WriteGraph(g, &buf); err != nil {
		fmt.Println("Error:", err)
		return
	}
	fmt.Print(buf.String())
	// Output:
	// {
	//   "nodes": [
	//     {
	//       "id": "a",
	//       "label": "A",
	//       "x": 0,
	//       "y": 0,
	//       "width": 100,
	//       "height": 40
	//     },
	//     {
	//       "id": "b",
	//       "label": "B",
	//       "x": 0,
	//       "y": 0,
	//       "width": 100,
	//       "height": 40
	//     }
	//   ],
	//   "edges": [
	//     {
	//       "id": "e1",
	//       "data": {
	//         "source": "A",
	//         "target": "B",
	//         "sourceId": "a",
	//         "targetId": "b"
	//       }
	//     }
	//   ]
	// }
}

func ExampleValidate() {
	g := graph.Graph{
		Nodes: []graph.Node{{ID: "a"}},
		Edges: []graph.Edge{{ID: "e1", Data: graph.EdgeData{SourceID: "a", TargetID: "ghost"}}},
	}
	fmt.Println(graph.Validate(g))
	// Output:
	// edge "e1" references missing node "ghost"
}
