package layout

// components partitions the boxes of c into connected components. Links
// connect their endpoints and every box is tied to its outermost cluster,
// so a cluster is never split across components. Components and their
// members follow vertex order.
func components(c *Compound) [][]*Vertex {
	boxes := c.Boxes()
	parent := make(map[string]string, len(boxes))
	var find func(string) string
	find = func(k string) string {
		if parent[k] == k {
			return k
		}
		root := find(parent[k])
		parent[k] = root
		return root
	}
	union := func(a, b string) {
		ra, rb := find(a), find(b)
		if ra != rb {
			parent[rb] = ra
		}
	}

	for _, v := range boxes {
		parent[v.Key] = v.Key
	}
	outermost := make(map[string]string)
	for _, v := range boxes {
		anc := c.Ancestors(v.Key)
		if len(anc) == 0 {
			continue
		}
		top := anc[len(anc)-1]
		if first, ok := outermost[top]; ok {
			union(first, v.Key)
		} else {
			outermost[top] = v.Key
		}
	}
	for _, l := range c.Links {
		_, fromBox := parent[l.From]
		_, toBox := parent[l.To]
		if fromBox && toBox {
			union(l.From, l.To)
		}
	}

	var out [][]*Vertex
	index := make(map[string]int)
	for _, v := range boxes {
		root := find(v.Key)
		i, ok := index[root]
		if !ok {
			i = len(out)
			index[root] = i
			out = append(out, nil)
		}
		out[i] = append(out[i], v)
	}
	return out
}
