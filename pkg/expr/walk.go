package expr

// Walk calls fn for n and every node below it, depth first.
func Walk(n Node, fn func(Node)) {
	if n == nil {
		return
	}
	fn(n)
	switch n := n.(type) {
	case Binary:
		Walk(n.L, fn)
		Walk(n.R, fn)
	case Neg:
		Walk(n.X, fn)
	case Call:
		for _, a := range n.Args {
			Walk(a, fn)
		}
	}
}

// IndexRefs lists the distinct index names a node depends on directly.
func IndexRefs(n Node) []string {
	seen := make(map[string]bool)
	var names []string
	Walk(n, func(n Node) {
		if r, ok := n.(IndexRef); ok && !seen[r.Name] {
			seen[r.Name] = true
			names = append(names, r.Name)
		}
	})
	return names
}
