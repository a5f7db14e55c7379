package manuscript

import "context"

// Refresh reconciles the tree rooted at n with the cache's current
// text (spec §4.5): if the cache agrees with n.Src, it recurses into
// children and returns the OR of their results; otherwise it replaces
// n.Src and reruns global_scan, which rebuilds n.Children from
// scratch. The return value signals whether any node was rescanned.
func (n *Node) Refresh(ctx context.Context) (bool, error) {
	current, err := n.cache.Get(ctx, n.Filename)
	if err != nil {
		return false, err
	}

	if current == n.Src {
		var changed bool
		for _, child := range n.Children {
			c, err := child.Refresh(ctx)
			if err != nil {
				return changed, err
			}
			changed = changed || c
		}
		return changed, nil
	}

	n.Src = current
	n.globalScan(ctx)
	return true, nil
}
