package pipeline

// Filter drops blacklisted items and items outside the configured category,
// keeping the input order. The input slice is not modified.
func Filter(items []HeldItem, cfg RunConfig) []HeldItem {
	out := make([]HeldItem, 0, len(items))
	for _, item := range items {
		if cfg.Blacklisted(item.ID) {
			continue
		}
		if !cfg.CategoryFilter.Matches(item.Category) {
			continue
		}
		out = append(out, item)
	}
	return out
}
