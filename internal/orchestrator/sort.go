package orchestrator

import (
	"sort"

	"newsposter/internal/feed"
)

// sortByDateDesc orders newest first. Undated (zero) publish dates compare
// equal, so the stable sort keeps their relative order.
func sortByDateDesc(articles []feed.Article) {
	sort.SliceStable(articles, func(i, j int) bool {
		return articles[i].PubDate.After(articles[j].PubDate)
	})
}
