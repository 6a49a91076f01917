package analyzer

import (
	"fmt"
	"sort"

	"github.com/ibeckermayer/threadreader/internal/types"
)

// RefineThreads turns raw clusters into threads sorted by size, largest first.
// Ties keep discovery order, so thread ids are reproducible for equal input.
func RefineThreads(clusters []types.Cluster) []types.Thread {
	threads := make([]types.Thread, 0, len(clusters))

	for n, cl := range clusters {
		if len(cl.Comments) == 0 {
			continue
		}

		members := make([]types.Comment, len(cl.Comments))
		copy(members, cl.Comments)
		sort.SliceStable(members, func(i, j int) bool {
			return members[i].Index < members[j].Index
		})

		threads = append(threads, types.Thread{
			ID:          fmt.Sprintf("thread_%d", n),
			Comments:    members,
			Size:        len(members),
			MainAuthor:  members[0].Author,
			UnreadCount: 0,
		})
	}

	sort.SliceStable(threads, func(i, j int) bool {
		return threads[i].Size > threads[j].Size
	})

	return threads
}
