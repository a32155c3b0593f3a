package reconcile

import "github.com/krisalay/clientsync/model"

// repostedIDs collects the original post ids the user has reposted among the loaded posts.
func repostedIDs(posts []model.Post, handle string) map[string]struct{} {
	ids := make(map[string]struct{})
	for i := range posts {
		p := &posts[i]
		if p.IsRepost() && p.OriginalPostID != "" && p.Author.Handle == handle {
			ids[p.OriginalPostID] = struct{}{}
		}
	}
	return ids
}

// NeedsRepair reports whether any post's reposted flag disagrees with the loaded reposts.
// Without a handle there is nothing to compare against and the answer is false.
func NeedsRepair(posts []model.Post, handle string) bool {
	if handle == "" {
		return false
	}
	ids := repostedIDs(posts, handle)
	for i := range posts {
		_, has := ids[posts[i].ID]
		if has != posts[i].UserInteractions.Reposted {
			return true
		}
	}
	return false
}

/*
Reposts sets UserInteractions.Reposted on every post to whether the loaded
collection holds a repost of it by handle. Only that flag is touched.

It returns false, and writes nothing, when every flag is already right, so
callers that reconcile on every collection change can skip the notification.
A second pass over its own output always returns false.
*/
func Reposts(posts []model.Post, handle string) bool {
	if handle == "" {
		return false
	}
	ids := repostedIDs(posts, handle)

	changed := false
	for i := range posts {
		_, has := ids[posts[i].ID]
		if has != posts[i].UserInteractions.Reposted {
			posts[i].UserInteractions.Reposted = has
			changed = true
		}
	}
	return changed
}
