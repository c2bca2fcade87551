// Package storage manages the local photo archive.
//
// Photos are named after their post id ({id}_max.jpg). Presence of the file
// is what makes a download idempotent: Exists consults the file system on
// every call. All writes go through a temporary file and a rename.
//
//	manager, err := storage.NewManager(cfg.Output.PhotoDirectory)
//	if !manager.Exists(post.ID) {
//		_, err = manager.SavePhoto(bytes.NewReader(data), post.ID)
//	}
package storage
