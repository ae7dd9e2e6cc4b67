// Package watch re-runs work when input files change.
//
// A Watcher observes a set of files and directories with fsnotify. Events
// are debounced per file, so an editor that writes a file in several steps
// triggers one callback after the writes settle. Parent directories are
// watched rather than the files themselves, which keeps watching through
// atomic rename-on-save.
//
//	w, err := watch.New(watch.Config{Paths: []string{"in/a.json", "batches/"}}, logger)
//	if err != nil {
//	    return err
//	}
//	err = w.Watch(ctx, func(path string) {
//	    runBatch(ctx, path)
//	})
package watch
