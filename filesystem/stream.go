package filesystem

import (
	"strings"

	"github.com/boyter/gocodewalker"
	"github.com/jesspatton/testexplorer/logging"
)

// StreamFiles walks root in the background and sends every file that is not
// ignored by .gitignore, .ignore or the built-in directory list. When
// extensions (without the dot) are given only those files are sent. The
// channel is closed when the walk ends.
func StreamFiles(root string, extensions ...string) <-chan *gocodewalker.File {
	files := make(chan *gocodewalker.File, 100)

	log := logging.For("walker")

	walker := gocodewalker.NewFileWalker(root, files)
	walker.ExcludeDirectory = ignoredDirectories()
	walker.AllowListExtensions = extensions
	walker.SetErrorHandler(func(err error) bool {
		log.Warn().Err(err).Str("root", root).Msg("skipping unreadable path")
		return true
	})

	go func() {
		if err := walker.Start(); err != nil {
			log.Error().Err(err).Str("root", root).Msg("walk failed")
		}
	}()

	return files
}

// ignoredDirectories is the literal part of defaultIgnorePatterns; globs
// such as *.log are left to the Ignorer.
func ignoredDirectories() []string {
	var dirs []string
	for _, p := range defaultIgnorePatterns {
		if !strings.ContainsAny(p, "*?[") && !strings.HasPrefix(p, ".DS") {
			dirs = append(dirs, p)
		}
	}
	return dirs
}
