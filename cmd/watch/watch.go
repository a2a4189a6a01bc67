/*
Copyright © 2026 Benny Powers <web@bennypowers.com>

This program is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

This program is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with this program. If not, see <http://www.gnu.org/licenses/>.
*/

// Package watch provides the watch command for deltabundle.
package watch

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"regexp"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"bennypowers.dev/deltabundle/cmd/internal/wiring"
	"bennypowers.dev/deltabundle/filemap"
)

var ignoreDirs = regexp.MustCompile(`(^|/)(node_modules|\.git)(/|$)`)

// Cmd is the watch cobra command: it performs an initial build, then
// watches the entry points' directory tree and prints each committed
// delta as filesystem changes land, until interrupted.
var Cmd = &cobra.Command{
	Use:   "watch <entry...>",
	Short: "Build the module graph and watch for changes",
	Long: `Watch performs an initial build of the module graph rooted at the
given entry points, then watches the filesystem and applies every batch
of changes incrementally, printing the resulting delta.`,
	Args: cobra.MinimumNArgs(1),
	RunE: run,
}

func init() {
	Cmd.Flags().StringP("platform", "", "", "Target platform condition (e.g. ios, android, web)")
	Cmd.Flags().BoolP("dev", "", true, "Build in development mode")
	Cmd.Flags().IntP("workers", "", 4, "Number of transform worker goroutines")
	Cmd.Flags().StringP("root", "", ".", "Directory tree to watch")
}

func run(cmd *cobra.Command, args []string) error {
	platform, _ := cmd.Flags().GetString("platform")
	dev, _ := cmd.Flags().GetBool("dev")
	workers, _ := cmd.Flags().GetInt("workers")
	root, _ := cmd.Flags().GetString("root")

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return fmt.Errorf("watch: resolving root %q: %w", root, err)
	}

	env, err := wiring.New(platform, dev, workers, 10*time.Second)
	if err != nil {
		return fmt.Errorf("watch: %w", err)
	}
	defer env.Close()

	ctx := cmd.Context()
	g, rev, err := env.Bundler.BuildGraph(ctx, "main", args)
	if err != nil {
		return fmt.Errorf("watch: initial build: %w", err)
	}
	fmt.Printf("built graph %q: %d modules at revision %d\n", "main", g.Size(), rev)

	backend, err := filemap.NewFSNotifyBackend()
	if err != nil {
		return fmt.Errorf("watch: creating watcher: %w", err)
	}

	fm, err := filemap.New(env.FS, backend, absRoot, filemap.Options{Ignore: ignoreDirs})
	if err != nil {
		backend.Close()
		return fmt.Errorf("watch: crawling %s: %w", absRoot, err)
	}
	fm.Start()
	defer fm.Close()

	deltas, cancel := fm.Subscribe(func(path string) bool { return true })
	defer cancel()

	pkgJSONDeltas, cancelPkgJSON := fm.Subscribe(func(path string) bool {
		return filepath.Base(path) == "package.json"
	})
	defer cancelPkgJSON()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	for {
		select {
		case <-sigCh:
			fmt.Println("watch: stopping")
			return nil
		case <-ctx.Done():
			return ctx.Err()
		case werr, ok := <-fm.Errs():
			if !ok {
				continue
			}
			fmt.Fprintf(os.Stderr, "watch: %v\n", werr)
		case pkgDelta, ok := <-pkgJSONDeltas:
			if !ok {
				continue
			}
			for _, p := range pkgDelta.Touched {
				env.PkgCache.Invalidate(p)
			}
			for _, p := range pkgDelta.Deleted {
				env.PkgCache.Invalidate(p)
			}
		case fsDelta, ok := <-deltas:
			if !ok {
				return nil
			}
			delta, rev, err := env.Bundler.Update(ctx, "main", fsDelta.Touched, fsDelta.Deleted)
			if err != nil {
				fmt.Fprintf(os.Stderr, "watch: update failed: %v\n", err)
				continue
			}
			fmt.Printf("revision %d: +%d ~%d -%d\n", rev, len(delta.Added), len(delta.Modified), len(delta.Deleted))
		}
	}
}
