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

// Package build provides the build command for deltabundle.
package build

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"bennypowers.dev/deltabundle/cmd/internal/wiring"
)

// Cmd is the build cobra command: it performs a single initial build of
// the module graph rooted at the given entry points and reports the
// result, without starting a watcher.
var Cmd = &cobra.Command{
	Use:   "build <entry...>",
	Short: "Build the module graph from one or more entry points",
	Long: `Build performs a single initial build of the module graph rooted at
the given entry points and prints a summary of the resulting graph.`,
	Args: cobra.MinimumNArgs(1),
	RunE: run,
}

func init() {
	Cmd.Flags().StringP("platform", "", "", "Target platform condition (e.g. ios, android, web)")
	Cmd.Flags().BoolP("dev", "", true, "Build in development mode")
	Cmd.Flags().IntP("workers", "", 4, "Number of transform worker goroutines")
	Cmd.Flags().StringP("format", "f", "text", "Output format (text, json)")
}

func run(cmd *cobra.Command, args []string) error {
	platform, _ := cmd.Flags().GetString("platform")
	dev, _ := cmd.Flags().GetBool("dev")
	workers, _ := cmd.Flags().GetInt("workers")
	format, _ := cmd.Flags().GetString("format")

	env, err := wiring.New(platform, dev, workers, 10*time.Second)
	if err != nil {
		return fmt.Errorf("build: %w", err)
	}
	defer env.Close()

	g, rev, err := env.Bundler.BuildGraph(cmd.Context(), "main", args)
	if err != nil {
		return fmt.Errorf("build: %w", err)
	}

	summary := map[string]any{
		"revision": rev,
		"modules":  g.Size(),
		"entries":  args,
	}

	if format == "json" {
		out, err := json.MarshalIndent(summary, "", "  ")
		if err != nil {
			return fmt.Errorf("build: marshaling summary: %w", err)
		}
		fmt.Println(string(out))
		return nil
	}

	fmt.Printf("built graph %q: %d modules at revision %d\n", "main", g.Size(), rev)
	return nil
}
