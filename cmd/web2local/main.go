package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/thought-machine/go-flags"

	"web2local/internal/cssmap"
	"web2local/internal/pipeline"
)

var opts = struct {
	Usage string

	Reconstruct struct {
		SourceDir             string `short:"s" long:"source" required:"true" description:"Recovered source tree to reconstruct"`
		OutDir                string `short:"o" long:"out" required:"true" description:"Output directory for lock file, workspace manifest, and bundler artifacts"`
		PackageJSON           string `long:"package-json" description:"Path to package.json (defaults to <source>/package.json)"`
		Tsconfig              string `long:"tsconfig" description:"Path to tsconfig.json (defaults to <source>/tsconfig.json)"`
		CacheDir              string `long:"cache-dir" description:"Fingerprint cache directory (defaults to <out>/.web2local-cache)"`
		Mode                  string `long:"mode" default:"production" description:"Build mode: production or development"`
		EnvPrefix             string `long:"env-prefix" default:"VITE_" description:"Prefix filter for .env variables"`
		SiteURL               string `long:"site-url" description:"Captured site's origin, for localizing absolute entry point references"`
		PackageConcurrency    int    `long:"package-concurrency" description:"Max packages resolved concurrently"`
		VersionConcurrency    int    `long:"version-concurrency" description:"Max versions checked concurrently per package"`
		EntryPointConcurrency int    `long:"entrypoint-concurrency" description:"Max entry points checked concurrently per version"`
		IncludePrerelease     bool   `long:"include-prerelease" description:"Consider prerelease versions during matching"`
		ProgressAddr          string `long:"progress-addr" description:"Serve live progress events over a websocket at this address (e.g. :8089)"`
	} `command:"reconstruct" alias:"r" description:"Reconstruct a buildable project tree from recovered sources"`

	Classnames struct {
		Dir string `short:"d" long:"dir" required:"true" description:"Directory of recovered CSS files to scan"`
		Out string `short:"o" long:"out" required:"true" description:"Output path for the class name map JSON"`
	} `command:"classnames" alias:"c" description:"Extract a hashed-to-original CSS module class name map"`
}{
	Usage: `
web2local reconstructs a locally buildable web project from a deployed site's
recovered source tree.

It provides these main operations:
  - reconstruct: rebuild missing indexes/aliases, match npm dependencies
                 against the public registry, and emit a lock file,
                 workspace manifest, and bundler configuration
  - classnames:  extract a hashed-to-original CSS module class name map from
                 a directory of recovered CSS files
`,
}

var subCommands = map[string]func() int{
	"reconstruct": func() int {
		res, err := pipeline.Run(context.Background(), pipeline.Args{
			SourceDir:             opts.Reconstruct.SourceDir,
			OutDir:                opts.Reconstruct.OutDir,
			PackageJSON:           opts.Reconstruct.PackageJSON,
			Tsconfig:              opts.Reconstruct.Tsconfig,
			CacheDir:              opts.Reconstruct.CacheDir,
			Mode:                  opts.Reconstruct.Mode,
			EnvPrefix:             opts.Reconstruct.EnvPrefix,
			SiteURL:               opts.Reconstruct.SiteURL,
			PackageConcurrency:    opts.Reconstruct.PackageConcurrency,
			VersionConcurrency:    opts.Reconstruct.VersionConcurrency,
			EntryPointConcurrency: opts.Reconstruct.EntryPointConcurrency,
			IncludePrerelease:     opts.Reconstruct.IncludePrerelease,
			ProgressAddr:          opts.Reconstruct.ProgressAddr,
		})
		if err != nil {
			log.Fatal(err)
		}
		fmt.Printf("run %s: resolved %d/%d packages, %d aliases, %d indexes, %d barrels, %d CSS classes mapped\n",
			res.RunID, res.PackagesResolved, res.PackagesAttempted, res.AliasesInferred,
			res.IndexesGenerated, res.BarrelsGenerated, res.CSSClassesMapped)
		return 0
	},
	"classnames": func() int {
		if err := runClassnames(opts.Classnames.Dir, opts.Classnames.Out); err != nil {
			log.Fatal(err)
		}
		return 0
	},
}

func runClassnames(dir, out string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("reading %s: %w", dir, err)
	}

	files := make(map[string]string)
	for _, e := range entries {
		if e.IsDir() || !isCSSFile(e.Name()) {
			continue
		}
		content, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			return fmt.Errorf("reading %s: %w", e.Name(), err)
		}
		files[e.Name()] = string(content)
	}

	m := cssmap.BuildClassNameMap(files, time.Now().UTC().Format(time.RFC3339))
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling class name map: %w", err)
	}
	return os.WriteFile(out, data, 0o644)
}

func isCSSFile(name string) bool {
	return len(name) > 4 && name[len(name)-4:] == ".css"
}

func main() {
	p := flags.NewParser(&opts, flags.Default)
	if _, err := p.Parse(); err != nil {
		os.Exit(1)
	}
	if p.Active == nil {
		p.WriteHelp(os.Stderr)
		os.Exit(1)
	}
	os.Exit(subCommands[p.Active.Name]())
}
