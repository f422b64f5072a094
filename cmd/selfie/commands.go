package main

import (
	"context"
	"fmt"
	"io"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"
	"github.com/viant/afs"
	"github.com/viant/selfie/config"
	"github.com/viant/selfie/disk"
	"github.com/viant/selfie/gc"
	"github.com/viant/selfie/layout"
	"github.com/viant/selfie/snapshot"
)

type options struct {
	configFile string
	root       string
	catalog    string
	dryRun     bool
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	rootCmd := &cobra.Command{
		Use:          "selfie",
		Short:        "Inspect and clean up selfie snapshot files",
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(&opts.configFile, "config", "", "settings file (yaml)")
	rootCmd.PersistentFlags().StringVar(&opts.root, "root", "", "test source root, detected from the working directory when empty")
	rootCmd.PersistentFlags().StringVar(&opts.catalog, "catalog", "", "test catalog file (yaml)")

	staleCmd := &cobra.Command{
		Use:   "stale",
		Short: "List snapshot files whose class has no test methods",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStale(cmd.Context(), cmd.OutOrStdout(), opts)
		},
	}
	pruneCmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete snapshot files whose class has no test methods",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPrune(cmd.Context(), cmd.OutOrStdout(), opts)
		},
	}
	pruneCmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "only print files that would be deleted")
	showCmd := &cobra.Command{
		Use:   "show [snapshot file]",
		Short: "Parse a snapshot file and list its keys and facets",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShow(cmd.Context(), cmd.OutOrStdout(), args[0])
		},
	}
	rootCmd.AddCommand(staleCmd, pruneCmd, showCmd)
	return rootCmd
}

// environment holds everything the maintenance commands need
type environment struct {
	settings *config.Settings
	layout   *layout.Layout
	catalog  gc.Catalog
	logger   hclog.Logger
}

func loadEnvironment(ctx context.Context, opts *options) (*environment, error) {
	values := map[string]interface{}{}
	if opts.root != "" {
		values["source.root"] = opts.root
	}
	if opts.catalog != "" {
		values["catalog.file"] = opts.catalog
	}
	loaderOptions := []config.LoaderOption{config.WithValues(values)}
	if opts.configFile != "" {
		loaderOptions = append(loaderOptions, config.WithFile(opts.configFile))
	}
	settings, err := config.Load(loaderOptions...)
	if err != nil {
		return nil, err
	}
	logger := hclog.New(&hclog.LoggerOptions{Name: "selfie", Level: settings.LogLevel()})
	if settings.Source.Root == "" {
		project, err := layout.DetectProject(ctx, ".")
		if err != nil {
			return nil, err
		}
		settings.Source.Root = project.TestRoot
		if settings.Source.ModulePath == "" {
			settings.Source.ModulePath = project.ModulePath
		}
	}
	if settings.Catalog.File == "" {
		return nil, fmt.Errorf("catalog file was empty, use --catalog or catalog.file")
	}
	catalog, err := gc.LoadCatalog(ctx, settings.Catalog.File)
	if err != nil {
		return nil, err
	}
	aLayout, err := layout.New(ctx, settings.LayoutConfig())
	if err != nil {
		return nil, err
	}
	return &environment{settings: settings, layout: aLayout, catalog: catalog, logger: logger}, nil
}

func runStale(ctx context.Context, w io.Writer, opts *options) error {
	env, err := loadEnvironment(ctx, opts)
	if err != nil {
		return err
	}
	files, err := gc.FindStaleFiles(env.layout, env.catalog)
	if err != nil {
		return err
	}
	for _, file := range files {
		fmt.Fprintf(w, "%v\t%v\n", file.Class, file.Path)
	}
	return nil
}

func runPrune(ctx context.Context, w io.Writer, opts *options) error {
	env, err := loadEnvironment(ctx, opts)
	if err != nil {
		return err
	}
	files, err := gc.FindStaleFiles(env.layout, env.catalog)
	if err != nil {
		return err
	}
	store := disk.New(env.layout, env.logger)
	for _, file := range files {
		if opts.dryRun {
			fmt.Fprintf(w, "would delete %v\n", file.Path)
			continue
		}
		if err = store.Delete(ctx, file.Class); err != nil {
			return err
		}
		fmt.Fprintf(w, "deleted %v\n", file.Path)
	}
	return nil
}

func runShow(ctx context.Context, w io.Writer, location string) error {
	data, err := afs.New().DownloadWithURL(ctx, location)
	if err != nil {
		return fmt.Errorf("failed to read %v: %w", location, err)
	}
	file, err := snapshot.Parse(data)
	if err != nil {
		return err
	}
	for _, key := range file.Keys() {
		snap, _ := file.Get(key)
		fmt.Fprintln(w, key)
		for _, facet := range snap.Facets() {
			name := facet.Name
			if name == "" {
				name = "(primary)"
			}
			fmt.Fprintf(w, "  %v\t%v\t%d bytes\n", name, facet.Value.Kind(), len(facet.Value.Bytes()))
		}
	}
	return nil
}
