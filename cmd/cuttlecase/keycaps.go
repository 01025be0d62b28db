package main

import (
	"fmt"
	"os"
	"slices"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/chazu/cuttlecase/pkg/assets"
	"github.com/chazu/cuttlecase/pkg/kernel"
	"github.com/chazu/cuttlecase/pkg/keycaps"
	"github.com/chazu/cuttlecase/pkg/layout"
	"github.com/chazu/cuttlecase/pkg/logging"
)

func newKeycapsCommand(env *cliEnv) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "keycaps",
		Short: "Inspect the keycap catalog and prefetch keycap meshes",
	}
	cmd.AddCommand(newWarmCommand(env), newInfoCommand())
	return cmd
}

func newWarmCommand(env *cliEnv) *cobra.Command {
	var (
		out         string
		profiles    []string
		concurrency int
	)
	cmd := &cobra.Command{
		Use:   "warm",
		Short: "Fetch every keycap mesh from the asset store",
		Long: "Fetch every keycap mesh from the asset store, reporting the ones that fail. " +
			"With --out, the meshes that loaded are written as a bundle.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if concurrency <= 0 {
				concurrency = env.cfg.Mesh.Concurrency
			}
			var todo []keycaps.Asset
			for _, a := range keycaps.Assets() {
				if len(profiles) == 0 || slices.Contains(profiles, a.Profile) {
					todo = append(todo, a)
				}
			}
			if len(todo) == 0 {
				return fmt.Errorf("no keycap assets match profiles %v", profiles)
			}

			cache, err := env.newCache(nil)
			if err != nil {
				return err
			}
			start := time.Now()
			meshes, warmErr := cache.Warm(cmd.Context(), todo, concurrency)
			env.log.Info("keycaps warmed",
				logging.Int("loaded", len(meshes)),
				logging.Int("requested", len(todo)),
				logging.Duration("elapsed", time.Since(start)))
			fmt.Fprintf(cmd.OutOrStdout(), "loaded %d of %d keycap meshes\n", len(meshes), len(todo))

			if out != "" && len(meshes) > 0 {
				if err := writeBundle(out, meshes); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", out)
			}
			return warmErr
		},
	}
	f := cmd.Flags()
	f.StringVarP(&out, "out", "o", "", "write the loaded meshes to this bundle file")
	f.StringSliceVar(&profiles, "profile", nil, "only these profiles (repeatable)")
	f.IntVar(&concurrency, "concurrency", 0, "parallel fetches (default mesh.concurrency)")
	return cmd
}

func writeBundle(path string, meshes map[string]*kernel.Mesh) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create bundle: %w", err)
	}
	if err := assets.WriteBundle(f, meshes); err != nil {
		f.Close()
		return fmt.Errorf("write bundle: %w", err)
	}
	return f.Close()
}

func newInfoCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Print keycap seat depth and tilt per profile and row",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "PROFILE\tNAME\tROW\tDEPTH\tTILT")
			for _, p := range keycaps.Profiles() {
				rows := []int{1, 2, 3, 4, 5}
				if keycaps.IsUniform(p) {
					rows = []int{0}
				}
				for _, r := range rows {
					info := keycaps.KeyInfo(layout.Key{Keycap: &layout.Keycap{Profile: p, Row: r}})
					row := strconv.Itoa(r)
					if r == 0 {
						row = "-"
					}
					fmt.Fprintf(w, "%s\t%s\t%s\t%g\t%g\n", p, keycaps.DisplayName(p), row, info.Depth, info.Tilt)
				}
			}
			return w.Flush()
		},
	}
}
