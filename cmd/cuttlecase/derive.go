package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/chazu/cuttlecase/pkg/keycaps"
)

func newDeriveCommand(env *cliEnv) *cobra.Command {
	var meshes bool
	cmd := &cobra.Command{
		Use:   "derive <layout-file>",
		Short: "Evaluate a layout and print the derived case as JSON",
		Long:  "Evaluate a layout and print the derived case as JSON. Use - to read the layout from stdin.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			source, err := readSource(cmd.InOrStdin(), args[0])
			if err != nil {
				return err
			}

			var cache *keycaps.Cache
			if meshes {
				if cache, err = env.newCache(nil); err != nil {
					return err
				}
			}
			res := env.newApp(nil, cache).Evaluate(cmd.Context(), source, meshes)

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			if err := enc.Encode(res); err != nil {
				return err
			}
			if !res.OK() {
				return fmt.Errorf("%s: %d evaluation error(s)", args[0], len(res.Errors))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&meshes, "meshes", false, "include preview meshes")
	return cmd
}

func readSource(stdin io.Reader, path string) (string, error) {
	var (
		b   []byte
		err error
	)
	if path == "-" {
		b, err = io.ReadAll(stdin)
	} else {
		b, err = os.ReadFile(path)
	}
	if err != nil {
		return "", fmt.Errorf("read layout: %w", err)
	}
	return string(b), nil
}
