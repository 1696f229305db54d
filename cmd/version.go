package cmd

import (
	"fmt"
	"runtime/debug"
	"strings"

	"github.com/spf13/cobra"

	"github.com/giantswarm/kubedriver/internal/scope"
)

// readBuildInfo is replaced in tests.
var readBuildInfo = debug.ReadBuildInfo

func newVersionCmd(g *globalOptions) *cobra.Command {
	var withClient bool

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print the version of kubedriver and of the client it drives",
		Long: `Print the kubedriver version with the commit and toolchain it was built
from. With --with-client, also ask the client binary for its own version.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			writeLine(cmd, "kubedriver version %s", rootCmd.Version)
			if info, ok := readBuildInfo(); ok {
				settings := make(map[string]string, len(info.Settings))
				for _, s := range info.Settings {
					settings[s.Key] = s.Value
				}
				if commit := settings["vcs.revision"]; commit != "" {
					if settings["vcs.modified"] == "true" {
						commit += "-dirty"
					}
					writeLine(cmd, "  commit: %s", commit)
				}
				if built := settings["vcs.time"]; built != "" {
					writeLine(cmd, "  built: %s", built)
				}
				writeLine(cmd, "  go: %s", info.GoVersion)
			}

			if !withClient {
				return nil
			}

			ctx, release, err := g.scope(cmd)
			if err != nil {
				return err
			}
			defer release()

			client := scope.From(ctx).ClientPath()
			a, err := scope.Invoke(ctx, "version", []string{"--client"}, scope.NoNamespace())
			if err != nil {
				return err
			}
			if !a.Succeeded() {
				return fmt.Errorf("unable to read the version of %s: %s", client, strings.TrimSpace(a.Err))
			}
			writeLine(cmd, "%s: %s", client, strings.TrimSpace(a.Out))
			return nil
		},
	}

	cmd.Flags().BoolVar(&withClient, "with-client", false, "Also print the version of the client binary")
	return cmd
}
