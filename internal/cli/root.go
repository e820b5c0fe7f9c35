package cli

import (
	"errors"
	"io"

	"github.com/spf13/cobra"
)

type rootOptions struct {
	configPath string
	output     string
	graphite   bool
	verbose    bool
}

type appBuilder func(opts *rootOptions, out io.Writer) (*app, error)

// NewRootCommand builds the gemctl command tree writing results to out.
func NewRootCommand(out io.Writer) *cobra.Command {
	return newRootCommand(out, newApp)
}

func newRootCommand(out io.Writer, build appBuilder) *cobra.Command {
	opts := &rootOptions{}
	var a *app

	root := &cobra.Command{
		Use:   "gemctl",
		Short: "Operate rock.fun Gem tokens on the Graphite network",
		Long: `gemctl drives a Graphite wallet to connect, check KYC, switch networks and
deploy Gem tokens, and reads the Gem catalogue from the rock.fun backend.

The wallet is reached through a JSON-RPC WebSocket bridge (wallet.kind=bridge)
or directly through a node that manages its own accounts (wallet.kind=node).`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			built, err := build(opts, out)
			if err != nil {
				return err
			}
			a = built
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a != nil {
				a.sync()
			}
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "configs", "directory containing config.yaml")
	flags.StringVarP(&opts.output, "output", "o", formatText, "output format: text, json or yaml")
	flags.BoolVar(&opts.graphite, "graphite", false, "use the Graphite wallet variant")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "enable debug logging")

	current := func() (*app, error) {
		if a == nil {
			return nil, errors.New("gemctl not initialized")
		}
		return a, nil
	}

	root.AddCommand(
		newNetworksCommand(current),
		newStatusCommand(current),
		newConnectCommand(current),
		newKycCommand(current),
		newSwitchCommand(current),
		newDisconnectCommand(current),
		newDeployCommand(current),
		newGemsCommand(current),
	)
	return root
}
