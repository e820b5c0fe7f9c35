package cli

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"rockfun/internal/adapter/rpc"
	"rockfun/internal/application"
	"rockfun/internal/domain"
	"rockfun/internal/domain/entity"

	"github.com/spf13/cobra"
)

func newNetworksCommand(current func() (*app, error)) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "networks",
		Short: "List the configured Graphite networks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := current()
			if err != nil {
				return err
			}
			networks := a.registry.List()
			defaultID := a.registry.DefaultID()
			return a.printer.print(networks, func(w io.Writer) {
				tw := tabwriter.NewWriter(w, 0, 0, 3, ' ', 0)
				_, _ = fmt.Fprintln(tw, "ID\tNAME\tCHAIN ID\tCURRENCY\tRPC\tKYC")
				for _, n := range networks {
					id := string(n.ID)
					if n.ID == defaultID {
						id += "*"
					}
					kyc := "no key"
					if n.KycConfigured() {
						kyc = "configured"
					}
					_, _ = fmt.Fprintf(tw, "%s\t%s\t%s (%s)\t%s\t%s\t%s\n",
						id, n.ChainName, n.ChainIDHex, n.ChainIDDecimal, n.NativeCurrency.Symbol, n.PrimaryRPCURL(), kyc)
				}
				_ = tw.Flush()
			})
		},
	}
	cmd.AddCommand(newNetworkRPCsCommand(current))
	return cmd
}

func newNetworkRPCsCommand(current func() (*app, error)) *cobra.Command {
	return &cobra.Command{
		Use:   "rpcs <mainnet|testnet>",
		Short: "Probe a network's RPC endpoints",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := current()
			if err != nil {
				return err
			}
			id := entity.NetworkID(strings.ToLower(args[0]))
			if !id.Valid() {
				return fmt.Errorf("%w: %q", domain.ErrInvalidNetworkID, args[0])
			}

			svc := application.NewNetworkService(a.registry, a.cache, rpc.NewChecker(a.cfg.Checker, a.logger), a.logger, a.cfg.Checker)
			rpcs, err := svc.GetCheckedRPCs(cmd.Context(), id)
			if err != nil {
				return err
			}
			return a.printer.print(rpcs, func(w io.Writer) {
				tw := tabwriter.NewWriter(w, 0, 0, 3, ' ', 0)
				_, _ = fmt.Fprintln(tw, "URL\tPROTOCOL\tWORKING\tLATENCY\tCHAIN ID")
				for _, r := range rpcs {
					working, latency, chain := "-", "-", orDash(r.ChainIDHex)
					if r.IsWorking != nil {
						working = fmt.Sprintf("%t", *r.IsWorking)
					}
					if r.LatencyMs != nil {
						latency = fmt.Sprintf("%dms", *r.LatencyMs)
					}
					if r.ChainMatches != nil && !*r.ChainMatches {
						chain += " (mismatch)"
					}
					_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", r.URL, r.Protocol, working, latency, chain)
				}
				_ = tw.Flush()
			})
		},
	}
}
