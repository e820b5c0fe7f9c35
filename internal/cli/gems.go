package cli

import (
	"fmt"
	"io"
	"text/tabwriter"

	"rockfun/internal/application/port"
	"rockfun/internal/domain/entity"

	"github.com/spf13/cobra"
)

func newGemsCommand(current func() (*app, error)) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "gems",
		Short: "Browse Gem tokens registered with the backend",
	}

	var page, limit int
	list := &cobra.Command{
		Use:   "list",
		Short: "List all Gems",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := current()
			if err != nil {
				return err
			}
			res, err := a.gemService(nil, nil).ListAll(cmd.Context(), page, limit)
			if err != nil {
				return err
			}
			return a.printer.print(res, func(w io.Writer) {
				printGems(w, res.Gems)
				_, _ = fmt.Fprintf(w, "\nPage %d of %d (%d total)\n", res.Page, res.Pages, res.Total)
			})
		},
	}
	list.Flags().IntVar(&page, "page", 1, "page number")
	list.Flags().IntVar(&limit, "limit", 20, "gems per page")

	mine := &cobra.Command{
		Use:   "mine",
		Short: "List Gems created by the connected account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := current()
			if err != nil {
				return err
			}
			return withSession(cmd.Context(), a, func(s port.WalletSession) error {
				gems, err := a.gemService(s, nil).ListMine(cmd.Context())
				if err != nil {
					return err
				}
				return a.printer.print(gems, func(w io.Writer) {
					printGems(w, gems)
				})
			})
		},
	}

	get := &cobra.Command{
		Use:   "get <contract-address>",
		Short: "Show one Gem by contract address",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := current()
			if err != nil {
				return err
			}
			gem, err := a.gemService(nil, nil).Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return a.printer.print(gem, func(w io.Writer) {
				_, _ = fmt.Fprintf(w, "Name:     %s (%s)\n", gem.Name, gem.Symbol)
				_, _ = fmt.Fprintf(w, "Contract: %s\n", gem.ContractAddress)
				_, _ = fmt.Fprintf(w, "Supply:   %s (decimals %d)\n", gem.TotalSupply, gem.Decimals)
				_, _ = fmt.Fprintf(w, "Creator:  %s\n", gem.CreatorAddress)
				_, _ = fmt.Fprintf(w, "Chain:    %s\n", gem.NetworkChainID)
				_, _ = fmt.Fprintf(w, "Tx:       %s\n", gem.TransactionHash)
				if gem.ImageURL != "" {
					_, _ = fmt.Fprintf(w, "Image:    %s\n", gem.ImageURL)
				}
			})
		},
	}

	cmd.AddCommand(list, mine, get)
	return cmd
}

func printGems(w io.Writer, gems []entity.Gem) {
	tw := tabwriter.NewWriter(w, 0, 0, 3, ' ', 0)
	_, _ = fmt.Fprintln(tw, "SYMBOL\tNAME\tCONTRACT\tSUPPLY\tCHAIN")
	for _, g := range gems {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", g.Symbol, g.Name, g.ContractAddress, g.TotalSupply, g.NetworkChainID)
	}
	_ = tw.Flush()
}
