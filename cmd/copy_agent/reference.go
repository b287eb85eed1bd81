package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var productsCmd = &cobra.Command{
	Use:   "products",
	Short: "List the products in the library",
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := loadApp(cmd)
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tBRAND\tCATEGORY\tPRICE")
		for _, p := range a.library.Products() {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", p.ID, p.Name, p.Brand, p.Category, p.PricePoint)
		}
		return w.Flush()
	},
}

var channelsCmd = &cobra.Command{
	Use:   "channels",
	Short: "List the distribution channels",
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := loadApp(cmd)
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tMAX LENGTH\tFORMAT")
		for _, c := range a.library.Channels() {
			fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", c.ID, c.Name, c.MaxLength, c.Format)
		}
		return w.Flush()
	},
}

var tonesCmd = &cobra.Command{
	Use:   "tones",
	Short: "List the campaign tones",
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := loadApp(cmd)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), strings.Join(a.library.Tones(), "\n"))
		return err
	},
}

func init() {
	rootCmd.AddCommand(productsCmd, channelsCmd, tonesCmd)
}
