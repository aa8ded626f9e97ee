// cmd_summary.go - Knotentabelle einer Architektur
// Hauptfunktionen: SummaryHandler
package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/ganrec/ganrec/model"
)

// SummaryHandler - Baut die Architektur und listet Pfad, Block, Shape und Parameter
func SummaryHandler(cmd *cobra.Command, args []string) error {
	c, err := configFromFlags(cmd)
	if err != nil {
		return err
	}

	seed, err := seedFromFlags(cmd)
	if err != nil {
		return err
	}

	g, err := model.New(args[0], c, model.WithSeed(seed))
	if err != nil {
		return err
	}

	var data [][]string
	for _, n := range g.Nodes() {
		params := "-"
		if n.NumParams() > 0 {
			params = strconv.Itoa(n.NumParams())
		}
		data = append(data, []string{n.Path(), n.Kind(), formatShape(n.Shape()), params})
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s (%s)\n\n", g.Name(), g.ID())

	table := tablewriter.NewWriter(out)
	table.SetHeader([]string{"PATH", "BLOCK", "SHAPE", "PARAMS"})
	table.SetFooter([]string{"", "", fmt.Sprintf("%d nodes", len(g.Nodes())), strconv.Itoa(g.NumParams())})
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetFooterAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetAutoFormatHeaders(false)
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetNoWhiteSpace(true)
	table.SetTablePadding("    ")
	table.AppendBulk(data)
	table.Render()

	return nil
}

// formatShape - Shape pro Sample mit fuehrender Batch-Achse, z.B. (N, 64, 64, 1)
func formatShape(dims []int) string {
	parts := []string{"N"}
	for _, d := range dims {
		parts = append(parts, strconv.Itoa(d))
	}
	return "(" + strings.Join(parts, ", ") + ")"
}
