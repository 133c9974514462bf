package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/spf13/cobra"

	"autoalt/alt"
)

func (c *cli) newFilterCmd() *cobra.Command {
	var (
		title  string
		report bool
	)
	cmd := &cobra.Command{
		Use:   "filter FILE",
		Short: "Filter one HTML file to stdout ('-' reads stdin)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := c.load()
			if err != nil {
				return err
			}
			data, err := readInput(cmd.InOrStdin(), args[0])
			if err != nil {
				return err
			}
			doc := string(data)
			if !cmd.Flags().Changed("title") {
				title = pageTitle(doc)
			}
			out, rep := alt.New(cfg.Filter, nil).Apply(doc, title)
			if report {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(rep)
			}
			_, err = io.WriteString(cmd.OutOrStdout(), out)
			return err
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "page title (default: the document <title>)")
	cmd.Flags().BoolVar(&report, "report", false, "print the per-tag report as JSON instead of the document")
	return cmd
}

func readInput(stdin io.Reader, name string) ([]byte, error) {
	if name == "-" {
		return io.ReadAll(stdin)
	}
	data, err := os.ReadFile(name)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	return data, nil
}

func pageTitle(doc string) string {
	d, err := goquery.NewDocumentFromReader(strings.NewReader(doc))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(d.Find("head title").First().Text())
}
