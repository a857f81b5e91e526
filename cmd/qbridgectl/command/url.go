package command

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/GriffinCanCode/qbridge/internal/domain/page"
	"github.com/GriffinCanCode/qbridge/internal/domain/resource"
)

func newURLCmd() *cobra.Command {
	var (
		view       string
		theme      string
		identifier string
		path       string
		link       bool
	)

	cmd := &cobra.Command{
		Use:   "url [service] [name]",
		Short: "Build the URL of a resource",
		Long:  `Build the URL a page would use for a resource. Nothing is contacted.`,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := page.ParseView(view)
			if err != nil {
				return err
			}
			if theme == "" {
				theme = page.DefaultTheme
			}
			d := resource.Descriptor{
				Service:    args[0],
				Name:       args[1],
				Identifier: identifier,
				Path:       path,
			}
			fmt.Fprintln(cmd.OutOrStdout(), resource.Build(v, theme, d, link))
			return nil
		},
	}

	cmd.Flags().StringVar(&view, "view", "render", "view context: fetch, render, gateway or domainMap")
	cmd.Flags().StringVar(&theme, "theme", "", "theme appended to links")
	cmd.Flags().StringVar(&identifier, "identifier", "", "resource identifier")
	cmd.Flags().StringVar(&path, "path", "", "file path inside the resource")
	cmd.Flags().BoolVar(&link, "link", false, "build a navigable link")
	return cmd
}
