package command

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newResolveCmd(opts *options) *cobra.Command {
	var (
		view  string
		theme string
		link  bool
	)

	cmd := &cobra.Command{
		Use:   "resolve [qortal://link]",
		Short: "Resolve a qortal:// link",
		Long:  `Ask the bridge to split a qortal:// link into service, name, identifier and path.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := opts.client().R().
				SetContext(cmd.Context()).
				SetBody(map[string]any{
					"href":  args[0],
					"view":  view,
					"theme": theme,
					"link":  link,
				}).
				Post("/resolve")
			if err != nil {
				return fmt.Errorf("resolve failed: %w", err)
			}
			return printJSON(cmd.OutOrStdout(), resp)
		},
	}

	cmd.Flags().StringVar(&view, "view", "", "view context used to build the URL")
	cmd.Flags().StringVar(&theme, "theme", "", "theme appended to links")
	cmd.Flags().BoolVar(&link, "link", false, "build a navigable link")
	return cmd
}
