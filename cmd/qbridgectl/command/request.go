package command

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/go-resty/resty/v2"
	"github.com/spf13/cobra"
)

func newRequestCmd(opts *options) *cobra.Command {
	var (
		fields  []string
		service string
		name    string
		view    string
		timeout time.Duration
		sync    bool
	)

	cmd := &cobra.Command{
		Use:   "request [action]",
		Short: "Send a request through the bridge",
		Long: `Send a request through the bridge and print the reply envelope.

Fields are given as key=value. Values that parse as JSON (numbers, booleans,
arrays) are sent as such; anything else is sent as a string.

  qbridgectl request GET_NAME_DATA -f name=alice
  qbridgectl request SEARCH_QDN_RESOURCES -f service=WEBSITE -f limit=5 --sync`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := parseFields(fields)
			if err != nil {
				return err
			}
			req["action"] = args[0]

			body := map[string]any{
				"request": req,
				"service": service,
				"name":    name,
				"view":    view,
				"timeout": timeout.Milliseconds(),
			}
			path := "/request"
			if sync {
				path = "/request/sync"
			}

			resp, err := opts.client().R().
				SetContext(cmd.Context()).
				SetBody(body).
				Post(path)
			if err != nil {
				return fmt.Errorf("request failed: %w", err)
			}
			return printJSON(cmd.OutOrStdout(), resp)
		},
	}

	cmd.Flags().StringArrayVarP(&fields, "field", "f", nil, "request field as key=value (repeatable)")
	cmd.Flags().StringVar(&service, "service", "", "service of the page the request is made for")
	cmd.Flags().StringVar(&name, "name", "", "name of the page the request is made for")
	cmd.Flags().StringVar(&view, "view", "", "view context of the page")
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "reply timeout; zero uses the action default")
	cmd.Flags().BoolVar(&sync, "sync", false, "answer without waiting on the UI layer")
	return cmd
}

func parseFields(fields []string) (map[string]any, error) {
	out := make(map[string]any, len(fields))
	for _, f := range fields {
		key, raw, ok := strings.Cut(f, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid field %q, want key=value", f)
		}
		var v any
		if err := sonic.UnmarshalString(raw, &v); err != nil {
			v = raw
		}
		out[key] = v
	}
	return out, nil
}

func printJSON(w io.Writer, resp *resty.Response) error {
	var buf bytes.Buffer
	if err := json.Indent(&buf, resp.Body(), "", "  "); err != nil {
		buf.Reset()
		buf.Write(resp.Body())
	}
	fmt.Fprintln(w, buf.String())
	if resp.IsError() {
		return fmt.Errorf("bridge returned %s", resp.Status())
	}
	return nil
}
