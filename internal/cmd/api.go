package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/spotifyweb/spotify-cli/internal/api"
	"github.com/spotifyweb/spotify-cli/internal/iocontext"
)

func newAPICmd() *cobra.Command {
	var (
		method    string
		params    []string
		fields    []string
		rawFields []string
		inputFile string
		jsonBody  string
		silent    bool
		paged     bool
		pageKey   string
		pf        pageFlags
	)

	cmd := &cobra.Command{
		Use:   "api <path>",
		Short: "Make raw requests to any Web API endpoint",
		Long: strings.TrimSpace(`
Make raw requests to any Web API endpoint.

The path is relative to the API root (https://api.spotify.com/v1/), so
"me/top/artists" requests https://api.spotify.com/v1/me/top/artists. Query
parameters go in --param; request bodies are built from --field, --raw-field,
--body or --input.

With --paged the response is treated as a paging object and the paging flags
apply. Use --page-key when the page is nested under a key of the response,
as in search results.
`),
		Example: strings.TrimSpace(`
  # GET request (default)
  spotify api me

  # Query parameters
  spotify api search -p q=radiohead -p type=artist -p limit=5

  # Every followed artist of a nested page
  spotify api me/following -p type=artist --paged --page-key artists --all

  # PUT with a JSON body
  spotify api me/player/shuffle -X PUT -p state=true --silent

  # Body fields
  spotify api playlists/37i9dQZF1DXcBWIGoYBM5M/tracks -X DELETE -F 'tracks=[{"uri":"spotify:track:11dFghVXANMlKmJXsNCbNl"}]'

  # Filter with jq
  spotify api me/playlists --paged --all --jq '.[].name'
`),
		Args: cobra.ExactArgs(1),
		RunE: RunE(func(cmd *cobra.Command, args []string) error {
			method = strings.ToUpper(method)
			switch method {
			case http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
			default:
				return fmt.Errorf("invalid HTTP method %q: must be one of GET, POST, PUT, PATCH, DELETE", method)
			}
			if jsonBody != "" && inputFile != "" {
				return fmt.Errorf("--body conflicts with --input")
			}
			if pageKey != "" && !paged {
				return fmt.Errorf("--page-key requires --paged")
			}

			query, err := buildQueryParams(params)
			if err != nil {
				return err
			}
			payload, err := buildRequestBody(fields, rawFields, inputFile, jsonBody, iocontext.GetIO(cmd.Context()).In)
			if err != nil {
				return err
			}
			var body *api.Body
			if payload != nil {
				if body, err = api.JSONBody(payload); err != nil {
					return err
				}
			}

			ep := api.RawEndpoint{
				HTTPMethod: method,
				RelPath:    apiPath(args[0]),
				Base:       api.URLBaseAPIV1,
				Params:     query,
				Payload:    body,
			}

			ctx := cmdContext(cmd)
			client, err := getClient(ctx)
			if err != nil {
				return err
			}

			if paged {
				if method != http.MethodGet {
					return fmt.Errorf("--paged must be used with GET")
				}
				pagination, err := pf.pagination(cmd)
				if err != nil {
					return err
				}
				return printRawPages(cmd, client, api.NewPaged(api.RawPageable{RawEndpoint: ep, Key: pageKey}, pagination), silent)
			}

			if method != http.MethodGet {
				if stop, err := previewWrite(cmd, client, "send", method+" "+ep.RelPath, ep); stop {
					return err
				}
			}

			respBody, err := api.Raw(ctx, ep, client)
			if err != nil {
				return err
			}
			if info := client.LastRateLimit(); info != nil {
				warnf(ctx, "rate limited %d time(s), last Retry-After %s", info.Retried+1, info.RetryAfter)
			}
			if silent {
				return nil
			}
			if isJSON(cmd) {
				return printJSON(cmd, apiJSONBody(respBody))
			}
			writeRawBody(cmd.OutOrStdout(), respBody)
			return nil
		}),
	}

	cmd.Flags().StringVarP(&method, "method", "X", http.MethodGet, "HTTP method (GET, POST, PUT, PATCH, DELETE)")
	cmd.Flags().StringArrayVarP(&params, "param", "p", nil, "Query parameter as key=value (repeatable)")
	cmd.Flags().StringArrayVarP(&fields, "field", "f", nil, "Request body field as key=value (string)")
	cmd.Flags().StringArrayVarP(&rawFields, "raw-field", "F", nil, "Request body field as key=value (JSON parsed)")
	cmd.Flags().StringVarP(&inputFile, "input", "i", "", "Read request body from file (use - for stdin)")
	cmd.Flags().StringVarP(&jsonBody, "body", "d", "", "Request body as inline JSON string")
	cmd.Flags().BoolVarP(&silent, "silent", "s", false, "Suppress output")
	cmd.Flags().BoolVar(&paged, "paged", false, "Treat the response as a paging object and follow it")
	cmd.Flags().StringVar(&pageKey, "page-key", "", "Key the paging object is nested under (with --paged)")
	addPageFlags(cmd, &pf)

	return cmd
}

// apiPath makes p relative to the API root.
func apiPath(p string) string {
	p = strings.TrimSpace(p)
	p = strings.TrimPrefix(p, "/")
	return strings.TrimPrefix(p, "v1/")
}

func buildQueryParams(params []string) (*api.QueryParams, error) {
	if len(params) == 0 {
		return nil, nil
	}
	q := api.NewQueryParams()
	for _, p := range params {
		key, value, err := parseField(p)
		if err != nil {
			return nil, err
		}
		q.Push(key, value)
	}
	return q, nil
}

// printRawPages prints the items of a raw paged request. Text output gets one
// compact JSON document per line.
func printRawPages(cmd *cobra.Command, client api.Client, p api.Paged[api.RawPageable], silent bool) error {
	ctx := cmdContext(cmd)
	f := newFormatter(cmd)
	items := []json.RawMessage{}
	for item, err := range api.Iterate[json.RawMessage](p, client).All(ctx) {
		if err != nil {
			return err
		}
		switch {
		case silent:
		case f.Streaming():
			if err := f.Item(item); err != nil {
				return err
			}
		case isJSON(cmd):
			items = append(items, item)
		default:
			var compact bytes.Buffer
			if err := json.Compact(&compact, item); err != nil {
				compact.Reset()
				compact.Write(item)
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), compact.String())
		}
	}
	if silent || f.Streaming() || !isJSON(cmd) {
		return nil
	}
	return f.Output(items)
}

func writeRawBody(out io.Writer, body []byte) {
	if len(body) == 0 {
		return
	}
	var pretty bytes.Buffer
	if err := json.Indent(&pretty, body, "", "  "); err == nil {
		_, _ = fmt.Fprintln(out, pretty.String())
		return
	}
	_, _ = fmt.Fprintln(out, string(body))
}

func apiJSONBody(respBody []byte) any {
	if len(respBody) == 0 {
		return nil
	}
	if !json.Valid(respBody) {
		return string(respBody)
	}
	return json.RawMessage(respBody)
}

// buildRequestBody constructs the request body from fields and/or input file/inline JSON
func buildRequestBody(fields, rawFields []string, inputFile, jsonBody string, stdin io.Reader) (map[string]any, error) {
	body := make(map[string]any)

	if jsonBody != "" {
		if err := json.Unmarshal([]byte(jsonBody), &body); err != nil {
			return nil, fmt.Errorf("failed to parse --body JSON: %w", err)
		}
	}

	if inputFile != "" {
		var (
			inputData []byte
			err       error
		)
		if inputFile == "-" {
			inputData, err = io.ReadAll(stdin)
		} else {
			inputData, err = os.ReadFile(inputFile)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read input: %w", err)
		}
		if err := json.Unmarshal(inputData, &body); err != nil {
			return nil, fmt.Errorf("failed to parse input JSON: %w", err)
		}
	}

	for _, field := range fields {
		key, value, err := parseField(field)
		if err != nil {
			return nil, err
		}
		body[key] = value
	}

	for _, field := range rawFields {
		key, raw, err := parseField(field)
		if err != nil {
			return nil, err
		}
		var value any
		if err := json.Unmarshal([]byte(raw), &value); err != nil {
			// Not JSON; keep the string.
			value = raw
		}
		body[key] = value
	}

	if len(body) == 0 {
		return nil, nil
	}
	return body, nil
}

// parseField splits a key=value pair.
func parseField(field string) (string, string, error) {
	key, value, ok := strings.Cut(field, "=")
	if !ok || strings.TrimSpace(key) == "" {
		return "", "", fmt.Errorf("invalid field format %q: must be key=value", field)
	}
	return strings.TrimSpace(key), value, nil
}
