// sfctl is a CLI tool for driving storefront sessions.
// Each command performs a single operation, making it composable for scripts.
//
// Examples:
//
//	ID=$(sfctl new-session --visitor v1 --session s1 -q)
//	sfctl dispatch $ID ADD_TO_CART '{"product":{"data":{"sku":"123","price":"9.99"}},"quantity":1}'
//	sfctl dispatch $ID CREATE_CART '{}'
//	sfctl sync $ID
//	sfctl cart $ID
//	sfctl url acme navigations --suffix Popular
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/dunglas/httpsfv"
	"github.com/spf13/cobra"

	"storefront/internal/actions"
	"storefront/internal/adapter"
	"storefront/internal/config"
	"storefront/internal/middleware"
)

var client = &http.Client{Timeout: 30 * time.Second}

// Global flags (apply to all commands)
var (
	serverURL string
	visitorID string
	sessionID string
	quiet     bool
	noColor   bool
	verbose   bool
)

// ANSI color codes
var (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorCyan   = "\033[36m"
	colorGray   = "\033[90m"
)

func disableColors() {
	colorReset, colorRed, colorGreen, colorYellow, colorCyan, colorGray = "", "", "", "", "", ""
}

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "sfctl",
	Short: "Drive storefront sessions from the command line",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if noColor || os.Getenv("NO_COLOR") != "" {
			disableColors()
		}
	},
	SilenceUsage: true,
}

var newSessionCmd = &cobra.Command{
	Use:   "new-session",
	Short: "Open a new session and print its ID",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		resp, err := doRequest(http.MethodPost, "/sessions", nil)
		if err != nil {
			return fmt.Errorf("creating session: %w", err)
		}
		id, _ := resp["id"].(string)
		if quiet {
			fmt.Println(id)
			return nil
		}
		printSuccess("Session created")
		fmt.Printf("  ID: %s%s%s\n", colorCyan, id, colorReset)
		return nil
	},
}

var dispatchCmd = &cobra.Command{
	Use:   "dispatch <session-id> <ACTION_TYPE> [payload-json]",
	Short: "Dispatch an action to a session",
	Long: `Dispatch an action to a session and print the resulting state.

Known action types are listed by 'sfctl types'. Unknown types are sent as-is;
the server ignores them.`,
	Args: cobra.RangeArgs(2, 3),
	RunE: func(cmd *cobra.Command, args []string) error {
		payload := "{}"
		if len(args) == 3 {
			payload = args[2]
		}
		envelope, err := buildEnvelope(actions.Type(args[1]), payload)
		if err != nil {
			return err
		}
		if !actions.Known(actions.Type(args[1])) {
			printWarning("%s is not a known action type; it will be a no-op", args[1])
		}

		resp, err := doRequest(http.MethodPost, sessionPath(args[0], "actions"), envelope)
		if err != nil {
			return fmt.Errorf("dispatching action: %w", err)
		}
		printSuccess("Dispatched %s", args[1])
		return printJSON(resp)
	},
}

var stateCmd = &cobra.Command{
	Use:   "state <session-id>",
	Short: "Print the full state tree of a session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return getAndPrint(sessionPath(args[0], "state"))
	},
}

var cartCmd = &cobra.Command{
	Use:   "cart <session-id>",
	Short: "Print the cart of a session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return getAndPrint(sessionPath(args[0], "cart"))
	},
}

var syncCmd = &cobra.Command{
	Use:   "sync <session-id>",
	Short: "Pull the server cart into a session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		resp, err := doRequest(http.MethodPost, sessionPath(args[0], "cart/sync"), nil)
		if err != nil {
			return fmt.Errorf("syncing cart: %w", err)
		}
		printSuccess("Cart synced")
		return printJSON(resp)
	},
}

var refreshCmd = &cobra.Command{
	Use:   "refresh-navigations <session-id>",
	Short: "Reload popular navigations for a session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		resp, err := doRequest(http.MethodPost, sessionPath(args[0], "navigations/refresh"), nil)
		if err != nil {
			return fmt.Errorf("refreshing navigations: %w", err)
		}
		printSuccess("Navigations refreshed")
		return printJSON(resp)
	},
}

var typesCmd = &cobra.Command{
	Use:   "types",
	Short: "List the action types the server understands",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		for _, t := range actions.Types() {
			fmt.Fprintln(cmd.OutOrStdout(), t)
		}
	},
}

var (
	urlDomain string
	urlSuffix string
	urlCart   bool
)

var urlCmd = &cobra.Command{
	Use:   "url <customer-id> [scope]",
	Short: "Print the upstream URL the service calls for a customer",
	Long: `Print a recommendations endpoint URL, or the cart service URL with --cart.

Examples:
  sfctl url acme navigations --suffix Popular
  sfctl url acme --cart --domain example.com`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if urlCart {
			fmt.Fprintln(cmd.OutOrStdout(), adapter.CartURL(args[0], urlDomain))
			return nil
		}
		if len(args) < 2 {
			return fmt.Errorf("scope is required for recommendations URLs")
		}
		fmt.Fprintln(cmd.OutOrStdout(), adapter.BuildURL(args[0], urlDomain, args[1], urlSuffix))
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "http://localhost:8080", "Storefront service base URL")
	rootCmd.PersistentFlags().StringVar(&visitorID, "visitor", "", "Visitor ID sent in the tracker header")
	rootCmd.PersistentFlags().StringVar(&sessionID, "session", "", "Browsing session ID sent in the tracker header")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Quiet mode - only output IDs and JSON")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Show requests and timings")

	urlCmd.Flags().StringVar(&urlDomain, "domain", "", "Upstream domain (default "+config.DefaultDomain+")")
	urlCmd.Flags().StringVar(&urlSuffix, "suffix", "", "Endpoint suffix appended to _get")
	urlCmd.Flags().BoolVar(&urlCart, "cart", false, "Print the cart service URL instead")

	rootCmd.AddCommand(newSessionCmd, dispatchCmd, stateCmd, cartCmd, syncCmd, refreshCmd, typesCmd, urlCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "%s✗ %v%s\n", colorRed, err, colorReset)
		os.Exit(1)
	}
}

// buildEnvelope validates payload as JSON and wraps it in an action envelope.
func buildEnvelope(t actions.Type, payload string) (map[string]any, error) {
	if t == "" {
		return nil, fmt.Errorf("action type is required")
	}
	var raw json.RawMessage
	if err := json.Unmarshal([]byte(payload), &raw); err != nil {
		return nil, fmt.Errorf("payload is not valid JSON: %w", err)
	}
	return map[string]any{"type": t, "payload": raw}, nil
}

// trackerHeader renders the visitor and session flags as an RFC 8941 dictionary.
// Returns "" when neither is set.
func trackerHeader(visitor, session string) (string, error) {
	dict := httpsfv.NewDictionary()
	if visitor != "" {
		dict.Add("visitor", httpsfv.NewItem(visitor))
	}
	if session != "" {
		dict.Add("session", httpsfv.NewItem(session))
	}
	if len(dict.Names()) == 0 {
		return "", nil
	}
	return httpsfv.Marshal(dict)
}

func sessionPath(id, suffix string) string {
	return "/sessions/" + url.PathEscape(id) + "/" + suffix
}

func getAndPrint(path string) error {
	resp, err := doRequest(http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	return printJSON(resp)
}

func doRequest(method, path string, body interface{}) (map[string]interface{}, error) {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshaling request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, serverURL+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	header, err := trackerHeader(visitorID, sessionID)
	if err != nil {
		return nil, fmt.Errorf("building tracker header: %w", err)
	}
	if header != "" {
		req.Header.Set(middleware.TrackerHeader, header)
	}

	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if verbose {
		printInfo("%s %s → %d (%s)", method, path, resp.StatusCode, time.Since(start).Round(time.Millisecond))
	}

	var out map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}
	if resp.StatusCode >= 400 {
		if e, ok := out["error"].(map[string]interface{}); ok {
			return nil, fmt.Errorf("%v: %v", e["code"], e["message"])
		}
		return nil, fmt.Errorf("HTTP %d", resp.StatusCode)
	}
	return out, nil
}

func printJSON(v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}

func printSuccess(format string, args ...interface{}) {
	if !quiet {
		fmt.Printf("%s✓ %s%s\n", colorGreen, fmt.Sprintf(format, args...), colorReset)
	}
}

func printWarning(format string, args ...interface{}) {
	if !quiet {
		fmt.Printf("%s⚠ %s%s\n", colorYellow, fmt.Sprintf(format, args...), colorReset)
	}
}

func printInfo(format string, args ...interface{}) {
	if !quiet {
		fmt.Printf("%s→ %s%s\n", colorGray, fmt.Sprintf(format, args...), colorReset)
	}
}
