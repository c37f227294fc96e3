package main

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"

	"github.com/launchdarkly/xhr-contract-tests/framework"

	"github.com/alessio/shellescape"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"gopkg.in/launchdarkly/go-sdk-common.v2/ldvalue"
)

const (
	defaultHost = "localhost"
	defaultPort = 8000
)

type commandParams struct {
	host        string
	port        ldvalue.OptionalInt
	path        string
	targetURL   string
	preferNode  bool
	forceDef    bool
	verbose     bool
	commandLine commandBuilder
}

// newRootCommand builds the command line parser. Parsed and validated values are stored in
// params before run is called.
func newRootCommand(params *commandParams, run func(cmd *cobra.Command) error) *cobra.Command {
	var portText string
	cmd := &cobra.Command{
		Use:   "xhr-contract-tests [flags] [URL]",
		Short: "Run the XMLHttpRequest and FormData contract tests against a target server",
		Long: `Run the XMLHttpRequest and FormData contract tests against a target server.

The target server is given either as a single absolute http or https URL, or with
--host, --port and --path. With no arguments, http://localhost:8000 is used.`,
		Version:       version,
		SilenceErrors: true,
		SilenceUsage:  true,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) > 1 {
				return fmt.Errorf("expected at most one target URL, got %d: %s", len(args), strings.Join(args, " "))
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := params.validate(cmd, portText, args); err != nil {
				return err
			}
			return run(cmd)
		},
	}
	cmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return errors.New(firstLine(err.Error()))
	})

	addFlags(cmd.Flags(), params, &portText)
	return cmd
}

func addFlags(fs *pflag.FlagSet, params *commandParams, portText *string) {
	fs.SortFlags = false
	fs.StringVar(&params.host, "host", defaultHost, "hostname of the target server")
	fs.StringVar(portText, "port", strconv.Itoa(defaultPort), "port of the target server")
	fs.StringVar(&params.path, "path", "", "base path of the target server")
	fs.BoolVarP(&params.preferNode, "node", "n", false, "prefer the Go test runner facility if one is registered; the standalone binary has none, so it always uses the built-in runner")
	fs.BoolVarP(&params.forceDef, "def", "d", false, "always use the built-in sequential runner")
	fs.BoolVarP(&params.verbose, "verbose", "v", false, "print a line for every test and a summary at the end")
}

func (c *commandParams) validate(cmd *cobra.Command, portText string, args []string) error {
	for _, name := range []string{"host", "port", "path"} {
		if !cmd.Flags().Changed(name) {
			continue
		}
		value := cmd.Flags().Lookup(name).Value.String()
		if value == "" {
			return fmt.Errorf("option --%s requires a non-empty value", name)
		}
		if strings.HasPrefix(value, "-") {
			return fmt.Errorf("option --%s requires a value, but got option %q", name, value)
		}
		if len(args) > 0 {
			return fmt.Errorf("option --%s cannot be combined with a target URL", name)
		}
	}
	if c.preferNode && c.forceDef {
		return errors.New("options --node and --def cannot be used together")
	}

	if cmd.Flags().Changed("port") {
		port, err := strconv.Atoi(portText)
		if err != nil || port < 1 || port > 65535 {
			return fmt.Errorf("invalid port %q: must be a number from 1 to 65535", portText)
		}
		c.port = ldvalue.NewOptionalInt(port)
	}

	if len(args) == 1 {
		if strings.HasPrefix(args[0], "-") {
			return fmt.Errorf("unknown option %q", args[0])
		}
		u, err := parseTargetURL(args[0])
		if err != nil {
			return err
		}
		c.targetURL = u
	} else {
		u, err := parseTargetURL(c.composedURL())
		if err != nil {
			return err
		}
		c.targetURL = u
	}
	return nil
}

func (c *commandParams) composedURL() string {
	path := c.path
	if path != "" && !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	hostPort := net.JoinHostPort(c.host, strconv.Itoa(c.port.OrElse(defaultPort)))
	return "http://" + hostPort + path
}

// parseTargetURL checks that s is an absolute http or https URL, and returns it without any
// trailing slash.
func parseTargetURL(s string) (string, error) {
	u, err := url.Parse(s)
	if err != nil {
		return "", fmt.Errorf("invalid target URL %q", s)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" || u.Hostname() == "" {
		return "", fmt.Errorf("invalid target URL %q: must be an absolute http or https URL", s)
	}
	if p := u.Port(); p != "" {
		if n, err := strconv.Atoi(p); err != nil || n < 1 || n > 65535 {
			return "", fmt.Errorf("invalid target URL %q: bad port", s)
		}
	}
	if u.Fragment != "" || u.RawQuery != "" {
		return "", fmt.Errorf("invalid target URL %q: must not have a query or fragment", s)
	}
	return strings.TrimRight(u.String(), "/"), nil
}

func (c *commandParams) config() framework.Config {
	return framework.Config{
		ServerURL:             c.targetURL,
		PreferAdvancedBackend: c.preferNode,
		Verbose:               c.verbose,
	}
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

type commandBuilder []string

func (b *commandBuilder) add(args ...string) {
	for _, a := range args {
		*b = append(*b, shellescape.Quote(a))
	}
}

func (b commandBuilder) String() string {
	return strings.Join(b, " ")
}
