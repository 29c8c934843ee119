// Package cli implements the trackloader command.
package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/tansive/trackcatalog/internal/common/httpclient"
	"github.com/tansive/trackcatalog/internal/common/logtrace"
	"github.com/tansive/trackcatalog/internal/loader/trackclient"
)

const Version = "v1.0.0"

type rootOptions struct {
	configFile string
	apiURL     string
	logfile    string
	quiet      bool
	jsonOutput bool

	config  *Config
	logSink io.Closer
}

// NewRootCmd builds the trackloader command tree.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:   "trackloader",
		Short: "Load genome browser tracks into the track catalog",
		Long: `trackloader submits track descriptions built from templates to the track API,
registers track types, removes the tracks of a genome and deploys track files.`,
		SilenceErrors:      true,
		SilenceUsage:       true,
		PersistentPreRunE:  opts.preRun,
		PersistentPostRunE: opts.postRun,
	}
	cmd.PersistentFlags().StringVar(&opts.configFile, "config", "", "Path to a YAML configuration file")
	cmd.PersistentFlags().StringVar(&opts.apiURL, "api-url", "", "Track API url (default $"+EnvAPIURL+")")
	cmd.PersistentFlags().StringVar(&opts.logfile, "logfile", DefaultLogfile, "Also write the log to this file, empty to disable")
	cmd.PersistentFlags().BoolVarP(&opts.quiet, "quiet", "q", false, "Do not log to the console")
	cmd.PersistentFlags().BoolVarP(&opts.jsonOutput, "json", "j", false, "Output results in JSON format")

	cmd.AddCommand(
		newSubmitCmd(opts),
		newDeleteCmd(opts),
		newTypesCmd(opts),
		newDeployCmd(opts),
		newVersionCmd(opts),
	)
	return cmd
}

// Execute runs the command line and returns the exit code.
func Execute() int {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func (o *rootOptions) preRun(cmd *cobra.Command, _ []string) error {
	c, err := LoadConfig(o.configFile)
	if err != nil {
		return err
	}
	if o.apiURL != "" {
		c.APIURL = o.apiURL
	}
	c.applyEnv()
	o.config = c

	var sink io.Writer
	if o.logfile != "" {
		f, err := os.OpenFile(o.logfile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("unable to open log file: %w", err)
		}
		sink = f
		o.logSink = f
	}
	logtrace.InitConsoleLogger(o.quiet, sink)
	cmd.SetContext(log.Logger.WithContext(cmd.Context()))
	return nil
}

func (o *rootOptions) postRun(_ *cobra.Command, _ []string) error {
	if o.logSink != nil {
		return o.logSink.Close()
	}
	return nil
}

// client connects to the track API named in the config.
func (o *rootOptions) client() (*trackclient.Client, error) {
	url, err := o.config.ServerURL()
	if err != nil {
		return nil, err
	}
	timeout := o.config.Timeout
	if timeout == 0 {
		timeout = 60 * time.Second
	}
	doer, err := httpclient.NewHTTPClient(url, httpclient.WithRequestTimeout(timeout))
	if err != nil {
		return nil, err
	}
	return trackclient.New(doer), nil
}

func (o *rootOptions) printJSON(cmd *cobra.Command, data any) error {
	b, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(b))
	return nil
}

func newVersionCmd(o *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number of trackloader",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if o.jsonOutput {
				return o.printJSON(cmd, map[string]string{"version": Version})
			}
			fmt.Fprintln(cmd.OutOrStdout(), "trackloader "+Version)
			return nil
		},
	}
}

var errLocalFailures = errors.New("some tracks could not be prepared")
