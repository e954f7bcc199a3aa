package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ctfhound/flagcrawl/pkg/crawler"
)

var (
	version = "1.0.0"

	// Global flags
	configFile string
	verbose    bool
	debug      bool

	// Crawl flags
	port        int
	username    string
	password    string
	quota       int
	loginPath   string
	landingPath string
	rootPath    string
	logoutPath  string
	outputFile  string
	format      string
	pretty      bool
	stateFile   string
	rateLimit   float64
	timeout     int
	userAgent   string

	// Transport flags
	proxyAddr     string
	insecure      bool
	legacyFraming bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "flagcrawl",
		Short: "flagcrawl - Authenticated Flag Harvester",
		Long: `flagcrawl - A protocol-level crawler for session-authenticated web applications.

Performs the form login handshake over a raw TLS connection, then walks the
application breadth-first harvesting flags until the quota is met.`,
		Version: version,
	}

	// Crawl command
	crawlCmd := &cobra.Command{
		Use:   "crawl [server]",
		Short: "Crawl a target server",
		Long:  "Authenticate against the target server and crawl it for flags.",
		Args:  cobra.ExactArgs(1),
		RunE:  runCrawl,
	}

	// Resume command
	resumeCmd := &cobra.Command{
		Use:   "resume [server]",
		Short: "Resume an interrupted crawl",
		Long:  "Re-authenticate and resume a previously interrupted crawl from a saved state file.",
		Args:  cobra.ExactArgs(1),
		RunE:  runResume,
	}

	// Global flags
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Configuration file (YAML or JSON)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Debug mode")

	for _, cmd := range []*cobra.Command{crawlCmd, resumeCmd} {
		cmd.Flags().IntVar(&port, "port", 443, "Target TLS port")
		cmd.Flags().StringVarP(&username, "username", "u", "", "Login username")
		cmd.Flags().StringVarP(&password, "password", "p", "", "Login password")
		cmd.Flags().IntVarP(&quota, "quota", "q", 5, "Flag count that stops the crawl")
		cmd.Flags().StringVar(&loginPath, "login-path", "/accounts/login/", "Path serving the login form")
		cmd.Flags().StringVar(&landingPath, "landing-path", "/", "Redirect target submitted with the login form")
		cmd.Flags().StringVar(&rootPath, "root-path", "/", "Root path pre-marked as explored")
		cmd.Flags().StringVar(&logoutPath, "logout-path", "/accounts/logout/", "Logout path pre-marked as explored")
		cmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output file (default: stdout)")
		cmd.Flags().StringVarP(&format, "format", "f", "text", "Output format (text, json)")
		cmd.Flags().BoolVar(&pretty, "pretty", false, "Indent JSON output")
		cmd.Flags().StringVar(&stateFile, "state-file", "", "State file for persistence")
		cmd.Flags().Float64VarP(&rateLimit, "rate-limit", "r", 0, "Requests per second (0 = unlimited)")
		cmd.Flags().IntVarP(&timeout, "timeout", "t", 0, "Per-read deadline in seconds (0 = none)")
		cmd.Flags().StringVar(&userAgent, "user-agent", "", "User-Agent header (omitted if empty)")
		cmd.Flags().StringVar(&proxyAddr, "proxy", "", "SOCKS5 proxy address (host:port)")
		cmd.Flags().BoolVarP(&insecure, "insecure", "k", false, "Skip TLS certificate verification")
		cmd.Flags().BoolVar(&legacyFraming, "legacy-framing", false, "Frame responses by the legacy two-byte trailer")
	}

	resumeCmd.MarkFlagRequired("state-file")

	rootCmd.AddCommand(crawlCmd)
	rootCmd.AddCommand(resumeCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runCrawl(cmd *cobra.Command, args []string) error {
	return run(cmd, args[0], false)
}

func runResume(cmd *cobra.Command, args []string) error {
	return run(cmd, args[0], true)
}

func run(cmd *cobra.Command, server string, resume bool) error {
	config, err := buildConfig(cmd, server)
	if err != nil {
		return err
	}

	dest := os.Stdout
	if outputFile != "" {
		f, err := os.Create(outputFile)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		dest = f
	}

	c, err := crawler.New(
		crawler.WithConfig(config),
		crawler.WithOutput(dest),
		crawler.WithResume(resume),
	)
	if err != nil {
		return fmt.Errorf("failed to create crawler: %w", err)
	}
	defer c.Close()

	// Setup signal handling
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		fmt.Fprintf(os.Stderr, "\nReceived interrupt signal, stopping...\n")
		cancel()
	}()

	report, err := c.Run(ctx)
	if err != nil && ctx.Err() == nil {
		return fmt.Errorf("crawl failed: %w", err)
	}

	if report != nil && verbose {
		printSummary(report)
	}
	return nil
}

func buildConfig(cmd *cobra.Command, server string) (*crawler.Config, error) {
	config := crawler.DefaultConfig()

	// Load config file first so command-line flags take precedence
	if configFile != "" {
		fileConfig, err := crawler.LoadFromFile(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
		config = fileConfig
	}

	config.Server = server

	if cmd.Flags().Changed("port") {
		config.Port = port
	}
	if cmd.Flags().Changed("username") {
		config.Username = username
	}
	if cmd.Flags().Changed("password") {
		config.Password = password
	}
	if cmd.Flags().Changed("quota") {
		config.Quota = quota
	}
	if cmd.Flags().Changed("login-path") {
		config.LoginPath = loginPath
	}
	if cmd.Flags().Changed("landing-path") {
		config.LandingPath = landingPath
	}
	if cmd.Flags().Changed("root-path") {
		config.RootPath = rootPath
	}
	if cmd.Flags().Changed("logout-path") {
		config.LogoutPath = logoutPath
	}
	if cmd.Flags().Changed("rate-limit") {
		config.RateLimit.RequestsPerSecond = rateLimit
	}
	if cmd.Flags().Changed("timeout") {
		config.Transport.Timeout = time.Duration(timeout) * time.Second
	}
	if cmd.Flags().Changed("user-agent") {
		config.UserAgent = userAgent
	}
	if cmd.Flags().Changed("format") {
		config.Output.Format = format
	}
	if cmd.Flags().Changed("pretty") {
		config.Output.Pretty = pretty
	}
	if cmd.Flags().Changed("state-file") {
		config.StatePath = stateFile
	}
	if cmd.Flags().Changed("proxy") {
		config.Transport.Proxy = proxyAddr
	}
	if cmd.Flags().Changed("insecure") {
		config.Transport.InsecureSkipVerify = insecure
	}
	if cmd.Flags().Changed("legacy-framing") {
		config.Transport.LegacyFraming = legacyFraming
	}

	config.Verbose = verbose
	config.Debug = debug

	return config, nil
}

func printSummary(report *crawler.Report) {
	fmt.Fprintln(os.Stderr)
	fmt.Fprintf(os.Stderr, "Target:          %s\n", report.Target)
	fmt.Fprintf(os.Stderr, "Duration:        %v\n", report.CompletedAt.Sub(report.StartedAt).Round(time.Millisecond))
	fmt.Fprintf(os.Stderr, "Flags Found:     %d\n", len(report.Flags))
	fmt.Fprintf(os.Stderr, "Quota Met:       %v\n", report.QuotaMet)
	fmt.Fprintf(os.Stderr, "Requests:        %d\n", report.Stats.RequestsTotal)
	fmt.Fprintf(os.Stderr, "Retries:         %d\n", report.Stats.RetriesTotal)
	fmt.Fprintf(os.Stderr, "Pages Crawled:   %d\n", report.Stats.PagesCrawled)
	fmt.Fprintf(os.Stderr, "Links Found:     %d\n", report.Stats.LinksDiscovered)
	fmt.Fprintf(os.Stderr, "Bytes Received:  %d\n", report.Stats.BytesTotal)
	fmt.Fprintln(os.Stderr)
}
