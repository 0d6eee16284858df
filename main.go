// Package main provides the entry point for xvpnctl, a command-line
// client for the vendor VPN's native messaging helper. It speaks the
// browser extension's framed JSON protocol over the helper's stdio and
// exposes the connection workflows as shell commands.
//
// Usage:
//
//	xvpnctl [options]
//
// Environment:
//
//	The VPN application's native messaging host must be installed; its
//	manifest is discovered in the standard browser directories.
package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/yllada/xvpnctl/cli"
	"github.com/yllada/xvpnctl/common"
	"github.com/yllada/xvpnctl/config"
	"github.com/yllada/xvpnctl/manifest"
	"github.com/yllada/xvpnctl/nativemsg"
	"github.com/yllada/xvpnctl/notify"
	"github.com/yllada/xvpnctl/xvpn"
)

// Build-time variables injected via ldflags (-X main.appVersion=x.y.z)
var (
	appVersion = "dev"
	buildTime  = "unknown"
	commitSHA  = "unknown"
)

var (
	// General flags
	showVersion = flag.Bool("version", false, "Show version and exit")
	verbose     = flag.Bool("verbose", false, "Enable verbose logging")
	showHelp    = flag.Bool("help", false, "Show help message")
	helperName  = flag.String("helper", "", "Native messaging host name (overrides config)")

	// Command flags
	showStatus    = flag.Bool("status", false, "Show current connection status")
	connectTarget = flag.String("connect", "", "Connect to a location by name, country, or id")
	doConnect     = flag.Bool("connect-smart", false, "Connect to the smart location")
	doDisconnect  = flag.Bool("disconnect", false, "Disconnect from the VPN")
	listLocations = flag.Bool("locations", false, "List available locations")
	watchStatus   = flag.Bool("watch", false, "Live status view")
	alfredMode    = flag.Bool("alfred", false, "Emit Alfred script filter JSON")
)

func main() {
	flag.Parse()

	if *showHelp {
		cli.PrintHelp()
		os.Exit(0)
	}

	if *showVersion {
		fmt.Printf("%s v%s\n", common.AppName, appVersion)
		if buildTime != "unknown" {
			fmt.Printf("  Build:  %s\n", buildTime)
			fmt.Printf("  Commit: %s\n", commitSHA)
		}
		os.Exit(0)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: using default configuration: %v\n", err)
		cfg = config.DefaultConfig()
	}
	if *helperName != "" {
		cfg.HelperName = *helperName
	}

	logLevel := common.ParseLevel(cfg.LogLevel)
	if *verbose {
		logLevel = common.LevelDebug
	}
	if err := common.InitLogger(common.LogConfig{
		Level:      logLevel,
		EnableFile: cfg.LogToFile,
	}); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not initialize file logging: %v\n", err)
	}
	defer common.CloseLogger()

	logger := common.GetLogger()

	if !*showStatus && *connectTarget == "" && !*doConnect && !*doDisconnect &&
		!*listLocations && !*watchStatus {
		cli.PrintHelp()
		os.Exit(0)
	}

	resolver := manifest.Resolver{}
	m, err := resolver.Resolve(cfg.HelperName)
	if err != nil {
		fatal("Could not find the native messaging host %q: %v", cfg.HelperName, err)
	}
	logger.Debug("Using manifest %s (helper %s)", m.SourcePath, m.Path)

	transport := nativemsg.NewTransport(logger, common.MaxMessageSize)
	if err := transport.Start(m); err != nil {
		fatal("Could not start the helper: %v", err)
	}

	client := xvpn.NewClient(transport, logger, cfg.ResponseTimeout)
	defer client.Close()

	// SIGINT/SIGTERM closes the helper's stdin; pending waits fail over
	// the transport's done channel.
	setupSignalHandler(client, logger)

	if err := client.WaitUntilReady(cfg.ResponseTimeout); err != nil {
		fatal("The helper did not answer: %v", err)
	}

	notifier := notify.New(cfg.ShowNotifications && !*alfredMode, logger)
	defer notifier.Close()

	app := cli.New(client, cfg, notifier, *alfredMode)

	var cmdErr error
	switch {
	case *showStatus:
		cmdErr = app.Status()
	case *connectTarget != "" || *doConnect:
		cmdErr = app.Connect(*connectTarget)
	case *doDisconnect:
		cmdErr = app.Disconnect()
	case *listLocations:
		cmdErr = app.Locations(flag.Arg(0))
	case *watchStatus:
		cmdErr = app.Watch()
	}

	if cmdErr != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", cmdErr)
		os.Exit(1)
	}
}

// setupSignalHandler closes the client on SIGINT/SIGTERM so the helper
// sees EOF and exits.
func setupSignalHandler(client *xvpn.Client, logger common.Logger) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		logger.Info("Received signal %v, shutting down", sig)
		client.Close()
		os.Exit(130)
	}()
}

func fatal(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	os.Exit(1)
}
