package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/eleven-am/careflow/internal/bootstrap"
	"github.com/eleven-am/careflow/internal/device"
	"github.com/eleven-am/careflow/internal/events"
	"github.com/eleven-am/careflow/internal/monitor"
	"github.com/eleven-am/careflow/internal/vision"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "monitor",
	Short: "careflow monitor - camera observations and care-plan events",
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Open a camera locally and print each status as it changes",
	RunE:  runWatch,
}

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Inspect care-plan events on a running server",
}

var eventsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List events, earliest deadline first",
	RunE:  runEventsList,
}

var eventsUpdateCmd = &cobra.Command{
	Use:   "update <id> <pending|completed|missed>",
	Short: "Change an event's status",
	Args:  cobra.ExactArgs(2),
	RunE:  runEventsUpdate,
}

var (
	fileFlag     string
	intervalFlag time.Duration
	historyFlag  int
	apiFlag      string
)

func init() {
	watchCmd.Flags().StringVarP(&fileFlag, "file", "f", "", "Use a still image instead of the webcam")
	watchCmd.Flags().DurationVarP(&intervalFlag, "interval", "i", 0, "Capture interval (default CAPTURE_INTERVAL)")
	watchCmd.Flags().IntVar(&historyFlag, "history", 0, "Records sent as context (default HISTORY_LEN)")
	eventsCmd.PersistentFlags().StringVar(&apiFlag, "api", "http://localhost:8080", "Server base URL")
	eventsCmd.AddCommand(eventsListCmd, eventsUpdateCmd)
	rootCmd.AddCommand(watchCmd, eventsCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg := bootstrap.LoadConfig()
	if intervalFlag > 0 {
		cfg.CaptureInterval = intervalFlag
	}
	if historyFlag > 0 {
		cfg.HistoryLen = historyFlag
	}
	logger := bootstrap.ProvideLogger(cfg)

	inferrer, err := vision.New(bootstrap.InferenceConfig(cfg))
	if err != nil {
		return err
	}

	var dev device.Device = device.NewWebcam(bootstrap.WebcamConfig(cfg, logger))
	label := "webcam"
	if fileFlag != "" {
		dev = &device.ImageFile{Path: fileFlag}
		label = fileFlag
	}

	mgr := monitor.NewManager(monitor.ManagerConfig{
		Inferrer:         inferrer,
		Encoder:          vision.NewEncoder(cfg.JPEGQuality),
		Interval:         cfg.CaptureInterval,
		HistoryLen:       cfg.HistoryLen,
		InferenceTimeout: cfg.InferenceTimeout,
		Log:              logger,
	})
	defer mgr.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	session := mgr.Create(label, dev)
	updates, unsubscribe := session.Subscribe()
	defer unsubscribe()

	if err := session.Open(ctx); err != nil {
		return fmt.Errorf("open camera: %w", err)
	}

	out := cmd.OutOrStdout()
	printStatus(out, session.Snapshot().Status)
	for {
		select {
		case <-ctx.Done():
			return nil
		case st, ok := <-updates:
			if !ok {
				return nil
			}
			printStatus(out, st)
		}
	}
}

func printStatus(w io.Writer, st monitor.Status) {
	line := fmt.Sprintf("%s  %-11s %s", st.UpdatedAt.Format("15:04:05"), st.Kind, st.Text)
	if st.Detail != "" {
		line += " (" + st.Detail + ")"
	}
	fmt.Fprintln(w, line)
}

func runEventsList(cmd *cobra.Command, args []string) error {
	client := events.NewClient(apiFlag, 10*time.Second)
	list, err := client.List(cmd.Context())
	if err != nil {
		return err
	}
	printEvents(cmd.OutOrStdout(), list)
	return nil
}

func printEvents(w io.Writer, list []events.Event) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTYPE\tSTATUS\tDUE\tPRIORITY\tHEADER")
	for _, ev := range list {
		due := "-"
		if ev.EventDateToCompleteBy != nil {
			due = ev.EventDateToCompleteBy.Format(time.RFC3339)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%s\n", ev.ID, ev.Type, ev.Status, due, ev.Priority, ev.EventHeader)
	}
	tw.Flush()
}

func runEventsUpdate(cmd *cobra.Command, args []string) error {
	status := events.Status(args[1])
	if !status.Valid() {
		return fmt.Errorf("%w: %s", events.ErrInvalidStatus, args[1])
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
	defer cancel()

	client := events.NewClient(apiFlag, 10*time.Second)
	if err := client.UpdateStatus(ctx, args[0], status); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s -> %s\n", args[0], status)
	return nil
}
