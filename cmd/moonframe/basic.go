package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/charlie0129/moonframe/pkg/daemon"
	"github.com/charlie0129/moonframe/pkg/lunarcal"
	"github.com/charlie0129/moonframe/pkg/power"
	"github.com/charlie0129/moonframe/pkg/types"
	"github.com/charlie0129/moonframe/pkg/version"
)

func NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:         "version",
		Short:       "Print version",
		Annotations: offline,
		Run: func(cmd *cobra.Command, _ []string) {
			cmd.Printf("%s %s\n", version.Version, version.GitCommit)
		},
	}
}

func NewStatusCommand() *cobra.Command {
	asJSON := false

	cmd := &cobra.Command{
		Use:     "status",
		GroupID: gBasic,
		Short:   "Get the current status of the frame",
		Long:    `Get the device clock, next alarm, power state and what is on the panel.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := apiClient.GetStatus()
			if err != nil {
				return err
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(s)
			}

			cmd.Println(bold("Clock:"))
			cmd.Printf("  Device time: %s\n", bold("%s", s.Now))
			cmd.Printf("  Boot time: %s (from %s)\n", s.BootTime, bold("%s", s.BootSource))
			if s.Alarm != nil {
				cmd.Printf("  Next wake-up: %s\n", bold("%s", s.Alarm))
			} else {
				cmd.Printf("  Next wake-up: %s\n", color.RedString("none"))
			}
			cmd.Println()

			cmd.Println(bold("Power:"))
			voltage := bold("%s", power.FormatVoltage(s.Voltage))
			if power.IsLow(s.Voltage, s.LowPowerThreshold) {
				voltage = color.New(color.Bold, color.FgRed).Sprint(power.FormatVoltage(s.Voltage))
			}
			cmd.Printf("  Battery: %s (shutdown below %s)\n", voltage, power.FormatVoltage(s.LowPowerThreshold))
			cmd.Printf("  External power: %s\n", bool2Text(s.ExternalPower))
			state := s.ChargeState
			switch state {
			case power.Charging.String():
				state = color.GreenString(state)
			case power.Discharging.String():
				state = color.YellowString(state)
			}
			cmd.Printf("  Charger: %s\n", bold("%s", state))
			cmd.Println()

			cmd.Println(bold("Display:"))
			cmd.Printf("  Mode: %s\n", bold("%s", s.Mode))
			cmd.Printf("  SD card: %s\n", bool2Text(s.CardPresent))
			if f := s.Frame; f != nil {
				if f.Builtin {
					cmd.Printf("  Showing: %s\n", bold("built-in picture"))
				} else {
					cmd.Printf("  Showing: %s\n", bold("%s", f.Path))
				}
				if f.Caption != "" {
					cmd.Printf("  Caption: %s\n", f.Caption)
				}
				cmd.Printf("  Drawn for: %s\n", f.At)
			}
			cmd.Printf("  Control loop iterations in the last minute: %d\n", s.LoopIterations)

			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print status as JSON")

	return cmd
}

func printPhase(w io.Writer, p *types.PhaseInfo) {
	fmt.Fprintf(w, "%s %s\n", bold("At:"), p.At)
	fmt.Fprintf(w, "%s %f (%.1f days old)\n", bold("Moon phase:"), p.Phase, p.Age)
	fmt.Fprintf(w, "%s %s (#%d)\n", bold("Image:"), p.Path, p.Index)
	fmt.Fprintf(w, "%s %s\n", bold("Next full moon:"), color.YellowString(dateString(p.NextFull)))
	fmt.Fprintf(w, "%s %s\n", bold("Next new moon:"), color.CyanString(dateString(p.NextNew)))
	fmt.Fprintf(w, "%s %s\n", bold("Caption:"), p.Caption)
}

func NewPhaseCommand() *cobra.Command {
	local := false

	cmd := &cobra.Command{
		Use:     "phase [YYYY-MM-DD [HH:MM:SS]]",
		GroupID: gBasic,
		Short:   "Show the moon phase",
		Long: `Show the moon phase, the picture the frame would show and the next full and new moon.

Without arguments the device time is used. With --local the phase is computed on this machine without asking the daemon.`,
		Args: cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var at *types.Timestamp
			if len(args) > 0 {
				ts, err := parseTimestampArgs(args)
				if err != nil {
					return fmt.Errorf("invalid time: %v", err)
				}
				at = &ts
			}

			if local {
				if at == nil {
					now := types.FromTime(time.Now())
					at = &now
				}
				p := daemon.PhaseInfo(*at)
				printPhase(cmd.OutOrStdout(), &p)
				return nil
			}

			p, err := apiClient.GetPhase(at)
			if err != nil {
				return err
			}
			printPhase(cmd.OutOrStdout(), p)
			return nil
		},
	}

	cmd.Flags().BoolVar(&local, "local", false, "Compute locally instead of asking the daemon")

	return cmd
}

func NewCalendarCommand() *cobra.Command {
	var (
		count  int
		from   string
		output string
	)

	cmd := &cobra.Command{
		Use:         "calendar",
		GroupID:     gBasic,
		Short:       "Export upcoming full and new moons as iCalendar",
		Annotations: offline,
		RunE: func(cmd *cobra.Command, _ []string) error {
			start := types.FromTime(time.Now())
			if from != "" {
				ts, err := parseTimestampArgs([]string{from})
				if err != nil {
					return fmt.Errorf("invalid --from: %v", err)
				}
				start = ts
			}

			w := cmd.OutOrStdout()
			if output != "" && output != "-" {
				f, err := os.Create(output)
				if err != nil {
					return fmt.Errorf("failed to create %s: %v", output, err)
				}
				defer func() {
					if err := f.Close(); err != nil {
						logrus.Warnf("failed to close %s", output)
					}
				}()
				w = f
			}

			if err := lunarcal.Write(w, start, count); err != nil {
				return err
			}
			if output != "" && output != "-" {
				logrus.Infof("wrote %d events to %s", count, output)
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.IntVarP(&count, "count", "n", lunarcal.DefaultCount, "Number of events")
	f.StringVar(&from, "from", "", "Start date (YYYY-MM-DD), defaults to today")
	f.StringVarP(&output, "output", "o", "-", "Output file")

	return cmd
}

func NewSetDateCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "setdate YYYY-MM-DD [HH:MM:SS]",
		GroupID: gBasic,
		Short:   "Set the device clock",
		Long: `Set the device clock, reprogram the midnight alarm and redraw the panel.

Omitting the time sets midnight.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ts, err := parseTimestampArgs(args)
			if err != nil {
				return fmt.Errorf("invalid time: %v", err)
			}

			reply, err := apiClient.SetDate(ts)
			if err != nil {
				return fmt.Errorf("failed to set date: %w", err)
			}
			if !reply.OK {
				return fmt.Errorf("device rejected the date: %s", reply.Message)
			}

			logrus.Infof("daemon responded: %s", reply.Message)
			return nil
		},
	}
}
