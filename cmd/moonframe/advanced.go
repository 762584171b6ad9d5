package main

import (
	"context"
	"fmt"
	"os/signal"
	"strings"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/charlie0129/moonframe/pkg/command"
)

func NewSendCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "send COMMAND [ARGS...]",
		GroupID: gAdvanced,
		Short:   "Send a raw console command to the frame",
		Long: "Send one line to the frame's command console and print the reply.\n\nCommands:\n  " +
			strings.Join(command.Usage(), "\n  "),
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reply, err := apiClient.SendCommand(strings.Join(args, " "))
			if err != nil {
				return err
			}

			if !reply.OK {
				return fmt.Errorf("%s", reply.Message)
			}
			cmd.Println(reply.Message)
			return nil
		},
	}
}

func NewEventsCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "events",
		GroupID: gAdvanced,
		Short:   "Follow daemon events",
		Long:    `Print display refreshes, clock changes, alarms, key presses and charge state changes as they happen. Press Ctrl-C to stop.`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			ch, err := apiClient.SubscribeEvents(ctx)
			if err != nil {
				return err
			}

			for ev := range ch {
				cmd.Printf("%s %s\n", color.New(color.Bold, color.FgCyan).Sprint(ev.Name), string(ev.Data))
			}
			return nil
		},
	}
}
