package main

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/charlie0129/moonframe/pkg/types"
	"github.com/charlie0129/moonframe/pkg/version"
)

const annotationOffline = "offline"

// offline marks commands that work without a running daemon.
var offline = map[string]string{annotationOffline: "true"}

func isOffline(cmd *cobra.Command) bool {
	if cmd.Annotations[annotationOffline] != "" {
		return true
	}
	local, err := cmd.Flags().GetBool("local")
	return err == nil && local
}

func dateString(ts types.Timestamp) string {
	return fmt.Sprintf("%04d-%02d-%02d", ts.Year, ts.Month, ts.Day)
}

func getVersion() (clientVersion, daemonVersion string, err error) {
	daemonVersion, err = apiClient.GetVersion()
	return version.Version, daemonVersion, err
}

// parseTimestampArgs parses "YYYY-MM-DD [HH:MM:SS]" given as one or two
// arguments.
func parseTimestampArgs(args []string) (types.Timestamp, error) {
	switch len(args) {
	case 1:
		return types.ParseTimestamp(args[0] + " 00:00:00")
	case 2:
		return types.ParseTimestamp(strings.Join(args, " "))
	default:
		return types.Timestamp{}, fmt.Errorf("invalid number of arguments")
	}
}

func bool2Text(b bool) string {
	if b {
		return color.New(color.Bold, color.FgGreen).Sprint("✔")
	}
	return color.New(color.Bold, color.FgRed).Sprint("✘")
}

func bold(format string, a ...interface{}) string {
	return color.New(color.Bold).Sprintf(format, a...)
}
