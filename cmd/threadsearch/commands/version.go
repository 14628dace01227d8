// ABOUTME: Version command reporting build and runtime details
// ABOUTME: Release values come from ldflags; the Go version from the binary
package commands

import (
	"encoding/json"
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

// VersionInfo describes the running binary.
type VersionInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	Date      string `json:"date"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
}

var versionInfo = VersionInfo{Version: "dev", Commit: "none", Date: "unknown"}

// SetVersion records release metadata injected at link time.
func SetVersion(version, commit, date string) {
	versionInfo.Version, versionInfo.Commit, versionInfo.Date = version, commit, date
}

func currentVersion() VersionInfo {
	v := versionInfo
	v.GoVersion = runtime.Version()
	v.Platform = runtime.GOOS + "/" + runtime.GOARCH
	return v
}

// NewVersionCmd creates the version command
func NewVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			v := currentVersion()
			out := cmd.OutOrStdout()
			if outputFormat == "json" {
				data, err := json.MarshalIndent(v, "", "  ")
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "%s\n", data)
				return nil
			}
			fmt.Fprintf(out, "threadsearch %s (%s, built %s)\n", v.Version, v.Commit, v.Date)
			fmt.Fprintf(out, "%s %s\n", v.GoVersion, v.Platform)
			return nil
		},
	}
}
