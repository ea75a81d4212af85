package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Set at build time with -ldflags "-X github.com/ishitcode/hire/cmd.version=...".
var version = "unknown"

type buildInfo struct {
	App      string `json:"app"`
	Version  string `json:"version"`
	Go       string `json:"go"`
	Platform string `json:"platform"`
}

func currentBuild() buildInfo {
	return buildInfo{
		App:      app,
		Version:  version,
		Go:       runtime.Version(),
		Platform: runtime.GOOS + "/" + runtime.GOARCH,
	}
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version and build platform",
	RunE: func(_ *cobra.Command, _ []string) error {
		info := currentBuild()
		if viper.GetBool("json") {
			return json.NewEncoder(os.Stdout).Encode(info)
		}
		fmt.Printf("%s version: %s (%s %s)\n", info.App, info.Version, info.Go, info.Platform)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
