package main

import (
	"github.com/spf13/cobra"

	imageinsight "github.com/menta2k/image-insight"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Run: func(cmd *cobra.Command, _ []string) {
		cmd.Printf("image-insight version %s\n", imageinsight.GetVersion())
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
