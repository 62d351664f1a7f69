package cmd

import (
	"Trackshelf/server"

	"github.com/spf13/cobra"
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "启动Trackshelf服务器",
	Long:  `启动HTTP服务器，提供曲目API、管理员会话、音频文件和单页前端`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return server.Start(cfg)
	},
}

func init() {
	rootCmd.AddCommand(serverCmd)
}
