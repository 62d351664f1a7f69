package cmd

import (
	"context"
	"fmt"
	"time"

	"Trackshelf/core/session"

	"github.com/spf13/cobra"
)

var redisCmd = &cobra.Command{
	Use:   "redis",
	Short: "Redis会话存储连接测试",
	Long:  `连接SESSION_STORE=redis使用的Redis实例，并用一个临时会话做写入、读取和删除测试。`,
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Printf("Redis配置: %s:%s, DB: %d\n", cfg.RedisHost, cfg.RedisPort, cfg.RedisDB)

		client, err := session.ConnectRedis(cfg)
		if err != nil {
			return fmt.Errorf("无法连接到Redis: %w", err)
		}
		defer client.Close()
		fmt.Println("Redis连接成功！")

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := session.NewRedisStore(client).Check(ctx); err != nil {
			return fmt.Errorf("Redis会话读写测试失败: %w", err)
		}
		fmt.Println("Redis会话读写测试成功！")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(redisCmd)
}
