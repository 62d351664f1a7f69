package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"Trackshelf/storage"

	"github.com/spf13/cobra"
)

var (
	minioPrefix string
	minioStats  bool
)

var minioCmd = &cobra.Command{
	Use:   "minio",
	Short: "MinIO音频存储桶管理",
	Long:  `检查AUDIO_STORE=minio使用的存储桶，列出已上传的音频文件或显示统计信息。`,
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Printf("MinIO配置: %s, Bucket: %s\n", cfg.MinioEndpoint, cfg.MinioBucket)

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		store, err := storage.NewMinioStore(ctx, cfg)
		if err != nil {
			return fmt.Errorf("无法连接到MinIO: %w", err)
		}
		fmt.Println("MinIO连接成功！")

		objects, err := store.List(ctx)
		if err != nil {
			return fmt.Errorf("列出文件失败: %w", err)
		}

		var total int64
		count := 0
		for _, o := range objects {
			if !strings.HasPrefix(o.Key, minioPrefix) {
				continue
			}
			count++
			total += o.Size
			if !minioStats {
				fmt.Printf("%-50s %10s  %s\n", o.Key, storage.FormatSize(o.Size), o.LastModified.Format("2006-01-02 15:04"))
			}
		}
		fmt.Printf("\n共 %d 个文件, 总大小 %s\n", count, storage.FormatSize(total))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(minioCmd)

	minioCmd.Flags().StringVarP(&minioPrefix, "prefix", "p", "", "按前缀过滤文件")
	minioCmd.Flags().BoolVarP(&minioStats, "stats", "s", false, "只显示统计信息")

	minioCmd.Example = `  # 列出所有音频文件
  trackshelf minio

  # 按前缀过滤
  trackshelf minio -p "xaev"

  # 只显示统计信息
  trackshelf minio -s`
}
