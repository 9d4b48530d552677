package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ptndev/product-image-service/batchclient"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func main() {
	rootCmd := newRootCommand()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "batchupload",
		Short: "Upload a directory of images to the product image service",
		Long: `batchupload walks a directory, derives article identifiers from each
filename (hyphen-separated stem parts) and uploads every image with a bounded
number of concurrent requests. Files whose names yield no identifiers are
skipped and counted separately.`,
		RunE: runBatchUpload,
	}

	cmd.Flags().String("dir", ".", "directory to scan for image files")
	cmd.Flags().String("server", "http://localhost:8080", "base URL of the image service")
	cmd.Flags().Int("concurrency", 4, "maximum number of in-flight uploads")
	cmd.Flags().Bool("continue-on-error", true, "keep uploading after a failure")
	cmd.Flags().Bool("numeric-only", false, "only accept purely numeric identifiers (SAP codes)")
	cmd.Flags().String("run-id", "", "batch run id recorded with every upload")
	cmd.Flags().Duration("timeout", 60*time.Second, "per-request timeout")

	viper.SetEnvPrefix("BATCH")
	viper.AutomaticEnv()
	_ = viper.BindPFlags(cmd.Flags())

	return cmd
}

func runBatchUpload(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client := batchclient.NewClient(viper.GetString("server"), viper.GetDuration("timeout"))
	driver := &batchclient.Driver{
		Client:          client,
		Concurrency:     viper.GetInt("concurrency"),
		ContinueOnError: viper.GetBool("continue-on-error"),
		NumericOnly:     viper.GetBool("numeric-only"),
		RunID:           viper.GetString("run-id"),
	}

	report, err := driver.Run(ctx, viper.GetString("dir"))
	if err != nil {
		return err
	}

	fmt.Print(report.Summary())

	if report.Failed > 0 {
		return fmt.Errorf("%d upload(s) failed", report.Failed)
	}
	return nil
}
