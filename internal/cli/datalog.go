package cli

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/me/cmdbot/internal/telemetry"
	"github.com/spf13/cobra"
)

func newDatalogCmd() *cobra.Command {
	var (
		key    string
		limit  int
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "datalog <path>",
		Short: "Print records from a telemetry log",
		Long:  "Reads the SQLite telemetry log written by `cmdbot run --datalog`, newest first.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			records, err := telemetry.ReadLog(cmd.Context(), args[0], key, limit)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(records)
			}
			if len(records) == 0 {
				fmt.Fprintln(out, "No records found.")
				return nil
			}

			fmt.Fprintf(out, "%-24s  %-12s  %-32s  %s\n", "RECORDED", "SESSION", "KEY", "VALUE")
			fmt.Fprintf(out, "%-24s  %-12s  %-32s  %s\n", "--------", "-------", "---", "-----")
			for _, r := range records {
				fmt.Fprintf(out, "%-24s  %-12s  %-32s  %s\n",
					r.RecordedAt.Format(time.RFC3339), r.Session, r.Key, r.Value)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&key, "key", "", "Only records for this key")
	cmd.Flags().IntVar(&limit, "limit", 50, "Maximum records to print")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON")

	cmd.AddCommand(newDatalogUploadCmd())
	return cmd
}

func newDatalogUploadCmd() *cobra.Command {
	var bucket, prefix, region string

	cmd := &cobra.Command{
		Use:   "upload <path>",
		Short: "Upload a telemetry log to S3",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			if flags.Changed("bucket") {
				cfg.DatalogBucket = bucket
			}
			if flags.Changed("prefix") {
				cfg.DatalogPrefix = prefix
			}
			if flags.Changed("region") {
				cfg.AWSRegion = region
			}
			archive, err := telemetry.NewArchive(cmd.Context(), cfg.DatalogBucket, cfg.DatalogPrefix, cfg.AWSRegion)
			if err != nil {
				return err
			}
			key, size, err := archive.Upload(cmd.Context(), args[0], "")
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Uploaded: s3://%s/%s (%s)\n", archive.Bucket, key, humanize.Bytes(uint64(size)))
			return nil
		},
	}
	cmd.Flags().StringVar(&bucket, "bucket", "", "S3 bucket (or datalog_bucket in the config)")
	cmd.Flags().StringVar(&prefix, "prefix", "", "S3 key prefix")
	cmd.Flags().StringVar(&region, "region", "", "AWS region")
	return cmd
}
