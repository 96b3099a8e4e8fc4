package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	domainLookup "github.com/AzielCF/az-lookups/domains/lookup"
	"github.com/AzielCF/az-lookups/lookups/domain"
)

var lookupsCmd = &cobra.Command{
	Use:   "lookups",
	Short: "Inspect and refresh the lookup cache",
}

var lookupsRefreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Fetch every catalog from the remote service and persist it",
	Run: func(cmd *cobra.Command, _ []string) {
		defer StopApp()

		snapshot, err := lookupUsecase.Refresh(cmd.Context())
		if err != nil {
			logrus.Fatalf("[LOOKUPS] %v", err)
		}
		lookupManager.WaitForPersistence()

		printSizes(snapshot)
		if st := lookupManager.Status(); st.LastPersistOK != nil && !*st.LastPersistOK {
			logrus.Warn("[LOOKUPS] Some buckets could not be persisted")
		}
	},
}

var lookupsShowCmd = &cobra.Command{
	Use:   "show [bucket]",
	Short: "Print the persisted lookups, or a single bucket",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		defer StopApp()

		var out any
		if len(args) == 1 {
			bucket, err := lookupUsecase.GetBucket(cmd.Context(), domainLookup.GetBucketRequest{Bucket: args[0]})
			if err != nil {
				logrus.Fatalf("[LOOKUPS] %v", err)
			}
			out = bucket
		} else {
			snapshot, err := lookupUsecase.Reload(cmd.Context(), domainLookup.ReloadRequest{Force: true})
			if err != nil {
				logrus.Fatalf("[LOOKUPS] %v", err)
			}
			out = snapshot
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(out); err != nil {
			logrus.Fatalf("[LOOKUPS] %v", err)
		}
	},
}

var lookupsStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Print the cache status",
	Run: func(cmd *cobra.Command, _ []string) {
		defer StopApp()

		st, err := lookupUsecase.GetStatus(cmd.Context())
		if err != nil {
			logrus.Fatalf("[LOOKUPS] %v", err)
		}
		fmt.Printf("origin:        %s\n", st.Origin)
		fmt.Printf("updated:       %s\n", st.UpdatedAgo)
		fmt.Printf("authenticated: %v\n", st.Authenticated)
		fmt.Printf("records:       %s (%s)\n", humanize.Comma(int64(st.TotalRecords)), st.PayloadSize)
		if st.LastLoadError != "" {
			fmt.Printf("load error:    %s\n", st.LastLoadError)
		}
	},
}

func init() {
	lookupsCmd.AddCommand(lookupsRefreshCmd, lookupsShowCmd, lookupsStatusCmd)
	rootCmd.AddCommand(lookupsCmd)
}

func printSizes(snapshot domainLookup.SnapshotResponse) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "BUCKET\tRECORDS\n")
	for _, kind := range domain.AllBuckets {
		fmt.Fprintf(w, "%s\t%s\n", kind, humanize.Comma(int64(len(snapshot.Buckets[kind]))))
	}
	_ = w.Flush()
}
