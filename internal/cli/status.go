package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(statusCmd)
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the running node's protocol state",
	RunE:  runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	var status struct {
		Status         string `json:"status"`
		Commitments    int    `json:"commitments"`
		PendingReviews int    `json:"pending_reviews"`
	}
	if err := apiGet("/api/status", &status); err != nil {
		return err
	}

	fmt.Printf("Status:          %s\n", status.Status)
	fmt.Printf("Commitments:     %d\n", status.Commitments)
	fmt.Printf("Pending reviews: %d\n", status.PendingReviews)
	return nil
}
