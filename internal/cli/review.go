package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/attest-network/attest/internal/domain"
)

func init() {
	reviewCmd.AddCommand(reviewListCmd)
	reviewCmd.AddCommand(reviewResolveCmd)
	rootCmd.AddCommand(reviewCmd)
}

var reviewCmd = &cobra.Command{
	Use:   "review",
	Short: "Inspect and resolve the manual review queue",
}

var reviewListCmd = &cobra.Command{
	Use:   "list",
	Short: "List manual review items by priority",
	RunE:  runReviewList,
}

var reviewResolveCmd = &cobra.Command{
	Use:   "resolve <job-id> <resolution>",
	Short: "Resolve a pending review item",
	Args:  cobra.ExactArgs(2),
	RunE:  runReviewResolve,
}

func runReviewList(cmd *cobra.Command, args []string) error {
	var queue struct {
		Items []domain.ManualReviewItem `json:"items"`
	}
	if err := apiGet("/api/review", &queue); err != nil {
		return err
	}

	if len(queue.Items) == 0 {
		fmt.Println("Review queue is empty.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "JOB\tAGENT\tPRIORITY\tSTATUS\tERROR")
	for _, item := range queue.Items {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			item.JobID,
			item.AgentAddress,
			item.Priority,
			item.Status,
			item.ErrorMessage,
		)
	}
	return w.Flush()
}

func runReviewResolve(cmd *cobra.Command, args []string) error {
	jobID, resolution := args[0], args[1]

	body := map[string]string{"resolution": resolution}
	if err := apiPost("/api/review/"+jobID+"/resolve", body, nil); err != nil {
		return err
	}

	fmt.Printf("Resolved review for job %s\n", jobID)
	return nil
}
