package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/qesthr/BukSU-Departmental-Memo-Automation-and-Tracking-System-sub000/internal/core/domain"
	portssvc "github.com/qesthr/BukSU-Departmental-Memo-Automation-and-Tracking-System-sub000/internal/core/ports/services"
	"github.com/qesthr/BukSU-Departmental-Memo-Automation-and-Tracking-System-sub000/internal/core/services"
	"github.com/spf13/cobra"
)

var (
	backupStatus string
	backupLimit  int
)

var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Inspect and retry memo snapshot backups",
}

var backupListCmd = &cobra.Command{
	Use:   "list",
	Short: "List backup jobs, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		var status *domain.BackupJobStatus
		if backupStatus != "" {
			st, err := domain.ParseBackupJobStatus(backupStatus)
			if err != nil {
				return err
			}
			status = &st
		}
		svc, err := backupService(cmd)
		if err != nil {
			return err
		}
		jobs, err := svc.ListJobs(cmd.Context(), status, backupLimit)
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "JOB\tMEMO\tSTATUS\tATTEMPTS\tNEXT ATTEMPT\tLAST ERROR")
		for _, j := range jobs {
			lastErr := ""
			if j.LastError != nil {
				lastErr = *j.LastError
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%d/%d\t%s\t%s\n",
				j.JobID, j.MemoID, j.Status, j.Attempts, j.MaxAttempts, j.NextAttemptAt.Format(time.RFC3339), lastErr)
		}
		return w.Flush()
	},
}

var backupRetryCmd = &cobra.Command{
	Use:   "retry JOB_ID",
	Short: "Requeue a failed backup job",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := backupService(cmd)
		if err != nil {
			return err
		}
		job, err := svc.RetryJob(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "requeued %s for memo %s\n", job.JobID, job.MemoID)
		return nil
	},
}

func init() {
	backupListCmd.Flags().StringVar(&backupStatus, "status", "", "pending, running, done or failed")
	backupListCmd.Flags().IntVar(&backupLimit, "limit", 50, "maximum number of jobs")
	backupCmd.AddCommand(backupListCmd)
	backupCmd.AddCommand(backupRetryCmd)
}

func backupService(cmd *cobra.Command) (portssvc.BackupAdminSvc, error) {
	repos, err := repositories(cmd.Context())
	if err != nil {
		return nil, err
	}
	// The running server drains the queue; this instance never uploads.
	return services.NewBackupService(repos.BackupJobRepo), nil
}
