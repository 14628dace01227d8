// ABOUTME: Sync commands for Charm cloud mirroring of the snapshot
// ABOUTME: Provides push, pull, status and wipe
package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/harper/threadsearch/internal/charm"
)

// NewSyncCmd creates the sync command group
func NewSyncCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Mirror the index through Charm cloud",
		Long: `Mirror the saved index through Charm cloud.

The local SQLite snapshot stays the source for search. Push copies it
to your Charm KV database; pull on another device restores it without
re-embedding the corpus.`,
	}

	cmd.AddCommand(newSyncPushCmd())
	cmd.AddCommand(newSyncPullCmd())
	cmd.AddCommand(newSyncStatusCmd())
	cmd.AddCommand(newSyncWipeCmd())

	return cmd
}

func openCharm(a *app) (*charm.Client, error) {
	client, err := charm.NewClient(charm.ConfigFrom(a.cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Charm: %w", err)
	}
	return client, nil
}

func newSyncPushCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "push",
		Short: "Upload the saved snapshot to Charm",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp()
			if err != nil {
				return err
			}
			defer a.log.Sync()

			db, store, err := a.openStore()
			if err != nil {
				return err
			}
			defer func() { _ = db.Close() }()

			snap, err := store.Load(cmd.Context())
			if err != nil {
				return a.noIndexError(err)
			}

			client, err := openCharm(a)
			if err != nil {
				return err
			}
			defer func() { _ = client.Close() }()

			n, err := client.Push(snap)
			if err != nil {
				return fmt.Errorf("push failed: %w", err)
			}
			if !client.Config().AutoSync {
				if err := client.Sync(); err != nil {
					return fmt.Errorf("sync failed: %w", err)
				}
			}

			if !quiet {
				fmt.Fprintf(cmd.OutOrStdout(), "Pushed snapshot %s (%d subthreads)\n", snap.ID, n)
			}
			return nil
		},
	}
}

func newSyncPullCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "pull",
		Short: "Replace the saved snapshot with the one in Charm",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp()
			if err != nil {
				return err
			}
			defer a.log.Sync()

			client, err := openCharm(a)
			if err != nil {
				return err
			}
			defer func() { _ = client.Close() }()

			if !client.Config().AutoSync {
				if err := client.Sync(); err != nil {
					return fmt.Errorf("sync failed: %w", err)
				}
			}
			snap, err := client.Pull()
			if errors.Is(err, charm.ErrNoRemoteSnapshot) {
				return errors.New("no snapshot has been pushed to this Charm account yet")
			}
			if err != nil {
				return fmt.Errorf("pull failed: %w", err)
			}

			db, store, err := a.openStore()
			if err != nil {
				return err
			}
			defer func() { _ = db.Close() }()

			if err := store.Save(cmd.Context(), snap); err != nil {
				return fmt.Errorf("saving snapshot: %w", err)
			}

			if !quiet {
				fmt.Fprintf(cmd.OutOrStdout(), "Pulled snapshot %s (%d subthreads)\n", snap.ID, snap.Size())
			}
			return nil
		},
	}
}

func newSyncStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show sync status and connection info",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp()
			if err != nil {
				return err
			}
			defer a.log.Sync()

			client, err := openCharm(a)
			if err != nil {
				return err
			}
			defer func() { _ = client.Close() }()

			w := cmd.OutOrStdout()
			id, err := client.ID()
			if err != nil {
				fmt.Fprintln(w, "Status: Not connected")
				fmt.Fprintf(w, "Error: %v\n", err)
				return nil
			}

			st, err := client.Status()
			if err != nil {
				return err
			}

			fmt.Fprintln(w, "Status: Connected")
			fmt.Fprintf(w, "User ID: %s\n", id)
			fmt.Fprintf(w, "Host: %s\n", st.Host)
			fmt.Fprintf(w, "Database: %s\n", st.DBName)
			if st.SnapshotID == "" {
				fmt.Fprintln(w, "Snapshot: none pushed")
				return nil
			}
			fmt.Fprintf(w, "Snapshot: %s (%d subthreads, dim %d, %s)\n",
				st.SnapshotID, st.Subthreads, st.Dimension, formatTime(st.CreatedAt))
			return nil
		},
	}
}

func newSyncWipeCmd() *cobra.Command {
	var confirm bool

	cmd := &cobra.Command{
		Use:   "wipe",
		Short: "Wipe the local Charm mirror",
		Long: `Completely wipe the local Charm KV cache.

The SQLite snapshot and your cloud data are untouched; the mirror is
re-synced on next access.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !confirm {
				fmt.Fprintln(cmd.OutOrStdout(), "This will wipe the local Charm mirror!")
				fmt.Fprintln(cmd.OutOrStdout(), "Run with --confirm to proceed")
				return nil
			}

			a, err := loadApp()
			if err != nil {
				return err
			}
			defer a.log.Sync()

			client, err := openCharm(a)
			if err != nil {
				return err
			}
			defer func() { _ = client.Close() }()

			if err := client.Reset(); err != nil {
				return fmt.Errorf("failed to wipe data: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), "Local mirror wiped successfully")
			return nil
		},
	}

	cmd.Flags().BoolVar(&confirm, "confirm", false, "Confirm the wipe operation")

	return cmd
}
