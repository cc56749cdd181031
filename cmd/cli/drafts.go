package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/lumeoapp/lumeo/backend/internal/database"
	"github.com/lumeoapp/lumeo/backend/internal/draft"
	"github.com/spf13/cobra"
)

var draftsCmd = &cobra.Command{
	Use:   "drafts",
	Short: "Inspect and manage saved post drafts",
	Long:  "Commands for inspecting draft checkpoints stored in the composer database",
}

var draftsShowCmd = &cobra.Command{
	Use:   "show <user-id>",
	Short: "Show a user's saved draft checkpoint",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return showDraft(args[0])
	},
}

var draftsDiscardCmd = &cobra.Command{
	Use:   "discard <user-id>",
	Short: "Delete a user's saved draft checkpoint",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return discardDraft(args[0])
	},
}

func init() {
	draftsCmd.AddCommand(draftsShowCmd)
	draftsCmd.AddCommand(draftsDiscardCmd)
}

func openDraftStore() (draft.Store, error) {
	if err := database.Initialize(); err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	store, err := draft.NewGormStore(database.DB)
	if err != nil {
		return nil, fmt.Errorf("failed to open draft store: %w", err)
	}
	return store, nil
}

func showDraft(userID string) error {
	store, err := openDraftStore()
	if err != nil {
		return err
	}
	defer database.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	cp, err := store.Load(ctx, userID)
	if err == draft.ErrNotFound {
		return fmt.Errorf("no draft saved for user %s", userID)
	}
	if err != nil {
		return fmt.Errorf("failed to load draft: %w", err)
	}

	if output == "json" {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(cp)
	}

	fmt.Printf("Draft for user %s\n", userID)
	fmt.Printf("  Saved:        %s\n", cp.Timestamp.Format(time.RFC3339))
	fmt.Printf("  Slides:       %d (images not recoverable)\n", cp.SlideCount)
	fmt.Printf("  Caption:      %q\n", cp.Caption)
	fmt.Printf("  AI generated: %v\n", cp.IsAIGenerated)
	fmt.Printf("  Private:      %v\n", cp.IsPrivate)
	return nil
}

func discardDraft(userID string) error {
	store, err := openDraftStore()
	if err != nil {
		return err
	}
	defer database.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := store.Delete(ctx, userID); err != nil {
		return fmt.Errorf("failed to delete draft: %w", err)
	}
	fmt.Printf("Draft for user %s discarded\n", userID)
	return nil
}
