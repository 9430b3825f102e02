package admin

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

func KnowledgeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "knowledge",
		Short: "Manage stored knowledge",
		Long:  "Operate on stored knowledge fragments by business and widget scope",
	}

	cmd.AddCommand(KnowledgePurgeCmd())

	return cmd
}

func KnowledgePurgeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "purge",
		Short: "Delete all knowledge for a business",
		Long:  "Delete every stored fragment matching the given business, optionally narrowed to one widget",
		RunE:  runKnowledgePurge,
	}

	cmd.Flags().String("business-id", "", "Business whose knowledge is deleted (required)")
	cmd.Flags().String("widget-id", "", "Restrict deletion to a single widget")
	cmd.Flags().Bool("yes", false, "Skip the confirmation prompt")
	cmd.MarkFlagRequired("business-id")

	return cmd
}

func runKnowledgePurge(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	businessID, _ := cmd.Flags().GetString("business-id")
	widgetID, _ := cmd.Flags().GetString("widget-id")

	pool, svc, err := getKnowledgeService(ctx)
	if err != nil {
		return err
	}
	defer pool.Close()

	skipConfirm, _ := cmd.Flags().GetBool("yes")
	if !skipConfirm {
		scope := businessID
		if widgetID != "" {
			scope = fmt.Sprintf("%s / widget %s", businessID, widgetID)
		}
		fmt.Printf("This permanently deletes all knowledge for %s. Continue? [y/N] ", scope)
		reader := bufio.NewReader(os.Stdin)
		answer, _ := reader.ReadString('\n')
		if strings.TrimSpace(strings.ToLower(answer)) != "y" {
			fmt.Println("aborted")
			return nil
		}
	}

	if err := svc.DeleteAll(ctx, businessID, widgetID); err != nil {
		return fmt.Errorf("failed to purge knowledge: %w", err)
	}

	fmt.Printf("Knowledge purged for business %s\n", businessID)
	return nil
}
