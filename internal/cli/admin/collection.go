package admin

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/relaydesk/relaydesk/internal/config"
	"github.com/relaydesk/relaydesk/internal/database"
	"github.com/relaydesk/relaydesk/internal/embedding"
	"github.com/relaydesk/relaydesk/internal/service"
	"github.com/relaydesk/relaydesk/internal/vectorstore"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
)

func CollectionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "collection",
		Short: "Manage the vector collection",
		Long:  "Inspect and rebuild the knowledge base vector collection",
	}

	cmd.AddCommand(CollectionStatsCmd())
	cmd.AddCommand(CollectionRecreateCmd())

	return cmd
}

func CollectionStatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show collection statistics",
		Long:  "Show the active collection name, vector count, and dimension",
		RunE:  runCollectionStats,
	}

	cmd.Flags().StringP("output", "o", "text", "Output format (text or json)")

	return cmd
}

func runCollectionStats(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	outputFormat, _ := cmd.Flags().GetString("output")

	pool, svc, err := getKnowledgeService(ctx)
	if err != nil {
		return err
	}
	defer pool.Close()

	info, err := svc.Stats(ctx)
	if err != nil {
		return fmt.Errorf("failed to get collection stats: %w", err)
	}

	if outputFormat == "json" {
		data := map[string]interface{}{
			"collection":    info.Name,
			"vectors_count": info.Count,
			"dimension":     info.Dimension,
		}
		jsonBytes, _ := json.MarshalIndent(data, "", "  ")
		fmt.Println(string(jsonBytes))
	} else {
		fmt.Printf("Collection: %s\n", info.Name)
		fmt.Printf("Vectors:    %d\n", info.Count)
		fmt.Printf("Dimension:  %d\n", info.Dimension)
	}

	return nil
}

func CollectionRecreateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "recreate",
		Short: "Drop and recreate the active collection",
		Long:  "Drop the active collection and recreate it empty. All stored vectors are lost.",
		RunE:  runCollectionRecreate,
	}

	cmd.Flags().Bool("yes", false, "Skip the confirmation prompt")

	return cmd
}

func runCollectionRecreate(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	pool, svc, err := getKnowledgeService(ctx)
	if err != nil {
		return err
	}
	defer pool.Close()

	skipConfirm, _ := cmd.Flags().GetBool("yes")
	if !skipConfirm {
		fmt.Print("This permanently deletes all stored vectors. Continue? [y/N] ")
		reader := bufio.NewReader(os.Stdin)
		answer, _ := reader.ReadString('\n')
		if strings.TrimSpace(strings.ToLower(answer)) != "y" {
			fmt.Println("aborted")
			return nil
		}
	}

	before, err := svc.RecreateCollection(ctx)
	if err != nil {
		return fmt.Errorf("failed to recreate collection: %w", err)
	}

	fmt.Printf("Collection %s recreated (%d vectors dropped)\n", before.Name, before.Count)
	return nil
}

func getKnowledgeService(ctx context.Context) (*pgxpool.Pool, *service.KnowledgeService, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	pool, err := database.NewPool(ctx, database.Config{URL: cfg.DatabaseURL})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	store := vectorstore.NewPgStore(pool)
	router := service.NewEmbeddingRouter(store, service.RouterConfig{
		Credentials: embedding.Credentials{
			OpenAIAPIKey: cfg.OpenAIAPIKey,
			VoyageAPIKey: cfg.VoyageAPIKey,
		},
		BaseCollection: cfg.BaseCollection,
	})

	if err := router.SetProvider(ctx, cfg.EmbeddingProvider, cfg.EmbeddingModel); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("failed to configure embedding provider: %w", err)
	}

	return pool, service.NewKnowledgeService(router, store, nil), nil
}
