package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/minglehq/backend/internal/database"
	"github.com/minglehq/backend/internal/models"
	"github.com/spf13/cobra"
)

var statsJSON bool

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print row counts for the main tables",
	RunE: func(cmd *cobra.Command, args []string) error {
		counts := map[string]int64{}
		tables := []struct {
			name  string
			model interface{}
		}{
			{"users", &models.User{}},
			{"follows", &models.Follow{}},
			{"posts", &models.Post{}},
			{"comments", &models.Comment{}},
			{"likes", &models.PostLike{}},
			{"tags", &models.Tag{}},
			{"notifications", &models.Notification{}},
			{"messages", &models.Message{}},
		}

		for _, t := range tables {
			var count int64
			if err := database.DB.Model(t.model).Count(&count).Error; err != nil {
				return fmt.Errorf("failed to count %s: %w", t.name, err)
			}
			counts[t.name] = count
		}

		if statsJSON {
			return json.NewEncoder(os.Stdout).Encode(counts)
		}

		for _, t := range tables {
			fmt.Printf("%-15s %d\n", t.name, counts[t.name])
		}
		return nil
	},
}

func init() {
	statsCmd.Flags().BoolVar(&statsJSON, "json", false, "Output as JSON")
}
