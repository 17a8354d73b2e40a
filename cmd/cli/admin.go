package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/minglehq/backend/internal/database"
	"github.com/minglehq/backend/internal/models"
	"github.com/minglehq/backend/internal/notify"
	"github.com/spf13/cobra"
)

var (
	promoteEmail  string
	promoteRevoke bool

	announceFrom    string
	announceMessage string
)

var promoteAdminCmd = &cobra.Command{
	Use:   "promote-admin",
	Short: "Grant or revoke admin privileges for an account",
	RunE: func(cmd *cobra.Command, args []string) error {
		var user models.User
		if err := database.DB.Where("LOWER(email) = ?", strings.ToLower(promoteEmail)).
			First(&user).Error; err != nil {
			return fmt.Errorf("no user with email %s", promoteEmail)
		}

		role := models.RoleAdmin
		if promoteRevoke {
			role = models.RoleUser
		}
		if user.Role == role {
			fmt.Printf("%s already has role %s\n", user.Username, role)
			return nil
		}

		if err := database.DB.Model(&user).Update("role", role).Error; err != nil {
			return fmt.Errorf("failed to update role: %w", err)
		}

		fmt.Printf("✅ %s (%s) is now %s\n", user.Username, user.Email, role)
		return nil
	},
}

var announceCmd = &cobra.Command{
	Use:   "announce",
	Short: "Send an announcement notification to every user",
	RunE: func(cmd *cobra.Command, args []string) error {
		message := strings.TrimSpace(announceMessage)
		if message == "" {
			return fmt.Errorf("--message is required")
		}

		var sender models.User
		if err := database.DB.Where("LOWER(email) = ?", strings.ToLower(announceFrom)).
			First(&sender).Error; err != nil {
			return fmt.Errorf("no user with email %s", announceFrom)
		}
		if !sender.IsAdmin() {
			return fmt.Errorf("%s is not an admin", sender.Username)
		}

		// No hub here: rows are persisted and clients pick them up on their
		// next notifications fetch
		notifier := notify.NewService(database.DB, nil)
		created, err := notifier.Broadcast(context.Background(), sender.ID, message)
		if err != nil {
			return fmt.Errorf("failed to broadcast: %w", err)
		}

		fmt.Printf("✅ Announcement sent to %d users\n", len(created))
		return nil
	},
}

func init() {
	promoteAdminCmd.Flags().StringVar(&promoteEmail, "email", "", "Email of the account to change")
	promoteAdminCmd.Flags().BoolVar(&promoteRevoke, "revoke", false, "Revoke admin instead of granting it")
	_ = promoteAdminCmd.MarkFlagRequired("email")

	announceCmd.Flags().StringVar(&announceFrom, "from", "", "Email of the admin sending the announcement")
	announceCmd.Flags().StringVar(&announceMessage, "message", "", "Announcement text")
	_ = announceCmd.MarkFlagRequired("from")
	_ = announceCmd.MarkFlagRequired("message")
}
