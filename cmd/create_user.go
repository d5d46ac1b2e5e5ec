/*
Copyright © 2025 teenai
*/
package cmd

import (
	"context"
	"log"

	"github.com/spf13/cobra"
	"github.com/teenai/paperchat-be/config"
	"github.com/teenai/paperchat-be/database"
	"github.com/teenai/paperchat-be/repository"
	"github.com/teenai/paperchat-be/service"
	"github.com/teenai/paperchat-be/types"
)

// createUserCmd represents the create-user command
var createUserCmd = &cobra.Command{
	Use:   "create-user",
	Short: "Create a user account",
	Long: `Creates a user directly in MongoDB. Use this to bootstrap the first
admin account; further users can be created over the admin API.`,
	Run: func(cmd *cobra.Command, args []string) {
		username, _ := cmd.Flags().GetString("username")
		password, _ := cmd.Flags().GetString("password")
		fullName, _ := cmd.Flags().GetString("full-name")
		admin, _ := cmd.Flags().GetBool("admin")

		if username == "" || password == "" {
			log.Fatal("missing required flags --username and --password")
		}

		cfg, err := config.LoadConfig(cfgFile)
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}

		mongoClient, err := database.NewMongoClient(context.Background(), cfg.MongoURI)
		if err != nil {
			log.Fatalf("Failed to connect to MongoDB: %v", err)
		}
		defer mongoClient.Disconnect(context.Background())

		userRepo := repository.NewUserRepo(mongoClient.Database(cfg.MongoDatabase).Collection("users"))
		userService := service.NewUserService(userRepo)

		role := types.USER_ROLE_USER
		if admin {
			role = types.USER_ROLE_ADMIN
		}
		user, err := userService.CreateUser(context.Background(), types.CreateUserRequest{
			Username: username,
			Password: password,
			FullName: fullName,
			Role:     role,
		})
		if err != nil {
			log.Fatalf("Failed to create user: %v", err)
		}
		log.Printf("Created user %s (%s)", user.Username, user.Role)
	},
}

func init() {
	rootCmd.AddCommand(createUserCmd)

	createUserCmd.Flags().StringP("username", "u", "", "Username for the new account")
	createUserCmd.Flags().StringP("password", "p", "", "Password for the new account")
	createUserCmd.Flags().String("full-name", "", "Display name")
	createUserCmd.Flags().Bool("admin", false, "Grant the admin role")
}
