/*
 * Copyright 2025 suzuito.
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/uptrace/bun"

	sandbox "github.com/suzuito/sb-data-sandbox"
	"github.com/suzuito/sb-data-sandbox/database"
	"github.com/suzuito/sb-data-sandbox/models"
)

var configPath string

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// connect loads the config and initializes the global database connection.
// The caller must defer database.CloseDB().
func connect() error {
	cfg, err := database.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("reading config: %w", err)
	}
	if _, err := database.InitDB(cfg); err != nil {
		return fmt.Errorf("initializing database: %w", err)
	}
	return nil
}

var rootCmd = &cobra.Command{
	Use:   "sandbox",
	Short: "Entity persistence sandbox",
	Long:  "Demonstrates insert-vs-update dispatch and transaction-scope behavior against a relational database.",
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Connect, run migrations, and seed data",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := connect(); err != nil {
			return err
		}
		defer func() { _ = database.CloseDB() }()

		if err := database.RunMigrations(); err != nil {
			return fmt.Errorf("running migrations: %w", err)
		}
		if err := database.InitData(); err != nil {
			return fmt.Errorf("seeding data: %w", err)
		}
		fmt.Println("Database initialized")
		return nil
	},
}

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check database connectivity",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := connect(); err != nil {
			return err
		}
		defer func() { _ = database.CloseDB() }()

		status := database.GetHealthStatus(cmd.Context())
		fmt.Printf("Healthy:       %v\n", status.Healthy)
		fmt.Printf("Connected:     %v\n", status.Connected)
		fmt.Printf("Response time: %s\n", status.ResponseTime)
		if status.LastError != "" {
			fmt.Printf("Last error:    %s\n", status.LastError)
		}
		return nil
	},
}

var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Replay the sandbox scenarios",
}

var demoAccessLogCmd = &cobra.Command{
	Use:   "access-log",
	Short: "Insert a row whose identifier the database assigns",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := connect(); err != nil {
			return err
		}
		defer func() { _ = database.CloseDB() }()

		svc := sandbox.NewService[models.AccessLog]()
		entry, err := svc.Save(cmd.Context(), models.NewAccessLog("hello from the sandbox"))
		if err != nil {
			return err
		}
		fmt.Printf("Inserted access log, database assigned id=%d\n", entry.ID)
		return nil
	},
}

var demoForceInsertCmd = &cobra.Command{
	Use:   "force-insert",
	Short: "Insert a user whose identifier is client-assigned",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := connect(); err != nil {
			return err
		}
		defer func() { _ = database.CloseDB() }()

		svc := sandbox.NewService[models.User]()
		user := models.NewUser(uuid.New().String(), "alice").MarkNew()
		if _, err := svc.Save(cmd.Context(), user); err != nil {
			if database.IsDuplicateKeyError(err) {
				return fmt.Errorf("user %s already exists: %w", user.ID, err)
			}
			return err
		}
		fmt.Printf("Inserted user id=%s despite a populated identifier\n", user.ID)
		return nil
	},
}

var demoUpdateCmd = &cobra.Command{
	Use:   "update <user-id>",
	Short: "Update an existing user without the force-insert flag",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := connect(); err != nil {
			return err
		}
		defer func() { _ = database.CloseDB() }()

		svc := sandbox.NewService[models.User]()
		user, found, err := svc.Find(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if !found {
			return fmt.Errorf("user %s not found", args[0])
		}

		user.Name = user.Name + " (renamed)"
		user.Touch()
		if _, err := svc.Save(cmd.Context(), user); err != nil {
			return err
		}
		fmt.Printf("Updated user id=%s name=%s\n", user.ID, user.Name)
		return nil
	},
}

var demoTxCommitCmd = &cobra.Command{
	Use:   "tx-commit",
	Short: "Save a user and an article in one committed transaction",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := connect(); err != nil {
			return err
		}
		defer func() { _ = database.CloseDB() }()

		users := sandbox.NewService[models.User]()
		articles := sandbox.NewService[models.Article]()

		userID := uuid.New().String()
		articleID := uuid.New().String()
		err := database.Transaction(cmd.Context(), func(ctx context.Context, tx bun.Tx) error {
			user := models.NewUser(userID, "bob").MarkNew()
			if _, err := users.SaveWithTx(ctx, &tx, user); err != nil {
				return err
			}
			article := models.NewArticle(articleID, "on transactions", "both rows or neither", userID).MarkNew()
			_, err := articles.SaveWithTx(ctx, &tx, article)
			return err
		})
		if err != nil {
			return err
		}
		fmt.Printf("Committed user id=%s and article id=%s together\n", userID, articleID)
		return nil
	},
}

var demoTxRollbackCmd = &cobra.Command{
	Use:   "tx-rollback",
	Short: "Show that a failure inside the scope rolls back every save",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := connect(); err != nil {
			return err
		}
		defer func() { _ = database.CloseDB() }()

		users := sandbox.NewService[models.User]()

		userID := uuid.New().String()
		err := database.Transaction(cmd.Context(), func(ctx context.Context, tx bun.Tx) error {
			user := models.NewUser(userID, "carol").MarkNew()
			if _, err := users.SaveWithTx(ctx, &tx, user); err != nil {
				return err
			}
			return fmt.Errorf("simulated failure after the save")
		})
		if err == nil {
			return fmt.Errorf("expected the scope to fail")
		}

		_, found, findErr := users.Find(cmd.Context(), userID)
		if findErr != nil {
			return findErr
		}
		if found {
			return fmt.Errorf("user %s survived the rollback", userID)
		}
		fmt.Printf("Scope failed (%v); user id=%s was rolled back\n", err, userID)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "configs/config.yaml", "path to the YAML configuration file")

	demoCmd.AddCommand(demoAccessLogCmd)
	demoCmd.AddCommand(demoForceInsertCmd)
	demoCmd.AddCommand(demoUpdateCmd)
	demoCmd.AddCommand(demoTxCommitCmd)
	demoCmd.AddCommand(demoTxRollbackCmd)

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(healthCmd)
	rootCmd.AddCommand(demoCmd)
}
