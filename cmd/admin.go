package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"bioshop/models"
	"bioshop/services"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	seedFile string

	userName     string
	userEmail    string
	userPassword string
	userRole     string
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Import products from a CSV file (name,code,category,price,description,active)",
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := os.Open(seedFile)
		if err != nil {
			return fmt.Errorf("open %s: %w", seedFile, err)
		}
		defer f.Close()

		return withApp(cmd.Context(), func(ctx context.Context, a *app) error {
			res, err := a.catalog.ImportCSV(ctx, f)
			if err != nil {
				return err
			}
			for _, e := range res.Errors {
				a.log.Warn("row rejected", zap.Int("row", e.Row), zap.String("code", e.Code), zap.String("reason", e.Message))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created %d, updated %d, rejected %d\n", res.Created, res.Updated, len(res.Errors))
			return nil
		})
	},
}

var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Export every collection to the backup directory",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(ctx context.Context, a *app) error {
			b, err := a.backups.Create(ctx)
			if err != nil {
				return err
			}
			if b.Status != services.BackupCompleted {
				return errors.New(b.Error)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "backup %s written to %s (%d bytes)\n", b.Name, b.Path, b.SizeBytes)
			return nil
		})
	},
}

var indexesCmd = &cobra.Command{
	Use:   "indexes",
	Short: "Create the unique and lookup indexes",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(ctx context.Context, a *app) error {
			return a.store.DB.EnsureIndexes(ctx)
		})
	},
}

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage back-office users",
}

var userCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a back-office user",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(ctx context.Context, a *app) error {
			u, err := a.auth.CreateUser(ctx, models.UserInput{
				Name:     userName,
				Email:    userEmail,
				Password: userPassword,
				Role:     userRole,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created %s (%s)\n", u.Email, u.Role)
			return nil
		})
	},
}

var cartsCmd = &cobra.Command{
	Use:   "carts",
	Short: "Cart maintenance",
}

var cartsExpireCmd = &cobra.Command{
	Use:   "expire",
	Short: "Mark active carts past their expiry as abandoned",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(ctx context.Context, a *app) error {
			n, err := a.store.Carts.MarkAbandoned(ctx, time.Now().UTC())
			if err != nil {
				return err
			}
			a.log.Info("carts marked abandoned", zap.Int64("count", n))
			return nil
		})
	},
}

func init() {
	seedCmd.Flags().StringVarP(&seedFile, "file", "f", "products.csv", "CSV file to import")

	userCreateCmd.Flags().StringVar(&userName, "name", "", "display name")
	userCreateCmd.Flags().StringVar(&userEmail, "email", "", "login email")
	userCreateCmd.Flags().StringVar(&userPassword, "password", "", "password (at least 8 characters)")
	userCreateCmd.Flags().StringVar(&userRole, "role", models.RoleAdmin, "role name")
	_ = userCreateCmd.MarkFlagRequired("email")
	_ = userCreateCmd.MarkFlagRequired("password")
	userCmd.AddCommand(userCreateCmd)

	cartsCmd.AddCommand(cartsExpireCmd)
}
