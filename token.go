package main

import (
	"github.com/JoshPattman/cvquestions/storage"
	"github.com/spf13/cobra"
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Manage the stored bearer token",
}

var tokenSetCmd = &cobra.Command{
	Use:   "set <token>",
	Short: "Store the token sent with every API request",
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		tokens, err := openTokenStore()
		if err != nil {
			return err
		}
		if err := tokens.SetToken(args[0]); err != nil {
			return err
		}
		logger.Info("Token stored")
		return nil
	},
}

var tokenClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove the stored token",
	Args:  cobra.NoArgs,
	RunE: func(_ *cobra.Command, _ []string) error {
		tokens, err := openTokenStore()
		if err != nil {
			return err
		}
		if err := tokens.ClearToken(); err != nil {
			return err
		}
		logger.Info("Token cleared")
		return nil
	},
}

func init() {
	tokenCmd.AddCommand(tokenSetCmd, tokenClearCmd)
	rootCmd.AddCommand(tokenCmd)
}

func openTokenStore() (*storage.TokenStore, error) {
	kv, err := storage.NewFileKVStore(cfg.StorageDir)
	if err != nil {
		return nil, err
	}
	return storage.NewTokenStore(kv), nil
}
