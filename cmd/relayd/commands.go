package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/relaylink/relaylink/internal/config"
	"github.com/relaylink/relaylink/internal/link"
	"github.com/relaylink/relaylink/internal/logging"
	"github.com/relaylink/relaylink/internal/portal"
)

var (
	setEndpointURL string
	setAuthToken   string
	setEAPIdentity string
	setEAPPassword string
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect or change the device configuration record",
}

func init() {
	configSetCmd.Flags().StringVar(&setEndpointURL, "url", "", "Control endpoint URL (ws:// or wss://)")
	configSetCmd.Flags().StringVar(&setAuthToken, "token", "", "Authentication token")
	configSetCmd.Flags().StringVar(&setEAPIdentity, "eap-identity", "", "802.1X identity")
	configSetCmd.Flags().StringVar(&setEAPPassword, "eap-password", "", "802.1X password")

	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the stored record with secrets redacted",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, store, err := loadStore()
		if err != nil {
			return err
		}

		rec, found, err := store.Load()
		if err != nil {
			return fmt.Errorf("failed to load record: %w", err)
		}
		if !found {
			fmt.Println("No configuration record stored.")
			return nil
		}
		out, err := json.MarshalIndent(rec.Redacted(), "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Update the stored record",
	Example: `  # Point the device at a new control endpoint
  relayd config set --url wss://svc.example/control --token s3cret`,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, store, err := loadStore()
		if err != nil {
			return err
		}

		rec, _, err := store.Load()
		if err != nil {
			return fmt.Errorf("failed to load record: %w", err)
		}
		if setEndpointURL != "" {
			rec.EndpointURL = setEndpointURL
		}
		if setAuthToken != "" {
			rec.AuthToken = setAuthToken
		}
		if setEAPIdentity != "" {
			rec.EAPIdentity = setEAPIdentity
		}
		if setEAPPassword != "" {
			rec.EAPPassword = setEAPPassword
		}
		if !rec.HasEndpoint() {
			return fmt.Errorf("record needs both --url and --token")
		}

		if err := store.Save(rec); err != nil {
			return fmt.Errorf("failed to save record: %w", err)
		}
		fmt.Println("Configuration saved.")
		return nil
	},
}

var portalCmd = &cobra.Command{
	Use:   "portal",
	Short: "Run one interactive reconfiguration cycle",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := logging.InitializeFromEnv(); err != nil {
			return err
		}
		settings, store, err := loadStore()
		if err != nil {
			return err
		}

		p := &portal.Portal{
			Store:   store,
			Timeout: settings.PortalTimeout,
			Prefill: func() link.Credentials {
				return link.Credentials{
					SSID:       settings.Defaults.WifiSSID,
					Passphrase: settings.Defaults.WifiPass,
				}
			},
		}
		if p.Reconfigure(cmd.Context()) {
			fmt.Println("Configuration saved.")
		} else {
			fmt.Println("No changes.")
		}
		return nil
	},
}

// loadStore resolves the settings and the record store they point at.
func loadStore() (config.Settings, *config.RecordStore, error) {
	var (
		settings config.Settings
		err      error
	)
	if settingsPath != "" {
		settings, err = config.LoadSettingsFrom(settingsPath)
	} else {
		settings, err = config.LoadSettings()
	}
	if err != nil {
		return settings, nil, fmt.Errorf("failed to load settings: %w", err)
	}

	path := settings.RecordPath
	if path == "" {
		path = config.DefaultRecordPath
	}
	return settings, config.NewRecordStore(path), nil
}
