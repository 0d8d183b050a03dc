package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/shelfscout/shelfscout/internal/utils"
	"github.com/shelfscout/shelfscout/pkg/route"
	"github.com/tidwall/sjson"
)

// listCmd represents the list command
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Manage the shopping list",
}

var listShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the shopping list",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		items, err := db.ListItems(cmd.Context())
		if err != nil {
			return err
		}
		for _, it := range items {
			line := fmt.Sprintf("%dx %s (%s)", it.Quantity, it.Name, it.Barcode)
			if len(it.Prices) > 0 {
				last := it.Prices[len(it.Prices)-1]
				line += fmt.Sprintf(" - last seen at %s for $%.2f", last.Store, last.Price)
			}
			fmt.Println(line)
		}
		return nil
	},
}

var listAddCmd = &cobra.Command{
	Use:   "add <barcode> <name>",
	Short: "Add an item by hand",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		quantity, _ := cmd.Flags().GetInt("quantity")
		aisle, _ := cmd.Flags().GetString("aisle")

		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		return db.UpsertItem(cmd.Context(), route.ShoppingItem{
			Barcode:  args[0],
			Name:     args[1],
			Quantity: quantity,
			Aisle:    aisle,
		})
	},
}

var listRmCmd = &cobra.Command{
	Use:   "rm <barcode>",
	Short: "Remove an item and its observation history",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()
		return db.RemoveItem(cmd.Context(), args[0])
	},
}

var listImportCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import a JSON shopping list",
	Long:  "Reads a JSON array of shopping items (timestamps as ISO-8601 strings) and merges it into the list.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}
		var items []route.ShoppingItem
		if err := json.Unmarshal(data, &items); err != nil {
			return fmt.Errorf("invalid shopping list JSON: %v", err)
		}

		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		for _, it := range items {
			if it.Barcode == "" {
				continue
			}
			if err := db.UpsertItem(cmd.Context(), it); err != nil {
				return err
			}
		}
		utils.Log.Info("Imported ", len(items), " items")
		return nil
	},
}

var listExportCmd = &cobra.Command{
	Use:   "export <file>",
	Short: "Export the shopping list as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		items, err := db.ListItems(cmd.Context())
		if err != nil {
			return err
		}

		itemsJSON, err := json.Marshal(items)
		if err != nil {
			return err
		}

		out := `{}`
		out, _ = sjson.Set(out, "exportedAt", time.Now().UTC().Format(time.RFC3339))
		out, _ = sjson.Set(out, "totalItems", len(items))
		out, _ = sjson.SetRaw(out, "items", string(itemsJSON))

		return os.WriteFile(args[0], []byte(out), 0644)
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
	listCmd.AddCommand(listShowCmd)
	listCmd.AddCommand(listAddCmd)
	listCmd.AddCommand(listRmCmd)
	listCmd.AddCommand(listImportCmd)
	listCmd.AddCommand(listExportCmd)

	listAddCmd.Flags().IntP("quantity", "q", 1, "Quantity to buy")
	listAddCmd.Flags().StringP("aisle", "a", "", "Aisle label, if known")
}
