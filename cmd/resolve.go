package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/shelfscout/shelfscout/internal/utils"
	"github.com/shelfscout/shelfscout/pkg/retail"
	"github.com/shelfscout/shelfscout/pkg/route"
)

// resolveCmd represents the resolve command
var resolveCmd = &cobra.Command{
	Use:   "resolve <barcode>",
	Short: "Resolve a product barcode across all configured chains",
	Long:  "Looks up product identity for a barcode and, when a location is given, real-time stock, price and aisle data at nearby stores.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		barcode := args[0]
		location, _ := cmd.Flags().GetString("location")
		save, _ := cmd.Flags().GetBool("save")

		if location != "" && !utils.IsZipCode(location) {
			utils.Log.Warn("Location doesn't look like a ZIP code, passing it to store locators as-is")
		}

		resolver := newResolver()
		info := resolver.Resolve(cmd.Context(), barcode, location)
		if info == nil {
			fmt.Println("No product information available")
			return nil
		}

		printProduct(info, location != "")

		if save {
			db, err := openDB()
			if err != nil {
				return err
			}
			defer db.Close()

			item := route.ShoppingItem{
				Barcode:  barcode,
				Name:     info.Name,
				Quantity: 1,
				Image:    info.Image,
				Aisle:    info.Inventory.Aisle,
			}
			if err := db.UpsertItem(cmd.Context(), item); err != nil {
				return err
			}
			if err := db.RecordObservations(cmd.Context(), info); err != nil {
				return err
			}
			utils.Log.Info("Saved to shopping list")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(resolveCmd)

	resolveCmd.Flags().StringP("location", "z", "", "ZIP code or location query to search stores near")
	resolveCmd.Flags().BoolP("save", "s", false, "Add the product to the shopping list and record observations")
}

func printProduct(info *retail.ProductInfo, withInventory bool) {
	fmt.Println(info.Name)
	if info.Brand != "" {
		fmt.Println("Brand:   " + info.Brand)
	}
	fmt.Println("Barcode: " + info.Barcode)
	if info.Image != "" {
		fmt.Println("Image:   " + info.Image)
	}

	if !withInventory {
		return
	}

	if info.Inventory.StoreID == "unknown" {
		fmt.Println("No nearby store data")
		return
	}

	fmt.Println(retail.FormatInventory(info.Inventory))
	for _, alt := range info.AlternativeStores {
		fmt.Println("  alternative: " + retail.FormatInventory(alt))
	}
}
