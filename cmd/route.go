package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/shelfscout/shelfscout/pkg/route"
)

// routeCmd represents the route command
var routeCmd = &cobra.Command{
	Use:   "route",
	Short: "Optimize a shopping route for the saved list",
	Long:  "Groups the saved shopping list by store, orders each store's items by aisle, and ranks stores by item count.",
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

		routes := route.Optimize(items)
		if len(routes) == 0 {
			fmt.Println("Nothing to route. Resolve items with --save first.")
			return nil
		}

		for _, r := range routes {
			fmt.Printf("%s (%d items)\n", r.Store, r.TotalItems)
			for _, it := range r.OptimizedPath {
				aisle := it.Aisle
				if aisle == "" {
					aisle = "?"
				}
				fmt.Printf("  [%s] %dx %s\n", aisle, it.Quantity, it.Name)
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(routeCmd)
}
