package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nanyeglm/CPU-Gym-Reserve-online/pkg/models"
	"github.com/nanyeglm/CPU-Gym-Reserve-online/pkg/store"
	"github.com/nanyeglm/CPU-Gym-Reserve-online/pkg/venues"
)

var (
	ordersDate  string
	ordersGroup string
	ordersSlot  string
	ordersMine  bool
)

var ordersCmd = &cobra.Command{
	Use:   "orders",
	Short: "List mirrored bookings",
	Long: `List the bookings in the local mirror, grouped by venue area. Each
multi-hour booking is expanded into its individual one-hour slots.

By default confirmed orders discovered from the site are shown; --mine
lists the reservations submitted from this machine instead.`,
	Example: `  gymreserve orders --date 2026-09-01
  gymreserve orders --group 体育馆三楼羽毛球馆 --slot 19
  gymreserve orders --mine`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := buildApp()
		if err != nil {
			return err
		}
		defer a.close()

		name := store.Orders
		if ordersMine {
			name = store.Reservations
		}

		filters := store.Filters{Date: ordersDate, TimeSlot: ordersSlot}
		if ordersGroup != "" {
			filters.Venues = a.venues.Members(ordersGroup)
			if len(filters.Venues) == 0 {
				return fmt.Errorf("unknown venue group %q", ordersGroup)
			}
		}

		recs, err := a.store.QueryByFilters(context.Background(), name, filters)
		if err != nil {
			return err
		}
		if len(recs) == 0 {
			fmt.Println("no bookings found")
			return nil
		}

		printGrouped(os.Stdout, a.venues, recs, ordersSlot)
		return nil
	},
}

// printGrouped renders records grouped by venue area, venues in canonical
// order inside each group, one line per expanded hour slot. The slot filter
// is re-applied per slot: a record stores its hours as one packed field, so
// matching at the record level would print that record's other hours too.
func printGrouped(w io.Writer, vm *venues.Map, recs []models.Record, slotFilter string) {
	byGroup := make(map[string][]models.Record)
	for _, rec := range recs {
		g := vm.GroupOf(rec.Venue)
		byGroup[g] = append(byGroup[g], rec)
	}

	groups := make([]string, 0, len(byGroup))
	for g := range byGroup {
		groups = append(groups, g)
	}
	sort.Strings(groups)

	for _, g := range groups {
		members := byGroup[g]
		sort.SliceStable(members, func(i, j int) bool {
			if members[i].Venue != members[j].Venue {
				return vm.OrderIndex(members[i].Venue) < vm.OrderIndex(members[j].Venue)
			}
			return members[i].TimeSlot < members[j].TimeSlot
		})

		fmt.Fprintf(w, "%s\n", g)
		for _, rec := range members {
			for _, slot := range rec.Slots() {
				if slotFilter != "" && !strings.Contains(slot, slotFilter) {
					continue
				}
				holder := rec.HolderName
				if holder == "" {
					holder = "-"
				}
				fmt.Fprintf(w, "  %-6d %s  %s %s:00  %s\n", rec.ExternalID, rec.Venue, rec.Date, slot, holder)
			}
		}
	}
}

func init() {
	ordersCmd.Flags().StringVar(&ordersDate, "date", "", "filter by date, YYYY-MM-DD")
	ordersCmd.Flags().StringVar(&ordersGroup, "group", "", "filter by venue group")
	ordersCmd.Flags().StringVar(&ordersSlot, "slot", "", "filter by hour slot, e.g. 19")
	ordersCmd.Flags().BoolVar(&ordersMine, "mine", false, "list locally submitted reservations")

	rootCmd.AddCommand(ordersCmd)
}
