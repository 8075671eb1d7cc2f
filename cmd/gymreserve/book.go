package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nanyeglm/CPU-Gym-Reserve-online/pkg/booking"
)

var (
	bookVenue string
	bookDate  string
	bookSlot  string
	bookName  string
	bookPhone string
)

var bookCmd = &cobra.Command{
	Use:   "book",
	Short: "Submit a booking for a venue, date, and time slot",
	Long: `Submit a booking. The venue may be given as a remote venue id or as the
exact venue name. Holder name and phone are optional; omitted values are
filled with plausible placeholders.`,
	Example: `  gymreserve book --venue 2 --date 2026-09-01 --slot 19
  gymreserve book --venue 田径场健身房 --date 2026-09-01 --slot 10 --name 张三`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := buildApp()
		if err != nil {
			return err
		}
		defer a.close()

		venueID, err := a.resolveVenue(bookVenue)
		if err != nil {
			return err
		}

		conf, err := a.bookingService().Submit(context.Background(), booking.Request{
			VenueID:     venueID,
			Date:        bookDate,
			TimeSlot:    bookSlot,
			HolderName:  bookName,
			HolderPhone: bookPhone,
		})
		if err != nil {
			return err
		}

		rec := conf.Record
		fmt.Printf("booked %s on %s at %s:00 for %s (id %d)\n",
			rec.Venue, rec.Date, rec.TimeSlot, rec.HolderName, rec.ExternalID)
		return nil
	},
}

// resolveVenue accepts a numeric venue id or an exact venue name.
func (a *app) resolveVenue(venue string) (int, error) {
	if venue == "" {
		return 0, fmt.Errorf("--venue is required")
	}
	var id int
	if _, err := fmt.Sscanf(venue, "%d", &id); err == nil {
		if _, ok := a.venues.Name(id); ok {
			return id, nil
		}
		return 0, fmt.Errorf("unknown venue id %d", id)
	}
	if id, ok := a.venues.ID(venue); ok {
		return id, nil
	}
	return 0, fmt.Errorf("unknown venue %q", venue)
}

func init() {
	bookCmd.Flags().StringVar(&bookVenue, "venue", "", "venue id or exact venue name (required)")
	bookCmd.Flags().StringVar(&bookDate, "date", "", "booking date, YYYY-MM-DD (required)")
	bookCmd.Flags().StringVar(&bookSlot, "slot", "", "starting hour of the slot, e.g. 19 (required)")
	bookCmd.Flags().StringVar(&bookName, "name", "", "holder name")
	bookCmd.Flags().StringVar(&bookPhone, "phone", "", "holder phone, 11 digits")

	bookCmd.MarkFlagRequired("venue")
	bookCmd.MarkFlagRequired("date")
	bookCmd.MarkFlagRequired("slot")

	rootCmd.AddCommand(bookCmd)
}
