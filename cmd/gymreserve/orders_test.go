package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nanyeglm/CPU-Gym-Reserve-online/pkg/models"
	"github.com/nanyeglm/CPU-Gym-Reserve-online/pkg/venues"
)

func listingVenues() *venues.Map {
	return venues.New(
		map[int]string{
			1: "田径场健身房",
			2: "体育馆三楼羽毛球馆1号场",
			3: "体育馆三楼羽毛球馆2号场",
		},
		map[string][]string{
			"体育馆三楼羽毛球馆": {"体育馆三楼羽毛球馆1号场", "体育馆三楼羽毛球馆2号场"},
			"田径场健身房":     {"田径场健身房"},
		},
	)
}

func TestPrintGroupedExpandsSlots(t *testing.T) {
	recs := []models.Record{
		{ExternalID: 824, Venue: "田径场健身房", HolderName: "张三", Date: "2026-09-01", TimeSlot: "19;20"},
	}

	var buf bytes.Buffer
	printGrouped(&buf, listingVenues(), recs, "")
	out := buf.String()

	// One display row per hour in the packed field.
	assert.Contains(t, out, "2026-09-01 19:00")
	assert.Contains(t, out, "2026-09-01 20:00")
	assert.Equal(t, 2, strings.Count(out, "824"))
}

func TestPrintGroupedReappliesSlotFilterPerSlot(t *testing.T) {
	// The store matches a packed "19;20" field against --slot 19, but only
	// the 19:00 row may print.
	recs := []models.Record{
		{ExternalID: 824, Venue: "田径场健身房", HolderName: "张三", Date: "2026-09-01", TimeSlot: "19;20"},
		{ExternalID: 826, Venue: "体育馆三楼羽毛球馆1号场", HolderName: "李四", Date: "2026-09-01", TimeSlot: "19"},
	}

	var buf bytes.Buffer
	printGrouped(&buf, listingVenues(), recs, "19")
	out := buf.String()

	assert.Equal(t, 2, strings.Count(out, "19:00"))
	assert.NotContains(t, out, "20:00")
}

func TestPrintGroupedOrdersVenuesCanonically(t *testing.T) {
	recs := []models.Record{
		{ExternalID: 830, Venue: "体育馆三楼羽毛球馆2号场", Date: "2026-09-01", TimeSlot: "10"},
		{ExternalID: 829, Venue: "体育馆三楼羽毛球馆1号场", Date: "2026-09-01", TimeSlot: "10"},
		{ExternalID: 828, Venue: "田径场健身房", Date: "2026-09-01", TimeSlot: "10"},
	}

	var buf bytes.Buffer
	printGrouped(&buf, listingVenues(), recs, "")
	out := buf.String()

	// Groups sort by name, venues inside a group by id order. The missing
	// holder name renders as a dash.
	assert.Less(t, strings.Index(out, "829"), strings.Index(out, "830"))
	assert.Less(t, strings.Index(out, "体育馆三楼羽毛球馆"), strings.Index(out, "828"))
	assert.Contains(t, out, "  -")
}