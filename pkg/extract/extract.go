package extract

import (
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/nanyeglm/CPU-Gym-Reserve-online/pkg/models"
)

// Status classifies one extraction attempt.
type Status int

const (
	// StatusOK means a complete record was extracted.
	StatusOK Status = iota
	// StatusNotReady means the document carries no approval marker: the id
	// has no approved booking behind it. Frequent and expected.
	StatusNotReady
	// StatusMalformed means the document was approved but a required field
	// could not be located.
	StatusMalformed
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusNotReady:
		return "not_ready"
	case StatusMalformed:
		return "malformed"
	default:
		return "unknown"
	}
}

// Grammar is the versioned extraction contract for the reservation site's
// order page. Markup drift is absorbed here; callers only see Extract.
type Grammar struct {
	Version string

	// ApprovedMarker appears in bodies of approved, admissible bookings.
	ApprovedMarker string
	// CancelledMarker appears once a booking has been refunded remotely.
	CancelledMarker string

	// Field labels located by structural proximity.
	VenueLabel string
	NameLabel  string
	TimeLabel  string

	// DateStyle is the inline style attribute that distinguishes the date
	// span inside the time block.
	DateStyle string
}

// DefaultGrammar matches the site markup as of the current deployment.
func DefaultGrammar() Grammar {
	return Grammar{
		Version:         "v1",
		ApprovedMarker:  "审核通过，可以进场",
		CancelledMarker: "禁止进场",
		VenueLabel:      "预约场馆",
		NameLabel:       "预约姓名",
		TimeLabel:       "预约时间",
		DateStyle:       "font-weight:600;margin-right:1rem",
	}
}

// Extract parses one order page into a record. It is a pure function: the
// same (id, body) always yields the same classification, which keeps retries
// safe and tests simple.
func (g Grammar) Extract(id int64, body string) (*models.Record, Status) {
	if !strings.Contains(body, g.ApprovedMarker) {
		return nil, StatusNotReady
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return nil, StatusMalformed
	}

	venue := g.siblingDivText(doc, g.VenueLabel)
	if venue == "" {
		return nil, StatusMalformed
	}

	nameDiv := g.labelByText(doc, g.NameLabel).NextFiltered("div")
	if nameDiv.Length() == 0 {
		return nil, StatusMalformed
	}
	// The holder name is the div's own text; the phone sits in a nested span
	// and is optional.
	name := strings.TrimSpace(nameDiv.Contents().Not("span").Text())
	phone := strings.TrimSpace(nameDiv.Find("span").First().Text())
	if name == "" {
		return nil, StatusMalformed
	}

	timeBlock := g.labelByText(doc, g.TimeLabel).Parent()
	date := strings.TrimSpace(timeBlock.Find(`span[style="` + g.DateStyle + `"]`).First().Text())
	if _, err := time.Parse(models.DateLayout, date); err != nil {
		return nil, StatusMalformed
	}

	slots := strings.TrimSpace(timeBlock.Find("em").First().Text())
	if slots == "" {
		// Approved bookings always show at least one slot; a blank slot set
		// means this is not a bookable record.
		return nil, StatusMalformed
	}

	return &models.Record{
		ExternalID:  id,
		Venue:       venue,
		HolderName:  name,
		HolderPhone: phone,
		Date:        date,
		TimeSlot:    slots,
	}, StatusOK
}

// IsCancelled reports whether the body carries the remote cancellation
// marker. Only this explicit marker is grounds for pruning a stored record.
func (g Grammar) IsCancelled(body string) bool {
	return strings.Contains(body, g.CancelledMarker)
}

// labelByText finds the first label node whose trimmed text equals label.
func (g Grammar) labelByText(doc *goquery.Document, label string) *goquery.Selection {
	return doc.Find("label").FilterFunction(func(_ int, s *goquery.Selection) bool {
		return strings.TrimSpace(s.Text()) == label
	}).First()
}

// siblingDivText returns the trimmed text of the div adjacent to a label.
func (g Grammar) siblingDivText(doc *goquery.Document, label string) string {
	return strings.TrimSpace(g.labelByText(doc, label).NextFiltered("div").Text())
}
