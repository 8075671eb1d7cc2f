package gymsite

import "fmt"

// The site exposes four surfaces: the order read page, the venue page that
// embeds the booking key, and two ajax save endpoints.
const (
	orderPath  = "/wap/yuyueIn"
	tokenPath  = "/wap/yuyue"
	submitPath = "/inc/ajax/save/saveYuyue"
	cancelPath = "/inc/ajax/save/tuikuan"
)

// OrderURL returns the read endpoint for one booking id.
func (c *Client) OrderURL(id int64) string {
	return fmt.Sprintf("%s%s?id=%d", c.baseURL, orderPath, id)
}

// TokenURL returns the venue page that embeds the one-time booking key.
func (c *Client) TokenURL(venueID int) string {
	return fmt.Sprintf("%s%s?id=%d", c.baseURL, tokenPath, venueID)
}

// SubmitURL returns the booking submission endpoint.
func (c *Client) SubmitURL() string {
	return c.baseURL + submitPath
}

// CancelURL returns the cancellation endpoint.
func (c *Client) CancelURL() string {
	return c.baseURL + cancelPath
}
