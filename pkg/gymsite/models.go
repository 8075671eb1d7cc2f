package gymsite

import (
	"encoding/json"
	"net/url"
	"strconv"

	errs "github.com/nanyeglm/CPU-Gym-Reserve-online/pkg/errors"
)

// SubmitResponse is the saveYuyue endpoint's JSON body on success.
type SubmitResponse struct {
	Data struct {
		YuyueID json.Number `json:"yuyue_id"`
	} `json:"data"`
}

// CancelResponse is the tuikuan endpoint's JSON body. Code "0" is success.
type CancelResponse struct {
	Code string `json:"Code"`
	Msg  string `json:"Msg"`
}

// ParseSubmitResponse extracts the numeric booking id from a submit response.
func ParseSubmitResponse(body []byte) (int64, error) {
	var resp SubmitResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return 0, errs.New(errs.ErrorTypeRemoteProtocol, "failed to parse server response: %v", err)
	}

	id, err := resp.Data.YuyueID.Int64()
	if err != nil || id <= 0 {
		return 0, errs.New(errs.ErrorTypeRemoteProtocol, "server response carries no booking id")
	}

	return id, nil
}

// ParseCancelResponse decodes a cancel response.
func ParseCancelResponse(body []byte) (*CancelResponse, error) {
	var resp CancelResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, errs.New(errs.ErrorTypeRemoteProtocol, "failed to parse server response: %v", err)
	}
	return &resp, nil
}

// SubmitForm builds the saveYuyue payload. The fixed fields mirror what the
// site's own form posts.
func SubmitForm(token, date, timeSlot, name, phone string, venueID int, openID string) url.Values {
	return url.Values{
		"isWeb":           {"1"},
		"API":             {"saveYuyue"},
		"noSave":          {"yuyue_id"},
		"back":            {"yuyue_id"},
		"yyp_pass":        {token},
		"yuyue_riqi":      {date},
		"yuyue_time":      {timeSlot},
		"yuyue_name":      {name},
		"yuyue_hp":        {phone},
		"yuyue_view":      {"-1"},
		"yuyue_changguan": {strconv.Itoa(venueID)},
		"yuyue_openid":    {openID},
		"yuyue_chengren":  {"1"},
	}
}

// CancelForm builds the tuikuan payload for one booking id.
func CancelForm(id int64) url.Values {
	return url.Values{
		"isWeb":       {"1"},
		"tuikuan_id":  {strconv.FormatInt(id, 10)},
		"API":         {"tuikuan"},
		"tuikuanflag": {"yuyue"},
	}
}
