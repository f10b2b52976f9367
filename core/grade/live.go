package grade

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/volatiletech/null/v8"
)

// LiveStatus is what students & teachers see of a subdivision's live class.
type LiveStatus struct {
	SubdivisionID string      `json:"subdivisionId"`
	IsLive        bool        `json:"isLive"`
	MeetingID     null.String `json:"meetingId"`
}

// JoinInfo is handed to the video conferencing embed.
type JoinInfo struct {
	RoomID      string `json:"roomId"`
	DisplayName string `json:"displayName"`
	URL         string `json:"url"`
}

// RoomID derives the video room of a subdivision; the same subdivision always gets the same room.
func RoomID(prefix, subdivisionID string) string {
	if prefix == "" {
		return subdivisionID
	}
	return prefix + "-" + subdivisionID
}

func joinURL(baseURL, roomID, displayName string) string {
	return fmt.Sprintf(
		"%s/%s#userInfo.displayName=%s",
		strings.TrimRight(baseURL, "/"), url.PathEscape(roomID), url.QueryEscape(`"`+displayName+`"`),
	)
}
