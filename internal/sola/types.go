package sola

// Event is one row of the events query. Timestamps arrive as zone-less
// strings ("2006-01-02T15:04:05") interpreted in UTC; Timezone names the
// IANA zone the event should be displayed in.
type Event struct {
	ID             int64         `json:"id"`
	Title          string        `json:"title"`
	Content        string        `json:"content"`
	CoverURL       *string       `json:"cover_url"`
	Tags           []string      `json:"tags"`
	StartTime      string        `json:"start_time"`
	EndTime        string        `json:"end_time"`
	Location       *string       `json:"location"`
	MaxParticipant *int          `json:"max_participant"`
	MinParticipant *int          `json:"min_participant"`
	HostInfo       *string       `json:"host_info"`
	MeetingURL     *string       `json:"meeting_url"`
	EventSite      *EventSite    `json:"event_site"`
	GroupID        *int64        `json:"group_id"`
	Owner          Profile       `json:"owner"`
	Notes          *string       `json:"notes"`
	Category       *string       `json:"category"`
	Timezone       *string       `json:"timezone"`
	GeoLng         *string       `json:"geo_lng"`
	GeoLat         *string       `json:"geo_lat"`
	Participants   []Participant `json:"participants"`
	ExternalURL    *string       `json:"external_url"`
}

type EventSite struct {
	ID       *int64  `json:"id"`
	Title    *string `json:"title"`
	Location *string `json:"location"`
}

type Profile struct {
	Username string `json:"username"`
}

type Participant struct {
	ID      int64   `json:"id"`
	Profile Profile `json:"profile"`
}

// HostInfo is the JSON payload embedded in Event.HostInfo.
type HostInfo struct {
	Speaker   []Profile  `json:"speaker"`
	CoHost    []Profile  `json:"co_host"`
	GroupHost *GroupHost `json:"group_host"`
}

type GroupHost struct {
	ID       int64   `json:"id"`
	Creator  bool    `json:"creator"`
	Username string  `json:"username"`
	Nickname *string `json:"nickname"`
	ImageURL *string `json:"image_url"`
}

// Page is one slice of an event listing. HasMore reports that the API had
// strictly more rows than the requested limit.
type Page struct {
	Events  []Event
	HasMore bool
}

// Group is a listable group with a positive event count.
type Group struct {
	ID          int64   `json:"id"`
	Username    *string `json:"username"`
	EventsCount int     `json:"events_count"`
}

// GroupInfo is the username/timezone pair resolved for subscribed groups.
type GroupInfo struct {
	Username string `json:"username"`
	Timezone string `json:"timezone"`
}
