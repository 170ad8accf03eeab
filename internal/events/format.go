package events

import (
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"sola-events-bot/internal/sola"
)

// API timestamps are zone-less UTC.
const apiTimeLayout = "2006-01-02T15:04:05"

func esc(s string) string {
	return tgbotapi.EscapeText(tgbotapi.ModeMarkdownV2, s)
}

func bold(s string) string      { return "*" + s + "*" }
func italic(s string) string    { return "_" + s + "_" }
func underline(s string) string { return "__" + s + "__" }

// FormatEvent renders one event as a MarkdownV2 block: title, time range in
// the event's timezone, location, meeting URL, hosts, and a detail link on
// the group's site.
func FormatEvent(ev sola.Event, groupName string) string {
	lines := []string{
		bold(esc(ev.Title)),
		bold("Time:") + " " + esc(formatTimeRange(ev.StartTime, ev.EndTime, ev.Timezone, time.Now())),
	}
	if ev.Location != nil && *ev.Location != "" {
		lines = append(lines, bold("Location:")+" "+esc(*ev.Location))
	}
	if ev.MeetingURL != nil && *ev.MeetingURL != "" {
		lines = append(lines, bold("Meeting URL:")+" "+esc(*ev.MeetingURL))
	}
	if h := formatHostInfo(parseHostInfo(ev.HostInfo)); h != "" {
		lines = append(lines, h)
	}
	lines = append(lines, esc(fmt.Sprintf("https://%s.sola.day/event/detail/%d", groupName, ev.ID)))

	out := lines[:0]
	for _, l := range lines {
		if strings.TrimSpace(l) != "" {
			out = append(out, l)
		}
	}
	return strings.Join(out, "\n")
}

func formatTimeRange(startRaw, endRaw string, tzName *string, now time.Time) string {
	loc := time.UTC
	if tzName != nil && *tzName != "" {
		if l, err := time.LoadLocation(*tzName); err == nil {
			loc = l
		}
	}
	start, err := time.ParseInLocation(apiTimeLayout, startRaw, time.UTC)
	if err != nil {
		return startRaw + " - " + endRaw
	}
	end, err := time.ParseInLocation(apiTimeLayout, endRaw, time.UTC)
	if err != nil {
		return startRaw + " - " + endRaw
	}
	start, end = start.In(loc), end.In(loc)

	startLayout := "Jan 2, 3:04 PM"
	if start.Year() != now.Year() {
		startLayout = "Jan 2, 2006, 3:04 PM"
	}
	endLayout := "Jan 2, 3:04 PM MST"
	if end.Year() != now.Year() || end.Year() != start.Year() {
		endLayout = "Jan 2, 2006, 3:04 PM MST"
	}
	return start.Format(startLayout) + " - " + end.Format(endLayout)
}

func parseHostInfo(raw *string) *sola.HostInfo {
	if raw == nil || *raw == "" {
		return nil
	}
	var info sola.HostInfo
	if err := json.Unmarshal([]byte(*raw), &info); err != nil {
		log.Printf("events: bad host_info payload: %v", err)
		return nil
	}
	return &info
}

func formatHostInfo(info *sola.HostInfo) string {
	if info == nil {
		return ""
	}
	var lines []string
	if info.GroupHost != nil && info.GroupHost.Nickname != nil && *info.GroupHost.Nickname != "" {
		lines = append(lines, bold("Host:")+" "+esc(*info.GroupHost.Nickname))
	}
	if len(info.CoHost) > 0 {
		names := make([]string, len(info.CoHost))
		for i, h := range info.CoHost {
			names[i] = h.Username
		}
		lines = append(lines, bold(esc("Co-hosts:"))+" "+esc(strings.Join(names, ", ")))
	}
	if len(info.Speaker) > 0 {
		names := make([]string, len(info.Speaker))
		for i, s := range info.Speaker {
			names[i] = s.Username
		}
		lines = append(lines, bold("Speakers:")+" "+esc(strings.Join(names, ", ")))
	}
	return strings.Join(lines, "\n")
}

// FormatGroups renders the /list output in HTML.
func FormatGroups(groups []sola.Group) string {
	var b strings.Builder
	b.WriteString("<b>Groups:</b>\n\n")
	for _, g := range groups {
		fmt.Fprintf(&b, "📦 <b>Group ID:</b> %d", g.ID)
		if g.Username != nil && *g.Username != "" {
			fmt.Fprintf(&b, " | <b>Group Name:</b> %s", *g.Username)
		}
		fmt.Fprintf(&b, " | <b>Count:</b> %d\n", g.EventsCount)
	}
	return b.String()
}
