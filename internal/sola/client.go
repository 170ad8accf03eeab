// Package sola wraps the Social Layer GraphQL API. Transport failures are
// degraded at this boundary: listing calls log the error and return empty
// results, so callers cannot distinguish "no events" from an outage (the
// log line is the only trace of the latter).
package sola

import (
	"context"
	"log"
	"time"

	"github.com/machinebox/graphql"
)

const eventsQuery = `
query ($groupIds: [Int!], $limit: Int, $offset: Int, $start: timestamp, $end: timestamp) {
  events(
    where: {
      start_time: { _lte: $end }
      end_time: { _gte: $start }
      group_id: { _in: $groupIds }
      status: { _in: ["open", "new", "normal"] }
    }
    order_by: { start_time: asc }
    limit: $limit
    offset: $offset
  ) {
    id
    title
    content
    cover_url
    tags
    start_time
    end_time
    location
    max_participant
    min_participant
    host_info
    meeting_url
    event_site { id title location }
    group_id
    owner { username }
    notes
    category
    timezone
    geo_lng
    geo_lat
    participants { id profile { username } }
    external_url
  }
}`

const groupByNameQuery = `
query ($name: String) {
  groups(where: {username: {_eq: $name}}) {
    id
  }
}`

const listGroupsQuery = `{
  groups(where: {events_count: {_gt: 0}}, order_by: {events_count: asc}) {
    username
    id
    events_count
  }
}`

const groupInfosQuery = `
query ($ids: [bigint!]) {
  groups(where: {id: {_in: $ids}}, order_by: {events_count: asc}) {
    username
    timezone
  }
}`

type Client struct {
	gql        *graphql.Client
	fallbackTZ string
}

func NewClient(endpoint, fallbackTZ string) *Client {
	return &Client{
		gql:        graphql.NewClient(endpoint),
		fallbackTZ: fallbackTZ,
	}
}

// Events fetches one page of events overlapping [start, end] for the given
// groups, ordered by start time ascending. It requests limit+1 rows and
// discards the extra one, so HasMore is true iff a further page exists.
// A transport failure yields an empty page.
func (c *Client) Events(ctx context.Context, groupIDs []int64, start, end time.Time, limit, offset int) Page {
	req := graphql.NewRequest(eventsQuery)
	req.Var("groupIds", groupIDs)
	req.Var("limit", limit+1)
	req.Var("offset", offset)
	req.Var("start", start.UTC().Format(time.RFC3339))
	req.Var("end", end.UTC().Format(time.RFC3339))

	var resp struct {
		Events []Event `json:"events"`
	}
	if err := c.gql.Run(ctx, req, &resp); err != nil {
		log.Printf("sola: events query failed (soft-fail to empty page): %v", err)
		return Page{}
	}
	events := resp.Events
	hasMore := len(events) > limit
	if hasMore {
		events = events[:limit]
	}
	return Page{Events: events, HasMore: hasMore}
}

// GroupByName resolves a group username to its id.
func (c *Client) GroupByName(ctx context.Context, name string) (int64, bool) {
	req := graphql.NewRequest(groupByNameQuery)
	req.Var("name", name)

	var resp struct {
		Groups []struct {
			ID int64 `json:"id"`
		} `json:"groups"`
	}
	if err := c.gql.Run(ctx, req, &resp); err != nil {
		log.Printf("sola: group lookup for %q failed: %v", name, err)
		return 0, false
	}
	if len(resp.Groups) == 0 {
		return 0, false
	}
	return resp.Groups[len(resp.Groups)-1].ID, true
}

// ListGroups returns the groups that currently have events.
func (c *Client) ListGroups(ctx context.Context) []Group {
	req := graphql.NewRequest(listGroupsQuery)

	var resp struct {
		Groups []Group `json:"groups"`
	}
	if err := c.gql.Run(ctx, req, &resp); err != nil {
		log.Printf("sola: list groups failed: %v", err)
		return nil
	}
	return resp.Groups
}

// GroupInfos batch-resolves username and timezone for a set of group ids.
func (c *Client) GroupInfos(ctx context.Context, ids []int64) []GroupInfo {
	req := graphql.NewRequest(groupInfosQuery)
	req.Var("ids", ids)

	var resp struct {
		Groups []GroupInfo `json:"groups"`
	}
	if err := c.gql.Run(ctx, req, &resp); err != nil {
		log.Printf("sola: group infos for %v failed: %v", ids, err)
		return nil
	}
	return resp.Groups
}

// GroupTimezone resolves the first matching group's timezone, falling back
// to the configured default zone when the lookup misses or the zone name
// does not load.
func (c *Client) GroupTimezone(ctx context.Context, ids []int64) *time.Location {
	infos := c.GroupInfos(ctx, ids)
	name := c.fallbackTZ
	if len(infos) > 0 && infos[0].Timezone != "" {
		name = infos[0].Timezone
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		log.Printf("sola: bad timezone %q, using %q: %v", name, c.fallbackTZ, err)
		loc, err = time.LoadLocation(c.fallbackTZ)
		if err != nil {
			return time.UTC
		}
	}
	return loc
}
