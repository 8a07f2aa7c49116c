// Package participation aggregates RSVP responses and volunteer requests for an
// engagement.
package participation

import "time"

// ResponseStatus is an attendee's answer.
type ResponseStatus string

const (
	ResponseAttending    ResponseStatus = "attending"
	ResponseNotAttending ResponseStatus = "not_attending"
	ResponseMaybe        ResponseStatus = "maybe"
)

// Valid reports whether s is a known response.
func (s ResponseStatus) Valid() bool {
	switch s {
	case ResponseAttending, ResponseNotAttending, ResponseMaybe:
		return true
	}
	return false
}

// Response is one user's RSVP.
type Response struct {
	UserID      string
	Status      ResponseStatus
	Note        string
	RespondedAt time.Time
}

// RSVPStats tallies responses. Pending counts recipients who have not answered.
type RSVPStats struct {
	Attending    int
	NotAttending int
	Maybe        int
	Pending      int
}

// RSVP tracks responses against the number of invited recipients.
type RSVP struct {
	TotalRecipients int
	Responses       []Response
	Stats           RSVPStats
}

// Clone returns a deep copy.
func (r RSVP) Clone() RSVP {
	out := r
	if r.Responses != nil {
		out.Responses = append([]Response(nil), r.Responses...)
	}
	return out
}

// Upsert records resp, replacing any earlier response from the same user, and
// recomputes Stats.
func (r *RSVP) Upsert(resp Response) Response {
	replaced := false
	for i := range r.Responses {
		if r.Responses[i].UserID == resp.UserID {
			r.Responses[i] = resp
			replaced = true
			break
		}
	}
	if !replaced {
		r.Responses = append(r.Responses, resp)
	}
	r.Recompute()
	return resp
}

// Recompute refreshes Stats from Responses.
func (r *RSVP) Recompute() {
	var stats RSVPStats
	for _, resp := range r.Responses {
		switch resp.Status {
		case ResponseAttending:
			stats.Attending++
		case ResponseNotAttending:
			stats.NotAttending++
		case ResponseMaybe:
			stats.Maybe++
		}
	}
	stats.Pending = r.TotalRecipients - len(r.Responses)
	if stats.Pending < 0 {
		stats.Pending = 0
	}
	r.Stats = stats
}
