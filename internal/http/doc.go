// Package http exposes the engagement service over a JSON API.
//
// All routes live under /api:
//   - GET /engagements, POST /engagements, GET|PUT|DELETE /engagements/{id}:
//     engagement CRUD exchanging the engagementRequest and engagementDTO payloads.
//     Listing accepts ?type=, ?status= (comma separated) and ?from=/?to= dates.
//   - GET /calendar?date=YYYY-MM-DD: occurrences on one day, recurring or not.
//   - GET /calendar.ics: scheduled engagements as an iCalendar feed.
//   - POST /recurrence/expand, POST /conflicts/schedule, POST /conflicts/recurrence:
//     editor helpers that preview dates and report conflicts with a summary.
//   - GET /engagements/{id}/slots, POST /engagements/{id}/bookings,
//     DELETE /engagements/{id}/bookings/{bookingID},
//     POST /engagements/{id}/waitlist/process and the slot-exceptions routes:
//     slot booking. A rejected booking answers 409 with the rejection reason.
//   - PUT /engagements/{id}/rsvp/{userID}, POST /engagements/{id}/volunteer-requests,
//     PUT /engagements/{id}/volunteer-requests/{requestID}: participation.
//   - GET /ws: websocket stream of domain events.
//   - GET /health: liveness probe.
//
// Errors use the errorResponse envelope. Validation failures answer 422 with a
// field map, unknown resources 404, state conflicts 409.
package http
