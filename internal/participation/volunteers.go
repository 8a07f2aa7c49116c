package participation

import (
	"errors"
	"sort"
	"time"
)

// RequestStatus tracks a volunteer request.
type RequestStatus string

const (
	RequestPending  RequestStatus = "pending"
	RequestApproved RequestStatus = "approved"
	RequestRejected RequestStatus = "rejected"
)

var (
	// ErrRoleNotFound indicates the request names an unknown role.
	ErrRoleNotFound = errors.New("participation: volunteer role not found")
	// ErrRequestNotFound indicates no request with the given ID exists.
	ErrRequestNotFound = errors.New("participation: volunteer request not found")
	// ErrDuplicateRequest indicates the user already has a live request for the role.
	ErrDuplicateRequest = errors.New("participation: volunteer request already submitted")
	// ErrInvalidTransition indicates a review of a request that is no longer pending.
	ErrInvalidTransition = errors.New("participation: request is not pending")
	// ErrInvalidDecision indicates a review decision other than approve or reject.
	ErrInvalidDecision = errors.New("participation: decision must be approved or rejected")
	// ErrRoleFull indicates approving would exceed the role's available spots.
	ErrRoleFull = errors.New("participation: volunteer role is full")
)

// Role is a volunteer position with a fixed number of spots.
type Role struct {
	ID             string
	Name           string
	Description    string
	SpotsAvailable int
	SpotsFilled    int
}

// Request is a user's application for a role.
type Request struct {
	ID          string
	UserID      string
	RoleID      string
	Status      RequestStatus
	Message     string
	SubmittedAt time.Time
	ReviewedAt  *time.Time
	ReviewedBy  string
	ReviewNote  string
}

// Volunteers holds roles, requests and the auto-approval policy.
type Volunteers struct {
	Roles       []Role
	Requests    []Request
	AutoApprove bool
	// RequireApplicationForm is recorded and reported only. It does not gate
	// submission or auto-approval until the intended behavior is settled.
	RequireApplicationForm bool
	ApplicationDeadline    *time.Time
}

// Clone returns a deep copy.
func (v Volunteers) Clone() Volunteers {
	out := v
	if v.Roles != nil {
		out.Roles = append([]Role(nil), v.Roles...)
	}
	if v.Requests != nil {
		out.Requests = make([]Request, len(v.Requests))
		for i, req := range v.Requests {
			if req.ReviewedAt != nil {
				at := *req.ReviewedAt
				req.ReviewedAt = &at
			}
			out.Requests[i] = req
		}
	}
	if v.ApplicationDeadline != nil {
		deadline := *v.ApplicationDeadline
		out.ApplicationDeadline = &deadline
	}
	return out
}

// AutoApprovalOpen reports whether pending requests may be admitted without
// review. Auto-approval is suppressed once an application deadline has passed;
// without a deadline it always proceeds. RequireApplicationForm is not consulted.
func (v *Volunteers) AutoApprovalOpen(now time.Time) bool {
	if !v.AutoApprove {
		return false
	}
	if v.ApplicationDeadline != nil && now.After(*v.ApplicationDeadline) {
		return false
	}
	return true
}

// Submit records a pending request and then runs auto-approval. It returns the
// stored request as it stands afterwards.
func (v *Volunteers) Submit(req Request, now time.Time) (Request, error) {
	if v.roleIndex(req.RoleID) < 0 {
		return Request{}, ErrRoleNotFound
	}
	for _, existing := range v.Requests {
		if existing.UserID == req.UserID && existing.RoleID == req.RoleID && existing.Status != RequestRejected {
			return Request{}, ErrDuplicateRequest
		}
	}

	req.Status = RequestPending
	req.SubmittedAt = now
	req.ReviewedAt = nil
	req.ReviewedBy = ""
	v.Requests = append(v.Requests, req)

	v.RunAutoApproval(now)
	stored, _ := v.request(req.ID)
	return stored, nil
}

// Review moves a pending request to approved or rejected.
func (v *Volunteers) Review(requestID string, decision RequestStatus, reviewer, note string, now time.Time) (Request, error) {
	if decision != RequestApproved && decision != RequestRejected {
		return Request{}, ErrInvalidDecision
	}
	idx := -1
	for i := range v.Requests {
		if v.Requests[i].ID == requestID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return Request{}, ErrRequestNotFound
	}
	req := &v.Requests[idx]
	if req.Status != RequestPending {
		return Request{}, ErrInvalidTransition
	}
	if decision == RequestApproved {
		role := v.roleIndex(req.RoleID)
		if role >= 0 && v.approvedCount(req.RoleID) >= v.Roles[role].SpotsAvailable {
			return Request{}, ErrRoleFull
		}
	}

	req.Status = decision
	req.ReviewedBy = reviewer
	req.ReviewNote = note
	reviewed := now
	req.ReviewedAt = &reviewed
	result := *req
	v.RecountRoles()
	return result, nil
}

// RunAutoApproval admits pending requests in submission order while each role
// has spots left. It returns the requests it approved.
func (v *Volunteers) RunAutoApproval(now time.Time) []Request {
	if !v.AutoApprovalOpen(now) {
		v.RecountRoles()
		return nil
	}

	pending := make([]int, 0)
	for i, req := range v.Requests {
		if req.Status == RequestPending {
			pending = append(pending, i)
		}
	}
	sort.SliceStable(pending, func(a, b int) bool {
		return v.Requests[pending[a]].SubmittedAt.Before(v.Requests[pending[b]].SubmittedAt)
	})

	var approved []Request
	for _, i := range pending {
		req := &v.Requests[i]
		role := v.roleIndex(req.RoleID)
		if role < 0 || v.approvedCount(req.RoleID) >= v.Roles[role].SpotsAvailable {
			continue
		}
		req.Status = RequestApproved
		req.ReviewedBy = "auto"
		reviewed := now
		req.ReviewedAt = &reviewed
		approved = append(approved, *req)
	}
	v.RecountRoles()
	return approved
}

func (v *Volunteers) request(id string) (Request, bool) {
	for _, req := range v.Requests {
		if req.ID == id {
			return req, true
		}
	}
	return Request{}, false
}

func (v *Volunteers) roleIndex(id string) int {
	for i := range v.Roles {
		if v.Roles[i].ID == id {
			return i
		}
	}
	return -1
}

func (v *Volunteers) approvedCount(roleID string) int {
	count := 0
	for _, req := range v.Requests {
		if req.RoleID == roleID && req.Status == RequestApproved {
			count++
		}
	}
	return count
}

// RecountRoles refreshes each role's SpotsFilled from approved requests.
func (v *Volunteers) RecountRoles() {
	for i := range v.Roles {
		v.Roles[i].SpotsFilled = v.approvedCount(v.Roles[i].ID)
	}
}
