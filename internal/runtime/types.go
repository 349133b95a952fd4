package runtime

import "strings"

// BackendInfo is the local snapshot of one remote compute target. Populated
// once per listing call at the API adapter; optional vendor fields are
// defaulted here so downstream code never re-checks presence.
type BackendInfo struct {
	Name        string
	NumQubits   int
	Operational bool
	PendingJobs int
	Simulator   bool
}

// JobStatus values mirror the remote job lifecycle.
type JobStatus string

const (
	StatusQueued    JobStatus = "queued"
	StatusRunning   JobStatus = "running"
	StatusDone      JobStatus = "done"
	StatusError     JobStatus = "error"
	StatusCancelled JobStatus = "cancelled"
)

// Terminal reports whether the remote service will never change this status.
func (s JobStatus) Terminal() bool {
	switch s {
	case StatusDone, StatusError, StatusCancelled:
		return true
	}
	return false
}

// Histogram maps measurement bitstrings to shot counts.
type Histogram map[string]int

// TotalShots sums all counts in the histogram.
func (h Histogram) TotalShots() int {
	total := 0
	for _, n := range h {
		total += n
	}
	return total
}

// JobSpec is one execution request against an open session.
type JobSpec struct {
	Program           string
	Shots             int
	OptimizationLevel int
}

// wire types for the vendor REST payloads; optional fields are pointers so
// the adapter can apply defaults.

type backendPayload struct {
	Name        string `json:"name"`
	NumQubits   int    `json:"num_qubits"`
	Operational *bool  `json:"operational,omitempty"`
	PendingJobs *int   `json:"pending_jobs,omitempty"`
	Simulator   *bool  `json:"simulator,omitempty"`
}

func (p backendPayload) toInfo() BackendInfo {
	info := BackendInfo{
		Name:        strings.TrimSpace(p.Name),
		NumQubits:   p.NumQubits,
		Operational: true,
		// a backend that does not declare itself hardware is not treated as hardware
		Simulator: true,
	}
	if p.Operational != nil {
		info.Operational = *p.Operational
	}
	if p.PendingJobs != nil {
		info.PendingJobs = *p.PendingJobs
	}
	if p.Simulator != nil {
		info.Simulator = *p.Simulator
	}
	return info
}

type backendListPayload struct {
	Devices []backendPayload `json:"devices"`
}

type saveAccountPayload struct {
	Channel   string `json:"channel"`
	Token     string `json:"token"`
	Instance  string `json:"instance"`
	Overwrite bool   `json:"overwrite"`
}

type openSessionPayload struct {
	Backend string `json:"backend"`
}

type sessionPayload struct {
	ID string `json:"id"`
}

type submitJobPayload struct {
	SessionID         string `json:"session_id"`
	Program           string `json:"program"`
	Shots             int    `json:"shots"`
	OptimizationLevel int    `json:"optimization_level"`
}

type jobPayload struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Reason string `json:"reason,omitempty"`
}

type jobResultsPayload struct {
	Counts map[string]int `json:"counts"`
	Shots  int            `json:"shots"`
	Width  int            `json:"width"`
}

type errorPayload struct {
	Error string `json:"error"`
}
