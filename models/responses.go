// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package models

// BatchResponse carries the per-record outcomes of one ingestion batch.
// Results are in the same order as the submitted records.
type BatchResponse struct {
	Results []Outcome `json:"results"`

	// Summary counters.
	Total      int `json:"total"`
	Created    int `json:"created"`
	Duplicates int `json:"duplicates"`
	Updated    int `json:"updated"`
	Conflicts  int `json:"conflicts"`
	Errors     int `json:"errors"`
}

// Add appends an outcome and updates the counters.
func (r *BatchResponse) Add(o Outcome) {
	r.Results = append(r.Results, o)
	r.Total++

	switch o.Status {
	case OutcomeCreated:
		r.Created++
	case OutcomeDuplicate:
		r.Duplicates++
	case OutcomeUpdated:
		r.Updated++
	case OutcomeConflict:
		r.Conflicts++
	default:
		r.Errors++
	}
}

// ResolveResponse is returned after a conflict override.
type ResolveResponse struct {
	Record AuthoritativeRecord `json:"record"`
}

// VersionResponse is returned by the version endpoint.
type VersionResponse struct {
	Version string `json:"version"`
}
