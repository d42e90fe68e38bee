package main

import (
	"github.com/TrevorS/agglo"
)

type depthReport struct {
	Depth           int     `json:"depth"`
	Feature         string  `json:"feature"`
	PrevLeaves      int     `json:"prev_leaves"`
	CandidateLeaves int     `json:"candidate_leaves"`
	GlobalImpurity  float64 `json:"gi"`
	NewLeaves       int     `json:"new_leaves"`
	Survivors       int     `json:"survivors"`
	MergedGI        float64 `json:"merged_gi"`
	Merges          int     `json:"merges"`
	Leaves          int     `json:"leaves"`
	HeldOutDistance float64 `json:"heldout_distance"`
	HeldOutUnrouted int     `json:"heldout_unrouted"`
	SelectMillis    int64   `json:"select_ms"`
	MergeMillis     int64   `json:"merge_ms"`
}

type report struct {
	RunID      string        `json:"run_id"`
	Training   int           `json:"training"`
	HeldOut    int           `json:"held_out"`
	StopReason string        `json:"stop_reason"`
	Path       []string      `json:"path"`
	Leaves     int           `json:"leaves"`
	Depth      int           `json:"depth"`
	Depths     []depthReport `json:"depths"`
}

func newReport(res *agglo.Result, def *agglo.FeatureDefinition) report {
	r := report{
		RunID:      res.RunID,
		Training:   res.TrainingSize,
		HeldOut:    res.HeldOutSize,
		StopReason: res.StopReason.String(),
		Path:       make([]string, len(res.Path)),
		Leaves:     res.Graph.NumLeaves(),
		Depth:      res.Graph.Depth(),
		Depths:     make([]depthReport, len(res.Depths)),
	}
	for i, f := range res.Path {
		r.Path[i] = def.Name(f)
	}
	for i, d := range res.Depths {
		r.Depths[i] = depthReport{
			Depth:           d.Depth,
			Feature:         d.FeatureName,
			PrevLeaves:      d.PrevLeaves,
			CandidateLeaves: d.CandidateLeaves,
			GlobalImpurity:  d.GlobalImpurity,
			NewLeaves:       d.NewLeaves,
			Survivors:       d.Survivors,
			MergedGI:        d.MergedGlobalImpurity,
			Merges:          len(d.Merges),
			Leaves:          d.Leaves,
			HeldOutDistance: d.HeldOut.MeanDistance,
			HeldOutUnrouted: d.HeldOut.Unrouted,
			SelectMillis:    d.SelectTime.Milliseconds(),
			MergeMillis:     d.MergeTime.Milliseconds(),
		}
	}
	return r
}
