// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package registry

import (
	"context"
	"fmt"

	"github.com/olegiv/seniorid/internal/model"
)

// Stats holds the dashboard counters.
type Stats struct {
	TotalSeniors         int64 `json:"total_seniors"`
	ActiveSeniors        int64 `json:"active_seniors"`
	PendingApplications  int64 `json:"pending_applications"`
	ApprovedApplications int64 `json:"approved_applications"`
	RejectedApplications int64 `json:"rejected_applications"`
}

// Stats counts seniors and applications.
func (r *Registry) Stats(ctx context.Context) (Stats, error) {
	var (
		st  Stats
		err error
	)
	if st.TotalSeniors, err = r.queries.CountSeniors(ctx); err != nil {
		return Stats{}, fmt.Errorf("counting seniors: %w", err)
	}
	if st.ActiveSeniors, err = r.queries.CountSeniorsByStatus(ctx, model.SeniorActive); err != nil {
		return Stats{}, fmt.Errorf("counting active seniors: %w", err)
	}
	for status, dst := range map[model.ApplicationStatus]*int64{
		model.ApplicationPending:  &st.PendingApplications,
		model.ApplicationApproved: &st.ApprovedApplications,
		model.ApplicationRejected: &st.RejectedApplications,
	} {
		if *dst, err = r.queries.CountApplicationsByStatus(ctx, status); err != nil {
			return Stats{}, fmt.Errorf("counting %s applications: %w", status, err)
		}
	}
	return st, nil
}
