// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package registry

import (
	"context"
	"fmt"
	"strings"

	"github.com/olegiv/seniorid/internal/model"
	"github.com/olegiv/seniorid/internal/store"
	"github.com/olegiv/seniorid/internal/util"
)

const settingsCacheKey = "site_settings"

// GetSettings returns the site settings, or the defaults when none have
// been saved.
func (r *Registry) GetSettings(ctx context.Context) (model.SiteSettings, error) {
	return r.settings.GetOrLoad(ctx, settingsCacheKey, func(ctx context.Context) (model.SiteSettings, error) {
		s, err := r.queries.GetSettings(ctx)
		if store.IsNoRows(err) {
			return model.DefaultSiteSettings(), nil
		}
		if err != nil {
			return model.SiteSettings{}, fmt.Errorf("loading settings: %w", err)
		}
		return s, nil
	})
}

// SaveSettings validates and stores s, replacing the previous settings.
func (r *Registry) SaveSettings(ctx context.Context, s model.SiteSettings) (model.SiteSettings, error) {
	s.Title = util.CleanText(s.Title)
	s.Logo = strings.TrimSpace(s.Logo)
	s.PrimaryColor = strings.ToLower(strings.TrimSpace(s.PrimaryColor))
	if errs := model.FieldErrors(s); errs != nil {
		return model.SiteSettings{}, &ValidationError{Fields: errs}
	}

	if err := r.queries.UpsertSettings(ctx, s, r.now()); err != nil {
		return model.SiteSettings{}, fmt.Errorf("saving settings: %w", err)
	}
	r.InvalidateSettings(ctx)
	if err := r.settings.Set(ctx, settingsCacheKey, s); err != nil {
		r.logger.Warn("failed to cache settings", "error", err)
	}

	r.audit(ctx, model.EventLevelInfo, model.EventCategorySettings, "Site settings updated",
		map[string]any{"title": s.Title, "primary_color": s.PrimaryColor, "dark_mode": s.DarkMode})
	return s, nil
}

// InvalidateSettings drops the cached settings so the next read goes to the
// database. Restore calls it after replacing the dataset.
func (r *Registry) InvalidateSettings(ctx context.Context) {
	if err := r.settings.Delete(ctx, settingsCacheKey); err != nil {
		r.logger.Warn("failed to invalidate settings cache", "error", err)
	}
}
