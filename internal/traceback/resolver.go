// Package traceback resolves ranked retrieval hits to their underlying
// content, applying the privacy evaluator's masking decision per hit.
package traceback

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/tidwall/gjson"

	"github.com/lorekeep/lorekeep/internal/entity"
	"github.com/lorekeep/lorekeep/internal/privacy"
	"github.com/lorekeep/lorekeep/internal/scopes"
	"github.com/lorekeep/lorekeep/internal/store"
	"github.com/lorekeep/lorekeep/internal/tenant"
)

// Code is the AI-eligibility level applied to a resolved hit.
type Code string

const (
	// CodeNone withholds content entirely.
	CodeNone Code = "NONE"
	// CodeMeta exposes only a title line and the first non-blank source line.
	CodeMeta Code = "META"
	// CodeFull passes content through unchanged.
	CodeFull Code = "FULL"
)

// RankedHit is a retrieval match handed in by the search layer.
type RankedHit struct {
	UID   string  `json:"uid"`
	Score float64 `json:"score"`
}

// Item is a resolved hit. Content is empty unless the eligibility code
// permits it; consumers must treat an empty Content as withheld, not as an
// empty document.
type Item struct {
	UID     string  `json:"uid"`
	Score   float64 `json:"score"`
	Code    Code    `json:"code"`
	Title   string  `json:"title"`
	Content string  `json:"content,omitempty"`
}

// Resolver masks retrieval hits. It holds no per-request state and never
// logs or caches unmasked content; consumers downstream may be less trusted
// than the resolver itself.
type Resolver struct {
	store     store.Store
	evaluator *privacy.Evaluator
}

func NewResolver(st store.Store, evaluator *privacy.Evaluator) *Resolver {
	return &Resolver{store: st, evaluator: evaluator}
}

// Resolve masks each hit according to the caller's effective privacy flags.
// A hit whose entity is missing or unreadable resolves to a title-only item
// with content withheld rather than failing the batch.
func (r *Resolver) Resolve(ctx context.Context, tctx tenant.Context, hits []RankedHit) ([]Item, error) {
	if !r.evaluator.CanPerform(tctx, scopes.ScopeTracebackRead) {
		return nil, fmt.Errorf("%w: roles %v do not grant %s",
			entity.ErrAuthorizationDenied, tctx.Roles(), scopes.ScopeTracebackRead)
	}

	items := make([]Item, 0, len(hits))
	for _, hit := range hits {
		items = append(items, r.resolveHit(ctx, tctx, hit))
	}

	return items, nil
}

func (r *Resolver) resolveHit(ctx context.Context, tctx tenant.Context, hit RankedHit) Item {
	item := Item{
		UID:   hit.UID,
		Score: hit.Score,
		Code:  CodeNone,
		Title: fallbackTitle(hit.UID),
	}

	e, err := r.store.Get(ctx, tctx.TenantID(), hit.UID)
	if err != nil || e.Dissolved() || len(e.Content) == 0 {
		return item
	}

	item.Title = titleOf(e)
	item.Code = r.eligibility(e, tctx)

	switch item.Code {
	case CodeFull:
		item.Content = string(e.Content)
	case CodeMeta:
		item.Content = metaContent(item.Title, e.Content)
	}

	return item
}

// eligibility derives the AI code from the two AI privacy scopes. Per scope
// a redact match downgrades an allow to metadata-only; across the scopes the
// most permissive outcome wins, and denial of both withholds entirely.
func (r *Resolver) eligibility(e *entity.Entity, tctx tenant.Context) Code {
	code := CodeNone

	for _, scope := range []string{entity.FlagLocalAI, entity.FlagCloudAI} {
		decision := r.evaluator.Decide(e, tctx, scope)

		switch decision.Effect {
		case privacy.EffectAllow:
			return CodeFull
		case privacy.EffectRedact:
			code = CodeMeta
		}
	}

	return code
}

// metaContent builds the metadata-only rendition: the title line plus the
// first non-blank line of the source, never the full body.
func metaContent(title string, content []byte) string {
	return title + "\n" + firstLine(content)
}

func firstLine(content []byte) string {
	for _, line := range strings.Split(string(content), "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			return trimmed
		}
	}

	return ""
}

// titleOf synthesizes a title for an entity. JSON payloads with a title
// field use it directly; otherwise the first non-blank line stands in, and
// a uid-derived placeholder covers everything else.
func titleOf(e *entity.Entity) string {
	if json.Valid(e.Content) {
		if title := gjson.GetBytes(e.Content, "title"); title.Exists() && title.String() != "" {
			return title.String()
		}
	} else if line := firstLine(e.Content); line != "" {
		return truncate(line, 80)
	}

	return fallbackTitle(e.UID)
}

func fallbackTitle(uid string) string {
	short := uid
	if len(short) > 8 {
		short = short[:8]
	}

	return fmt.Sprintf("entity %s", short)
}

// truncate cuts s to at most max bytes without splitting a rune.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}

	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}

	return s[:cut]
}
