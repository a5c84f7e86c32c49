// Package campaign runs the bounded reply-answering campaign that follows a
// broadcast alert: each supervised tick lists replies to the alert post and
// answers the ones not answered yet.
package campaign

import (
	"context"
	"fmt"

	"github.com/linnemanlabs/go-core/log"
	"github.com/linnemanlabs/go-core/xerrors"

	"github.com/namanbnsl/CrisisNet/internal/geo"
	"github.com/namanbnsl/CrisisNet/internal/sensor"
	"github.com/namanbnsl/CrisisNet/internal/social"
)

// maxReplyLen is the posting service's per-post character limit.
const maxReplyLen = 280

// SocialClient is the slice of the posting service the responder needs.
type SocialClient interface {
	Mentions(ctx context.Context, sinceID string) ([]social.Mention, error)
	Reply(ctx context.Context, m social.Mention, text string) error
}

// TextGenerator produces the response text for one mention.
type TextGenerator interface {
	Generate(ctx context.Context, system, prompt string) (string, error)
}

// Responder answers inbound replies. Tick is the unit of work handed to the
// schedule supervisor; it is idempotent across runs because answered ids are
// recorded in the Store.
type Responder struct {
	social   SocialClient
	gen      TextGenerator
	store    Store
	location *geo.LocationCache
	sensors  *sensor.Snapshot
	logger   log.Logger
	metrics  *Metrics
}

// NewResponder creates a responder. Metrics may be nil.
func NewResponder(
	sc SocialClient,
	gen TextGenerator,
	store Store,
	location *geo.LocationCache,
	sensors *sensor.Snapshot,
	logger log.Logger,
	metrics *Metrics,
) *Responder {
	if sc == nil || gen == nil || store == nil {
		panic(xerrors.New("campaign: social client, generator, and store are required"))
	}
	if logger == nil {
		logger = log.Nop()
	}
	return &Responder{
		social:   sc,
		gen:      gen,
		store:    store,
		location: location,
		sensors:  sensors,
		logger:   logger,
		metrics:  metrics,
	}
}

// Tick lists replies and answers each unseen one, in the order the service
// returned them. Generation, posting, and marking are sequential per reply.
// A failure on one reply is logged and skipped so it is retried next tick;
// only a listing failure fails the whole tick.
func (r *Responder) Tick(ctx context.Context) error {
	mentions, err := r.social.Mentions(ctx, "")
	if err != nil {
		r.observeList("error")
		return fmt.Errorf("list mentions: %w", err)
	}
	r.observeList("ok")

	for _, m := range mentions {
		seen, err := r.store.Seen(ctx, m.ID)
		if err != nil {
			r.logger.Error(ctx, err, "seen lookup failed", "reply_id", m.ID)
			continue
		}
		if seen {
			continue
		}

		text, err := r.gen.Generate(ctx, replySystemPrompt, r.buildReplyPrompt(m))
		if err != nil {
			r.observeReply("generation_error")
			r.logger.Error(ctx, err, "reply generation failed", "reply_id", m.ID)
			continue
		}
		text = truncate(text, maxReplyLen)

		if err := r.social.Reply(ctx, m, text); err != nil {
			r.observeReply("post_error")
			r.logger.Error(ctx, err, "reply post failed", "reply_id", m.ID)
			continue
		}

		// The reply went out; a Mark failure means at worst one duplicate
		// answer next tick.
		if err := r.store.Mark(ctx, m.ID); err != nil {
			r.logger.Error(ctx, err, "failed to mark reply as answered", "reply_id", m.ID)
		}

		r.observeReply("sent")
		r.logger.Info(ctx, "answered reply", "reply_id", m.ID, "author", m.Author, "chars", len(text))
	}

	return nil
}

const replySystemPrompt = `You are CrisisNet, an automated crisis-alert account. A fire alert was just broadcast from this account. You answer replies to that alert.

Be factual and calm. Share the known incident location and latest sensor readings when relevant. Advise people near the incident to keep distance and contact emergency services. Never speculate beyond the data you are given.

Your answer is posted as-is and must fit in 280 characters.`

func (r *Responder) buildReplyPrompt(m social.Mention) string {
	locText := "not yet resolved"
	if r.location != nil {
		if loc, ok := r.location.Get(); ok {
			locText = fmt.Sprintf("lat %.5f, lng %.5f (updated %s)", loc.Lat, loc.Lng, loc.UpdatedAt.UTC().Format("15:04 UTC"))
		}
	}

	sensorText := "no sensor readings available"
	if r.sensors != nil {
		sensorText = r.sensors.Summary()
	}

	return fmt.Sprintf(`%s replied to the alert:
%q

Incident location: %s
Latest sensor readings: %s

Write the response to post.`, m.Author, m.Text, locText, sensorText)
}

// truncate cuts s to at most limit characters, ellipsized. Limit counts
// runes, matching the posting service's character limit.
func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit-3]) + "..."
}
