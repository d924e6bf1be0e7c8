// Package ingest maps decoded protocol events onto typed store writes.
package ingest

import (
	"context"
	"encoding/json"
	"sync/atomic"

	"github.com/cockroachdb/errors"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"feedcache/pkg/models"
	"feedcache/pkg/state/logger"
	"feedcache/pkg/telemetry"
)

// Sink is the write side of the store used by ingest.
type Sink interface {
	SetAuthor(pk models.PublicKey) error
	SetProfile(pk models.PublicKey, p models.Profile) error
	SetContacts(list []models.Contact) error
	SetTextNote(id models.EventID, note models.TextNote) error
}

// Handler applies one event of a registered kind. id and author are parsed.
type Handler func(ctx context.Context, in *Ingestor, ev *Event, id models.EventID, author models.PublicKey) error

type Options struct {
	// Owner is the local identity; only its contact list is stored.
	Owner *models.PublicKey
	// Workers bounds ApplyAll fan-out. Values below 1 mean 1.
	Workers int
	// SkipValidation trusts ids delivered by the sync layer.
	SkipValidation bool
	Registerer     prometheus.Registerer
}

// Counts is a running tally of processed events.
type Counts struct {
	Applied  int64
	Skipped  int64
	Rejected int64
}

type Ingestor struct {
	sink     Sink
	opts     Options
	handlers map[int]Handler

	applied, skipped, rejected atomic.Int64
	events                     *prometheus.CounterVec
}

func New(sink Sink, opts Options) (*Ingestor, error) {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	in := &Ingestor{
		sink:     sink,
		opts:     opts,
		handlers: make(map[int]Handler),
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "feedcache",
			Subsystem: "ingest",
			Name:      "events_total",
			Help:      "Events seen by the ingest sink by outcome.",
		}, []string{"result"}),
	}
	if opts.Registerer != nil {
		if err := opts.Registerer.Register(in.events); err != nil {
			return nil, errors.Wrap(err, "register ingest metrics")
		}
	}
	in.Handle(KindMetadata, applyMetadata)
	in.Handle(KindTextNote, applyTextNote)
	in.Handle(KindContactList, applyContactList)
	return in, nil
}

// Handle installs h for kind, replacing any earlier handler.
func (in *Ingestor) Handle(kind int, h Handler) {
	in.handlers[kind] = h
}

func (in *Ingestor) Counts() Counts {
	return Counts{Applied: in.applied.Load(), Skipped: in.skipped.Load(), Rejected: in.rejected.Load()}
}

// Apply validates ev and hands it to the handler for its kind. Unknown kinds
// are counted and ignored. Invalid events fail with ErrInvalidEvent.
func (in *Ingestor) Apply(ctx context.Context, ev *Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	h, ok := in.handlers[ev.Kind]
	if !ok {
		in.count(&in.skipped, "skipped")
		logger.Debug("ingest_kind_skipped", "kind", ev.Kind, "id", ev.ID)
		return nil
	}

	tr := telemetry.Track("ingest.apply")
	defer tr.Finish()

	var (
		id     models.EventID
		author models.PublicKey
		err    error
	)
	if in.opts.SkipValidation {
		id, author, err = ev.parse()
	} else {
		id, author, err = ev.Validate()
	}
	if err != nil {
		in.count(&in.rejected, "rejected")
		logger.Warn("ingest_event_rejected", "id", ev.ID, "kind", ev.Kind, "error", err)
		return err
	}
	tr.Mark("validate")

	if err := h(ctx, in, ev, id, author); err != nil {
		if errors.Is(err, ErrInvalidEvent) {
			in.count(&in.rejected, "rejected")
			logger.Warn("ingest_event_rejected", "id", ev.ID, "kind", ev.Kind, "error", err)
		}
		return err
	}
	return nil
}

// ApplyAll applies evs with at most Options.Workers goroutines. Events by the
// same author keep their input order, so a later profile still replaces an
// earlier one. Invalid events are skipped; the first store error cancels
// the rest and is returned.
func (in *Ingestor) ApplyAll(ctx context.Context, evs []*Event) error {
	var (
		order   []string
		byActor = make(map[string][]*Event)
	)
	for _, ev := range evs {
		if _, ok := byActor[ev.PubKey]; !ok {
			order = append(order, ev.PubKey)
		}
		byActor[ev.PubKey] = append(byActor[ev.PubKey], ev)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(in.opts.Workers)
	for _, actor := range order {
		group := byActor[actor]
		g.Go(func() error {
			for _, ev := range group {
				if err := in.Apply(gctx, ev); err != nil && !errors.Is(err, ErrInvalidEvent) {
					return err
				}
			}
			return nil
		})
	}
	return g.Wait()
}

func (in *Ingestor) count(n *atomic.Int64, result string) {
	n.Add(1)
	in.events.WithLabelValues(result).Inc()
}

func applyMetadata(_ context.Context, in *Ingestor, ev *Event, _ models.EventID, author models.PublicKey) error {
	var p models.Profile
	if err := json.Unmarshal([]byte(ev.Content), &p); err != nil {
		return errors.Mark(errors.Wrap(err, "metadata content"), ErrInvalidEvent)
	}
	if err := in.sink.SetAuthor(author); err != nil {
		return err
	}
	if err := in.sink.SetProfile(author, p); err != nil {
		return err
	}
	in.count(&in.applied, "applied")
	return nil
}

func applyTextNote(_ context.Context, in *Ingestor, ev *Event, id models.EventID, author models.PublicKey) error {
	note := models.TextNote{
		ID:        id,
		Author:    author,
		Timestamp: uint64(ev.CreatedAt),
		Content:   ev.Content,
		Tags:      ev.Tags,
	}
	if err := in.sink.SetAuthor(author); err != nil {
		return err
	}
	if err := in.sink.SetTextNote(id, note); err != nil {
		return err
	}
	in.count(&in.applied, "applied")
	return nil
}

// applyContactList stores the owner's follow list from its "p" tags.
func applyContactList(_ context.Context, in *Ingestor, ev *Event, _ models.EventID, author models.PublicKey) error {
	if in.opts.Owner == nil || *in.opts.Owner != author {
		in.count(&in.skipped, "skipped")
		logger.Debug("ingest_foreign_contacts_skipped", "author", author.Short())
		return nil
	}
	var list []models.Contact
	for _, tag := range ev.Tags {
		if len(tag) < 2 || tag[0] != "p" {
			continue
		}
		pk, err := models.ParsePublicKey(tag[1])
		if err != nil {
			logger.Debug("ingest_contact_invalid", "value", tag[1], "error", err)
			continue
		}
		c := models.Contact{PublicKey: pk}
		if len(tag) > 2 {
			c.RelayURL = tag[2]
		}
		if len(tag) > 3 {
			c.Alias = tag[3]
		}
		list = append(list, c)
	}
	if err := in.sink.SetContacts(list); err != nil {
		return err
	}
	in.count(&in.applied, "applied")
	return nil
}
