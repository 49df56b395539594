// Package chat runs one conversation turn: it loads the session, routes the
// message to the model or the form flow, and hands finished forms to the
// lead sink.
package chat

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"leadbot-backend/internal/analytics"
	"leadbot-backend/internal/dialog"
	"leadbot-backend/internal/leads"
	"leadbot-backend/internal/llm"
	"leadbot-backend/internal/metrics"
	"leadbot-backend/internal/store"
)

// Replier produces free-form replies; *llm.Generator satisfies it.
type Replier interface {
	Generate(ctx context.Context, message string) llm.Reply
}

type Request struct {
	Message   string
	Industry  string
	SessionID string
}

type Response struct {
	Reply     string
	Completed bool
}

type Options struct {
	Store           store.SessionStore
	Replier         Replier
	Sink            leads.Sink
	Funnel          *analytics.Funnel
	DefaultIndustry dialog.Industry
	SinkTimeout     time.Duration
	Logger          *zap.Logger
	// Now defaults to time.Now.
	Now func() time.Time
}

type Service struct {
	store           store.SessionStore
	replier         Replier
	sink            leads.Sink
	funnel          *analytics.Funnel
	defaultIndustry dialog.Industry
	sinkTimeout     time.Duration
	logger          *zap.Logger
	now             func() time.Time
	locks           *keyedMutex
	// shared is set when the store can lock across processes.
	shared store.Locker
}

func NewService(opts Options) *Service {
	s := &Service{
		store:           opts.Store,
		replier:         opts.Replier,
		sink:            opts.Sink,
		funnel:          opts.Funnel,
		defaultIndustry: opts.DefaultIndustry,
		sinkTimeout:     opts.SinkTimeout,
		logger:          opts.Logger,
		now:             opts.Now,
		locks:           newKeyedMutex(),
	}
	if l, ok := opts.Store.(store.Locker); ok {
		s.shared = l
	}
	if s.sink == nil {
		s.sink = leads.Unavailable{}
	}
	if !s.defaultIndustry.Valid() {
		s.defaultIndustry = dialog.Hotel
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// Handle processes one user message. Turns for the same session run one at
// a time, across replicas when the store is a Locker; different sessions
// proceed in parallel. Model and sink failures never surface as errors,
// only store failures do.
func (s *Service) Handle(ctx context.Context, req Request) (Response, error) {
	if req.SessionID == "" {
		return Response{}, store.ErrEmptySessionID
	}

	unlock := s.locks.Lock(req.SessionID)
	defer unlock()
	if s.shared != nil {
		release, err := s.shared.Lock(ctx, req.SessionID)
		if err != nil {
			return Response{}, err
		}
		defer release()
	}

	sess, err := s.store.GetOrCreate(ctx, req.SessionID, s.resolveIndustry(req.Industry))
	if err != nil {
		return Response{}, fmt.Errorf("load session: %w", err)
	}
	metrics.ChatTurns.WithLabelValues(string(sess.Mode)).Inc()
	sess.Record(dialog.RoleUser, req.Message)

	if sess.Mode == dialog.ModeForm {
		return s.answer(ctx, sess, req.Message)
	}

	s.funnel.Reach(sess.ID, analytics.StageChat)
	if dialog.ShouldStartForm(req.Message) {
		return s.startForm(ctx, sess, req.Message)
	}

	reply := s.replier.Generate(ctx, req.Message)
	if reply.Failed() {
		s.logger.Warn("chat reply degraded", zap.String("session_id", sess.ID), zap.Error(reply.Err))
	}
	sess.Record(dialog.RoleBot, reply.Text)
	if err := s.store.Save(ctx, sess); err != nil {
		return Response{}, fmt.Errorf("save session: %w", err)
	}
	return Response{Reply: reply.Text}, nil
}

func (s *Service) startForm(ctx context.Context, sess *dialog.Session, message string) (Response, error) {
	question, err := dialog.Start(sess, message)
	if err != nil {
		return Response{}, err
	}
	sess.Record(dialog.RoleBot, question)
	if err := s.store.Save(ctx, sess); err != nil {
		return Response{}, fmt.Errorf("save session: %w", err)
	}

	metrics.FormsStarted.WithLabelValues(string(sess.Industry)).Inc()
	s.funnel.Reach(sess.ID, analytics.StageFormStarted)
	s.logger.Info("lead form started",
		zap.String("session_id", sess.ID),
		zap.String("industry", string(sess.Industry)),
	)
	return Response{Reply: question}, nil
}

func (s *Service) answer(ctx context.Context, sess *dialog.Session, message string) (Response, error) {
	step, err := dialog.Advance(sess, message)
	if err != nil {
		return Response{}, err
	}
	if !step.Completed {
		sess.Record(dialog.RoleBot, step.Question)
		if err := s.store.Save(ctx, sess); err != nil {
			return Response{}, fmt.Errorf("save session: %w", err)
		}
		s.funnel.Reach(sess.ID, analytics.StepStage(sess.Step))
		return Response{Reply: step.Question}, nil
	}

	metrics.FormsCompleted.WithLabelValues(string(sess.Industry)).Inc()
	s.funnel.Reach(sess.ID, analytics.StageLeadCompleted)

	lead := leads.FromSession(sess, s.now())
	if out := s.record(ctx, lead); out.OK() {
		s.funnel.Reach(sess.ID, analytics.StageLeadSaved)
	}

	// The session is over whether or not the lead was stored.
	if err := s.store.Delete(ctx, sess.ID); err != nil {
		s.logger.Warn("session cleanup failed", zap.String("session_id", sess.ID), zap.Error(err))
	}
	return Response{Reply: step.Question, Completed: true}, nil
}

// SubmitContact stores a lead from the standalone contact form.
func (s *Service) SubmitContact(ctx context.Context, c leads.Contact) leads.Outcome {
	return s.record(ctx, leads.FromContact(c, s.now()))
}

// Ready reports whether the lead sink backend answers.
func (s *Service) Ready(ctx context.Context) error {
	return leads.Ping(ctx, s.sink)
}

// record writes the lead even if the caller has gone away; only the sink
// timeout bounds it.
func (s *Service) record(ctx context.Context, lead leads.Lead) leads.Outcome {
	ctx = context.WithoutCancel(ctx)
	if s.sinkTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.sinkTimeout)
		defer cancel()
	}

	out := s.sink.Record(ctx, lead)
	metrics.LeadWrites.WithLabelValues(s.sink.Name(), lead.Source, metrics.Outcome(out.Err)).Inc()
	if !out.OK() {
		s.logger.Error("lead not stored",
			zap.String("sink", s.sink.Name()),
			zap.String("lead_id", lead.ID),
			zap.String("source", lead.Source),
			zap.Error(out.Err),
		)
		return out
	}
	s.logger.Info("lead stored",
		zap.String("sink", s.sink.Name()),
		zap.String("id", out.ID),
		zap.String("industry", lead.Industry),
		zap.String("source", lead.Source),
	)
	return out
}

// resolveIndustry maps the client's industry hint onto a known flow.
func (s *Service) resolveIndustry(raw string) dialog.Industry {
	if industry, ok := dialog.ParseIndustry(raw); ok {
		return industry
	}
	if raw != "" {
		s.logger.Warn("unknown industry, using default",
			zap.String("industry", raw),
			zap.String("default", string(s.defaultIndustry)),
		)
	}
	return s.defaultIndustry
}
