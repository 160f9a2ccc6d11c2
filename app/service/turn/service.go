package turn

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"yubot/app/client/engine"
	"yubot/app/config"
	"yubot/app/service/archive"
	"yubot/app/service/session"

	"github.com/samber/do"
)

const contextSeparator = " [SEP] "

// Service drives the per-session turn state machine: resolve session, append
// the user utterance, build the context window, obtain a reply, and finalize
// once the configured dialogue length is reached.
type Service struct {
	cfg        *config.Config
	store      *session.Store
	engine     engine.Engine
	archiveSvc *archive.Service
}

func New(di *do.Injector) (*Service, error) {
	return NewService(
		do.MustInvoke[*config.Config](di),
		do.MustInvoke[*session.Store](di),
		do.MustInvoke[*engine.Client](di),
		do.MustInvoke[*archive.Service](di),
	), nil
}

func NewService(cfg *config.Config, store *session.Store, eng engine.Engine, archiveSvc *archive.Service) *Service {
	return &Service{
		cfg:        cfg,
		store:      store,
		engine:     eng,
		archiveSvc: archiveSvc,
	}
}

// ProcessTurn handles one inbound utterance. On engine failure the utterance
// stays recorded and the turn counter is untouched, so the caller may retry
// reply generation without losing user input.
func (s *Service) ProcessTurn(ctx context.Context, req Request) (Result, error) {
	sess, created := s.store.GetOrCreate(req.SessionID, s.cfg.Dialogue.Opener)
	if created {
		slog.Info("Created session", "session_id", req.SessionID)
	}

	sess.Lock()
	defer sess.Unlock()

	if sess.Finalized() {
		return Result{
			Reply:     s.cfg.Dialogue.ClosingNotice,
			Finalized: true,
			ExportID:  sess.ExportID(),
		}, ErrSessionClosed
	}

	firstUserTurn := sess.TurnCount() == 1

	if err := s.store.Append(req.SessionID, req.Text); err != nil {
		return Result{}, fmt.Errorf("failed to append utterance: %w", err)
	}

	window := ContextWindow(sess.History())

	var reply string
	if firstUserTurn {
		reply = s.cfg.Dialogue.ScriptedReply
	} else {
		var err error
		reply, err = s.engine.Reply(ctx, window, req.SessionID)
		if err != nil {
			return Result{}, fmt.Errorf("failed to generate reply: %w", err)
		}
	}

	if err := s.store.Append(req.SessionID, reply); err != nil {
		return Result{}, fmt.Errorf("failed to append reply: %w", err)
	}

	count, err := s.store.IncrementTurn(req.SessionID)
	if err != nil {
		return Result{}, fmt.Errorf("failed to increment turn: %w", err)
	}

	result := Result{Reply: reply}

	if count >= s.cfg.Dialogue.Length {
		result.Finalized = true
		result.ExportID = s.exportID(req)

		if err = s.store.Finalize(req.SessionID, result.ExportID); err != nil {
			return Result{}, fmt.Errorf("failed to finalize session: %w", err)
		}

		s.archiveSession(sess, result.ExportID, count)

		slog.Info("Finalized session",
			"session_id", req.SessionID,
			"export_id", result.ExportID,
			"turns", count)
	}

	return result, nil
}

func (s *Service) exportID(req Request) string {
	ts := req.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}

	return fmt.Sprintf("%d:%s:%s", ts.Unix(), req.SessionID, req.BotIdentity)
}

func (s *Service) archiveSession(sess *session.Session, exportID string, turns int) {
	err := s.archiveSvc.Save(archive.Record{
		ExportID:   exportID,
		SessionID:  sess.ID,
		Turns:      turns,
		History:    sess.History(),
		FinishedAt: time.Now(),
	})
	if err != nil {
		slog.Error("Failed to archive session",
			"session_id", sess.ID,
			"error", err)
	}
}

// ContextWindow joins the last two utterances of history; a shorter history
// is used as is.
func ContextWindow(history []string) string {
	if len(history) > 2 {
		history = history[len(history)-2:]
	}

	return strings.Join(history, contextSeparator)
}
