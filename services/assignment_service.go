package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/yamlrg/connect/models"
	"github.com/yamlrg/connect/pairing"
	"github.com/yamlrg/connect/repositories"
)

// statusFanOutLimit bounds the concurrent roster writes per mutation.
const statusFanOutLimit = 8

// Notifier receives the fresh snapshot after every successful mutation so
// connected admin clients can re-render without re-querying the stores.
type Notifier interface {
	PublishSnapshot(sessionKey string, snap pairing.Snapshot)
}

// MutationResult is what every mutating operation returns: the new snapshot,
// plus the ids of participants whose status write failed. The arrangement is
// durable even when Unsynced is non-empty; reconciliation on the next load
// converges the stragglers.
type MutationResult struct {
	Snapshot pairing.Snapshot `json:"snapshot"`
	Unsynced []string         `json:"unsynced,omitempty"`
}

type AssignmentService interface {
	// LoadSession (re)builds the board for a session from the stores,
	// reconciling roster statuses against the persisted arrangement.
	LoadSession(ctx context.Context, sessionKey string) (*MutationResult, error)
	Snapshot(ctx context.Context, sessionKey string) (*pairing.Snapshot, error)

	// Assign moves a participant into a team. An empty teamID means "place
	// into any team", creating a new one when all are full.
	Assign(ctx context.Context, sessionKey, participantID, teamID string) (*MutationResult, error)
	Unassign(ctx context.Context, sessionKey, participantID string) (*MutationResult, error)
	CreateTeam(ctx context.Context, sessionKey string) (*MutationResult, error)
	DeleteTeam(ctx context.Context, sessionKey, teamID string) (*MutationResult, error)
	SetNotes(ctx context.Context, sessionKey, teamID, notes string) (*MutationResult, error)
	ResetSession(ctx context.Context, sessionKey string) (*MutationResult, error)
}

type assignmentService struct {
	participantRepo repositories.ParticipantRepository
	arrangementRepo repositories.ArrangementRepository
	notifier        Notifier
	logger          *slog.Logger

	// One board per loaded session, mutations serialized. The board is the
	// single authority for its session; stores are only read on load.
	mu     sync.Mutex
	boards map[string]*pairing.Board
}

func NewAssignmentService(
	participantRepo repositories.ParticipantRepository,
	arrangementRepo repositories.ArrangementRepository,
	notifier Notifier,
	logger *slog.Logger,
) AssignmentService {
	return &assignmentService{
		participantRepo: participantRepo,
		arrangementRepo: arrangementRepo,
		notifier:        notifier,
		logger:          logger,
		boards:          make(map[string]*pairing.Board),
	}
}

func (s *assignmentService) LoadSession(ctx context.Context, sessionKey string) (*MutationResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	board, unsynced, err := s.loadBoardLocked(ctx, sessionKey)
	if err != nil {
		return nil, err
	}
	return &MutationResult{
		Snapshot: s.annotatedSnapshot(ctx, board),
		Unsynced: unsynced,
	}, nil
}

func (s *assignmentService) Snapshot(ctx context.Context, sessionKey string) (*pairing.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	board, err := s.boardLocked(ctx, sessionKey)
	if err != nil {
		return nil, err
	}
	snap := s.annotatedSnapshot(ctx, board)
	return &snap, nil
}

func (s *assignmentService) Assign(ctx context.Context, sessionKey, participantID, teamID string) (*MutationResult, error) {
	return s.mutate(ctx, sessionKey, func(b *pairing.Board) error {
		if teamID == "" {
			_, err := b.AssignAuto(participantID)
			return err
		}
		return b.Assign(participantID, teamID)
	})
}

func (s *assignmentService) Unassign(ctx context.Context, sessionKey, participantID string) (*MutationResult, error) {
	return s.mutate(ctx, sessionKey, func(b *pairing.Board) error {
		return b.Unassign(participantID)
	})
}

func (s *assignmentService) CreateTeam(ctx context.Context, sessionKey string) (*MutationResult, error) {
	return s.mutate(ctx, sessionKey, func(b *pairing.Board) error {
		b.CreateTeam()
		return nil
	})
}

func (s *assignmentService) DeleteTeam(ctx context.Context, sessionKey, teamID string) (*MutationResult, error) {
	return s.mutate(ctx, sessionKey, func(b *pairing.Board) error {
		return b.DeleteTeam(teamID)
	})
}

func (s *assignmentService) SetNotes(ctx context.Context, sessionKey, teamID, notes string) (*MutationResult, error) {
	return s.mutate(ctx, sessionKey, func(b *pairing.Board) error {
		return b.SetNotes(teamID, notes)
	})
}

// ResetSession clears the board back to a single empty team and forces every
// registered participant back to the fully-unmatched default, invite flags
// included. This is the one deliberately blanket status pass.
func (s *assignmentService) ResetSession(ctx context.Context, sessionKey string) (*MutationResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	board, err := s.boardLocked(ctx, sessionKey)
	if err != nil {
		return nil, err
	}

	prev := board.Arrangement()
	board.Reset()
	arr := board.Arrangement()
	if err := s.arrangementRepo.Put(ctx, &arr); err != nil {
		board.Restore(prev)
		s.logger.Error("arrangement write failed during reset",
			slog.String("session", sessionKey), slog.Any("error", err))
		return nil, fmt.Errorf("%w: %v", ErrPersistenceFailure, err)
	}

	snap := board.Snapshot()
	var (
		fanMu  sync.Mutex
		failed []string
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(statusFanOutLimit)
	for _, p := range snap.Pool {
		p := p
		g.Go(func() error {
			if err := s.participantRepo.ReplaceStatus(gctx, p.ID, models.MatchStatus{}); err != nil {
				s.logger.Error("status reset failed",
					slog.String("participant", p.ID), slog.Any("error", err))
				fanMu.Lock()
				failed = append(failed, p.ID)
				fanMu.Unlock()
				return nil
			}
			fanMu.Lock()
			board.UpdateStatus(p.ID, models.MatchStatus{})
			fanMu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	sort.Strings(failed)

	result := &MutationResult{Snapshot: s.annotatedSnapshot(ctx, board), Unsynced: failed}
	if s.notifier != nil {
		s.notifier.PublishSnapshot(sessionKey, result.Snapshot)
	}
	return result, nil
}

// mutate runs one engine operation and drives the synchronization protocol:
// persist the full validated arrangement (the commit point; the board rolls
// back if this write fails), then fan out the diffed status writes, collecting
// per-participant failures instead of aborting.
func (s *assignmentService) mutate(ctx context.Context, sessionKey string, op func(*pairing.Board) error) (*MutationResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	board, err := s.boardLocked(ctx, sessionKey)
	if err != nil {
		return nil, err
	}

	prev := board.Arrangement()
	if err := op(board); err != nil {
		return nil, err
	}

	arr := board.Arrangement()
	if err := s.arrangementRepo.Put(ctx, &arr); err != nil {
		board.Restore(prev)
		s.logger.Error("arrangement write failed",
			slog.String("session", sessionKey), slog.Any("error", err))
		return nil, fmt.Errorf("%w: %v", ErrPersistenceFailure, err)
	}

	updates := pairing.DiffStatuses(prev.Teams, arr.Teams)
	unsynced := s.fanOutStatuses(ctx, board, updates)

	result := &MutationResult{Snapshot: s.annotatedSnapshot(ctx, board), Unsynced: unsynced}
	if s.notifier != nil {
		s.notifier.PublishSnapshot(sessionKey, result.Snapshot)
	}
	return result, nil
}

// fanOutStatuses writes the diffed statuses concurrently and returns the ids
// that failed. Failures are not fatal: the arrangement is already durable and
// re-derivable, so the next reconciliation pass repairs them.
func (s *assignmentService) fanOutStatuses(ctx context.Context, board *pairing.Board, updates []pairing.StatusUpdate) []string {
	if len(updates) == 0 {
		return nil
	}

	var (
		fanMu  sync.Mutex
		failed []string
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(statusFanOutLimit)
	for _, u := range updates {
		u := u
		g.Go(func() error {
			err := s.participantRepo.UpdateMatchStatus(gctx, u.ParticipantID, u.Matched, u.MatchedWith, u.MatchedWithName)
			if err != nil && !errors.Is(err, repositories.ErrParticipantNotFound) {
				s.logger.Error("participant status write failed",
					slog.String("participant", u.ParticipantID), slog.Any("error", err))
				fanMu.Lock()
				failed = append(failed, u.ParticipantID)
				fanMu.Unlock()
				return nil
			}

			fanMu.Lock()
			if p, ok := board.Participant(u.ParticipantID); ok {
				status := p.Status
				status.Matched = u.Matched
				status.MatchedWith = u.MatchedWith
				status.MatchedWithName = u.MatchedWithName
				board.UpdateStatus(u.ParticipantID, status)
			}
			fanMu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	sort.Strings(failed)
	return failed
}

// boardLocked returns the cached board for a session, loading it on first
// access. Callers hold s.mu.
func (s *assignmentService) boardLocked(ctx context.Context, sessionKey string) (*pairing.Board, error) {
	if board, ok := s.boards[sessionKey]; ok {
		return board, nil
	}
	board, _, err := s.loadBoardLocked(ctx, sessionKey)
	return board, err
}

// loadBoardLocked rebuilds a session board from the stores. The persisted
// arrangement is ground truth for team membership; a session with no saved
// layout starts as a single empty team. Roster statuses are reconciled
// against the arrangement as part of the load.
func (s *assignmentService) loadBoardLocked(ctx context.Context, sessionKey string) (*pairing.Board, []string, error) {
	participants, err := s.participantRepo.ListBySession(ctx, sessionKey)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrPersistenceFailure, err)
	}

	arr, err := s.arrangementRepo.GetBySession(ctx, sessionKey)
	if err != nil && !errors.Is(err, repositories.ErrArrangementNotFound) {
		return nil, nil, fmt.Errorf("%w: %v", ErrPersistenceFailure, err)
	}

	board := pairing.NewBoard(sessionKey, participants, arr)
	unsynced := s.fanOutStatuses(ctx, board, pairing.ReconcileStatuses(board.Teams(), participants))

	s.boards[sessionKey] = board
	return board, unsynced, nil
}

// annotatedSnapshot decorates the board's pure snapshot with the
// previously-paired flag, derived from arrangements of earlier-dated
// sessions. Annotation failures only cost the flag, never the snapshot.
func (s *assignmentService) annotatedSnapshot(ctx context.Context, board *pairing.Board) pairing.Snapshot {
	snap := board.Snapshot()

	cutoff, ok := parseSessionKey(board.SessionKey())
	if !ok {
		return snap
	}
	arrangements, err := s.arrangementRepo.ListAll(ctx)
	if err != nil {
		s.logger.Warn("pair history lookup failed", slog.Any("error", err))
		return snap
	}

	var previous []models.Arrangement
	for _, arr := range arrangements {
		if d, ok := parseSessionKey(arr.SessionKey); ok && d.Before(cutoff) {
			previous = append(previous, arr)
		}
	}
	pairing.BuildPairHistory(previous).Annotate(snap.Teams)
	return snap
}

func parseSessionKey(key string) (time.Time, bool) {
	t, err := time.Parse(models.SessionKeyLayout, key)
	return t, err == nil
}
