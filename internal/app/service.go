// Package app provides the core business service that implements the
// dependencies required by the HTTP API: bracket lifecycle, result
// recording, score intake and seeding rankings.
package app

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"github.com/google/uuid"

	reportqueue "github.com/tannerhall/bracketeer/internal/adapters/mq/queue"
	"github.com/tannerhall/bracketeer/internal/adapters/mq/worker"
	"github.com/tannerhall/bracketeer/internal/adapters/repository"
	"github.com/tannerhall/bracketeer/internal/domain/bracket"
	"github.com/tannerhall/bracketeer/internal/domain/dedupe"
	"github.com/tannerhall/bracketeer/internal/domain/model"
	"github.com/tannerhall/bracketeer/internal/domain/ranking"
	"github.com/tannerhall/bracketeer/internal/domain/types"
	"github.com/tannerhall/bracketeer/pkg/logger"
	"github.com/tannerhall/bracketeer/pkg/metrics"
)

// Service orchestrates the pure bracket engine against storage: it loads
// snapshots, runs the engine, and persists the result. The engine holds no
// state between calls; brackets are serialized here so concurrent
// advancements for one bracket never interleave.
type Service struct {
	mu sync.RWMutex

	store   repository.Store
	deduper dedupe.Deduper
	queue   reportqueue.Queue
	pool    *worker.Pool

	// Templates are pure values; cache them per size.
	templateMu sync.Mutex
	templates  map[int][]model.GameTemplate

	// One lock per bracket keeps advancement cascades atomic per bracket.
	bracketMu    sync.Mutex
	bracketLocks map[uuid.UUID]*sync.Mutex

	workerCount int
	queueSize   int
	dedupeSize  int

	started bool

	log logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithStore sets the backing store. Required before Start.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		s.store = store
	}
}

// WithWorkerCount sets the number of score workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize bounds the score report queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize sets the size of the report dedupe cache.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(log logger.Logger) Option {
	return func(s *Service) {
		if log != nil {
			s.log = log
		}
	}
}

// New constructs a Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		templates:    make(map[int][]model.GameTemplate),
		bracketLocks: make(map[uuid.UUID]*sync.Mutex),
		workerCount:  4,
		queueSize:    10000,
		dedupeSize:   50000,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start initializes and starts the service components.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.store == nil {
		return fmt.Errorf("start service: %w", ErrNoStore)
	}
	if s.log == nil {
		s.log = logger.Get()
	}

	s.deduper = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.dedupeSize))
	q := reportqueue.NewInMemoryQueue(reportqueue.WithCapacity(s.queueSize))
	s.queue = q
	s.pool = worker.NewPool(s.workerCount, q, scoreRecorder{store: s.store}, s)
	s.pool.Start(ctx)

	s.started = true
	s.log.Info(ctx, "tournament service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queueSize", s.queueSize),
	)
	return nil
}

// Stop gracefully shuts down the service.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	ctx := context.Background()
	s.log.Info(ctx, "stopping tournament service...")

	if q, ok := s.queue.(*reportqueue.InMemoryQueue); ok {
		_ = q.Close()
	}
	if s.pool != nil {
		s.pool.Stop()
	}
	if s.store != nil {
		_ = s.store.Close()
	}

	s.started = false
	s.log.Info(ctx, "tournament service stopped")
}

// scoreRecorder adapts the store to the worker.Recorder interface.
type scoreRecorder struct {
	store repository.Store
}

func (r scoreRecorder) RecordSeedScore(ctx context.Context, teamID uuid.UUID, score float64) error {
	return r.store.InsertSeedScore(ctx, teamID, score)
}

// Template returns the cached game graph template for a bracket size.
func (s *Service) Template(size int) ([]model.GameTemplate, error) {
	s.templateMu.Lock()
	defer s.templateMu.Unlock()

	if t, ok := s.templates[size]; ok {
		return t, nil
	}
	t, err := bracket.BuildTemplate(size)
	if err != nil {
		return nil, err
	}
	s.templates[size] = t
	metrics.RecordTemplateBuilt(strconv.Itoa(size))
	return t, nil
}

// RegisterTeam creates or renames a team.
func (s *Service) RegisterTeam(ctx context.Context, id uuid.UUID, name string) error {
	return s.store.UpsertTeam(ctx, repository.Team{ID: id, Name: name})
}

// Teams lists registered teams.
func (s *Service) Teams(ctx context.Context) ([]repository.Team, error) {
	return s.store.ListTeams(ctx)
}

// SubmitScore accepts a seeding-match score report for async processing.
// Returns (accepted, duplicate).
func (s *Service) SubmitScore(ctx context.Context, r model.ScoreReport) (bool, bool) {
	if s.deduper.SeenAndRecord(ctx, r.ReportID) {
		metrics.RecordReportDuplicate()
		return true, true
	}
	if !s.queue.Enqueue(ctx, r) {
		// Roll back the seen mark so the submitter can retry.
		s.deduper.Unrecord(ctx, r.ReportID)
		return false, false
	}
	return true, false
}

// RecomputeRankings rebuilds the seeding ranking from all recorded scores
// and replaces the stored rows wholesale.
func (s *Service) RecomputeRankings(ctx context.Context) error {
	scores, err := s.store.SeedScores(ctx)
	if err != nil {
		return err
	}
	rankings := ranking.Calculate(ranking.TeamScores(scores))
	if err := s.store.ReplaceRankings(ctx, rankings); err != nil {
		return err
	}

	rankedCount := 0
	for _, r := range rankings {
		if r.SeedRank != nil {
			rankedCount++
		}
	}
	metrics.RecordRankingRecompute()
	metrics.UpdateTeamsRanked(rankedCount, len(rankings))
	return nil
}

// Rankings recomputes and returns the current seeding ranking.
func (s *Service) Rankings(ctx context.Context) ([]types.RankingEntry, error) {
	if err := s.RecomputeRankings(ctx); err != nil {
		return nil, err
	}
	rankings, err := s.store.ListRankings(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]types.RankingEntry, len(rankings))
	for i, r := range rankings {
		out[i] = types.RankingEntry{
			TeamID:       r.TeamID.String(),
			SeedRank:     r.SeedRank,
			SeedAverage:  r.SeedAverage,
			Tiebreaker:   r.Tiebreaker,
			RawSeedScore: r.RawSeedScore,
		}
	}
	return out, nil
}

// CreateBracket seeds a new bracket of the given size from the current
// rankings, resolves first-round byes, and persists the initial game set.
func (s *Service) CreateBracket(ctx context.Context, name string, size int) (types.BracketView, error) {
	template, err := s.Template(size)
	if err != nil {
		return types.BracketView{}, err
	}
	if err := s.RecomputeRankings(ctx); err != nil {
		return types.BracketView{}, err
	}
	rankings, err := s.store.ListRankings(ctx)
	if err != nil {
		return types.BracketView{}, err
	}
	entries, err := bracket.EntriesFromRankings(rankings, size)
	if err != nil {
		return types.BracketView{}, err
	}
	games, err := bracket.Instantiate(template, entries)
	if err != nil {
		return types.BracketView{}, err
	}
	games, err = s.resolveWithMetrics(games)
	if err != nil {
		return types.BracketView{}, err
	}

	b := repository.Bracket{ID: uuid.New(), Name: name, Size: size}
	if err := s.store.CreateBracket(ctx, b, entries, games); err != nil {
		return types.BracketView{}, err
	}
	metrics.RecordBracketCreated()
	s.log.Info(ctx, "bracket created",
		logger.String("bracketID", b.ID.String()),
		logger.Int("size", size),
	)
	return bracketView(b, games), nil
}

// Bracket returns the stored snapshot for one bracket.
func (s *Service) Bracket(ctx context.Context, id uuid.UUID) (types.BracketView, error) {
	b, err := s.store.GetBracket(ctx, id)
	if err != nil {
		return types.BracketView{}, err
	}
	games, err := s.store.ListGames(ctx, id)
	if err != nil {
		return types.BracketView{}, err
	}
	return bracketView(b, games), nil
}

// RecordResult applies a game result to a bracket: the source game
// completes, winner and loser advance, and any exposed bye chains resolve.
// The whole cascade is written back in one transaction. Calls for the same
// bracket are serialized.
func (s *Service) RecordResult(ctx context.Context, bracketID uuid.UUID, gameNumber int, winnerID uuid.UUID, loserID *uuid.UUID) (types.BracketView, error) {
	unlock := s.lockBracket(bracketID)
	defer unlock()

	b, err := s.store.GetBracket(ctx, bracketID)
	if err != nil {
		return types.BracketView{}, err
	}
	games, err := s.store.ListGames(ctx, bracketID)
	if err != nil {
		return types.BracketView{}, err
	}

	byesBefore := countByStatus(games, model.StatusBye)
	updated, err := bracket.Advance(games, gameNumber, winnerID, loserID)
	if err != nil {
		metrics.RecordEngineError(errorKind(err))
		return types.BracketView{}, err
	}
	metrics.RecordGameAdvanced()
	metrics.RecordByesResolved(countByStatus(updated, model.StatusBye) - byesBefore)

	if err := s.store.SaveGames(ctx, bracketID, updated); err != nil {
		return types.BracketView{}, err
	}
	s.log.Info(ctx, "game advanced",
		logger.String("bracketID", bracketID.String()),
		logger.Int("game", gameNumber),
		logger.String("winner", winnerID.String()),
	)
	return bracketView(b, updated), nil
}

// ResolveByes re-runs bye resolution over a bracket and persists the result.
// CreateBracket and RecordResult already resolve; this exists for callers
// repairing older snapshots.
func (s *Service) ResolveByes(ctx context.Context, bracketID uuid.UUID) (types.BracketView, error) {
	unlock := s.lockBracket(bracketID)
	defer unlock()

	b, err := s.store.GetBracket(ctx, bracketID)
	if err != nil {
		return types.BracketView{}, err
	}
	games, err := s.store.ListGames(ctx, bracketID)
	if err != nil {
		return types.BracketView{}, err
	}
	resolved, err := s.resolveWithMetrics(games)
	if err != nil {
		return types.BracketView{}, err
	}
	if err := s.store.SaveGames(ctx, bracketID, resolved); err != nil {
		return types.BracketView{}, err
	}
	return bracketView(b, resolved), nil
}

// Size returns the current number of entries in the deduper.
func (s *Service) Size() int64 {
	if s.deduper == nil {
		return 0
	}
	return s.deduper.Size()
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]any{
		"started":     s.started,
		"workerCount": s.workerCount,
		"queueSize":   s.queueSize,
	}
	if s.started {
		stats["queueLength"] = s.queue.Len(context.Background())
		stats["dedupeEntries"] = s.Size()
	}
	return stats
}

func (s *Service) resolveWithMetrics(games []model.Game) ([]model.Game, error) {
	byesBefore := countByStatus(games, model.StatusBye)
	resolved, passes, err := bracket.ResolveCounted(games)
	if err != nil {
		metrics.RecordEngineError(errorKind(err))
		return nil, err
	}
	metrics.ObserveResolvePasses(passes)
	metrics.RecordByesResolved(countByStatus(resolved, model.StatusBye) - byesBefore)
	return resolved, nil
}

func (s *Service) lockBracket(id uuid.UUID) func() {
	s.bracketMu.Lock()
	l, ok := s.bracketLocks[id]
	if !ok {
		l = &sync.Mutex{}
		s.bracketLocks[id] = l
	}
	s.bracketMu.Unlock()

	l.Lock()
	return l.Unlock
}

func countByStatus(games []model.Game, status model.GameStatus) int {
	n := 0
	for i := range games {
		if games[i].Status == status {
			n++
		}
	}
	return n
}

func bracketView(b repository.Bracket, games []model.Game) types.BracketView {
	views := make([]types.GameView, len(games))
	for i := range games {
		g := &games[i]
		views[i] = types.GameView{
			GameNumber:  g.GameNumber,
			RoundName:   g.RoundName,
			RoundNumber: g.RoundNumber,
			Side:        string(g.Side),
			Team1ID:     idString(g.Team1ID),
			Team2ID:     idString(g.Team2ID),
			Status:      string(g.Status),
			WinnerID:    idString(g.WinnerID),
			LoserID:     idString(g.LoserID),
			GrandFinal:  g.GrandFinal,
			ResetGame:   g.ResetGame,
		}
	}
	return types.BracketView{
		BracketID: b.ID.String(),
		Name:      b.Name,
		Size:      b.Size,
		Games:     views,
	}
}

func idString(id *uuid.UUID) string {
	if id == nil {
		return ""
	}
	return id.String()
}
