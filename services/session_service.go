package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"game-rewards-engine/games"
	"game-rewards-engine/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SessionService is the public surface every game exposes: start, status,
// submit and cancel for session games, and spin for slots.
type SessionService struct {
	DB        *gorm.DB
	Registry  *SessionRegistry
	Cooldowns *CooldownGate
	Ledger    *LedgerService
	Seeds     *SeedService
	Judges    games.Judges
	Reels     games.ReelTable
	Archive   *MoveLogArchive // nil disables archiving

	SpinCost int64
	Grace    time.Duration
	Now      func() time.Time
}

func NewSessionService(db *gorm.DB, ledger *LedgerService, cooldowns *CooldownGate, seeds *SeedService) *SessionService {
	return &SessionService{
		DB:        db,
		Registry:  NewSessionRegistry(db),
		Cooldowns: cooldowns,
		Ledger:    ledger,
		Seeds:     seeds,
		Judges:    games.DefaultJudges(),
		Reels:     games.DefaultReelTable,
		SpinCost:  10,
		Grace:     30 * time.Second,
		Now:       utcNow,
	}
}

type StartResult struct {
	SessionID string       `json:"sessionId"`
	Config    games.Config `json:"config"`
	Board     *games.Board `json:"board,omitempty"`
	ExpiresAt time.Time    `json:"expiresAt"`
}

// ActiveSession is a resumable session as the client sees it.
type ActiveSession struct {
	SessionID  string           `json:"sessionId"`
	Difficulty games.Difficulty `json:"difficulty"`
	Config     games.Config     `json:"config"`
	Board      *games.Board     `json:"board,omitempty"`
	CreatedAt  time.Time        `json:"createdAt"`
	ExpiresAt  time.Time        `json:"expiresAt"`
}

type StatusResult struct {
	Balance            int64          `json:"balance"`
	DailyStats         DailyView      `json:"dailyStats"`
	InCooldown         bool           `json:"inCooldown"`
	CooldownRemaining  int64          `json:"cooldownRemaining"` // milliseconds
	DailyLimit         int64          `json:"dailyLimit"`
	PointsLimitReached bool           `json:"pointsLimitReached"`
	ActiveSession      *ActiveSession `json:"activeSession"`
}

type DailyView struct {
	GamesPlayed  int   `json:"gamesPlayed"`
	PointsEarned int64 `json:"pointsEarned"`
}

type SubmitResult struct {
	SessionID          string    `json:"sessionId"`
	Score              int       `json:"score"`
	Completed          bool      `json:"completed"`
	PointsEarned       int64     `json:"pointsEarned"`
	Capped             bool      `json:"capped"`
	PointsLimitReached bool      `json:"pointsLimitReached"`
	Balance            int64     `json:"balance"`
	DailyStats         DailyView `json:"dailyStats"`
}

type SpinResult struct {
	SpinID             string             `json:"spinId"`
	Bet                int64              `json:"bet"`
	Window             [3][3]games.Symbol `json:"window"`
	Wins               []games.LineWin    `json:"wins"`
	Multiplier         int                `json:"multiplier"`
	Payout             int64              `json:"payout"`
	PointsEarned       int64              `json:"pointsEarned"`
	Capped             bool               `json:"capped"`
	PointsLimitReached bool               `json:"pointsLimitReached"`
	Balance            int64              `json:"balance"`
	DailyStats         DailyView          `json:"dailyStats"`
}

func dailyView(d models.DailyStats) DailyView {
	return DailyView{GamesPlayed: d.GamesPlayed, PointsEarned: d.PointsEarned}
}

func boardOf(s *models.GameSession) *games.Board {
	if s.Config.HideBoard {
		return nil
	}
	b := s.ServerState.Public()
	return &b
}

// Start opens a new session after the cooldown gate admits it.
func (s *SessionService) Start(userID string, kind games.Kind, difficulty games.Difficulty) (*StartResult, error) {
	if !kind.Valid() {
		return nil, ErrUnknownGameKind
	}
	if !kind.SessionBased() {
		return nil, ErrNotSessionGame
	}
	cfg, err := games.ResolveConfig(kind, difficulty)
	if err != nil {
		return nil, err
	}

	id := uuid.NewString()
	state, err := games.NewServerState(cfg, s.Seeds.NewSeed(id))
	if err != nil {
		return nil, fmt.Errorf("deal board: %w", err)
	}

	now := s.Now()
	session := &models.GameSession{
		ID:          id,
		UserID:      userID,
		GameKind:    kind,
		Difficulty:  cfg.Difficulty,
		Config:      cfg,
		ServerState: state,
		Status:      models.SessionActive,
		CreatedAt:   now,
		ExpiresAt:   now.Add(cfg.TimeLimit() + s.Grace),
	}

	err = s.DB.Transaction(func(tx *gorm.DB) error {
		if err := s.Cooldowns.CheckAndReserveTx(tx, userID, kind, now); err != nil {
			return err
		}
		return s.Registry.CreateTx(tx, session, now)
	})
	if err != nil {
		return nil, err
	}

	log.Printf("🎮 [SESSION] %s started %s/%s session %s (expires %s)",
		userID, kind, cfg.Difficulty, id, session.ExpiresAt.Format(time.RFC3339))

	return &StartResult{
		SessionID: id,
		Config:    cfg,
		Board:     boardOf(session),
		ExpiresAt: session.ExpiresAt,
	}, nil
}

// Status is everything a client needs to render the game's lobby, including
// the live session to resume, if any.
func (s *SessionService) Status(userID string, kind games.Kind) (*StatusResult, error) {
	if !kind.Valid() {
		return nil, ErrUnknownGameKind
	}
	now := s.Now()

	balance, err := s.Ledger.Balance(userID)
	if err != nil {
		return nil, err
	}
	daily, err := s.Ledger.TodayStats(userID, now)
	if err != nil {
		return nil, err
	}
	left, err := s.Cooldowns.Remaining(userID, kind, now)
	if err != nil {
		return nil, err
	}

	res := &StatusResult{
		Balance:            balance,
		DailyStats:         dailyView(daily),
		InCooldown:         left > 0,
		CooldownRemaining:  left.Milliseconds(),
		DailyLimit:         s.Ledger.DailyCap,
		PointsLimitReached: daily.PointsEarned >= s.Ledger.DailyCap,
	}

	if kind.SessionBased() {
		active, err := s.Registry.GetActive(userID, kind, now)
		if err != nil {
			return nil, err
		}
		if active != nil {
			res.ActiveSession = &ActiveSession{
				SessionID:  active.ID,
				Difficulty: active.Difficulty,
				Config:     active.Config,
				Board:      boardOf(active),
				CreatedAt:  active.CreatedAt,
				ExpiresAt:  active.ExpiresAt,
			}
		}
	}
	return res, nil
}

// Submit judges a finished session and pays it out. The finalize CAS, the
// credit and the cooldown mark commit together, so of several concurrent
// submits for one session exactly one is paid and the rest get ErrNotActive.
// An invalid move log is not an error: the session closes with score 0.
func (s *SessionService) Submit(userID string, kind games.Kind, sessionID string, moves json.RawMessage, claim games.Claim) (*SubmitResult, error) {
	session, err := s.Registry.Get(userID, sessionID)
	if err != nil {
		return nil, err
	}
	if kind != "" && session.GameKind != kind {
		return nil, ErrSessionNotFound
	}

	now := s.Now()
	if session.Status == models.SessionExpired || (session.Status == models.SessionActive && session.ExpiredAt(now)) {
		return nil, ErrSessionExpired
	}
	if session.Status != models.SessionActive {
		return nil, ErrNotActive
	}

	verdict, err := s.Judges.Evaluate(session.Config, session.ServerState, moves, claim)
	if err != nil {
		return nil, err
	}
	if !verdict.Valid {
		log.Printf("🚩 [SESSION] rejected move log for session %s (%s): %s", session.ID, userID, verdict.Reason)
		verdict.Score, verdict.Completed = 0, false
	}

	var credit *CreditResult
	err = s.DB.Transaction(func(tx *gorm.DB) error {
		out := Outcome{Score: verdict.Score, Completed: verdict.Completed, Valid: verdict.Valid}
		if _, err := s.Registry.FinalizeTx(tx, userID, session.ID, models.SessionSubmitted, out, now); err != nil {
			return err
		}

		var err error
		credit, err = s.Ledger.CreditTx(tx, CreditRequest{
			UserID:      userID,
			Amount:      int64(verdict.Payable(session.Config)),
			Source:      models.SourceGameReward,
			Description: fmt.Sprintf("%s (%s) score %d", session.GameKind, session.Difficulty, verdict.Score),
			Reference:   session.ID,
			CountGame:   true,
		}, now)
		if err != nil {
			return err
		}

		if err := tx.Model(&models.GameSession{}).
			Where("id = ?", session.ID).
			Update("points_earned", credit.Credited).Error; err != nil {
			return err
		}
		return s.Cooldowns.MarkTx(tx, userID, session.GameKind, now)
	})
	if err != nil {
		return nil, err
	}

	log.Printf("🏁 [SESSION] %s submitted %s session %s: score %d, credited %d (capped=%t)",
		userID, session.GameKind, session.ID, verdict.Score, credit.Credited, credit.Capped)

	if s.Archive != nil {
		s.Archive.ArchiveAsync(MoveLogRecord{
			SessionID:    session.ID,
			UserID:       userID,
			Kind:         session.GameKind,
			Difficulty:   session.Difficulty,
			Config:       session.Config,
			Moves:        moves,
			Claim:        claim,
			Verdict:      verdict,
			Reason:       verdict.Reason,
			PointsEarned: credit.Credited,
			SubmittedAt:  now,
		})
	}

	return &SubmitResult{
		SessionID:          session.ID,
		Score:              verdict.Score,
		Completed:          verdict.Completed,
		PointsEarned:       credit.Credited,
		Capped:             credit.Capped,
		PointsLimitReached: credit.CapReached,
		Balance:            credit.Balance,
		DailyStats:         dailyView(credit.Daily),
	}, nil
}

// Board replays a partial move log against an active session and returns
// the board the player should now see. Only link-up boards change during
// play: its shuffles are drawn from the session seed, which never leaves the
// server.
func (s *SessionService) Board(userID string, kind games.Kind, sessionID string, moves json.RawMessage) (*games.Board, error) {
	session, err := s.Registry.Get(userID, sessionID)
	if err != nil {
		return nil, err
	}
	if kind != "" && session.GameKind != kind {
		return nil, ErrSessionNotFound
	}
	if session.Status == models.SessionExpired || (session.Status == models.SessionActive && session.ExpiredAt(s.Now())) {
		return nil, ErrSessionExpired
	}
	if session.Status != models.SessionActive {
		return nil, ErrNotActive
	}

	board := boardOf(session)
	if board == nil || session.GameKind != games.KindLinkUp {
		return board, nil
	}
	grid, err := games.LinkUpBoard(session.Config, session.ServerState, moves)
	if err != nil {
		return nil, err
	}
	board.Grid = grid
	return board, nil
}

// Cancel abandons a session and starts the cooldown. An empty sessionID
// means the caller's live session for kind. Cancelling something already
// terminal or expired succeeds without effect.
func (s *SessionService) Cancel(userID string, kind games.Kind, sessionID string) error {
	if !kind.Valid() {
		return ErrUnknownGameKind
	}
	now := s.Now()

	if sessionID == "" {
		active, err := s.Registry.GetActive(userID, kind, now)
		if err != nil {
			return err
		}
		if active == nil {
			return nil
		}
		sessionID = active.ID
	}

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		session, err := s.Registry.FinalizeTx(tx, userID, sessionID, models.SessionCancelled, Outcome{}, now)
		if err != nil {
			return err
		}
		if session.GameKind != kind {
			return ErrSessionNotFound
		}
		return s.Cooldowns.MarkTx(tx, userID, kind, now)
	})
	switch {
	case errors.Is(err, ErrNotActive), errors.Is(err, ErrSessionExpired):
		return nil
	case err != nil:
		return err
	}

	log.Printf("🛑 [SESSION] %s cancelled %s session %s", userID, kind, sessionID)
	return nil
}

// Spin resolves one slots spin server-side: debit the stake, pay the
// outcome through the capped ledger, mark the cooldown and record the spin.
func (s *SessionService) Spin(userID string) (*SpinResult, error) {
	now := s.Now()
	spinID := uuid.NewString()
	seed := s.Seeds.NewSeed(spinID)
	outcome := s.Reels.Spin(seed, s.SpinCost)

	var payout, debit *CreditResult
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := s.Cooldowns.CheckAndReserveTx(tx, userID, games.KindSlots, now); err != nil {
			return err
		}

		var err error
		debit, err = s.Ledger.CreditTx(tx, CreditRequest{
			UserID:      userID,
			Amount:      -s.SpinCost,
			Source:      models.SourceGameWager,
			Description: "slots spin",
			Reference:   spinID,
			CountGame:   true,
		}, now)
		if err != nil {
			return err
		}

		payout = debit
		if outcome.Payout > 0 {
			payout, err = s.Ledger.CreditTx(tx, CreditRequest{
				UserID:      userID,
				Amount:      outcome.Payout,
				Source:      models.SourceGameReward,
				Description: fmt.Sprintf("slots x%d", outcome.Multiplier),
				Reference:   spinID,
			}, now)
			if err != nil {
				return err
			}
		}

		if err := s.Cooldowns.MarkTx(tx, userID, games.KindSlots, now); err != nil {
			return err
		}

		var earned int64
		if outcome.Payout > 0 {
			earned = payout.Credited
		}
		return tx.Create(&models.SpinRecord{
			ID:           spinID,
			UserID:       userID,
			Seed:         seed,
			Bet:          s.SpinCost,
			Window:       outcome.Window,
			Wins:         outcome.Wins,
			Multiplier:   outcome.Multiplier,
			Payout:       outcome.Payout,
			PointsEarned: earned,
			CreatedAt:    now,
		}).Error
	})
	if err != nil {
		return nil, err
	}

	res := &SpinResult{
		SpinID:             spinID,
		Bet:                s.SpinCost,
		Window:             outcome.Window,
		Wins:               outcome.Wins,
		Multiplier:         outcome.Multiplier,
		Payout:             outcome.Payout,
		Balance:            payout.Balance,
		DailyStats:         dailyView(payout.Daily),
		PointsLimitReached: payout.Daily.PointsEarned >= s.Ledger.DailyCap,
	}
	if outcome.Payout > 0 {
		res.PointsEarned = payout.Credited
		res.Capped = payout.Capped
	}
	if res.Wins == nil {
		res.Wins = []games.LineWin{}
	}
	log.Printf("🎰 [SLOTS] %s spin %s: x%d, payout %d, credited %d", userID, spinID, outcome.Multiplier, outcome.Payout, res.PointsEarned)
	return res, nil
}

// SweepExpired is the maintenance hook for the scheduler.
func (s *SessionService) SweepExpired() (int64, error) {
	return s.Registry.SweepExpired(s.Now())
}
