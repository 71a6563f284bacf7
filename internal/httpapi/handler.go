package httpapi

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/lifequest/lifequest-services/internal/progression"
	"github.com/lifequest/lifequest-services/internal/session"
	"github.com/lifequest/lifequest-services/shared-libs/auth"
	sharederrors "github.com/lifequest/lifequest-services/shared-libs/errors"
)

const serviceTimeout = 8 * time.Second

// Sessions hands out the live session of a user.
type Sessions interface {
	Get(ctx context.Context, userID string) (*session.Session, error)
}

type missionResponse struct {
	progression.Mission
	Difficulty progression.Difficulty `json:"difficulty"`
}

func newMissionResponse(m progression.Mission) missionResponse {
	return missionResponse{Mission: m, Difficulty: m.Difficulty()}
}

type transitionResponse struct {
	Noop            bool                            `json:"noop"`
	Mission         *missionResponse                `json:"mission,omitempty"`
	Entry           *progression.HistoryEntry       `json:"entry,omitempty"`
	Awarded         int                             `json:"awarded"`
	LevelsGained    int                             `json:"levels_gained"`
	Rewards         []progression.AchievementReward `json:"rewards,omitempty"`
	NewlyUnlockable []string                        `json:"newly_unlockable,omitempty"`
	View            session.Snapshot                `json:"view"`
}

type createMissionRequest struct {
	ID          string `json:"id" validate:"omitempty,max=64"`
	Title       string `json:"title" validate:"required,max=120"`
	Description string `json:"description" validate:"max=500"`
	XPValue     int    `json:"xp_value"`
	Attribute   string `json:"attribute" validate:"required"`
}

type completeMissionRequest struct {
	Outcome string `json:"outcome" validate:"required,oneof=success fail"`
}

type grantRequest struct {
	Amount    int    `json:"amount" validate:"gt=0"`
	Attribute string `json:"attribute"`
}

type profileRequest struct {
	AvatarName  *string  `json:"avatar_name" validate:"omitempty,max=40"`
	PlayerClass *string  `json:"player_class"`
	Traits      []string `json:"traits"`
}

type weeklyStatsResponse struct {
	WeeklySeries   [7]int                   `json:"weekly_series"`
	TodayXP        int                      `json:"today_xp"`
	TodayCompleted int                      `json:"today_completed"`
	Streak         progression.StreakView   `json:"streak"`
	Boss           progression.BossProgress `json:"boss"`
	Successes      int                      `json:"successes"`
	Failures       int                      `json:"failures"`
}

// RegisterRoutes registers the character, mission, talent, achievement and stats routes.
// Every route expects the auth middleware to have stored the user.
func RegisterRoutes(r chi.Router, sessions Sessions, logger *slog.Logger) {
	r.Route("/v1/character", func(r chi.Router) {
		r.Get("/", getCharacter(sessions, logger))
		r.Patch("/", updateProfile(sessions, logger))
		r.Post("/undo", undo(sessions, logger))
		r.Post("/xp", grantXP(sessions, logger))
		r.Get("/stream", streamCharacter(sessions, logger))
	})

	r.Route("/v1/missions", func(r chi.Router) {
		r.Get("/", listMissions(sessions, logger))
		r.Post("/", createMission(sessions, logger))
		r.Post("/generate", generateMission(sessions, logger))
		r.Post("/{id}/complete", completeMission(sessions, logger))
	})

	r.Route("/v1/talents", func(r chi.Router) {
		r.Get("/", listTalents(sessions, logger))
		r.Post("/{id}/unlock", unlockTalent(sessions, logger))
	})

	r.Get("/v1/achievements", listAchievements(sessions, logger))
	r.Get("/v1/stats/weekly", weeklyStats(sessions, logger))
}

func requestUserID(r *http.Request) string {
	if user, ok := auth.UserFromContext(r.Context()); ok {
		return user.UserID
	}
	return ""
}

// sessionHandler resolves the caller and their session before running fn.
func sessionHandler(sessions Sessions, logger *slog.Logger, fn func(w http.ResponseWriter, r *http.Request, s *session.Session)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := requestUserID(r)
		if userID == "" {
			writeError(w, r, sharederrors.CodeUnauthorized, "missing user ID")
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), serviceTimeout)
		defer cancel()

		s, err := sessions.Get(ctx, userID)
		if err != nil {
			respondServiceError(w, r, logger, "failed to load character", err, userID)
			return
		}
		fn(w, r, s)
	}
}

// dispatch applies ev to the caller's session. A session closed by the idle janitor
// between lookup and dispatch is reopened once.
func dispatch(ctx context.Context, sessions Sessions, userID string, ev progression.Event) (*session.Session, progression.Result, error) {
	for attempt := 0; ; attempt++ {
		s, err := sessions.Get(ctx, userID)
		if err != nil {
			return nil, progression.Result{}, err
		}
		res, err := s.Dispatch(ev)
		if errors.Is(err, session.ErrClosed) && attempt == 0 {
			continue
		}
		return s, res, err
	}
}

// transition dispatches ev and writes the outcome. Re-completing a mission is reported as a
// successful no-op.
func transition(w http.ResponseWriter, r *http.Request, sessions Sessions, logger *slog.Logger, ev progression.Event, status int) {
	userID := requestUserID(r)
	if userID == "" {
		writeError(w, r, sharederrors.CodeUnauthorized, "missing user ID")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), serviceTimeout)
	defer cancel()

	s, res, err := dispatch(ctx, sessions, userID, ev)
	if err != nil && !errors.Is(err, progression.ErrAlreadyCompleted) {
		respondServiceError(w, r, logger, "failed to apply change", err, userID)
		return
	}
	if res.Noop {
		status = http.StatusOK
	}

	resp := transitionResponse{
		Noop:            res.Noop,
		Entry:           res.Entry,
		Awarded:         res.Awarded,
		LevelsGained:    res.LevelsGained,
		Rewards:         res.Rewards,
		NewlyUnlockable: res.NewlyUnlockable,
		View:            s.View(),
	}
	if res.Mission != nil {
		m := newMissionResponse(*res.Mission)
		resp.Mission = &m
	}
	writeJSON(w, status, resp)
}

func getCharacter(sessions Sessions, logger *slog.Logger) http.HandlerFunc {
	return sessionHandler(sessions, logger, func(w http.ResponseWriter, _ *http.Request, s *session.Session) {
		writeJSON(w, http.StatusOK, s.View())
	})
}

func updateProfile(sessions Sessions, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body profileRequest
		if err := decodeBody(r, &body, false); err != nil {
			writeError(w, r, sharederrors.CodeBadRequest, err.Error())
			return
		}

		ev := progression.UpdateProfile{AvatarName: body.AvatarName}
		if body.PlayerClass != nil {
			class := progression.Class(*body.PlayerClass)
			ev.PlayerClass = &class
		}
		if body.Traits != nil {
			ev.Traits = make([]progression.Trait, len(body.Traits))
			for i, t := range body.Traits {
				ev.Traits[i] = progression.Trait(t)
			}
		}
		transition(w, r, sessions, logger, ev, http.StatusOK)
	}
}

func undo(sessions Sessions, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		transition(w, r, sessions, logger, progression.UndoLast{}, http.StatusOK)
	}
}

func grantXP(sessions Sessions, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body grantRequest
		if err := decodeBody(r, &body, false); err != nil {
			writeError(w, r, sharederrors.CodeBadRequest, err.Error())
			return
		}

		grant := progression.Grant{Amount: body.Amount}
		if strings.TrimSpace(body.Attribute) != "" {
			attr, err := progression.ParseAttribute(body.Attribute)
			if err != nil {
				writeError(w, r, sharederrors.CodeBadRequest, err.Error())
				return
			}
			grant.Attribute = attr
		}
		transition(w, r, sessions, logger, progression.GrantXP{Grant: grant}, http.StatusOK)
	}
}

func listMissions(sessions Sessions, logger *slog.Logger) http.HandlerFunc {
	return sessionHandler(sessions, logger, func(w http.ResponseWriter, r *http.Request, s *session.Session) {
		status := progression.MissionStatus(strings.ToLower(r.URL.Query().Get("status")))
		switch status {
		case "", progression.MissionPending, progression.MissionCompleted:
		default:
			writeError(w, r, sharederrors.CodeBadRequest, "status must be pending or completed")
			return
		}

		missions := make([]missionResponse, 0)
		for _, m := range s.State().Missions {
			if status != "" && m.Status != status {
				continue
			}
			missions = append(missions, newMissionResponse(m))
		}
		writeJSON(w, http.StatusOK, map[string]any{"missions": missions})
	})
}

func createMission(sessions Sessions, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body createMissionRequest
		if err := decodeBody(r, &body, false); err != nil {
			writeError(w, r, sharederrors.CodeBadRequest, err.Error())
			return
		}
		attr, err := progression.ParseAttribute(body.Attribute)
		if err != nil {
			writeError(w, r, sharederrors.CodeBadRequest, err.Error())
			return
		}

		transition(w, r, sessions, logger, progression.CreateMission{Input: progression.MissionInput{
			ID:          body.ID,
			Title:       body.Title,
			Description: body.Description,
			XPValue:     body.XPValue,
			Attribute:   attr,
		}}, http.StatusCreated)
	}
}

func generateMission(sessions Sessions, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		transition(w, r, sessions, logger, progression.GenerateMission{}, http.StatusCreated)
	}
}

func completeMission(sessions Sessions, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		missionID := chi.URLParam(r, "id")
		if strings.TrimSpace(missionID) == "" {
			writeError(w, r, sharederrors.CodeBadRequest, "missing mission id")
			return
		}
		var body completeMissionRequest
		if err := decodeBody(r, &body, false); err != nil {
			writeError(w, r, sharederrors.CodeBadRequest, err.Error())
			return
		}

		transition(w, r, sessions, logger, progression.CompleteMissionEvent{
			MissionID: missionID,
			Outcome:   progression.Outcome(body.Outcome),
		}, http.StatusOK)
	}
}

func listTalents(sessions Sessions, logger *slog.Logger) http.HandlerFunc {
	return sessionHandler(sessions, logger, func(w http.ResponseWriter, _ *http.Request, s *session.Session) {
		view := s.View()
		writeJSON(w, http.StatusOK, map[string]any{
			"available_points": view.AvailablePoints,
			"talents":          view.Talents,
		})
	})
}

func unlockTalent(sessions Sessions, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		talentID := chi.URLParam(r, "id")
		if strings.TrimSpace(talentID) == "" {
			writeError(w, r, sharederrors.CodeBadRequest, "missing talent id")
			return
		}
		transition(w, r, sessions, logger, progression.UnlockTalent{TalentID: talentID}, http.StatusOK)
	}
}

func listAchievements(sessions Sessions, logger *slog.Logger) http.HandlerFunc {
	return sessionHandler(sessions, logger, func(w http.ResponseWriter, _ *http.Request, s *session.Session) {
		view := s.View()
		unlocked := 0
		for _, a := range view.Achievements {
			if a.Unlocked {
				unlocked++
			}
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"achievements": view.Achievements,
			"unlocked":     unlocked,
		})
	})
}

func weeklyStats(sessions Sessions, logger *slog.Logger) http.HandlerFunc {
	return sessionHandler(sessions, logger, func(w http.ResponseWriter, _ *http.Request, s *session.Session) {
		view := s.View()
		history := s.State().History
		writeJSON(w, http.StatusOK, weeklyStatsResponse{
			WeeklySeries:   view.WeeklySeries,
			TodayXP:        view.TodayXP,
			TodayCompleted: view.TodayCompleted,
			Streak:         view.Streak,
			Boss:           view.Boss,
			Successes:      history.SuccessCount(),
			Failures:       history.FailureCount(),
		})
	})
}
