package actors

import (
	stdctx "context"
	"time"

	"dev-connector/internal/database"
	"dev-connector/internal/models"
	"dev-connector/internal/utils"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type (
	// UpsertProfileMsg creates the caller's profile or replaces its fields.
	UpsertProfileMsg struct {
		Request
		UserID  uuid.UUID
		Profile models.Profile
	}

	GetProfileMsg struct {
		Request
		UserID uuid.UUID
	}

	ListProfilesMsg struct {
		Request
	}
)

// ProfileActor manages developer profiles and populates them with their owner.
type ProfileActor struct {
	store   database.DBAdapter
	metrics *utils.MetricsCollector
	timeout time.Duration
	logger  *zap.Logger
}

func NewProfileActor(deps Deps) actor.Actor {
	return &ProfileActor{
		store:   deps.Store,
		metrics: deps.Metrics,
		timeout: deps.Timeout,
		logger:  deps.Logger.Named("profile_actor"),
	}
}

func (a *ProfileActor) Receive(context actor.Context) {
	switch msg := context.Message().(type) {
	case *actor.Started:
		a.logger.Debug("ProfileActor started")
	case *UpsertProfileMsg:
		a.handleUpsert(context, msg)
	case *GetProfileMsg:
		a.handleGet(context, msg)
	case *ListProfilesMsg:
		a.handleList(context, msg)
	}
}

func (a *ProfileActor) handleUpsert(context actor.Context, msg *UpsertProfileMsg) {
	startTime := time.Now()
	ctx, cancel := storeContext(msg.Deadline, a.timeout)
	defer cancel()

	owner, err := a.store.GetUser(ctx, msg.UserID)
	if err != nil {
		a.fail(context, "upsert_profile", err)
		return
	}

	profile := msg.Profile
	profile.ID = uuid.New() // kept only if this is the user's first profile
	profile.User = msg.UserID
	profile.Date = time.Now().UTC()
	if profile.Skills == nil {
		profile.Skills = []string{}
	}

	saved, err := a.store.UpsertProfile(ctx, &profile)
	if err != nil {
		a.fail(context, "upsert_profile", err)
		return
	}

	a.metrics.AddOperationLatency("upsert_profile", time.Since(startTime))
	context.Respond(&models.PopulatedProfile{Profile: saved, User: owner.Summary()})
}

func (a *ProfileActor) handleGet(context actor.Context, msg *GetProfileMsg) {
	ctx, cancel := storeContext(msg.Deadline, a.timeout)
	defer cancel()

	profile, err := a.store.GetProfileByUser(ctx, msg.UserID)
	if err != nil {
		a.fail(context, "get_profile", err)
		return
	}

	populated, err := a.populate(ctx, profile)
	if err != nil {
		a.fail(context, "get_profile", err)
		return
	}
	context.Respond(populated)
}

func (a *ProfileActor) handleList(context actor.Context, msg *ListProfilesMsg) {
	startTime := time.Now()
	ctx, cancel := storeContext(msg.Deadline, a.timeout)
	defer cancel()

	profiles, err := a.store.ListProfiles(ctx)
	if err != nil {
		a.fail(context, "list_profiles", err)
		return
	}

	populated := make([]*models.PopulatedProfile, 0, len(profiles))
	for _, p := range profiles {
		pp, err := a.populate(ctx, p)
		if err != nil {
			a.fail(context, "list_profiles", err)
			return
		}
		populated = append(populated, pp)
	}

	a.metrics.AddOperationLatency("list_profiles", time.Since(startTime))
	context.Respond(populated)
}

// populate attaches the owner's name and avatar. A profile whose owner is
// gone keeps only the owner's id.
func (a *ProfileActor) populate(ctx stdctx.Context, profile *models.Profile) (*models.PopulatedProfile, error) {
	owner, err := a.store.GetUser(ctx, profile.User)
	if utils.IsNotFound(err) {
		return &models.PopulatedProfile{Profile: profile, User: models.UserSummary{ID: profile.User}}, nil
	}
	if err != nil {
		return nil, err
	}
	return &models.PopulatedProfile{Profile: profile, User: owner.Summary()}, nil
}

func (a *ProfileActor) fail(context actor.Context, operation string, err error) {
	context.Respond(respondError(a.logger, a.metrics, operation, err))
}
