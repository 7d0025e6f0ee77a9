package engine

import (
	"dev-connector/internal/engine/actors"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/asynkron/protoactor-go/router"
)

// Engine coordinates communication between actors. Each actor kind runs as a
// round-robin pool, so independent requests are served in parallel.
type Engine struct {
	postActor    *actor.PID
	userActor    *actor.PID
	profileActor *actor.PID
}

func NewEngine(system *actor.ActorSystem, deps actors.Deps, poolSize int) *Engine {
	if poolSize < 1 {
		poolSize = 1
	}
	context := system.Root

	postPID := context.Spawn(router.NewRoundRobinPool(poolSize, actor.WithProducer(func() actor.Actor {
		return actors.NewPostActor(deps)
	})))

	userPID := context.Spawn(router.NewRoundRobinPool(poolSize, actor.WithProducer(func() actor.Actor {
		return actors.NewUserActor(deps)
	})))

	profilePID := context.Spawn(router.NewRoundRobinPool(poolSize, actor.WithProducer(func() actor.Actor {
		return actors.NewProfileActor(deps)
	})))

	return &Engine{
		postActor:    postPID,
		userActor:    userPID,
		profileActor: profilePID,
	}
}

// GetPostActor returns the PID of the post actor pool
func (e *Engine) GetPostActor() *actor.PID {
	return e.postActor
}

// GetUserActor returns the PID of the user actor pool
func (e *Engine) GetUserActor() *actor.PID {
	return e.userActor
}

// GetProfileActor returns the PID of the profile actor pool
func (e *Engine) GetProfileActor() *actor.PID {
	return e.profileActor
}
