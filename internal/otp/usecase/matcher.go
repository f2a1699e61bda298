package usecase

import (
	"github.com/samber/lo"
	"github.com/shandysiswandi/gotp/internal/otp/entity"
)

type matchable interface {
	Matches(entity.Target) bool
}

// matchFirst returns the index of the first item accepting target, or -1.
func matchFirst[T matchable](target entity.Target, items []T) int {
	_, i, _ := lo.FindIndexOf(items, func(item T) bool { return item.Matches(target) })
	return i
}

// MatchSchema returns the first schema in configuration order accepting target.
func MatchSchema(target entity.Target, schemas []entity.Schema) (entity.Schema, error) {
	i := matchFirst(target, schemas)
	if i < 0 {
		return entity.Schema{}, entity.ErrNoSchemaMatched
	}

	return schemas[i], nil
}

// MatchDeliveryAgent returns the first agent in configuration order accepting target.
func MatchDeliveryAgent(target entity.Target, agents []DeliveryAgent) (DeliveryAgent, error) {
	i := matchFirst(target, agents)
	if i < 0 {
		return DeliveryAgent{}, entity.ErrNoDeliveryAgentMatched
	}

	return agents[i], nil
}

func (s *Usecase) matchAgent(target entity.Target) (*agentSlot, error) {
	i := matchFirst(target, s.agents)
	if i < 0 {
		return nil, entity.ErrNoDeliveryAgentMatched
	}

	return &s.agents[i], nil
}
