package services

import (
	"math"

	"cermont/models"
)

// transitions lists, for each state, the states it may move to: the next
// state in the workflow and, except for solicitud, the previous one.
var transitions = map[models.OrderState][]models.OrderState{
	models.StateSolicitud:  {models.StateVisita},
	models.StateVisita:     {models.StatePO, models.StateSolicitud},
	models.StatePO:         {models.StatePlaneacion, models.StateVisita},
	models.StatePlaneacion: {models.StateEjecucion, models.StatePO},
	models.StateEjecucion:  {models.StateInforme, models.StatePlaneacion},
	models.StateInforme:    {models.StateActa, models.StateEjecucion},
	models.StateActa:       {models.StateSES, models.StateInforme},
	models.StateSES:        {models.StateFactura, models.StateActa},
	models.StateFactura:    {models.StatePago, models.StateSES},
	models.StatePago:       {},
}

func stateIndex(s models.OrderState) int {
	for i, st := range models.OrderStates {
		if st == s {
			return i
		}
	}
	return -1
}

func CanTransition(from, to models.OrderState) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

func AllowedStates(from models.OrderState) []models.OrderState {
	allowed := transitions[from]
	out := make([]models.OrderState, len(allowed))
	copy(out, allowed)
	return out
}

func IsFinal(s models.OrderState) bool {
	return s == models.StatePago
}

// NextState returns the forward successor of s, if any.
func NextState(s models.OrderState) (models.OrderState, bool) {
	i := stateIndex(s)
	if i < 0 || i+1 >= len(models.OrderStates) {
		return "", false
	}
	return models.OrderStates[i+1], true
}

// Progress is the position of s in the workflow as a rounded percentage.
func Progress(s models.OrderState) int {
	i := stateIndex(s)
	if i < 0 {
		return 0
	}
	return int(math.Round(float64(i) / float64(len(models.OrderStates)-1) * 100))
}

func IsBackward(from, to models.OrderState) bool {
	return stateIndex(to) < stateIndex(from)
}
