package holdem

import (
	"encoding/json"
	"fmt"
)

// Round is one of the four betting streets
type Round int

// constants for Round
const (
	RoundPreFlop Round = iota
	RoundFlop
	RoundTurn
	RoundRiver
)

func (r Round) String() string {
	switch r {
	case RoundPreFlop:
		return "pre-flop"
	case RoundFlop:
		return "flop"
	case RoundTurn:
		return "turn"
	case RoundRiver:
		return "river"
	}

	panic(fmt.Sprintf("unknown round: %d", int(r)))
}

// MarshalJSON encodes the round as its wire name
func (r Round) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.String())
}
