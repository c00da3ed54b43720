package entity

import (
	"context"
	"fmt"
	"math"
	"strconv"

	"github.com/five82/zowiebox/internal/state"
)

type switchEntity struct {
	base
	isOn func(snap *state.Snapshot) (bool, bool)
	set  func(snap *state.Snapshot, on bool) (action, error)
}

func (s *switchEntity) IsOn(v state.View) (bool, bool) {
	if v.Data == nil {
		return false, false
	}
	return s.isOn(v.Data)
}

func (s *switchEntity) State(v state.View) (string, bool) {
	on, ok := s.IsOn(v)
	if !ok {
		return "", false
	}
	return onOff(on), true
}

func (s *switchEntity) TurnOn(ctx context.Context) error { return s.turn(ctx, true) }

func (s *switchEntity) TurnOff(ctx context.Context) error { return s.turn(ctx, false) }

func (s *switchEntity) turn(ctx context.Context, on bool) error {
	return s.run(ctx, fmt.Sprintf("%s %s", s.info.ObjectID, onOff(on)), func(snap *state.Snapshot) (action, error) {
		return s.set(snap, on)
	})
}

type selectEntity struct {
	base
	current func(snap *state.Snapshot) (string, bool)
	options func(snap *state.Snapshot) []string
	set     func(snap *state.Snapshot, option string) (action, error)
}

func (s *selectEntity) Current(v state.View) (string, bool) {
	if v.Data == nil {
		return "", false
	}
	return s.current(v.Data)
}

func (s *selectEntity) Options(v state.View) []string {
	if v.Data == nil {
		return nil
	}
	return s.options(v.Data)
}

func (s *selectEntity) State(v state.View) (string, bool) { return s.Current(v) }

func (s *selectEntity) SelectOption(ctx context.Context, option string) error {
	return s.run(ctx, fmt.Sprintf("%s select %q", s.info.ObjectID, option), func(snap *state.Snapshot) (action, error) {
		if !contains(s.options(snap), option) {
			return nil, fmt.Errorf("%w: %q", ErrUnknownOption, option)
		}
		return s.set(snap, option)
	})
}

type numberEntity struct {
	base
	value func(snap *state.Snapshot) (float64, bool)
	set   func(snap *state.Snapshot, value float64) (action, error)
}

func (n *numberEntity) Value(v state.View) (float64, bool) {
	if v.Data == nil {
		return 0, false
	}
	return n.value(v.Data)
}

func (n *numberEntity) State(v state.View) (string, bool) {
	val, ok := n.Value(v)
	if !ok {
		return "", false
	}
	return FormatNumber(val), true
}

func (n *numberEntity) SetValue(ctx context.Context, value float64) error {
	if math.IsNaN(value) || value < n.info.Min || value > n.info.Max {
		return fmt.Errorf("%w: %v not in [%v, %v]", ErrOutOfRange, value, n.info.Min, n.info.Max)
	}
	return n.run(ctx, fmt.Sprintf("%s set %v", n.info.ObjectID, value), func(snap *state.Snapshot) (action, error) {
		return n.set(snap, value)
	})
}

type sensorEntity struct {
	base
	value func(snap *state.Snapshot) (string, bool)
	attrs func(snap *state.Snapshot) map[string]any
	// unknown is reported before any data arrives; empty means no state.
	unknown string
}

func (s *sensorEntity) State(v state.View) (string, bool) {
	if v.Data == nil {
		return s.unknown, s.unknown != ""
	}
	return s.value(v.Data)
}

func (s *sensorEntity) Attributes(v state.View) map[string]any {
	if v.Data == nil || s.attrs == nil {
		return map[string]any{}
	}
	return s.attrs(v.Data)
}

// FormatNumber renders a number without trailing zeros.
func FormatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func onOff(on bool) string {
	if on {
		return "ON"
	}
	return "OFF"
}

func contains(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}
